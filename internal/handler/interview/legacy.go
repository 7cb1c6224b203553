package interview

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	interviewModel "github.com/zhouzirui/trait-interview/backend/internal/model/interview"
	interviewService "github.com/zhouzirui/trait-interview/backend/internal/service/interview"
	"github.com/zhouzirui/trait-interview/backend/pkg/utils"
)

// legacyReply 保留旧版前端使用的 snake_case 字段。
type legacyReply struct {
	SessionID         string   `json:"session_id,omitempty"`
	Message           string   `json:"message"`
	Question          string   `json:"question,omitempty"`
	Score             *float64 `json:"score,omitempty"`
	TranscriptWarning string   `json:"transcript_warning,omitempty"`
}

// RegisterLegacyRoutes 注册旧版前端的 /start_interview 与 /submit_response。
func (h *Handler) RegisterLegacyRoutes(r chi.Router) {
	r.Post("/start_interview", h.handleLegacyStart)
	r.Post("/submit_response", h.handleLegacySubmit)
}

func (h *Handler) handleLegacyStart(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID     string `json:"session_id"`
		CandidateName string `json:"candidate_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Start(r.Context(), interviewService.StartRequest{
		SessionID:     payload.SessionID,
		CandidateName: payload.CandidateName,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, legacyReply{
		SessionID: result.SessionID,
		Message:   "Interview started",
		Question:  result.Question,
	})
}

func (h *Handler) handleLegacySubmit(w http.ResponseWriter, r *http.Request) {
	reply, ok := h.submitAudio(w, r, "")
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, legacyReply{
		SessionID:         reply.SessionID,
		Message:           legacyMessage(reply),
		Question:          reply.Question,
		Score:             reply.Score,
		TranscriptWarning: reply.TranscriptWarning,
	})
}

// legacyMessage 返回旧版前端识别的提示文案，前端依赖 "Interview completed" 判断结束。
func legacyMessage(reply interviewService.Reply) string {
	switch reply.Message {
	case interviewService.MessageCompleted:
		return "Interview completed"
	case interviewService.MessageAdvance:
		return "Moving to next scenario"
	case interviewService.MessageAdvanceInsufficient:
		return "Moving to next scenario due to insufficient response"
	case interviewService.MessageAdvanceUnsatisfied:
		return "Moving to next scenario after follow-up"
	case interviewService.MessageFollowUp:
		if reply.Classification == interviewModel.Insufficient {
			return "Follow-up question for insufficient response"
		}
		return "Follow-up question for unsatisfactory response"
	default:
		return reply.Message
	}
}
