package interview

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	interviewService "github.com/zhouzirui/trait-interview/backend/internal/service/interview"
	"github.com/zhouzirui/trait-interview/backend/pkg/utils"
)

const audioField = "audio_file"

// Service 是处理器依赖的面试服务能力。
type Service interface {
	Start(ctx context.Context, req interviewService.StartRequest) (interviewService.StartResult, error)
	Session(ctx context.Context, id string) (interviewService.SessionView, error)
	Submit(ctx context.Context, sessionID, responseText string) (interviewService.Reply, error)
	SubmitAudio(ctx context.Context, sessionID string, audio interviewService.AudioInput) (interviewService.Reply, error)
}

// Handler 面试流程的HTTP处理器
type Handler struct {
	svc         Service
	uploadLimit int64
}

// New 创建面试处理器。uploadLimit <= 0 时不限制上传大小。
func New(svc Service, uploadLimit int64) *Handler {
	return &Handler{svc: svc, uploadLimit: uploadLimit}
}

// RegisterRoutes 注册面试相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/interviews", func(r chi.Router) {
		r.Post("/", h.handleStart)
		r.Get("/{sessionID}", h.handleSession)
		r.Post("/{sessionID}/responses", h.handleSubmitText)
		r.Post("/{sessionID}/audio", h.handleSubmitAudio)
	})
}

type startPayload struct {
	SessionID     string `json:"sessionId"`
	CandidateName string `json:"candidateName"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var payload startPayload
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

	status := http.StatusCreated
	if strings.TrimSpace(payload.SessionID) != "" {
		status = http.StatusOK
	}
	utils.RespondJSON(w, status, result)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, view)
}

func (h *Handler) handleSubmitText(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ResponseText string `json:"responseText"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.svc.Submit(r.Context(), chi.URLParam(r, "sessionID"), payload.ResponseText)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, reply)
}

func (h *Handler) handleSubmitAudio(w http.ResponseWriter, r *http.Request) {
	reply, ok := h.submitAudio(w, r, chi.URLParam(r, "sessionID"))
	if ok {
		utils.RespondJSON(w, http.StatusOK, reply)
	}
}

// submitAudio 解析 multipart 上传并提交给服务；失败时已写出错误响应。
func (h *Handler) submitAudio(w http.ResponseWriter, r *http.Request, sessionID string) (interviewService.Reply, bool) {
	file, header, err := h.audioUpload(w, r)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return interviewService.Reply{}, false
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	if sessionID == "" {
		sessionID = r.FormValue("session_id")
	}

	reply, err := h.svc.SubmitAudio(r.Context(), sessionID, interviewService.AudioInput{
		Data:     file,
		Filename: header.Filename,
		Language: r.FormValue("language"),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return interviewService.Reply{}, false
	}
	return reply, true
}

func (h *Handler) audioUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if h.uploadLimit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimit)
	}
	if err := r.ParseMultipartForm(maxMemory(h.uploadLimit)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, errors.New("audio upload exceeds size limit")
		}
		return nil, nil, errors.New("invalid multipart form")
	}

	file, header, err := r.FormFile(audioField)
	if err != nil {
		return nil, nil, errors.New(audioField + " is required")
	}
	return file, header, nil
}

// maxMemory 控制内存中缓存的表单大小，超出部分落盘。
func maxMemory(limit int64) int64 {
	const defaultMemory = 8 << 20
	if limit > 0 && limit < defaultMemory {
		return limit
	}
	return defaultMemory
}

// respondServiceError 将服务层错误映射为 HTTP 状态码。
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, interviewService.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, interviewService.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, interviewService.ErrTranscriptionDisabled):
		status = http.StatusServiceUnavailable
	case errors.Is(err, interviewService.ErrCapability):
		status = http.StatusBadGateway
	}

	log := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("interview request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Msg("interview request rejected")
	}
	utils.RespondError(w, status, err.Error())
}
