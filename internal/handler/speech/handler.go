package speech

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/trait-interview/backend/internal/model/speech"
	speechsvc "github.com/zhouzirui/trait-interview/backend/internal/service/speech"
	"github.com/zhouzirui/trait-interview/backend/pkg/utils"
)

// Handler 语音服务的HTTP处理器，供前端在面试开始前检查麦克风与识别效果。
type Handler struct {
	transcriber speechsvc.Transcriber
	provider    speech.Provider
	uploadLimit int64
}

// New 创建语音处理器。transcriber 为 nil 时所有识别请求返回 503。
func New(transcriber speechsvc.Transcriber, provider speech.Provider, uploadLimit int64) *Handler {
	return &Handler{
		transcriber: transcriber,
		provider:    provider,
		uploadLimit: uploadLimit,
	}
}

// RegisterRoutes 注册语音相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/speech", func(speechRouter chi.Router) {
		speechRouter.Post("/transcribe", h.handleTranscribe)
		speechRouter.Get("/health", h.handleHealth)
	})
}

// handleTranscribe 处理语音转文本请求，不影响任何面试会话
func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if h.transcriber == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "speech recognition is not configured")
		return
	}

	if h.uploadLimit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimit)
	}
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("audio_file")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio_file is required")
		return
	}
	defer file.Close()

	if header.Size == 0 {
		utils.RespondError(w, http.StatusBadRequest, "audio file is empty")
		return
	}

	resp, err := h.transcriber.Transcribe(r.Context(), &speech.ASRRequest{
		SessionID: "mic-check",
		AudioData: file,
		Filename:  header.Filename,
		Format:    inferAudioFormat(header.Filename),
		Language:  r.FormValue("language"),
	})
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("speech recognition failed")
		utils.RespondError(w, http.StatusBadGateway, "speech recognition failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}

// handleHealth 健康检查端点
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if h.transcriber == nil {
		status = "disabled"
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":   status,
		"service":  "speech",
		"provider": string(h.provider),
	})
}

// inferAudioFormat 从文件名推断音频格式
func inferAudioFormat(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mp3", ".wav", ".webm", ".m4a", ".aac", ".ogg":
		return strings.TrimPrefix(ext, ".")
	default:
		return "wav"
	}
}
