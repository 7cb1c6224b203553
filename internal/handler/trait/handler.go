package trait

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/trait-interview/backend/internal/model/trait"
	"github.com/zhouzirui/trait-interview/backend/pkg/utils"
)

// Handler 特质目录的HTTP处理器
type Handler struct {
	catalog trait.Catalog
}

// New 创建特质目录处理器
func New(catalog trait.Catalog) *Handler {
	return &Handler{catalog: catalog}
}

// RegisterRoutes 注册特质目录相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/traits", h.handleListTraits)
}

// handleListTraits 按面试顺序列出所有特质
func (h *Handler) handleListTraits(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.catalog.List())
}
