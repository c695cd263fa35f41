package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-honeypot/backend/internal/model/persona"
	"github.com/zhouzirui/z-honeypot/backend/pkg/utils"
)

// Handler persona服务的HTTP处理器
type Handler struct {
	personas       persona.Store
	defaultPersona string
}

// New 创建persona处理器
func New(personas persona.Store, defaultPersona string) *Handler {
	return &Handler{
		personas:       personas,
		defaultPersona: defaultPersona,
	}
}

// RegisterRoutes 注册persona相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleListPersonas)
	r.Get("/personas/{personaID}", h.handleGetPersona)
}

// handleListPersonas 列出所有受害者角色及默认选择
func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"default":  h.defaultPersona,
		"personas": h.personas.List(),
	})
}

// handleGetPersona 按ID查询角色
func (h *Handler) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "personaID")
	p, ok := h.personas.FindByID(id)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "persona not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}
