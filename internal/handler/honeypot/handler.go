package honeypot

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-honeypot/backend/internal/model/chat"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/conversation"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/session"
	"github.com/zhouzirui/z-honeypot/backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

// Engine 会话引擎接口
type Engine interface {
	Handle(ctx context.Context, in conversation.Inbound) (conversation.Result, error)
	Analyze(text string) conversation.Analysis
	Session(ctx context.Context, id string) (chat.Session, error)
	Sessions(ctx context.Context, limit int) ([]chat.Session, error)
}

// Handler 蜜罐会话的HTTP处理器
type Handler struct {
	engine Engine
	logger *slog.Logger
}

// New 创建蜜罐处理器
func New(engine Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: engine, logger: logger}
}

// RegisterRoutes 注册蜜罐相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/honeypot", h.handleMessage)
	r.Post("/analyze", h.handleAnalyze)
	r.Get("/sessions", h.handleListSessions)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
}

// handleMessage 处理一条诈骗方消息并返回回复
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var payload honeypotRequest
	if err := decodeBody(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.engine.Handle(r.Context(), payload.inbound())
	if err != nil {
		h.respondEngineError(w, payload.SessionID, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, newHoneypotResponse(payload.SessionID, result))
}

// handleAnalyze 只做分类和情报提取，不修改会话
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var payload analyzeRequest
	if err := decodeBody(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	text := payload.text()
	if text == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	utils.RespondJSON(w, http.StatusOK, newAnalyzeResponse(h.engine.Analyze(text)))
}

// handleGetSession 返回会话快照
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	s, err := h.engine.Session(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) || errors.Is(err, session.ErrSessionIDEmpty) {
			utils.RespondError(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.Error("load session", "session_id", sessionID, "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	utils.RespondJSON(w, http.StatusOK, newSessionView(s, true))
}

// handleListSessions 列出最近的会话
func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.RespondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	sessions, err := h.engine.Sessions(r.Context(), limit)
	if err != nil {
		h.logger.Error("list sessions", "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, newSessionView(s, false))
	}
	utils.RespondJSON(w, http.StatusOK, views)
}

func (h *Handler) respondEngineError(w http.ResponseWriter, sessionID string, err error) {
	switch {
	case errors.Is(err, conversation.ErrInvalidMessage), errors.Is(err, session.ErrSessionIDEmpty):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, conversation.ErrStoreContention):
		h.logger.Warn("store contention", "session_id", sessionID, "error", err)
		w.Header().Set("Retry-After", "1")
		utils.RespondError(w, http.StatusServiceUnavailable, "session busy, retry shortly")
	default:
		h.logger.Error("handle message", "session_id", sessionID, "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to process message")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
