package monitor

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/z-honeypot/backend/internal/service/events"
	"github.com/zhouzirui/z-honeypot/backend/pkg/utils"
)

const (
	writeWait    = 5 * time.Second
	pingInterval = 25 * time.Second
)

// Subscriber 事件订阅接口，由 events.Hub 实现
type Subscriber interface {
	Subscribe(sessionID string) (<-chan events.Event, func())
}

// Handler 实时监控处理器，通过 WebSocket 或 SSE 推送引擎事件
type Handler struct {
	hub          Subscriber
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	logger       *slog.Logger
}

// New 创建监控处理器
func New(hub Subscriber, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pingInterval: pingInterval,
		logger:       logger,
	}
}

// RegisterRoutes 注册监控路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/events", h.handleWebSocket)
	r.Get("/events", h.handleSSE)
}

// handleWebSocket 把事件逐条以 JSON 文本帧推送给客户端
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sessionID := r.URL.Query().Get("sessionId")
	ch, cancel := h.hub.Subscribe(sessionID)
	defer cancel()
	h.logger.Info("monitor connected", "transport", "websocket", "session_filter", sessionID)

	// the client never sends anything we need; reading only surfaces the close
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case evt, ok := <-ch:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscriber too slow"),
					time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(evt); err != nil {
				h.logger.Debug("monitor write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// handleSSE 以 Server-Sent Events 推送同样的事件流
func (h *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	ch, cancel := h.hub.Subscribe(sessionID)
	defer cancel()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	h.logger.Info("monitor connected", "transport", "sse", "session_filter", sessionID)

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, string(evt.Type), evt); err != nil {
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "ping"); err != nil {
				return
			}
		}
	}
}
