package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-honeypot/backend/internal/analysis/scam"
	"github.com/zhouzirui/z-honeypot/backend/internal/config"
	"github.com/zhouzirui/z-honeypot/backend/internal/model/persona"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/ai"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/conversation"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/events"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/session"
)

func newTestRouter(t *testing.T, withMonitor bool) http.Handler {
	t.Helper()
	personas := persona.NewMemoryStore(persona.Seed())
	engine, err := conversation.New(conversation.Deps{
		Store:      session.NewMemoryStore(),
		Classifier: scam.New(scam.DefaultThreshold),
		Responder:  ai.NewResponder(nil, ai.Options{}, nil),
		Personas:   personas,
	}, config.EngineConfig{StallAfterTurns: 4, PlateauTurns: 3, MaxTurns: 10}, "", nil)
	require.NoError(t, err)

	deps := Dependencies{
		Engine:         engine,
		Personas:       personas,
		APIKey:         "secret",
		AllowedOrigins: []string{"*"},
	}
	if withMonitor {
		deps.Monitor = events.NewHub(4, nil)
	}
	return NewRouter(deps)
}

func TestRouterPublicEndpoints(t *testing.T) {
	r := newTestRouter(t, false)

	for _, path := range []string{"/", "/health"} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, resp.Code, path)
	}
}

func TestRouterRequiresAPIKey(t *testing.T) {
	r := newTestRouter(t, false)
	body := []byte(`{"sessionId":"r-1","message":{"sender":"scammer","text":"Your account is blocked, act now"}}`)

	req := httptest.NewRequest(http.MethodPost, "/api/honeypot", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/honeypot", bytes.NewReader(body))
	req.Header.Set("x-api-key", "secret")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"conversationStatus":"engaged"`)
}

func TestRouterMonitorRoutesOptional(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/ws/events", nil)
	req.Header.Set("x-api-key", "secret")

	resp := httptest.NewRecorder()
	newTestRouter(t, false).ServeHTTP(resp, req)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	// without an Upgrade header the websocket handshake is refused, which proves the route exists
	resp = httptest.NewRecorder()
	newTestRouter(t, true).ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
