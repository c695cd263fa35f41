package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/z-honeypot/backend/internal/handler/honeypot"
	"github.com/zhouzirui/z-honeypot/backend/internal/handler/monitor"
	"github.com/zhouzirui/z-honeypot/backend/internal/handler/persona"
	middlewarePkg "github.com/zhouzirui/z-honeypot/backend/internal/middleware"
	personaModel "github.com/zhouzirui/z-honeypot/backend/internal/model/persona"
	"github.com/zhouzirui/z-honeypot/backend/pkg/utils"
)

// Dependencies groups what the HTTP layer needs. Monitor may be nil.
type Dependencies struct {
	Engine         honeypot.Engine
	Personas       personaModel.Store
	DefaultPersona string
	Monitor        monitor.Subscriber
	APIKey         string
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))
	r.Use(middleware.Heartbeat("/health"))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"service": "z-honeypot",
			"status":  "running",
		})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewarePkg.APIKey(deps.APIKey))

		honeypot.New(deps.Engine, logger).RegisterRoutes(api)
		persona.New(deps.Personas, deps.DefaultPersona).RegisterRoutes(api)

		if deps.Monitor != nil {
			monitor.New(deps.Monitor, logger).RegisterRoutes(api)
		}
	})

	return r
}
