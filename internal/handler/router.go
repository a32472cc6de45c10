package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Pinger reports backend health for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig contains the dependencies of the HTTP router.
type RouterConfig struct {
	Auth     *AuthHandler
	Document *DocumentHandler
	Workflow *WorkflowHandler
	UIState  *UIStateHandler
	Metrics  *Metrics
	Registry *prometheus.Registry
	DB       Pinger
	Logger   zerolog.Logger
}

// NewRouter builds the chi router for the archive API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.Get("/health", healthHandler(cfg.DB))
	if cfg.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", cfg.Auth.Login)
			r.Post("/logout", cfg.Auth.Logout)
			r.Post("/reauth", cfg.Auth.ReAuthenticate)
			r.Get("/session", cfg.Auth.Session)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", cfg.Document.List)
			r.Post("/", cfg.Document.Save)
			r.Get("/{id}", cfg.Document.Get)
			r.Post("/{id}/delete", cfg.Document.Delete)
			r.Post("/{id}/attachment", cfg.Document.UploadAttachment)
		})

		r.Get("/my/documents", cfg.Document.My)

		r.Route("/workflow", func(r chi.Router) {
			r.Get("/state", cfg.Workflow.State)
			r.Post("/select", cfg.Workflow.Select)
			r.Post("/add", cfg.Workflow.Add)
			r.Post("/edit", cfg.Workflow.Edit)
			r.Post("/dismiss", cfg.Workflow.Dismiss)
		})

		r.Route("/ui", func(r chi.Router) {
			r.Get("/home", cfg.UIState.Home)
			r.Post("/home/refresh", cfg.UIState.HomeRefresh)
			r.Post("/home/search", cfg.UIState.HomeSearch)
			r.Get("/my", cfg.UIState.My)
			r.Post("/my/refresh", cfg.UIState.MyRefresh)
		})
	})

	return r
}

// healthHandler reports liveness, including backend reachability when a
// pinger is configured.
func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

// requestLogger logs each request at debug with method, path, status and
// latency.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Msg("request handled")
		})
	}
}
