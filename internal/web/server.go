// Package web provides the HTTP server and handlers for the claim upload UI
// and its JSON API.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hitpa/claimupload/internal/config"
	"github.com/hitpa/claimupload/internal/core"
	"github.com/hitpa/claimupload/internal/logging"
	"github.com/hitpa/claimupload/internal/session"
	appmw "github.com/hitpa/claimupload/internal/web/middleware"
)

// Server is the HTTP server for the claim upload application.
type Server struct {
	service  *core.Service
	sessions *session.Store
	cfg      *config.Config
	limiter  *appmw.RateLimiter
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, sessions *session.Store, cfg *config.Config) *Server {
	s := &Server{
		service:  service,
		sessions: sessions,
		cfg:      cfg,
		limiter:  appmw.NewRateLimiter(cfg.Security.APIRateLimit, time.Minute),
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(appmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(appmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
	s.router.Use(requestMetadata)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	// Browser workflow, one session per cookie
	s.router.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)

		r.Get("/", s.handleUploadPage)
		r.Get("/logs", s.handleLogsPage)

		r.Post("/operation", s.handleSelectOperation)
		r.Post("/upload", s.handleUpload)
		r.Post("/regenerate", s.handleRegenerate)
		r.Get("/xml/download", s.handleDownloadXML)
		r.Post("/submit", s.handleSubmit)
		r.Post("/response/parse", s.handleParseResponse)
		r.Get("/response.xlsx", s.handleDownloadResponse)
		r.Get("/history.xlsx", s.handleDownloadHistory)
		r.Post("/reset", s.handleReset)
	})

	// JSON API for automation
	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware)
		r.Use(appmw.APIKeyAuth(&s.cfg.Security))

		r.Get("/operations", s.handleAPIOperations)
		r.Get("/status", s.handleAPIStatus)
		r.Post("/convert", s.handleAPIConvert)
		r.Post("/submit/{operation}", s.handleAPISubmit)
		r.Post("/unwrap", s.handleAPIUnwrap)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	go s.limiter.RunCleanup(ctx)

	logging.FromContext(ctx).Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

const contentSecurityPolicy = "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none'"

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				h.Set("Content-Security-Policy", contentSecurityPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are only logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(context.Background()).Error("json encode failed", "error", err)
	}
}
