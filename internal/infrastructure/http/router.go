package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/trackroom/trackroom/internal/domain"
	"github.com/trackroom/trackroom/internal/infrastructure/http/handlers"
	"github.com/trackroom/trackroom/internal/infrastructure/http/middleware"
)

type RouterConfig struct {
	AuthHandler    *handlers.AuthHandler
	ProjectHandler *handlers.ProjectHandler
	FolderHandler  *handlers.FolderHandler
	AdminHandler   *handlers.AdminHandler
	HealthHandler  *handlers.HealthHandler
	Principal      *middleware.PrincipalResolver
	Log            zerolog.Logger
	Secure         func(http.Handler) http.Handler
	CORS           func(http.Handler) http.Handler
	IPRateLimit    func(http.Handler) http.Handler
	APIVersion     string
	Metrics        bool // expose /metrics
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(loggerMiddleware(cfg.Log))
	r.Use(chimid.Recoverer)
	if cfg.Metrics {
		r.Use(middleware.PrometheusMiddleware)
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	if cfg.CORS != nil {
		r.Use(cfg.CORS)
	}
	if cfg.APIVersion != "" {
		r.Use(middleware.APIVersion(cfg.APIVersion))
	}
	if cfg.IPRateLimit != nil {
		r.Use(cfg.IPRateLimit)
	}
	r.Use(cfg.Principal.Handler)

	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.ServeHTTP)
	} else {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
	}
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(chimid.AllowContentType("application/json"))
		r.Post("/signup", cfg.AuthHandler.Signup)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/forgot-password", cfg.AuthHandler.ForgotPassword)
		r.Post("/reset-password", cfg.AuthHandler.ResetPassword)
	})

	r.Route("/projects", func(r chi.Router) {
		r.Post("/", cfg.ProjectHandler.Create)
		r.Get("/{projectID}", cfg.ProjectHandler.Get)
		// Payload endpoints take the raw body; everything else is JSON.
		r.Post("/{projectID}/versions", cfg.ProjectHandler.SubmitVersion)
		r.Group(func(r chi.Router) {
			r.Use(chimid.AllowContentType("application/json"))
			r.Post("/{projectID}/approve", cfg.ProjectHandler.Approve)
			r.Post("/{projectID}/reopen", cfg.ProjectHandler.Reopen)
			r.Post("/{projectID}/share/reset", cfg.ProjectHandler.ResetShareToken)
			r.Post("/{projectID}/review-links", cfg.ProjectHandler.IssueReviewLink)
		})
		r.Delete("/{projectID}/review-links/{tokenID}", cfg.ProjectHandler.RevokeReviewLink)
	})

	// Listen-only surface behind the share secret.
	r.Get("/share/{projectID}", cfg.ProjectHandler.ShareGet)

	r.Route("/folders", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chimid.AllowContentType("application/json"))
			r.Post("/", cfg.FolderHandler.Create)
			r.Post("/{folderID}/grants", cfg.FolderHandler.GrantAccess)
			r.Patch("/{folderID}/files/{fileID}", cfg.FolderHandler.Rename)
		})
		r.Post("/{folderID}/files", cfg.FolderHandler.Upload)
		r.Get("/{folderID}/files", cfg.FolderHandler.List)
		r.Get("/{folderID}/files/{fileID}", cfg.FolderHandler.Download)
		r.Delete("/{folderID}/files/{fileID}", cfg.FolderHandler.Delete)
		r.Delete("/{folderID}/grants/{tokenID}", cfg.FolderHandler.RevokeGrant)
	})

	if cfg.AdminHandler != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin))
			r.Post("/retention/prune-tokens", cfg.AdminHandler.PruneTokens)
		})
	}

	return r
}

func loggerMiddleware(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := chimid.GetReqID(r.Context())
			log.Info().
				Str("request_id", reqID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("request")
			next.ServeHTTP(w, r)
		})
	}
}
