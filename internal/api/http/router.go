package apihttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"clinic-analytics/internal/auth"
	"clinic-analytics/internal/observability/logging"
)

// Registrar mounts a bounded context's routes.
type Registrar interface {
	Register(r chi.Router)
}

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	JWTSecret   []byte
	CORSOrigins []string
	Logger      *zap.Logger
	Handlers    []Registrar
}

// NewRouter builds the API router: CORS, access log, auth and RBAC, then routes.
// /healthz and /metrics skip auth.
func NewRouter(cfg RouterConfig) http.Handler {
	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware(cfg.JWTSecret, policy)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "X-Report-Id"},
	}).Handler)
	r.Use(logging.AccessLog(cfg.Logger))
	r.Use(authMiddleware.Wrap)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	for _, handler := range cfg.Handlers {
		if handler != nil {
			handler.Register(r)
		}
	}
	return r
}
