package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"modelhub/internal/backend"
	"modelhub/internal/manager"
	"modelhub/internal/registry"
	"modelhub/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.Model
	FindModels(q registry.Query) []types.Model
	ListLoaded() []types.LoadedModel
	LoadModel(ctx context.Context, name, path string) (backend.Backend, error)
	UnloadModel(name string) bool
	GetModelHealth(ctx context.Context, name string) types.ModelHealth
	CheckAllHealth(ctx context.Context) []types.ModelHealth
	SwitchDefault(name string) error
	DefaultModel() string
	Generate(ctx context.Context, name, prompt string, params backend.GenerateParams) (string, string, error)
	Translate(ctx context.Context, name, instruction, codeContext string) (string, string, error)
	CleanupIdle(ttl time.Duration) int
	TTL() time.Duration
	CleanupTempFiles() (int, error)
	Status() types.StatusResponse
	SanityCheck() manager.SanityReport
	Ready() bool
}

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(accessLog)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	h := &handlers{svc: svc}

	r.Route("/models", func(r chi.Router) {
		r.Get("/", h.listModels)
		r.Get("/loaded", h.listLoaded)
		r.Post("/{name}/load", h.loadModel)
		r.Delete("/{name}", h.unloadModel)
		r.Get("/{name}/health", h.modelHealth)
	})
	r.Get("/health/models", h.allHealth)
	r.Post("/default", h.switchDefault)
	r.Post("/generate", h.generate)
	r.Post("/translate", h.translate)
	r.Post("/cleanup", h.cleanup)
	r.Get("/status", h.status)
	r.Get("/sanity", h.sanity)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("closed"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
