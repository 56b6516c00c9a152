// Package httpapi is the admin HTTP surface of torchserved: health,
// readiness, status, the model catalog, eviction, metrics and the document
// and generation collaborators.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"torchserved/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
// *manager.Manager implements it.
type Service interface {
	ListModels() []types.Model
	StatusReport() types.StatusResponse
	Ready() bool
	Evict(name string) error
}

// Generator completes prompts for /generate-text.
type Generator interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

type server struct {
	opts    Options
	metrics *Metrics
}

// NewMux builds the admin router.
func NewMux(opts Options) http.Handler {
	opts = opts.withDefaults()
	s := &server{opts: opts, metrics: NewMetrics(opts.Registerer)}

	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if opts.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORS.Origins,
			AllowedMethods: opts.CORS.Methods,
			AllowedHeaders: opts.CORS.Headers,
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}
	r.Use(requestLogger(opts.Logger, parseLevel(opts.LogLevel)))
	r.Use(s.metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Get("/status", s.status)
	r.Get("/models", s.models)
	r.Delete("/models/{name}", s.evict)
	r.Post("/extract/text", s.extractText)
	r.Post("/generate-text", s.generateText)
	r.Get("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}).ServeHTTP)
	MountSwagger(r)
	return r
}

// healthz godoc
// @Summary      Liveness probe
// @Tags         health
// @Produce      plain
// @Success      200  {string}  string  "ok"
// @Router       /healthz [get]
func (s *server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readyz godoc
// @Summary      Readiness probe
// @Description  Ready when no load is pending and the gRPC server is serving.
// @Tags         health
// @Produce      plain
// @Success      200  {string}  string  "ready"
// @Failure      503  {string}  string  "loading"
// @Router       /readyz [get]
func (s *server) readyz(w http.ResponseWriter, _ *http.Request) {
	serving := s.opts.Serving == nil || s.opts.Serving()
	if serving && s.opts.Service.Ready() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("loading"))
}

// status godoc
// @Summary      Instance status
// @Tags         models
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /status [get]
func (s *server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Service.StatusReport())
}

// models godoc
// @Summary      Loadable models
// @Tags         models
// @Produce      json
// @Success      200  {object}  types.ModelsResponse
// @Router       /models [get]
func (s *server) models(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, types.ModelsResponse{Models: s.opts.Service.ListModels()})
}

// evict godoc
// @Summary      Evict an Unloaded or Failed instance
// @Tags         models
// @Param        name  path  string  true  "Model name"
// @Success      204
// @Failure      404  {object}  types.ErrorResponse
// @Failure      409  {object}  types.ErrorResponse
// @Router       /models/{name} [delete]
func (s *server) evict(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "model name is required")
		return
	}
	if err := s.opts.Service.Evict(name); err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
