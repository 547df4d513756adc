package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/roofscope/roofscope/internal/repository"
)

// Server wires the handlers onto a mux and owns the http.Server lifecycle.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// Handlers carries the route implementations the server mounts.
type Handlers struct {
	Documents *DocumentHandler
	Estimates *EstimateHandler
	Catalog   *CatalogHandler
	DB        *repository.DB
}

func New(addr string, h Handlers, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/documents/{id}/process", h.Documents.Process)
	mux.HandleFunc("POST /v1/documents/{id}/reprocess", h.Documents.Reprocess)
	mux.HandleFunc("GET /v1/documents/{id}", h.Documents.Get)
	mux.HandleFunc("POST /v1/estimates/calculate", h.Estimates.Calculate)
	mux.HandleFunc("GET /v1/estimates/{id}", h.Estimates.Get)
	mux.HandleFunc("POST /v1/estimates/{id}/status", h.Estimates.UpdateStatus)
	mux.HandleFunc("GET /v1/estimates/{id}/export", h.Estimates.Export)
	mux.HandleFunc("GET /v1/catalog/products", h.Catalog.ListProducts)
	mux.HandleFunc("GET /v1/catalog/suppliers", h.Catalog.ListSuppliers)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if h.DB != nil {
			if err := h.DB.HealthCheck(r.Context(), 3*time.Second); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           logRequests(mux, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("server.listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server.shutting_down")
	return s.httpServer.Shutdown(ctx)
}

func logRequests(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}
