package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"

	"github.com/iotwatch/predmaint/internal/config"
	"github.com/iotwatch/predmaint/internal/metrics"
	"github.com/iotwatch/predmaint/internal/services"
)

// NewRouter builds the HTTP handler serving the dashboard API.
func NewRouter(cfg config.ServerConfig, svc *services.MaintenanceService, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{svc: svc, logger: logger}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(observe)

	r.Get("/sensors", h.Sensors)
	r.Get("/predict", h.Predict)
	r.Get("/predict/history", h.PredictHistory)
	r.Get("/assets", h.Assets)
	r.Get("/model-info", h.ModelInfo)
	r.Get("/healthz", h.Health)

	r.Route("/debug", func(r chi.Router) {
		r.Get("/scan-table", h.DebugScanTable)
		r.Get("/simple-query", h.DebugSimpleQuery)
		r.Get("/aws-connection", h.DebugAWSConnection)
	})

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(r)
}

// observe counts requests by matched route pattern and status code.
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		metrics.ObserveRequest(route, code)
	})
}
