package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AyushDoCode/WhatsappChatbot/pkg/health"
	"github.com/AyushDoCode/WhatsappChatbot/pkg/middleware"
)

const serviceName = "catalog-search"

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	Timeout        time.Duration
	Tracing        bool
}

// NewRouter creates a chi router with all catalog search routes registered.
func NewRouter(
	searchHandler *SearchHandler,
	conversationHandler *ConversationHandler,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	if cfg.Tracing {
		r.Use(middleware.Tracing(serviceName))
	}
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.Timeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// One limiter store is shared by every group; keys are conversation ids
	// or client IPs.
	limit := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimitRPS > 0 {
		limit = middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/index/stats", searchHandler.IndexStats)

		r.Route("/search", func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(limit)
			r.Post("/", searchHandler.Search)
			r.Post("/range", searchHandler.SearchRange)
			r.Post("/vector", searchHandler.VectorSearch)
			r.Post("/hybrid", searchHandler.HybridSearch)
		})

		r.Route("/conversations/{id}", func(r chi.Router) {
			r.Use(middleware.ConversationScope("id"))
			r.Use(ContentTypeJSON)
			r.Use(limit)
			r.Post("/search", conversationHandler.Search)
			r.Post("/more", conversationHandler.ShowMore)
			r.Get("/pagination", conversationHandler.GetPagination)
			r.Put("/pagination", conversationHandler.SavePagination)
		})
	})

	return r
}
