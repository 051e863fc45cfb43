package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pazarly/search-service/pkg/health"
	"github.com/pazarly/search-service/pkg/middleware"
)

// RouterDeps holds everything the router mounts.
type RouterDeps struct {
	Search   *SearchHandler
	History  *HistoryHandler
	Webhooks *WebhookHandler
	Health   *health.Handler
	Auth     middleware.TokenValidator
	Logger   *slog.Logger
}

// NewRouter assembles the HTTP surface: public search and suggestion routes,
// authenticated history routes, change-event webhooks, and the operational
// endpoints.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.PrometheusMetrics("search-service"))
	r.Use(middleware.CORS)

	r.Get("/healthz", deps.Health.LivenessHandler())
	r.Get("/readyz", deps.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", deps.Search.Search)
		r.Get("/search/articles", deps.Search.SearchArticles)
		r.Get("/search-suggestions", deps.History.Suggestions)
		r.Get("/search-stats/top3", deps.History.TopStats)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.Auth))
			r.Post("/search-history", deps.History.Record)
			r.Get("/search-history", deps.History.List)
			r.Delete("/search-history/{id}", deps.History.Delete)
			r.Get("/user-search-suggestions", deps.History.UserSuggestions)
		})
	})

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/ranking-slots", deps.Webhooks.RankingSlots)
		r.Post("/posts", deps.Webhooks.Posts)
	})

	return r
}
