package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/hoanghai1803/newswire/internal/api/handlers"
	"github.com/hoanghai1803/newswire/internal/metrics"
	"github.com/hoanghai1803/newswire/internal/storage"
)

// Deps are the services the HTTP API is built on.
type Deps struct {
	News      handlers.NewsService
	Sources   handlers.SourceDirectory
	Store     *storage.Store
	Sweeper   handlers.SweepRunner
	Roster    handlers.KeywordCache
	Extractor handlers.Extractor
	Metrics   *metrics.Metrics
}

// NewRouter creates and configures the HTTP router with all API routes,
// the health check and the Prometheus endpoint.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(RequestLogger)
	r.Use(Recovery)
	r.Use(CORS)
	r.Use(Metrics(d.Metrics))

	r.Get("/healthz", handlers.Healthz(d.Store))
	r.Handle("/metrics", d.Metrics.Handler())

	// API sub-router.
	r.Route("/api", func(api chi.Router) {
		api.Get("/news", handlers.GetNews(d.News))
		api.Get("/news/search", handlers.SearchNews(d.News))
		api.Post("/news/fetch-and-store", handlers.FetchAndStore(d.News, d.Store))

		api.Get("/sources", handlers.GetSources(d.Sources))
		api.Get("/sources/{name}/news", handlers.GetSourceNews(d.News))

		api.Get("/articles", handlers.ListArticles(d.Store))
		api.Get("/articles/search", handlers.SearchArticles(d.Store))
		api.Get("/articles/{id}", handlers.GetArticle(d.Store))

		api.Post("/sweeps", handlers.TriggerSweep(d.Sweeper))
		api.Get("/sweeps", handlers.ListSweeps(d.Store, d.Sweeper))

		api.Get("/parliamentarians", handlers.GetParliamentarians(d.Roster))
		api.Get("/extract", handlers.ExtractArticle(d.Extractor))
	})

	return r
}
