package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hoanghai1803/newswire/internal/feeds"
)

// SourceDirectory lists the registered sources.
type SourceDirectory interface {
	Describe() []feeds.SourceInfo
}

// GetSources handles GET /api/sources. It returns every registered source
// with its categories and whether it supports archive search.
func GetSources(dir SourceDirectory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources := dir.Describe()
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"count":   len(sources),
			"sources": sources,
		})
	}
}

// GetSourceNews handles GET /api/sources/{name}/news. It runs the pipeline
// over one source; an unknown name is a 404.
func GetSourceNews(svc NewsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		limit := parseLimit(r, defaultLimit)

		res, err := svc.FetchFromSource(r.Context(), name, feeds.FetchOptions{
			Category: r.URL.Query().Get("category"),
			Keywords: r.URL.Query().Get("keywords"),
			Limit:    limit,
		})
		if err != nil {
			if errors.Is(err, feeds.ErrUnknownSource) {
				writeError(w, http.StatusNotFound, "Unknown source: "+name)
				return
			}
			slog.Error("failed to fetch source", "source", name, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch news")
			return
		}

		writeJSON(w, http.StatusOK, newNewsResponse(res.Articles, res.Failed, limit))
	}
}
