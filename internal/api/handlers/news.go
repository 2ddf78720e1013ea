package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hoanghai1803/newswire/internal/aggregator"
	"github.com/hoanghai1803/newswire/internal/feeds"
	"github.com/hoanghai1803/newswire/internal/models"
	"github.com/hoanghai1803/newswire/internal/storage"
)

// NewsService is the aggregation pipeline the news handlers call into.
type NewsService interface {
	AggregateByCategory(ctx context.Context, category, keywords string) (*aggregator.Result, error)
	FetchFromSource(ctx context.Context, name string, opts feeds.FetchOptions) (*aggregator.Result, error)
	Search(ctx context.Context, q aggregator.SearchQuery) (*aggregator.SearchResult, error)
}

type newsResponse struct {
	Success bool                  `json:"success"`
	Count   int                   `json:"count"`
	Total   int                   `json:"total"`
	News    []models.Article      `json:"news"`
	Failed  []models.FailedSource `json:"failed_sources,omitempty"`
}

func newNewsResponse(articles []models.Article, failed []models.FailedSource, limit int) newsResponse {
	if articles == nil {
		articles = []models.Article{}
	}
	page := articles[:min(len(articles), limit)]
	return newsResponse{
		Success: true,
		Count:   len(page),
		Total:   len(articles),
		News:    page,
		Failed:  failed,
	}
}

// GetNews handles GET /api/news?category={category}&limit={limit}. It
// aggregates every source for the category and returns the top of the
// ranked list.
func GetNews(svc NewsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := r.URL.Query().Get("category")
		if category == "" {
			category = "all"
		}
		limit := parseLimit(r, defaultLimit)

		res, err := svc.AggregateByCategory(r.Context(), category, r.URL.Query().Get("keywords"))
		if err != nil {
			slog.Error("failed to aggregate news", "category", category, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch news")
			return
		}

		writeJSON(w, http.StatusOK, newNewsResponse(res.Articles, res.Failed, limit))
	}
}

type searchParams struct {
	Keywords string `json:"keywords,omitempty"`
	FromDate string `json:"from_date,omitempty"`
	ToDate   string `json:"to_date,omitempty"`
	Category string `json:"category,omitempty"`
}

type searchResponse struct {
	newsResponse
	HasArchiveAccess bool         `json:"hasArchiveAccess"`
	SearchParams     searchParams `json:"searchParams"`
}

// SearchNews handles GET /api/news/search. With from_date it searches the
// archive for the date range; without it, it is the live aggregation.
func SearchNews(svc NewsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		params := searchParams{
			Keywords: query.Get("keywords"),
			FromDate: query.Get("from_date"),
			ToDate:   query.Get("to_date"),
			Category: query.Get("category"),
		}

		from, err := parseDate(r, "from_date")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		to, err := parseDate(r, "to_date")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		limit := parseLimit(r, maxLimit)

		res, err := svc.Search(r.Context(), aggregator.SearchQuery{
			Keywords: params.Keywords,
			Category: params.Category,
			From:     from,
			To:       to,
			Limit:    limit,
		})
		if err != nil {
			if errors.Is(err, aggregator.ErrInvalidRange) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			slog.Error("failed to search news", "keywords", params.Keywords, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to search news")
			return
		}

		writeJSON(w, http.StatusOK, searchResponse{
			newsResponse:     newNewsResponse(res.Articles, res.Failed, limit),
			HasArchiveAccess: res.Archive,
			SearchParams:     params,
		})
	}
}

// FetchAndStore handles POST /api/news/fetch-and-store. The optional body
// {"category": "...", "limit": n} selects what to aggregate; the top
// articles are persisted and the counts returned.
func FetchAndStore(svc NewsService, store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Category string `json:"category"`
			Limit    int    `json:"limit"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if body.Category == "" {
			body.Category = "all"
		}
		if body.Limit <= 0 {
			body.Limit = defaultLimit
		}
		body.Limit = min(body.Limit, maxLimit)

		res, err := svc.AggregateByCategory(r.Context(), body.Category, "")
		if err != nil {
			slog.Error("failed to aggregate news", "category", body.Category, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch news")
			return
		}

		top := res.Articles[:min(len(res.Articles), body.Limit)]
		stored, err := store.StoreArticles(r.Context(), top)
		if err != nil {
			slog.Error("failed to store articles", "count", len(top), "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to store articles")
			return
		}

		slog.Info("fetched and stored news", "category", body.Category, "fetched", len(top), "stored", stored)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":        true,
			"fetched":        len(top),
			"stored":         stored,
			"failed_sources": res.Failed,
		})
	}
}
