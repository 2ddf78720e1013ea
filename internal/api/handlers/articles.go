package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hoanghai1803/newswire/internal/models"
	"github.com/hoanghai1803/newswire/internal/storage"
)

// ListArticles handles GET /api/articles?category&search&page&limit. It
// pages through stored articles, newest first.
func ListArticles(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		page := 1
		if p := query.Get("page"); p != "" {
			if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
				page = parsed
			}
		}

		result, err := store.ListArticles(r.Context(), storage.ArticleQuery{
			Category: query.Get("category"),
			Search:   query.Get("search"),
			Page:     page,
			Limit:    parseLimit(r, defaultLimit),
		})
		if err != nil {
			slog.Error("failed to list articles", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to list articles")
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// GetArticle handles GET /api/articles/{id}.
func GetArticle(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		article, err := store.GetArticle(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Article not found")
				return
			}
			slog.Error("failed to get article", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to get article")
			return
		}

		writeJSON(w, http.StatusOK, article)
	}
}

// SearchArticles handles GET /api/articles/search?q={query}&limit={limit}.
// It performs full-text search over stored articles using FTS5.
func SearchArticles(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			writeJSON(w, http.StatusOK, []models.StoredArticle{})
			return
		}

		articles, err := store.SearchArticles(r.Context(), query, parseLimit(r, defaultLimit))
		if err != nil {
			slog.Error("failed to search articles", "query", query, "error", err)
			writeError(w, http.StatusInternalServerError, "Search failed")
			return
		}
		if articles == nil {
			articles = []models.StoredArticle{}
		}

		writeJSON(w, http.StatusOK, articles)
	}
}
