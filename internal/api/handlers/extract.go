package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hoanghai1803/newswire/internal/feeds"
)

// Extractor pulls the readable text and metadata out of an article page.
type Extractor interface {
	ExtractArticle(ctx context.Context, articleURL string) (*feeds.ArticleMetadata, error)
}

// ExtractArticle handles GET /api/extract?url=<encoded-url>. It returns the
// readable text, byline, lead image and reading time of the page.
func ExtractArticle(ex Extractor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetURL := r.URL.Query().Get("url")
		if targetURL == "" {
			writeError(w, http.StatusBadRequest, "url parameter is required")
			return
		}

		parsed, err := url.Parse(targetURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			writeError(w, http.StatusBadRequest, "url must be a valid HTTP or HTTPS URL")
			return
		}

		meta, err := ex.ExtractArticle(r.Context(), targetURL)
		if err != nil {
			slog.Warn("article extraction failed", "url", targetURL, "error", err)
			writeError(w, http.StatusBadGateway, "Failed to extract article")
			return
		}

		writeJSON(w, http.StatusOK, meta)
	}
}
