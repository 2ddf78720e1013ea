package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hoanghai1803/newswire/internal/roster"
)

// KeywordCache is the cached parliamentarian keyword set.
type KeywordCache interface {
	Keywords(ctx context.Context) *roster.Set
	Refresh(ctx context.Context) (*roster.Set, error)
	Info() roster.Info
}

// GetParliamentarians handles GET /api/parliamentarians. refresh=true forces
// a reload from the roster; keywords_only=true drops the cache details.
func GetParliamentarians(cache KeywordCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		query := r.URL.Query()

		var set *roster.Set
		if query.Get("refresh") == "true" {
			var err error
			set, err = cache.Refresh(ctx)
			if err != nil {
				slog.Error("failed to refresh parliamentarians", "error", err)
				writeError(w, http.StatusBadGateway, "Failed to fetch parliamentarians")
				return
			}
		} else {
			set = cache.Keywords(ctx)
		}

		keywords := set.Slice()

		if query.Get("keywords_only") == "true" {
			writeJSON(w, http.StatusOK, map[string]any{
				"success":  true,
				"count":    len(keywords),
				"keywords": keywords,
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"count":    len(keywords),
			"cache":    cache.Info(),
			"keywords": keywords,
		})
	}
}
