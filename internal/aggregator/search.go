package aggregator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hoanghai1803/newswire/internal/feeds"
	"github.com/hoanghai1803/newswire/internal/models"
	"github.com/samber/lo"
)

// DefaultArchiveKeywords is sent to archive providers when a date-range
// search has no keywords.
const DefaultArchiveKeywords = "parliament OR minister OR policy OR government"

// ErrInvalidRange is returned when a search range ends before it starts.
var ErrInvalidRange = errors.New("invalid date range: to is before from")

// SearchQuery is a keyword search, optionally bounded by a date range.
type SearchQuery struct {
	Keywords string
	Category string
	From     time.Time
	To       time.Time
	Limit    int
}

// SearchResult is the outcome of Search. Archive reports whether the archive
// path was taken, which is true exactly when From was set.
type SearchResult struct {
	Articles []models.Article     `json:"articles"`
	Failed   []models.FailedSource `json:"failed,omitempty"`
	Archive  bool                 `json:"archive"`
}

// Search runs a live aggregation when q.From is zero. Otherwise it queries
// every archive-capable source with the date range as native parameters.
// A provider refusing archive access for the current plan yields no
// articles rather than an error.
func (a *Aggregator) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	if q.From.IsZero() {
		res, err := a.AggregateByCategory(ctx, q.Category, q.Keywords)
		if err != nil {
			return nil, err
		}
		return &SearchResult{Articles: res.Articles, Failed: res.Failed}, nil
	}

	if q.To.IsZero() {
		q.To = time.Now()
	}
	if q.To.Before(q.From) {
		return nil, ErrInvalidRange
	}
	if q.Keywords == "" {
		q.Keywords = DefaultArchiveKeywords
	}
	if q.Limit <= 0 {
		q.Limit = a.defaultLimit
	}
	q.Category = normalizeCategory(q.Category)

	aq := feeds.ArchiveQuery{
		Keywords: q.Keywords,
		Category: q.Category,
		From:     q.From,
		To:       q.To,
		Limit:    q.Limit,
	}

	calls := lo.Map(a.registry.ArchiveSources(), func(src feeds.ArchiveSource, _ int) sourceCall {
		return sourceCall{
			name: src.Name(),
			fetch: func(ctx context.Context) ([]models.Article, error) {
				articles, err := src.Archive(ctx, aq)
				if errors.Is(err, feeds.ErrArchiveEntitlement) {
					slog.Info("archive access not available, returning no results",
						"source", src.Name(),
						"from", aq.From.Format(time.DateOnly),
						"to", aq.To.Format(time.DateOnly),
					)
					return nil, nil
				}
				return articles, err
			},
		}
	})

	articles, failed := a.fanOut(ctx, calls)
	return &SearchResult{
		Articles: a.process(ctx, articles, q.Category),
		Failed:   failed,
		Archive:  true,
	}, nil
}
