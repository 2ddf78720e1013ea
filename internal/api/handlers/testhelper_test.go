package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hoanghai1803/newswire/internal/aggregator"
	"github.com/hoanghai1803/newswire/internal/feeds"
	"github.com/hoanghai1803/newswire/internal/models"
	"github.com/hoanghai1803/newswire/internal/roster"
	"github.com/hoanghai1803/newswire/internal/storage"
)

// newTestStore creates an in-memory SQLite store with migrations applied. It
// registers a cleanup function to close the database when the test
// completes.
func newTestStore(t *testing.T) *storage.Store {
	t.Helper()

	db, err := storage.OpenDatabase(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := storage.RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	return storage.NewStore(db)
}

var baseTime = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

// testArticles returns n ranked politics articles, newest first.
func testArticles(n int) []models.Article {
	out := make([]models.Article, n)
	for i := range out {
		out[i] = models.Article{
			ID:             "abc-" + string(rune('a'+i)),
			Title:          "Budget story " + string(rune('A'+i)),
			Content:        "Treasurer outlines the budget.",
			Source:         "ABC News",
			SourceURL:      "https://www.abc.net.au/news/" + string(rune('a'+i)),
			PublishedAt:    baseTime.Add(-time.Duration(i) * time.Hour),
			Category:       models.CategoryPolitics,
			RelevanceScore: 0.95,
		}
	}
	return out
}

// fakeNews records the last call and returns canned results.
type fakeNews struct {
	mu sync.Mutex

	articles []models.Article
	failed   []models.FailedSource
	err      error

	lastCategory string
	lastKeywords string
	lastOpts     feeds.FetchOptions
	lastSearch   aggregator.SearchQuery
}

func (f *fakeNews) AggregateByCategory(_ context.Context, category, keywords string) (*aggregator.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCategory, f.lastKeywords = category, keywords
	if f.err != nil {
		return nil, f.err
	}
	return &aggregator.Result{Articles: f.articles, Failed: f.failed}, nil
}

func (f *fakeNews) FetchFromSource(_ context.Context, name string, opts feeds.FetchOptions) (*aggregator.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastOpts = opts
	if name != "abc" {
		return nil, feeds.ErrUnknownSource
	}
	return &aggregator.Result{Articles: f.articles}, nil
}

func (f *fakeNews) Search(_ context.Context, q aggregator.SearchQuery) (*aggregator.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSearch = q
	if !q.From.IsZero() && q.To.Before(q.From) && !q.To.IsZero() {
		return nil, aggregator.ErrInvalidRange
	}
	if f.err != nil {
		return nil, f.err
	}
	return &aggregator.SearchResult{Articles: f.articles, Archive: !q.From.IsZero()}, nil
}

type fakeCache struct {
	set        *roster.Set
	refreshed  *roster.Set
	refreshErr error
}

func (f *fakeCache) Keywords(context.Context) *roster.Set { return f.set }

func (f *fakeCache) Refresh(context.Context) (*roster.Set, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshed, nil
}

func (f *fakeCache) Info() roster.Info {
	return roster.Info{Count: f.set.Len(), RefreshedAt: baseTime}
}

type fakeRunner struct {
	run  *models.SweepRun
	err  error
	next time.Time
}

func (f *fakeRunner) RunOnce(context.Context) (*models.SweepRun, error) {
	return f.run, f.err
}

func (f *fakeRunner) NextRun() (time.Time, error) {
	if f.next.IsZero() {
		return time.Time{}, errors.New("not scheduled")
	}
	return f.next, nil
}

type fakeExtractor struct {
	calls []string
}

func (f *fakeExtractor) ExtractArticle(_ context.Context, articleURL string) (*feeds.ArticleMetadata, error) {
	f.calls = append(f.calls, articleURL)
	if articleURL == "https://example.com/broken" {
		return nil, errors.New("readability failed")
	}
	return &feeds.ArticleMetadata{URL: articleURL, Title: "Extracted", ReadingTimeMinutes: 3}, nil
}
