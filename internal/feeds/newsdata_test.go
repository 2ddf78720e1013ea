package feeds

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/hoanghai1803/newswire/internal/models"
)

const testNewsData = `{
  "status": "success",
  "totalResults": 3,
  "results": [
    {
      "article_id": "nd-1",
      "title": "Minister announces housing plan",
      "link": "https://www.smh.com.au/housing",
      "creator": ["Alex Writer", "Sam Editor"],
      "description": "The minister said <b>today</b>.",
      "content": "ONLY AVAILABLE IN PAID PLANS",
      "pubDate": "2025-03-04 08:30:00",
      "image_url": "https://www.smh.com.au/img.jpg",
      "source_id": "smh",
      "source_name": "Sydney Morning Herald",
      "source_url": "https://www.smh.com.au",
      "source_priority": 2251,
      "category": ["top", "politics"],
      "sentiment": "positive",
      "ai_tag": ["government", "housing"]
    },
    {
      "article_id": "nd-2",
      "title": "Markets rally",
      "link": "https://example.com/markets",
      "creator": null,
      "description": "",
      "content": "Shares rose.",
      "pubDate": "not a date",
      "source_id": "examplewire",
      "source_priority": 90000,
      "category": ["world"],
      "sentiment": "ONLY AVAILABLE IN PROFESSIONAL AND CORPORATE PLANS",
      "ai_tag": "ONLY AVAILABLE IN PROFESSIONAL AND CORPORATE PLANS"
    },
    {
      "article_id": "",
      "title": "Old item",
      "link": "https://example.com/old",
      "pubDate": "2024-01-01 00:00:00",
      "source_name": "Example",
      "category": ["top"]
    }
  ]
}`

func newTestNewsData(t *testing.T, handler http.HandlerFunc) *NewsDataSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	src := NewNewsDataSource(newTestFetcher(), "nd-key")
	src.baseURL = srv.URL + "/api/1"
	src.now = func() time.Time { return time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC) }
	return src
}

func TestNewsDataSource_ContentPrefersFullBody(t *testing.T) {
	src := newTestNewsData(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","results":[{
			"article_id": "nd-full",
			"title": "Budget reply speech",
			"link": "https://example.com/reply",
			"description": "Short teaser.",
			"content": "<p>The Opposition Leader delivered the budget reply in full.</p>",
			"pubDate": "2025-03-04 08:30:00"
		}]}`)) //nolint:errcheck
	})

	articles, err := src.Fetch(context.Background(), FetchOptions{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1", len(articles))
	}
	if want := "The Opposition Leader delivered the budget reply in full."; articles[0].Content != want {
		t.Errorf("Content = %q, want %q", articles[0].Content, want)
	}
}

func TestNewsDataSource_Fetch(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	src := newTestNewsData(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.Query()
		w.Write([]byte(testNewsData)) //nolint:errcheck
	})

	articles, err := src.Fetch(context.Background(), FetchOptions{Category: "international", Keywords: "trade"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if gotPath != "/api/1/latest" {
		t.Errorf("path = %q, want /api/1/latest", gotPath)
	}
	for k, want := range map[string]string{"apikey": "nd-key", "country": "au", "language": "en", "category": "world", "q": "trade"} {
		if gotQuery.Get(k) != want {
			t.Errorf("query %s = %q, want %q", k, gotQuery.Get(k), want)
		}
	}

	if len(articles) != 3 {
		t.Fatalf("got %d articles, want 3", len(articles))
	}

	a := articles[0]
	if a.Source != "Sydney Morning Herald" {
		t.Errorf("Source = %q, want upstream outlet name", a.Source)
	}
	if a.Content != "The minister said today." {
		t.Errorf("Content = %q, want description when content is a plan placeholder", a.Content)
	}
	if a.Author != "Alex Writer, Sam Editor" {
		t.Errorf("Author = %q", a.Author)
	}
	if a.Category != models.CategoryPolitics {
		t.Errorf("Category = %q, want %q", a.Category, models.CategoryPolitics)
	}
	wantTime := time.Date(2025, 3, 4, 8, 30, 0, 0, time.UTC)
	if !a.PublishedAt.Equal(wantTime) || a.TimeEstimated {
		t.Errorf("PublishedAt = %v (estimated %v), want %v", a.PublishedAt, a.TimeEstimated, wantTime)
	}
	if a.Signals.Sentiment != "positive" || a.Signals.Priority != 2251 || a.Signals.SourceDomain != "https://www.smh.com.au" {
		t.Errorf("Signals = %+v", a.Signals)
	}
	if len(a.Signals.Tags) != 2 {
		t.Errorf("Tags = %v, want 2 tags", a.Signals.Tags)
	}

	b := articles[1]
	if b.Source != "examplewire" {
		t.Errorf("Source = %q, want source_id fallback", b.Source)
	}
	if b.Content != "Shares rose." {
		t.Errorf("Content = %q, want full content", b.Content)
	}
	if !b.TimeEstimated {
		t.Error("TimeEstimated should be true for an unparseable pubDate")
	}
	if b.Category != models.CategoryInternational {
		t.Errorf("Category = %q, want %q", b.Category, models.CategoryInternational)
	}
	if b.Signals.Sentiment != "" || len(b.Signals.Tags) != 0 {
		t.Errorf("placeholder signals should be absent, got %+v", b.Signals)
	}

	c := articles[2]
	if c.ID != "newsdata-2" {
		t.Errorf("ID = %q, want %q", c.ID, "newsdata-2")
	}
	if c.Category != "" {
		t.Errorf("Category = %q, want empty for upstream-only category", c.Category)
	}
}

func TestNewsDataSource_Archive(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	src := newTestNewsData(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.Query()
		w.Write([]byte(testNewsData)) //nolint:errcheck
	})

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	articles, err := src.Archive(context.Background(), ArchiveQuery{Keywords: "housing", Category: "politics", From: from, To: to})
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	if gotPath != "/api/1/archive" {
		t.Errorf("path = %q, want /api/1/archive", gotPath)
	}
	for k, want := range map[string]string{"from_date": "2025-03-01", "to_date": "2025-03-31", "q": "housing", "category": "politics"} {
		if gotQuery.Get(k) != want {
			t.Errorf("query %s = %q, want %q", k, gotQuery.Get(k), want)
		}
	}

	// the 2024 item falls before From
	if len(articles) != 2 {
		t.Errorf("got %d articles, want 2", len(articles))
	}
}

func TestNewsDataSource_ArchiveEntitlement(t *testing.T) {
	for _, code := range []int{http.StatusForbidden, http.StatusUpgradeRequired} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			src := newTestNewsData(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(code)
				w.Write([]byte(`{"status":"error","results":{"message":"upgrade"}}`)) //nolint:errcheck
			})

			_, err := src.Archive(context.Background(), ArchiveQuery{From: time.Now().AddDate(0, -1, 0)})
			if !errors.Is(err, ErrArchiveEntitlement) {
				t.Errorf("Archive() error = %v, want ErrArchiveEntitlement", err)
			}
		})
	}
}

func TestNewsDataSource_Errors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		src := NewNewsDataSource(newTestFetcher(), "")
		if _, err := src.Fetch(context.Background(), FetchOptions{}); !errors.Is(err, ErrMissingCredential) {
			t.Errorf("Fetch() error = %v, want ErrMissingCredential", err)
		}
		if _, err := src.Archive(context.Background(), ArchiveQuery{}); !errors.Is(err, ErrMissingCredential) {
			t.Errorf("Archive() error = %v, want ErrMissingCredential", err)
		}
	})

	t.Run("error status in body", func(t *testing.T) {
		src := newTestNewsData(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"status":"error","results":{"message":"rate limited"}}`)) //nolint:errcheck
		})
		if _, err := src.Fetch(context.Background(), FetchOptions{}); err == nil {
			t.Fatal("expected error for error status")
		}
	})

	t.Run("archive server error is not entitlement", func(t *testing.T) {
		src := newTestNewsData(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "bad request", http.StatusBadRequest)
		})
		_, err := src.Archive(context.Background(), ArchiveQuery{})
		if err == nil || errors.Is(err, ErrArchiveEntitlement) {
			t.Errorf("Archive() error = %v, want a non-entitlement error", err)
		}
	})
}

func TestAITags(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "list", raw: `["a","b"]`, want: 2},
		{name: "single string", raw: `"politics"`, want: 1},
		{name: "placeholder", raw: `"ONLY AVAILABLE IN PAID PLANS"`, want: 0},
		{name: "null", raw: `null`, want: 0},
		{name: "empty", raw: ``, want: 0},
		{name: "wrong type", raw: `42`, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := aiTags([]byte(tt.raw)); len(got) != tt.want {
				t.Errorf("aiTags(%s) = %v, want %d tags", tt.raw, got, tt.want)
			}
		})
	}
}
