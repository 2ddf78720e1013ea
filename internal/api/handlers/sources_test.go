package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hoanghai1803/newswire/internal/feeds"
)

type fakeDirectory []feeds.SourceInfo

func (d fakeDirectory) Describe() []feeds.SourceInfo { return d }

func TestGetSources(t *testing.T) {
	dir := fakeDirectory{
		{Name: "ABC News", Categories: []string{"politics", "business"}},
		{Name: "NewsData.io", Archive: true},
	}

	w := httptest.NewRecorder()
	GetSources(dir).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sources", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}

	var body struct {
		Count   int                `json:"count"`
		Sources []feeds.SourceInfo `json:"sources"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Count != 2 || len(body.Sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(body.Sources))
	}
	if !body.Sources[1].Archive {
		t.Error("NewsData.io should report archive support")
	}
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestGetSourceNews(t *testing.T) {
	t.Run("known source", func(t *testing.T) {
		svc := &fakeNews{articles: testArticles(5)}
		r := withURLParam(httptest.NewRequest(http.MethodGet, "/api/sources/abc/news?category=business&limit=2", nil), "name", "abc")
		w := httptest.NewRecorder()

		GetSourceNews(svc).ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
		}
		if body := decodeNews(t, w); body.Count != 2 {
			t.Errorf("count = %d, want 2", body.Count)
		}
		if svc.lastOpts.Category != "business" || svc.lastOpts.Limit != 2 {
			t.Errorf("options = %+v, want category business limit 2", svc.lastOpts)
		}
	})

	t.Run("unknown source", func(t *testing.T) {
		r := withURLParam(httptest.NewRequest(http.MethodGet, "/api/sources/bbc/news", nil), "name", "bbc")
		w := httptest.NewRecorder()

		GetSourceNews(&fakeNews{}).ServeHTTP(w, r)

		if w.Code != http.StatusNotFound {
			t.Fatalf("got status %d, want %d", w.Code, http.StatusNotFound)
		}
		if body := decodeNews(t, w); body.Error != "Unknown source: bbc" {
			t.Errorf("error = %q, want it to name the source", body.Error)
		}
	})
}
