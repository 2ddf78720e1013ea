package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hoanghai1803/newswire/internal/models"
	"github.com/hoanghai1803/newswire/internal/storage"
)

func seedArticles(t *testing.T, store *storage.Store, n int) {
	t.Helper()
	if _, err := store.StoreArticles(t.Context(), testArticles(n)); err != nil {
		t.Fatalf("seeding articles: %v", err)
	}
}

func TestListArticles(t *testing.T) {
	store := newTestStore(t)
	seedArticles(t, store, 5)

	w := httptest.NewRecorder()
	ListArticles(store).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/articles?page=2&limit=2", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}

	var page storage.ArticlePage
	if err := json.NewDecoder(w.Body).Decode(&page); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if page.Total != 5 || page.Page != 2 || page.Limit != 2 || page.TotalPages != 3 {
		t.Errorf("page = total %d page %d limit %d pages %d, want 5/2/2/3", page.Total, page.Page, page.Limit, page.TotalPages)
	}
	if len(page.Data) != 2 {
		t.Errorf("got %d articles, want 2", len(page.Data))
	}
}

func TestGetArticle(t *testing.T) {
	store := newTestStore(t)
	seedArticles(t, store, 1)

	page, err := store.ListArticles(t.Context(), storage.ArticleQuery{})
	if err != nil || len(page.Data) != 1 {
		t.Fatalf("ListArticles() = %v, %v", page, err)
	}
	id := page.Data[0].ID

	t.Run("found", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := withURLParam(httptest.NewRequest(http.MethodGet, "/api/articles/"+id, nil), "id", id)
		GetArticle(store).ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
		}
		var got models.StoredArticle
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if got.ID != id || got.Source != "ABC News" {
			t.Errorf("got %+v, want the stored ABC article", got)
		}
	})

	t.Run("not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := withURLParam(httptest.NewRequest(http.MethodGet, "/api/articles/missing", nil), "id", "missing")
		GetArticle(store).ServeHTTP(w, r)

		if w.Code != http.StatusNotFound {
			t.Errorf("got status %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestSearchArticles(t *testing.T) {
	store := newTestStore(t)
	seedArticles(t, store, 3)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "empty query", query: "", want: 0},
		{name: "matches content", query: "?q=treasurer", want: 3},
		{name: "matches title", query: "?q=story", want: 3},
		{name: "no match", query: "?q=cricket", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			SearchArticles(store).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/articles/search"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
			}
			var got []models.StoredArticle
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if got == nil {
				t.Error("response should be an array, not null")
			}
			if len(got) != tt.want {
				t.Errorf("got %d results, want %d", len(got), tt.want)
			}
		})
	}
}
