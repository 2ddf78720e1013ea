package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hoanghai1803/newswire/internal/roster"
)

func TestGetParliamentarians(t *testing.T) {
	cache := &fakeCache{
		set:       roster.NewSet([]string{"albanese", "chalmers", "dutton"}),
		refreshed: roster.NewSet([]string{"albanese", "chalmers", "dutton", "ley"}),
	}

	tests := []struct {
		name      string
		query     string
		wantCount int
		wantCache bool
	}{
		{name: "cached", query: "", wantCount: 3, wantCache: true},
		{name: "keywords only", query: "?keywords_only=true", wantCount: 3, wantCache: false},
		{name: "refresh", query: "?refresh=true", wantCount: 4, wantCache: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			GetParliamentarians(cache).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/parliamentarians"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
			}
			var body struct {
				Success  bool         `json:"success"`
				Count    int          `json:"count"`
				Keywords []string     `json:"keywords"`
				Cache    *roster.Info `json:"cache"`
			}
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if body.Count != tt.wantCount || len(body.Keywords) != tt.wantCount {
				t.Errorf("count = %d (%d keywords), want %d", body.Count, len(body.Keywords), tt.wantCount)
			}
			if (body.Cache != nil) != tt.wantCache {
				t.Errorf("cache present = %v, want %v", body.Cache != nil, tt.wantCache)
			}
		})
	}
}

func TestGetParliamentarians_RefreshFailure(t *testing.T) {
	cache := &fakeCache{set: roster.NewSet(nil), refreshErr: errors.New("aph unavailable")}

	w := httptest.NewRecorder()
	GetParliamentarians(cache).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/parliamentarians?refresh=true", nil))

	if w.Code != http.StatusBadGateway {
		t.Errorf("got status %d, want %d", w.Code, http.StatusBadGateway)
	}
}
