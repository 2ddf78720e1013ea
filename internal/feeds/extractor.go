package feeds

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// browserHeaders sets browser-like request headers so publishers that check
// Accept or User-Agent don't reject the request.
func browserHeaders(r *http.Request) {
	r.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	r.Header.Set("User-Agent", "Mozilla/5.0 (compatible; newswire/1.0; +https://github.com/hoanghai1803/newswire)")
}

// ArticleMetadata holds the readable content extracted from an article page.
type ArticleMetadata struct {
	URL                string     `json:"url"`
	Title              string     `json:"title"`
	SiteName           string     `json:"site_name,omitempty"`
	Byline             string     `json:"byline,omitempty"`
	Excerpt            string     `json:"excerpt,omitempty"`
	Image              string     `json:"image,omitempty"`
	TextContent        string     `json:"text_content"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	ReadingTimeMinutes int        `json:"reading_time_minutes"`
}

// ExtractArticleMetadata fetches a web page and returns its readable text
// and metadata.
func ExtractArticleMetadata(url string, timeout time.Duration) (*ArticleMetadata, error) {
	article, err := readability.FromURL(url, timeout, browserHeaders)
	if err != nil {
		return nil, fmt.Errorf("readability extraction: %w", err)
	}

	return &ArticleMetadata{
		URL:         url,
		Title:       article.Title,
		SiteName:    article.SiteName,
		Byline:      article.Byline,
		Excerpt:     article.Excerpt,
		Image:       article.Image,
		TextContent: article.TextContent,
		PublishedAt: article.PublishedTime,
	}, nil
}

// truncateWords returns the first maxWords whitespace-delimited words from s.
// If s contains fewer than maxWords words, it is returned unchanged.
func truncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ")
}
