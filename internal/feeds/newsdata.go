package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hoanghai1803/newswire/internal/models"
)

const newsDataBaseURL = "https://newsdata.io/api/1"

// newsDataPubDate is the layout of NewsData's pubDate field, always UTC.
const newsDataPubDate = "2006-01-02 15:04:05"

var newsDataCategories = map[string]string{
	"politics":      "politics",
	"business":      "business",
	"technology":    "technology",
	"environment":   "environment",
	"international": "world",
	"world":         "world",
}

type newsDataResponse struct {
	Status       string          `json:"status"`
	TotalResults int             `json:"totalResults"`
	Results      json.RawMessage `json:"results"`
	NextPage     string          `json:"nextPage"`
}

type newsDataItem struct {
	ArticleID      string          `json:"article_id"`
	Title          string          `json:"title"`
	Link           string          `json:"link"`
	Creator        []string        `json:"creator"`
	Description    string          `json:"description"`
	Content        string          `json:"content"`
	PubDate        string          `json:"pubDate"`
	ImageURL       string          `json:"image_url"`
	SourceID       string          `json:"source_id"`
	SourceName     string          `json:"source_name"`
	SourceURL      string          `json:"source_url"`
	SourcePriority int             `json:"source_priority"`
	Category       []string        `json:"category"`
	Sentiment      string          `json:"sentiment"`
	AITag          json.RawMessage `json:"ai_tag"`
}

// NewsDataSource reads newsdata.io. It is the only source with archive
// search.
type NewsDataSource struct {
	fetcher *Fetcher
	apiKey  string
	baseURL string
	now     func() time.Time
}

// NewNewsDataSource creates a NewsData source. An empty apiKey makes Fetch
// and Archive fail with ErrMissingCredential.
func NewNewsDataSource(fetcher *Fetcher, apiKey string) *NewsDataSource {
	return &NewsDataSource{
		fetcher: fetcher,
		apiKey:  apiKey,
		baseURL: newsDataBaseURL,
		now:     time.Now,
	}
}

// Name returns the provider name. Articles carry the upstream outlet name
// instead.
func (s *NewsDataSource) Name() string { return "NewsData.io" }

// Categories returns the categories NewsData maps natively.
func (s *NewsDataSource) Categories() []string {
	return []string{"business", "environment", "international", "politics", "technology"}
}

// Fetch calls the latest-news endpoint for Australian English-language news.
func (s *NewsDataSource) Fetch(ctx context.Context, opts FetchOptions) ([]models.Article, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("newsdata: %w: api key is required", ErrMissingCredential)
	}

	params := s.params(opts.Category, opts.Keywords)
	items, err := s.query(ctx, "/latest", params)
	if err != nil {
		return nil, err
	}
	return filterAndCap(s.toArticles(items, "newsdata"), opts.FromDate, opts.limit()), nil
}

// Archive calls the historical endpoint. A 403 or 426 response means the
// plan has no archive access and yields ErrArchiveEntitlement.
func (s *NewsDataSource) Archive(ctx context.Context, q ArchiveQuery) ([]models.Article, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("newsdata: %w: api key is required", ErrMissingCredential)
	}

	params := s.params(q.Category, q.Keywords)
	if !q.From.IsZero() {
		params.Set("from_date", q.From.Format("2006-01-02"))
	}
	if !q.To.IsZero() {
		params.Set("to_date", q.To.Format("2006-01-02"))
	}

	items, err := s.query(ctx, "/archive", params)
	if err != nil {
		var serr *StatusError
		if errors.As(err, &serr) && (serr.Code == http.StatusForbidden || serr.Code == http.StatusUpgradeRequired) {
			return nil, fmt.Errorf("newsdata archive: %w", ErrArchiveEntitlement)
		}
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return filterAndCap(s.toArticles(items, "archive"), q.From, limit), nil
}

func (s *NewsDataSource) params(category, keywords string) url.Values {
	params := url.Values{}
	params.Set("apikey", s.apiKey)
	params.Set("country", "au")
	params.Set("language", "en")
	if c, ok := newsDataCategories[strings.ToLower(strings.TrimSpace(category))]; ok {
		params.Set("category", c)
	}
	if keywords != "" {
		params.Set("q", keywords)
	}
	return params
}

func (s *NewsDataSource) query(ctx context.Context, path string, params url.Values) ([]newsDataItem, error) {
	body, err := s.fetcher.Get(ctx, s.baseURL+path+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp newsDataResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding newsdata response: %w", err)
	}
	if resp.Status != "success" {
		var detail struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(resp.Results, &detail)
		return nil, fmt.Errorf("newsdata returned status %q: %s", resp.Status, detail.Message)
	}

	var items []newsDataItem
	if len(resp.Results) > 0 && string(resp.Results) != "null" {
		if err := json.Unmarshal(resp.Results, &items); err != nil {
			return nil, fmt.Errorf("decoding newsdata results: %w", err)
		}
	}
	return items, nil
}

func (s *NewsDataSource) toArticles(items []newsDataItem, idPrefix string) []models.Article {
	articles := make([]models.Article, 0, len(items))
	for i, item := range items {
		publishedAt, err := time.ParseInLocation(newsDataPubDate, item.PubDate, time.UTC)
		estimated := err != nil
		if estimated {
			publishedAt = s.now()
		}

		content := cleanContent(firstNonEmpty(availableSignal(item.Content), availableSignal(item.Description)))
		id := item.ArticleID
		if id == "" {
			id = fmt.Sprintf("%s-%d", idPrefix, i)
		}

		articles = append(articles, models.Article{
			ID:                 id,
			Title:              strings.TrimSpace(cleanText(item.Title)),
			Content:            content,
			Source:             firstNonEmpty(item.SourceName, item.SourceID, s.Name()),
			SourceURL:          item.Link,
			PublishedAt:        publishedAt,
			TimeEstimated:      estimated,
			Category:           newsDataCategory(item.Category),
			Author:             strings.Join(item.Creator, ", "),
			ImageURL:           item.ImageURL,
			ReadingTimeMinutes: CalculateReadingTime(content),
			Signals: models.Signals{
				Sentiment:    availableSignal(item.Sentiment),
				Tags:         aiTags(item.AITag),
				Priority:     item.SourcePriority,
				SourceDomain: item.SourceURL,
			},
		})
	}
	return articles
}

// newsDataCategory maps the first recognised upstream category to an
// abstract one. Upstream-only categories such as "top" are left to the
// classifier.
func newsDataCategory(upstream []string) models.Category {
	for _, c := range upstream {
		if c == "world" {
			return models.CategoryInternational
		}
		if cat, ok := models.ParseCategory(c); ok && cat != models.CategoryOther {
			return cat
		}
	}
	return ""
}

// availableSignal returns "" for the placeholder text NewsData sends in
// fields reserved for paid plans.
func availableSignal(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToUpper(s), "ONLY AVAILABLE IN") {
		return ""
	}
	return s
}

// aiTags decodes ai_tag, which is either a list of tags or a single string.
func aiTags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		var single string
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil
		}
		list = []string{single}
	}

	var tags []string
	for _, t := range list {
		if t = availableSignal(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
