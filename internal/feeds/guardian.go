package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hoanghai1803/newswire/internal/models"
)

const (
	guardianBaseURL     = "https://content.guardianapis.com/search"
	guardianMaxPageSize = 50
	guardianMaxPages    = 5
)

type guardianSection struct {
	section string
	tag     string
}

var guardianSections = map[string]guardianSection{
	"politics":      {section: "australia-news", tag: "australia-news/australian-politics"},
	"business":      {section: "business"},
	"technology":    {section: "technology"},
	"environment":   {section: "environment"},
	"international": {section: "world"},
	"world":         {section: "world"},
}

const guardianDefaultSection = "australia-news"

type guardianResponse struct {
	Response struct {
		Status      string           `json:"status"`
		Message     string           `json:"message"`
		Total       int              `json:"total"`
		CurrentPage int              `json:"currentPage"`
		Pages       int              `json:"pages"`
		Results     []guardianResult `json:"results"`
	} `json:"response"`
}

type guardianResult struct {
	ID                 string `json:"id"`
	SectionID          string `json:"sectionId"`
	WebPublicationDate string `json:"webPublicationDate"`
	WebTitle           string `json:"webTitle"`
	WebURL             string `json:"webUrl"`
	Fields             struct {
		Headline  string `json:"headline"`
		TrailText string `json:"trailText"`
		BodyText  string `json:"bodyText"`
		Thumbnail string `json:"thumbnail"`
		Byline    string `json:"byline"`
	} `json:"fields"`
}

// GuardianSource reads the Guardian content search API, Australian edition.
// Results are paginated; pages are requested one after another.
type GuardianSource struct {
	fetcher  *Fetcher
	apiKey   string
	baseURL  string
	maxPages int
	now      func() time.Time
}

// NewGuardianSource creates a Guardian source. An empty apiKey makes every
// Fetch fail with ErrMissingCredential.
func NewGuardianSource(fetcher *Fetcher, apiKey string) *GuardianSource {
	return &GuardianSource{
		fetcher:  fetcher,
		apiKey:   apiKey,
		baseURL:  guardianBaseURL,
		maxPages: guardianMaxPages,
		now:      time.Now,
	}
}

// Name returns the provider name.
func (s *GuardianSource) Name() string { return "The Guardian Australia" }

// Categories returns the categories mapped to Guardian sections.
func (s *GuardianSource) Categories() []string {
	return []string{"business", "environment", "international", "politics", "technology"}
}

// Fetch searches the Guardian API. FromDate is sent as from-date and also
// applied to the results, since the API only filters by day.
func (s *GuardianSource) Fetch(ctx context.Context, opts FetchOptions) ([]models.Article, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("guardian: %w: api key is required", ErrMissingCredential)
	}

	limit := opts.limit()
	pageSize := min(limit, guardianMaxPageSize)

	var articles []models.Article
	for page := 1; page <= s.maxPages; page++ {
		resp, err := s.fetchPage(ctx, opts, page, pageSize)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			slog.Warn("guardian pagination stopped early", "page", page, "collected", len(articles), "error", err)
			break
		}

		for _, r := range resp.Response.Results {
			articles = append(articles, s.toArticle(r, len(articles)))
		}

		if len(articles) >= limit || resp.Response.CurrentPage >= resp.Response.Pages || len(resp.Response.Results) == 0 {
			break
		}
	}

	return filterAndCap(articles, opts.FromDate, limit), nil
}

func (s *GuardianSource) fetchPage(ctx context.Context, opts FetchOptions, page, pageSize int) (*guardianResponse, error) {
	params := url.Values{}
	params.Set("api-key", s.apiKey)
	params.Set("page-size", strconv.Itoa(pageSize))
	params.Set("page", strconv.Itoa(page))
	params.Set("show-fields", "headline,trailText,bodyText,thumbnail,byline")
	params.Set("edition", "au")
	params.Set("order-by", "newest")

	sec, ok := guardianSections[strings.ToLower(strings.TrimSpace(opts.Category))]
	if !ok {
		sec = guardianSection{section: guardianDefaultSection}
	}
	params.Set("section", sec.section)
	if sec.tag != "" {
		params.Set("tag", sec.tag)
	}
	if opts.Keywords != "" {
		params.Set("q", opts.Keywords)
	}
	if !opts.FromDate.IsZero() {
		params.Set("from-date", opts.FromDate.Format("2006-01-02"))
	}

	body, err := s.fetcher.Get(ctx, s.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp guardianResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding guardian response: %w", err)
	}
	if resp.Response.Status != "ok" {
		return nil, fmt.Errorf("guardian returned status %q: %s", resp.Response.Status, resp.Response.Message)
	}
	return &resp, nil
}

func (s *GuardianSource) toArticle(r guardianResult, index int) models.Article {
	publishedAt, err := time.Parse(time.RFC3339, r.WebPublicationDate)
	estimated := err != nil
	if estimated {
		publishedAt = s.now()
	}

	content := cleanContent(firstNonEmpty(r.Fields.BodyText, r.Fields.TrailText))
	id := r.ID
	if id == "" {
		id = fmt.Sprintf("guardian-%d", index)
	}

	return models.Article{
		ID:                 id,
		Title:              strings.TrimSpace(cleanText(firstNonEmpty(r.Fields.Headline, r.WebTitle))),
		Content:            content,
		Source:             s.Name(),
		SourceURL:          r.WebURL,
		PublishedAt:        publishedAt,
		TimeEstimated:      estimated,
		Category:           sectionCategory(r.SectionID),
		Author:             r.Fields.Byline,
		ImageURL:           r.Fields.Thumbnail,
		ReadingTimeMinutes: CalculateReadingTime(content),
	}
}

// sectionCategory maps a Guardian section id to a provisional category.
func sectionCategory(sectionID string) models.Category {
	switch {
	case strings.Contains(sectionID, "politics"):
		return models.CategoryPolitics
	case strings.Contains(sectionID, "business"):
		return models.CategoryBusiness
	case strings.Contains(sectionID, "technology"):
		return models.CategoryTechnology
	case strings.Contains(sectionID, "environment"):
		return models.CategoryEnvironment
	case strings.Contains(sectionID, "world"):
		return models.CategoryInternational
	default:
		return ""
	}
}
