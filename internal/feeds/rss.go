package feeds

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hoanghai1803/newswire/internal/models"
	"github.com/mmcdole/gofeed"
)

// FeedSpec is one RSS feed an RSSSource can read.
type FeedSpec struct {
	URL string
	// Category is the provisional category given to the feed's items. Empty
	// leaves classification entirely to the classifier.
	Category models.Category
}

// RSSConfig describes an RSS-backed source.
type RSSConfig struct {
	Name            string
	Feeds           map[string]FeedSpec
	DefaultCategory string
	DefaultAuthor   string
	Images          []ImageField
}

// RSSSource fetches articles from a provider's RSS feeds.
type RSSSource struct {
	cfg     RSSConfig
	fetcher *Fetcher
	now     func() time.Time
}

// NewRSSSource creates an RSS-backed source.
func NewRSSSource(cfg RSSConfig, fetcher *Fetcher) *RSSSource {
	return &RSSSource{cfg: cfg, fetcher: fetcher, now: time.Now}
}

// NewABCSource returns the ABC News RSS source.
func NewABCSource(fetcher *Fetcher) *RSSSource {
	return NewRSSSource(RSSConfig{
		Name: "ABC News",
		Feeds: map[string]FeedSpec{
			"politics": {URL: "https://www.abc.net.au/news/feed/2942460/rss.xml", Category: models.CategoryPolitics},
			"news":     {URL: "https://www.abc.net.au/news/feed/51120/rss.xml"},
			"business": {URL: "https://www.abc.net.au/news/feed/2908/rss.xml", Category: models.CategoryBusiness},
			"world":    {URL: "https://www.abc.net.au/news/feed/2535500/rss.xml", Category: models.CategoryInternational},
		},
		DefaultCategory: "politics",
		DefaultAuthor:   "ABC News",
		Images:          []ImageField{MediaThumbnail, MediaContent, Enclosure, ItemImage},
	}, fetcher)
}

// NewNewsComAuSource returns the News.com.au RSS source.
func NewNewsComAuSource(fetcher *Fetcher) *RSSSource {
	return NewRSSSource(RSSConfig{
		Name: "News.com.au",
		Feeds: map[string]FeedSpec{
			"politics":   {URL: "https://www.news.com.au/national/politics/rss", Category: models.CategoryPolitics},
			"news":       {URL: "https://www.news.com.au/national/rss"},
			"business":   {URL: "https://www.news.com.au/finance/rss", Category: models.CategoryBusiness},
			"technology": {URL: "https://www.news.com.au/technology/rss", Category: models.CategoryTechnology},
			"world":      {URL: "https://www.news.com.au/world/rss", Category: models.CategoryInternational},
		},
		DefaultCategory: "politics",
		DefaultAuthor:   "News.com.au",
		Images:          []ImageField{MediaContent, MediaThumbnail, Enclosure},
	}, fetcher)
}

// Name returns the provider name.
func (s *RSSSource) Name() string { return s.cfg.Name }

// Categories returns the feed categories in lexical order.
func (s *RSSSource) Categories() []string {
	out := make([]string, 0, len(s.cfg.Feeds))
	for k := range s.cfg.Feeds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Fetch reads the feed mapped to opts.Category. RSS has no date query, so
// FromDate is applied after parsing.
func (s *RSSSource) Fetch(ctx context.Context, opts FetchOptions) ([]models.Article, error) {
	target := s.feedFor(opts.Category)

	body, err := s.fetcher.Get(ctx, target.URL)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing feed %q: %w", target.URL, err)
	}

	articles := parseFeedItems(feed, itemDefaults{
		source:   s.cfg.Name,
		author:   s.cfg.DefaultAuthor,
		category: target.Category,
		images:   s.cfg.Images,
		now:      s.now(),
	})
	return filterAndCap(articles, opts.FromDate, opts.limit()), nil
}

// feedFor resolves a category to a feed, using the default feed for unknown
// categories.
func (s *RSSSource) feedFor(category string) FeedSpec {
	key := strings.ToLower(strings.TrimSpace(category))
	if key == "international" {
		key = "world"
	}
	if feed, ok := s.cfg.Feeds[key]; ok {
		return feed
	}
	return s.cfg.Feeds[s.cfg.DefaultCategory]
}
