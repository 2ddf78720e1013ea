package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/avast/retry-go"
)

// DefaultBaseURL is the parliament member search results page.
const DefaultBaseURL = "https://www.aph.gov.au/Senators_and_Members/Parliamentarian_Search_Results"

const (
	pageSize     = 96
	memberPages  = 2
	senatorPages = 1
	pageAttempts = 3
)

// Chamber identifies the house a parliamentarian sits in.
type Chamber string

const (
	ChamberHouse  Chamber = "House of Representatives"
	ChamberSenate Chamber = "Senate"
)

// Member is one parliamentarian parsed from a search results card.
type Member struct {
	Name    string  `json:"name"`
	Surname string  `json:"surname"`
	Chamber Chamber `json:"chamber"`
}

// APHFetcher scrapes the parliament search results for current members and
// senators.
type APHFetcher struct {
	client  *http.Client
	baseURL string
	delay   time.Duration
}

// NewAPHFetcher creates a fetcher for baseURL. An empty baseURL uses
// DefaultBaseURL; a nil client uses one with a 30-second timeout.
func NewAPHFetcher(client *http.Client, baseURL string) *APHFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &APHFetcher{client: client, baseURL: baseURL, delay: 2 * time.Second}
}

// FetchSurnames returns the lowercase surnames of all current members and
// senators.
func (f *APHFetcher) FetchSurnames(ctx context.Context) ([]string, error) {
	members, err := f.FetchMembers(ctx)
	if err != nil {
		return nil, err
	}
	surnames := make([]string, 0, len(members))
	for _, m := range members {
		surnames = append(surnames, strings.ToLower(m.Surname))
	}
	return surnames, nil
}

// FetchMembers scrapes every results page. A page that still fails after
// retries is skipped; an error is returned only when no page succeeded.
func (f *APHFetcher) FetchMembers(ctx context.Context) ([]Member, error) {
	type page struct {
		url     string
		chamber Chamber
	}
	var pages []page
	for p := 1; p <= memberPages; p++ {
		pages = append(pages, page{
			url:     fmt.Sprintf("%s?q=&mem=1&par=-1&gen=0&ps=%d&page=%d", f.baseURL, pageSize, p),
			chamber: ChamberHouse,
		})
	}
	for p := 1; p <= senatorPages; p++ {
		pages = append(pages, page{
			url:     fmt.Sprintf("%s?q=&sen=1&par=-1&gen=0&ps=%d&page=%d", f.baseURL, pageSize, p),
			chamber: ChamberSenate,
		})
	}

	var (
		members []Member
		errs    []error
	)
	for _, p := range pages {
		var got []Member
		err := retry.Do(
			func() error {
				var err error
				got, err = f.fetchPage(ctx, p.url, p.chamber)
				return err
			},
			retry.Attempts(pageAttempts),
			retry.Delay(f.delay),
			retry.Context(ctx),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			slog.Warn("failed to fetch roster page", "url", p.url, "error", err)
			errs = append(errs, err)
			continue
		}
		members = append(members, got...)
	}

	if len(errs) == len(pages) {
		return nil, fmt.Errorf("fetching roster: %w", errors.Join(errs...))
	}
	return members, nil
}

func (f *APHFetcher) fetchPage(ctx context.Context, pageURL string, chamber Chamber) ([]Member, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; newswire/1.0)")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %q: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("requesting %q: unexpected status %d", pageURL, resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, retry.Unrecoverable(err)
		}
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", pageURL, err)
	}
	return parseMembers(doc, chamber), nil
}

// parseMembers extracts members from the result cards of a search page.
func parseMembers(doc *goquery.Document, chamber Chamber) []Member {
	var members []Member
	doc.Find(".search-filter-results .row > div").Each(func(_ int, card *goquery.Selection) {
		fullName := strings.TrimSpace(card.Find("h4 a").Text())
		if fullName == "" {
			return
		}
		name := cleanName(fullName)
		parts := strings.Fields(name)
		if len(parts) == 0 {
			return
		}
		members = append(members, Member{
			Name:    name,
			Surname: parts[len(parts)-1],
			Chamber: chamber,
		})
	})
	return members
}

// cleanName drops the honorific title and post-nominal markers from a card
// heading, e.g. "Hon Anthony Albanese MP" or "Senator Penny Wong".
func cleanName(fullName string) string {
	fields := strings.Fields(fullName)
	out := fields[:0]
	for _, f := range fields {
		switch f {
		case "MP", "Senator", "Hon", "the", "Dr", "Mr", "Mrs", "Ms":
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}
