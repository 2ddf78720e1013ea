package feeds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

const (
	httpTimeout     = 30 * time.Second
	rateLimitDelay  = 1 * time.Second
	maxBodyBytes    = 10 * 1024 * 1024
	maxWords        = 5000
	defaultRetries  = 2
	initialInterval = 500 * time.Millisecond
)

// StatusError reports a non-2xx response from an upstream provider.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// Fetcher performs provider HTTP requests with per-domain rate limiting and
// retries on transient failures. It is safe for concurrent use.
type Fetcher struct {
	client     *http.Client
	interval   time.Duration
	maxRetries uint64

	mu       sync.Mutex
	limiters map[string]*rate.Limiter // per-domain request pacing
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the underlying HTTP client. The user-agent
// transport is not applied to a replaced client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithRateInterval sets the minimum delay between requests to one domain.
// Zero disables pacing.
func WithRateInterval(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.interval = d }
}

// WithMaxRetries sets how many times a transient failure is retried.
func WithMaxRetries(n uint64) FetcherOption {
	return func(f *Fetcher) { f.maxRetries = n }
}

// NewFetcher creates a Fetcher with a 30-second timeout, a browser-like user
// agent, one request per second per domain, and two retries.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			Timeout: httpTimeout,
			Transport: &userAgentTransport{
				base: http.DefaultTransport,
			},
		},
		interval:   rateLimitDelay,
		maxRetries: defaultRetries,
		limiters:   make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// userAgentTransport wraps an http.RoundTripper to inject a custom User-Agent
// header on every request.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; newswire/1.0; +https://github.com/hoanghai1803/newswire)")
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/rss+xml, application/xml;q=0.9, application/json;q=0.9, */*;q=0.8")
	}
	req.Header.Set("Accept-Language", "en-AU,en;q=0.9")
	return t.base.RoundTrip(req)
}

// Get fetches rawURL and returns the response body. Network errors, 429 and
// 5xx responses are retried with exponential backoff; other 4xx responses
// fail immediately with a *StatusError.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	limiter := f.limiter(extractDomain(rawURL))

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, f.maxRetries), ctx)

	body, err := backoff.RetryNotifyWithData(func() ([]byte, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}
		return f.do(ctx, rawURL)
	}, policy, func(err error, wait time.Duration) {
		slog.Debug("retrying request", "url", redactURL(rawURL), "wait", wait.String(), "error", err)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %q: %w", redactURL(rawURL), err)
	}
	return body, nil
}

func (f *Fetcher) do(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = redactURL(uerr.URL)
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024)) //nolint:errcheck
		serr := &StatusError{URL: redactURL(rawURL), Code: resp.StatusCode}
		if !retryableStatus(resp.StatusCode) {
			return nil, backoff.Permanent(serr)
		}
		return nil, serr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// ExtractArticle fetches the full article text from the given URL using
// go-readability. The returned text is truncated to 5000 words maximum.
func (f *Fetcher) ExtractArticle(ctx context.Context, articleURL string) (*ArticleMetadata, error) {
	if err := f.limiter(extractDomain(articleURL)).Wait(ctx); err != nil {
		return nil, err
	}

	meta, err := ExtractArticleMetadata(articleURL, httpTimeout)
	if err != nil {
		return nil, fmt.Errorf("extracting article from %q: %w", articleURL, err)
	}
	meta.TextContent = truncateWords(meta.TextContent, maxWords)
	meta.ReadingTimeMinutes = CalculateReadingTime(meta.TextContent)
	return meta, nil
}

// limiter returns the pacing limiter for domain, creating it on first use.
func (f *Fetcher) limiter(domain string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.limiters[domain]
	if !ok {
		limit := rate.Inf
		if f.interval > 0 {
			limit = rate.Every(f.interval)
		}
		l = rate.NewLimiter(limit, 1)
		f.limiters[domain] = l
	}
	return l
}

// extractDomain parses a URL and returns its hostname. If parsing fails, it
// returns the raw URL as a fallback key.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}

// redactURL drops credential query parameters so they never reach logs or
// error messages.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for _, key := range []string{"api-key", "apikey"} {
		if q.Has(key) {
			q.Set(key, "REDACTED")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
