// Package aggregator fans out to every registered source, then classifies,
// scores, deduplicates and orders the merged articles.
package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/hoanghai1803/newswire/internal/classify"
	"github.com/hoanghai1803/newswire/internal/feeds"
	"github.com/hoanghai1803/newswire/internal/metrics"
	"github.com/hoanghai1803/newswire/internal/models"
	"github.com/hoanghai1803/newswire/internal/ranking"
	"github.com/hoanghai1803/newswire/internal/roster"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultSourceTimeout bounds a single adapter call.
	DefaultSourceTimeout = 15 * time.Second

	defaultMaxConcurrent = 10
)

// KeywordProvider supplies the current parliamentarian surname set.
type KeywordProvider interface {
	Keywords(ctx context.Context) *roster.Set
}

// Result is the outcome of an aggregation. Sources that failed contribute
// no articles and are listed in Failed.
type Result struct {
	Articles []models.Article     `json:"articles"`
	Failed   []models.FailedSource `json:"failed,omitempty"`
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithSourceTimeout sets the per-adapter timeout.
func WithSourceTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.sourceTimeout = d
		}
	}
}

// WithMaxConcurrent caps the number of adapters fetched at once.
func WithMaxConcurrent(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxConcurrent = n
		}
	}
}

// WithDefaultLimit sets the per-adapter limit used when a request has none.
func WithDefaultLimit(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.defaultLimit = n
		}
	}
}

// WithTieBand sets the score band within which recency decides order.
func WithTieBand(band float64) Option {
	return func(a *Aggregator) { a.tieBand = band }
}

// WithMetrics records per-source and pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// Aggregator runs the fetch, classify, score, dedupe and sort pipeline.
type Aggregator struct {
	registry   *feeds.Registry
	classifier *classify.Classifier
	scorer     *ranking.Scorer
	keywords   KeywordProvider
	metrics    *metrics.Metrics

	sourceTimeout time.Duration
	maxConcurrent int
	defaultLimit  int
	tieBand       float64
}

// New creates an Aggregator. kw may be nil, in which case no surnames are
// used for classification.
func New(reg *feeds.Registry, cls *classify.Classifier, sc *ranking.Scorer, kw KeywordProvider, opts ...Option) *Aggregator {
	a := &Aggregator{
		registry:      reg,
		classifier:    cls,
		scorer:        sc,
		keywords:      kw,
		sourceTimeout: DefaultSourceTimeout,
		maxConcurrent: defaultMaxConcurrent,
		defaultLimit:  feeds.DefaultLimit,
		tieBand:       ranking.DefaultTieBand,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Registry returns the sources the aggregator fans out to.
func (a *Aggregator) Registry() *feeds.Registry {
	return a.registry
}

// FetchAll fetches from every registered source with the same options.
// Individual source failures are collected in Result.Failed rather than
// failing the whole call.
func (a *Aggregator) FetchAll(ctx context.Context, opts feeds.FetchOptions) (*Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = a.defaultLimit
	}

	calls := lo.Map(a.registry.Sources(), func(src feeds.Source, _ int) sourceCall {
		return sourceCall{
			name: src.Name(),
			fetch: func(ctx context.Context) ([]models.Article, error) {
				return src.Fetch(ctx, opts)
			},
		}
	})

	articles, failed := a.fanOut(ctx, calls)
	return &Result{
		Articles: a.process(ctx, articles, opts.Category),
		Failed:   failed,
	}, nil
}

// AggregateByCategory fetches one category, optionally narrowed by keywords.
// "all", the empty string and unknown categories leave the choice of feed to
// each adapter's default.
func (a *Aggregator) AggregateByCategory(ctx context.Context, category, keywords string) (*Result, error) {
	return a.FetchAll(ctx, feeds.FetchOptions{
		Category: normalizeCategory(category),
		Keywords: keywords,
	})
}

// FetchFromSource runs the pipeline over a single named source. An unknown
// name returns an error wrapping feeds.ErrUnknownSource.
func (a *Aggregator) FetchFromSource(ctx context.Context, name string, opts feeds.FetchOptions) (*Result, error) {
	src, err := a.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	if opts.Limit <= 0 {
		opts.Limit = a.defaultLimit
	}
	opts.Category = normalizeCategory(opts.Category)

	articles, failed := a.fanOut(ctx, []sourceCall{{
		name: src.Name(),
		fetch: func(ctx context.Context) ([]models.Article, error) {
			return src.Fetch(ctx, opts)
		},
	}})
	return &Result{
		Articles: a.process(ctx, articles, opts.Category),
		Failed:   failed,
	}, nil
}

type sourceCall struct {
	name  string
	fetch func(ctx context.Context) ([]models.Article, error)
}

// fanOut runs every call concurrently, each under its own timeout, and
// merges the results in call order once all have finished.
func (a *Aggregator) fanOut(ctx context.Context, calls []sourceCall) ([]models.Article, []models.FailedSource) {
	var (
		results = make([][]models.Article, len(calls))
		failed  []models.FailedSource
		mu      sync.Mutex
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxConcurrent)

	for i, call := range calls {
		g.Go(func() error {
			start := time.Now()
			articles, err := a.callSource(ctx, call)
			a.metrics.RecordSourceFetch(call.name, len(articles), time.Since(start), err)

			if err != nil {
				slog.Warn("failed to fetch source",
					"source", call.name,
					"error", err,
				)

				mu.Lock()
				failed = append(failed, models.FailedSource{
					Source: call.name,
					Error:  err.Error(),
				})
				mu.Unlock()

				return nil // skip failures, don't fail the batch
			}

			results[i] = articles
			slog.Info("fetched source",
				"source", call.name,
				"items", len(articles),
				"duration", time.Since(start).String(),
			)
			return nil
		})
	}

	_ = g.Wait()

	return lo.Flatten(results), failed
}

// callSource invokes one adapter under the per-source timeout. The call runs
// in its own goroutine so an adapter that ignores ctx cannot hold the join
// past the timeout; its late result is discarded. A panic is converted into
// an error.
func (a *Aggregator) callSource(ctx context.Context, call sourceCall) ([]models.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, a.sourceTimeout)
	defer cancel()

	type outcome struct {
		articles []models.Article
		err      error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("source panicked",
					"source", call.name,
					"panic", r,
					"stack", string(debug.Stack()),
				)
				done <- outcome{err: fmt.Errorf("source %s panicked: %v", call.name, r)}
			}
		}()
		articles, err := call.fetch(ctx)
		done <- outcome{articles: articles, err: err}
	}()

	select {
	case out := <-done:
		if out.err == nil && ctx.Err() != nil {
			out.err = fmt.Errorf("source %s: %w", call.name, ctx.Err())
		}
		if out.err != nil {
			return nil, out.err
		}
		return out.articles, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("source %s: %w", call.name, ctx.Err())
	}
}

// process classifies and scores every article, then deduplicates, applies
// the political view filter and sorts.
func (a *Aggregator) process(ctx context.Context, articles []models.Article, category string) []models.Article {
	var names *roster.Set
	if a.keywords != nil {
		names = a.keywords.Keywords(ctx)
	}

	for i := range articles {
		art := &articles[i]
		requested := string(art.Category)
		if requested == "" {
			requested = category
		}
		art.Category = a.classifier.Classify(art.Title, art.Content, requested, names)
		art.RelevanceScore = a.scorer.Score(ranking.Identify(*art), art.Signals)
		a.metrics.RecordCategory(string(art.Category))
	}

	out := ranking.Dedupe(articles)
	a.metrics.RecordDedupe(len(articles), len(out))

	if politicalView(category) {
		out = lo.Filter(out, func(art models.Article, _ int) bool {
			return art.Category != models.CategoryOther
		})
	}

	ranking.Sort(out, a.tieBand)
	return out
}

// politicalView reports whether a normalized category is served as the
// political feed. The default view ("all" or empty) reads each adapter's
// politics feed, so it drops the catch-all category as politics does.
func politicalView(category string) bool {
	return category == "" || category == string(models.CategoryPolitics)
}

func normalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "all" {
		return ""
	}
	return c
}
