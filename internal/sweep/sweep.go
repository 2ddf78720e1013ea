// Package sweep runs the periodic fetch-and-store pass over a fixed list of
// categories.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-co-op/gocron/v2"
	"github.com/hoanghai1803/newswire/internal/aggregator"
	"github.com/hoanghai1803/newswire/internal/metrics"
	"github.com/hoanghai1803/newswire/internal/models"
)

const (
	DefaultInterval = 30 * time.Minute
	DefaultLimit    = 5

	runTimeout = 2 * time.Minute
)

// DefaultCategories are swept when none are configured.
var DefaultCategories = []string{"politics", "business", "technology"}

// Aggregator fetches one category through the full pipeline.
type Aggregator interface {
	AggregateByCategory(ctx context.Context, category, keywords string) (*aggregator.Result, error)
}

// Store persists sweep output.
type Store interface {
	StoreArticles(ctx context.Context, articles []models.Article) (int, error)
	RecordSweep(ctx context.Context, run *models.SweepRun) error
}

// Config controls what a sweep fetches and how often.
type Config struct {
	Interval   time.Duration
	Categories []string
	// Limit is the number of top-ranked articles kept per category.
	Limit int
}

// Sweeper fetches each configured category, stores the top articles and
// records the run. Runs never overlap.
type Sweeper struct {
	agg     Aggregator
	store   Store
	cfg     Config
	metrics *metrics.Metrics
	now     func() time.Time

	mu        sync.Mutex
	scheduler gocron.Scheduler
}

// New creates a Sweeper. Zero config fields take the package defaults.
func New(agg Aggregator, store Store, cfg Config, m *metrics.Metrics) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = DefaultCategories
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	return &Sweeper{agg: agg, store: store, cfg: cfg, metrics: m, now: time.Now}
}

// Start schedules RunOnce every Interval. A run still in progress when the
// next one is due pushes it back rather than running twice.
func (s *Sweeper) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(s.cfg.Interval),
		gocron.NewTask(s.scheduledRun),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("scheduling sweep: %w", err)
	}

	s.scheduler = sched
	sched.Start()
	slog.Info("sweep scheduled", "interval", s.cfg.Interval.String(), "categories", s.cfg.Categories)
	return nil
}

// Stop shuts the scheduler down, waiting for a running sweep to finish.
func (s *Sweeper) Stop() error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Shutdown()
}

func (s *Sweeper) scheduledRun() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		slog.Error("sweep failed", "error", err)
	}
}

// RunOnce performs one sweep. Source failures are recorded on the run and
// do not fail it; a storage failure does.
func (s *Sweeper) RunOnce(ctx context.Context) (*models.SweepRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
		ctx = sentry.SetHubOnContext(ctx, hub)
	}
	tx := sentry.StartTransaction(ctx, "sweep.RunOnce")
	tx.Op = "job"
	defer tx.Finish()

	run := &models.SweepRun{
		Categories: append([]string(nil), s.cfg.Categories...),
		StartedAt:  s.now(),
	}

	var collected []models.Article
	for _, category := range s.cfg.Categories {
		span := tx.StartChild("aggregate." + category)
		res, err := s.agg.AggregateByCategory(tx.Context(), category, "")
		span.Finish()
		if err != nil {
			slog.Warn("sweep category failed", "category", category, "error", err)
			hub.CaptureException(err)
			run.FailedSources = append(run.FailedSources, models.FailedSource{Source: category, Error: err.Error()})
			continue
		}

		top := res.Articles[:min(len(res.Articles), s.cfg.Limit)]
		collected = append(collected, top...)
		run.Fetched += len(top)
		run.FailedSources = append(run.FailedSources, res.Failed...)

		hub.AddBreadcrumb(&sentry.Breadcrumb{
			Category: "sweep",
			Message:  fmt.Sprintf("%s returned %d articles", category, len(res.Articles)),
			Level:    sentry.LevelInfo,
		}, nil)
	}

	span := tx.StartChild("store")
	stored, err := s.store.StoreArticles(tx.Context(), collected)
	span.Finish()
	run.Stored = stored
	run.FinishedAt = s.now()
	s.metrics.RecordSweep(stored, run.FinishedAt.Sub(run.StartedAt), err)

	if err != nil {
		hub.CaptureException(err)
		return nil, fmt.Errorf("storing sweep articles: %w", err)
	}

	if err := s.store.RecordSweep(tx.Context(), run); err != nil {
		hub.CaptureException(err)
		return nil, fmt.Errorf("recording sweep: %w", err)
	}

	slog.Info("sweep finished",
		"categories", len(run.Categories),
		"fetched", run.Fetched,
		"stored", run.Stored,
		"failed", len(run.FailedSources),
		"duration", run.FinishedAt.Sub(run.StartedAt).String(),
	)
	return run, nil
}

// ErrNotStarted is returned by NextRun before Start.
var ErrNotStarted = errors.New("sweep scheduler not started")

// NextRun reports when the scheduled sweep will next run.
func (s *Sweeper) NextRun() (time.Time, error) {
	if s.scheduler == nil {
		return time.Time{}, ErrNotStarted
	}
	jobs := s.scheduler.Jobs()
	if len(jobs) == 0 {
		return time.Time{}, ErrNotStarted
	}
	return jobs[0].NextRun()
}
