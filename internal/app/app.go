// Package app assembles the aggregation pipeline from configuration.
package app

import (
	"github.com/hoanghai1803/newswire/internal/aggregator"
	"github.com/hoanghai1803/newswire/internal/classify"
	"github.com/hoanghai1803/newswire/internal/config"
	"github.com/hoanghai1803/newswire/internal/feeds"
	"github.com/hoanghai1803/newswire/internal/metrics"
	"github.com/hoanghai1803/newswire/internal/ranking"
	"github.com/hoanghai1803/newswire/internal/roster"
)

// Pipeline is the wired aggregation stack shared by the server and the CLI.
type Pipeline struct {
	Fetcher    *feeds.Fetcher
	Registry   *feeds.Registry
	Roster     *roster.Cache
	Aggregator *aggregator.Aggregator
}

// NewPipeline builds the enabled adapters and the aggregator over them. m
// may be nil.
func NewPipeline(cfg *config.Config, m *metrics.Metrics) *Pipeline {
	fetcher := feeds.NewFetcher()
	registry := NewRegistry(cfg, fetcher)
	keywords := roster.NewCache(roster.NewAPHFetcher(nil, cfg.Roster.BaseURL), cfg.Roster.TTL())

	agg := aggregator.New(
		registry,
		classify.Default(),
		ranking.NewScorer(cfg.Ranking.ScoreConfig()),
		keywords,
		aggregator.WithSourceTimeout(cfg.Feeds.SourceTimeout()),
		aggregator.WithMaxConcurrent(cfg.Feeds.MaxConcurrent),
		aggregator.WithDefaultLimit(cfg.Feeds.DefaultLimit),
		aggregator.WithTieBand(cfg.Ranking.TieBand),
		aggregator.WithMetrics(m),
	)

	return &Pipeline{
		Fetcher:    fetcher,
		Registry:   registry,
		Roster:     keywords,
		Aggregator: agg,
	}
}

// NewRegistry registers the enabled adapters in priority order.
func NewRegistry(cfg *config.Config, fetcher *feeds.Fetcher) *feeds.Registry {
	var sources []feeds.Source
	if enabled(cfg.Sources.ABC) {
		sources = append(sources, feeds.NewABCSource(fetcher))
	}
	if enabled(cfg.Sources.NewsComAu) {
		sources = append(sources, feeds.NewNewsComAuSource(fetcher))
	}
	if enabled(cfg.Sources.Guardian) {
		sources = append(sources, feeds.NewGuardianSource(fetcher, cfg.Sources.GuardianAPIKey))
	}
	if enabled(cfg.Sources.NewsData) {
		sources = append(sources, feeds.NewNewsDataSource(fetcher, cfg.Sources.NewsDataAPIKey))
	}
	return feeds.NewRegistry(sources...)
}

// enabled treats an unset flag as on.
func enabled(flag *bool) bool {
	return flag == nil || *flag
}
