package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hoanghai1803/newswire/internal/models"
	"github.com/hoanghai1803/newswire/internal/ranking"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
	Database DatabaseConfig `toml:"database"`
	Feeds    FeedsConfig    `toml:"feeds"`
	Sources  SourcesConfig  `toml:"sources"`
	Sweep    SweepConfig    `toml:"sweep"`
	Roster   RosterConfig   `toml:"roster"`
	Ranking  RankingConfig  `toml:"ranking"`
	Sentry   SentryConfig   `toml:"sentry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `toml:"port"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// DatabaseConfig holds the sqlite location.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// FeedsConfig holds aggregation settings shared by every source.
type FeedsConfig struct {
	DefaultLimit         int `toml:"default_limit"`
	SourceTimeoutSeconds int `toml:"source_timeout_seconds"`
	MaxConcurrent        int `toml:"max_concurrent"`
}

// SourcesConfig enables adapters and carries their credentials. A missing
// enable flag means enabled.
type SourcesConfig struct {
	ABC            *bool  `toml:"abc"`
	NewsComAu      *bool  `toml:"newscomau"`
	Guardian       *bool  `toml:"guardian"`
	NewsData       *bool  `toml:"newsdata"`
	GuardianAPIKey string `toml:"guardian_api_key"`
	NewsDataAPIKey string `toml:"newsdata_api_key"`
}

// SweepConfig controls the scheduled fetch-and-store pass.
type SweepConfig struct {
	Enabled         *bool    `toml:"enabled"`
	IntervalMinutes int      `toml:"interval_minutes"`
	Categories      []string `toml:"categories"`
	Limit           int      `toml:"limit"`
}

// RosterConfig controls the parliamentarian keyword set.
type RosterConfig struct {
	TTLHours int    `toml:"ttl_hours"`
	BaseURL  string `toml:"base_url"`
}

// RankingConfig overrides scoring constants. Zero values keep the built-in
// defaults.
type RankingConfig struct {
	TieBand           float64 `toml:"tie_band"`
	Ceiling           float64 `toml:"ceiling"`
	SentimentBonus    float64 `toml:"sentiment_bonus"`
	TagBonus          float64 `toml:"tag_bonus"`
	PoliticalTagBonus float64 `toml:"political_tag_bonus"`
	FallbackMin       float64 `toml:"fallback_min"`
	FallbackMax       float64 `toml:"fallback_max"`
}

// SentryConfig holds error reporting settings.
type SentryConfig struct {
	DSN string `toml:"dsn"`
}

const defaultConfigContent = `[server]
port = 3001

[log]
level = "info"                    # debug, info, warn or error

[database]
path = "./data/newswire.db"

[feeds]
default_limit = 20
source_timeout_seconds = 15
max_concurrent = 10

[sources]
abc = true
newscomau = true
guardian = true                   # needs guardian_api_key (or GUARDIAN_API_KEY)
newsdata = true                   # needs newsdata_api_key (or NEWSDATA_API_KEY)
guardian_api_key = ""
newsdata_api_key = ""

[sweep]
enabled = true
interval_minutes = 30
categories = ["politics", "business", "technology"]
limit = 5

[roster]
ttl_hours = 168

[ranking]
tie_band = 0.1

[sentry]
dsn = ""                          # or SENTRY_DSN
`

// Load reads and parses the TOML config from the given path. If the file does
// not exist, it creates a default config file at that path. Environment
// variables override values from the file with highest priority.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		slog.Info("created default config file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Explicit values are checked before defaults fill the gaps, so
	// "port = 0" is an error rather than a silent 3001.
	if err := validateExplicit(&cfg, md); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// createDefault writes the default config content to the given path,
// creating any parent directories as needed.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// validateExplicit checks values that were explicitly set in the TOML file.
func validateExplicit(cfg *Config, md toml.MetaData) error {
	if md.IsDefined("server", "port") {
		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
		}
	}
	if md.IsDefined("feeds", "default_limit") {
		if cfg.Feeds.DefaultLimit < 1 {
			return fmt.Errorf("invalid feeds.default_limit %d: must be >= 1", cfg.Feeds.DefaultLimit)
		}
	}
	if md.IsDefined("feeds", "source_timeout_seconds") {
		if cfg.Feeds.SourceTimeoutSeconds < 1 {
			return fmt.Errorf("invalid feeds.source_timeout_seconds %d: must be >= 1", cfg.Feeds.SourceTimeoutSeconds)
		}
	}
	if md.IsDefined("sweep", "interval_minutes") {
		if cfg.Sweep.IntervalMinutes < 1 {
			return fmt.Errorf("invalid sweep.interval_minutes %d: must be >= 1", cfg.Sweep.IntervalMinutes)
		}
	}
	if md.IsDefined("roster", "ttl_hours") {
		if cfg.Roster.TTLHours < 1 {
			return fmt.Errorf("invalid roster.ttl_hours %d: must be >= 1", cfg.Roster.TTLHours)
		}
	}
	return nil
}

// applyDefaults sets default values for any zero-valued fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3001
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join("data", "newswire.db")
	}
	if cfg.Feeds.DefaultLimit == 0 {
		cfg.Feeds.DefaultLimit = 20
	}
	if cfg.Feeds.SourceTimeoutSeconds == 0 {
		cfg.Feeds.SourceTimeoutSeconds = 15
	}
	if cfg.Feeds.MaxConcurrent == 0 {
		cfg.Feeds.MaxConcurrent = 10
	}
	for _, flag := range []**bool{&cfg.Sources.ABC, &cfg.Sources.NewsComAu, &cfg.Sources.Guardian, &cfg.Sources.NewsData, &cfg.Sweep.Enabled} {
		if *flag == nil {
			enabled := true
			*flag = &enabled
		}
	}
	if cfg.Sweep.IntervalMinutes == 0 {
		cfg.Sweep.IntervalMinutes = 30
	}
	if len(cfg.Sweep.Categories) == 0 {
		cfg.Sweep.Categories = []string{"politics", "business", "technology"}
	}
	if cfg.Sweep.Limit == 0 {
		cfg.Sweep.Limit = 5
	}
	if cfg.Roster.TTLHours == 0 {
		cfg.Roster.TTLHours = 7 * 24
	}
	if cfg.Ranking.TieBand == 0 {
		cfg.Ranking.TieBand = 0.1
	}
}

// applyEnvOverrides applies environment variable overrides. Environment
// variables take highest priority over config file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GUARDIAN_API_KEY"); v != "" {
		cfg.Sources.GuardianAPIKey = v
	}
	if v := os.Getenv("NEWSDATA_API_KEY"); v != "" {
		cfg.Sources.NewsDataAPIKey = v
	}
	if v := os.Getenv("SENTRY_DSN"); v != "" {
		cfg.Sentry.DSN = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("ignoring invalid PORT", "value", v)
			return
		}
		cfg.Server.Port = port
	}
}

// validate checks that configuration values are within acceptable ranges.
func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}

	if _, err := cfg.Log.SlogLevel(); err != nil {
		return err
	}

	for _, c := range cfg.Sweep.Categories {
		if _, ok := models.ParseCategory(c); !ok {
			return fmt.Errorf("invalid sweep category %q", c)
		}
	}

	if cfg.Ranking.TieBand < 0 || cfg.Ranking.TieBand > 1 {
		return fmt.Errorf("invalid ranking.tie_band %v: must be between 0 and 1", cfg.Ranking.TieBand)
	}
	if err := cfg.Ranking.ScoreConfig().Validate(); err != nil {
		return fmt.Errorf("invalid ranking: %w", err)
	}

	if *cfg.Sources.Guardian && cfg.Sources.GuardianAPIKey == "" {
		slog.Warn("sources.guardian is enabled without an API key: set guardian_api_key or GUARDIAN_API_KEY")
	}
	if *cfg.Sources.NewsData && cfg.Sources.NewsDataAPIKey == "" {
		slog.Warn("sources.newsdata is enabled without an API key: set newsdata_api_key or NEWSDATA_API_KEY")
	}

	return nil
}

// SlogLevel maps the configured level name onto a slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid log.level %q: %w", l.Level, err)
	}
	return level, nil
}

// SourceTimeout returns the per-adapter deadline.
func (f FeedsConfig) SourceTimeout() time.Duration {
	return time.Duration(f.SourceTimeoutSeconds) * time.Second
}

// Interval returns the sweep period.
func (s SweepConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// TTL returns how long a fetched keyword set stays fresh.
func (r RosterConfig) TTL() time.Duration {
	return time.Duration(r.TTLHours) * time.Hour
}

// ScoreConfig overlays the configured constants on the built-in defaults.
func (r RankingConfig) ScoreConfig() ranking.ScoreConfig {
	sc := ranking.DefaultScoreConfig()
	overlay := []struct {
		from float64
		to   *float64
	}{
		{r.Ceiling, &sc.Ceiling},
		{r.SentimentBonus, &sc.SentimentBonus},
		{r.TagBonus, &sc.TagBonus},
		{r.PoliticalTagBonus, &sc.PoliticalTagBonus},
		{r.FallbackMin, &sc.FallbackMin},
		{r.FallbackMax, &sc.FallbackMax},
	}
	for _, o := range overlay {
		if o.from != 0 {
			*o.to = o.from
		}
	}
	return sc
}
