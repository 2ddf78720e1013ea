package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTestConfig is a helper that writes a TOML config file to a temp directory
// and returns its path.
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GUARDIAN_API_KEY", "NEWSDATA_API_KEY", "SENTRY_DSN", "PORT"} {
		t.Setenv(key, "")
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	clearEnv(t)
	content := `
[server]
port = 9090

[log]
level = "debug"

[database]
path = "/var/lib/newswire/news.db"

[feeds]
default_limit = 30
source_timeout_seconds = 5
max_concurrent = 4

[sources]
abc = true
newscomau = false
guardian = true
newsdata = false
guardian_api_key = "g-key"

[sweep]
enabled = false
interval_minutes = 10
categories = ["politics", "environment"]
limit = 3

[roster]
ttl_hours = 24
base_url = "http://localhost:9999/aph"

[ranking]
tie_band = 0.05
ceiling = 0.9

[sentry]
dsn = "https://public@sentry.example.com/1"
`
	path := writeTestConfig(t, content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) unexpected error: %v", path, err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if level, _ := cfg.Log.SlogLevel(); level != slog.LevelDebug {
		t.Errorf("Log.SlogLevel() = %v, want %v", level, slog.LevelDebug)
	}
	if cfg.Database.Path != "/var/lib/newswire/news.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/var/lib/newswire/news.db")
	}

	if cfg.Feeds.DefaultLimit != 30 {
		t.Errorf("Feeds.DefaultLimit = %d, want %d", cfg.Feeds.DefaultLimit, 30)
	}
	if cfg.Feeds.SourceTimeout() != 5*time.Second {
		t.Errorf("Feeds.SourceTimeout() = %v, want %v", cfg.Feeds.SourceTimeout(), 5*time.Second)
	}
	if cfg.Feeds.MaxConcurrent != 4 {
		t.Errorf("Feeds.MaxConcurrent = %d, want %d", cfg.Feeds.MaxConcurrent, 4)
	}

	if !*cfg.Sources.ABC || *cfg.Sources.NewsComAu || !*cfg.Sources.Guardian || *cfg.Sources.NewsData {
		t.Errorf("Sources flags = abc:%v newscomau:%v guardian:%v newsdata:%v",
			*cfg.Sources.ABC, *cfg.Sources.NewsComAu, *cfg.Sources.Guardian, *cfg.Sources.NewsData)
	}
	if cfg.Sources.GuardianAPIKey != "g-key" {
		t.Errorf("Sources.GuardianAPIKey = %q, want %q", cfg.Sources.GuardianAPIKey, "g-key")
	}

	if *cfg.Sweep.Enabled {
		t.Error("Sweep.Enabled = true, want false")
	}
	if cfg.Sweep.Interval() != 10*time.Minute {
		t.Errorf("Sweep.Interval() = %v, want %v", cfg.Sweep.Interval(), 10*time.Minute)
	}
	if len(cfg.Sweep.Categories) != 2 || cfg.Sweep.Categories[1] != "environment" {
		t.Errorf("Sweep.Categories = %v, want [politics environment]", cfg.Sweep.Categories)
	}
	if cfg.Sweep.Limit != 3 {
		t.Errorf("Sweep.Limit = %d, want %d", cfg.Sweep.Limit, 3)
	}

	if cfg.Roster.TTL() != 24*time.Hour {
		t.Errorf("Roster.TTL() = %v, want %v", cfg.Roster.TTL(), 24*time.Hour)
	}
	if cfg.Roster.BaseURL != "http://localhost:9999/aph" {
		t.Errorf("Roster.BaseURL = %q", cfg.Roster.BaseURL)
	}

	if cfg.Ranking.TieBand != 0.05 {
		t.Errorf("Ranking.TieBand = %v, want %v", cfg.Ranking.TieBand, 0.05)
	}
	if sc := cfg.Ranking.ScoreConfig(); sc.Ceiling != 0.9 {
		t.Errorf("ScoreConfig().Ceiling = %v, want %v", sc.Ceiling, 0.9)
	}

	if cfg.Sentry.DSN != "https://public@sentry.example.com/1" {
		t.Errorf("Sentry.DSN = %q", cfg.Sentry.DSN)
	}
}

func TestLoad_MissingFile_CreatesDefault(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) unexpected error: %v", path, err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config file not created at %q: %v", path, err)
	}

	if cfg.Server.Port != 3001 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 3001)
	}
	if cfg.Feeds.DefaultLimit != 20 {
		t.Errorf("Feeds.DefaultLimit = %d, want %d", cfg.Feeds.DefaultLimit, 20)
	}
	if !*cfg.Sweep.Enabled {
		t.Error("Sweep.Enabled = false, want true")
	}
	if cfg.Roster.TTL() != 7*24*time.Hour {
		t.Errorf("Roster.TTL() = %v, want 7 days", cfg.Roster.TTL())
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	clearEnv(t)
	content := `
[server]

[sources]
`
	path := writeTestConfig(t, content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) unexpected error: %v", path, err)
	}

	if cfg.Server.Port != 3001 {
		t.Errorf("Server.Port = %d, want default %d", cfg.Server.Port, 3001)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want default %q", cfg.Log.Level, "info")
	}
	if cfg.Feeds.SourceTimeout() != 15*time.Second {
		t.Errorf("Feeds.SourceTimeout() = %v, want default %v", cfg.Feeds.SourceTimeout(), 15*time.Second)
	}
	if cfg.Feeds.MaxConcurrent != 10 {
		t.Errorf("Feeds.MaxConcurrent = %d, want default %d", cfg.Feeds.MaxConcurrent, 10)
	}
	for name, flag := range map[string]*bool{
		"abc": cfg.Sources.ABC, "newscomau": cfg.Sources.NewsComAu,
		"guardian": cfg.Sources.Guardian, "newsdata": cfg.Sources.NewsData,
	} {
		if flag == nil || !*flag {
			t.Errorf("sources.%s should default to enabled", name)
		}
	}
	if cfg.Sweep.Interval() != 30*time.Minute {
		t.Errorf("Sweep.Interval() = %v, want default %v", cfg.Sweep.Interval(), 30*time.Minute)
	}
	if len(cfg.Sweep.Categories) != 3 {
		t.Errorf("Sweep.Categories = %v, want 3 defaults", cfg.Sweep.Categories)
	}
	if cfg.Ranking.TieBand != 0.1 {
		t.Errorf("Ranking.TieBand = %v, want default %v", cfg.Ranking.TieBand, 0.1)
	}
	if sc := cfg.Ranking.ScoreConfig(); sc.Ceiling != 0.94 || sc.FallbackMin != 0.5 {
		t.Errorf("ScoreConfig() = ceiling %v fallback_min %v, want built-in defaults", sc.Ceiling, sc.FallbackMin)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GUARDIAN_API_KEY", "env-guardian")
	t.Setenv("NEWSDATA_API_KEY", "env-newsdata")
	t.Setenv("SENTRY_DSN", "https://env@sentry.example.com/2")
	t.Setenv("PORT", "8088")

	content := `
[server]
port = 9090

[sources]
guardian_api_key = "file-guardian"
`
	path := writeTestConfig(t, content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) unexpected error: %v", path, err)
	}

	if cfg.Sources.GuardianAPIKey != "env-guardian" {
		t.Errorf("Sources.GuardianAPIKey = %q, want %q", cfg.Sources.GuardianAPIKey, "env-guardian")
	}
	if cfg.Sources.NewsDataAPIKey != "env-newsdata" {
		t.Errorf("Sources.NewsDataAPIKey = %q, want %q", cfg.Sources.NewsDataAPIKey, "env-newsdata")
	}
	if cfg.Sentry.DSN != "https://env@sentry.example.com/2" {
		t.Errorf("Sentry.DSN = %q", cfg.Sentry.DSN)
	}
	if cfg.Server.Port != 8088 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8088)
	}
}

func TestLoad_InvalidPortEnvIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-number")
	path := writeTestConfig(t, "[server]\nport = 9090\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) unexpected error: %v", path, err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "port zero", content: "[server]\nport = 0\n"},
		{name: "port negative", content: "[server]\nport = -1\n"},
		{name: "port too high", content: "[server]\nport = 70000\n"},
		{name: "default limit zero", content: "[feeds]\ndefault_limit = 0\n"},
		{name: "source timeout zero", content: "[feeds]\nsource_timeout_seconds = 0\n"},
		{name: "sweep interval zero", content: "[sweep]\ninterval_minutes = 0\n"},
		{name: "roster ttl negative", content: "[roster]\nttl_hours = -5\n"},
		{name: "unknown log level", content: "[log]\nlevel = \"loud\"\n"},
		{name: "unknown sweep category", content: "[sweep]\ncategories = [\"sport\"]\n"},
		{name: "tie band above one", content: "[ranking]\ntie_band = 1.5\n"},
		{name: "ceiling above one", content: "[ranking]\nceiling = 1.2\n"},
		{name: "fallback above tiers", content: "[ranking]\nfallback_max = 0.85\n"},
		{name: "malformed toml", content: "[server\nport = 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			path := writeTestConfig(t, tt.content)

			if _, err := Load(path); err == nil {
				t.Fatalf("Load(%q) expected error, got nil", path)
			}
		})
	}
}

func TestLoad_MissingAPIKeys_NoError(t *testing.T) {
	clearEnv(t)
	path := writeTestConfig(t, "[sources]\nguardian = true\nnewsdata = true\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) unexpected error: %v (missing keys should warn, not fail)", path, err)
	}
	if cfg.Sources.GuardianAPIKey != "" || cfg.Sources.NewsDataAPIKey != "" {
		t.Errorf("API keys = %q, %q; want empty", cfg.Sources.GuardianAPIKey, cfg.Sources.NewsDataAPIKey)
	}
}
