// Package ranking scores, deduplicates, and orders aggregated articles.
package ranking

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/hoanghai1803/newswire/internal/models"
)

// Tier assigns a base score to a recognized source. Match entries are
// compared case-insensitively as substrings of the source name, the article
// URL host, and the provider-reported source domain.
type Tier struct {
	Name  string   `toml:"name"`
	Score float64  `toml:"score"`
	Match []string `toml:"match"`
}

// ScoreConfig holds the tunable scoring constants.
type ScoreConfig struct {
	Tiers []Tier `toml:"tiers"`

	// Unrecognized sources score FallbackMax - priority/PriorityScale*FallbackSpread,
	// clamped to [FallbackMin, FallbackMax].
	FallbackMin    float64 `toml:"fallback_min"`
	FallbackMax    float64 `toml:"fallback_max"`
	FallbackSpread float64 `toml:"fallback_spread"`
	PriorityScale  float64 `toml:"priority_scale"`

	SentimentBonus    float64  `toml:"sentiment_bonus"`
	TagBonus          float64  `toml:"tag_bonus"`
	PoliticalTagBonus float64  `toml:"political_tag_bonus"`
	PoliticalTags     []string `toml:"political_tags"`

	// Ceiling caps any score raised by bonuses.
	Ceiling float64 `toml:"ceiling"`
}

// DefaultTiers lists recognized Australian outlets, strongest first.
var DefaultTiers = []Tier{
	{Name: "ABC News", Score: 0.95, Match: []string{"abc.net.au", "abc news"}},
	{Name: "Sydney Morning Herald", Score: 0.92, Match: []string{"smh.com.au", "sydney morning herald"}},
	{Name: "Australian Financial Review", Score: 0.91, Match: []string{"afr.com", "financial review"}},
	{Name: "The Guardian", Score: 0.90, Match: []string{"theguardian.com", "guardian"}},
	{Name: "The Age", Score: 0.88, Match: []string{"theage.com.au", "the age"}},
	{Name: "9News", Score: 0.87, Match: []string{"9news.com.au", "9news", "nine news"}},
	{Name: "7News", Score: 0.86, Match: []string{"7news.com.au", "7news", "seven news"}},
	{Name: "Brisbane Times", Score: 0.85, Match: []string{"brisbanetimes.com.au", "brisbane times"}},
	{Name: "The Conversation", Score: 0.83, Match: []string{"theconversation.com", "the conversation"}},
	{Name: "Crikey", Score: 0.82, Match: []string{"crikey.com.au", "crikey"}},
	{Name: "News.com.au", Score: 0.80, Match: []string{"news.com.au"}},
}

// DefaultScoreConfig returns the built-in scoring constants.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		Tiers:             append([]Tier(nil), DefaultTiers...),
		FallbackMin:       0.5,
		FallbackMax:       0.78,
		FallbackSpread:    0.3,
		PriorityScale:     50000,
		SentimentBonus:    0.02,
		TagBonus:          0.02,
		PoliticalTagBonus: 0.03,
		PoliticalTags:     []string{"government", "politics", "parliament", "minister", "policy", "election"},
		Ceiling:           0.94,
	}
}

// Validate checks that the constants keep every recognized source above any
// unrecognized one, and that no bonus-stacked unrecognized source can reach
// the top tier.
func (c ScoreConfig) Validate() error {
	if len(c.Tiers) == 0 {
		return errors.New("at least one tier is required")
	}
	if c.FallbackMin < 0 || c.FallbackMin > c.FallbackMax {
		return fmt.Errorf("fallback_min %.2f must be between 0 and fallback_max %.2f", c.FallbackMin, c.FallbackMax)
	}
	if c.PriorityScale <= 0 {
		return fmt.Errorf("priority_scale %.0f must be positive", c.PriorityScale)
	}
	lowest, highest := math.Inf(1), math.Inf(-1)
	for _, t := range c.Tiers {
		if t.Score < 0 || t.Score > 1 {
			return fmt.Errorf("tier %q score %.2f must be within [0,1]", t.Name, t.Score)
		}
		if len(t.Match) == 0 {
			return fmt.Errorf("tier %q has no match patterns", t.Name)
		}
		lowest = math.Min(lowest, t.Score)
		highest = math.Max(highest, t.Score)
	}
	if c.FallbackMax >= lowest {
		return fmt.Errorf("fallback_max %.2f must be below the lowest tier score %.2f", c.FallbackMax, lowest)
	}
	bonuses := c.SentimentBonus + c.TagBonus + c.PoliticalTagBonus
	if c.SentimentBonus < 0 || c.TagBonus < 0 || c.PoliticalTagBonus < 0 {
		return errors.New("bonuses must not be negative")
	}
	if c.Ceiling <= 0 || c.Ceiling > 1 {
		return fmt.Errorf("ceiling %.2f must be within (0,1]", c.Ceiling)
	}
	if c.FallbackMax+bonuses > 1 {
		return fmt.Errorf("fallback_max plus bonuses %.2f exceeds 1", c.FallbackMax+bonuses)
	}
	// A bonus never lifts a score past the ceiling, so a ceiling below the top
	// tier keeps every boosted unrecognized source under it.
	if c.Ceiling >= highest {
		return fmt.Errorf("ceiling %.2f must be below the top tier score %.2f", c.Ceiling, highest)
	}
	return nil
}

// SourceIdentity identifies where an article came from.
type SourceIdentity struct {
	Name string
	URL  string
}

// Identify returns the scoring identity of an article.
func Identify(a models.Article) SourceIdentity {
	return SourceIdentity{Name: a.Source, URL: a.SourceURL}
}

// Scorer assigns relevance scores. It holds no mutable state.
type Scorer struct {
	cfg ScoreConfig
}

// NewScorer creates a Scorer with the given constants.
func NewScorer(cfg ScoreConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score returns a relevance score in [0,1] for an article from the given
// source carrying the given signals.
func (s *Scorer) Score(id SourceIdentity, sig models.Signals) float64 {
	base, ok := s.tierScore(id, sig.SourceDomain)
	if !ok {
		base = s.fallbackScore(sig.Priority)
	}

	bonus := 0.0
	if strings.TrimSpace(sig.Sentiment) != "" {
		bonus += s.cfg.SentimentBonus
	}
	if len(sig.Tags) > 0 {
		bonus += s.cfg.TagBonus
		if s.hasPoliticalTag(sig.Tags) {
			bonus += s.cfg.PoliticalTagBonus
		}
	}

	score := base
	if bonus > 0 {
		// Bonuses never lift a score past the ceiling, and never lower a base
		// that already sits above it.
		score = math.Max(base, math.Min(base+bonus, s.cfg.Ceiling))
	}
	return clamp(score, 0, 1)
}

func (s *Scorer) tierScore(id SourceIdentity, sourceDomain string) (float64, bool) {
	name := strings.ToLower(id.Name)
	host := hostOf(id.URL)
	domain := strings.ToLower(sourceDomain)

	for _, tier := range s.cfg.Tiers {
		for _, m := range tier.Match {
			m = strings.ToLower(m)
			if m == "" {
				continue
			}
			if strings.Contains(name, m) || strings.Contains(host, m) || strings.Contains(domain, m) {
				return tier.Score, true
			}
		}
	}
	return 0, false
}

func (s *Scorer) fallbackScore(priority int) float64 {
	if priority <= 0 {
		return s.cfg.FallbackMin
	}
	v := s.cfg.FallbackMax - float64(priority)/s.cfg.PriorityScale*s.cfg.FallbackSpread
	return clamp(v, s.cfg.FallbackMin, s.cfg.FallbackMax)
}

func (s *Scorer) hasPoliticalTag(tags []string) bool {
	for _, tag := range tags {
		tag = strings.ToLower(tag)
		for _, p := range s.cfg.PoliticalTags {
			if strings.Contains(tag, strings.ToLower(p)) {
				return true
			}
		}
	}
	return false
}

// hostOf returns the lowercase host of rawURL, or rawURL itself lowercased
// when it does not parse as an absolute URL.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return strings.ToLower(rawURL)
	}
	return strings.ToLower(u.Hostname())
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
