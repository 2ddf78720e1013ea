// Package classify assigns a taxonomy category to article text using an
// ordered keyword rule table.
package classify

import (
	"strings"
	"sync"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"github.com/hoanghai1803/newswire/internal/models"
	"github.com/hoanghai1803/newswire/internal/roster"
)

const exclusionOwner = -1

// Classifier matches article text against an exclusion rule and an ordered
// list of domain rules in a single Aho-Corasick pass.
type Classifier struct {
	exclusion Rule
	rules     []Rule

	// Matcher.Match mutates internal counters, so calls are serialized.
	mu       sync.Mutex
	matcher  *ahocorasick.Matcher
	patterns []string
	owners   [][]int // pattern index -> rule indexes, exclusionOwner for the exclusion rule
}

// New builds a Classifier. The exclusion rule is always evaluated first; the
// domain rules are evaluated in the given order.
func New(exclusion Rule, rules []Rule) *Classifier {
	c := &Classifier{
		exclusion: exclusion,
		rules:     rules,
	}

	index := make(map[string]int)
	add := func(keyword string, owner int) {
		pattern := normalize(keyword)
		if strings.TrimSpace(pattern) == "" {
			return
		}
		i, ok := index[pattern]
		if !ok {
			i = len(c.patterns)
			index[pattern] = i
			c.patterns = append(c.patterns, pattern)
			c.owners = append(c.owners, nil)
		}
		c.owners[i] = append(c.owners[i], owner)
	}

	for _, kw := range exclusion.Keywords {
		add(kw, exclusionOwner)
	}
	for ri, rule := range rules {
		for _, kw := range rule.Keywords {
			add(kw, ri)
		}
	}

	if len(c.patterns) > 0 {
		c.matcher = ahocorasick.NewStringMatcher(c.patterns)
	}
	return c
}

// Default returns a Classifier using SportsExclusion and DefaultRules.
func Default() *Classifier {
	return New(SportsExclusion, DefaultRules)
}

// Rules returns the exclusion rule followed by the domain rules in
// evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, 0, len(c.rules)+1)
	out = append(out, c.exclusion)
	return append(out, c.rules...)
}

// Classify resolves the category of an article. A surname from names counts
// as a politics keyword. When no rule matches, requested is used if it is a
// valid category; otherwise the catch-all category is returned.
func (c *Classifier) Classify(title, body, requested string, names *roster.Set) models.Category {
	surface := normalize(title + " " + body)
	excluded, hits := c.match(surface)

	if excluded {
		return models.CategoryOther
	}

	for i, rule := range c.rules {
		if hits[i] {
			return rule.Category
		}
		if rule.Category == models.CategoryPolitics && mentionsName(surface, names) {
			return models.CategoryPolitics
		}
	}

	if cat, ok := models.ParseCategory(requested); ok {
		return cat
	}
	return models.CategoryOther
}

// match reports whether the exclusion rule hit and which domain rules hit.
func (c *Classifier) match(surface string) (bool, []bool) {
	hits := make([]bool, len(c.rules))
	if c.matcher == nil {
		return false, hits
	}

	c.mu.Lock()
	found := c.matcher.Match([]byte(surface))
	c.mu.Unlock()

	excluded := false
	for _, pi := range found {
		for _, owner := range c.owners[pi] {
			if owner == exclusionOwner {
				excluded = true
				continue
			}
			hits[owner] = true
		}
	}
	return excluded, hits
}

// mentionsName reports whether surface contains a surname from names. Single
// words match a token; multi-part names such as "hanson-young" are normalized
// the same way as the surface and matched as a padded phrase.
func mentionsName(surface string, names *roster.Set) bool {
	if names.Len() == 0 {
		return false
	}
	for _, tok := range strings.Fields(surface) {
		if names.Contains(tok) {
			return true
		}
	}
	for _, name := range names.Compound() {
		phrase := normalize(name)
		if strings.TrimSpace(phrase) != "" && strings.Contains(surface, phrase) {
			return true
		}
	}
	return false
}

// normalize lowercases s, turns every non-alphanumeric rune into a space,
// collapses runs of spaces, and pads the result with a single space on each
// side so padded keywords only match whole words.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}
