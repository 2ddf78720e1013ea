package ranking

import (
	"strings"
	"unicode"

	"github.com/hoanghai1803/newswire/internal/models"
)

// TitleKeyLength is the number of runes of the normalized title compared when
// detecting duplicates.
const TitleKeyLength = 50

// TitleKey normalizes a title for duplicate detection: lowercase, punctuation
// removed, whitespace collapsed, truncated to TitleKeyLength runes.
func TitleKey(title string) string {
	var b strings.Builder
	pendingSpace := false
	n := 0
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
			continue
		default:
			continue
		}
		if pendingSpace {
			if n == TitleKeyLength {
				break
			}
			b.WriteByte(' ')
			n++
			pendingSpace = false
		}
		if n == TitleKeyLength {
			break
		}
		b.WriteRune(r)
		n++
	}
	return strings.TrimSpace(b.String())
}

// Dedupe collapses articles sharing a title key, keeping the best article of
// each group. Groups appear in the order their first member was seen.
//
// Articles with an empty title key are grouped by source URL instead, and
// are never merged when that is empty too.
func Dedupe(articles []models.Article) []models.Article {
	index := make(map[string]int, len(articles))
	out := make([]models.Article, 0, len(articles))

	for _, a := range articles {
		key := TitleKey(a.Title)
		if key == "" {
			if a.SourceURL == "" {
				out = append(out, a)
				continue
			}
			key = "\x00url:" + a.SourceURL
		}

		if j, ok := index[key]; ok {
			if better(a, out[j]) {
				out[j] = a
			}
			continue
		}
		index[key] = len(out)
		out = append(out, a)
	}
	return out
}

// better reports whether a should replace b as the representative of a
// duplicate group. Higher score wins; exact ties prefer the newer article,
// then one with an image, then the lexically smaller source and URL.
func better(a, b models.Article) bool {
	if a.RelevanceScore != b.RelevanceScore {
		return a.RelevanceScore > b.RelevanceScore
	}
	if !a.PublishedAt.Equal(b.PublishedAt) {
		return a.PublishedAt.After(b.PublishedAt)
	}
	if (a.ImageURL != "") != (b.ImageURL != "") {
		return a.ImageURL != ""
	}
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	if a.SourceURL != b.SourceURL {
		return a.SourceURL < b.SourceURL
	}
	return a.ID < b.ID
}
