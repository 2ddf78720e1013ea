package feeds

import (
	"crypto/sha256"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hoanghai1803/newswire/internal/models"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

var stripPolicy = bluemonday.StrictPolicy()

// ImageField names a place an RSS item may carry its image.
type ImageField int

const (
	MediaThumbnail ImageField = iota
	MediaContent
	Enclosure
	ItemImage
)

// itemDefaults carries the per-source values applied while converting feed
// items.
type itemDefaults struct {
	source   string
	author   string
	category models.Category
	images   []ImageField
	now      time.Time
}

// parseFeedItems converts gofeed items into Articles. Items missing a title
// or link are kept with empty fields.
func parseFeedItems(feed *gofeed.Feed, d itemDefaults) []models.Article {
	articles := make([]models.Article, 0, len(feed.Items))
	for i, item := range feed.Items {
		if item == nil {
			continue
		}

		link := item.Link
		if link == "" && len(item.Links) > 0 {
			link = item.Links[0]
		}

		publishedAt, estimated := itemTime(item, d.now)
		content := cleanContent(firstNonEmpty(item.Content, item.Description, itunesSummary(item)))

		a := models.Article{
			ID:                 itemID(d.source, i, item.GUID, link),
			Title:              strings.TrimSpace(cleanText(item.Title)),
			Content:            content,
			Source:             d.source,
			SourceURL:          link,
			PublishedAt:        publishedAt,
			TimeEstimated:      estimated,
			Category:           d.category,
			Author:             firstNonEmpty(itemAuthor(item), d.author),
			ImageURL:           extractImage(item, d.images),
			ReadingTimeMinutes: CalculateReadingTime(content),
		}
		articles = append(articles, a)
	}
	return articles
}

// itemTime returns the item's publication time, falling back to its update
// time and then to now. The second result reports whether now was used.
func itemTime(item *gofeed.Item, now time.Time) (time.Time, bool) {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed, false
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed, false
	}
	return now, true
}

func itemAuthor(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, p := range item.Authors {
		if p != nil && p.Name != "" {
			return p.Name
		}
	}
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		return item.DublinCoreExt.Creator[0]
	}
	return ""
}

func itunesSummary(item *gofeed.Item) string {
	if item.ITunesExt != nil {
		return item.ITunesExt.Summary
	}
	return ""
}

// extractImage returns the first image URL found in the given field order.
func extractImage(item *gofeed.Item, order []ImageField) string {
	for _, field := range order {
		var u string
		switch field {
		case MediaThumbnail:
			u = mediaURL(item.Extensions, "thumbnail")
		case MediaContent:
			u = mediaURL(item.Extensions, "content")
		case Enclosure:
			for _, enc := range item.Enclosures {
				if enc != nil && enc.URL != "" && (enc.Type == "" || strings.HasPrefix(enc.Type, "image/")) {
					u = enc.URL
					break
				}
			}
		case ItemImage:
			if item.Image != nil {
				u = item.Image.URL
			}
		}
		if u != "" {
			return u
		}
	}
	return ""
}

// mediaURL looks up a media RSS element, including ones nested in
// media:group, and returns its url attribute.
func mediaURL(exts ext.Extensions, name string) string {
	media, ok := exts["media"]
	if !ok {
		return ""
	}
	for _, e := range media[name] {
		if u := e.Attrs["url"]; u != "" {
			return u
		}
	}
	for _, group := range media["group"] {
		for _, e := range group.Children[name] {
			if u := e.Attrs["url"]; u != "" {
				return u
			}
		}
	}
	return ""
}

// itemID prefers the provider's identifier, then a hash of the link, then a
// synthesized per-source index.
func itemID(source string, index int, guid, link string) string {
	switch {
	case guid != "":
		return guid
	case link != "":
		return computeHash(link)[:16]
	default:
		return fmt.Sprintf("%s-%d", slug(source), index)
	}
}

// computeHash returns the SHA-256 hex digest of the given string.
func computeHash(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}

func slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

// cleanText removes HTML tags from s and unescapes HTML entities.
func cleanText(s string) string {
	return html.UnescapeString(stripPolicy.Sanitize(s))
}

// cleanContent strips markup and truncates to models.MaxContentLength runes.
func cleanContent(s string) string {
	return truncateRunes(strings.TrimSpace(cleanText(s)), models.MaxContentLength)
}

// truncateRunes returns the first n runes of s.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// filterAndCap drops articles older than from (when set) and caps the list
// at limit, preserving order.
func filterAndCap(articles []models.Article, from time.Time, limit int) []models.Article {
	out := articles[:0]
	for _, a := range articles {
		if !from.IsZero() && a.PublishedAt.Before(from) {
			continue
		}
		out = append(out, a)
		if len(out) == limit {
			break
		}
	}
	return out
}
