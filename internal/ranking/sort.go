package ranking

import (
	"sort"

	"github.com/hoanghai1803/newswire/internal/models"
)

// DefaultTieBand is the score difference within which recency decides order.
const DefaultTieBand = 0.1

// Sort orders articles by relevance, letting recency decide between articles
// whose scores are close.
//
// Articles are first ordered by score. Bands are then formed greedily from
// the top: a band starts at its highest-scored article and takes every
// following article scoring no more than tieBand below it. Bands keep score
// order; within a band newer articles come first.
func Sort(articles []models.Article, tieBand float64) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].RelevanceScore > articles[j].RelevanceScore
	})

	for start := 0; start < len(articles); {
		leader := articles[start].RelevanceScore
		end := start + 1
		for end < len(articles) && leader-articles[end].RelevanceScore <= tieBand {
			end++
		}

		band := articles[start:end]
		sort.SliceStable(band, func(i, j int) bool {
			a, b := band[i], band[j]
			if !a.PublishedAt.Equal(b.PublishedAt) {
				return a.PublishedAt.After(b.PublishedAt)
			}
			if a.RelevanceScore != b.RelevanceScore {
				return a.RelevanceScore > b.RelevanceScore
			}
			return a.Title < b.Title
		})
		start = end
	}
}
