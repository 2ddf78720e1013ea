package feeds

import (
	"math"
	"strings"
	"unicode"
)

// wpmNews is the average reading speed used for news prose.
const wpmNews = 250

// CalculateReadingTime estimates reading time in minutes for the given text
// at 250 words per minute. It returns 0 for empty text and at least 1
// otherwise.
func CalculateReadingTime(text string) int {
	words := countWords(text)
	if words == 0 {
		return 0
	}
	return int(math.Max(1, math.Ceil(float64(words)/wpmNews)))
}

// countWords counts words separated by whitespace or punctuation.
func countWords(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		if unicode.IsSpace(r) || strings.ContainsRune(".,;:!?\"'()[]{}", r) || unicode.Is(unicode.Pd, r) {
			if inWord {
				count++
				inWord = false
			}
		} else {
			inWord = true
		}
	}
	if inWord {
		count++
	}
	return count
}
