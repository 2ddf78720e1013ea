// Package roster maintains the parliamentarian surname keyword set used to
// widen political classification.
package roster

import (
	"sort"
	"strings"
	"unicode"
)

// Set is an immutable set of lowercase surnames. A nil *Set is empty.
type Set struct {
	words map[string]struct{}

	// compound holds the words that contain punctuation or spaces, such as
	// "hanson-young" or "o'neil", which cannot match a single token.
	compound []string
}

// NewSet builds a Set from the given words. Words are lowercased and trimmed;
// blanks are dropped.
func NewSet(words []string) *Set {
	s := &Set{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := s.words[w]; ok {
			continue
		}
		s.words[w] = struct{}{}
		if strings.IndexFunc(w, notAlphanumeric) >= 0 {
			s.compound = append(s.compound, w)
		}
	}
	sort.Strings(s.compound)
	return s
}

func notAlphanumeric(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Contains reports whether word (already lowercase) is in the set.
func (s *Set) Contains(word string) bool {
	if s == nil {
		return false
	}
	_, ok := s.words[word]
	return ok
}

// Compound returns the multi-part words in lexical order. Callers must not
// modify the result.
func (s *Set) Compound() []string {
	if s == nil {
		return nil
	}
	return s.compound
}

// Len returns the number of words in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.words)
}

// Slice returns the words in lexical order.
func (s *Set) Slice() []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, 0, len(s.words))
	for w := range s.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
