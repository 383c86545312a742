// Package extract finds item name mentions in free text.
//
// An Extractor is built once from the catalog names and compiles them into
// an Aho-Corasick automaton. Every match in a line is collected, overlapping
// or touching matches are coalesced into one span, and each span is reported
// as the substring of the original text it covers.
//
// Matching folds case per rune the way strings.ToLower does. Spans are
// byte offsets into the original text even when folding changes a rune's
// encoded length.
package extract

import (
	"errors"
	"sort"
	"unicode"
	"unicode/utf8"

	ahocorasick "github.com/BobuSumisu/aho-corasick"
)

// ErrNoPatterns is returned when an Extractor is built without any names.
var ErrNoPatterns = errors.New("extractor requires at least one pattern")

// Span is a half-open byte range [Start, End) into a line of text.
type Span struct {
	Start int
	End   int
}

// Extractor matches catalog names case-insensitively.
// It holds no mutable state after construction and is safe for concurrent use.
type Extractor struct {
	trie     *ahocorasick.Trie
	patterns int
}

// New compiles names into an Extractor.
// Empty names are skipped; ErrNoPatterns is returned if none remain.
func New(names []string) (*Extractor, error) {
	patterns := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		folded, _ := fold(name)
		if _, dup := seen[folded]; dup {
			continue
		}
		seen[folded] = struct{}{}
		patterns = append(patterns, folded)
	}
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}
	// Insertion order does not affect which matches are found.
	sort.Strings(patterns)

	trie := ahocorasick.NewTrieBuilder().
		AddStrings(patterns).
		Build()

	return &Extractor{trie: trie, patterns: len(patterns)}, nil
}

// Patterns returns the number of distinct compiled patterns.
func (x *Extractor) Patterns() int {
	return x.patterns
}

// Find returns every pattern match in text, including overlapping ones,
// ordered by start then end.
func (x *Extractor) Find(text string) []Span {
	if text == "" {
		return nil
	}
	folded, offsets := fold(text)
	matches := x.trie.MatchString(folded)
	if len(matches) == 0 {
		return nil
	}

	spans := make([]Span, 0, len(matches))
	for _, m := range matches {
		start := int(m.Pos())
		end := start + len(m.Match())
		spans = append(spans, Span{Start: offsets[start], End: offsets[end]})
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})
	return spans
}

// Extract returns the mentions found in text, one per merged span, in order
// of appearance. A mention is the original text covered by the span, so when
// several names overlap the result may not equal any single catalog name.
func (x *Extractor) Extract(text string) []string {
	merged := Merge(x.Find(text))
	if len(merged) == 0 {
		return nil
	}
	mentions := make([]string, len(merged))
	for i, s := range merged {
		mentions[i] = text[s.Start:s.End]
	}
	return mentions
}

// Merge coalesces overlapping or adjacent spans with a sweep over sorted
// start and end boundaries. A merged span opens when the number of open
// spans goes from 0 to 1 and closes when it returns to 0. At equal
// positions starts are taken before ends, so touching spans join.
func Merge(spans []Span) []Span {
	n := len(spans)
	if n == 0 {
		return nil
	}

	starts := make([]int, n)
	ends := make([]int, n)
	for i, s := range spans {
		starts[i] = s.Start
		ends[i] = s.End
	}
	sort.Ints(starts)
	sort.Ints(ends)

	var merged []Span
	i, j, active := 0, 0, 0
	for j < n {
		if i < n && starts[i] <= ends[j] {
			if active == 0 {
				merged = append(merged, Span{Start: starts[i]})
			}
			active++
			i++
			continue
		}
		active--
		if active == 0 {
			merged[len(merged)-1].End = ends[j]
		}
		j++
	}
	return merged
}

// fold lowercases s rune by rune. offsets maps every byte of the folded
// string, plus its end, to the byte offset in s of the rune it came from.
// Invalid bytes are copied through unchanged.
func fold(s string) (folded string, offsets []int) {
	b := make([]byte, 0, len(s))
	offsets = make([]int, 0, len(s)+1)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		n := len(b)
		if r == utf8.RuneError && size == 1 {
			b = append(b, s[i])
		} else {
			b = utf8.AppendRune(b, unicode.ToLower(r))
		}
		for range len(b) - n {
			offsets = append(offsets, i)
		}
		i += size
	}
	offsets = append(offsets, len(s))
	return string(b), offsets
}
