package lexicon

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Extractor splits lines into dictionary terms and untranslated units.
// It is immutable once built and safe for concurrent use.
type Extractor struct {
	// buckets maps a first rune to the terms starting with it, longest
	// first. Two terms of equal length that both prefix the same text are
	// the same string, so the first hit in a bucket is the only longest
	// match.
	buckets map[rune][]string
}

// NewExtractor sorts the dictionary terms once for all lines.
func NewExtractor(d *Dictionary) *Extractor {
	e := &Extractor{buckets: make(map[rune][]string)}
	for _, t := range d.Terms() {
		r, _ := utf8.DecodeRuneInString(t)
		e.buckets[r] = append(e.buckets[r], t)
	}
	return e
}

// match returns the byte length of the longest term prefixing s, or 0.
func (e *Extractor) match(s string) int {
	r, _ := utf8.DecodeRuneInString(s)
	for _, t := range e.buckets[r] {
		if strings.HasPrefix(s, t) {
			return len(t)
		}
	}
	return 0
}

// Scan walks line and calls emit for every character that no term covers,
// in line order. Matched terms are skipped whole.
func (e *Extractor) Scan(line string, emit func(string)) {
	for i := 0; i < len(line); {
		if n := e.match(line[i:]); n > 0 {
			i += n
			continue
		}
		_, size := utf8.DecodeRuneInString(line[i:])
		emit(line[i : i+size])
		i += size
	}
}

// Untranslated returns the units of line that no term covers, in order,
// duplicates included.
func (e *Extractor) Untranslated(line string) []string {
	var out []string
	e.Scan(line, func(u string) { out = append(out, u) })
	return out
}

// Covers reports whether any term occurs in line.
func (e *Extractor) Covers(line string) bool {
	for i := 0; i < len(line); {
		if e.match(line[i:]) > 0 {
			return true
		}
		_, size := utf8.DecodeRuneInString(line[i:])
		i += size
	}
	return false
}

// Extract runs Scan over every line of c and returns the untranslated
// units, deduplicated. On error the set is nil: no partial result.
func (e *Extractor) Extract(ctx context.Context, c Corpus) (*TermSet, error) {
	set := NewTermSet()
	for line, err := range c.Lines(ctx) {
		if err != nil {
			return nil, err
		}
		e.Scan(line, set.Add)
	}
	return set, nil
}

// Uncovered returns the lines of c in which no term occurs, in corpus
// order.
func (e *Extractor) Uncovered(ctx context.Context, c Corpus) ([]string, error) {
	var out []string
	for line, err := range c.Lines(ctx) {
		if err != nil {
			return nil, err
		}
		if !e.Covers(line) {
			out = append(out, line)
		}
	}
	return out, nil
}
