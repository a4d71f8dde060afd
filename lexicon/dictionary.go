// Package lexicon finds the parts of text lines that a dictionary of known
// terms does not explain.
//
// An Extractor consumes each line greedily, always taking the longest known
// term that starts at the cursor. Every character no term covers is an
// untranslated unit; units are collected in a TermSet across the corpus.
package lexicon

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"unicode/utf8"
)

// ErrSourceUnavailable is wrapped by every error that prevents a
// dictionary or corpus from being read. A run that gets it produces no
// output.
var ErrSourceUnavailable = errors.New("lexicon: source unavailable")

// Dictionary is an immutable set of known terms.
type Dictionary struct {
	terms map[string]struct{}
}

// NewDictionary returns a dictionary holding terms. Empty strings are
// dropped: an empty term would match everywhere without consuming anything.
func NewDictionary(terms ...string) *Dictionary {
	d := &Dictionary{terms: make(map[string]struct{}, len(terms))}
	for _, t := range terms {
		if t != "" {
			d.terms[t] = struct{}{}
		}
	}
	return d
}

// ReadDictionary decodes a JSON object whose keys are the known terms.
// Values are ignored.
func ReadDictionary(r io.Reader) (*Dictionary, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode dictionary: %w", ErrSourceUnavailable, err)
	}
	terms := make([]string, 0, len(raw))
	for k := range raw {
		terms = append(terms, k)
	}
	return NewDictionary(terms...), nil
}

// LoadDictionary reads a JSON dictionary file.
func LoadDictionary(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer f.Close()
	d, err := ReadDictionary(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Len returns the number of terms.
func (d *Dictionary) Len() int { return len(d.terms) }

// Has reports whether term is known.
func (d *Dictionary) Has(term string) bool {
	_, ok := d.terms[term]
	return ok
}

// Terms returns the terms longest first, equal lengths in natural order.
func (d *Dictionary) Terms() []string {
	out := make([]string, 0, len(d.terms))
	for t := range d.terms {
		out = append(out, t)
	}
	sortByLength(out)
	return out
}

// sortByLength orders s by rune count descending, then by natural string
// order.
func sortByLength(s []string) {
	slices.SortFunc(s, func(a, b string) int {
		if c := cmp.Compare(utf8.RuneCountInString(b), utf8.RuneCountInString(a)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
}
