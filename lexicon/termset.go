package lexicon

import "slices"

// TermSet accumulates untranslated units. One set belongs to one run.
type TermSet struct {
	m map[string]struct{}
}

// NewTermSet returns an empty set.
func NewTermSet() *TermSet {
	return &TermSet{m: make(map[string]struct{})}
}

// Add inserts u. Adding an existing unit has no effect.
func (s *TermSet) Add(u string) {
	if u != "" {
		s.m[u] = struct{}{}
	}
}

// AddAll inserts every element of us.
func (s *TermSet) AddAll(us ...string) {
	for _, u := range us {
		s.Add(u)
	}
}

// Has reports whether u is in the set.
func (s *TermSet) Has(u string) bool {
	_, ok := s.m[u]
	return ok
}

// Len returns the number of distinct units.
func (s *TermSet) Len() int { return len(s.m) }

// Sorted returns the units longest first, equal lengths in natural order.
func (s *TermSet) Sorted() []string {
	out := s.list()
	sortByLength(out)
	return out
}

// Natural returns the units in plain string order.
func (s *TermSet) Natural() []string {
	out := s.list()
	slices.Sort(out)
	return out
}

func (s *TermSet) list() []string {
	out := make([]string, 0, len(s.m))
	for u := range s.m {
		out = append(out, u)
	}
	return out
}
