package sink

import (
	"context"

	"github.com/hazyhaar/scrapeking/idgen"
	"github.com/hazyhaar/scrapeking/internal/site"
	"github.com/hazyhaar/scrapeking/internal/store"
)

// Store persists pages and term lists in SQLite. The run named by each
// record must already exist.
type Store struct {
	st    *store.Store
	newID idgen.Generator
}

// NewStore writes to st. A nil gen takes idgen.Default.
func NewStore(st *store.Store, gen idgen.Generator) *Store {
	if gen == nil {
		gen = idgen.Default
	}
	return &Store{st: st, newID: idgen.Prefixed("page_", gen)}
}

func (s *Store) SendPage(ctx context.Context, rec *site.PageRecord) error {
	return s.st.InsertPage(ctx, s.newID(), rec)
}

func (s *Store) SendTerms(ctx context.Context, list TermList) error {
	return s.st.ReplaceTerms(ctx, list.RunID, list.Kind, list.Terms)
}

// Close leaves the database open; its owner closes it.
func (s *Store) Close() error { return nil }
