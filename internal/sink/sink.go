// Package sink defines where harvested pages and term lists are delivered.
package sink

import (
	"context"

	"github.com/hazyhaar/scrapeking/internal/site"
)

// Term list kinds.
const (
	KindUntranslated = "untranslated"
	KindUncovered    = "uncovered"
	KindValues       = "values"
)

// TermList is the output of one text stage.
type TermList struct {
	RunID string   `json:"run_id"`
	Kind  string   `json:"kind"`
	Terms []string `json:"terms"`
}

// Sink receives pages as they are scraped and term lists as stages finish.
type Sink interface {
	SendPage(ctx context.Context, rec *site.PageRecord) error
	SendTerms(ctx context.Context, list TermList) error
	Close() error
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
