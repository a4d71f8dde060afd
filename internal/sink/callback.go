package sink

import (
	"context"

	"github.com/hazyhaar/scrapeking/internal/site"
)

// PageFunc receives each scraped page.
type PageFunc func(ctx context.Context, rec *site.PageRecord) error

// TermsFunc receives each term list.
type TermsFunc func(ctx context.Context, list TermList) error

// Callback hands records to Go functions in-process. Either may be nil.
type Callback struct {
	onPage  PageFunc
	onTerms TermsFunc
}

// NewCallback returns a Callback sink.
func NewCallback(onPage PageFunc, onTerms TermsFunc) *Callback {
	return &Callback{onPage: onPage, onTerms: onTerms}
}

func (c *Callback) SendPage(ctx context.Context, rec *site.PageRecord) error {
	if c.onPage != nil {
		return c.onPage(ctx, rec)
	}
	return nil
}

func (c *Callback) SendTerms(ctx context.Context, list TermList) error {
	if c.onTerms != nil {
		return c.onTerms(ctx, list)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
