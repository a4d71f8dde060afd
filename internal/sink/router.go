package sink

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/scrapeking/internal/site"
)

// Router delivers to every sink. A failing sink does not stop the others;
// the first error is returned after all were tried.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter fans out to sinks.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

// Add appends a sink.
func (r *Router) Add(s Sink) { r.sinks = append(r.sinks, s) }

// Len returns the number of sinks.
func (r *Router) Len() int { return len(r.sinks) }

func (r *Router) each(what string, fn func(Sink) error) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := fn(s); err != nil {
			r.logger.Warn("sink: "+what+" failed", "sink", describe(s), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) SendPage(ctx context.Context, rec *site.PageRecord) error {
	return r.each("send page", func(s Sink) error { return s.SendPage(ctx, rec) })
}

func (r *Router) SendTerms(ctx context.Context, list TermList) error {
	return r.each("send terms", func(s Sink) error { return s.SendTerms(ctx, list) })
}

func (r *Router) Close() error {
	return r.each("close", func(s Sink) error { return s.Close() })
}

func describe(s Sink) string {
	switch s.(type) {
	case *Stdout:
		return "stdout"
	case *Webhook:
		return "webhook"
	case *Category:
		return "category"
	case *Store:
		return "store"
	case *Callback:
		return "callback"
	default:
		return "custom"
	}
}
