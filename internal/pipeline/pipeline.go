// Package pipeline runs the scrapeking stages: scrape the site into
// category files, collect the harvested values, clean them, and extract
// the untranslated terms.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/scrapeking/idgen"
	"github.com/hazyhaar/scrapeking/internal/config"
	"github.com/hazyhaar/scrapeking/internal/sink"
	"github.com/hazyhaar/scrapeking/internal/store"
)

// Run kinds recorded in the store.
const (
	KindScrape    = "scrape"
	KindReplay    = "replay"
	KindCollect   = "collect"
	KindClean     = "clean"
	KindExtract   = "extract"
	KindUncovered = "uncovered"
	KindRun       = "run"
)

// ErrNoSession is returned by Scrape when no browser session is configured.
var ErrNoSession = errors.New("pipeline: no browser session configured")

// Pipeline wires the configuration to the stages.
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	sinks  []sink.Sink
	newID  idgen.Generator
	open   Opener
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithStore records runs, pages and term lists in st.
func WithStore(st *store.Store) Option {
	return func(p *Pipeline) { p.store = st }
}

// WithSink adds a destination for pages and term lists.
func WithSink(s sink.Sink) Option {
	return func(p *Pipeline) { p.sinks = append(p.sinks, s) }
}

// WithIDGenerator sets the run ID generator. Default: UUIDv7.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(p *Pipeline) {
		if gen != nil {
			p.newID = gen
		}
	}
}

// WithOpener sets how Scrape obtains a logged-in session.
func WithOpener(o Opener) Option {
	return func(p *Pipeline) { p.open = o }
}

// New creates a Pipeline. A nil cfg takes config.Default().
func New(cfg *config.Config, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	p := &Pipeline{
		cfg:    cfg,
		logger: slog.Default(),
		newID:  idgen.Default,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Config returns the configuration the pipeline runs with.
func (p *Pipeline) Config() *config.Config { return p.cfg }

// router returns the sinks of one stage: the configured ones, the store
// when set, and extra.
func (p *Pipeline) router(extra ...sink.Sink) *sink.Router {
	r := sink.NewRouter(p.logger, extra...)
	if p.store != nil {
		r.Add(sink.NewStore(p.store, p.newID))
	}
	for _, s := range p.sinks {
		r.Add(s)
	}
	return r
}

// track records fn as a run of the given kind and returns the run ID.
func (p *Pipeline) track(ctx context.Context, kind string, fn func(runID string) error) (string, error) {
	id := p.newID()
	log := p.logger.With("run_id", id, "kind", kind)
	if p.store != nil {
		if err := p.store.StartRun(ctx, id, kind); err != nil {
			return id, fmt.Errorf("pipeline: start run: %w", err)
		}
	}
	log.Info("pipeline: run started")

	err := fn(id)

	if p.store != nil {
		if ferr := p.store.FinishRun(context.WithoutCancel(ctx), id, err); ferr != nil {
			log.Warn("pipeline: finish run", "error", ferr)
		}
	}
	if err != nil {
		log.Error("pipeline: run failed", "error", err)
		return id, err
	}
	log.Info("pipeline: run done")
	return id, nil
}

// Report summarises a full Run.
type Report struct {
	Scrape       *ScrapeReport `json:"scrape"`
	Values       int           `json:"values"`
	Cleaned      int           `json:"cleaned"`
	Untranslated int           `json:"untranslated"`
}

// Run scrapes the site, then collects, cleans and extracts.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	rep := &Report{}
	_, err := p.track(ctx, KindRun, func(string) error {
		var err error
		if rep.Scrape, err = p.Scrape(ctx); err != nil {
			return err
		}
		if rep.Values, err = p.Collect(ctx); err != nil {
			return err
		}
		if rep.Cleaned, err = p.Clean(ctx); err != nil {
			return err
		}
		terms, err := p.Extract(ctx)
		if err != nil {
			return err
		}
		rep.Untranslated = len(terms)
		return nil
	})
	if err != nil {
		return rep, err
	}
	return rep, nil
}
