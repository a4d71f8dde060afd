package site

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/scrapeking/harvest"
)

// Scraper turns a loaded detail page into a PageRecord.
type Scraper struct {
	sel           Selectors
	logger        *slog.Logger
	alertWait     time.Duration
	cardWait      time.Duration
	expandTimeout time.Duration
	now           func() time.Time
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scraper) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWaits sets how long to wait for the alert box, for the cards and
// for each expansion.
func WithWaits(alert, card, expand time.Duration) Option {
	return func(s *Scraper) {
		if alert > 0 {
			s.alertWait = alert
		}
		if card > 0 {
			s.cardWait = card
		}
		if expand > 0 {
			s.expandTimeout = expand
		}
	}
}

// WithClock replaces time.Now for HarvestedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Scraper) { s.now = now }
}

// NewScraper returns a Scraper using sel. Empty selectors take defaults.
func NewScraper(sel Selectors, opts ...Option) *Scraper {
	sel.ApplyDefaults()
	s := &Scraper{
		sel:           sel,
		logger:        slog.Default(),
		alertWait:     5 * time.Second,
		cardWait:      7 * time.Second,
		expandTimeout: harvest.DefaultExpandTimeout,
		now:           time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Selectors returns the selectors in use.
func (s *Scraper) Selectors() Selectors { return s.sel }

// ScrapePage harvests the alert box and every card of p. A card that
// fails is kept with its error and the next card is processed. The error
// return is reserved for a page whose cards cannot be listed at all.
func (s *Scraper) ScrapePage(ctx context.Context, p Page) (*PageRecord, error) {
	rec := &PageRecord{URL: p.URL()}
	rec.X, rec.Y = ParseCoords(rec.URL)
	log := s.logger.With("url", rec.URL)

	alertFound := false
	alerts, err := s.alerts(ctx, p)
	switch {
	case err != nil:
		log.Warn("site: alert box", "error", err)
	case alerts != nil:
		alertFound = true
		rec.Alerts = alerts
	}

	// The cards render with the alert box; a page without one gets longer.
	wait := s.cardWait
	if alertFound {
		wait = min(wait, 3*time.Second)
	}
	if _, ok, err := p.WaitFor(ctx, nil, s.sel.Cards, wait); err != nil {
		return nil, fmt.Errorf("site: wait cards: %w", err)
	} else if !ok {
		log.Debug("site: no cards")
	}
	cards, err := p.Query(ctx, nil, s.sel.Cards)
	if err != nil {
		return nil, fmt.Errorf("site: list cards: %w", err)
	}

	h := harvest.New(p, harvest.WithExpandTimeout(s.expandTimeout), harvest.WithLogger(log))
	for i, el := range cards {
		c := s.card(ctx, p, h, el, i+1)
		if c.Err != "" {
			log.Warn("site: card failed", "card", c.Index, "error", c.Err)
		}
		rec.Cards = append(rec.Cards, c)
	}
	rec.HarvestedAt = s.now().UTC()

	_, nodes, failed := rec.Stats()
	log.Info("site: page scraped", "x", rec.X, "y", rec.Y,
		"alerts", len(rec.Alerts), "cards", len(rec.Cards), "nodes", nodes, "failed_nodes", failed)
	return rec, nil
}

// alerts returns the non-empty texts of the alert box. A nil slice means
// there is no alert box; an empty one means the box holds no text.
func (s *Scraper) alerts(ctx context.Context, p Page) ([]string, error) {
	box, ok, err := p.WaitFor(ctx, nil, s.sel.AlertBox, s.alertWait)
	if err != nil || !ok {
		return nil, err
	}
	els, err := p.Query(ctx, box, s.sel.AlertText)
	if err != nil {
		return nil, err
	}
	texts := []string{}
	for _, el := range els {
		// Entries wrapping a button are the close control.
		buttons, err := p.Query(ctx, el, "button")
		if err != nil {
			return nil, err
		}
		if len(buttons) > 0 {
			continue
		}
		t, err := p.TextOf(ctx, el)
		if err != nil {
			return nil, err
		}
		if t = strings.TrimSpace(t); t != "" {
			texts = append(texts, t)
		}
	}
	return texts, nil
}

func (s *Scraper) card(ctx context.Context, p Page, h *harvest.Harvester, el harvest.Element, index int) (c Card) {
	c.Index = index
	failed := harvest.FailedField()
	c.Name, c.RedBold, c.WarningBadge = failed, failed, failed

	defer func() {
		if r := recover(); r != nil {
			c.Err = fmt.Sprintf("panic: %v", r)
		}
	}()

	var err error
	if c.Name, err = s.field(ctx, p, el, s.sel.CardName); err != nil {
		c.Err = err.Error()
		return c
	}
	if c.RedBold, err = s.field(ctx, p, el, s.sel.CardRedBold); err != nil {
		c.Err = err.Error()
		return c
	}
	if c.WarningBadge, err = s.field(ctx, p, el, s.sel.CardWarningBadge); err != nil {
		c.Err = err.Error()
		return c
	}

	body, err := s.openCard(ctx, p, el)
	if err != nil {
		c.Err = err.Error()
		return c
	}
	if c.Nodes, err = h.Harvest(ctx, body); err != nil {
		c.Err = err.Error()
	}
	return c
}

// openCard clicks the card toggle unless the card is open and returns its
// body element.
func (s *Scraper) openCard(ctx context.Context, p Page, card harvest.Element) (harvest.Element, error) {
	toggles, err := p.Query(ctx, card, s.sel.CardToggle)
	if err != nil {
		return nil, fmt.Errorf("find toggle: %w", err)
	}
	if len(toggles) == 0 {
		return nil, fmt.Errorf("card has no toggle")
	}
	toggle := toggles[0]

	bodyID, ok, err := p.Attr(ctx, toggle, "aria-controls")
	if err != nil {
		return nil, fmt.Errorf("read aria-controls: %w", err)
	}
	if !ok || bodyID == "" {
		return nil, fmt.Errorf("toggle has no aria-controls")
	}

	expanded, _, err := p.Attr(ctx, toggle, "aria-expanded")
	if err != nil {
		return nil, fmt.Errorf("read aria-expanded: %w", err)
	}
	if expanded != "true" {
		if err := p.Click(ctx, toggle); err != nil {
			return nil, fmt.Errorf("open card: %w", err)
		}
	}

	body, ok, err := p.WaitFor(ctx, nil, fmt.Sprintf("[id=%q]", bodyID), s.expandTimeout)
	if err != nil {
		return nil, fmt.Errorf("wait card body: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("card body %s did not appear", bodyID)
	}
	return body, nil
}

func (s *Scraper) field(ctx context.Context, p Page, scope harvest.Element, css string) (harvest.Field, error) {
	els, err := p.Query(ctx, scope, css)
	if err != nil {
		return harvest.FailedField(), fmt.Errorf("find %s: %w", css, err)
	}
	if len(els) == 0 {
		return harvest.AbsentField(), nil
	}
	t, err := p.TextOf(ctx, els[0])
	if err != nil {
		return harvest.FailedField(), fmt.Errorf("read %s: %w", css, err)
	}
	return harvest.PresentField(strings.TrimSpace(t)), nil
}
