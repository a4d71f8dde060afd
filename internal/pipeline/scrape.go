package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hazyhaar/scrapeking/internal/htmldoc"
	"github.com/hazyhaar/scrapeking/internal/sink"
	"github.com/hazyhaar/scrapeking/internal/site"
)

// ScrapeReport summarises a Scrape.
type ScrapeReport struct {
	RunID       string   `json:"run_id"`
	IndexPages  int      `json:"index_pages"`
	Pages       int      `json:"pages"`
	Skipped     int      `json:"skipped"`
	Cards       int      `json:"cards"`
	Nodes       int      `json:"nodes"`
	FailedNodes int      `json:"failed_nodes"`
	Categories  []string `json:"categories"`
}

func (r *ScrapeReport) add(rec *site.PageRecord) {
	cards, nodes, failed := rec.Stats()
	r.Pages++
	r.Cards += cards
	r.Nodes += nodes
	r.FailedNodes += failed
}

func (p *Pipeline) scraper() *site.Scraper {
	return site.NewScraper(p.cfg.Selectors,
		site.WithLogger(p.logger),
		site.WithWaits(p.cfg.Waits.Alert, p.cfg.Waits.Cards, p.cfg.Waits.Expand),
	)
}

func (p *Pipeline) categorySink() (*sink.Category, error) {
	return sink.NewCategory(p.cfg.Output.Dir, p.cfg.Output.CategoryPrefix)
}

// Scrape logs in, walks every index page and harvests each detail page
// into the category files. A failing index or detail page is dumped,
// logged and skipped; a failed login ends the run.
func (p *Pipeline) Scrape(ctx context.Context) (*ScrapeReport, error) {
	if p.open == nil {
		return nil, ErrNoSession
	}
	cat, err := p.categorySink()
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	rep := &ScrapeReport{}
	rep.RunID, err = p.track(ctx, KindScrape, func(runID string) error {
		sess, err := p.open(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err := sess.Close(); err != nil {
				p.logger.Warn("pipeline: close session", "error", err)
			}
		}()
		return p.scrapeSite(ctx, sess, p.router(cat), runID, rep)
	})
	rep.Categories = cat.Written()
	if err != nil {
		return rep, err
	}
	p.logger.Info("pipeline: scrape done",
		"run_id", rep.RunID, "pages", rep.Pages, "skipped", rep.Skipped,
		"cards", rep.Cards, "nodes", rep.Nodes, "failed_nodes", rep.FailedNodes)
	return rep, nil
}

func (p *Pipeline) scrapeSite(ctx context.Context, sess Session, out sink.Sink, runID string, rep *ScrapeReport) error {
	scr := p.scraper()
	for i, indexURL := range site.IndexURLs(p.cfg.Site.IndexBase, p.cfg.Site.IndexPages) {
		if err := ctx.Err(); err != nil {
			return err
		}
		rep.IndexPages++
		log := p.logger.With("index", indexURL)

		links, err := sess.DetailLinks(ctx, indexURL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("pipeline: index page skipped", "error", err)
			sess.Dump(ctx, "no_links_first_"+strconv.Itoa(i+1))
			continue
		}
		log.Info("pipeline: index page", "links", len(links))

		for _, link := range links {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := p.scrapeDetail(ctx, sess, scr, out, runID, link, rep); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				rep.Skipped++
				p.logger.Warn("pipeline: detail page skipped", "url", link, "error", err)
				sess.Dump(ctx, "failed_"+link)
			}
		}
	}
	return nil
}

func (p *Pipeline) scrapeDetail(ctx context.Context, sess Session, scr *site.Scraper, out sink.Sink, runID, link string, rep *ScrapeReport) error {
	page, err := sess.Open(ctx, link)
	if err != nil {
		return err
	}
	rec, err := scr.ScrapePage(ctx, page)
	if err != nil {
		return err
	}
	rec.RunID = runID
	rep.add(rec)
	if rec.Empty() {
		p.logger.Info("pipeline: no data on page", "url", rec.URL)
	}
	if err := out.SendPage(ctx, rec); err != nil {
		p.logger.Warn("pipeline: deliver page", "url", rec.URL, "error", err)
	}
	return nil
}

// Replay harvests a saved detail page as if it had been scraped from
// pageURL, which supplies the page coordinates.
func (p *Pipeline) Replay(ctx context.Context, htmlPath, pageURL string) (*site.PageRecord, error) {
	cat, err := p.categorySink()
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	var rec *site.PageRecord
	_, err = p.track(ctx, KindReplay, func(runID string) error {
		doc, err := htmldoc.Load(htmlPath, pageURL, p.cfg.Selectors)
		if err != nil {
			return err
		}
		rec, err = p.scraper().ScrapePage(ctx, doc)
		if err != nil {
			return err
		}
		rec.RunID = runID
		return p.router(cat).SendPage(ctx, rec)
	})
	return rec, err
}
