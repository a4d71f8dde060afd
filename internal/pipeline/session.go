package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/scrapeking/internal/browser"
	"github.com/hazyhaar/scrapeking/internal/config"
	"github.com/hazyhaar/scrapeking/internal/site"
)

// Session is a logged-in view of the site.
type Session interface {
	// DetailLinks returns the detail page URLs listed by an index page.
	DetailLinks(ctx context.Context, indexURL string) ([]string, error)
	// Open loads a detail page.
	Open(ctx context.Context, pageURL string) (site.Page, error)
	// Dump saves what the session currently shows for later inspection.
	Dump(ctx context.Context, label string)
	Close() error
}

// Opener starts a Session.
type Opener func(ctx context.Context) (Session, error)

// BrowserOpener starts Chrome, opens a stealth tab and logs in.
func BrowserOpener(cfg *config.Config, creds config.Credentials, logger *slog.Logger) Opener {
	return func(ctx context.Context) (Session, error) {
		mode, err := browser.ParseMode(cfg.Browser.Stealth)
		if err != nil {
			return nil, err
		}
		mgr := browser.NewManager(browser.Config{
			RemoteURL:        cfg.Browser.Remote,
			Mode:             mode,
			XvfbDisplay:      cfg.Browser.XvfbDisplay,
			XvfbScreen:       cfg.Browser.XvfbScreen,
			ResourceBlocking: cfg.Browser.ResourceBlocking,
			NavTimeout:       cfg.Waits.Navigation,
			Logger:           logger,
		})
		if _, err := mgr.Start(ctx); err != nil {
			return nil, err
		}
		tab, err := browser.OpenTab(ctx, mgr)
		if err != nil {
			_ = mgr.Close()
			return nil, err
		}
		s := &browserSession{
			cfg:  cfg,
			mgr:  mgr,
			tab:  tab,
			page: browser.NewPage(tab.Page, cfg.Selectors),
			dump: browser.NewDumper(cfg.Browser.DumpDir, logger),
		}

		form := browser.LoginForm{
			URL:      cfg.Site.LoginURL,
			Username: cfg.Site.Login.Username,
			Password: cfg.Site.Login.Password,
			Submit:   cfg.Site.Login.Submit,
			Wait:     cfg.Waits.Login,
			Settle:   cfg.Waits.Settle,
		}
		if err := browser.Login(ctx, tab, form, creds.Username, creds.Password); err != nil {
			s.Dump(ctx, "login_failed")
			_ = s.Close()
			return nil, fmt.Errorf("pipeline: login: %w", err)
		}
		logger.Info("pipeline: logged in", "url", form.URL)
		return s, nil
	}
}

type browserSession struct {
	cfg  *config.Config
	mgr  *browser.Manager
	tab  *browser.Tab
	page *browser.Page
	dump *browser.Dumper
}

func (s *browserSession) DetailLinks(ctx context.Context, indexURL string) ([]string, error) {
	return browser.DetailLinks(ctx, s.tab, s.page, indexURL, s.cfg.Waits.Links)
}

func (s *browserSession) Open(ctx context.Context, pageURL string) (site.Page, error) {
	if err := s.tab.Navigate(ctx, pageURL); err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.cfg.Waits.Settle):
	}
	return s.page, nil
}

func (s *browserSession) Dump(ctx context.Context, label string) {
	s.dump.Dump(ctx, s.tab, label)
}

func (s *browserSession) Close() error {
	_ = s.tab.Close()
	return s.mgr.Close()
}
