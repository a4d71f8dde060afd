package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoDetailLinks is returned when an index page shows no detail links
// within the wait.
var ErrNoDetailLinks = errors.New("browser: no detail links")

const jsDetailLinks = `function (css) {
	return Array.from(document.querySelectorAll(css))
		.map(e => e.closest('a'))
		.filter(a => a && a.href)
		.map(a => a.href);
}`

// DetailLinks loads an index page and returns the absolute URLs of the
// links wrapping its detail entries, in document order without
// duplicates.
func DetailLinks(ctx context.Context, t *Tab, p *Page, indexURL string, wait time.Duration) ([]string, error) {
	if err := t.Navigate(ctx, indexURL); err != nil {
		return nil, err
	}
	css := p.sel.DetailLink
	_, found, err := p.WaitFor(ctx, nil, css, wait)
	if err != nil {
		return nil, fmt.Errorf("browser: wait detail links: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w on %s", ErrNoDetailLinks, indexURL)
	}

	res, err := t.Page.Context(ctx).Eval(jsDetailLinks, css)
	if err != nil {
		return nil, fmt.Errorf("browser: read detail links: %w", err)
	}
	seen := make(map[string]bool)
	var urls []string
	for _, v := range res.Value.Arr() {
		u := v.Str()
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w on %s", ErrNoDetailLinks, indexURL)
	}
	return urls, nil
}
