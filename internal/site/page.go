package site

import (
	"context"
	"time"

	"github.com/hazyhaar/scrapeking/harvest"
)

// Page is a loaded detail page. It extends the harvester's accessor with
// the generic queries the page scraper needs. A nil scope means the whole
// document.
type Page interface {
	harvest.PageAccessor

	URL() string
	Query(ctx context.Context, scope harvest.Element, css string) ([]harvest.Element, error)
	Attr(ctx context.Context, el harvest.Element, name string) (value string, ok bool, err error)
	Click(ctx context.Context, el harvest.Element) error
	// WaitFor waits up to timeout for css to match inside scope and
	// returns the first match. found=false on timeout is not an error.
	WaitFor(ctx context.Context, scope harvest.Element, css string, timeout time.Duration) (el harvest.Element, found bool, err error)
}
