// Package site models the scraped web application: its markup selectors,
// the record kept for each detail page, and the scraper that fills it.
package site

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hazyhaar/scrapeking/harvest"
)

// Unknown coordinate values.
const (
	NoCoord         = "N/A"
	UnknownCategory = "unknown_x"
)

// PageRecord is everything harvested from one detail page.
type PageRecord struct {
	RunID       string    `json:"run_id,omitempty"`
	URL         string    `json:"url"`
	X           string    `json:"x"`
	Y           string    `json:"y"`
	Alerts      []string  `json:"alerts,omitempty"`
	Cards       []Card    `json:"cards,omitempty"`
	HarvestedAt time.Time `json:"harvested_at"`
}

// Card is one top-level collapsible card of a detail page.
type Card struct {
	Index        int             `json:"index"`
	Name         harvest.Field   `json:"name"`
	RedBold      harvest.Field   `json:"red_bold"`
	WarningBadge harvest.Field   `json:"warning_badge"`
	Nodes        []*harvest.Node `json:"nodes,omitempty"`
	Err          string          `json:"error,omitempty"`
}

// Category is the X coordinate, or UnknownCategory when the URL had none.
func (r *PageRecord) Category() string {
	if r.X == "" || r.X == NoCoord {
		return UnknownCategory
	}
	return r.X
}

// Empty reports whether nothing was harvested.
func (r *PageRecord) Empty() bool {
	return len(r.Alerts) == 0 && len(r.Cards) == 0
}

// Stats counts cards, nested nodes and failed nodes.
func (r *PageRecord) Stats() (cards, nodes, failed int) {
	for _, c := range r.Cards {
		n, f := harvest.Count(c.Nodes)
		nodes += n
		failed += f
	}
	return len(r.Cards), nodes, failed
}

// ParseCoords extracts X and Y from a detail URL ".../home/<x>/<y>".
// Both are NoCoord unless the path has that shape with integer parts.
func ParseCoords(raw string) (x, y string) {
	u, err := url.Parse(raw)
	if err != nil {
		return NoCoord, NoCoord
	}
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	n := len(segs)
	if n < 3 || segs[n-3] != "home" {
		return NoCoord, NoCoord
	}
	xi, errX := strconv.Atoi(segs[n-2])
	yi, errY := strconv.Atoi(segs[n-1])
	if errX != nil || errY != nil {
		return NoCoord, NoCoord
	}
	return strconv.Itoa(xi), strconv.Itoa(yi)
}

// IndexURLs returns the index pages base+"1" .. base+"n".
func IndexURLs(base string, n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, fmt.Sprintf("%s%d", base, i))
	}
	return out
}

// CategoryFile is the file name holding the pages of one category.
func CategoryFile(prefix, category string) string {
	return prefix + category + "_data.txt"
}
