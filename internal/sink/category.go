package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/hazyhaar/scrapeking/internal/site"
)

// DefaultCategoryPrefix names the per-category text files.
const DefaultCategoryPrefix = "pokeking_icu_home_X_"

// Category appends each page to the text file of its category and
// remembers which categories were written during the run.
type Category struct {
	dir    string
	prefix string

	mu      sync.Mutex
	written map[string]struct{}
}

// NewCategory writes under dir. An empty prefix takes DefaultCategoryPrefix.
func NewCategory(dir, prefix string) (*Category, error) {
	if prefix == "" {
		prefix = DefaultCategoryPrefix
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("category: mkdir %s: %w", dir, err)
	}
	return &Category{dir: dir, prefix: prefix, written: make(map[string]struct{})}, nil
}

// Path returns the file of category.
func (c *Category) Path(category string) string {
	return filepath.Join(c.dir, site.CategoryFile(c.prefix, category))
}

// SendPage appends rec to its category file. Pages with nothing harvested
// are skipped.
func (c *Category) SendPage(_ context.Context, rec *site.PageRecord) error {
	if rec.Empty() {
		return nil
	}
	cat := rec.Category()

	c.mu.Lock()
	defer c.mu.Unlock()
	f, err := os.OpenFile(c.Path(cat), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("category: open: %w", err)
	}
	if _, err := f.WriteString(site.Format(rec)); err != nil {
		f.Close()
		return fmt.Errorf("category: append %s: %w", cat, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("category: close %s: %w", cat, err)
	}
	c.written[cat] = struct{}{}
	return nil
}

// SendTerms is a no-op: term lists have their own files.
func (c *Category) SendTerms(context.Context, TermList) error { return nil }

func (c *Category) Close() error { return nil }

// Written returns the categories appended to so far, sorted.
func (c *Category) Written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.written))
	for k := range c.written {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
