// Package htmldoc implements site.Page over static HTML with goquery.
//
// Saved detail pages are served fully rendered, so expanding a container
// changes nothing; clicks only flip aria-expanded to mirror the live page.
package htmldoc

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/hazyhaar/scrapeking/harvest"
	"github.com/hazyhaar/scrapeking/internal/site"
)

// Document is a parsed page. Elements are *html.Node.
type Document struct {
	doc *goquery.Document
	url string
	sel site.Selectors

	expanded map[*html.Node]int
	clicks   int
}

var _ site.Page = (*Document)(nil)

// Parse reads an HTML page that was served at pageURL.
func Parse(r io.Reader, pageURL string, sel site.Selectors) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: parse: %w", err)
	}
	sel.ApplyDefaults()
	return &Document{
		doc:      doc,
		url:      pageURL,
		sel:      sel,
		expanded: make(map[*html.Node]int),
	}, nil
}

// Load parses the HTML file at path.
func Load(path, pageURL string, sel site.Selectors) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: %w", err)
	}
	defer f.Close()
	return Parse(f, pageURL, sel)
}

// Root returns the document node.
func (d *Document) Root() harvest.Element { return d.doc.Nodes[0] }

// Expansions reports how many times Expand was called on el.
func (d *Document) Expansions(el harvest.Element) int {
	n, _ := el.(*html.Node)
	return d.expanded[n]
}

// Clicks reports how many clicks the page received.
func (d *Document) Clicks() int { return d.clicks }

func (d *Document) URL() string { return d.url }

func (d *Document) node(el harvest.Element) (*html.Node, error) {
	n, ok := el.(*html.Node)
	if !ok || n == nil {
		return nil, fmt.Errorf("htmldoc: not an element of this document: %T", el)
	}
	return n, nil
}

// scope wraps el in a selection; nil means the whole document.
func (d *Document) scope(el harvest.Element) (*goquery.Selection, error) {
	if el == nil {
		return d.doc.Selection, nil
	}
	n, err := d.node(el)
	if err != nil {
		return nil, err
	}
	if n == d.doc.Nodes[0] {
		return d.doc.Selection, nil
	}
	return d.doc.FindNodes(n), nil
}

// inside reports whether m has an ancestor matching css strictly between
// itself and the scope node.
func inside(m *goquery.Selection, scope *html.Node, css string) bool {
	return m.ParentsUntilNodes(scope).Filter(css).Length() > 0
}

func elements(s *goquery.Selection) []harvest.Element {
	out := make([]harvest.Element, len(s.Nodes))
	for i, n := range s.Nodes {
		out[i] = n
	}
	return out
}

func (d *Document) FindContainers(ctx context.Context, parent harvest.Element) ([]harvest.Element, error) {
	if parent == nil {
		return nil, fmt.Errorf("htmldoc: nil parent")
	}
	s, err := d.scope(parent)
	if err != nil {
		return nil, err
	}
	p := s.Nodes[0]
	direct := s.Find(d.sel.Container).FilterFunction(func(_ int, m *goquery.Selection) bool {
		return !inside(m, p, d.sel.Container)
	})
	return elements(direct), nil
}

func (d *Document) FindFirst(ctx context.Context, scope harvest.Element, t harvest.Target) (harvest.Element, bool, error) {
	s, err := d.scope(scope)
	if err != nil {
		return nil, false, err
	}
	l := d.sel.For(t)
	if l.CSS == "" {
		return nil, false, fmt.Errorf("htmldoc: no selector for %s", t)
	}
	p := s.Nodes[0]
	matches := s.Find(l.CSS).FilterFunction(func(_ int, m *goquery.Selection) bool {
		if l.Owned && inside(m, p, d.sel.Container) {
			return false
		}
		if l.OutsideHeader && inside(m, p, d.sel.Header) {
			return false
		}
		return true
	})
	if matches.Length() <= l.Nth {
		return nil, false, nil
	}
	return matches.Get(l.Nth), true, nil
}

func (d *Document) Expand(ctx context.Context, container harvest.Element) error {
	n, err := d.node(container)
	if err != nil {
		return err
	}
	d.expanded[n]++
	return nil
}

// WaitExpanded reports whether the container holds expanded content of
// its own. Matches in its header or in nested containers do not count.
func (d *Document) WaitExpanded(ctx context.Context, container harvest.Element, _ time.Duration) bool {
	s, err := d.scope(container)
	if err != nil {
		return false
	}
	p := s.Nodes[0]
	return s.Find(d.sel.Expanded).FilterFunction(func(_ int, m *goquery.Selection) bool {
		return !inside(m, p, d.sel.Container) && !inside(m, p, d.sel.Header)
	}).Length() > 0
}

func (d *Document) TextOf(ctx context.Context, el harvest.Element) (string, error) {
	s, err := d.scope(el)
	if err != nil {
		return "", err
	}
	return s.Text(), nil
}

func (d *Document) Query(ctx context.Context, scope harvest.Element, css string) ([]harvest.Element, error) {
	s, err := d.scope(scope)
	if err != nil {
		return nil, err
	}
	return elements(s.Find(css)), nil
}

func (d *Document) Attr(ctx context.Context, el harvest.Element, name string) (string, bool, error) {
	s, err := d.scope(el)
	if err != nil {
		return "", false, err
	}
	v, ok := s.Attr(name)
	return v, ok, nil
}

func (d *Document) Click(ctx context.Context, el harvest.Element) error {
	s, err := d.scope(el)
	if err != nil {
		return err
	}
	d.clicks++
	if _, ok := s.Attr("aria-expanded"); ok {
		s.SetAttr("aria-expanded", "true")
	}
	return nil
}

func (d *Document) WaitFor(ctx context.Context, scope harvest.Element, css string, _ time.Duration) (harvest.Element, bool, error) {
	s, err := d.scope(scope)
	if err != nil {
		return nil, false, err
	}
	m := s.Find(css)
	if m.Length() == 0 {
		return nil, false, nil
	}
	return m.Get(0), true, nil
}
