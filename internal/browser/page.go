package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/scrapeking/harvest"
	"github.com/hazyhaar/scrapeking/internal/site"
)

// pollInterval is how often waits re-check the DOM.
const pollInterval = 100 * time.Millisecond

// expandedMark is set on containers the accessor has clicked open.
const expandedMark = "data-scrapeking-expanded"

// The scripts below run with this bound to the scope element, or to the
// window for document-wide queries.

const jsQuery = `function (css) {
	const root = this instanceof Element ? this : document;
	return Array.from(root.querySelectorAll(css));
}`

const jsContainers = `function (css) {
	const root = this instanceof Element ? this : document;
	return Array.from(root.querySelectorAll(css)).filter(m => {
		for (let a = m.parentElement; a && a !== root; a = a.parentElement) {
			if (a.matches(css)) return false;
		}
		return true;
	});
}`

const jsInside = `const inside = (m, s) => {
		for (let a = m.parentElement; a && a !== root; a = a.parentElement) {
			if (a.matches(s)) return true;
		}
		return false;
	};`

const jsFind = `function (css, nth, owned, outside, container, header) {
	const root = this instanceof Element ? this : document;
	` + jsInside + `
	const hits = Array.from(root.querySelectorAll(css)).filter(m =>
		!(owned && inside(m, container)) && !(outside && inside(m, header)));
	return hits.length > nth ? [hits[nth]] : [];
}`

// jsExpanded reports whether the container holds content of its own,
// outside its header and outside nested containers.
const jsExpanded = `function (css, container, header) {
	const root = this;
	` + jsInside + `
	return Array.from(root.querySelectorAll(css)).some(m =>
		!inside(m, container) && !inside(m, header));
}`

const jsMarkExpanded = `function (header, mark) {
	if (header.getAttribute('aria-expanded') === 'true' || this.hasAttribute(mark)) {
		return false;
	}
	this.setAttribute(mark, '');
	return true;
}`

// Page implements site.Page over a live Rod page.
type Page struct {
	page *rod.Page
	sel  site.Selectors
}

var _ site.Page = (*Page)(nil)

// NewPage wraps a loaded Rod page.
func NewPage(p *rod.Page, sel site.Selectors) *Page {
	sel.ApplyDefaults()
	return &Page{page: p, sel: sel}
}

// URL returns the current address of the page.
func (p *Page) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (p *Page) element(e harvest.Element) (*rod.Element, error) {
	el, ok := e.(*rod.Element)
	if !ok || el == nil {
		return nil, fmt.Errorf("browser: not a page element: %T", e)
	}
	return el, nil
}

// elements evaluates js with this bound to scope and returns the array it
// yields.
func (p *Page) elements(ctx context.Context, scope harvest.Element, js string, args ...any) ([]harvest.Element, error) {
	opts := rod.Eval(js, args...)
	var (
		list rod.Elements
		err  error
	)
	if scope == nil {
		list, err = p.page.Context(ctx).ElementsByJS(opts)
	} else {
		el, eerr := p.element(scope)
		if eerr != nil {
			return nil, eerr
		}
		list, err = el.Context(ctx).ElementsByJS(opts)
	}
	if err != nil {
		return nil, err
	}
	out := make([]harvest.Element, len(list))
	for i, el := range list {
		out[i] = el
	}
	return out, nil
}

func (p *Page) FindContainers(ctx context.Context, parent harvest.Element) ([]harvest.Element, error) {
	if parent == nil {
		return nil, fmt.Errorf("browser: nil parent")
	}
	return p.elements(ctx, parent, jsContainers, p.sel.Container)
}

func (p *Page) FindFirst(ctx context.Context, scope harvest.Element, t harvest.Target) (harvest.Element, bool, error) {
	l := p.sel.For(t)
	if l.CSS == "" {
		return nil, false, fmt.Errorf("browser: no selector for %s", t)
	}
	hits, err := p.elements(ctx, scope, jsFind, l.CSS, l.Nth, l.Owned, l.OutsideHeader, p.sel.Container, p.sel.Header)
	if err != nil {
		return nil, false, err
	}
	if len(hits) == 0 {
		return nil, false, nil
	}
	return hits[0], true, nil
}

// Expand clicks the container's header unless it is already open. A
// container without a header cannot be opened and is left alone.
func (p *Page) Expand(ctx context.Context, container harvest.Element) error {
	c, err := p.element(container)
	if err != nil {
		return err
	}
	h, found, err := p.FindFirst(ctx, container, harvest.TargetHeader)
	if err != nil || !found {
		return err
	}
	header := h.(*rod.Element)
	res, err := c.Context(ctx).Evaluate(rod.Eval(jsMarkExpanded, header.Object, expandedMark))
	if err != nil {
		return fmt.Errorf("browser: expand: %w", err)
	}
	if !res.Value.Bool() {
		return nil
	}
	return p.Click(ctx, header)
}

func (p *Page) WaitExpanded(ctx context.Context, container harvest.Element, timeout time.Duration) bool {
	c, err := p.element(container)
	if err != nil {
		return false
	}
	_, found, err := p.poll(ctx, timeout, func() (harvest.Element, bool, error) {
		res, err := c.Context(ctx).Evaluate(rod.Eval(jsExpanded, p.sel.Expanded, p.sel.Container, p.sel.Header))
		if err != nil {
			return nil, false, err
		}
		return container, res.Value.Bool(), nil
	})
	return err == nil && found
}

func (p *Page) TextOf(ctx context.Context, e harvest.Element) (string, error) {
	el, err := p.element(e)
	if err != nil {
		return "", err
	}
	return el.Context(ctx).Text()
}

func (p *Page) Query(ctx context.Context, scope harvest.Element, css string) ([]harvest.Element, error) {
	return p.elements(ctx, scope, jsQuery, css)
}

func (p *Page) Attr(ctx context.Context, e harvest.Element, name string) (string, bool, error) {
	el, err := p.element(e)
	if err != nil {
		return "", false, err
	}
	v, err := el.Context(ctx).Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

// Click performs a native click and falls back to a scripted one when the
// element is covered or not interactable.
func (p *Page) Click(ctx context.Context, e harvest.Element) error {
	el, err := p.element(e)
	if err != nil {
		return err
	}
	el = el.Context(ctx)
	if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if _, err := el.Eval(`() => this.click()`); err != nil {
		return fmt.Errorf("browser: click: %w", err)
	}
	return nil
}

func (p *Page) WaitFor(ctx context.Context, scope harvest.Element, css string, timeout time.Duration) (harvest.Element, bool, error) {
	return p.poll(ctx, timeout, func() (harvest.Element, bool, error) {
		hits, err := p.elements(ctx, scope, jsQuery, css)
		if err != nil || len(hits) == 0 {
			return nil, false, err
		}
		return hits[0], true, nil
	})
}

// poll calls check until it reports found, fails, or timeout elapses.
func (p *Page) poll(ctx context.Context, timeout time.Duration, check func() (harvest.Element, bool, error)) (harvest.Element, bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		el, found, err := check()
		if err != nil || found {
			return el, found, err
		}
		if !time.Now().Before(deadline) {
			return nil, false, nil
		}
		if err := sleep(ctx, pollInterval); err != nil {
			return nil, false, err
		}
	}
}
