// Package harvest walks a tree of collapsible containers, expanding each
// one and recording its labelled fields.
//
// The walk is depth first and pre-order: a container's whole subtree is
// harvested before its next sibling. Every fault, including a panic inside
// a PageAccessor, is contained at the node where it happened; the node is
// kept with its unread fields marked Failed and the walk moves on.
package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultExpandTimeout bounds the wait for a container's content after it
// has been expanded.
const DefaultExpandTimeout = 5 * time.Second

// Harvester extracts Node trees through a PageAccessor.
type Harvester struct {
	acc           PageAccessor
	expandTimeout time.Duration
	logger        *slog.Logger
}

// Option configures a Harvester.
type Option func(*Harvester)

// WithExpandTimeout sets the bounded wait after each expansion.
func WithExpandTimeout(d time.Duration) Option {
	return func(h *Harvester) {
		if d > 0 {
			h.expandTimeout = d
		}
	}
}

// WithLogger sets the logger. Default slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Harvester) {
		if l != nil {
			h.logger = l
		}
	}
}

// New returns a Harvester reading through acc.
func New(acc PageAccessor, opts ...Option) *Harvester {
	h := &Harvester{
		acc:           acc,
		expandTimeout: DefaultExpandTimeout,
		logger:        slog.Default(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

type frame struct {
	containers []Element
	depth      int
	next       int
	out        *[]*Node
}

// Harvest returns one Node per container directly under root, each with
// its descendants. The slice is never nil. The only error is a failure to
// list root's own containers.
func (h *Harvester) Harvest(ctx context.Context, root Element) ([]*Node, error) {
	top, err := h.acc.FindContainers(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("harvest: list root containers: %w", err)
	}

	result := make([]*Node, 0, len(top))
	stack := []*frame{{containers: top, out: &result}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		if f.next == len(f.containers) {
			stack = stack[:len(stack)-1]
			continue
		}
		c := f.containers[f.next]
		f.next++

		node, children := h.visit(ctx, c, f.depth, f.next)
		*f.out = append(*f.out, node)
		if len(children) > 0 {
			stack = append(stack, &frame{
				containers: children,
				depth:      f.depth + 1,
				out:        &node.Children,
			})
		}
	}
	return result, nil
}

// visit processes one container. It never fails: errors and panics end up
// on the returned node, which then has no children.
func (h *Harvester) visit(ctx context.Context, c Element, depth, ordinal int) (n *Node, children []Element) {
	n = newNode(depth, ordinal)
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			children = nil
			h.logger.Warn("harvest: node failed", "index", n.Index, "error", err)
		}
		n.settle(err)
	}()
	children, err = h.process(ctx, c, n)
	return n, children
}

func (h *Harvester) process(ctx context.Context, c Element, n *Node) ([]Element, error) {
	header, ok, err := h.acc.FindFirst(ctx, c, TargetHeader)
	if err != nil {
		return nil, fmt.Errorf("find header: %w", err)
	}
	if ok {
		if n.HeaderLabel, err = h.read(ctx, header, TargetHeaderLabel); err != nil {
			return nil, err
		}
		if n.HeaderOperate, err = h.read(ctx, header, TargetHeaderOperate); err != nil {
			return nil, err
		}
	} else {
		n.HeaderLabel, n.HeaderOperate = AbsentField(), AbsentField()
	}

	if err := h.acc.Expand(ctx, c); err != nil {
		return nil, fmt.Errorf("expand: %w", err)
	}
	if !h.acc.WaitExpanded(ctx, c, h.expandTimeout) {
		h.logger.Debug("harvest: expanded content not observed", "index", n.Index, "timeout", h.expandTimeout)
	}

	for _, r := range []struct {
		t Target
		f *Field
	}{
		{TargetTrick, &n.Trick},
		{TargetWarningBadge, &n.WarningBadge},
		{TargetBodyLabel, &n.BodyLabel},
		{TargetBodyOperate, &n.BodyOperate},
	} {
		if *r.f, err = h.read(ctx, c, r.t); err != nil {
			return nil, err
		}
	}

	children, err := h.acc.FindContainers(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("list child containers: %w", err)
	}
	return children, nil
}

func (h *Harvester) read(ctx context.Context, scope Element, t Target) (Field, error) {
	el, ok, err := h.acc.FindFirst(ctx, scope, t)
	if err != nil {
		return Field{}, fmt.Errorf("find %s: %w", t, err)
	}
	if !ok {
		return AbsentField(), nil
	}
	text, err := h.acc.TextOf(ctx, el)
	if err != nil {
		return Field{}, fmt.Errorf("read %s: %w", t, err)
	}
	return PresentField(strings.TrimSpace(text)), nil
}
