package harvest

import (
	"context"
	"time"
)

// Element is an opaque handle to a page element. Only the PageAccessor
// that produced it knows its concrete type.
type Element any

// Target names an element the harvester looks for within a scope.
type Target int

const (
	// TargetHeader is the header of a container.
	TargetHeader Target = iota
	// TargetHeaderLabel and TargetHeaderOperate are searched inside the header.
	TargetHeaderLabel
	TargetHeaderOperate
	// The remaining targets are searched inside the expanded container.
	TargetTrick
	TargetWarningBadge
	TargetBodyLabel
	TargetBodyOperate
)

func (t Target) String() string {
	switch t {
	case TargetHeader:
		return "header"
	case TargetHeaderLabel:
		return "header_label"
	case TargetHeaderOperate:
		return "header_operate"
	case TargetTrick:
		return "trick"
	case TargetWarningBadge:
		return "warning_badge"
	case TargetBodyLabel:
		return "body_label"
	case TargetBodyOperate:
		return "body_operate"
	default:
		return "unknown"
	}
}

// PageAccessor is the view of a live or static document the harvester
// needs. Implementations may block; every call receives the harvest context.
type PageAccessor interface {
	// FindContainers returns the collapsible containers that are direct
	// children of parent, in document order. A nil parent is invalid.
	FindContainers(ctx context.Context, parent Element) ([]Element, error)
	// FindFirst returns the first element matching t within scope, or
	// found=false when there is none.
	FindFirst(ctx context.Context, scope Element, t Target) (el Element, found bool, err error)
	// Expand opens a container. Expanding an open container has no effect.
	Expand(ctx context.Context, container Element) error
	// WaitExpanded waits up to timeout for expanded content to appear and
	// reports whether it did.
	WaitExpanded(ctx context.Context, container Element, timeout time.Duration) bool
	// TextOf returns the visible text of el.
	TextOf(ctx context.Context, el Element) (string, error)
}
