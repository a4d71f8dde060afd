package harvest

import "fmt"

// Node is the harvested record of one collapsible container.
type Node struct {
	// Index is "<depth>-<ordinal>", ordinal counted from 1 among siblings.
	Index string `json:"index"`
	Depth int    `json:"depth"`

	HeaderLabel   Field `json:"header_label"`
	HeaderOperate Field `json:"header_operate"`
	Trick         Field `json:"trick"`
	BodyLabel     Field `json:"body_label"`
	BodyOperate   Field `json:"body_operate"`
	WarningBadge  Field `json:"warning_badge"`

	Children []*Node `json:"children,omitempty"`

	// Err is the fault that interrupted processing of this node, if any.
	Err string `json:"error,omitempty"`
}

func newNode(depth, ordinal int) *Node {
	return &Node{Index: fmt.Sprintf("%d-%d", depth, ordinal), Depth: depth}
}

func (n *Node) fields() []*Field {
	return []*Field{
		&n.HeaderLabel, &n.HeaderOperate, &n.Trick,
		&n.BodyLabel, &n.BodyOperate, &n.WarningBadge,
	}
}

// settle resolves every field still pending: Failed when the node faulted,
// Absent otherwise. Fields recorded before the fault keep their value.
func (n *Node) settle(err error) {
	final := Absent
	if err != nil {
		final = Failed
		n.Err = err.Error()
	}
	for _, f := range n.fields() {
		if f.State == pending {
			*f = Field{State: final}
		}
	}
}

// Failed reports whether processing of the node faulted.
func (n *Node) Failed() bool { return n.Err != "" }

// Walk visits nodes in pre-order. Returning false from fn skips the
// node's children.
func Walk(nodes []*Node, fn func(*Node) bool) {
	stack := make([]*Node, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, nodes[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// Count returns the number of nodes in the forest and how many faulted.
func Count(nodes []*Node) (total, failed int) {
	Walk(nodes, func(n *Node) bool {
		total++
		if n.Failed() {
			failed++
		}
		return true
	})
	return total, failed
}
