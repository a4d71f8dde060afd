package site

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/scrapeking/harvest"
)

// Labels of the category text format. The collect stage reads values back
// through FieldLabels.
const (
	LabelAlert            = "Alert Text"
	LabelCardName         = "pokemon_name"
	LabelCardRedBold      = "red_bold_text"
	LabelCardWarning      = "warning_badge_text"
	LabelNodeHeaderLabel  = "nested_header_label_text (collapsed)"
	LabelNodeHeaderOp     = "nested_header_operate_text (collapsed)"
	LabelNodeTrick        = "nested_trick_text (expanded)"
	LabelNodeBodyLabel    = "nested_body_label_text (expanded)"
	LabelNodeBodyOperate  = "nested_body_operate_text (expanded)"
	LabelNodeWarningBadge = "nested_warning_badge_text (expanded)"
)

// FieldLabels lists every label whose value is harvested text.
var FieldLabels = []string{
	LabelAlert,
	LabelCardName,
	LabelCardRedBold,
	LabelCardWarning,
	LabelNodeHeaderLabel,
	LabelNodeHeaderOp,
	LabelNodeTrick,
	LabelNodeBodyLabel,
	LabelNodeBodyOperate,
	LabelNodeWarningBadge,
}

// Format renders rec as a block of the category text file. Blocks are
// appended one after another, each ending with a blank line.
func Format(rec *PageRecord) string {
	var b strings.Builder
	banner := fmt.Sprintf("========== Data from page %s/%s ==========\n", rec.X, rec.Y)

	if len(rec.Alerts) > 0 {
		b.WriteString(banner)
		b.WriteString("--- Alert Box Data ---\n")
		for _, a := range rec.Alerts {
			fmt.Fprintf(&b, "  %s: %s\n", LabelAlert, oneLine(a))
		}
	}

	for _, c := range rec.Cards {
		b.WriteString(banner)
		fmt.Fprintf(&b, "--- Card Entry (Card %d) ---\n", c.Index)
		fmt.Fprintf(&b, "%s: %s\n", LabelCardName, oneLine(c.Name.String()))
		fmt.Fprintf(&b, "%s: %s\n", LabelCardRedBold, oneLine(c.RedBold.String()))
		fmt.Fprintf(&b, "%s: %s\n", LabelCardWarning, oneLine(c.WarningBadge.String()))
		if c.Err != "" {
			fmt.Fprintf(&b, "card_error: %s\n", oneLine(c.Err))
		}
		formatNodes(&b, c.Nodes, 0)
		b.WriteString(strings.Repeat("-", 30) + "\n")
	}

	b.WriteString("\n")
	return b.String()
}

func formatNodes(b *strings.Builder, nodes []*harvest.Node, depth int) {
	if len(nodes) == 0 {
		return
	}
	indent := strings.Repeat("  ", depth+1)
	fmt.Fprintf(b, "%s--- Nested Items (%d) ---\n", indent, len(nodes))
	for _, n := range nodes {
		fmt.Fprintf(b, "%s  Nested Item %s:\n", indent, n.Index)
		for _, f := range []struct {
			label string
			v     harvest.Field
		}{
			{LabelNodeHeaderLabel, n.HeaderLabel},
			{LabelNodeHeaderOp, n.HeaderOperate},
			{LabelNodeTrick, n.Trick},
			{LabelNodeBodyLabel, n.BodyLabel},
			{LabelNodeBodyOperate, n.BodyOperate},
			{LabelNodeWarningBadge, n.WarningBadge},
		} {
			fmt.Fprintf(b, "%s    %s: %s\n", indent, f.label, oneLine(f.v.String()))
		}
		if n.Err != "" {
			fmt.Fprintf(b, "%s    node_error: %s\n", indent, oneLine(n.Err))
		}
		formatNodes(b, n.Children, depth+1)
		fmt.Fprintf(b, "%s  --------------------\n", indent)
	}
}

// oneLine keeps multi-line text on its label's line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
