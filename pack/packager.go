// Package pack assembles the final drop-in artifact: a <style> block holding
// the filtered rules in their preserved order, followed by the extracted
// element's markup. The result renders standalone with the same appearance
// across the viewport conditions kept in the conditional blocks.
package pack

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/hazyhaar/snipcss/cssrule"
	"golang.org/x/net/html"
)

// Options control artifact assembly.
type Options struct {
	// Compact re-joins adjacent rules that came from the same comma group
	// (same source index, same declarations) back into one rule.
	Compact bool

	// AnnotateSpeculative prefixes speculative rules with a comment so a
	// reader can tell which rules were kept on an unverifiable condition.
	AnnotateSpeculative bool
}

// Build serializes the subtree and rule set into one artifact document.
// It is pure; writing the artifact anywhere is the caller's business.
func Build(subtree *html.Node, items []cssrule.Item, opts Options) (string, error) {
	var buf bytes.Buffer

	if css := Stylesheet(items, opts); css != "" {
		buf.WriteString("<style>\n")
		buf.WriteString(css)
		buf.WriteString("</style>\n")
	}

	if err := html.Render(&buf, subtree); err != nil {
		return "", fmt.Errorf("pack: render markup: %w", err)
	}
	buf.WriteByte('\n')

	return buf.String(), nil
}

// Stylesheet renders the rule list back to CSS text, re-wrapping conditional
// blocks with their original condition text.
func Stylesheet(items []cssrule.Item, opts Options) string {
	if opts.Compact {
		items = compact(items)
	}
	var sb strings.Builder
	writeItems(&sb, items, "", opts)
	return sb.String()
}

func writeItems(sb *strings.Builder, items []cssrule.Item, indent string, opts Options) {
	for _, it := range items {
		switch {
		case it.Rule != nil:
			sb.WriteString(indent)
			if opts.AnnotateSpeculative && it.Rule.Speculative {
				sb.WriteString("/* speculative */ ")
			}
			sb.WriteString(it.Rule.Text())
			sb.WriteByte('\n')

		case it.Block != nil:
			sb.WriteString(indent)
			sb.WriteString(it.Block.Condition)
			sb.WriteString(" {\n")
			writeItems(sb, it.Block.Items, indent+"\t", opts)
			sb.WriteString(indent)
			sb.WriteString("}\n")
		}
	}
}

// compact merges runs of rules that share a source index and declaration
// text, the leftovers of comma-group expansion whose members all survived
// filtering. Correctness never depends on this; it only shortens output.
func compact(items []cssrule.Item) []cssrule.Item {
	var out []cssrule.Item
	for _, it := range items {
		if it.Block != nil {
			out = append(out, cssrule.Item{Block: &cssrule.Block{
				Condition:   it.Block.Condition,
				Items:       compact(it.Block.Items),
				SourceIndex: it.Block.SourceIndex,
			}})
			continue
		}

		if n := len(out); n > 0 && out[n-1].Rule != nil &&
			out[n-1].Rule.SourceIndex == it.Rule.SourceIndex &&
			out[n-1].Rule.Declarations == it.Rule.Declarations {
			prev := out[n-1].Rule
			merged := *prev
			merged.Selector = prev.Selector + ", " + it.Rule.Selector
			merged.Speculative = prev.Speculative || it.Rule.Speculative
			out[n-1] = cssrule.Item{Rule: &merged}
			continue
		}

		r := *it.Rule
		out = append(out, cssrule.Item{Rule: &r})
	}
	return out
}
