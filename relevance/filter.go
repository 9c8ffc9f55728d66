// Package relevance narrows a parsed rule list to the rules that can affect
// a target subtree. The output is a stable subsequence of the input: source
// order and source indexes survive untouched, so cascade precedence among
// the surviving rules is exactly what it was on the original page.
package relevance

import (
	"github.com/hazyhaar/snipcss/cssrule"
	"github.com/hazyhaar/snipcss/selmatch"
	"golang.org/x/net/html"
)

// Filter keeps each rule iff its selector matches at least one element in
// the subtree rooted at subtree (the root included). Nodes keep their parent
// and sibling links into the full document, so ancestor combinators such as
// ".page .card" resolve against the true page structure even when ".page"
// lies outside the subtree. Conditional blocks are filtered recursively and
// dropped when nothing inside them survives.
//
// Filtering an already-filtered list against the same subtree returns an
// equal list: nothing shrinks twice.
func Filter(subtree *html.Node, items []cssrule.Item) []cssrule.Item {
	f := &filter{
		nodes: collectElements(subtree),
		cache: make(map[string]*selmatch.Compiled),
	}
	return f.apply(items)
}

type filter struct {
	nodes []*html.Node
	cache map[string]*selmatch.Compiled
}

func (f *filter) apply(items []cssrule.Item) []cssrule.Item {
	var kept []cssrule.Item
	for _, it := range items {
		switch {
		case it.Rule != nil:
			c := f.compiled(it.Rule.Selector)
			if !f.anyMatch(c) {
				continue
			}
			r := *it.Rule
			if c.Speculative {
				r.Speculative = true
			}
			kept = append(kept, cssrule.Item{Rule: &r})

		case it.Block != nil:
			inner := f.apply(it.Block.Items)
			if len(inner) == 0 {
				continue
			}
			kept = append(kept, cssrule.Item{Block: &cssrule.Block{
				Condition:   it.Block.Condition,
				Items:       inner,
				SourceIndex: it.Block.SourceIndex,
			}})
		}
	}
	return kept
}

func (f *filter) compiled(selector string) *selmatch.Compiled {
	if c, ok := f.cache[selector]; ok {
		return c
	}
	c := selmatch.Compile(selector)
	f.cache[selector] = c
	return c
}

func (f *filter) anyMatch(c *selmatch.Compiled) bool {
	for _, n := range f.nodes {
		if c.Matches(n) {
			return true
		}
	}
	return false
}

// collectElements gathers the element nodes of a subtree in document order.
func collectElements(root *html.Node) []*html.Node {
	var nodes []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			nodes = append(nodes, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return nodes
}
