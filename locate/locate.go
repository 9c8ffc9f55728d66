// Package locate resolves a structural path query against a parsed HTML
// document. It supports the practical XPath subset the extraction CLI needs:
//
//   - /html/body/div[1]/footer   — absolute path with positional predicates
//   - //footer                   — descendant anywhere
//   - //div[@class='x']          — attribute predicate
//   - //div[2]                   — positional predicate
//   - //main/article/p           — descendant step followed by child steps
//
// When a query resolves to more than one node the first match in document
// order wins; zero matches is the caller's NotFound case.
package locate

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// First returns the first node matching the path, or nil when none does.
func First(doc *html.Node, path string) *html.Node {
	matches := All(doc, path)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// All returns every node matching the path in document order.
func All(doc *html.Node, path string) []*html.Node {
	path = strings.TrimSpace(path)

	switch {
	case strings.HasPrefix(path, "//"):
		return descendantSearch(doc, path[2:])
	case strings.HasPrefix(path, "/"):
		return childSteps([]*html.Node{doc}, path[1:])
	default:
		// Bare expression: treat as descendant search.
		return descendantSearch(doc, path)
	}
}

// descendantSearch matches the first step anywhere under root, then applies
// the remaining steps as child steps from each hit.
func descendantSearch(root *html.Node, expr string) []*html.Node {
	first, rest, _ := strings.Cut(expr, "/")
	st := parseStep(first)

	var hits []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if st.matches(n) {
			hits = append(hits, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if rest == "" {
		return hits
	}
	return childSteps(hits, rest)
}

// childSteps follows a step/step/... path where each step selects among the
// current nodes' element children.
func childSteps(current []*html.Node, path string) []*html.Node {
	for _, raw := range strings.Split(path, "/") {
		if raw == "" {
			continue
		}
		st := parseStep(raw)
		var next []*html.Node
		for _, parent := range current {
			for c := parent.FirstChild; c != nil; c = c.NextSibling {
				if st.matches(c) {
					next = append(next, c)
				}
			}
		}
		current = next
	}
	return current
}

// step is one parsed path component: a tag (or *) plus an optional
// attribute or positional predicate.
type step struct {
	tag       string
	attrName  string
	attrValue string
	hasValue  bool
	position  int // 1-based; counts same-tag element siblings
}

// parseStep parses "div", "div[@class='x']", "div[@data-x]", "div[2]".
func parseStep(raw string) step {
	st := step{tag: raw}

	idx := strings.IndexByte(raw, '[')
	if idx < 0 {
		return st
	}
	st.tag = raw[:idx]
	pred := strings.TrimRight(raw[idx+1:], "]")

	if n, err := strconv.Atoi(pred); err == nil {
		st.position = n
		return st
	}

	if strings.HasPrefix(pred, "@") {
		expr := pred[1:]
		if name, val, ok := strings.Cut(expr, "="); ok {
			st.attrName = name
			st.attrValue = strings.Trim(val, `'"`)
			st.hasValue = true
		} else {
			st.attrName = expr
		}
	}
	return st
}

func (st step) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if st.tag != "*" && !strings.EqualFold(st.tag, n.Data) {
		return false
	}

	if st.attrName != "" {
		val, ok := attr(n, st.attrName)
		if !ok {
			return false
		}
		if st.hasValue {
			return val == st.attrValue
		}
		return true
	}

	if st.position > 0 {
		if n.Parent == nil {
			return st.position == 1
		}
		pos := 0
		for s := n.Parent.FirstChild; s != nil; s = s.NextSibling {
			if s.Type == html.ElementNode && s.Data == n.Data {
				pos++
				if s == n {
					return pos == st.position
				}
			}
		}
		return false
	}

	return true
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}
