package selmatch

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

const matcherDoc = `<!DOCTYPE html>
<html>
<body>
<div class="page">
	<div class="card featured" id="card-1" data-kind="promo">
		<a href="/offer">Offer</a>
		<p>First</p>
		<p>Second</p>
	</div>
	<div class="card">
		<span>plain</span>
	</div>
</div>
</body>
</html>`

func parseDoc(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

// findElement returns the first element with the given tag and optional id.
func findElement(t *testing.T, root *html.Node, tag, id string) *html.Node {
	t.Helper()
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == tag {
			if id == "" || attrVal(n, "id") == id {
				found = n
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	if found == nil {
		t.Fatalf("fixture element %s#%s not found", tag, id)
	}
	return found
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func TestMatches_Basic(t *testing.T) {
	doc := parseDoc(t, matcherDoc)
	card := findElement(t, doc, "div", "card-1")
	link := findElement(t, doc, "a", "")

	tests := []struct {
		selector string
		node     *html.Node
		want     bool
	}{
		{"div", card, true},
		{"DIV", card, true}, // tag names are case-insensitive
		{".card", card, true},
		{".featured", card, true},
		{".nav", card, false},
		{"#card-1", card, true},
		{"#card-2", card, false},
		{"[data-kind]", card, true},
		{`[data-kind="promo"]`, card, true},
		{`[data-kind="Promo"]`, card, false}, // attribute values are case-sensitive
		{".page .card", card, true},
		{".page > .card", card, true},
		{".missing .card", card, false},
		{".page a", link, true},
		{".card > a", link, true},
		{"span", card, false},
	}
	for _, tt := range tests {
		c := Compile(tt.selector)
		if got := c.Matches(tt.node); got != tt.want {
			t.Errorf("Matches(%q): got %v, want %v", tt.selector, got, tt.want)
		}
		if c.Speculative {
			t.Errorf("Compile(%q): unexpectedly speculative", tt.selector)
		}
	}
}

func TestMatches_SiblingCombinators(t *testing.T) {
	doc := parseDoc(t, matcherDoc)
	card := findElement(t, doc, "div", "card-1")

	var second *html.Node
	for c := card.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "p" {
			second = c // ends on the last <p>
		}
	}

	if got := Compile("p + p").Matches(second); !got {
		t.Error("p + p should match the second paragraph")
	}
	if got := Compile("a ~ p").Matches(second); !got {
		t.Error("a ~ p should match a paragraph after the link")
	}
	if got := Compile("p + a").Matches(second); got {
		t.Error("p + a must not match a paragraph")
	}
}

func TestMatches_StructuralPseudoClasses(t *testing.T) {
	doc := parseDoc(t, matcherDoc)
	card := findElement(t, doc, "div", "card-1")

	if !Compile(".card:first-child").Matches(card) {
		t.Error(".card:first-child should match the first card")
	}
	if Compile(".card:last-child").Matches(card) {
		t.Error(".card:last-child must not match the first card")
	}
	if !Compile("div:nth-child(1)").Matches(card) {
		t.Error("div:nth-child(1) should match")
	}
	if Compile("div:nth-child(2)").Matches(card) {
		t.Error("div:nth-child(2) must not match the first card")
	}
}

func TestMatches_DynamicPseudoStripped(t *testing.T) {
	doc := parseDoc(t, matcherDoc)
	link := findElement(t, doc, "a", "")
	card := findElement(t, doc, "div", "card-1")

	c := Compile("a:hover")
	if !c.Speculative {
		t.Error("a:hover should be speculative")
	}
	if !c.Matches(link) {
		t.Error("a:hover should match the link structurally")
	}
	if c.Matches(card) {
		t.Error("a:hover must not match a div")
	}

	// Dynamic pseudo in a non-final compound keeps the combinator shape.
	c = Compile(".card:hover > a")
	if !c.Speculative || !c.Matches(link) {
		t.Errorf(".card:hover > a: speculative=%v matches=%v", c.Speculative, c.Matches(link))
	}
}

func TestMatches_OnlyDynamicPseudoMatchesAnything(t *testing.T) {
	doc := parseDoc(t, matcherDoc)
	card := findElement(t, doc, "div", "card-1")

	c := Compile(":hover")
	if !c.Speculative {
		t.Error(":hover alone should be speculative")
	}
	if !c.Matches(card) {
		t.Error(":hover alone should conservatively match any element")
	}
}

func TestMatches_DynamicInsideNotStripsWholePseudo(t *testing.T) {
	doc := parseDoc(t, matcherDoc)
	link := findElement(t, doc, "a", "")

	c := Compile("a:not(:hover)")
	if !c.Speculative {
		t.Error("a:not(:hover) should be speculative")
	}
	if !c.Matches(link) {
		t.Error("a:not(:hover) should structurally match the link")
	}
}

func TestMatches_StaticNotKept(t *testing.T) {
	doc := parseDoc(t, matcherDoc)
	card := findElement(t, doc, "div", "card-1")

	c := Compile("div:not(.featured)")
	if c.Speculative {
		t.Error("div:not(.featured) is fully static")
	}
	if c.Matches(card) {
		t.Error("div:not(.featured) must not match the featured card")
	}
}

func TestMatches_PseudoElementKept(t *testing.T) {
	doc := parseDoc(t, matcherDoc)
	card := findElement(t, doc, "div", "card-1")

	c := Compile(".card::before")
	if c.Speculative {
		t.Error("::before is static, not speculative")
	}
	if !c.Matches(card) {
		t.Error(".card::before should match via its originating element")
	}
}

func TestMatches_UncompilableSelectorRetained(t *testing.T) {
	doc := parseDoc(t, matcherDoc)
	card := findElement(t, doc, "div", "card-1")

	c := Compile("div:-webkit-any(.a)")
	if !c.Speculative {
		t.Error("uncompilable selector should be speculative")
	}
	if !c.Matches(card) {
		t.Error("uncompilable selector is conservatively retained")
	}
}

func TestMatches_NonElementNode(t *testing.T) {
	doc := parseDoc(t, matcherDoc)
	if Compile("*").Matches(doc) {
		t.Error("document node is not an element")
	}
	if Compile("*").Matches(nil) {
		t.Error("nil node never matches")
	}
}

func TestStripDynamic(t *testing.T) {
	tests := []struct {
		in       string
		want     string
		stripped bool
	}{
		{".a", ".a", false},
		{"a:hover", "a", true},
		{":hover", "", true},
		{".nav a:visited span", ".nav a span", true},
		{":hover > b", "* > b", true},
		{"a:focus:hover", "a", true},
		{"input:checked", "input:checked", false},
		{"li:nth-child(2n+1)", "li:nth-child(2n+1)", false},
		{`a[href="x:hover"]`, `a[href="x:hover"]`, false},
	}
	for _, tt := range tests {
		got, stripped := stripDynamic(tt.in)
		if got != tt.want || stripped != tt.stripped {
			t.Errorf("stripDynamic(%q): got (%q, %v), want (%q, %v)",
				tt.in, got, stripped, tt.want, tt.stripped)
		}
	}
}
