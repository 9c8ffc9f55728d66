// Package cssrule parses raw stylesheet text into an ordered rule list that
// preserves source order and @media grouping, so a later relevance pass can
// drop rules without disturbing cascade precedence among the survivors.
package cssrule

import "fmt"

// RawSheet is one stylesheet as collected from a rendered page: its position
// in document.styleSheets and the concatenated rule text. The browser applies
// sheets in this order, so Index must be preserved for cascade tie-breaks.
type RawSheet struct {
	Index int
	Text  string
}

// Rule is a single selector with its declaration text. Comma-grouped
// selectors are expanded into one Rule per selector at parse time; the
// expanded rules share Declarations and SourceIndex.
type Rule struct {
	Selector     string
	Declarations string
	SourceIndex  int

	// Speculative marks a rule retained despite a condition that cannot be
	// verified statically (dynamic pseudo-class, uncompilable selector).
	Speculative bool
}

// Text renders the rule back to CSS.
func (r *Rule) Text() string {
	return r.Selector + " { " + r.Declarations + " }"
}

// Block is a conditional group such as @media or @supports. Condition holds
// the full header text ("@media screen and (max-width: 600px)") verbatim so
// the block can be re-emitted unchanged. Blocks may nest.
type Block struct {
	Condition   string
	Items       []Item
	SourceIndex int
}

// Item is the tagged variant over Rule and Block. Exactly one field is set.
type Item struct {
	Rule  *Rule
	Block *Block
}

// SourceIndex returns the statement index of whichever variant is set.
func (it Item) SourceIndex() int {
	if it.Rule != nil {
		return it.Rule.SourceIndex
	}
	if it.Block != nil {
		return it.Block.SourceIndex
	}
	return 0
}

// Sheet is the parse result: top-level items in document order plus any
// warnings collected along the way.
type Sheet struct {
	Items    []Item
	Warnings []Warning
}

// Warning reports one malformed statement that was skipped. Parsing never
// fails outright; one bad rule must not abort extraction of the page.
type Warning struct {
	Sheet  int    // RawSheet index
	Near   string // selector or at-keyword closest to the problem
	Reason string
}

func (w Warning) String() string {
	if w.Near == "" {
		return fmt.Sprintf("sheet %d: %s", w.Sheet, w.Reason)
	}
	return fmt.Sprintf("sheet %d: %s near %q", w.Sheet, w.Reason, w.Near)
}
