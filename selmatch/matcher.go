// Package selmatch decides whether a CSS selector matches a DOM node.
// Combinator and structural pseudo-class evaluation is delegated to
// cascadia, which walks the node's real parent and sibling links, so
// ancestor selectors resolve against the full document a node came from.
//
// Dynamic pseudo-classes (:hover, :focus, ...) cannot be verified without a
// live browser session. They are stripped before compilation and the
// selector is marked speculative: the rule is kept whenever the rest of the
// selector matches structurally. Extra harmless CSS beats missing style.
package selmatch

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/net/html"
)

var dynamicPseudos = map[string]bool{
	"hover":         true,
	"focus":         true,
	"focus-within":  true,
	"focus-visible": true,
	"active":        true,
	"visited":       true,
	"link":          true,
	"target":        true,
	"playing":       true,
	"paused":        true,
}

// Compiled is a selector prepared for matching. Safe for concurrent use.
type Compiled struct {
	// Raw is the selector as it appeared in the stylesheet.
	Raw string

	// Speculative is set when matching required assuming an unverifiable
	// condition: a dynamic pseudo-class was stripped, or the selector could
	// not be compiled at all and is conservatively treated as matching.
	Speculative bool

	sel cascadia.Sel // nil means match-any
}

// Compile prepares a single selector (no comma groups) for matching.
// Compile never fails: a selector cascadia rejects is retained as an
// always-matching speculative selector.
func Compile(selector string) *Compiled {
	c := &Compiled{Raw: selector}

	stripped, speculative := stripDynamic(selector)
	c.Speculative = speculative

	if strings.TrimSpace(stripped) == "" {
		// Selector was nothing but dynamic pseudo-classes.
		c.Speculative = true
		return c
	}

	sel, err := cascadia.ParseWithPseudoElement(stripped)
	if err != nil {
		c.Speculative = true
		return c
	}
	c.sel = sel
	return c
}

// Matches reports whether the compiled selector matches the node at its
// real position in the document. Neither the selector nor the node is
// mutated.
func (c *Compiled) Matches(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if c.sel == nil {
		return true
	}
	return c.sel.Match(n)
}

// stripDynamic removes dynamic pseudo-classes from a selector, reporting
// whether anything was removed. A compound selector left empty by stripping
// becomes the universal selector so combinator structure survives:
// "a:hover > b" keeps its child relation as "a > b", ":hover > b" as "* > b".
func stripDynamic(selector string) (string, bool) {
	toks := lexSelector(selector)

	var parts []string
	var cur strings.Builder
	curHadAny := false
	stripped := false

	endCompound := func() {
		s := cur.String()
		if s == "" && curHadAny {
			s = "*"
		}
		if s != "" {
			parts = append(parts, s)
		}
		cur.Reset()
		curHadAny = false
	}

	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch {
		case t.tt == css.WhitespaceToken:
			endCompound()

		case t.tt == css.DelimToken && (t.data == ">" || t.data == "+" || t.data == "~"):
			endCompound()
			parts = append(parts, t.data)

		case t.tt == css.ColonToken:
			curHadAny = true
			// Pseudo-element: copy "::name" verbatim.
			if i+1 < len(toks) && toks[i+1].tt == css.ColonToken {
				cur.WriteString("::")
				i++
				if i+1 < len(toks) {
					i++
					cur.WriteString(toks[i].data)
					if toks[i].tt == css.FunctionToken {
						i = copyParenGroup(&cur, toks, i)
					}
				}
				continue
			}
			if i+1 >= len(toks) {
				cur.WriteString(":")
				continue
			}
			next := toks[i+1]
			switch next.tt {
			case css.IdentToken:
				if dynamicPseudos[strings.ToLower(next.data)] {
					stripped = true
					i++
					continue
				}
				cur.WriteString(":")
				cur.WriteString(next.data)
				i++
			case css.FunctionToken:
				name := strings.ToLower(strings.TrimSuffix(next.data, "("))
				var inner strings.Builder
				end := captureParenGroup(&inner, toks, i+1)
				if dynamicPseudos[name] || containsDynamic(inner.String()) {
					stripped = true
				} else {
					cur.WriteString(":")
					cur.WriteString(next.data)
					cur.WriteString(inner.String())
				}
				i = end
			default:
				cur.WriteString(":")
			}

		default:
			curHadAny = true
			cur.WriteString(t.data)
			if t.tt == css.FunctionToken {
				i = copyParenGroup(&cur, toks, i)
			}
		}
	}
	endCompound()

	out := strings.Join(parts, " ")
	// A selector reduced to a lone universal substitute carries no structural
	// information left to verify; report it empty.
	if stripped && out == "*" {
		out = ""
	}
	return out, stripped
}

type selToken struct {
	tt   css.TokenType
	data string
}

func lexSelector(s string) []selToken {
	l := css.NewLexer(parse.NewInputString(s))
	var toks []selToken
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			return toks
		}
		if tt == css.CommentToken {
			continue
		}
		toks = append(toks, selToken{tt, string(data)})
	}
}

// captureParenGroup writes tokens following an opening FunctionToken at pos
// up to and including the balancing close paren. Returns the index of the
// last consumed token.
func captureParenGroup(sb *strings.Builder, toks []selToken, pos int) int {
	depth := 1
	i := pos
	for depth > 0 && i+1 < len(toks) {
		i++
		t := toks[i]
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			depth--
		}
		sb.WriteString(t.data)
	}
	return i
}

// copyParenGroup is captureParenGroup writing into the current compound.
func copyParenGroup(cur *strings.Builder, toks []selToken, pos int) int {
	return captureParenGroup(cur, toks, pos)
}

// containsDynamic reports whether pseudo-function arguments mention a
// dynamic pseudo-class, e.g. ":not(:hover)". Such a functional pseudo is
// stripped whole rather than left behind with a hole in its arguments.
func containsDynamic(inner string) bool {
	lower := strings.ToLower(inner)
	for name := range dynamicPseudos {
		if strings.Contains(lower, ":"+name) {
			return true
		}
	}
	return false
}
