package cssrule

import (
	"log/slog"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Conditional at-rules are kept as Blocks; every other at-rule is skipped
// because it carries no selector to match against a subtree.
var conditionalAtRules = map[string]bool{
	"@media":    true,
	"@supports": true,
}

// Parser turns raw stylesheet text into a Sheet.
type Parser struct {
	log *slog.Logger
}

// NewParser creates a stylesheet parser. A nil logger falls back to
// slog.Default.
func NewParser(log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{log: log}
}

// Parse parses every sheet in order. Statement indexes run across sheet
// boundaries so the flattened rule sequence stays monotonic, matching the
// order the browser applied the sheets. Malformed statements are skipped
// and reported in Sheet.Warnings.
func (p *Parser) Parse(sheets []RawSheet) *Sheet {
	out := &Sheet{}
	counter := 0

	for _, rs := range sheets {
		r := &run{
			log:   p.log,
			toks:  lex(rs.Text),
			sheet: rs.Index,
			out:   out,
			next:  &counter,
		}
		out.Items = append(out.Items, r.parseItems(0)...)
	}
	return out
}

type token struct {
	tt   css.TokenType
	data string
}

// lex tokenizes stylesheet text, dropping comments.
func lex(text string) []token {
	l := css.NewLexer(parse.NewInputString(text))
	var toks []token
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			return toks
		}
		if tt == css.CommentToken {
			continue
		}
		toks = append(toks, token{tt, string(data)})
	}
}

// run is the parse state for a single sheet.
type run struct {
	log   *slog.Logger
	toks  []token
	pos   int
	sheet int
	out   *Sheet
	next  *int
}

func (r *run) eof() bool   { return r.pos >= len(r.toks) }
func (r *run) peek() token { return r.toks[r.pos] }

// take allocates the next statement index.
func (r *run) take() int {
	idx := *r.next
	*r.next++
	return idx
}

func (r *run) warn(near, reason string) {
	r.out.Warnings = append(r.out.Warnings, Warning{Sheet: r.sheet, Near: near, Reason: reason})
	r.log.Debug("cssrule: skipping statement", "sheet", r.sheet, "near", near, "reason", reason)
}

// skipJunk advances past whitespace, stray semicolons and CDO/CDC markers.
func (r *run) skipJunk() {
	for !r.eof() {
		switch r.peek().tt {
		case css.WhitespaceToken, css.SemicolonToken, css.CDOToken, css.CDCToken:
			r.pos++
		default:
			return
		}
	}
}

// parseItems parses statements until the matching closing brace (depth > 0)
// or end of input.
func (r *run) parseItems(depth int) []Item {
	var items []Item
	for {
		r.skipJunk()
		if r.eof() {
			if depth > 0 {
				r.warn("", "unterminated block")
			}
			return items
		}

		switch r.peek().tt {
		case css.RightBraceToken:
			r.pos++
			if depth > 0 {
				return items
			}
			r.warn("", "unexpected '}'")

		case css.AtKeywordToken:
			if it, ok := r.parseAtRule(depth); ok {
				items = append(items, it)
			}

		default:
			items = append(items, r.parseRuleset()...)
		}
	}
}

// parseAtRule handles one @-statement. Conditional group rules become
// Blocks; anything else (@import, @charset, @font-face, @keyframes, ...)
// is consumed and dropped.
func (r *run) parseAtRule(depth int) (Item, bool) {
	kw := strings.ToLower(r.peek().data)
	r.pos++

	var prelude []token
	for !r.eof() {
		t := r.peek()
		if t.tt == css.LeftBraceToken || t.tt == css.SemicolonToken {
			break
		}
		prelude = append(prelude, t)
		r.pos++
	}

	if r.eof() || r.peek().tt == css.SemicolonToken {
		// Block-less at-rule such as @import or @charset. The page loader
		// hands us already-resolved rule text, so imports carry nothing.
		if !r.eof() {
			r.pos++
		}
		r.log.Debug("cssrule: dropping at-rule", "rule", kw)
		return Item{}, false
	}

	r.pos++ // consume '{'

	if !conditionalAtRules[kw] {
		r.skipBlock()
		r.log.Debug("cssrule: dropping at-rule", "rule", kw)
		return Item{}, false
	}

	cond := kw
	if p := joinTokens(prelude); p != "" {
		cond += " " + p
	}
	idx := r.take()
	inner := r.parseItems(depth + 1)
	return Item{Block: &Block{Condition: cond, Items: inner, SourceIndex: idx}}, true
}

// parseRuleset parses "selector, selector { declarations }", expanding the
// comma group into one Rule per selector.
func (r *run) parseRuleset() []Item {
	var selToks []token
	for !r.eof() {
		t := r.peek()
		if t.tt == css.LeftBraceToken || t.tt == css.SemicolonToken || t.tt == css.RightBraceToken {
			break
		}
		selToks = append(selToks, t)
		r.pos++
	}

	if r.eof() || r.peek().tt != css.LeftBraceToken {
		if near := joinTokens(selToks); near != "" {
			r.warn(near, "statement without declaration block")
		}
		if !r.eof() && r.peek().tt == css.SemicolonToken {
			r.pos++
		}
		return nil
	}
	r.pos++ // consume '{'

	declToks, closed := r.collectBlock()
	if !closed {
		r.warn(joinTokens(selToks), "unterminated rule")
		return nil
	}

	sels := splitSelectors(selToks)
	if len(sels) == 0 {
		r.warn("", "rule with empty selector")
		return nil
	}

	decls := strings.TrimRight(strings.TrimSpace(joinTokens(declToks)), ";")
	decls = strings.TrimSpace(decls)

	idx := r.take()
	items := make([]Item, 0, len(sels))
	for _, sel := range sels {
		items = append(items, Item{Rule: &Rule{
			Selector:     sel,
			Declarations: decls,
			SourceIndex:  idx,
		}})
	}
	return items
}

// collectBlock captures tokens up to the matching closing brace (which is
// consumed but not captured). closed is false when input ran out first.
func (r *run) collectBlock() ([]token, bool) {
	var toks []token
	depth := 1
	for !r.eof() {
		t := r.peek()
		r.pos++
		switch t.tt {
		case css.LeftBraceToken:
			depth++
		case css.RightBraceToken:
			depth--
			if depth == 0 {
				return toks, true
			}
		}
		toks = append(toks, t)
	}
	return toks, false
}

// skipBlock discards tokens up to the matching closing brace.
func (r *run) skipBlock() {
	depth := 1
	for !r.eof() {
		switch r.peek().tt {
		case css.LeftBraceToken:
			depth++
		case css.RightBraceToken:
			depth--
		}
		r.pos++
		if depth == 0 {
			return
		}
	}
}

// joinTokens rebuilds source text from tokens, collapsing whitespace runs to
// a single space.
func joinTokens(toks []token) string {
	var sb strings.Builder
	space := false
	for _, t := range toks {
		if t.tt == css.WhitespaceToken {
			space = sb.Len() > 0
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.WriteString(t.data)
	}
	return strings.TrimSpace(sb.String())
}

// splitSelectors splits a selector prelude on top-level commas. Commas
// inside :not(...), attribute brackets or functions do not split.
func splitSelectors(toks []token) []string {
	var sels []string
	var group []token
	depth := 0

	flush := func() {
		if s := joinTokens(group); s != "" {
			sels = append(sels, s)
		}
		group = group[:0]
	}

	for _, t := range toks {
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.CommaToken:
			if depth == 0 {
				flush()
				continue
			}
		}
		group = append(group, t)
	}
	flush()
	return sels
}
