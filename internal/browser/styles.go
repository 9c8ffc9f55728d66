package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/snipcss/cssrule"
)

// collectSheetsJS walks document.styleSheets and returns one text blob per
// sheet, in applied order. @media groups come back whole through cssText.
// Cross-origin sheets whose rules the page cannot read are skipped.
const collectSheetsJS = `() => {
	const out = [];
	for (const sheet of document.styleSheets) {
		let rules;
		try {
			rules = sheet.cssRules;
		} catch (e) {
			continue;
		}
		if (!rules) continue;
		const parts = [];
		for (const rule of rules) {
			parts.push(rule.cssText);
		}
		out.push(parts.join('\n'));
	}
	return out;
}`

// collectStylesheets returns every readable stylesheet on the page, indexed
// in the order the browser applied them.
func collectStylesheets(ctx context.Context, page *rod.Page) ([]cssrule.RawSheet, error) {
	res, err := page.Context(ctx).Eval(collectSheetsJS)
	if err != nil {
		return nil, err
	}

	var sheets []cssrule.RawSheet
	for i, v := range res.Value.Arr() {
		text := v.Str()
		if text == "" {
			continue
		}
		sheets = append(sheets, cssrule.RawSheet{Index: i, Text: text})
	}
	return sheets, nil
}

const (
	scrollStep  = 800
	scrollPause = 150 * time.Millisecond
	maxScrolls  = 40
)

// scrollToLoad scrolls through the page in steps to trigger lazy-loaded
// content, then returns to the top. Pages that keep growing (infinite feeds)
// are cut off at maxScrolls.
func scrollToLoad(ctx context.Context, page *rod.Page) error {
	height, err := pageHeight(ctx, page)
	if err != nil {
		return err
	}

	pos := 0
	for i := 0; i < maxScrolls && pos < height; i++ {
		pos += scrollStep
		if _, err := page.Context(ctx).Eval(fmt.Sprintf(`() => window.scrollTo(0, %d)`, pos)); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(scrollPause):
		}

		if h, err := pageHeight(ctx, page); err == nil && h > height {
			height = h
		}
	}

	_, err = page.Context(ctx).Eval(`() => window.scrollTo(0, 0)`)
	return err
}

func pageHeight(ctx context.Context, page *rod.Page) (int, error) {
	res, err := page.Context(ctx).Eval(`() => document.body ? document.body.scrollHeight : 0`)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}
