package snip

import (
	"context"

	"github.com/hazyhaar/snipcss/cssrule"
)

// PageData is a fully rendered page as handed over by a Loader: the
// serialized document and every stylesheet text in the order the browser
// applied them. Both are immutable once constructed.
type PageData struct {
	URL    string
	HTML   string
	Sheets []cssrule.RawSheet
}

// Loader fetches and renders a page. The rod-backed implementation lives in
// internal/browser; tests substitute an in-memory one. Implementations
// return *LoadError on navigation, timeout or render failure.
type Loader interface {
	Load(ctx context.Context, url string) (*PageData, error)
}
