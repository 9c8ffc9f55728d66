package snip

import (
	"errors"
	"fmt"
)

// ErrEmptyResult is returned when filtering left zero relevant rules. It
// signals an overly narrow target or a mismatch between the supplied
// stylesheets and subtree; packaging unstyled markup silently would hide
// that.
var ErrEmptyResult = errors.New("snip: no style rules relevant to target subtree")

// LoadError reports a navigation, timeout or render failure from the page
// loader. Fatal for the run; the caller decides whether to reload.
type LoadError struct {
	URL string
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("snip: load %s: %v", e.URL, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// NotFoundError reports that the structural path matched no node in the
// loaded document. A path matching several nodes is not an error: the
// locator takes the first match in document order.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("snip: no node matches path %q", e.Path)
}

// WriteError reports a sink storage failure. Propagated unchanged; the
// pipeline never retries writes.
type WriteError struct {
	Dest string
	Err  error
}

func (e *WriteError) Error() string { return fmt.Sprintf("snip: write %s: %v", e.Dest, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }
