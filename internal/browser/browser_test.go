package browser

import (
	"testing"

	"github.com/hazyhaar/snipcss/snip"
)

func TestNew_LazyStart(t *testing.T) {
	l := New(snip.BrowserConfig{ViewportWidth: 1280, ViewportHeight: 720}, nil)
	if l == nil {
		t.Fatal("New returned nil")
	}
	// Chrome must not launch until the first Load; closing an unstarted
	// loader is a no-op.
	if err := l.Close(); err != nil {
		t.Errorf("Close before Start: %v", err)
	}
}

func TestShouldBlock(t *testing.T) {
	blockSet := map[string]bool{"images": true, "fonts": true}

	tests := []struct {
		resType string
		want    bool
	}{
		{"Image", true},
		{"Font", true},
		{"Media", false},
		{"Document", false},
		{"Stylesheet", false},
		{"XHR", false},
	}
	for _, tt := range tests {
		if got := shouldBlock(blockSet, tt.resType); got != tt.want {
			t.Errorf("shouldBlock(%q): got %v, want %v", tt.resType, got, tt.want)
		}
	}
}
