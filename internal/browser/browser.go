// Package browser is the rod-backed page loader: it launches (or connects
// to) headless Chrome, renders a page at the configured viewport, and hands
// back the serialized document plus every stylesheet text in applied order.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/snipcss/snip"
)

// Loader implements snip.Loader on a shared Chrome instance. One Loader may
// serve many Load calls; each call gets its own tab.
type Loader struct {
	cfg snip.BrowserConfig
	log *slog.Logger

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// New creates a Loader. Chrome starts lazily on the first Load.
func New(cfg snip.BrowserConfig, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{cfg: cfg, log: log}
}

// Start launches a local Chrome or connects to the configured remote one.
func (l *Loader) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.browser != nil {
		return nil
	}

	var wsURL string
	if l.cfg.Remote != "" {
		wsURL = l.cfg.Remote
		l.log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		ln := launcher.New().
			Headless(!l.cfg.Headful).
			Set("disable-blink-features", "AutomationControlled").
			Set("window-size", fmt.Sprintf("%d,%d", l.cfg.ViewportWidth, l.cfg.ViewportHeight))

		u, err := ln.Launch()
		if err != nil {
			return fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		l.lnch = ln
		l.log.Info("browser: launched local chrome", "headful", l.cfg.Headful)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("browser: connect: %w", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		l.log.Warn("browser: ignore cert errors failed", "error", err)
	}

	l.browser = b
	return nil
}

// Close shuts down Chrome.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.browser != nil {
		l.browser.Close()
		l.browser = nil
	}
	if l.lnch != nil {
		l.lnch.Cleanup()
		l.lnch = nil
	}
	return nil
}

// Load navigates to url in a fresh tab, waits for the page to render, and
// serializes the document and its stylesheets. Failures come back as
// *snip.LoadError.
func (l *Loader) Load(ctx context.Context, pageURL string) (*snip.PageData, error) {
	if err := l.Start(); err != nil {
		return nil, &snip.LoadError{URL: pageURL, Err: err}
	}

	l.mu.Lock()
	b := l.browser
	l.mu.Unlock()

	var page *rod.Page
	var err error
	if l.cfg.NoStealth {
		page, err = b.Page(proto.TargetCreateTarget{})
	} else {
		page, err = stealth.Page(b)
	}
	if err != nil {
		return nil, &snip.LoadError{URL: pageURL, Err: fmt.Errorf("create tab: %w", err)}
	}
	defer page.Close()

	if len(l.cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, l.cfg.ResourceBlocking); err != nil {
			l.log.Warn("browser: resource blocking failed", "error", err)
		}
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             l.cfg.ViewportWidth,
		Height:            l.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, &snip.LoadError{URL: pageURL, Err: fmt.Errorf("set viewport: %w", err)}
	}

	navCtx, cancel := context.WithTimeout(ctx, l.cfg.NavTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		return nil, &snip.LoadError{URL: pageURL, Err: fmt.Errorf("navigate: %w", err)}
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		// Slow pages still render something useful; keep going.
		l.log.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	if !l.cfg.DisableScroll {
		if err := scrollToLoad(navCtx, page); err != nil {
			l.log.Warn("browser: lazy-load scroll failed", "url", pageURL, "error", err)
		}
	}

	sheets, err := collectStylesheets(navCtx, page)
	if err != nil {
		return nil, &snip.LoadError{URL: pageURL, Err: fmt.Errorf("collect stylesheets: %w", err)}
	}

	res, err := page.Context(navCtx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return nil, &snip.LoadError{URL: pageURL, Err: fmt.Errorf("serialize document: %w", err)}
	}

	l.log.Info("browser: page serialized", "url", pageURL, "sheets", len(sheets))
	return &snip.PageData{
		URL:    pageURL,
		HTML:   res.Value.Str(),
		Sheets: sheets,
	}, nil
}
