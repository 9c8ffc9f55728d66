package snip

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/hazyhaar/snipcss/cssrule"
	"github.com/hazyhaar/snipcss/locate"
	"github.com/hazyhaar/snipcss/pack"
	"github.com/hazyhaar/snipcss/relevance"
)

// Result is one finished extraction. Handed to every sink; not retained by
// the pipeline afterwards.
type Result struct {
	URL        string
	XPath      string
	Artifact   string
	Rules      int // surviving top-level rules and blocks
	Warnings   []cssrule.Warning
	FinishedAt time.Time
	Elapsed    time.Duration
}

// Pipeline runs extractions. One Run is single-threaded end to end;
// separate Pipeline instances are independent and may run concurrently.
type Pipeline struct {
	cfg    *Config
	log    *slog.Logger
	loader Loader
	sinks  []Sink
}

// New creates a pipeline. A nil logger falls back to slog.Default.
func New(cfg *Config, log *slog.Logger, loader Loader, sinks ...Sink) *Pipeline {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{cfg: cfg, log: log, loader: loader, sinks: sinks}
}

// Run extracts the node at xpath from url and writes the artifact to every
// sink. Collaborator failures (*LoadError, *NotFoundError, *WriteError) and
// ErrEmptyResult abort the run; nothing is written on failure, so there is
// no partial state to roll back.
func (p *Pipeline) Run(ctx context.Context, url, xpath string) (*Result, error) {
	start := time.Now()

	page, err := p.loader.Load(ctx, url)
	if err != nil {
		return nil, err
	}
	p.log.Info("snip: page loaded", "url", url, "sheets", len(page.Sheets))

	doc, err := html.Parse(strings.NewReader(page.HTML))
	if err != nil {
		return nil, &LoadError{URL: url, Err: fmt.Errorf("parse document: %w", err)}
	}

	target := locate.First(doc, xpath)
	if target == nil {
		return nil, &NotFoundError{Path: xpath}
	}

	sheet := cssrule.NewParser(p.log).Parse(page.Sheets)
	for _, w := range sheet.Warnings {
		p.log.Warn("snip: stylesheet parse warning", "warning", w.String())
	}
	if limit := p.cfg.Extract.MaxParseWarnings; limit > 0 && len(sheet.Warnings) > limit {
		return nil, fmt.Errorf("snip: %d parse warnings exceed limit %d", len(sheet.Warnings), limit)
	}

	kept := relevance.Filter(target, sheet.Items)
	if len(kept) == 0 {
		return nil, ErrEmptyResult
	}
	p.log.Info("snip: rules filtered", "kept", len(kept), "total", len(sheet.Items))

	artifact, err := pack.Build(target, kept, pack.Options{
		Compact:             p.cfg.Extract.Compact,
		AnnotateSpeculative: p.cfg.Extract.AnnotateSpeculative,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		URL:        url,
		XPath:      xpath,
		Artifact:   artifact,
		Rules:      len(kept),
		Warnings:   sheet.Warnings,
		FinishedAt: time.Now(),
		Elapsed:    time.Since(start),
	}

	for _, s := range p.sinks {
		if err := s.Write(ctx, res); err != nil {
			return nil, err
		}
	}

	p.log.Info("snip: extraction complete", "url", url, "xpath", xpath,
		"rules", res.Rules, "warnings", len(res.Warnings), "elapsed", res.Elapsed)
	return res, nil
}
