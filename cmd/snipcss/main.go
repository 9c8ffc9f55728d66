// Command snipcss extracts one element from a live web page together with
// the CSS needed to render it standalone.
//
// Usage:
//
//	snipcss -url https://example.com -xpath /html/body/div[1]/footer -out footer.html
//	snipcss -url https://example.com -xpath //footer                  # artifact to stdout
//	snipcss -config snipcss.yaml -url ... -xpath ...                  # sinks from config
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/snipcss/internal/browser"
	"github.com/hazyhaar/snipcss/snip"
)

var errUsage = errors.New("snipcss: -url and -xpath are required")

func main() {
	pageURL := flag.String("url", "", "page URL to load")
	xpath := flag.String("xpath", "", "structural path to the target element")
	out := flag.String("out", "", "artifact output file (default: stdout)")
	configPath := flag.String("config", "", "path to snipcss.yaml config file")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *pageURL, *xpath, *out); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "usage: snipcss -url <url> -xpath <path> [-out <file>] [-config <file>]")
			os.Exit(2)
		}
		logger.Error("snipcss: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, pageURL, xpath, out string) error {
	if pageURL == "" || xpath == "" {
		return errUsage
	}

	cfg := snip.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = snip.LoadConfigFile(configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	sinks, err := snip.SinksFromConfig(cfg.Sinks)
	if err != nil {
		return err
	}
	if out != "" {
		sinks = append(sinks, snip.NewFileSink(out))
	}
	if len(sinks) == 0 {
		sinks = append(sinks, snip.NewStdoutSink(nil))
	}

	loader := browser.New(cfg.Browser, logger)
	defer loader.Close()

	p := snip.New(cfg, logger, loader, sinks...)

	res, err := p.Run(ctx, pageURL, xpath)
	if err != nil {
		return err
	}

	logger.Info("snipcss: done", "rules", res.Rules, "warnings", len(res.Warnings), "elapsed", res.Elapsed)
	return nil
}
