package pipeline

import (
	"log/slog"

	"github.com/dtnitsch/markdownizer/models"
	"github.com/dtnitsch/markdownizer/pkg/analytics"
	"github.com/dtnitsch/markdownizer/pkg/comparator"
	"github.com/dtnitsch/markdownizer/pkg/fetcher"
	"github.com/dtnitsch/markdownizer/pkg/markdown"
	"github.com/dtnitsch/markdownizer/pkg/parser"
	"github.com/dtnitsch/markdownizer/pkg/probe"
)

// New builds a Pipeline from configuration. rec may be nil. The returned
// close function releases the probe browser, if one was started.
func New(cfg models.Config, rec Recorder, logger *slog.Logger) (*Pipeline, func() error) {
	f := fetcher.NewFetcher(fetcher.Options{
		Timeout:    cfg.HTTP.Timeout,
		MaxRetries: cfg.HTTP.MaxRetries,
		UserAgent:  cfg.HTTP.UserAgent,
		Logger:     logger,
	})

	c := comparator.New()
	c.Threshold = cfg.Comparison.ScoreThreshold
	c.BlockerPenalty = cfg.Comparison.BlockerPenalty
	c.MaxLen = cfg.Comparison.MaxContentLength

	a := &analytics.Analytics{}
	p := &Pipeline{
		Fetcher:        f,
		Extractor:      &parser.Parser{},
		Converter:      markdown.NewConverter(),
		Comparator:     c,
		Logger:         logger,
		Profiler:       a.Profile,
		ProbeThreshold: cfg.Probe.Threshold,
	}
	if rec != nil {
		p.Recorder = rec
	}

	closeFn := func() error { return nil }
	switch {
	case !cfg.Probe.Enabled:
	case cfg.Probe.Static:
		p.Prober = &probe.Static{Fetcher: f}
	default:
		b := probe.NewBrowser(probe.Options{
			Headless:  cfg.Probe.Headless,
			Timeout:   cfg.Probe.Timeout,
			RemoteURL: cfg.Probe.RemoteURL,
			Logger:    logger,
		})
		p.Prober = b
		closeFn = b.Close
	}
	return p, closeFn
}
