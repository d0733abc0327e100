package convert

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dtnitsch/markdownizer/internal/common"
	"github.com/dtnitsch/markdownizer/models"
	"github.com/dtnitsch/markdownizer/pkg/analytics"
	"github.com/dtnitsch/markdownizer/pkg/caching"
	"github.com/dtnitsch/markdownizer/pkg/db"
	"github.com/dtnitsch/markdownizer/pkg/manifest"
	"github.com/dtnitsch/markdownizer/pkg/pipeline"
	"github.com/dtnitsch/markdownizer/pkg/storage"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func ConvertAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		common.UsageError("convert", err.Error())
	}

	convertCfg := &models.ConvertConfig{
		WorkerCount: c.Int("workers"),
		OutputDir:   cfg.Storage.OutputDir,
		NoProbe:     c.Bool("no-probe"),
	}
	if c.IsSet("output-dir") {
		convertCfg.OutputDir = c.String("output-dir")
	}
	if c.IsSet("urls") {
		convertCfg.URLs = strings.Split(c.String("urls"), ",")
	}
	if len(convertCfg.URLs) == 0 {
		common.UsageError("convert", `no URLs provided

Usage:
  markdownizer convert --urls "https://example.com,https://example.org"
  markdownizer convert --urls "https://example.com/post" --extension-html capture.html`)
	}

	urls, invalid := common.SanitizeAndValidateURLs(convertCfg.URLs)
	if len(invalid) > 0 {
		common.UsageError("convert", fmt.Sprintf("%d URL(s) are malformed (even after cleanup): %s",
			len(invalid), strings.Join(invalid, ", ")))
	}
	convertCfg.URLs = urls

	if path := c.String("extension-html"); path != "" {
		if len(urls) > 1 {
			common.UsageError("convert", "--extension-html needs exactly one URL")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("failed to read extension html", "path", path, "error", err)
			os.Exit(2)
		}
		convertCfg.ExtensionHTML = string(data)
	}

	var rec pipeline.Recorder
	if cfg.Storage.HistoryEnabled {
		database, err := db.Open(cfg.Storage.DBPath)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(2)
		}
		defer database.Close()
		rec = database
	}

	if convertCfg.NoProbe {
		cfg.Probe.Enabled = false
	}
	p, closeProbe := pipeline.New(cfg, rec, logger)
	defer func() {
		if err := closeProbe(); err != nil {
			logger.Warn("failed to close probe browser", "error", err)
		}
	}()

	if dir := c.String("cache-dir"); dir != "" {
		maxAge, err := time.ParseDuration(c.String("max-age"))
		if err != nil {
			common.UsageError("convert", fmt.Sprintf("invalid --max-age: %v", err))
		}
		cache, err := caching.NewCache(dir, maxAge)
		if err != nil {
			logger.Error("failed to initialize fetch cache", "error", err)
			os.Exit(2)
		}
		p.Fetcher = &caching.Fetcher{Next: p.Fetcher, Cache: cache, Logger: logger}
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := &batch{
		logger:    logger,
		runner:    p,
		store:     &storage.Storage{Dir: convertCfg.OutputDir},
		analytics: &analytics.Analytics{},
		extHTML:   convertCfg.ExtensionHTML,
		now:       time.Now,
	}
	final := runBatch(ctx, b, convertCfg)
	if path, err := manifest.Save(final, b.store, b.now()); err != nil {
		logger.Warn("failed to save summary manifest", "error", err)
	} else {
		logger.Info("summary manifest saved", "path", path)
	}

	data, err := marshal(final, c.String("format"))
	if err != nil {
		logger.Error("failed to marshal final output", "error", err)
		os.Exit(2)
	}
	fmt.Println(string(data))

	if final.Stats.Failed == final.Stats.TotalURLs {
		os.Exit(2)
	}
	if final.Stats.Failed > 0 {
		os.Exit(1)
	}
	return nil
}

func marshal(v any, format string) ([]byte, error) {
	if strings.EqualFold(format, "json") {
		return json.MarshalIndent(v, "", "  ")
	}
	return yaml.Marshal(v)
}

// runBatch is the testable core of ConvertAction.
func runBatch(ctx context.Context, b *batch, cfg *models.ConvertConfig) manifest.SummaryManifest {
	start := b.now()
	results, wordCounts := b.run(ctx, cfg)
	return manifest.Generate(results, wordCounts, b.now().Sub(start), b.now())
}
