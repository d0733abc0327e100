// Package serve runs the HTTP ingest service until interrupted.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dtnitsch/markdownizer/internal/common"
	"github.com/dtnitsch/markdownizer/internal/server"
	"github.com/dtnitsch/markdownizer/pkg/db"
	"github.com/dtnitsch/markdownizer/pkg/pipeline"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func ServeAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		common.UsageError("serve", err.Error())
	}
	if c.IsSet("host") {
		cfg.Server.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}
	if c.Bool("no-probe") {
		cfg.Probe.Enabled = false
	}

	var (
		rec  pipeline.Recorder
		hist server.History
	)
	if cfg.Storage.HistoryEnabled {
		database, err := db.Open(cfg.Storage.DBPath)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(2)
		}
		defer database.Close()
		logger.Info("ingest history enabled", "db_path", database.Path())
		rec, hist = database, database
	}

	p, closeProbe := pipeline.New(cfg, rec, logger)
	defer func() {
		if err := closeProbe(); err != nil {
			logger.Warn("failed to close probe browser", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           server.New(p, hist, logger, cfg.Server.RequestTimeout).Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, srv, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(2)
	}
	return nil
}

// Run serves until ctx is done, then shuts srv down gracefully.
func Run(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}
	return serve(ctx, srv, ln, logger)
}

func serve(ctx context.Context, srv *http.Server, ln net.Listener, logger *slog.Logger) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
