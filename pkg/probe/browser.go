package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dtnitsch/markdownizer/models"
	"github.com/dtnitsch/markdownizer/pkg/normalizer"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const DefaultTimeout = 30 * time.Second

// snapshotJS collects everything Analyze needs in one round trip.
const snapshotJS = `() => {
	const body = document.body;
	const overlays = Array.from(document.querySelectorAll('[class*="overlay"], [class*="modal"]'))
		.map(el => el.innerText || "")
		.filter(t => t.length > 0);
	return {
		html: document.documentElement.outerHTML,
		text: body ? body.innerText : "",
		overlayText: overlays.join(" "),
		loginForms: document.querySelectorAll('form[action*="login"]').length,
		passwordInputs: document.querySelectorAll('input[type="password"]').length,
		iframes: document.querySelectorAll('iframe').length,
	};
}`

type Options struct {
	Headless bool
	Timeout  time.Duration
	// RemoteURL connects to a running Chrome instead of launching one.
	RemoteURL string
	Logger    *slog.Logger
}

// Browser probes pages in a headless Chrome driven by rod, with stealth
// patches applied to every page. Chrome is launched on first use and shared;
// each probe gets its own page.
type Browser struct {
	opts Options

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

func NewBrowser(opts Options) *Browser {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Browser{opts: opts}
}

// Detect loads rawURL and analyzes it. Failures are reported in
// BlockerFlags.Error with every flag false.
func (b *Browser) Detect(ctx context.Context, rawURL string) models.BlockerFlags {
	ctx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer cancel()

	snap, err := b.snapshot(ctx, rawURL)
	if err != nil {
		b.opts.Logger.Warn("probe failed", "url", normalizer.RedactTokens(rawURL), "error", err)
		msg := fmt.Sprintf("Probe error: %v", err)
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "Page load timeout"
		}
		return models.BlockerFlags{Error: msg}
	}

	flags := Analyze(snap)
	b.opts.Logger.Debug("probe complete", "url", normalizer.RedactTokens(rawURL), "status", snap.Status, "flags", flags)
	return flags
}

func (b *Browser) snapshot(ctx context.Context, rawURL string) (Snapshot, error) {
	br, err := b.connect()
	if err != nil {
		return Snapshot{}, err
	}

	page, err := stealth.Page(br)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	var (
		statusMu sync.Mutex
		status   int
	)
	statusCtx, stopStatus := context.WithCancel(ctx)
	defer stopStatus()
	waitStatus := page.Context(statusCtx).EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		statusMu.Lock()
		status = e.Response.Status
		statusMu.Unlock()
		return true
	})
	statusDone := make(chan struct{})
	go func() {
		waitStatus()
		close(statusDone)
	}()

	if err := page.Context(ctx).Navigate(rawURL); err != nil {
		return Snapshot{}, fmt.Errorf("failed to navigate: %w", err)
	}
	if err := page.Context(ctx).WaitLoad(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to load page: %w", err)
	}

	select {
	case <-statusDone:
	case <-time.After(2 * time.Second):
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	stopStatus()

	res, err := page.Context(ctx).Eval(snapshotJS)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to snapshot page: %w", err)
	}
	var snap Snapshot
	if err := res.Value.Unmarshal(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	statusMu.Lock()
	snap.Status = status
	statusMu.Unlock()
	return snap, nil
}

// connect returns the shared browser, launching or dialing it on first use.
func (b *Browser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errors.New("probe browser is closed")
	}
	if b.browser != nil {
		return b.browser, nil
	}

	wsURL := b.opts.RemoteURL
	if wsURL == "" {
		l := launcher.New().
			Headless(b.opts.Headless).
			Set("disable-gpu").
			Set("no-sandbox").
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch chrome: %w", err)
		}
		wsURL = u
		b.lnch = l
		b.opts.Logger.Info("launched probe browser", "headless", b.opts.Headless)
	}

	br := rod.New().ControlURL(wsURL)
	if err := br.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to chrome: %w", err)
	}
	b.browser = br
	return br, nil
}

// Close shuts Chrome down. Detect fails after Close.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
	return err
}
