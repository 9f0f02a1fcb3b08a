// Package browser drives the headless browser behind narrow session
// handles: open, reveal step, capture, close.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/aluiziolira/go-scrape-reviews/config"
)

// Engine owns the browser process and a bounded pool of session slots.
// Every open session holds one slot until closed, so at most PoolSize
// sessions exist at a time regardless of how many runs are in flight.
type Engine struct {
	cfg     *config.Config
	logger  *slog.Logger
	limiter *rate.Limiter
	slots   *semaphore.Weighted

	mu         sync.Mutex
	browser    *rod.Browser
	launch     *launcher.Launcher
	controlURL string
}

// NewEngine prepares an engine; Start launches the actual process. The
// limiter paces navigation and reveal steps and may be shared with the
// extraction client.
func NewEngine(cfg *config.Config, limiter *rate.Limiter, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "browser")),
		limiter: limiter,
		slots:   semaphore.NewWeighted(int64(cfg.PoolSize)),
	}
}

// Start launches the browser with the automation fingerprint trimmed down
// and connects over DevTools. Calling Start on a running engine is a
// no-op.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.browser != nil {
		return nil
	}

	launch := launcher.New().
		Headless(e.cfg.Headless).
		NoSandbox(true).
		Set(flags.Flag("disable-blink-features"), "AutomationControlled").
		Set(flags.Flag("disable-infobars")).
		Set(flags.Flag("no-first-run")).
		Set(flags.Flag("no-default-browser-check")).
		Set(flags.Flag("disable-dev-shm-usage"))
	if e.cfg.BrowserBin != "" {
		launch = launch.Bin(e.cfg.BrowserBin)
	}

	controlURL, err := launch.Launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		launch.Cleanup()
		return fmt.Errorf("connect to browser: %w", err)
	}

	e.launch = launch
	e.browser = browser
	e.controlURL = controlURL
	e.logger.Debug("browser connected", slog.String("control_url", controlURL))
	return nil
}

// Close shuts the browser down and removes its temporary profile.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	if e.browser != nil {
		err = e.browser.Close()
		e.browser = nil
	}
	if e.launch != nil {
		e.launch.Cleanup()
		e.launch = nil
	}
	e.controlURL = ""
	return err
}

// OpenSession acquires a pool slot and prepares an isolated incognito
// page with a randomized identity. The session must be closed to release
// the slot.
func (e *Engine) OpenSession(ctx context.Context) (*Session, error) {
	if err := e.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	session, err := e.newSession(ctx)
	if err != nil {
		e.slots.Release(1)
		return nil, err
	}
	return session, nil
}

func (e *Engine) newSession(ctx context.Context) (*Session, error) {
	e.mu.Lock()
	browser := e.browser
	e.mu.Unlock()
	if browser == nil {
		return nil, fmt.Errorf("browser not started")
	}

	incognito, err := browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	if _, err := (proto.PageAddScriptToEvaluateOnNewDocument{Source: stealthInitScript}).Call(page); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("install init script: %w", err)
	}

	ua := pickUserAgent(e.cfg.UserAgent)
	if err := (proto.NetworkSetUserAgentOverride{UserAgent: ua}).Call(page); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("override user agent: %w", err)
	}

	width, height := randomViewport()
	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		e.logger.Warn("failed to set viewport", slog.Any("error", err))
	}

	return &Session{
		engine: e,
		page:   page,
		logger: e.logger,
	}, nil
}

// pickUserAgent returns the configured override or a random entry from
// the builtin pool.
func pickUserAgent(override string) string {
	if override != "" {
		return override
	}
	return userAgents[rand.Intn(len(userAgents))]
}

// randomViewport returns a plausible desktop window size. Fixed sizes are
// an automation tell.
func randomViewport() (width, height int) {
	return 1200 + rand.Intn(360), 800 + rand.Intn(220)
}
