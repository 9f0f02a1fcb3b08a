package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/aluiziolira/go-scrape-reviews/browser"
	"github.com/aluiziolira/go-scrape-reviews/config"
	"github.com/aluiziolira/go-scrape-reviews/extract"
	"github.com/aluiziolira/go-scrape-reviews/models"
	"github.com/aluiziolira/go-scrape-reviews/pipeline"
	"github.com/aluiziolira/go-scrape-reviews/scraper"
)

// urlList collects repeated -url flags.
type urlList []string

func (u *urlList) String() string {
	return strings.Join(*u, ",")
}

func (u *urlList) Set(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("url cannot be empty")
	}
	*u = append(*u, value)
	return nil
}

func main() {
	defaultCfg := config.DefaultConfig()

	var urls urlList
	flag.Var(&urls, "url", "Target business URL (repeatable)")
	configPath := flag.String("config", "", "Optional YAML config file")
	maxReviews := flag.Int("max-reviews", defaultCfg.MaxReviews, "Maximum reviews per session (1-500)")
	stallThreshold := flag.Int("stall-threshold", defaultCfg.StallThreshold, "No-growth steps before the reveal loop stalls")
	maxSteps := flag.Int("max-steps", defaultCfg.MaxRevealSteps, "Ceiling on reveal steps per session")
	poolSize := flag.Int("pool", defaultCfg.PoolSize, "Concurrent browser sessions")
	extractorName := flag.String("extractor", defaultCfg.Extractor, "Extraction backend: gemini or dom")
	model := flag.String("model", defaultCfg.Model, "Gemini model name")
	rateLimit := flag.Float64("rate", defaultCfg.RequestsPerSecond, "Page interactions per second")
	headless := flag.Bool("headless", defaultCfg.Headless, "Run the browser headless")
	browserBin := flag.String("browser-bin", "", "Browser binary path (empty resolves automatically)")
	outputDir := flag.String("output-dir", defaultCfg.OutputDir, "Directory for session documents")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: json, csv, or dual")
	metricsAddr := flag.String("metrics-addr", defaultCfg.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := config.DefaultConfig()
	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			slog.Error("loading config file", slog.Any("error", err))
			os.Exit(1)
		}
	}
	if err := applyEnv(cfg); err != nil {
		slog.Error("reading environment", slog.Any("error", err))
		os.Exit(1)
	}

	// Explicit flags win over the file and the environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "max-reviews":
			cfg.MaxReviews = *maxReviews
		case "stall-threshold":
			cfg.StallThreshold = *stallThreshold
		case "max-steps":
			cfg.MaxRevealSteps = *maxSteps
		case "pool":
			cfg.PoolSize = *poolSize
		case "extractor":
			cfg.Extractor = strings.ToLower(*extractorName)
		case "model":
			cfg.Model = *model
		case "rate":
			cfg.RequestsPerSecond = *rateLimit
		case "headless":
			cfg.Headless = *headless
		case "browser-bin":
			cfg.BrowserBin = *browserBin
		case "output-dir":
			cfg.OutputDir = *outputDir
		case "format":
			cfg.OutputFormat = strings.ToLower(*outputFormat)
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		case "v":
			cfg.Verbose = *verbose
		}
	})

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	targets := append([]string(nil), urls...)
	targets = append(targets, flag.Args()...)
	if len(targets) == 0 {
		fmt.Fprintln(os.Stderr, "usage: scraper -url <business url> [-url <business url> ...]")
		os.Exit(2)
	}

	slog.Info("starting scrape",
		slog.Int("targets", len(targets)),
		slog.Int("max_reviews", cfg.MaxReviews),
		slog.String("extractor", cfg.Extractor),
		slog.Int("pool", cfg.PoolSize),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing in-flight sessions")
	}()

	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestBurst)

	engine := browser.NewEngine(cfg, limiter, logger)
	if err := engine.Start(ctx); err != nil {
		slog.Error("starting browser", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			slog.Error("close browser", slog.Any("error", err))
		}
	}()

	extractor, err := createExtractor(ctx, cfg, limiter, logger)
	if err != nil {
		slog.Error("creating extractor", slog.Any("error", err))
		os.Exit(1)
	}

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputDir)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}

	s, err := scraper.New(cfg, browserSource{engine: engine}, extractor, writer, logger)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" && s.Metrics != nil {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	requests := make([]scraper.Request, 0, len(targets))
	for _, target := range targets {
		requests = append(requests, scraper.Request{TargetURL: target, MaxReviews: cfg.MaxReviews})
	}

	startTime := time.Now()
	sessions, runErr := s.RunMany(ctx, requests)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(sessions, time.Since(startTime), cfg.OutputDir)

	if runErr != nil {
		slog.Error("scraping failed", slog.Any("error", runErr))
		os.Exit(1)
	}
}

// applyEnv overlays environment settings onto the config. The API key is
// only ever read from the environment.
func applyEnv(cfg *config.Config) error {
	if value, ok, err := config.EnvInt("SCRAPER_MAX_REVIEWS"); err != nil {
		return err
	} else if ok {
		cfg.MaxReviews = value
	}
	if value, ok := config.EnvString("SCRAPER_OUTPUT_DIR"); ok {
		cfg.OutputDir = value
	}
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}
	if value, ok, err := config.EnvBool("SCRAPER_HEADLESS"); err != nil {
		return err
	} else if ok {
		cfg.Headless = value
	}
	if value, ok := config.EnvString("GEMINI_API_KEY"); ok {
		cfg.APIKey = value
	}
	return nil
}

// browserSource adapts the engine's concrete sessions to the scraper's
// Source interface.
type browserSource struct {
	engine *browser.Engine
}

func (b browserSource) OpenSession(ctx context.Context) (scraper.Session, error) {
	session, err := b.engine.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func createExtractor(ctx context.Context, cfg *config.Config, limiter *rate.Limiter, logger *slog.Logger) (scraper.Extractor, error) {
	switch cfg.Extractor {
	case "gemini":
		if cfg.APIKey == "" {
			slog.Warn("GEMINI_API_KEY not set, falling back to DOM extraction")
			return extract.NewDOM(logger), nil
		}
		return extract.NewGemini(ctx, cfg, limiter, logger, nil)
	case "dom":
		return extract.NewDOM(logger), nil
	default:
		return nil, fmt.Errorf("unsupported extractor: %s", cfg.Extractor)
	}
}

func createWriter(format, dir string) (pipeline.SessionWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(dir)
	case "csv":
		return pipeline.NewCSVWriter(dir)
	case "dual":
		return pipeline.NewDualWriter(dir)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(sessions []*models.Session, duration time.Duration, outputDir string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")

	totalReviews := 0
	for _, session := range sessions {
		if session == nil {
			continue
		}
		totalReviews += len(session.Reviews)
		fmt.Printf("  Session %s\n", session.ID)
		fmt.Printf("    Business:    %s\n", session.Business.Name)
		fmt.Printf("    Status:      %s\n", session.Status)
		if session.FailureReason != "" {
			fmt.Printf("    Reason:      %s\n", session.FailureReason)
		}
		fmt.Printf("    Reviews:     %d\n", len(session.Reviews))
		fmt.Printf("    Steps:       %d (snapshots %d, cached %d)\n",
			session.Stats.RevealSteps, session.Stats.Snapshots, session.Stats.SnapshotsCached)
		fmt.Printf("    Duplicates:  %d\n", session.Stats.Duplicates)
	}

	fmt.Printf("  Total reviews: %d\n", totalReviews)
	fmt.Printf("  Duration:      %v\n", duration)
	fmt.Printf("  Output dir:    %s\n", outputDir)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
