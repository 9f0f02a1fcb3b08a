// Package scraper orchestrates review scraping sessions: it drives a
// browser session through the reveal loop, hands content snapshots to an
// extractor, deduplicates the results and persists the finished session
// document.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/aluiziolira/go-scrape-reviews/config"
	"github.com/aluiziolira/go-scrape-reviews/models"
	"github.com/aluiziolira/go-scrape-reviews/pipeline"
)

// Request describes one scraping task.
type Request struct {
	TargetURL  string
	MaxReviews int
}

// Session is the narrow surface the run loop needs from a live page.
type Session interface {
	Navigate(ctx context.Context, url string) error
	OpenReviews(ctx context.Context) bool
	BusinessName(ctx context.Context) string
	Reveal(ctx context.Context) (int, error)
	Capture(ctx context.Context) (*models.Snapshot, error)
	Close()
}

// Source opens isolated sessions, typically backed by a browser pool.
type Source interface {
	OpenSession(ctx context.Context) (Session, error)
}

// Extractor turns a content snapshot into structured reviews.
type Extractor interface {
	Extract(ctx context.Context, snapshot *models.Snapshot) ([]*models.Review, error)
}

// Scraper coordinates sessions, extraction and persistence.
type Scraper struct {
	cfg         *config.Config
	source      Source
	extractor   Extractor
	writer      pipeline.SessionWriter
	logger      *slog.Logger
	hostPattern *regexp.Regexp
	Metrics     *Metrics
}

// New builds a scraper from its collaborators. cfg is validated here so
// the run loop can trust it.
func New(cfg *config.Config, source Source, extractor Extractor, writer pipeline.SessionWriter, logger *slog.Logger) (*Scraper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if writer == nil {
		return nil, fmt.Errorf("writer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	hostPattern, err := regexp.Compile(cfg.SourceHostPattern)
	if err != nil {
		return nil, fmt.Errorf("compile source host pattern: %w", err)
	}

	return &Scraper{
		cfg:         cfg,
		source:      source,
		extractor:   extractor,
		writer:      writer,
		logger:      logger.With(slog.String("component", "scraper")),
		hostPattern: hostPattern,
		Metrics:     NewMetrics(),
	}, nil
}

// Run executes one scraping session end to end and persists its document.
// The finalized session is returned alongside the error so callers keep
// whatever was accumulated before a failure.
func (s *Scraper) Run(ctx context.Context, req Request) (*models.Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.validateRequest(req); err != nil {
		s.Metrics.IncError(errorTypeLabel(err))
		return nil, err
	}

	session := models.NewSession(req.TargetURL, req.MaxReviews)
	logger := s.logger.With(slog.String("session_id", session.ID))
	logger.Info("session started",
		slog.String("url", req.TargetURL),
		slog.Int("max_reviews", req.MaxReviews),
	)

	memo, err := lru.New[string, struct{}](s.cfg.SnapshotCacheSize)
	if err != nil {
		return nil, fmt.Errorf("snapshot cache: %w", err)
	}

	live, err := s.source.OpenSession(ctx)
	if err != nil {
		return s.fail(session, logger, ErrNavigation{Err: err})
	}
	defer live.Close()

	if err := live.Navigate(ctx, req.TargetURL); err != nil {
		return s.fail(session, logger, ErrNavigation{Err: err})
	}
	if !live.OpenReviews(ctx) {
		logger.Debug("review tab not found, using visible pane")
	}
	session.Business = models.BusinessInfo{
		Name:       live.BusinessName(ctx),
		SourceURL:  req.TargetURL,
		CapturedAt: time.Now().UTC(),
	}

	acc := pipeline.NewAccumulator(req.MaxReviews)
	tracker := newRevealTracker(s.cfg.StallThreshold, req.MaxReviews)

	status, reason, runErr := s.collect(ctx, live, session, acc, tracker, memo, logger)

	session.Reviews = acc.Reviews()
	session.Stats.Duplicates = acc.Duplicates()
	session.Finalize(status, reason)
	s.Metrics.IncSession(string(session.Status))

	if session.Status == models.StatusFailed {
		logger.Error("session failed", slog.String("reason", reason))
		return session, runErr
	}

	path, err := s.writer.Save(session)
	if err != nil {
		wrapped := ErrPersistence{Err: err}
		s.Metrics.IncError(errorTypeLabel(wrapped))
		logger.Error("session document not persisted", slog.Any("error", err))
		return session, wrapped
	}

	logger.Info("session finished",
		slog.String("status", string(session.Status)),
		slog.Int("reviews", len(session.Reviews)),
		slog.Int("reveal_steps", session.Stats.RevealSteps),
		slog.Int("duplicates", session.Stats.Duplicates),
		slog.String("path", path),
	)
	return session, nil
}

// RunMany executes requests concurrently. Each request gets its own
// session and document; the browser pool bounds actual parallelism. The
// first error cancels the remaining runs, which finalize as partial
// results.
func (s *Scraper) RunMany(ctx context.Context, requests []Request) ([]*models.Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	sessions := make([]*models.Session, len(requests))
	g, ctx := errgroup.WithContext(ctx)
	for i, req := range requests {
		g.Go(func() error {
			session, err := s.Run(ctx, req)
			sessions[i] = session
			return err
		})
	}
	err := g.Wait()
	return sessions, err
}

func (s *Scraper) validateRequest(req Request) error {
	if strings.TrimSpace(req.TargetURL) == "" {
		return ErrInvalidRequest{Err: fmt.Errorf("target url is required")}
	}
	if !s.hostPattern.MatchString(req.TargetURL) {
		return ErrInvalidRequest{Err: fmt.Errorf("target url %q is not a supported source", req.TargetURL)}
	}
	if req.MaxReviews < 1 || req.MaxReviews > config.MaxReviewsLimit {
		return ErrInvalidRequest{Err: fmt.Errorf("max reviews must be between 1 and %d, got %d", config.MaxReviewsLimit, req.MaxReviews)}
	}
	return nil
}

// collect runs the reveal loop until a terminal reveal state, the step
// ceiling, cancellation or an unrecoverable browser failure.
func (s *Scraper) collect(ctx context.Context, live Session, session *models.Session, acc *pipeline.Accumulator, tracker *revealTracker, memo *lru.Cache[string, struct{}], logger *slog.Logger) (models.Status, string, error) {
	for step := 1; step <= s.cfg.MaxRevealSteps; step++ {
		if ctx.Err() != nil {
			return models.StatusPartiallyCompleted, "canceled between reveal steps", nil
		}

		visible, err := live.Reveal(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return models.StatusPartiallyCompleted, "canceled between reveal steps", nil
			}
			return s.interrupted(acc, logger, "reveal step failed", err)
		}
		session.Stats.RevealSteps++
		s.Metrics.IncRevealStep()

		snapshot, err := s.captureWithRetry(ctx, live, session, logger)
		if err != nil {
			if ctx.Err() != nil {
				return models.StatusPartiallyCompleted, "canceled during capture", nil
			}
			return s.interrupted(acc, logger, "capture retries exhausted", err)
		}
		snapshot.Step = step
		session.Stats.Snapshots++
		s.Metrics.IncSnapshot()

		hash := snapshot.Hash()
		if _, seen := memo.Get(hash); seen {
			session.Stats.SnapshotsCached++
			s.Metrics.IncCacheHit()
			logger.Debug("snapshot unchanged, extraction skipped", slog.Int("step", step))
		} else {
			s.extractSnapshot(ctx, snapshot, session, acc, memo, logger)
			if ctx.Err() != nil {
				return models.StatusPartiallyCompleted, "canceled during extraction", nil
			}
		}

		state := tracker.Observe(visible, acc.Len())
		logger.Debug("reveal step",
			slog.Int("step", step),
			slog.Int("visible", visible),
			slog.Int("accumulated", acc.Len()),
			slog.String("state", state.String()),
		)
		if tracker.Done() {
			return models.StatusCompleted, "", nil
		}

		if err := s.pause(ctx); err != nil {
			return models.StatusPartiallyCompleted, "canceled between reveal steps", nil
		}
	}
	return models.StatusPartiallyCompleted, "reveal step ceiling reached", nil
}

func (s *Scraper) extractSnapshot(ctx context.Context, snapshot *models.Snapshot, session *models.Session, acc *pipeline.Accumulator, memo *lru.Cache[string, struct{}], logger *slog.Logger) {
	start := time.Now()
	reviews, err := s.extractor.Extract(ctx, snapshot)
	session.Stats.ExtractionCalls++
	s.Metrics.ObserveExtraction(time.Since(start))
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		session.Stats.ExtractionSkips++
		wrapped := ErrExtraction{Err: err}
		s.Metrics.IncError(errorTypeLabel(wrapped))
		logger.Warn("snapshot skipped",
			slog.Int("step", snapshot.Step),
			slog.Any("error", wrapped),
		)
		return
	}
	memo.Add(snapshot.Hash(), struct{}{})

	duplicatesBefore := acc.Duplicates()
	admitted := acc.Add(reviews)
	s.Metrics.AddReviews(admitted)
	s.Metrics.AddDuplicates(acc.Duplicates() - duplicatesBefore)
}

// captureWithRetry captures the review region, retrying transient
// failures with exponential backoff.
func (s *Scraper) captureWithRetry(ctx context.Context, live Session, session *models.Session, logger *slog.Logger) (*models.Snapshot, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			session.Stats.CaptureRetries++
			s.Metrics.IncRetries()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.backoff(attempt)):
			}
		}
		snapshot, err := live.Capture(ctx)
		if err == nil {
			return snapshot, nil
		}
		lastErr = err
		logger.Warn("snapshot capture failed",
			slog.Int("attempt", attempt+1),
			slog.Any("error", err),
		)
	}
	return nil, lastErr
}

func (s *Scraper) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := s.cfg.RetryBackoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := s.cfg.RetryBackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}

// interrupted classifies a mid-loop browser failure: with nothing
// accumulated the session failed outright, otherwise the work so far is
// kept as a partial result.
func (s *Scraper) interrupted(acc *pipeline.Accumulator, logger *slog.Logger, msg string, err error) (models.Status, string, error) {
	wrapped := ErrCapture{Err: err}
	s.Metrics.IncError(errorTypeLabel(wrapped))
	reason := fmt.Sprintf("%s: %v", msg, err)
	if acc.Len() == 0 {
		return models.StatusFailed, reason, wrapped
	}
	logger.Warn(msg+", keeping accumulated reviews", slog.Any("error", err))
	return models.StatusPartiallyCompleted, reason, nil
}

// pause sleeps a randomized delay between reveal steps so the cadence
// does not look mechanical.
func (s *Scraper) pause(ctx context.Context) error {
	delay := s.cfg.RevealDelayMin
	if span := s.cfg.RevealDelayMax - s.cfg.RevealDelayMin; span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}
	if delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func (s *Scraper) fail(session *models.Session, logger *slog.Logger, err error) (*models.Session, error) {
	session.Finalize(models.StatusFailed, err.Error())
	s.Metrics.IncSession(string(session.Status))
	s.Metrics.IncError(errorTypeLabel(err))
	logger.Error("session failed", slog.Any("error", err))
	return session, err
}
