package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"

	"github.com/aluiziolira/go-scrape-reviews/models"
)

// UnknownBusiness names the session subject when the page heading cannot
// be read.
const UnknownBusiness = "Unknown Business"

// Session is one isolated scraping surface: an incognito page plus the
// pool slot it occupies. Sessions are used by a single run at a time.
type Session struct {
	engine *Engine
	page   *rod.Page
	logger *slog.Logger
	once   sync.Once
}

// Navigate loads the target URL and confirms the page presents the
// expected content region. Navigation is paced by the shared limiter.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if s.engine.limiter != nil {
		if err := s.engine.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	timeout := s.engine.cfg.NavigationTimeout
	if err := s.page.Context(ctx).Timeout(timeout).Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := s.page.Context(ctx).Timeout(timeout).WaitLoad(); err != nil {
		s.logger.Debug("load event not observed", slog.Any("error", err))
	}
	if _, err := s.page.Context(ctx).Timeout(timeout).Element(`[role="main"]`); err != nil {
		return fmt.Errorf("content region missing after navigation: %w", err)
	}
	return nil
}

// OpenReviews brings the review pane forward. The tab control varies
// across page versions so every known shape is tried; returning false is
// not fatal, some layouts present reviews without a tab.
func (s *Session) OpenReviews(ctx context.Context) bool {
	clicked, err := s.evalBool(ctx, openReviewsTabJS)
	if err != nil {
		s.logger.Debug("reviews tab lookup failed", slog.Any("error", err))
		return false
	}
	return clicked
}

// BusinessName reads the place heading. A missing heading falls back to a
// placeholder so the session document always names its subject.
func (s *Session) BusinessName(ctx context.Context) string {
	name, err := s.evalString(ctx, businessNameJS)
	if err != nil || name == "" {
		return UnknownBusiness
	}
	return name
}

// Reveal performs one reveal cycle in the page: scroll the review
// containers to their current bottom, expand a few truncated entries,
// then count the visible reviews. The count is the max across the
// selector sets the target currently uses.
func (s *Session) Reveal(ctx context.Context) (int, error) {
	if s.engine.limiter != nil {
		if err := s.engine.limiter.Wait(ctx); err != nil {
			return 0, err
		}
	}

	res, err := s.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           revealStepJS,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return 0, fmt.Errorf("reveal step: %w", err)
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return 0, fmt.Errorf("read reveal result: %w", err)
	}
	var visible int
	if err := json.Unmarshal(raw, &visible); err != nil {
		return 0, fmt.Errorf("decode reveal result: %w", err)
	}
	return visible, nil
}

// Capture snapshots the review region's markup. The read is passive; it
// never mutates the DOM.
func (s *Session) Capture(ctx context.Context) (*models.Snapshot, error) {
	content, err := s.evalString(ctx, captureRegionJS)
	if err != nil {
		return nil, fmt.Errorf("capture review region: %w", err)
	}
	if content == "" {
		return nil, fmt.Errorf("review region not present")
	}
	return &models.Snapshot{
		Content:    content,
		CapturedAt: time.Now().UTC(),
	}, nil
}

// Close releases the page and its pool slot. Safe to call more than once
// and on every exit path.
func (s *Session) Close() {
	s.once.Do(func() {
		if err := s.page.Close(); err != nil {
			s.logger.Debug("page close failed", slog.Any("error", err))
		}
		s.engine.slots.Release(1)
	})
}

func (s *Session) evalString(ctx context.Context, js string) (string, error) {
	res, err := s.page.Context(ctx).Evaluate(&rod.EvalOptions{JS: js, ByValue: true})
	if err != nil {
		return "", err
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return "", err
	}
	var out string
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", err
	}
	return out, nil
}

func (s *Session) evalBool(ctx context.Context, js string) (bool, error) {
	res, err := s.page.Context(ctx).Evaluate(&rod.EvalOptions{JS: js, ByValue: true})
	if err != nil {
		return false, err
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return false, err
	}
	var out bool
	if err := json.Unmarshal(raw, &out); err != nil {
		return false, err
	}
	return out, nil
}
