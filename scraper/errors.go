package scraper

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidRequest indicates a request rejected before any browser
// session was opened.
type ErrInvalidRequest struct {
	Err error
}

func (e ErrInvalidRequest) Error() string {
	return fmt.Errorf("invalid request: %w", e.Err).Error()
}

func (e ErrInvalidRequest) Unwrap() error {
	return e.Err
}

// ErrNavigation indicates the target page could not be opened or never
// reached a usable state.
type ErrNavigation struct {
	Err error
}

func (e ErrNavigation) Error() string {
	return fmt.Errorf("navigation: %w", e.Err).Error()
}

func (e ErrNavigation) Unwrap() error {
	return e.Err
}

// ErrCapture indicates the review region could not be captured from the
// live page after retries were exhausted.
type ErrCapture struct {
	Err error
}

func (e ErrCapture) Error() string {
	return fmt.Errorf("capture: %w", e.Err).Error()
}

func (e ErrCapture) Unwrap() error {
	return e.Err
}

// ErrExtraction indicates a snapshot could not be turned into structured
// reviews. Extraction errors skip the snapshot rather than end the run.
type ErrExtraction struct {
	Err error
}

func (e ErrExtraction) Error() string {
	return fmt.Errorf("extraction: %w", e.Err).Error()
}

func (e ErrExtraction) Unwrap() error {
	return e.Err
}

// ErrPersistence indicates the finalized session document could not be
// written. It overrides an otherwise successful run.
type ErrPersistence struct {
	Err error
}

func (e ErrPersistence) Error() string {
	return fmt.Errorf("persistence: %w", e.Err).Error()
}

func (e ErrPersistence) Unwrap() error {
	return e.Err
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var invalid ErrInvalidRequest
	if errors.As(err, &invalid) {
		return "invalid_request"
	}
	var navigation ErrNavigation
	if errors.As(err, &navigation) {
		return "navigation"
	}
	var capture ErrCapture
	if errors.As(err, &capture) {
		return "capture"
	}
	var extraction ErrExtraction
	if errors.As(err, &extraction) {
		return "extraction"
	}
	var persistence ErrPersistence
	if errors.As(err, &persistence) {
		return "persistence"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "other"
}
