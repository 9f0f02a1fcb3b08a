package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a scrape session.
type Status string

const (
	StatusRunning            Status = "running"
	StatusCompleted          Status = "completed"
	StatusPartiallyCompleted Status = "partially_completed"
	StatusFailed             Status = "failed"
)

// Session records one scraping run against a single target URL. Once a
// session is persisted it is never modified; scraping the same URL again
// opens a new session with its own ID and output document.
type Session struct {
	ID            string       `json:"session_id"`
	TargetURL     string       `json:"target_url"`
	MaxReviews    int          `json:"max_reviews"`
	StartedAt     time.Time    `json:"started_at"`
	FinishedAt    time.Time    `json:"finished_at"`
	Status        Status       `json:"status"`
	FailureReason string       `json:"failure_reason,omitempty"`
	Business      BusinessInfo `json:"business_info"`
	Reviews       []*Review    `json:"reviews"`
	Stats         RunStats     `json:"-"`
}

// NewSession opens a session in the running state.
func NewSession(targetURL string, maxReviews int) *Session {
	return &Session{
		ID:         uuid.NewString(),
		TargetURL:  targetURL,
		MaxReviews: maxReviews,
		StartedAt:  time.Now().UTC(),
		Status:     StatusRunning,
		Reviews:    []*Review{},
	}
}

// Finalize stamps the terminal status and finish time. The reason is kept
// only for non-completed outcomes.
func (s *Session) Finalize(status Status, reason string) {
	s.Status = status
	s.FinishedAt = time.Now().UTC()
	if status != StatusCompleted {
		s.FailureReason = reason
	}
}

// RunStats aggregates per-run counters for the exit summary. It is not
// part of the persisted document.
type RunStats struct {
	RevealSteps     int
	Snapshots       int
	SnapshotsCached int
	ExtractionCalls int
	ExtractionSkips int
	CaptureRetries  int
	Duplicates      int
}
