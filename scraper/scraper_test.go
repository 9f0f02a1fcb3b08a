package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-reviews/config"
	"github.com/aluiziolira/go-scrape-reviews/models"
	"github.com/aluiziolira/go-scrape-reviews/pipeline"
)

const mapsURL = "https://www.google.com/maps/place/Blue+Bottle+Coffee"

// scriptStep is one reveal step of a scripted session: the visible count
// reported by the page and the content the capture returns. The last
// step repeats once the script runs out.
type scriptStep struct {
	visible int
	content string
}

type fakeSession struct {
	business   string
	navErr     error
	steps      []scriptStep
	revealErr  map[int]error
	captureErr map[int]error
	onReveal   func(call int)

	revealCalls  int
	captureCalls int
	closed       bool
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	return f.navErr
}

func (f *fakeSession) OpenReviews(ctx context.Context) bool {
	return true
}

func (f *fakeSession) BusinessName(ctx context.Context) string {
	if f.business == "" {
		return "Unknown Business"
	}
	return f.business
}

func (f *fakeSession) Reveal(ctx context.Context) (int, error) {
	f.revealCalls++
	if f.onReveal != nil {
		f.onReveal(f.revealCalls)
	}
	if err := f.revealErr[f.revealCalls]; err != nil {
		return 0, err
	}
	return f.step(f.revealCalls).visible, nil
}

func (f *fakeSession) Capture(ctx context.Context) (*models.Snapshot, error) {
	f.captureCalls++
	if err := f.captureErr[f.captureCalls]; err != nil {
		return nil, err
	}
	return &models.Snapshot{
		Content:    f.step(f.revealCalls).content,
		CapturedAt: time.Now().UTC(),
	}, nil
}

func (f *fakeSession) Close() {
	f.closed = true
}

func (f *fakeSession) step(n int) scriptStep {
	if len(f.steps) == 0 {
		return scriptStep{}
	}
	if n > len(f.steps) {
		return f.steps[len(f.steps)-1]
	}
	return f.steps[n-1]
}

type fakeSource struct {
	mu       sync.Mutex
	sessions []*fakeSession
	openErr  error
	opened   int
}

func (f *fakeSource) OpenSession(ctx context.Context) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	if f.opened >= len(f.sessions) {
		return nil, errors.New("no scripted session left")
	}
	session := f.sessions[f.opened]
	f.opened++
	return session, nil
}

func (f *fakeSource) openedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}

type scriptedExtractor struct {
	mu        sync.Mutex
	byContent map[string][]*models.Review
	errFor    map[string]error
	calls     int
}

func (e *scriptedExtractor) Extract(ctx context.Context, snapshot *models.Snapshot) ([]*models.Review, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if err := e.errFor[snapshot.Content]; err != nil {
		return nil, err
	}
	return e.byContent[snapshot.Content], nil
}

func (e *scriptedExtractor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type memoryWriter struct {
	mu      sync.Mutex
	saved   []*models.Session
	saveErr error
}

func (w *memoryWriter) Save(session *models.Session) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.saveErr != nil {
		return "", w.saveErr
	}
	w.saved = append(w.saved, session)
	return fmt.Sprintf("memory://%s.json", session.ID), nil
}

func (w *memoryWriter) Validate(path string) error {
	return nil
}

func (w *memoryWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.saved)
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.StallThreshold = 2
	cfg.MaxRevealSteps = 20
	cfg.RevealDelayMin = time.Millisecond
	cfg.RevealDelayMax = 2 * time.Millisecond
	cfg.RetryBackoff = time.Millisecond
	cfg.RetryBackoffMax = 2 * time.Millisecond
	return cfg
}

func testReview(name, text string, rating int) *models.Review {
	return &models.Review{
		ReviewerName: name,
		Rating:       rating,
		ReviewText:   text,
		ReviewDate:   "Recent",
		Fingerprint:  models.ComputeFingerprint(name, text, rating),
	}
}

func newTestScraper(t *testing.T, cfg *config.Config, source Source, extractor Extractor, writer pipeline.SessionWriter) *Scraper {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(cfg, source, extractor, writer, logger)
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	return s
}

func TestRunCompletesOnExhaustion(t *testing.T) {
	session := &fakeSession{
		business: "Blue Bottle Coffee",
		steps:    []scriptStep{{visible: 3, content: "pane-a"}},
	}
	source := &fakeSource{sessions: []*fakeSession{session}}
	extractor := &scriptedExtractor{byContent: map[string][]*models.Review{
		"pane-a": {
			testReview("Alice", "Great espresso.", 5),
			testReview("Bob", "", 3),
			testReview("Carol", "Long queue.", 4),
		},
	}}
	writer := &memoryWriter{}

	s := newTestScraper(t, testConfig(), source, extractor, writer)

	got, err := s.Run(context.Background(), Request{TargetURL: mapsURL, MaxReviews: 10})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Fatalf("status = %q, want %q", got.Status, models.StatusCompleted)
	}
	if got.FailureReason != "" {
		t.Fatalf("failure reason should be empty, got %q", got.FailureReason)
	}
	if len(got.Reviews) != 3 {
		t.Fatalf("reviews = %d, want 3", len(got.Reviews))
	}
	if got.Business.Name != "Blue Bottle Coffee" {
		t.Fatalf("business = %q, want scripted name", got.Business.Name)
	}
	if got.Business.SourceURL != mapsURL {
		t.Fatalf("source url = %q, want %q", got.Business.SourceURL, mapsURL)
	}

	// Threshold 2 stalls on the third no-growth step, one more confirms.
	if got.Stats.RevealSteps != 4 {
		t.Fatalf("reveal steps = %d, want 4", got.Stats.RevealSteps)
	}
	if got.Stats.Snapshots != 4 {
		t.Fatalf("snapshots = %d, want 4", got.Stats.Snapshots)
	}
	if got.Stats.ExtractionCalls != 1 {
		t.Fatalf("extraction calls = %d, want 1 (identical content is memoized)", got.Stats.ExtractionCalls)
	}
	if got.Stats.SnapshotsCached != 3 {
		t.Fatalf("cached snapshots = %d, want 3", got.Stats.SnapshotsCached)
	}

	if writer.count() != 1 {
		t.Fatalf("persisted documents = %d, want 1", writer.count())
	}
	if !session.closed {
		t.Fatalf("session should be closed after the run")
	}
}

func TestRunStopsAtCap(t *testing.T) {
	session := &fakeSession{steps: []scriptStep{{visible: 3, content: "pane-a"}}}
	source := &fakeSource{sessions: []*fakeSession{session}}
	extractor := &scriptedExtractor{byContent: map[string][]*models.Review{
		"pane-a": {
			testReview("Alice", "Great espresso.", 5),
			testReview("Bob", "", 3),
			testReview("Carol", "Long queue.", 4),
		},
	}}
	writer := &memoryWriter{}

	s := newTestScraper(t, testConfig(), source, extractor, writer)

	got, err := s.Run(context.Background(), Request{TargetURL: mapsURL, MaxReviews: 2})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Fatalf("status = %q, want %q", got.Status, models.StatusCompleted)
	}
	if len(got.Reviews) != 2 {
		t.Fatalf("reviews = %d, want 2 (cap)", len(got.Reviews))
	}
	if got.Reviews[0].ReviewerName != "Alice" || got.Reviews[1].ReviewerName != "Bob" {
		t.Fatalf("cap should keep first-seen order, got %q then %q",
			got.Reviews[0].ReviewerName, got.Reviews[1].ReviewerName)
	}
	if got.Stats.RevealSteps != 1 {
		t.Fatalf("reveal steps = %d, want 1 (cap ends the loop)", got.Stats.RevealSteps)
	}
}

func TestRunDeduplicatesAcrossSnapshots(t *testing.T) {
	alice := testReview("Alice", "Great espresso.", 5)
	bob := testReview("Bob", "", 3)
	carol := testReview("Carol", "Long queue.", 4)

	session := &fakeSession{steps: []scriptStep{
		{visible: 2, content: "pane-a"},
		{visible: 3, content: "pane-b"},
		{visible: 3, content: "pane-b"},
		{visible: 3, content: "pane-b"},
		{visible: 3, content: "pane-b"},
	}}
	source := &fakeSource{sessions: []*fakeSession{session}}
	extractor := &scriptedExtractor{byContent: map[string][]*models.Review{
		"pane-a": {alice, bob},
		"pane-b": {alice, bob, carol},
	}}
	writer := &memoryWriter{}

	s := newTestScraper(t, testConfig(), source, extractor, writer)

	got, err := s.Run(context.Background(), Request{TargetURL: mapsURL, MaxReviews: 10})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(got.Reviews) != 3 {
		t.Fatalf("reviews = %d, want 3 unique", len(got.Reviews))
	}
	if got.Stats.Duplicates != 2 {
		t.Fatalf("duplicates = %d, want 2", got.Stats.Duplicates)
	}
	if got.Stats.ExtractionCalls != 2 {
		t.Fatalf("extraction calls = %d, want 2", got.Stats.ExtractionCalls)
	}
	seen := make(map[string]bool, len(got.Reviews))
	for _, review := range got.Reviews {
		if seen[review.Fingerprint] {
			t.Fatalf("duplicate fingerprint %q persisted", review.Fingerprint)
		}
		seen[review.Fingerprint] = true
	}
}

func TestRunRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{name: "empty url", req: Request{TargetURL: "", MaxReviews: 10}},
		{name: "unsupported host", req: Request{TargetURL: "https://example.com/shop", MaxReviews: 10}},
		{name: "zero cap", req: Request{TargetURL: mapsURL, MaxReviews: 0}},
		{name: "cap above limit", req: Request{TargetURL: mapsURL, MaxReviews: config.MaxReviewsLimit + 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{sessions: []*fakeSession{{}}}
			s := newTestScraper(t, testConfig(), source, &scriptedExtractor{}, &memoryWriter{})

			got, err := s.Run(context.Background(), tt.req)
			if got != nil {
				t.Fatalf("session should be nil for a rejected request")
			}
			var invalid ErrInvalidRequest
			if !errors.As(err, &invalid) {
				t.Fatalf("error = %v, want ErrInvalidRequest", err)
			}
			if source.openedCount() != 0 {
				t.Fatalf("no session should be opened for a rejected request")
			}
		})
	}
}

func TestRunNavigationFailure(t *testing.T) {
	session := &fakeSession{navErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	source := &fakeSource{sessions: []*fakeSession{session}}
	writer := &memoryWriter{}

	s := newTestScraper(t, testConfig(), source, &scriptedExtractor{}, writer)

	got, err := s.Run(context.Background(), Request{TargetURL: mapsURL, MaxReviews: 10})
	var navErr ErrNavigation
	if !errors.As(err, &navErr) {
		t.Fatalf("error = %v, want ErrNavigation", err)
	}
	if got == nil {
		t.Fatalf("failed runs still return the session")
	}
	if got.Status != models.StatusFailed {
		t.Fatalf("status = %q, want %q", got.Status, models.StatusFailed)
	}
	if got.FailureReason == "" {
		t.Fatalf("failure reason should be recorded")
	}
	if writer.count() != 0 {
		t.Fatalf("failed sessions should not be persisted")
	}
	if !session.closed {
		t.Fatalf("session should be closed after a navigation failure")
	}
}

func TestRunCancelKeepsPartialWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := &fakeSession{steps: []scriptStep{{visible: 2, content: "pane-a"}}}
	session.onReveal = func(call int) {
		if call == 2 {
			cancel()
		}
	}
	source := &fakeSource{sessions: []*fakeSession{session}}
	extractor := &scriptedExtractor{byContent: map[string][]*models.Review{
		"pane-a": {
			testReview("Alice", "Great espresso.", 5),
			testReview("Bob", "", 3),
		},
	}}
	writer := &memoryWriter{}

	s := newTestScraper(t, testConfig(), source, extractor, writer)

	got, err := s.Run(ctx, Request{TargetURL: mapsURL, MaxReviews: 10})
	if err != nil {
		t.Fatalf("canceled runs keep their partial result, got error %v", err)
	}
	if got.Status != models.StatusPartiallyCompleted {
		t.Fatalf("status = %q, want %q", got.Status, models.StatusPartiallyCompleted)
	}
	if len(got.Reviews) != 2 {
		t.Fatalf("reviews = %d, want 2 accumulated before cancel", len(got.Reviews))
	}
	if got.FailureReason == "" {
		t.Fatalf("partial sessions record why they stopped")
	}
	if writer.count() != 1 {
		t.Fatalf("partial sessions are persisted, saved = %d", writer.count())
	}
}

func TestRunCaptureFailureKeepsPartialResult(t *testing.T) {
	captureErr := errors.New("review region not present")
	session := &fakeSession{
		steps: []scriptStep{{visible: 2, content: "pane-a"}},
		captureErr: map[int]error{
			2: captureErr,
			3: captureErr,
			4: captureErr,
		},
	}
	source := &fakeSource{sessions: []*fakeSession{session}}
	extractor := &scriptedExtractor{byContent: map[string][]*models.Review{
		"pane-a": {
			testReview("Alice", "Great espresso.", 5),
			testReview("Bob", "", 3),
		},
	}}
	writer := &memoryWriter{}

	s := newTestScraper(t, testConfig(), source, extractor, writer)

	got, err := s.Run(context.Background(), Request{TargetURL: mapsURL, MaxReviews: 10})
	if err != nil {
		t.Fatalf("partial results do not surface the capture error, got %v", err)
	}
	if got.Status != models.StatusPartiallyCompleted {
		t.Fatalf("status = %q, want %q", got.Status, models.StatusPartiallyCompleted)
	}
	if len(got.Reviews) != 2 {
		t.Fatalf("reviews = %d, want 2 from the first snapshot", len(got.Reviews))
	}
	if got.Stats.CaptureRetries != 2 {
		t.Fatalf("capture retries = %d, want 2", got.Stats.CaptureRetries)
	}
	if writer.count() != 1 {
		t.Fatalf("partial sessions are persisted, saved = %d", writer.count())
	}
}

func TestRunCaptureFailureWithoutProgressFails(t *testing.T) {
	captureErr := errors.New("review region not present")
	session := &fakeSession{
		steps: []scriptStep{{visible: 2, content: "pane-a"}},
		captureErr: map[int]error{
			1: captureErr,
			2: captureErr,
			3: captureErr,
		},
	}
	source := &fakeSource{sessions: []*fakeSession{session}}
	writer := &memoryWriter{}

	s := newTestScraper(t, testConfig(), source, &scriptedExtractor{}, writer)

	got, err := s.Run(context.Background(), Request{TargetURL: mapsURL, MaxReviews: 10})
	var capture ErrCapture
	if !errors.As(err, &capture) {
		t.Fatalf("error = %v, want ErrCapture", err)
	}
	if got.Status != models.StatusFailed {
		t.Fatalf("status = %q, want %q", got.Status, models.StatusFailed)
	}
	if writer.count() != 0 {
		t.Fatalf("failed sessions should not be persisted")
	}
}

func TestRunExtractionErrorSkipsSnapshot(t *testing.T) {
	session := &fakeSession{steps: []scriptStep{
		{visible: 1, content: "pane-a"},
		{visible: 2, content: "pane-b"},
		{visible: 2, content: "pane-a"},
		{visible: 2, content: "pane-a"},
		{visible: 2, content: "pane-a"},
	}}
	source := &fakeSource{sessions: []*fakeSession{session}}
	extractor := &scriptedExtractor{
		byContent: map[string][]*models.Review{
			"pane-a": {testReview("Alice", "Great espresso.", 5)},
		},
		errFor: map[string]error{
			"pane-b": errors.New("response is not valid json"),
		},
	}
	writer := &memoryWriter{}

	s := newTestScraper(t, testConfig(), source, extractor, writer)

	got, err := s.Run(context.Background(), Request{TargetURL: mapsURL, MaxReviews: 10})
	if err != nil {
		t.Fatalf("extraction errors skip the snapshot, got run error %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Fatalf("status = %q, want %q", got.Status, models.StatusCompleted)
	}
	if len(got.Reviews) != 1 {
		t.Fatalf("reviews = %d, want 1", len(got.Reviews))
	}
	if got.Stats.ExtractionSkips != 1 {
		t.Fatalf("extraction skips = %d, want 1", got.Stats.ExtractionSkips)
	}
	// The failed snapshot is not memoized, only the successful one is.
	if got.Stats.SnapshotsCached != 3 {
		t.Fatalf("cached snapshots = %d, want 3", got.Stats.SnapshotsCached)
	}
}

func TestRunPersistenceFailureOverridesSuccess(t *testing.T) {
	session := &fakeSession{steps: []scriptStep{{visible: 1, content: "pane-a"}}}
	source := &fakeSource{sessions: []*fakeSession{session}}
	extractor := &scriptedExtractor{byContent: map[string][]*models.Review{
		"pane-a": {testReview("Alice", "Great espresso.", 5)},
	}}
	writer := &memoryWriter{saveErr: errors.New("disk full")}

	s := newTestScraper(t, testConfig(), source, extractor, writer)

	got, err := s.Run(context.Background(), Request{TargetURL: mapsURL, MaxReviews: 1})
	var persistence ErrPersistence
	if !errors.As(err, &persistence) {
		t.Fatalf("error = %v, want ErrPersistence", err)
	}
	if got.Status != models.StatusCompleted {
		t.Fatalf("status = %q, want %q (extraction itself finished)", got.Status, models.StatusCompleted)
	}
	if writer.count() != 0 {
		t.Fatalf("nothing should be recorded as persisted")
	}
}

func TestRunStopsAtStepCeiling(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRevealSteps = 3

	session := &fakeSession{steps: []scriptStep{
		{visible: 1, content: "pane-1"},
		{visible: 2, content: "pane-2"},
		{visible: 3, content: "pane-3"},
		{visible: 4, content: "pane-4"},
	}}
	source := &fakeSource{sessions: []*fakeSession{session}}
	extractor := &scriptedExtractor{byContent: map[string][]*models.Review{
		"pane-1": {testReview("Alice", "Great espresso.", 5)},
		"pane-2": {testReview("Bob", "", 3)},
		"pane-3": {testReview("Carol", "Long queue.", 4)},
	}}
	writer := &memoryWriter{}

	s := newTestScraper(t, cfg, source, extractor, writer)

	got, err := s.Run(context.Background(), Request{TargetURL: mapsURL, MaxReviews: 100})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got.Status != models.StatusPartiallyCompleted {
		t.Fatalf("status = %q, want %q (ceiling is neither cap nor exhaustion)", got.Status, models.StatusPartiallyCompleted)
	}
	if got.Stats.RevealSteps != 3 {
		t.Fatalf("reveal steps = %d, want 3", got.Stats.RevealSteps)
	}
	if len(got.Reviews) != 3 {
		t.Fatalf("reviews = %d, want 3", len(got.Reviews))
	}
	if writer.count() != 1 {
		t.Fatalf("ceiling-stopped sessions are persisted, saved = %d", writer.count())
	}
}

func TestRunManyIndependentSessions(t *testing.T) {
	sessions := []*fakeSession{
		{steps: []scriptStep{{visible: 1, content: "pane-shared"}}},
		{steps: []scriptStep{{visible: 1, content: "pane-shared"}}},
	}
	source := &fakeSource{sessions: sessions}
	extractor := &scriptedExtractor{byContent: map[string][]*models.Review{
		"pane-shared": {testReview("Alice", "Great espresso.", 5)},
	}}
	writer := &memoryWriter{}

	s := newTestScraper(t, testConfig(), source, extractor, writer)

	requests := []Request{
		{TargetURL: mapsURL, MaxReviews: 1},
		{TargetURL: mapsURL + "+Roastery", MaxReviews: 1},
	}
	got, err := s.RunMany(context.Background(), requests)
	if err != nil {
		t.Fatalf("run many: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("sessions = %d, want 2", len(got))
	}
	ids := make(map[string]bool, len(got))
	for i, session := range got {
		if session == nil {
			t.Fatalf("session %d is nil", i)
		}
		if session.Status != models.StatusCompleted {
			t.Fatalf("session %d status = %q, want %q", i, session.Status, models.StatusCompleted)
		}
		if session.TargetURL != requests[i].TargetURL {
			t.Fatalf("session %d url = %q, want %q", i, session.TargetURL, requests[i].TargetURL)
		}
		if ids[session.ID] {
			t.Fatalf("session ids must be unique")
		}
		ids[session.ID] = true
	}
	if writer.count() != 2 {
		t.Fatalf("persisted documents = %d, want 2", writer.count())
	}
}

func TestNewValidatesCollaborators(t *testing.T) {
	cfg := testConfig()
	source := &fakeSource{}
	extractor := &scriptedExtractor{}
	writer := &memoryWriter{}

	if _, err := New(cfg, nil, extractor, writer, nil); err == nil {
		t.Fatalf("expected error for missing source")
	}
	if _, err := New(cfg, source, nil, writer, nil); err == nil {
		t.Fatalf("expected error for missing extractor")
	}
	if _, err := New(cfg, source, extractor, nil, nil); err == nil {
		t.Fatalf("expected error for missing writer")
	}

	bad := testConfig()
	bad.SourceHostPattern = "("
	if _, err := New(bad, source, extractor, writer, nil); err == nil {
		t.Fatalf("expected error for an invalid host pattern")
	}
}

func TestBackoffCapped(t *testing.T) {
	cfg := testConfig()
	cfg.RetryBackoff = 200 * time.Millisecond
	cfg.RetryBackoffMax = 500 * time.Millisecond

	s := newTestScraper(t, cfg, &fakeSource{}, &scriptedExtractor{}, &memoryWriter{})

	if delay := s.backoff(4); delay > cfg.RetryBackoffMax {
		t.Fatalf("delay %v exceeds max %v", delay, cfg.RetryBackoffMax)
	}
	if delay := s.backoff(1); delay != cfg.RetryBackoff {
		t.Fatalf("first retry delay = %v, want base %v", delay, cfg.RetryBackoff)
	}
	if delay := s.backoff(2); delay != 2*cfg.RetryBackoff {
		t.Fatalf("second retry delay = %v, want doubled base", delay)
	}
}

func TestErrorTypeLabel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil", err: nil, expected: "unknown"},
		{name: "invalid request", err: ErrInvalidRequest{Err: errors.New("bad url")}, expected: "invalid_request"},
		{name: "navigation", err: ErrNavigation{Err: errors.New("dns")}, expected: "navigation"},
		{name: "capture", err: ErrCapture{Err: errors.New("region gone")}, expected: "capture"},
		{name: "extraction", err: ErrExtraction{Err: errors.New("bad json")}, expected: "extraction"},
		{name: "persistence", err: ErrPersistence{Err: errors.New("disk full")}, expected: "persistence"},
		{name: "wrapped capture", err: fmt.Errorf("step 3: %w", ErrCapture{Err: errors.New("gone")}), expected: "capture"},
		{name: "deadline", err: context.DeadlineExceeded, expected: "timeout"},
		{name: "canceled", err: context.Canceled, expected: "canceled"},
		{name: "other", err: errors.New("some other error"), expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorTypeLabel(tt.err); got != tt.expected {
				t.Fatalf("errorTypeLabel(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}
