package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry              *prometheus.Registry
	SessionsTotal         *prometheus.CounterVec
	RevealStepsTotal      prometheus.Counter
	SnapshotsTotal        prometheus.Counter
	SnapshotCacheHits     prometheus.Counter
	ReviewsExtractedTotal prometheus.Counter
	DuplicatesTotal       prometheus.Counter
	RetriesTotal          prometheus.Counter
	ErrorsTotal           *prometheus.CounterVec
	ExtractionDuration    prometheus.Histogram
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	sessions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_sessions_total",
			Help: "Total scrape sessions by final status.",
		},
		[]string{"status"},
	)
	revealSteps := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_reveal_steps_total",
			Help: "Total reveal steps executed against live pages.",
		},
	)
	snapshots := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_snapshots_captured_total",
			Help: "Total content snapshots captured.",
		},
	)
	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_snapshot_cache_hits_total",
			Help: "Snapshots skipped because identical content was already extracted.",
		},
	)
	reviews := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_reviews_extracted_total",
			Help: "Total reviews admitted into sessions.",
		},
	)
	duplicates := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_duplicates_skipped_total",
			Help: "Total reviews dropped by fingerprint deduplication.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_retries_total",
			Help: "Total capture retry attempts scheduled.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total scraper errors by type.",
		},
		[]string{"error_type"},
	)
	extractionDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_extraction_duration_seconds",
			Help:    "Latency of turning one snapshot into structured reviews.",
			Buckets: prometheus.DefBuckets,
		},
	)

	registry.MustRegister(sessions, revealSteps, snapshots, cacheHits, reviews,
		duplicates, retries, errorsTotal, extractionDuration)

	return &Metrics{
		Registry:              registry,
		SessionsTotal:         sessions,
		RevealStepsTotal:      revealSteps,
		SnapshotsTotal:        snapshots,
		SnapshotCacheHits:     cacheHits,
		ReviewsExtractedTotal: reviews,
		DuplicatesTotal:       duplicates,
		RetriesTotal:          retries,
		ErrorsTotal:           errorsTotal,
		ExtractionDuration:    extractionDuration,
	}
}

// IncSession increments the sessions counter for a final status.
func (m *Metrics) IncSession(status string) {
	if m == nil {
		return
	}
	m.SessionsTotal.WithLabelValues(status).Inc()
}

// IncRevealStep increments the reveal steps counter.
func (m *Metrics) IncRevealStep() {
	if m == nil {
		return
	}
	m.RevealStepsTotal.Inc()
}

// IncSnapshot increments the snapshots captured counter.
func (m *Metrics) IncSnapshot() {
	if m == nil {
		return
	}
	m.SnapshotsTotal.Inc()
}

// IncCacheHit increments the snapshot cache hit counter.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.SnapshotCacheHits.Inc()
}

// AddReviews adds admitted reviews to the extraction counter.
func (m *Metrics) AddReviews(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ReviewsExtractedTotal.Add(float64(n))
}

// AddDuplicates adds fingerprint collisions to the duplicates counter.
func (m *Metrics) AddDuplicates(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DuplicatesTotal.Add(float64(n))
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// ObserveExtraction records the duration of one extraction call.
func (m *Metrics) ObserveExtraction(d time.Duration) {
	if m == nil {
		return
	}
	m.ExtractionDuration.Observe(d.Seconds())
}
