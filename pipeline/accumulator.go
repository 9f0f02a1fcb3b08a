// Package pipeline accumulates extracted reviews and persists finalized
// scrape sessions.
package pipeline

import (
	"github.com/aluiziolira/go-scrape-reviews/models"
)

// Merge combines two review lists into one, keeping the first occurrence
// of each fingerprint and preserving the order entities were first seen.
// It is deterministic and idempotent: merging the same batch twice yields
// the same result as merging it once.
func Merge(existing, incoming []*models.Review) []*models.Review {
	merged := make([]*models.Review, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, list := range [2][]*models.Review{existing, incoming} {
		for _, r := range list {
			if r == nil {
				continue
			}
			if _, dup := seen[r.Fingerprint]; dup {
				continue
			}
			seen[r.Fingerprint] = struct{}{}
			merged = append(merged, r)
		}
	}
	return merged
}

// Accumulator collects unique reviews for one session up to its cap.
// Entities beyond the cap are discarded whole. Each session owns its own
// accumulator; it is not safe for concurrent use.
type Accumulator struct {
	max        int
	seen       map[string]struct{}
	reviews    []*models.Review
	duplicates int
}

// NewAccumulator returns an accumulator capped at max entities. The
// review list starts non-nil so an empty session still serializes as an
// empty array.
func NewAccumulator(max int) *Accumulator {
	return &Accumulator{
		max:     max,
		seen:    make(map[string]struct{}),
		reviews: []*models.Review{},
	}
}

// Add merges a batch into the accumulated set and reports how many
// entities were admitted. Duplicates are counted and skipped; once the
// cap is reached the rest of the batch is discarded.
func (a *Accumulator) Add(batch []*models.Review) int {
	admitted := 0
	for _, r := range batch {
		if r == nil {
			continue
		}
		if _, dup := a.seen[r.Fingerprint]; dup {
			a.duplicates++
			continue
		}
		if len(a.reviews) >= a.max {
			break
		}
		a.seen[r.Fingerprint] = struct{}{}
		a.reviews = append(a.reviews, r)
		admitted++
	}
	return admitted
}

// Reviews returns the accumulated entities in first-seen order.
func (a *Accumulator) Reviews() []*models.Review {
	return a.reviews
}

// Len reports the number of unique entities accumulated so far.
func (a *Accumulator) Len() int {
	return len(a.reviews)
}

// Full reports whether the cap has been reached.
func (a *Accumulator) Full() bool {
	return len(a.reviews) >= a.max
}

// Duplicates reports how many incoming entities repeated an already
// accumulated fingerprint.
func (a *Accumulator) Duplicates() int {
	return a.duplicates
}
