// Package parser validates and normalizes extracted review fields.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-reviews/models"
)

// DefaultReviewDate stands in when the source shows no date for a review.
const DefaultReviewDate = "Recent"

// Names the source substitutes for anonymous or deleted accounts. They
// carry no identity, so entities bearing them are discarded.
var placeholderNames = map[string]struct{}{
	"user":        {},
	"google user": {},
	"unknown":     {},
	"anonymous":   {},
}

var ratingDigits = regexp.MustCompile(`\d+`)

// ValidateReview ensures an extracted entity can become a stable record.
// Review text may legitimately be empty (rating-only reviews); a missing
// reviewer name or an out-of-scale rating cannot be repaired, so the
// entity is rejected rather than coerced.
func ValidateReview(r *models.Review) error {
	if r == nil {
		return fmt.Errorf("review is nil")
	}
	if !ValidReviewerName(r.ReviewerName) {
		return fmt.Errorf("review missing reviewer name")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("rating %d out of range for %s", r.Rating, r.ReviewerName)
	}
	return nil
}

// ValidReviewerName reports whether the name identifies a real reviewer.
func ValidReviewerName(name string) bool {
	name = strings.TrimSpace(name)
	if len(name) <= 1 {
		return false
	}
	_, placeholder := placeholderNames[strings.ToLower(name)]
	return !placeholder
}

// NormalizeReviewerName collapses runs of whitespace inside the name.
func NormalizeReviewerName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// NormalizeReviewText trims surrounding whitespace. Inner formatting is
// kept as extracted.
func NormalizeReviewText(text string) string {
	return strings.TrimSpace(text)
}

// NormalizeDate trims the date phrase and substitutes the default when the
// source showed none. Relative phrases ("2 weeks ago") are preserved
// verbatim rather than resolved against capture time.
func NormalizeDate(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return DefaultReviewDate
	}
	return date
}

// ParseStarRating extracts the numeric rating from a star-widget label
// such as "5 stars" or "Rated 4 out of 5". Returns 0 when no digits are
// present.
func ParseStarRating(label string) int {
	match := ratingDigits.FindString(label)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}
