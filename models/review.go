// Package models defines data structures for the review scraper.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Review is a single customer review extracted from the target page.
type Review struct {
	ReviewerName string `csv:"reviewer_name" json:"reviewer_name"`
	Rating       int    `csv:"rating" json:"rating"`
	ReviewText   string `csv:"review_text" json:"review_text"`
	ReviewDate   string `csv:"review_date" json:"review_date"`
	Fingerprint  string `csv:"fingerprint" json:"fingerprint"`
}

// BusinessInfo identifies the place the reviews belong to.
type BusinessInfo struct {
	Name       string    `json:"name"`
	SourceURL  string    `json:"source_url"`
	CapturedAt time.Time `json:"captured_at"`
}

// ComputeFingerprint derives the identity hash of a review from its
// reviewer name, text and rating. Name and text are lower-cased and
// whitespace-collapsed first, so cosmetic differences between snapshots
// of the same review produce the same hash. Dates are excluded: the
// source rewrites relative dates ("2 weeks ago") between visits.
func ComputeFingerprint(name, text string, rating int) string {
	h := sha256.New()
	h.Write([]byte(normalizeForHash(name)))
	h.Write([]byte{'|'})
	h.Write([]byte(normalizeForHash(text)))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.Itoa(rating)))
	return hex.EncodeToString(h.Sum(nil))
}

func normalizeForHash(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
