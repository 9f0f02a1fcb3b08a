package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Snapshot is one capture of the review region's rendered HTML.
type Snapshot struct {
	Content    string
	Step       int
	CapturedAt time.Time
}

// Hash digests the snapshot content. Two reveal steps that expose no new
// reviews produce identical content and therefore identical hashes, which
// lets the run loop skip re-extracting them.
func (s *Snapshot) Hash() string {
	sum := sha256.Sum256([]byte(s.Content))
	return hex.EncodeToString(sum[:])
}
