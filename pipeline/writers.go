package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aluiziolira/go-scrape-reviews/models"
)

// SessionWriter persists a finalized session as a new document. Save
// returns the path of the published artifact; documents are never
// rewritten, so saving twice produces two files.
type SessionWriter interface {
	Save(session *models.Session) (string, error)
	Validate(path string) error
}

// JSONWriter publishes one JSON document per session. The document is
// written to a temp file in the destination directory and renamed into
// place, so readers never observe a partial document.
type JSONWriter struct {
	dir string
}

// NewJSONWriter initialises the writer and its destination directory.
func NewJSONWriter(dir string) (*JSONWriter, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	return &JSONWriter{dir: dir}, nil
}

// Save marshals the session document and publishes it atomically.
func (jw *JSONWriter) Save(session *models.Session) (string, error) {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode session document: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(jw.dir, sessionFileName(session, "json"))
	if err := publish(jw.dir, path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Validate ensures the published artifact is complete, parseable JSON.
func (jw *JSONWriter) Validate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read session document: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("session document is empty")
	}
	if !json.Valid(data) {
		return fmt.Errorf("session document is not valid JSON")
	}
	return nil
}

// CSVWriter publishes one flat CSV table per session, one row per review.
type CSVWriter struct {
	dir string
}

// NewCSVWriter initialises the writer and its destination directory.
func NewCSVWriter(dir string) (*CSVWriter, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	return &CSVWriter{dir: dir}, nil
}

// Save renders the review table and publishes it atomically.
func (cw *CSVWriter) Save(session *models.Session) (string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"business_name", "reviewer_name", "rating", "review_text", "review_date", "fingerprint"}
	if err := writer.Write(header); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, review := range session.Reviews {
		record := []string{
			session.Business.Name,
			review.ReviewerName,
			strconv.Itoa(review.Rating),
			review.ReviewText,
			review.ReviewDate,
			review.Fingerprint,
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("write csv record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("flush csv records: %w", err)
	}

	path := filepath.Join(cw.dir, sessionFileName(session, "csv"))
	if err := publish(cw.dir, path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

// Validate ensures the published table has a header row.
func (cw *CSVWriter) Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

// publish writes data to a temp file in dir and renames it onto path.
func publish(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".reviews-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish document: %w", err)
	}
	return nil
}

// sessionFileName builds the unique per-session artifact name, e.g.
// reviews_20250301T101530_1b9d6bcd.json.
func sessionFileName(s *models.Session, ext string) string {
	id := s.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("reviews_%s_%s.%s", s.StartedAt.UTC().Format("20060102T150405"), id, ext)
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
