package pipeline

import (
	"fmt"
	"strings"

	"github.com/aluiziolira/go-scrape-reviews/models"
)

// DualWriter publishes every session in both JSON and CSV formats. The
// JSON document is the primary artifact; its path is the one returned.
type DualWriter struct {
	jsonWriter *JSONWriter
	csvWriter  *CSVWriter
}

// NewDualWriter creates a writer pair sharing one destination directory.
func NewDualWriter(dir string) (*DualWriter, error) {
	jsonWriter, err := NewJSONWriter(dir)
	if err != nil {
		return nil, fmt.Errorf("create JSON writer: %w", err)
	}
	csvWriter, err := NewCSVWriter(dir)
	if err != nil {
		return nil, fmt.Errorf("create CSV writer: %w", err)
	}
	return &DualWriter{
		jsonWriter: jsonWriter,
		csvWriter:  csvWriter,
	}, nil
}

// Save publishes both artifacts and returns the JSON document path.
func (dw *DualWriter) Save(session *models.Session) (string, error) {
	path, err := dw.jsonWriter.Save(session)
	if err != nil {
		return "", fmt.Errorf("JSON save failed: %w", err)
	}
	if _, err := dw.csvWriter.Save(session); err != nil {
		return "", fmt.Errorf("CSV save failed: %w", err)
	}
	return path, nil
}

// Validate checks both artifacts. The CSV path is derived from the JSON
// path; the two always share a base name.
func (dw *DualWriter) Validate(path string) error {
	var errs []error

	if err := dw.jsonWriter.Validate(path); err != nil {
		errs = append(errs, fmt.Errorf("JSON validation failed: %w", err))
	}
	csvPath := strings.TrimSuffix(path, ".json") + ".csv"
	if err := dw.csvWriter.Validate(csvPath); err != nil {
		errs = append(errs, fmt.Errorf("CSV validation failed: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors: %v", errs)
	}
	return nil
}
