package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// CSVWriter appends FrameStats rows to a CSV stream, writing the header once.
type CSVWriter struct {
	w             io.Writer
	closer        io.Closer
	headerWritten bool
}

// NewCSVWriter writes rows to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: w}
}

// CreateCSV creates (or truncates) path, creating parent directories.
// Returns nil if path is empty (output disabled).
func CreateCSV(path string) (*CSVWriter, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating telemetry directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	return &CSVWriter{w: f, closer: f}, nil
}

// Write appends one row. A nil writer discards it.
func (c *CSVWriter) Write(s FrameStats) error {
	if c == nil {
		return nil
	}
	records := []FrameStats{s}
	if !c.headerWritten {
		if err := gocsv.Marshal(records, c.w); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		c.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, c.w); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// Close closes the underlying file, if any.
func (c *CSVWriter) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
