package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"querywatch/internal/domain"
)

// Compile-time check that JSONLSink implements domain.FindingSink.
var _ domain.FindingSink = (*JSONLSink)(nil)

// JSONLSink appends one JSON object per finding to a file. Runs with
// no findings append nothing.
type JSONLSink struct {
	path string
}

// NewJSONLSink creates a sink that appends to the file at path. The
// file is created on first delivery.
func NewJSONLSink(path string) *JSONLSink {
	return &JSONLSink{path: path}
}

// Name implements domain.FindingSink.
func (s *JSONLSink) Name() string { return "jsonl" }

// Deliver implements domain.FindingSink.
func (s *JSONLSink) Deliver(_ context.Context, run *domain.DetectionRun, findings []domain.AnomalyFinding) error {
	if len(findings) == 0 {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}

	enc := json.NewEncoder(f)
	for _, finding := range findings {
		if err := enc.Encode(newFindingRecord(run.ID, finding)); err != nil {
			f.Close() //nolint:errcheck
			return fmt.Errorf("append finding to %s: %w", s.path, err)
		}
	}
	return f.Close()
}
