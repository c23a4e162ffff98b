package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
)

// Recorder appends samples to a CSV stream. The header is written with the
// first record. A nil Recorder discards everything.
type Recorder struct {
	w             io.Writer
	closer        io.Closer
	runID         string
	headerWritten bool
}

// NewRecorder writes to w. An empty runID gets a random one.
func NewRecorder(w io.Writer, runID string) *Recorder {
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Recorder{w: w, runID: runID}
}

// CreateRecorder opens <dir>/<runID>.csv. Returns nil if dir is empty.
func CreateRecorder(dir string) (*Recorder, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating telemetry directory: %w", err)
	}
	runID := uuid.NewString()
	f, err := os.Create(filepath.Join(dir, runID+".csv"))
	if err != nil {
		return nil, fmt.Errorf("creating telemetry file: %w", err)
	}
	r := NewRecorder(f, runID)
	r.closer = f
	return r, nil
}

// RunID identifies the run in every record.
func (r *Recorder) RunID() string {
	if r == nil {
		return ""
	}
	return r.runID
}

// Record writes one sample.
func (r *Recorder) Record(s Sample) error {
	if r == nil {
		return nil
	}
	s.RunID = r.runID
	records := []Sample{s}

	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.w); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, r.w); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// Close closes the underlying file, if the recorder opened one.
func (r *Recorder) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
