package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// StepRecord is one row of the telemetry CSV.
type StepRecord struct {
	Step        int     `csv:"step"`
	Order       float64 `csv:"order"`
	MeanHeading float64 `csv:"mean_heading"`
	ElapsedNs   int64   `csv:"elapsed_ns"`
}

// Recorder appends StepRecords to a CSV stream. A nil *Recorder is valid and
// records nothing, so callers need not check whether telemetry is enabled.
type Recorder struct {
	out           io.Writer
	closer        io.Closer
	headerWritten bool
	count         int
}

// NewRecorder creates path and returns a recorder writing to it.
// Returns nil if path is empty (telemetry disabled).
func NewRecorder(path string) (*Recorder, error) {
	if path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating telemetry directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return &Recorder{out: f, closer: f}, nil
}

// NewRecorderTo returns a recorder writing to w. The caller keeps ownership of w.
func NewRecorderTo(w io.Writer) *Recorder {
	return &Recorder{out: w}
}

// Write appends one record. The first write includes the header line.
func (r *Recorder) Write(rec StepRecord) error {
	if r == nil {
		return nil
	}

	records := []StepRecord{rec}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.out); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		r.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, r.out); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
	}
	r.count++
	return nil
}

// Count returns the number of records written.
func (r *Recorder) Count() int {
	if r == nil {
		return 0
	}
	return r.count
}

// Close closes the underlying file, if the recorder opened one.
func (r *Recorder) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
