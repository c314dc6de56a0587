package bench

import (
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/ajitpratap0/lockfreepool/pkg/config"
	"github.com/ajitpratap0/lockfreepool/pkg/errors"
)

// Result is the outcome of one variant/scenario pair summed over rounds.
type Result struct {
	Variant  string        `json:"variant"`
	Scenario string        `json:"scenario"`
	Workers  int           `json:"workers"`
	Rounds   int           `json:"rounds"`
	Ops      int           `json:"ops"`
	Duration time.Duration `json:"duration_ns"`

	// NsPerOp is Duration / Ops
	NsPerOp float64 `json:"ns_per_op"`
	// BestNsPerOp and MedianNsPerOp are taken over the per-round figures
	BestNsPerOp   float64 `json:"best_ns_per_op"`
	MedianNsPerOp float64 `json:"median_ns_per_op"`

	// Allocated and Pages are the pool statistics after the last round
	Allocated uint64 `json:"allocated"`
	Pages     int    `json:"pages,omitempty"`
	// RSSBytes is the process resident memory after the last round
	RSSBytes uint64 `json:"rss_bytes,omitempty"`
}

// Report collects every result of a run.
type Report struct {
	Name      string                `json:"name"`
	RunID     string                `json:"run_id"`
	StartedAt time.Time             `json:"started_at"`
	Duration  time.Duration         `json:"duration_ns"`
	Host      HostInfo              `json:"host"`
	Workload  config.WorkloadConfig `json:"workload"`
	Results   []Result              `json:"results"`
}

// Find returns the result for a variant/scenario pair.
func (r *Report) Find(variant, scenario string) (Result, bool) {
	for _, res := range r.Results {
		if res.Variant == variant && res.Scenario == scenario {
			return res, true
		}
	}
	return Result{}, false
}

// WriteJSON encodes the report to w.
func (r *Report) WriteJSON(w io.Writer, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode report")
	}
	return nil
}

// WriteFile writes the report to path, or to stdout when path is "-" or
// empty.
func (r *Report) WriteFile(path string, pretty bool) error {
	if path == "" || path == "-" {
		return r.WriteJSON(os.Stdout, pretty)
	}

	f, err := os.Create(path) //nolint:gosec // G304: report path comes from the operator
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create report").
			WithDetail("path", path)
	}
	if err := r.WriteJSON(f, pretty); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close report").
			WithDetail("path", path)
	}
	return nil
}

// ReadReport decodes a report written by WriteJSON.
func ReadReport(r io.Reader) (*Report, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to decode report")
	}
	return &rep, nil
}
