package batch

import (
	"errors"
	"time"

	"github.com/YLivay/csvmend/mend"
)

type Status string

const (
	StatusOK Status = "ok"
	// StatusOverflow means a record overflowed. Output up to that record was
	// kept.
	StatusOverflow Status = "overflow"
	// StatusFailed means an I/O error stopped the file.
	StatusFailed Status = "failed"
)

// Job is one input file and where its mended copy goes.
type Job struct {
	Name   string
	Input  string
	Output string
}

// Result is the outcome of processing one Job.
type Result struct {
	Job
	Status   Status
	Err      error
	Stats    mend.Stats
	Encoding string
	Duration time.Duration
}

// StopLine returns the physical line processing stopped at, or 0 when the file
// was processed to the end.
func (r Result) StopLine() int {
	var overflow *mend.OverflowError
	if errors.As(r.Err, &overflow) {
		return overflow.Line
	}
	if r.Err != nil && r.Stats.Lines > 0 {
		return r.Stats.Lines
	}
	return 0
}

type Report struct {
	Results []Result
}

// Failed returns the results whose status isn't StatusOK.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Status != StatusOK {
			failed = append(failed, res)
		}
	}
	return failed
}

// Totals sums the stats of all results.
func (r *Report) Totals() mend.Stats {
	var total mend.Stats
	for _, res := range r.Results {
		total.Add(res.Stats)
	}
	return total
}

func (r *Report) manifest(inputDir string, now time.Time) *Manifest {
	m := &Manifest{Created: now.UTC(), InputDir: inputDir}
	for _, res := range r.Failed() {
		entry := ManifestEntry{
			Name:   res.Name,
			Status: res.Status,
			Line:   res.StopLine(),
		}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		m.Files = append(m.Files, entry)
	}
	return m
}
