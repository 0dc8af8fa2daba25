// Package batch mends every matching file of an input directory into an
// output directory, one file at a time.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/YLivay/csvmend/config"
	"github.com/YLivay/csvmend/log"
	"github.com/YLivay/csvmend/mend"
	"github.com/YLivay/csvmend/reader"
)

type Driver struct {
	cfg    *config.Config
	opts   mend.Options
	logger *log.Logger

	// OnProgress, when set, is called periodically while a file is processed.
	OnProgress func(job Job, stats mend.Stats)

	now func() time.Time
}

// New validates cfg and returns a Driver for it. A nil logger logs to the
// standard logger.
func New(cfg *config.Config, logger *log.Logger) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := cfg.MendOptions()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Driver{cfg: cfg, opts: opts, logger: logger, now: time.Now}, nil
}

// Plan lists the jobs a run would process, sorted by file name.
func (d *Driver) Plan() ([]Job, error) {
	entries, err := os.ReadDir(d.cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list input directory: %w", err)
	}

	var only map[string]bool
	if d.cfg.Retry {
		m, err := LoadManifest(d.cfg.OutputDir)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no retry manifest in %s, nothing to retry", d.cfg.OutputDir)
		}
		if err != nil {
			return nil, err
		}

		only = make(map[string]bool, len(m.Files))
		for _, name := range m.Names() {
			only[name] = true
		}
	}

	var jobs []Job
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !d.wanted(name) {
			continue
		}
		if only != nil {
			if !only[name] {
				continue
			}
			delete(only, name)
		}

		jobs = append(jobs, Job{
			Name:   name,
			Input:  filepath.Join(d.cfg.InputDir, name),
			Output: filepath.Join(d.cfg.OutputDir, name),
		})
	}

	for name := range only {
		d.logger.Warnf("%s is listed for retry but is no longer an input", name)
	}

	return jobs, nil
}

// wanted reports whether name is an input. The reserved retry file is never
// one, whatever Skip says.
func (d *Driver) wanted(name string) bool {
	if name == config.DefaultRetrySkip || slices.Contains(d.cfg.Skip, name) {
		return false
	}
	return slices.Contains(d.cfg.Extensions, strings.ToLower(filepath.Ext(name)))
}

// Run processes every planned job in order. A file that overflows or hits an
// I/O error is reported in its Result and the run moves on to the next file.
// The returned error is for failures of the run as a whole; the Report holds
// whatever was processed before it.
//
// Unless the run is cancelled, the retry manifest in the output directory is
// rewritten to list the failed files, or removed when there are none.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	jobs, err := d.Plan()
	if err != nil {
		return report, err
	}
	if err := os.MkdirAll(d.cfg.OutputDir, 0755); err != nil {
		return report, fmt.Errorf("failed to create output directory: %w", err)
	}
	d.logger.Infof("mending %d file(s) from %s into %s", len(jobs), d.cfg.InputDir, d.cfg.OutputDir)

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res := d.ProcessFile(ctx, job)
		report.Results = append(report.Results, res)
		d.logResult(res)

		if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
			return report, ctx.Err()
		}
	}

	if len(report.Failed()) == 0 {
		return report, RemoveManifest(d.cfg.OutputDir)
	}
	return report, report.manifest(d.cfg.InputDir, d.now()).Save(d.cfg.OutputDir)
}

// ProcessFile mends a single job. The output file is created or truncated.
// Records written before an overflow or error stay in it.
func (d *Driver) ProcessFile(ctx context.Context, job Job) (res Result) {
	res = Result{Job: job, Status: StatusOK}
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
	}()

	fail := func(err error) Result {
		res.Err = err
		res.Status = StatusFailed
		if errors.Is(err, mend.ErrOverflow) {
			res.Status = StatusOverflow
		}
		return res
	}

	in, err := reader.Open(job.Input, d.cfg.Encoding)
	if err != nil {
		return fail(fmt.Errorf("failed to open input: %w", err))
	}
	defer in.Close()
	res.Encoding = in.Encoding
	d.logger.Debugf("%s: reading as %s", job.Name, in.Encoding)

	out, err := os.Create(job.Output)
	if err != nil {
		return fail(fmt.Errorf("failed to create output: %w", err))
	}

	src := reader.NewLineScanner(in, d.cfg.MaxLineSize)
	stats, runErr := mend.Run(ctx, src, out, mend.RunOptions{
		Options:       d.opts,
		FlushInterval: d.cfg.FlushInterval,
		Progress: func(s mend.Stats) {
			if d.OnProgress != nil {
				d.OnProgress(job, s)
			}
		},
	})
	res.Stats = stats

	syncErr := out.Sync()
	closeErr := out.Close()

	switch {
	case errors.Is(runErr, mend.ErrOverflow), errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		return fail(runErr)
	case runErr != nil:
		return fail(fmt.Errorf("failed after line %d: %w", stats.Lines, runErr))
	case syncErr != nil:
		return fail(fmt.Errorf("failed to sync output: %w", syncErr))
	case closeErr != nil:
		return fail(fmt.Errorf("failed to close output: %w", closeErr))
	}
	return res
}

func (d *Driver) logResult(res Result) {
	s := res.Stats
	switch res.Status {
	case StatusOK:
		d.logger.Infof("%s: %d lines -> %d records (%d merged) in %s",
			res.Name, s.Lines, s.Records, s.Merged, res.Duration.Round(time.Millisecond))
	case StatusOverflow:
		d.logger.Warnf("%s: abandoned after %d records: %v", res.Name, s.Records, res.Err)
	default:
		d.logger.Errorf("%s: %v", res.Name, res.Err)
	}

	if s.Dangling > 0 {
		d.logger.Warnf("%s: dropped an incomplete record of %d line(s) at end of file", res.Name, s.Dangling)
	}
}
