package mend

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

const (
	// DefaultFlushInterval is how many records are buffered between flushes of
	// the output.
	DefaultFlushInterval = 10000
)

type RunOptions struct {
	Options

	// FlushInterval flushes the output every so many records. Zero selects
	// DefaultFlushInterval.
	FlushInterval int

	// Progress, when set, is called after every flush with the counters so far.
	Progress func(Stats)
}

// Run mends every record src yields and writes each to w followed by a single
// "\n". Output is written incrementally and flushed before Run returns, also
// when it stops early on an overflow, a read error or a cancelled ctx. ctx is
// checked before every physical line, so a record that never completes still
// stops. The returned Stats are valid in every case.
func Run(ctx context.Context, src LineSource, w io.Writer, opts RunOptions) (Stats, error) {
	scanner, err := NewScanner(&contextSource{LineSource: src, ctx: ctx}, opts.Options)
	if err != nil {
		return Stats{}, err
	}

	flushInterval := opts.FlushInterval
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}

	bw := bufio.NewWriter(w)
	flush := func() error {
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("failed to flush output: %w", err)
		}
		if opts.Progress != nil {
			opts.Progress(scanner.Stats())
		}
		return nil
	}

	for scanner.Scan() {
		if _, err := bw.WriteString(scanner.Text()); err != nil {
			return scanner.Stats(), fmt.Errorf("failed to write record: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return scanner.Stats(), fmt.Errorf("failed to write record: %w", err)
		}

		if scanner.Stats().Records%flushInterval == 0 {
			if err := flush(); err != nil {
				return scanner.Stats(), err
			}
		}
	}

	if err := flush(); err != nil {
		return scanner.Stats(), err
	}
	if err := scanner.Err(); err != nil {
		return scanner.Stats(), err
	}
	return scanner.Stats(), nil
}

// contextSource ends the line stream once ctx is done and reports ctx.Err()
// as the read error.
type contextSource struct {
	LineSource
	ctx context.Context
	err error
}

func (c *contextSource) Scan() bool {
	select {
	case <-c.ctx.Done():
		c.err = c.ctx.Err()
		return false
	default:
	}
	return c.LineSource.Scan()
}

func (c *contextSource) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.LineSource.Err()
}
