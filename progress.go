package main

import (
	"time"

	"github.com/YLivay/csvmend/batch"
	"github.com/YLivay/csvmend/log"
	"github.com/YLivay/csvmend/mend"
)

// progressLogger logs how far the current file got, at most once per
// interval.
type progressLogger struct {
	logger   *log.Logger
	level    log.Level
	interval time.Duration
	now      func() time.Time
	last     time.Time
}

func newProgressLogger(logger *log.Logger, level log.Level, interval time.Duration) *progressLogger {
	return &progressLogger{
		logger:   logger,
		level:    level,
		interval: interval,
		now:      time.Now,
	}
}

func (p *progressLogger) Report(job batch.Job, stats mend.Stats) {
	now := p.now()
	if now.Sub(p.last) < p.interval {
		return
	}
	p.last = now

	p.logger.Logf(p.level, "%s: %d lines read, %d records written", job.Name, stats.Lines, stats.Records)
}
