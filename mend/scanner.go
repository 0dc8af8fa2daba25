package mend

// LineSource yields physical lines with their terminators stripped.
// reader.LineScanner and bufio.Scanner both satisfy it.
type LineSource interface {
	Scan() bool
	Text() string
	Err() error
}

// Stats counts what happened while mending one input.
type Stats struct {
	// Lines is the number of physical lines read.
	Lines int
	// Records is the number of records emitted.
	Records int
	// Merged is the number of emitted records that spanned several lines.
	Merged int
	// Dangling is the number of lines of an incomplete record left over at the
	// end of a cleanly read input. They are not emitted.
	Dangling int
	// Overflowed is set when the input was abandoned on an OverflowError.
	Overflowed bool
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Lines += o.Lines
	s.Records += o.Records
	s.Merged += o.Merged
	s.Dangling += o.Dangling
	s.Overflowed = s.Overflowed || o.Overflowed
}

// Scanner turns a LineSource into a sequence of mended records, in the manner
// of bufio.Scanner. Scanning stops for good at the end of the input, on a read
// error, or on the first overflowing record.
type Scanner struct {
	src    LineSource
	r      *Reassembler
	record string
	err    error
	done   bool
	stats  Stats
}

func NewScanner(src LineSource, opts Options) (*Scanner, error) {
	r, err := NewReassembler(opts)
	if err != nil {
		return nil, err
	}

	return &Scanner{src: src, r: r}, nil
}

// Scan advances to the next complete record, which is then available through
// Text. It returns false when no more records will be produced; Err tells
// whether that was because of an error.
func (s *Scanner) Scan() bool {
	s.record = ""
	if s.done {
		return false
	}

	for s.src.Scan() {
		s.stats.Lines++

		pending := s.r.Pending()
		record, complete, err := s.r.Feed(s.src.Text())
		if err != nil {
			s.stats.Overflowed = true
			s.finish(err)
			return false
		}
		if complete {
			s.record = record
			s.stats.Records++
			if pending > 0 {
				s.stats.Merged++
			}
			return true
		}
	}

	// Only a clean end of input leaves a dangling record behind. After an
	// error the rest of it may still have been coming.
	err := s.src.Err()
	if err == nil {
		s.stats.Dangling = s.r.Pending()
	}
	s.finish(err)
	return false
}

func (s *Scanner) finish(err error) {
	s.done = true
	s.err = err
}

// Text returns the most recent record, without a line terminator.
func (s *Scanner) Text() string {
	return s.record
}

// Err returns the error that stopped the scan, or nil at a clean end of
// input. An overflow is reported as an *OverflowError.
func (s *Scanner) Err() error {
	return s.err
}

// Stats returns the counters so far.
func (s *Scanner) Stats() Stats {
	return s.stats
}
