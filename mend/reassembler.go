package mend

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/YLivay/csvmend/utils"
)

const (
	// DefaultDelimiter is the ASCII unit separator.
	DefaultDelimiter = '\x1f'
	// DefaultExpectedFields is the schema width of a record.
	DefaultExpectedFields = 13

	// escapedNewline replaces every line break absorbed into a record.
	escapedNewline = `\n`

	// Display cells of a record quoted in an OverflowError.
	excerptWidth = 120
)

// ErrOverflow is returned when a record collects more delimiters than its
// expected field count allows.
var ErrOverflow = errors.New("record has more fields than expected")

// OverflowError reports where a record overflowed. It wraps ErrOverflow.
type OverflowError struct {
	// Line is the 1-based physical line at which the overflow was detected.
	Line int
	// StartLine is the physical line the overflowing record started on.
	StartLine int
	Fields    int
	Expected  int
	// Excerpt is the start of the offending record with its line breaks
	// escaped.
	Excerpt string
}

func (e *OverflowError) Error() string {
	if e == nil {
		return ""
	}
	if e.StartLine != e.Line {
		return fmt.Sprintf("lines %d-%d: %d fields, expected %d: %q", e.StartLine, e.Line, e.Fields, e.Expected, e.Excerpt)
	}
	return fmt.Sprintf("line %d: %d fields, expected %d: %q", e.Line, e.Fields, e.Expected, e.Excerpt)
}

func (e *OverflowError) Unwrap() error {
	return ErrOverflow
}

type Options struct {
	// Delimiter separates fields. Zero selects DefaultDelimiter.
	Delimiter rune
	// ExpectedFields is the number of fields every record has. Zero selects
	// DefaultExpectedFields.
	ExpectedFields int
}

func DefaultOptions() Options {
	return Options{
		Delimiter:      DefaultDelimiter,
		ExpectedFields: DefaultExpectedFields,
	}
}

func (o Options) withDefaults() Options {
	if o.Delimiter == 0 {
		o.Delimiter = DefaultDelimiter
	}
	if o.ExpectedFields == 0 {
		o.ExpectedFields = DefaultExpectedFields
	}
	return o
}

// Validate checks the options after defaults are applied.
func (o Options) Validate() error {
	o = o.withDefaults()

	if o.ExpectedFields < 1 {
		return fmt.Errorf("expected field count must be positive, got %d", o.ExpectedFields)
	}
	switch o.Delimiter {
	case '\n', '\r':
		return fmt.Errorf("delimiter can't be a line terminator")
	case '\\':
		// Would be confused with the escape that replaces embedded newlines.
		return fmt.Errorf("delimiter can't be a backslash")
	}
	if !utf8.ValidRune(o.Delimiter) {
		return fmt.Errorf("delimiter %U is not a valid character", o.Delimiter)
	}
	return nil
}

// Escape replaces the line breaks inside record with a literal backslash-n.
func Escape(record string) string {
	return strings.ReplaceAll(record, "\n", escapedNewline)
}

// Reassembler joins physical lines into logical records one line at a time.
// Its zero value is not usable; create one with NewReassembler.
type Reassembler struct {
	expected int
	delim    string

	// The record being assembled. Physical lines are joined with a raw "\n".
	buf []byte
	// Delimiters in buf. The join markers never contain the delimiter, so this
	// is the sum over the lines in buf.
	delims int
	// Physical lines in buf.
	pending int
	// Physical lines fed since creation or the last Reset.
	line int
}

func NewReassembler(opts Options) (*Reassembler, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	return &Reassembler{
		expected: opts.ExpectedFields,
		delim:    string(opts.Delimiter),
	}, nil
}

// Feed appends one physical line, stripped of its terminator, to the record
// being assembled.
//
// When the line completes the record, Feed returns the escaped record and
// true. When the record is still short of fields it returns false and keeps
// accumulating. When the record now has too many fields it returns an
// *OverflowError and discards the record.
func (r *Reassembler) Feed(line string) (record string, complete bool, err error) {
	r.line++
	r.pending++
	r.buf = append(r.buf, line...)
	r.delims += strings.Count(line, r.delim)

	switch fields := r.delims + 1; {
	case fields == r.expected:
		record = Escape(string(r.buf))
		r.clear()
		return record, true, nil

	case fields > r.expected:
		overflow := &OverflowError{
			Line:      r.line,
			StartLine: r.line - r.pending + 1,
			Fields:    fields,
			Expected:  r.expected,
			Excerpt:   utils.Excerpt(Escape(string(r.buf)), excerptWidth),
		}
		r.clear()
		return "", false, overflow

	default:
		r.buf = append(r.buf, '\n')
		return "", false, nil
	}
}

// Pending returns how many physical lines the incomplete record holds.
func (r *Reassembler) Pending() int {
	return r.pending
}

// Reset discards any incomplete record and restarts line numbering.
func (r *Reassembler) Reset() {
	r.clear()
	r.line = 0
}

func (r *Reassembler) clear() {
	r.buf = r.buf[:0]
	r.delims = 0
	r.pending = 0
}
