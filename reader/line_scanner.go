package reader

import (
	"bufio"
	"bytes"
	"io"
)

const (
	// DefaultMaxLineSize caps the length of a single physical line, including
	// its terminator.
	DefaultMaxLineSize = 16 * 1024 * 1024

	initialBufSize = 64 * 1024
)

// LineScanner reads physical lines forwards. Each token has its line
// terminator stripped: a trailing "\n" and a "\r" directly before it. A final
// line with no terminator is still returned, and Terminated reports the
// difference.
type LineScanner struct {
	*bufio.Scanner
	token      []byte
	line       int
	terminated bool
}

// NewLineScanner returns a LineScanner over r that fails with
// bufio.ErrTooLong on lines longer than maxLineSize bytes. A non-positive
// maxLineSize selects DefaultMaxLineSize.
func NewLineScanner(r io.Reader, maxLineSize int) *LineScanner {
	if maxLineSize <= 0 {
		maxLineSize = DefaultMaxLineSize
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(initialBufSize, maxLineSize)), maxLineSize)
	scanner.Split(scanLines)

	return &LineScanner{Scanner: scanner}
}

func (s *LineScanner) Scan() bool {
	s.token = nil
	s.terminated = false

	if !s.Scanner.Scan() {
		return false
	}

	token := s.Scanner.Bytes()
	s.line++
	if n := len(token); n > 0 && token[n-1] == '\n' {
		s.terminated = true
		token = token[:n-1]
		if n := len(token); n > 0 && token[n-1] == '\r' {
			token = token[:n-1]
		}
	}
	s.token = token

	return true
}

// Bytes returns the current line without its terminator. The slice is only
// valid until the next call to Scan.
func (s *LineScanner) Bytes() []byte {
	return s.token
}

func (s *LineScanner) Text() string {
	return string(s.token)
}

// Line returns the 1-based number of the current line, or the number of lines
// read so far once Scan has returned false.
func (s *LineScanner) Line() int {
	return s.line
}

// Terminated reports whether the current line ended with a newline rather than
// with the end of input.
func (s *LineScanner) Terminated() bool {
	return s.terminated
}

// Modified from bufio.ScanLines to not drop carriage returns and also return
// the newline character itself. This lets us differentiate between a line
// that is returned because it has a newline character and a line that is
// returned because it reached EOF.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		// We have a full newline-terminated line.
		return i + 1, data[0 : i+1], nil
	}
	// If we're at EOF, we have a final, non-terminated line. Return it.
	if atEOF {
		return len(data), data, nil
	}
	// Request more data.
	return 0, nil, nil
}
