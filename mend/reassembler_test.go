package mend

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReassembler(t *testing.T, delim rune, fields int) *Reassembler {
	r, err := NewReassembler(Options{Delimiter: delim, ExpectedFields: fields})
	require.NoError(t, err)
	return r
}

func TestReassembler_CompleteLine(t *testing.T) {
	r := newTestReassembler(t, ',', 3)

	record, complete, err := r.Feed("a,b,c")
	assert.NoError(t, err)
	assert.True(t, complete)
	assert.EqualValues(t, "a,b,c", record)
	assert.EqualValues(t, 0, r.Pending())
}

func TestReassembler_JoinsContinuationLine(t *testing.T) {
	r := newTestReassembler(t, ',', 3)

	record, complete, err := r.Feed("a,b")
	assert.NoError(t, err)
	assert.False(t, complete)
	assert.Empty(t, record)
	assert.EqualValues(t, 1, r.Pending())

	record, complete, err = r.Feed(",c")
	assert.NoError(t, err)
	assert.True(t, complete)
	assert.EqualValues(t, `a,b\n,c`, record)
	assert.EqualValues(t, 0, r.Pending())
}

func TestReassembler_LineWithoutDelimiterStaysPending(t *testing.T) {
	r := newTestReassembler(t, ',', 3)

	_, complete, err := r.Feed("a,b")
	require.NoError(t, err)
	require.False(t, complete)

	// Still two fields: "a" and "b\nc".
	_, complete, err = r.Feed("c")
	assert.NoError(t, err)
	assert.False(t, complete)
	assert.EqualValues(t, 2, r.Pending())

	record, complete, err := r.Feed(",d")
	assert.NoError(t, err)
	assert.True(t, complete)
	assert.EqualValues(t, `a,b\nc\n,d`, record)
}

func TestReassembler_EmptyLinesBecomeEscapedNewlines(t *testing.T) {
	r := newTestReassembler(t, ',', 2)

	for _, line := range []string{"note", "", ""} {
		_, complete, err := r.Feed(line)
		require.NoError(t, err)
		require.False(t, complete)
	}

	record, complete, err := r.Feed(",end")
	assert.NoError(t, err)
	assert.True(t, complete)
	assert.EqualValues(t, `note\n\n\n,end`, record)
}

func TestReassembler_SingleFieldSchema(t *testing.T) {
	r := newTestReassembler(t, ',', 1)

	record, complete, err := r.Feed("anything")
	assert.NoError(t, err)
	assert.True(t, complete)
	assert.EqualValues(t, "anything", record)

	_, _, err = r.Feed("a,b")
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestReassembler_OverflowOnSingleLine(t *testing.T) {
	r := newTestReassembler(t, ',', 2)

	record, complete, err := r.Feed("a,b,c")
	assert.False(t, complete)
	assert.Empty(t, record)
	require.ErrorIs(t, err, ErrOverflow)

	var overflow *OverflowError
	require.True(t, errors.As(err, &overflow))
	assert.EqualValues(t, 1, overflow.Line)
	assert.EqualValues(t, 1, overflow.StartLine)
	assert.EqualValues(t, 3, overflow.Fields)
	assert.EqualValues(t, 2, overflow.Expected)
	assert.EqualValues(t, "a,b,c", overflow.Excerpt)
	assert.EqualValues(t, `line 1: 3 fields, expected 2: "a,b,c"`, err.Error())
	assert.EqualValues(t, 0, r.Pending())
}

func TestReassembler_OverflowAcrossLines(t *testing.T) {
	r := newTestReassembler(t, ',', 3)

	_, _, err := r.Feed("x,y,z")
	require.NoError(t, err)
	_, _, err = r.Feed("a,b")
	require.NoError(t, err)

	_, _, err = r.Feed(",c,d")
	var overflow *OverflowError
	require.ErrorAs(t, err, &overflow)
	assert.EqualValues(t, 3, overflow.Line)
	assert.EqualValues(t, 2, overflow.StartLine)
	assert.EqualValues(t, 4, overflow.Fields)
	assert.EqualValues(t, `a,b\n,c,d`, overflow.Excerpt)
	assert.EqualValues(t, `lines 2-3: 4 fields, expected 3: "a,b\\n,c,d"`, err.Error())
}

func TestReassembler_MultiByteDelimiter(t *testing.T) {
	r := newTestReassembler(t, '¦', 3)

	_, complete, err := r.Feed("é¦ü")
	require.NoError(t, err)
	require.False(t, complete)

	record, complete, err := r.Feed("¦ß")
	assert.NoError(t, err)
	assert.True(t, complete)
	assert.EqualValues(t, `é¦ü\n¦ß`, record)
}

func TestReassembler_ResetDropsPendingRecord(t *testing.T) {
	r := newTestReassembler(t, ',', 3)

	_, _, err := r.Feed("a,b")
	require.NoError(t, err)
	r.Reset()
	assert.EqualValues(t, 0, r.Pending())

	record, complete, err := r.Feed("c,d,e")
	assert.NoError(t, err)
	assert.True(t, complete)
	assert.EqualValues(t, "c,d,e", record)
}

func TestNewReassembler_AppliesDefaults(t *testing.T) {
	r, err := NewReassembler(Options{})
	require.NoError(t, err)

	line := "1\x1f2\x1f3\x1f4\x1f5\x1f6\x1f7\x1f8\x1f9\x1f10\x1f11\x1f12\x1f13"
	record, complete, err := r.Feed(line)
	assert.NoError(t, err)
	assert.True(t, complete)
	assert.EqualValues(t, line, record)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", DefaultOptions(), false},
		{"zero value", Options{}, false},
		{"comma", Options{Delimiter: ',', ExpectedFields: 3}, false},
		{"tab", Options{Delimiter: '\t', ExpectedFields: 1}, false},
		{"negative fields", Options{Delimiter: ',', ExpectedFields: -1}, true},
		{"newline delimiter", Options{Delimiter: '\n', ExpectedFields: 2}, true},
		{"carriage return delimiter", Options{Delimiter: '\r', ExpectedFields: 2}, true},
		{"backslash delimiter", Options{Delimiter: '\\', ExpectedFields: 2}, true},
		{"invalid rune", Options{Delimiter: 0xD800, ExpectedFields: 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEscape(t *testing.T) {
	assert.EqualValues(t, "plain", Escape("plain"))
	assert.EqualValues(t, `a\nb\n`, Escape("a\nb\n"))
	// An already escaped sequence is left alone.
	assert.EqualValues(t, `a\nb`, Escape(`a\nb`))
}
