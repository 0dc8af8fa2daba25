package reader

import (
	"bufio"
	"strings"
	"testing"

	"github.com/YLivay/csvmend/utils"
	"github.com/stretchr/testify/assert"
)

func TestLineScanner_ReadsLine(t *testing.T) {
	f := utils.CreateTestFile(t, "hello\nyou\n")

	scanner := NewLineScanner(f, 0)
	res := scanner.Scan()
	assert.True(t, res)
	assert.EqualValues(t, "hello", scanner.Text())
	assert.EqualValues(t, 1, scanner.Line())
	assert.True(t, scanner.Terminated())
	assert.NoError(t, scanner.Err())
}

func TestLineScanner_ReadsTwoLines(t *testing.T) {
	f := utils.CreateTestFile(t, "hello\nyou\n")

	scanner := NewLineScanner(f, 0)
	res := scanner.Scan()
	assert.True(t, res)
	assert.EqualValues(t, "hello", scanner.Text())

	res = scanner.Scan()
	assert.True(t, res)
	assert.EqualValues(t, "you", scanner.Text())
	assert.EqualValues(t, 2, scanner.Line())
	assert.NoError(t, scanner.Err())

	res = scanner.Scan()
	assert.False(t, res)
	assert.Nil(t, scanner.Bytes())
	assert.EqualValues(t, 2, scanner.Line())
	assert.NoError(t, scanner.Err())
}

func TestLineScanner_ReadsUnterminatedLastLine(t *testing.T) {
	f := utils.CreateTestFile(t, "hi\nthere")

	scanner := NewLineScanner(f, 0)
	assert.True(t, scanner.Scan())
	assert.True(t, scanner.Terminated())

	res := scanner.Scan()
	assert.True(t, res)
	assert.EqualValues(t, "there", scanner.Text())
	assert.False(t, scanner.Terminated())
	assert.NoError(t, scanner.Err())

	assert.False(t, scanner.Scan())
}

func TestLineScanner_EmptyInput(t *testing.T) {
	f := utils.CreateTestFile(t, "")

	scanner := NewLineScanner(f, 0)
	assert.False(t, scanner.Scan())
	assert.Nil(t, scanner.Bytes())
	assert.EqualValues(t, 0, scanner.Line())
	assert.NoError(t, scanner.Err())
}

func TestLineScanner_ReadsEmptyLines(t *testing.T) {
	f := utils.CreateTestFile(t, "hi\n\n\nya\n")

	scanner := NewLineScanner(f, 0)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	assert.NoError(t, scanner.Err())
	assert.EqualValues(t, []string{"hi", "", "", "ya"}, lines)
}

func TestLineScanner_StripsCarriageReturnBeforeNewline(t *testing.T) {
	scanner := NewLineScanner(strings.NewReader("a\r\nb\rc\r\n\r"), 0)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	assert.NoError(t, scanner.Err())
	// Only a "\r" that is part of a "\r\n" terminator is dropped.
	assert.EqualValues(t, []string{"a", "b\rc", "\r"}, lines)
}

func TestLineScanner_LineTooLong(t *testing.T) {
	scanner := NewLineScanner(strings.NewReader("short\n"+strings.Repeat("x", 64)+"\n"), 16)

	assert.True(t, scanner.Scan())
	assert.EqualValues(t, "short", scanner.Text())

	assert.False(t, scanner.Scan())
	assert.ErrorIs(t, scanner.Err(), bufio.ErrTooLong)
}

func TestLineScanner_KeepsLoneCarriageReturn(t *testing.T) {
	f := utils.CreateTestFile(t, "a\rb\r\nc\r")

	scanner := NewLineScanner(f, 0)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	assert.NoError(t, scanner.Err())
	assert.EqualValues(t, []string{"a\rb", "c\r"}, lines)
}
