package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_DropsBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "", 0, LevelWarn)

	l.Debugf("debug %d", 1)
	l.Infof("info %d", 2)
	l.Warnf("warn %d", 3)
	l.Errorf("error %d", 4)

	assert.EqualValues(t, "WARN warn 3\nERROR error 4\n", buf.String())
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "", 0, LevelInfo)
	assert.False(t, l.Enabled(LevelDebug))

	l.SetLevel(LevelDebug)
	assert.True(t, l.Enabled(LevelDebug))

	l.Debugf("now visible")
	assert.EqualValues(t, "DEBUG now visible\n", buf.String())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"Error", LevelError, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLogger_Logf(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "csvmend: ", 0, LevelInfo)

	l.Logf(LevelDebug, "hidden")
	l.Logf(LevelInfo, "%d files", 2)
	assert.EqualValues(t, "csvmend: INFO 2 files\n", buf.String())
}

func TestWarnf_WritesToDefault(t *testing.T) {
	var buf bytes.Buffer
	saved := Default().l.Writer()
	Default().l.SetOutput(&buf)
	t.Cleanup(func() { Default().l.SetOutput(saved) })

	Warnf("interrupted after %d files", 2)
	assert.Contains(t, buf.String(), "WARN interrupted after 2 files\n")
}
