// Package config holds the settings of a csvmend run. Settings come from
// built-in defaults, optionally overlaid by a YAML file, and finally by
// command line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/YLivay/csvmend/log"
	"github.com/YLivay/csvmend/mend"
	"github.com/YLivay/csvmend/reader"
)

const (
	// DefaultRetrySkip is the reserved name of the file earlier pipeline runs
	// left for manual handling. It is never processed.
	DefaultRetrySkip = ".retry.csv"

	// DefaultDelimiter is mend.DefaultDelimiter in the notation Delimiter
	// accepts.
	DefaultDelimiter = `\x1f`
)

const exampleConfigYAML = `# csvmend configuration
input_dir: US_review_20250604
output_dir: US_review_20250605

# A single character, or an escape such as \t, \x1f, \u001f or 0x1f.
delimiter: '\x1f'
expected_fields: 13

extensions: [.csv]
skip: [.retry.csv]

# utf-8, latin1, windows-1252, windows-1251 or auto.
encoding: utf-8
`

// Config is a full run configuration. The yaml tags name the keys accepted in
// a config file.
type Config struct {
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`

	Delimiter      string `yaml:"delimiter"`
	ExpectedFields int    `yaml:"expected_fields"`

	// Extensions of the input files to process, compared case-insensitively.
	Extensions []string `yaml:"extensions"`
	// Skip lists file names that are never processed.
	Skip []string `yaml:"skip"`

	Encoding      string `yaml:"encoding"`
	FlushInterval int    `yaml:"flush_interval"`
	MaxLineSize   int    `yaml:"max_line_size"`

	// Retry restricts the run to the files recorded as failed by the previous
	// run into the same output directory.
	Retry bool `yaml:"retry"`

	LogLevel string `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		Delimiter:      DefaultDelimiter,
		ExpectedFields: mend.DefaultExpectedFields,
		Extensions:     []string{".csv"},
		Skip:           []string{DefaultRetrySkip},
		Encoding:       reader.EncodingUTF8,
		FlushInterval:  mend.DefaultFlushInterval,
		MaxLineSize:    reader.DefaultMaxLineSize,
		LogLevel:       "info",
	}
}

// Load reads a YAML config file over the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Example returns a commented sample config file.
func Example() string {
	return exampleConfigYAML
}

// Validate checks the configuration and normalizes extensions and encoding
// names in place.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.InputDir) == "" {
		return errors.New("config: input directory is required")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return errors.New("config: output directory is required")
	}
	same, err := samePath(c.InputDir, c.OutputDir)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if same {
		return fmt.Errorf("config: output directory %s is the input directory", c.OutputDir)
	}

	if _, err := c.MendOptions(); err != nil {
		return err
	}

	enc, err := reader.NormalizeEncoding(c.Encoding)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Encoding = enc

	if len(c.Extensions) == 0 {
		return errors.New("config: at least one extension is required")
	}
	for i, ext := range c.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			return fmt.Errorf("config: empty extension")
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Extensions[i] = ext
	}

	if c.FlushInterval < 0 {
		return fmt.Errorf("config: flush interval must not be negative, got %d", c.FlushInterval)
	}
	if c.MaxLineSize < 0 {
		return fmt.Errorf("config: max line size must not be negative, got %d", c.MaxLineSize)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// MendOptions returns the record layout as options for the mend package.
func (c *Config) MendOptions() (mend.Options, error) {
	delim, err := ParseDelimiter(c.Delimiter)
	if err != nil {
		return mend.Options{}, fmt.Errorf("config: %w", err)
	}
	if c.ExpectedFields < 1 {
		return mend.Options{}, fmt.Errorf("config: expected field count must be positive, got %d", c.ExpectedFields)
	}

	opts := mend.Options{Delimiter: delim, ExpectedFields: c.ExpectedFields}
	if err := opts.Validate(); err != nil {
		return mend.Options{}, fmt.Errorf("config: %w", err)
	}
	return opts, nil
}

// ParseDelimiter reads a delimiter given as the character itself, as a Go
// escape sequence (\t, \x1f, \u001f) or as a 0x-prefixed hex code point.
func ParseDelimiter(s string) (rune, error) {
	switch {
	case s == "":
		return 0, errors.New("delimiter is empty")

	case strings.HasPrefix(s, `\`):
		r, _, tail, err := strconv.UnquoteChar(s, '\'')
		if err != nil || tail != "" {
			return 0, fmt.Errorf("invalid delimiter escape %q", s)
		}
		return r, nil

	case len(s) > 2 && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")):
		n, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil || !utf8.ValidRune(rune(n)) {
			return 0, fmt.Errorf("invalid delimiter code point %q", s)
		}
		return rune(n), nil
	}

	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("delimiter %q must be a single character", s)
	}
	return r, nil
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	if absA == absB {
		return true, nil
	}

	// Both may exist under different spellings, e.g. through a symlink.
	infoA, errA := os.Stat(absA)
	infoB, errB := os.Stat(absB)
	if errA != nil || errB != nil {
		return false, nil
	}
	return os.SameFile(infoA, infoB), nil
}
