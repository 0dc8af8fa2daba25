package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ManifestName is the file in the output directory that lists the inputs the
// last run failed on.
const ManifestName = ".csvmend-retry.yaml"

// Manifest records the failed files of a run so a later run can retry just
// those.
type Manifest struct {
	Created  time.Time       `yaml:"created"`
	InputDir string          `yaml:"input_dir"`
	Files    []ManifestEntry `yaml:"files"`
}

type ManifestEntry struct {
	Name   string `yaml:"name"`
	Status Status `yaml:"status"`
	Error  string `yaml:"error"`
	// Line is the physical line processing stopped at, when known.
	Line int `yaml:"line,omitempty"`
}

// Names returns the file names listed in the manifest.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Files))
	for _, f := range m.Files {
		names = append(names, f.Name)
	}
	return names
}

// LoadManifest reads the manifest from dir. A missing manifest is reported
// with an error wrapping os.ErrNotExist.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}

	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse retry manifest: %w", err)
	}
	return m, nil
}

// Save writes the manifest into dir, replacing any previous one.
func (m *Manifest) Save(dir string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode retry manifest: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ManifestName+".*")
	if err != nil {
		return fmt.Errorf("failed to write retry manifest: %w", err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpName, filepath.Join(dir, ManifestName))
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write retry manifest: %w", err)
	}
	return nil
}

// RemoveManifest deletes the manifest in dir if there is one.
func RemoveManifest(dir string) error {
	err := os.Remove(filepath.Join(dir, ManifestName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove retry manifest: %w", err)
	}
	return nil
}
