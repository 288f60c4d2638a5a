// Package history keeps the release log: one entry per tagged release,
// stored as YAML under the state directory. The newest entry supplies the
// default boundary tag for the next changelog.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the release log's name inside the state directory.
const FileName = "releases.yaml"

// HistoryEntry records one release.
type HistoryEntry struct {
	Timestamp time.Time `yaml:"timestamp"`
	Name      string    `yaml:"name,omitempty"`
	Version   string    `yaml:"version"`
	Tag       string    `yaml:"tag"`
}

// HistoryFile is the on-disk layout of the release log.
type HistoryFile struct {
	Entries []HistoryEntry `yaml:"entries"`
}

// Path returns the release log path inside stateDir.
func Path(stateDir string) string {
	return filepath.Join(stateDir, FileName)
}

// LoadHistory reads the release log. A missing file is an empty log.
func LoadHistory(stateDir string) (*HistoryFile, error) {
	data, err := os.ReadFile(Path(stateDir))
	if errors.Is(err, os.ErrNotExist) {
		return &HistoryFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading release log: %w", err)
	}

	var history HistoryFile
	if err := yaml.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parsing release log %s: %w", Path(stateDir), err)
	}
	return &history, nil
}

// SaveHistory writes the release log atomically, creating stateDir if needed.
func SaveHistory(stateDir string, history *HistoryFile) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := yaml.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshaling release log: %w", err)
	}

	tmp, err := os.CreateTemp(stateDir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing release log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing release log: %w", err)
	}
	if err := os.Rename(tmpName, Path(stateDir)); err != nil {
		return fmt.Errorf("replacing release log: %w", err)
	}
	return nil
}

// LatestFor returns the most recent entry recorded for the named project.
func (h *HistoryFile) LatestFor(name string) (HistoryEntry, bool) {
	for i := len(h.Entries) - 1; i >= 0; i-- {
		if h.Entries[i].Name == name {
			return h.Entries[i], true
		}
	}
	return HistoryEntry{}, false
}

// LastTag returns the tag of the most recent release of the named project
// recorded in stateDir, or "" when there is none or the log is unreadable.
// The log is shared by every project released from the same state dir.
func LastTag(stateDir, name string) string {
	history, err := LoadHistory(stateDir)
	if err != nil {
		return ""
	}
	latest, ok := history.LatestFor(name)
	if !ok {
		return ""
	}
	return latest.Tag
}
