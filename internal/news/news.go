// Package news reads and updates the project's NEWS file.
package news

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/relnote/internal/changelog"
)

// Extract returns the body of the entry for version: the lines after
// "NEW in <version>" and its underline, up to the next "NEW in " line.
// Trailing newlines are trimmed. An absent marker gives "".
func Extract(content, version string) string {
	marker := changelog.MarkerPrefix + version
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	start := -1
	for i, line := range lines {
		if strings.TrimRight(line, " \t") == marker {
			start = i + 2
			break
		}
	}
	if start < 0 || start >= len(lines) {
		return ""
	}

	end := len(lines)
	for i := start; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], changelog.MarkerPrefix) {
			end = i
			break
		}
	}

	return strings.TrimRight(strings.Join(lines[start:end], "\n"), "\n")
}

// Load reads path and extracts the entry for version. A missing file is
// treated like a missing marker.
func Load(path, version string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logDebug("[news] %s does not exist", path)
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	body := Extract(string(data), version)
	if body == "" {
		logDebug("[news] no entry for %s in %s", version, path)
	}
	return body, nil
}

// Versions lists the versions with an entry in content, newest first.
func Versions(content string) []string {
	var versions []string
	for _, line := range strings.Split(content, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimRight(line, " \t\r"), changelog.MarkerPrefix); ok && v != "" {
			versions = append(versions, v)
		}
	}
	return versions
}

// Prepend writes entry above the current content of path, separated by a
// blank line. The file is created when missing and replaced atomically.
func Prepend(path, entry string) error {
	old, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	mode := fs.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(entry, "\n"))
	b.WriteString("\n")
	if len(old) > 0 {
		b.WriteString("\n")
		b.Write(old)
	}

	if err := atomicWriteFile(path, []byte(b.String()), mode); err != nil {
		return fmt.Errorf("updating %s: %w", path, err)
	}
	logDebug("[news] prepended %d bytes to %s", len(entry), path)
	return nil
}

// atomicWriteFile writes data to a temp file next to path and renames it.
func atomicWriteFile(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
