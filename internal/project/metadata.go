// Package project reads release metadata from the autotools config.h and
// derives the names and locations that depend on it.
package project

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	defineName      = `#define PACKAGE_NAME "`
	defineVersion   = `#define PACKAGE_VERSION "`
	defineBugReport = `#define PACKAGE_BUGREPORT "`
)

// Metadata is the package identity of the release being prepared.
type Metadata struct {
	Name    string
	Version string
	// Module is the bug tracker product, taken from the bug report URL.
	Module string
}

// LoadMetadata reads config.h at path.
func LoadMetadata(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	m, err := ParseMetadata(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return m, nil
}

// ParseMetadata extracts PACKAGE_NAME, PACKAGE_VERSION and the module from
// PACKAGE_BUGREPORT ("...?product=<module>"). Name and version are
// required; the module may be empty.
func ParseMetadata(r io.Reader) (*Metadata, error) {
	m := &Metadata{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, defineName):
			m.Name = quotedValue(line, len(defineName))
		case strings.HasPrefix(line, defineVersion):
			m.Version = quotedValue(line, len(defineVersion))
		case strings.HasPrefix(line, defineBugReport):
			value := quotedValue(line, len(defineBugReport))
			if idx := strings.LastIndex(value, "="); idx >= 0 {
				value = value[idx+1:]
			}
			m.Module = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning metadata: %w", err)
	}

	if m.Name == "" {
		return nil, fmt.Errorf("PACKAGE_NAME not defined")
	}
	if m.Version == "" {
		return nil, fmt.Errorf("PACKAGE_VERSION not defined")
	}
	return m, nil
}

// quotedValue returns the text from start up to the last double quote.
func quotedValue(line string, start int) string {
	end := strings.LastIndex(line, `"`)
	if end < start {
		return strings.TrimSpace(line[start:])
	}
	return line[start:end]
}

// DownloadDir returns the first two dot-separated version components, or
// the whole version when it has fewer than two dots.
func (m *Metadata) DownloadDir() string {
	first := strings.Index(m.Version, ".")
	if first < 0 {
		return m.Version
	}
	second := strings.Index(m.Version[first+1:], ".")
	if second < 0 {
		return m.Version
	}
	return m.Version[:first+1+second]
}

// DownloadURL returns the source download directory under base, with a
// trailing slash.
func (m *Metadata) DownloadURL(base string) string {
	return fmt.Sprintf("%s/%s/%s/", strings.TrimRight(base, "/"), strings.ToLower(m.Name), m.DownloadDir())
}

// NewTag returns the release tag name, e.g. EMPATHY_0_22_1.
func (m *Metadata) NewTag() string {
	return strings.ToUpper(m.Name) + "_" + strings.ReplaceAll(m.Version, ".", "_")
}

// TarballBase returns "<lower name>-<version>".
func (m *Metadata) TarballBase() string {
	return strings.ToLower(m.Name) + "-" + m.Version
}

// Tarballs returns the release archive names, gzip first.
func (m *Metadata) Tarballs() []string {
	base := m.TarballBase()
	return []string{base + ".tar.gz", base + ".tar.bz2"}
}
