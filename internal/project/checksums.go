package project

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Checksum is the md5 digest of one release archive.
type Checksum struct {
	File string
	Sum  string
}

// String formats the checksum like md5sum(1).
func (c Checksum) String() string {
	return c.Sum + "  " + c.File
}

// MD5File returns the hex md5 digest of path.
func MD5File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Checksums hashes the release tarballs found in dir. Missing archives are
// skipped and reported through warn; any other error is returned.
func (m *Metadata) Checksums(dir string, warn func(format string, args ...any)) ([]Checksum, error) {
	var sums []Checksum
	for _, name := range m.Tarballs() {
		sum, err := MD5File(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			if warn != nil {
				warn("tarball %s not found, skipping checksum", name)
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		sums = append(sums, Checksum{File: name, Sum: sum})
	}
	return sums, nil
}

// FormatChecksums joins checksums one per line.
func FormatChecksums(sums []Checksum) string {
	lines := make([]string, 0, len(sums))
	for _, s := range sums {
		lines = append(lines, s.String())
	}
	return strings.Join(lines, "\n")
}
