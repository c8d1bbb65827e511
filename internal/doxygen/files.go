package doxygen

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/crypto/sha3"
)

const (
	xmlSuffix   = ".xml"
	xmlGzSuffix = ".xml.gz"
)

// Filter excludes files by gitignore-style patterns matched against the
// file name. A nil *Filter excludes nothing.
type Filter struct {
	gi *ignore.GitIgnore
}

// NewFilter compiles patterns such as "namespace*.xml" or "dir_*".
// It returns nil when no patterns are given.
func NewFilter(patterns ...string) *Filter {
	var lines []string
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			lines = append(lines, p)
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return &Filter{gi: ignore.CompileIgnoreLines(lines...)}
}

// Excluded reports whether name matches one of the filter patterns.
func (f *Filter) Excluded(name string) bool {
	if f == nil || f.gi == nil {
		return false
	}
	return f.gi.MatchesPath(name)
}

// Files lists the Doxygen XML files directly inside dir, sorted by name.
// Both plain ".xml" and gzip compressed ".xml.gz" files are returned.
func Files(dir string, filter *Filter) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read XML directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, xmlSuffix) && !strings.HasSuffix(name, xmlGzSuffix) {
			continue
		}
		if filter.Excluded(name) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}

	sort.Strings(files)
	return files, nil
}

// Open opens a Doxygen XML file, transparently decompressing ".gz" files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) //nolint:gosec // Paths come from the configured XML directory
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
	}
	return &gzipFile{Reader: zr, f: f}, nil
}

// gzipFile closes both the gzip stream and the underlying file.
type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	zerr := g.Reader.Close()
	ferr := g.f.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}

// Fingerprint returns a SHA3-256 digest over the base names and raw bytes of
// files, in the order given. Two runs over identical Doxygen output produce
// the same fingerprint.
func Fingerprint(files []string) (string, error) {
	h := sha3.New256()
	for _, path := range files {
		if _, err := io.WriteString(h, filepath.Base(path)); err != nil {
			return "", err
		}
		_, _ = h.Write([]byte{0})

		f, err := os.Open(path) //nolint:gosec // Paths come from the configured XML directory
		if err != nil {
			return "", fmt.Errorf("failed to fingerprint %s: %w", path, err)
		}
		_, err = io.Copy(h, f)
		_ = f.Close()
		if err != nil {
			return "", fmt.Errorf("failed to fingerprint %s: %w", path, err)
		}
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
