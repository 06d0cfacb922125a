// Package urlsource reads batch URL files: one URL per line, blank lines and
// lines starting with # ignored.
package urlsource

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrFileNotFound is returned by Load when the URL file does not exist
var ErrFileNotFound = errors.New("url file not found")

const maxLineSize = 1 << 20

// Warning is a non-empty, non-comment line that was skipped
type Warning struct {
	Line int
	Text string
}

func (w Warning) String() string {
	return fmt.Sprintf("Line %d: Not a supported URL - %s", w.Line, w.Text)
}

type Result struct {
	URLs     []string
	Warnings []Warning
}

// Load reads path and keeps every line containing one of domains, in file
// order and without deduplication. With no domains every line is kept.
func Load(path string, domains ...string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return Result{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	res, err := Parse(f, domains...)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return res, nil
}

// Parse applies Load's line rules to r
func Parse(r io.Reader, domains ...string) (Result, error) {
	lower := make([]string, 0, len(domains))
	for _, d := range domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			lower = append(lower, d)
		}
	}

	var res Result
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for n := 1; sc.Scan(); n++ {
		line := sc.Text()
		if n == 1 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if matches(line, lower) {
			res.URLs = append(res.URLs, line)
		} else {
			res.Warnings = append(res.Warnings, Warning{Line: n, Text: line})
		}
	}
	if err := sc.Err(); err != nil {
		return Result{}, err
	}

	return res, nil
}

func matches(line string, domains []string) bool {
	if len(domains) == 0 {
		return true
	}
	l := strings.ToLower(line)
	for _, d := range domains {
		if strings.Contains(l, d) {
			return true
		}
	}
	return false
}

// ListFiles returns the names of the .txt files directly inside dir, sorted
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
