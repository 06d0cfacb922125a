package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

const na = "N/A"

// FormatFileSize renders a byte count with binary units, or N/A when unknown
func FormatFileSize(n int64) string {
	if n <= 0 {
		return na
	}
	return humanize.IBytes(uint64(n))
}

// FormatDuration renders seconds as m:ss, or N/A when unknown
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return na
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Truncate shortens s to n runes, marking the cut with "..."
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func orNA(s string) string {
	if s == "" {
		return na
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return na
	}
	return t.UTC().Format(time.DateTime)
}

// formatStoredTime trims a stored timestamp to seconds for display
func formatStoredTime(s string) string {
	if s == "" {
		return na
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return formatTime(t)
	}
	return s
}

// formatUploadDate turns yt-dlp's YYYYMMDD into YYYY-MM-DD and leaves anything else alone
func formatUploadDate(s string) string {
	if t, err := time.Parse("20060102", s); err == nil && len(s) == 8 {
		return t.Format(time.DateOnly)
	}
	return orNA(s)
}

// ColorFromMode resolves auto|always|never against the writer
func ColorFromMode(mode string, w io.Writer) bool {
	switch strings.ToLower(mode) {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

const (
	ansiReset   = "\033[0m"
	ansiRed     = "\033[31m"
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	ansiBlue    = "\033[34m"
	ansiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
)

type palette struct {
	enabled bool
}

func (p palette) paint(code, s string) string {
	if !p.enabled {
		return s
	}
	return code + s + ansiReset
}

func (p palette) red(s string) string     { return p.paint(ansiRed, s) }
func (p palette) green(s string) string   { return p.paint(ansiGreen, s) }
func (p palette) yellow(s string) string  { return p.paint(ansiYellow, s) }
func (p palette) blue(s string) string    { return p.paint(ansiBlue, s) }
func (p palette) magenta(s string) string { return p.paint(ansiMagenta, s) }
func (p palette) cyan(s string) string    { return p.paint(ansiCyan, s) }
