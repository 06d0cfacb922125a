package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const runLogTimeLayout = "20060102_150405"

// SuccessEntry is one downloaded URL
type SuccessEntry struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Creator   string    `json:"creator"`
	VideoID   string    `json:"video_id"`
	Timestamp time.Time `json:"timestamp"`
}

// FailureEntry is one URL that could not be downloaded
type FailureEntry struct {
	URL       string    `json:"url"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// RunLog is the per-run JSON artifact written next to the other logs
type RunLog struct {
	SessionID           string         `json:"session_id"`
	Timestamp           time.Time      `json:"timestamp"`
	SourceFile          string         `json:"source_file,omitempty"`
	TotalURLs           int            `json:"total_urls"`
	SuccessfulDownloads int            `json:"successful_downloads"`
	FailedDownloads     int            `json:"failed_downloads"`
	SuccessRate         float64        `json:"success_rate"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	Successful          []SuccessEntry `json:"successful"`
	Failed              []FailureEntry `json:"failed"`
}

// maxRunLogSuffix bounds the search for a free name among runs started in the same second
const maxRunLogSuffix = 1000

// RunLogName is the file name used for a run started at t. A positive n marks
// the n-th extra run that started in the same second.
func RunLogName(t time.Time, n int) string {
	if n > 0 {
		return fmt.Sprintf("download_log_%s_%d.json", t.Format(runLogTimeLayout), n)
	}
	return fmt.Sprintf("download_log_%s.json", t.Format(runLogTimeLayout))
}

// WriteRunLog writes l into dir as download_log_<started>.json and returns its
// path. An existing log is never overwritten: a numeric suffix is added instead.
func WriteRunLog(dir string, started time.Time, l *RunLog) (string, error) {
	if l.Successful == nil {
		l.Successful = []SuccessEntry{}
	}
	if l.Failed == nil {
		l.Failed = []FailureEntry{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return "", fmt.Errorf("failed to encode run log: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	for n := 0; n < maxRunLogSuffix; n++ {
		path := filepath.Join(dir, RunLogName(started, n))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create run log: %w", err)
		}

		_, werr := f.Write(buf.Bytes())
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return "", fmt.Errorf("failed to write run log: %w", werr)
		}
		return path, nil
	}
	return "", fmt.Errorf("failed to write run log: no free name for %s", RunLogName(started, 0))
}
