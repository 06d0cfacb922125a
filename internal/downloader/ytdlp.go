package downloader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const ytdlpName = "yt-dlp"

// Runner executes a command and returns its captured output
type Runner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = os.Environ()
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// YtDlpConfig controls how the yt-dlp binary is invoked
type YtDlpConfig struct {
	Path           string
	Format         string
	OutputTemplate string
	VideosDir      string
	MetadataDir    string
	WriteThumbnail bool
	WriteInfoJSON  bool
	Timeout        time.Duration
}

// YtDlpExtractor drives the yt-dlp command line tool
type YtDlpExtractor struct {
	cfg YtDlpConfig
	run Runner
}

type YtDlpOption func(*YtDlpExtractor)

// WithRunner replaces the process runner
func WithRunner(r Runner) YtDlpOption {
	return func(e *YtDlpExtractor) { e.run = r }
}

func NewYtDlpExtractor(cfg YtDlpConfig, opts ...YtDlpOption) *YtDlpExtractor {
	if cfg.Path == "" {
		cfg.Path = ytdlpName
	}
	if cfg.OutputTemplate == "" {
		cfg.OutputTemplate = "%(uploader)s_%(title)s_%(id)s.%(ext)s"
	}

	e := &YtDlpExtractor{cfg: cfg, run: execRunner}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *YtDlpExtractor) Name() string { return ytdlpName }

func (e *YtDlpExtractor) Extract(ctx context.Context, url string, download bool) (*Metadata, error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	stdout, stderr, err := e.run(ctx, e.cfg.Path, e.args(url, download)...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, extractionError(ytdlpName, url, fmt.Errorf("yt-dlp stopped: %w", ctxErr))
		}
		return nil, extractionError(ytdlpName, url, errors.New(errorMessage(stderr, err)))
	}

	meta, err := parseDump(stdout)
	if err != nil {
		return nil, extractionError(ytdlpName, url, err)
	}

	if download && meta.Filesize == 0 && meta.Filename != "" {
		if info, statErr := os.Stat(meta.Filename); statErr == nil {
			meta.Filesize = info.Size()
		}
	}

	return meta, nil
}

func (e *YtDlpExtractor) args(url string, download bool) []string {
	args := []string{"--dump-json", "--no-warnings", "--no-playlist"}
	if !download {
		return append(args, "--skip-download", "--", url)
	}

	args = append(args, "--no-simulate")
	if e.cfg.Format != "" {
		args = append(args, "-f", e.cfg.Format)
	}
	args = append(args, "-o", filepath.Join(e.cfg.VideosDir, e.cfg.OutputTemplate))
	if e.cfg.WriteThumbnail {
		args = append(args, "--write-thumbnail")
	}
	if e.cfg.WriteInfoJSON {
		args = append(args, "--write-info-json")
		if e.cfg.MetadataDir != "" {
			args = append(args, "-o", "infojson:"+filepath.Join(e.cfg.MetadataDir, "%(id)s"))
		}
	}
	return append(args, "--", url)
}

// parseDump decodes the last JSON object yt-dlp printed
func parseDump(stdout []byte) (*Metadata, error) {
	lines := bytes.Split(bytes.TrimSpace(stdout), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var meta Metadata
		if err := json.Unmarshal(line, &meta); err != nil {
			return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
		}
		return &meta, nil
	}
	return nil, errors.New("yt-dlp returned no metadata")
}

// errorMessage picks yt-dlp's last "ERROR:" line, else its last stderr line
func errorMessage(stderr []byte, err error) string {
	var last, lastErr string
	for _, line := range strings.Split(string(stderr), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "ERROR:") {
			lastErr = line
		}
		last = line
	}
	switch {
	case lastErr != "":
		return lastErr
	case last != "":
		return last
	default:
		return fmt.Sprintf("yt-dlp failed: %v", err)
	}
}
