package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/artur/clipvault/internal/logger"
	"github.com/artur/clipvault/internal/notify"
	"github.com/artur/clipvault/internal/report"
	"github.com/artur/clipvault/internal/session"
	"github.com/artur/clipvault/internal/urlsource"
)

const notifyTimeout = 30 * time.Second

// Runner processes one batch of URLs
type Runner interface {
	Run(ctx context.Context, urls []string, sourceFile string) (*session.Result, error)
}

// Reporter prints what happens around a run
type Reporter interface {
	Warnings(warnings []urlsource.Warning)
	DownloadSummary(res *session.Result)
}

type Source struct {
	DataDir     string
	DefaultFile string
	Domains     []string
}

type DownloadHandler struct {
	src      Source
	runner   Runner
	reporter Reporter
	notifier notify.Notifier
	in       io.Reader
	out      io.Writer
	log      logrus.FieldLogger
}

func NewDownloadHandler(src Source, runner Runner, reporter Reporter, notifier notify.Notifier, in io.Reader, out io.Writer, log logrus.FieldLogger) *DownloadHandler {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &DownloadHandler{
		src:      src,
		runner:   runner,
		reporter: reporter,
		notifier: notifier,
		in:       in,
		out:      out,
		log:      logger.Component(log, "download"),
	}
}

// CanHandle accepts no arguments or a single URL file
func (h *DownloadHandler) CanHandle(args []string) bool {
	return len(args) <= 1
}

func (h *DownloadHandler) Handle(ctx context.Context, args []string) error {
	var path string
	if len(args) == 1 {
		path = h.resolve(args[0])
	} else {
		var ok bool
		path, ok = h.selectFile()
		if !ok {
			return nil
		}
	}

	src, err := urlsource.Load(path, h.src.Domains...)
	if errors.Is(err, urlsource.ErrFileNotFound) {
		fmt.Fprintf(h.out, "❌ File not found: %s\n", path)
		fmt.Fprintf(h.out, "💡 Create it with one URL per line, or put .txt files in %s\n", h.src.DataDir)
		return nil
	}
	if err != nil {
		return err
	}

	h.reporter.Warnings(src.Warnings)
	if len(src.URLs) == 0 {
		fmt.Fprintf(h.out, "❌ No valid URLs found in %s\n", path)
		return nil
	}

	fmt.Fprintf(h.out, "📋 Found %d URLs in %s\n", len(src.URLs), path)
	h.log.WithField("file", path).Infof("Starting batch of %d URLs", len(src.URLs))

	res, runErr := h.runner.Run(ctx, src.URLs, path)
	if res == nil {
		return runErr
	}

	h.reporter.DownloadSummary(res)

	// the run may have been interrupted; the summary still goes out
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := h.notifier.Notify(nctx, res, path); err != nil {
		h.log.WithError(err).Warn("Failed to send notification")
	}

	return runErr
}

// resolve looks name up in the data directory unless it already exists as given
func (h *DownloadHandler) resolve(name string) string {
	if _, err := os.Stat(name); err == nil {
		return name
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(h.src.DataDir, name)
}

// selectFile asks which URL file in the data directory to use
func (h *DownloadHandler) selectFile() (string, bool) {
	files, err := urlsource.ListFiles(h.src.DataDir)
	if err != nil {
		h.log.WithError(err).Error("Failed to list URL files")
	}
	if len(files) == 0 {
		fmt.Fprintf(h.out, "❌ No .txt files found in %s\n", h.src.DataDir)
		fmt.Fprintf(h.out, "💡 Create %s with one URL per line\n", filepath.Join(h.src.DataDir, h.src.DefaultFile))
		return "", false
	}

	def := 0
	fmt.Fprintf(h.out, "📁 URL files in %s:\n", h.src.DataDir)
	for i, name := range files {
		marker := ""
		if name == h.src.DefaultFile {
			def = i + 1
			marker = " (default)"
		}
		fmt.Fprintf(h.out, "  %d. %s%s\n", i+1, name, marker)
	}

	prompt := fmt.Sprintf("\nSelect file (1-%d) or 'q' to quit: ", len(files))
	if def > 0 {
		prompt = fmt.Sprintf("\nSelect file (1-%d, Enter for %d) or 'q' to quit: ", len(files), def)
	}

	pr := report.NewPrompter(h.in, h.out)
	for {
		answer, ok := pr.Ask(prompt)
		if !ok {
			return "", false
		}
		switch {
		case answer == "q" || answer == "Q":
			fmt.Fprintln(h.out, "👋 Cancelled")
			return "", false
		case answer == "" && def > 0:
			return filepath.Join(h.src.DataDir, files[def-1]), true
		}

		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(files) {
			fmt.Fprintf(h.out, "❌ Invalid selection, enter a number between 1 and %d\n", len(files))
			continue
		}
		return filepath.Join(h.src.DataDir, files[n-1]), true
	}
}
