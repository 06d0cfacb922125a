package cli

import (
	"context"
	"fmt"
	"io"
)

const Usage = `clipvault - batch video downloader with a searchable archive

Usage:
  clipvault [flags] [file]      Download every URL listed in file
  clipvault [flags]             Pick a URL file from the data directory
  clipvault [flags] db [cmd]    Browse the archive (see "clipvault db help")
  clipvault help                Show this help

URL files hold one URL per line. Blank lines and lines starting with # are
ignored. A file name is looked up in the data directory unless it is an
existing path.

Flags:
  --config string      path to a config file
  --workers int        parallel downloads (1-10)
  --db string          path to the SQLite database
  --log-level string   log level (debug, info, warn, error)`

type HelpHandler struct {
	out io.Writer
}

func NewHelpHandler(out io.Writer) *HelpHandler {
	return &HelpHandler{out: out}
}

func (h *HelpHandler) CanHandle(args []string) bool {
	if len(args) == 0 {
		return false
	}
	switch args[0] {
	case "help", "-h", "--help":
		return true
	}
	return false
}

func (h *HelpHandler) Handle(ctx context.Context, args []string) error {
	_, err := fmt.Fprintln(h.out, Usage)
	return err
}
