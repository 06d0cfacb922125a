package cli

import (
	"context"
	"io"
)

// Viewer runs db subcommands
type Viewer interface {
	RunDB(ctx context.Context, args []string, in io.Reader) error
}

type DBHandler struct {
	viewer Viewer
	in     io.Reader
}

func NewDBHandler(viewer Viewer, in io.Reader) *DBHandler {
	return &DBHandler{viewer: viewer, in: in}
}

func (h *DBHandler) CanHandle(args []string) bool {
	return len(args) > 0 && args[0] == "db"
}

func (h *DBHandler) Handle(ctx context.Context, args []string) error {
	return h.viewer.RunDB(ctx, args[1:], h.in)
}
