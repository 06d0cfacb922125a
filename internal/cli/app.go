// Package cli dispatches clipvault's command line to its handlers: help, the
// db viewer and batch downloads.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/artur/clipvault/internal/logger"
)

// Handler serves one form of the command line
type Handler interface {
	CanHandle(args []string) bool
	Handle(ctx context.Context, args []string) error
}

type App struct {
	handlers []Handler
	out      io.Writer
	log      logrus.FieldLogger
}

func New(out io.Writer, log logrus.FieldLogger) *App {
	return &App{
		handlers: make([]Handler, 0),
		out:      out,
		log:      logger.Component(log, "cli"),
	}
}

// RegisterHandler adds h; handlers are tried in registration order
func (a *App) RegisterHandler(h Handler) {
	a.handlers = append(a.handlers, h)
	a.log.Debugf("Registered handler: %T", h)
}

// Run hands args to the first handler that accepts them
func (a *App) Run(ctx context.Context, args []string) error {
	for _, h := range a.handlers {
		if h.CanHandle(args) {
			a.log.Debugf("Handling with: %T", h)
			return h.Handle(ctx, args)
		}
	}

	fmt.Fprintln(a.out, Usage)
	return fmt.Errorf("unexpected arguments: %v", args)
}
