// Package database owns the SQLite store: connection setup, schema migrations
// and the best-effort Store facade used by the download loop.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection pool
type DB struct {
	*sql.DB
}

type options struct {
	busyTimeout  time.Duration
	maxOpenConns int
}

// Option customises New
type Option func(*options)

// WithBusyTimeout sets PRAGMA busy_timeout. Default: 10s.
func WithBusyTimeout(d time.Duration) Option { return func(o *options) { o.busyTimeout = d } }

// WithMaxOpenConns bounds the pool. Default: 4.
func WithMaxOpenConns(n int) Option { return func(o *options) { o.maxOpenConns = n } }

// New opens (creating if needed) the database at path and applies the pragmas.
// Every repository call borrows a pooled connection for its own duration only,
// so readers and the download loop can use the file at the same time.
func New(path string, opts ...Option) (*DB, error) {
	o := options{busyTimeout: 10 * time.Second, maxOpenConns: 4}
	for _, opt := range opts {
		opt(&o)
	}

	memory := path == ":memory:"
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// pragmas go in the DSN so that every pooled connection gets them
	pragmas := []string{
		"foreign_keys(1)",
		fmt.Sprintf("busy_timeout(%d)", o.busyTimeout.Milliseconds()),
		"synchronous(NORMAL)",
	}
	if !memory {
		pragmas = append(pragmas, "journal_mode(WAL)")
	}
	dsn := path + "?_pragma=" + strings.Join(pragmas, "&_pragma=")

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// each :memory: connection is a separate database
	if memory || o.maxOpenConns < 1 {
		o.maxOpenConns = 1
	}
	conn.SetMaxOpenConns(o.maxOpenConns)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: conn}, nil
}
