// Package session runs one batch of URLs through the extractor, records every
// outcome in the store and closes the session with its final counts.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/artur/clipvault/internal/database/models"
	"github.com/artur/clipvault/internal/downloader"
	"github.com/artur/clipvault/internal/logger"
)

const (
	DefaultWorkers = 1
	unknown        = "Unknown"
)

// Store is the persistence the orchestrator writes to. Implementations are
// best-effort: a false result is logged by the caller and never stops a run.
type Store interface {
	UpsertVideo(ctx context.Context, v *models.Video) bool
	RecordFailedDownload(ctx context.Context, url, errMsg string) bool
	StartSession(ctx context.Context, sessionID string, totalURLs int, sourceFile string) bool
	EndSession(ctx context.Context, sessionID string, successful, failed int) bool
	InterruptSession(ctx context.Context, sessionID string, successful, failed int) bool
	SweepOrphanedSessions(ctx context.Context) int64
}

// Stage marks where a URL is in its processing
type Stage int

const (
	StageStarted Stage = iota
	StageProbed
	StageDownloaded
	StageFailed
)

// Event reports progress on one URL
type Event struct {
	Index   int // zero-based position in the input
	Total   int
	URL     string
	Stage   Stage
	Title   string
	Creator string
	Err     error
}

type Result struct {
	SessionID   string
	Successful  []SuccessEntry
	Failed      []FailureEntry
	LogPath     string
	Interrupted bool
}

// Total is the number of URLs that reached a terminal state
func (r *Result) Total() int {
	return len(r.Successful) + len(r.Failed)
}

func (r *Result) SuccessRate() float64 {
	return models.SuccessRate(len(r.Successful), len(r.Failed))
}

type Orchestrator struct {
	store     Store
	extractor downloader.Extractor
	workers   int
	logsDir   string
	log       logrus.FieldLogger
	now       func() time.Time
	newID     func() string
	onEvent   func(Event)
	eventMu   sync.Mutex
}

type Option func(*Orchestrator)

// WithWorkers bounds how many URLs are processed at once; 1 is strictly sequential
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithLogsDir sets where run logs are written; empty disables them
func WithLogsDir(dir string) Option {
	return func(o *Orchestrator) { o.logsDir = dir }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Orchestrator) { o.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) { o.newID = newID }
}

// WithProgress registers a callback for per-URL events. Calls are serialized.
func WithProgress(fn func(Event)) Option {
	return func(o *Orchestrator) { o.onEvent = fn }
}

func New(store Store, extractor downloader.Extractor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		extractor: extractor,
		workers:   DefaultWorkers,
		log:       logger.Discard(),
		now:       time.Now,
		newID:     newSessionID,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = logger.Component(o.log, "session")
	return o
}

func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

type outcome struct {
	success *SuccessEntry
	failure *FailureEntry
}

// Run processes urls and closes the session. An empty list is a no-op that
// creates no session. When ctx is cancelled no further URLs are started, the
// session is closed as interrupted with the counts reached so far, and the
// context error is returned alongside the partial result.
func (o *Orchestrator) Run(ctx context.Context, urls []string, sourceFile string) (*Result, error) {
	if len(urls) == 0 {
		return &Result{}, nil
	}

	// writes that must land even after an interrupt
	storeCtx := context.WithoutCancel(ctx)

	o.store.SweepOrphanedSessions(storeCtx)

	started := o.now()
	res := &Result{SessionID: o.newID()}
	log := o.log.WithField("session_id", res.SessionID)

	if !o.store.StartSession(storeCtx, res.SessionID, len(urls), sourceFile) {
		log.Warn("Session row was not created, continuing without it")
	}
	log.WithFields(logrus.Fields{
		"urls":    len(urls),
		"workers": o.workers,
		"source":  sourceFile,
	}).Info("Starting download session")

	outcomes := make([]outcome, len(urls))

	var g errgroup.Group
	g.SetLimit(o.workers)
	for i, url := range urls {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcomes[i] = o.process(ctx, storeCtx, i, len(urls), url)
			return nil
		})
	}
	_ = g.Wait()

	for _, out := range outcomes {
		switch {
		case out.success != nil:
			res.Successful = append(res.Successful, *out.success)
		case out.failure != nil:
			res.Failed = append(res.Failed, *out.failure)
		}
	}

	res.Interrupted = ctx.Err() != nil && res.Total() < len(urls)

	ok, failed := len(res.Successful), len(res.Failed)
	var closed bool
	if res.Interrupted {
		closed = o.store.InterruptSession(storeCtx, res.SessionID, ok, failed)
	} else {
		closed = o.store.EndSession(storeCtx, res.SessionID, ok, failed)
	}
	if !closed {
		log.Warn("Session row was not closed")
	}

	if o.logsDir != "" {
		path, err := WriteRunLog(o.logsDir, started, &RunLog{
			SessionID:           res.SessionID,
			Timestamp:           o.now(),
			SourceFile:          sourceFile,
			TotalURLs:           len(urls),
			SuccessfulDownloads: ok,
			FailedDownloads:     failed,
			SuccessRate:         res.SuccessRate(),
			Interrupted:         res.Interrupted,
			Successful:          res.Successful,
			Failed:              res.Failed,
		})
		if err != nil {
			log.WithError(err).Error("Failed to save run log")
		} else {
			res.LogPath = path
		}
	}

	log.WithFields(logrus.Fields{
		"successful":  ok,
		"failed":      failed,
		"interrupted": res.Interrupted,
	}).Info("Download session finished")

	if res.Interrupted {
		return res, ctx.Err()
	}
	return res, nil
}

// process handles one URL. The zero outcome means the URL was cut off by
// cancellation and is not counted.
func (o *Orchestrator) process(ctx, storeCtx context.Context, idx, total int, url string) (out outcome) {
	log := o.log.WithField("url", url)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic while processing %s: %v", url, r)
			log.WithError(err).Error("Recovered from panic")
			out = o.fail(storeCtx, idx, total, url, err)
		}
	}()

	if ctx.Err() != nil {
		return outcome{}
	}
	o.emit(Event{Index: idx, Total: total, URL: url, Stage: StageStarted})

	probe, err := o.extractor.Extract(ctx, url, false)
	if err != nil {
		if cancelled(ctx, err) {
			return outcome{}
		}
		return o.fail(storeCtx, idx, total, url, err)
	}
	o.emit(Event{Index: idx, Total: total, URL: url, Stage: StageProbed, Title: orUnknown(probe.Title), Creator: orUnknown(probe.CreatorUsername())})

	meta, err := o.extractor.Extract(ctx, url, true)
	if err != nil {
		if cancelled(ctx, err) {
			return outcome{}
		}
		return o.fail(storeCtx, idx, total, url, err)
	}
	if meta.ID == "" {
		return o.fail(storeCtx, idx, total, url, errors.New("extractor returned no video id"))
	}

	now := o.now()
	if !o.store.UpsertVideo(storeCtx, BuildVideo(meta, url, now)) {
		log.Warn("Video downloaded but not recorded")
	}

	entry := &SuccessEntry{
		URL:       url,
		Title:     orUnknown(meta.Title),
		Creator:   orUnknown(meta.CreatorUsername()),
		VideoID:   meta.ID,
		Timestamp: now,
	}
	log.WithFields(logrus.Fields{"video_id": meta.ID, "title": entry.Title}).Debug("Downloaded")
	o.emit(Event{Index: idx, Total: total, URL: url, Stage: StageDownloaded, Title: entry.Title, Creator: entry.Creator})

	return outcome{success: entry}
}

func (o *Orchestrator) fail(storeCtx context.Context, idx, total int, url string, err error) outcome {
	msg := err.Error()
	if !o.store.RecordFailedDownload(storeCtx, url, msg) {
		o.log.WithField("url", url).Warn("Failure not recorded")
	}
	o.log.WithField("url", url).WithError(err).Warn("Download failed")
	o.emit(Event{Index: idx, Total: total, URL: url, Stage: StageFailed, Err: err})

	return outcome{failure: &FailureEntry{URL: url, Error: msg, Timestamp: o.now()}}
}

func (o *Orchestrator) emit(e Event) {
	if o.onEvent == nil {
		return
	}
	o.eventMu.Lock()
	defer o.eventMu.Unlock()
	o.onEvent(e)
}

// cancelled reports whether an extraction error happened after ctx was
// cancelled; such URLs are left uncounted
func cancelled(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}
