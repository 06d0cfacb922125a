package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/artur/clipvault/internal/database/models"
	"github.com/artur/clipvault/internal/database/repository"
	"github.com/artur/clipvault/internal/logger"
)

// DefaultOpTimeout bounds every single store call
const DefaultOpTimeout = 5 * time.Second

// DefaultOrphanBudget is how long an open session may spend per URL before a
// later run treats it as abandoned: a probe and a download, 10m each
const DefaultOrphanBudget = 20 * time.Minute

// Store is the persistence boundary of a download run. Write methods never
// return errors: failures are logged and reported as false so that a storage
// hiccup cannot stop the download loop. Read methods return errors so callers
// can tell "nothing found" from "could not look".
type Store struct {
	videos   *repository.VideoRepository
	sessions *repository.SessionRepository
	stats    *repository.StatsRepository
	timeout  time.Duration
	orphan   time.Duration
	log      logrus.FieldLogger
}

type storeConfig struct {
	timeout  time.Duration
	orphan   time.Duration
	log      logrus.FieldLogger
	repoOpts []repository.Option
}

// StoreOption customises NewStore
type StoreOption func(*storeConfig)

// WithOpTimeout sets the per-call timeout. Non-positive values keep the default.
func WithOpTimeout(d time.Duration) StoreOption {
	return func(c *storeConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithOrphanBudget sets the per-URL time an open session gets before
// SweepOrphanedSessions marks it interrupted. Non-positive values keep the default.
func WithOrphanBudget(d time.Duration) StoreOption {
	return func(c *storeConfig) {
		if d > 0 {
			c.orphan = d
		}
	}
}

// WithLogger sets the logger used to report swallowed storage errors
func WithLogger(l logrus.FieldLogger) StoreOption {
	return func(c *storeConfig) { c.log = l }
}

// WithClock sets the time source for stored timestamps
func WithClock(now func() time.Time) StoreOption {
	return func(c *storeConfig) { c.repoOpts = append(c.repoOpts, repository.WithClock(now)) }
}

// NewStore creates a Store over an opened and migrated database
func NewStore(db *DB, opts ...StoreOption) *Store {
	cfg := storeConfig{timeout: DefaultOpTimeout, orphan: DefaultOrphanBudget, log: logger.Discard()}
	for _, o := range opts {
		o(&cfg)
	}

	return &Store{
		videos:   repository.NewVideoRepository(db.DB, cfg.repoOpts...),
		sessions: repository.NewSessionRepository(db.DB, cfg.repoOpts...),
		stats:    repository.NewStatsRepository(db.DB),
		timeout:  cfg.timeout,
		orphan:   cfg.orphan,
		log:      logger.Component(cfg.log, "db"),
	}
}

func (s *Store) op(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// opError makes a call that ran out of time report context.DeadlineExceeded
// whatever the driver returned
func opError(ctx context.Context, err error) error {
	if err == nil || ctx.Err() == nil || errors.Is(err, ctx.Err()) {
		return err
	}
	return fmt.Errorf("%w: %w", ctx.Err(), err)
}

// UpsertVideo inserts or replaces the video keyed by its video_id
func (s *Store) UpsertVideo(ctx context.Context, v *models.Video) bool {
	ctx, cancel := s.op(ctx)
	defer cancel()

	if err := s.videos.Upsert(ctx, v); err != nil {
		s.log.WithError(opError(ctx, err)).Error("Failed to store video")
		return false
	}
	return true
}

// RecordFailedDownload stores a failed row for url under its synthetic id,
// keeping the error text verbatim in full_metadata
func (s *Store) RecordFailedDownload(ctx context.Context, url, errMsg string) bool {
	meta, err := json.Marshal(map[string]string{"error": errMsg, "url": url})
	if err != nil {
		s.log.WithError(opError(ctx, err)).Error("Failed to encode failure metadata")
		return false
	}

	return s.UpsertVideo(ctx, &models.Video{
		VideoID:      models.FailedVideoID(url),
		URL:          url,
		FullMetadata: string(meta),
		Status:       models.VideoStatusFailed,
	})
}

// StartSession records the beginning of a run
func (s *Store) StartSession(ctx context.Context, sessionID string, totalURLs int, sourceFile string) bool {
	ctx, cancel := s.op(ctx)
	defer cancel()

	if err := s.sessions.Start(ctx, sessionID, totalURLs, sourceFile); err != nil {
		s.log.WithError(opError(ctx, err)).WithField("session_id", sessionID).Error("Failed to start session")
		return false
	}
	return true
}

// EndSession closes a run with its final counts
func (s *Store) EndSession(ctx context.Context, sessionID string, successful, failed int) bool {
	return s.closeSession(ctx, sessionID, successful, failed, models.SessionStatusCompleted, "")
}

// InterruptSession closes a run that was stopped early, keeping the counts reached so far
func (s *Store) InterruptSession(ctx context.Context, sessionID string, successful, failed int) bool {
	return s.closeSession(ctx, sessionID, successful, failed, models.SessionStatusInterrupted, "interrupted before all URLs were processed")
}

func (s *Store) closeSession(ctx context.Context, sessionID string, successful, failed int, status models.SessionStatus, notes string) bool {
	ctx, cancel := s.op(ctx)
	defer cancel()

	if err := s.sessions.End(ctx, sessionID, successful, failed, status, notes); err != nil {
		s.log.WithError(opError(ctx, err)).WithField("session_id", sessionID).Error("Failed to end session")
		return false
	}
	return true
}

// SweepOrphanedSessions marks sessions left open by a killed process as
// interrupted. Sessions still within their time budget are not touched.
func (s *Store) SweepOrphanedSessions(ctx context.Context) int64 {
	ctx, cancel := s.op(ctx)
	defer cancel()

	n, err := s.sessions.MarkOrphaned(ctx, s.orphan)
	if err != nil {
		s.log.WithError(opError(ctx, err)).Warn("Failed to sweep orphaned sessions")
		return 0
	}
	if n > 0 {
		s.log.WithField("count", n).Info("Marked orphaned sessions as interrupted")
	}
	return n
}

// GetVideo looks a video up by id; nil when absent
func (s *Store) GetVideo(ctx context.Context, videoID string) (*models.Video, error) {
	ctx, cancel := s.op(ctx)
	defer cancel()
	res, err := s.videos.GetByID(ctx, videoID)
	return res, opError(ctx, err)
}

// VideosByCreator lists a creator's completed videos, newest first
func (s *Store) VideosByCreator(ctx context.Context, creator string) ([]models.Video, error) {
	ctx, cancel := s.op(ctx)
	defer cancel()
	res, err := s.videos.GetByCreator(ctx, creator)
	return res, opError(ctx, err)
}

// RecentVideos lists the latest completed downloads
func (s *Store) RecentVideos(ctx context.Context, limit int) ([]models.Video, error) {
	ctx, cancel := s.op(ctx)
	defer cancel()
	res, err := s.videos.GetRecent(ctx, limit)
	return res, opError(ctx, err)
}

// SearchVideos matches completed videos by title, creator and/or description
func (s *Store) SearchVideos(ctx context.Context, query string, field models.SearchField) ([]models.Video, error) {
	ctx, cancel := s.op(ctx)
	defer cancel()
	res, err := s.videos.Search(ctx, query, field)
	return res, opError(ctx, err)
}

// Statistics aggregates the whole archive
func (s *Store) Statistics(ctx context.Context) (*models.Statistics, error) {
	ctx, cancel := s.op(ctx)
	defer cancel()
	res, err := s.stats.Statistics(ctx)
	return res, opError(ctx, err)
}

// Session fetches one session row; nil when absent
func (s *Store) Session(ctx context.Context, sessionID string) (*models.Session, error) {
	ctx, cancel := s.op(ctx)
	defer cancel()
	res, err := s.sessions.Get(ctx, sessionID)
	return res, opError(ctx, err)
}

// RecentSessions lists the latest runs
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]models.Session, error) {
	ctx, cancel := s.op(ctx)
	defer cancel()
	res, err := s.sessions.List(ctx, limit)
	return res, opError(ctx, err)
}
