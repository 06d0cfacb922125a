package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/artur/clipvault/internal/database/models"
)

// ErrSessionNotOpen is returned when closing a session that is missing or already closed
var ErrSessionNotOpen = errors.New("session not found or already closed")

const orphanNote = "marked interrupted: found open at startup"

const sessionColumns = `id, session_id, start_time, end_time, total_urls, successful_downloads,
	failed_downloads, success_rate, source_file, status, notes`

// SessionRepository handles download session persistence
type SessionRepository struct {
	db *sql.DB
	settings
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *sql.DB, opts ...Option) *SessionRepository {
	return &SessionRepository{db: db, settings: newSettings(opts)}
}

// Start records a new running session. Counts stay NULL until End.
func (r *SessionRepository) Start(ctx context.Context, sessionID string, totalURLs int, sourceFile string) error {
	query := `
		INSERT INTO download_sessions (session_id, start_time, total_urls, source_file, status)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		sessionID,
		formatTime(r.now()),
		totalURLs,
		nullString(sourceFile),
		models.SessionStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	return nil
}

// End closes an open session with its final counts and success rate,
// replacing any note left by an earlier sweep. A session can only be closed once.
func (r *SessionRepository) End(ctx context.Context, sessionID string, successful, failed int, status models.SessionStatus, notes string) error {
	query := `
		UPDATE download_sessions SET
			end_time = ?,
			successful_downloads = ?,
			failed_downloads = ?,
			success_rate = ?,
			status = ?,
			notes = ?
		WHERE session_id = ? AND end_time IS NULL
	`
	res, err := r.db.ExecContext(ctx, query,
		formatTime(r.now()),
		successful,
		failed,
		models.SuccessRate(successful, failed),
		status,
		nullString(notes),
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotOpen, sessionID)
	}
	return nil
}

// MarkOrphaned flags open sessions that outlived their time budget as
// interrupted. A session may run for budget per URL before it is considered
// abandoned; younger sessions may belong to a run still in progress and are
// left alone. A non-positive budget treats every open session as abandoned.
func (r *SessionRepository) MarkOrphaned(ctx context.Context, budget time.Duration) (int64, error) {
	query := `
		SELECT session_id, start_time, total_urls
		FROM download_sessions
		WHERE end_time IS NULL AND status = ?
	`
	rows, err := r.db.QueryContext(ctx, query, models.SessionStatusRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to list open sessions: %w", err)
	}

	now := r.now()
	var stale []string
	for rows.Next() {
		var (
			id, started string
			total       int
		)
		if err := rows.Scan(&id, &started, &total); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan open session: %w", err)
		}
		start, err := parseTime(started)
		if err != nil || budget <= 0 || now.Sub(start) > budget*time.Duration(max(total, 1)) {
			stale = append(stale, id)
		}
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return 0, fmt.Errorf("failed to list open sessions: %w", err)
	}

	update := `
		UPDATE download_sessions SET status = ?, notes = ?
		WHERE session_id = ? AND end_time IS NULL AND status = ?
	`
	var marked int64
	for _, id := range stale {
		res, err := r.db.ExecContext(ctx, update,
			models.SessionStatusInterrupted,
			orphanNote,
			id,
			models.SessionStatusRunning,
		)
		if err != nil {
			return marked, fmt.Errorf("failed to mark orphaned session %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return marked, fmt.Errorf("failed to mark orphaned session %s: %w", id, err)
		}
		marked += n
	}
	return marked, nil
}

// Get retrieves a session by id, nil when absent
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM download_sessions WHERE session_id = ?`

	s, err := scanSession(r.db.QueryRowContext(ctx, query, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// List returns the latest sessions, newest first
func (r *SessionRepository) List(ctx context.Context, limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	query := `
		SELECT ` + sessionColumns + `
		FROM download_sessions
		ORDER BY start_time DESC, id DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}

	return sessions, rows.Err()
}

func scanSession(row rowScanner) (*models.Session, error) {
	s := &models.Session{}
	var (
		startTime, status      string
		endTime, source, notes sql.NullString
		successful, failed     sql.NullInt64
		successRate            sql.NullFloat64
	)

	err := row.Scan(
		&s.ID,
		&s.SessionID,
		&startTime,
		&endTime,
		&s.TotalURLs,
		&successful,
		&failed,
		&successRate,
		&source,
		&status,
		&notes,
	)
	if err != nil {
		return nil, err
	}

	if s.StartTime, err = parseTime(startTime); err != nil {
		return nil, err
	}
	if endTime.Valid {
		t, err := parseTime(endTime.String)
		if err != nil {
			return nil, err
		}
		s.EndTime = &t
	}
	if successful.Valid {
		n := int(successful.Int64)
		s.SuccessfulDownloads = &n
	}
	if failed.Valid {
		n := int(failed.Int64)
		s.FailedDownloads = &n
	}
	if successRate.Valid {
		rate := successRate.Float64
		s.SuccessRate = &rate
	}
	s.SourceFile = source.String
	s.Status = models.SessionStatus(status)
	s.Notes = notes.String

	return s, nil
}
