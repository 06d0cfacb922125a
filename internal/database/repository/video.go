package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/artur/clipvault/internal/database/models"
)

// DefaultRecentLimit is used when GetRecent is called without a positive limit
const DefaultRecentLimit = 50

const videoColumns = `id, video_id, url, title, description, creator_username, creator_display_name,
	duration_seconds, view_count, like_count, comment_count, share_count, upload_timestamp,
	download_timestamp, file_path, thumbnail_path, file_size_bytes, format_descriptor, tags,
	full_metadata, status, created_at, updated_at`

// VideoRepository handles video persistence
type VideoRepository struct {
	db *sql.DB
	settings
}

// NewVideoRepository creates a new VideoRepository
func NewVideoRepository(db *sql.DB, opts ...Option) *VideoRepository {
	return &VideoRepository{db: db, settings: newSettings(opts)}
}

// Upsert inserts the video or replaces every data column of the existing row
// with the same video_id. Fields absent from v are cleared, not merged.
func (r *VideoRepository) Upsert(ctx context.Context, v *models.Video) error {
	if v == nil {
		return errors.New("video is nil")
	}
	if v.VideoID == "" {
		return errors.New("video_id is empty")
	}

	now := r.now()
	downloadedAt := v.DownloadedAt
	if downloadedAt.IsZero() {
		downloadedAt = now
	}
	status := v.Status
	if status == "" {
		status = models.VideoStatusCompleted
	}

	var tags sql.NullString
	if len(v.Tags) > 0 {
		raw, err := json.Marshal(v.Tags)
		if err != nil {
			return fmt.Errorf("failed to encode tags: %w", err)
		}
		tags = sql.NullString{String: string(raw), Valid: true}
	}

	query := `
		INSERT INTO videos (
			video_id, url, title, description, creator_username, creator_display_name,
			duration_seconds, view_count, like_count, comment_count, share_count,
			upload_timestamp, download_timestamp, file_path, thumbnail_path, file_size_bytes,
			format_descriptor, tags, full_metadata, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			url = excluded.url,
			title = excluded.title,
			description = excluded.description,
			creator_username = excluded.creator_username,
			creator_display_name = excluded.creator_display_name,
			duration_seconds = excluded.duration_seconds,
			view_count = excluded.view_count,
			like_count = excluded.like_count,
			comment_count = excluded.comment_count,
			share_count = excluded.share_count,
			upload_timestamp = excluded.upload_timestamp,
			download_timestamp = excluded.download_timestamp,
			file_path = excluded.file_path,
			thumbnail_path = excluded.thumbnail_path,
			file_size_bytes = excluded.file_size_bytes,
			format_descriptor = excluded.format_descriptor,
			tags = excluded.tags,
			full_metadata = excluded.full_metadata,
			status = excluded.status,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		v.VideoID,
		nullString(v.URL),
		nullString(v.Title),
		nullString(v.Description),
		nullString(v.CreatorUsername),
		nullString(v.CreatorDisplayName),
		nonNegative(v.DurationSeconds),
		nonNegative(v.ViewCount),
		nonNegative(v.LikeCount),
		nonNegative(v.CommentCount),
		nonNegative(v.ShareCount),
		nullString(v.UploadTimestamp),
		formatTime(downloadedAt),
		nullString(v.FilePath),
		nullString(v.ThumbnailPath),
		nullInt64(nonNegative(v.FileSizeBytes)),
		nullString(v.FormatDescriptor),
		tags,
		nullString(v.FullMetadata),
		string(status),
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert video %s: %w", v.VideoID, err)
	}

	return nil
}

// GetByID retrieves a video by its video_id, nil when absent
func (r *VideoRepository) GetByID(ctx context.Context, videoID string) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE video_id = ?`

	v, err := scanVideo(r.db.QueryRowContext(ctx, query, videoID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return v, nil
}

// GetByCreator returns completed videos of a creator, newest download first
func (r *VideoRepository) GetByCreator(ctx context.Context, creatorUsername string) ([]models.Video, error) {
	query := `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE creator_username = ? AND status = ?
		ORDER BY download_timestamp DESC, id DESC
	`
	return r.list(ctx, query, creatorUsername, models.VideoStatusCompleted)
}

// GetRecent returns the most recently downloaded completed videos
func (r *VideoRepository) GetRecent(ctx context.Context, limit int) ([]models.Video, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	query := `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE status = ?
		ORDER BY download_timestamp DESC, id DESC
		LIMIT ?
	`
	return r.list(ctx, query, models.VideoStatusCompleted, limit)
}

// Search does a case-insensitive substring match over the selected field(s)
// of completed videos, newest download first
func (r *VideoRepository) Search(ctx context.Context, q string, field models.SearchField) ([]models.Video, error) {
	pattern := "%" + escapeLike(q) + "%"

	var where string
	var args []any
	switch field {
	case models.SearchTitle:
		where = `title LIKE ? ESCAPE '\'`
		args = []any{pattern}
	case models.SearchCreator:
		where = `creator_username LIKE ? ESCAPE '\'`
		args = []any{pattern}
	case models.SearchDescription:
		where = `description LIKE ? ESCAPE '\'`
		args = []any{pattern}
	case models.SearchAll, "":
		where = `(title LIKE ? ESCAPE '\' OR creator_username LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`
		args = []any{pattern, pattern, pattern}
	default:
		return nil, fmt.Errorf("unknown search field %q", field)
	}

	query := `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE ` + where + ` AND status = ?
		ORDER BY download_timestamp DESC, id DESC
	`
	args = append(args, models.VideoStatusCompleted)
	return r.list(ctx, query, args...)
}

// Count returns the number of rows with the given status
func (r *VideoRepository) Count(ctx context.Context, status models.VideoStatus) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos WHERE status = ?`, status).Scan(&count)
	return count, err
}

func (r *VideoRepository) list(ctx context.Context, query string, args ...any) ([]models.Video, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, *v)
	}

	return videos, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*models.Video, error) {
	v := &models.Video{}
	var (
		url, title, description, creator, displayName sql.NullString
		uploadTS, filePath, thumbPath, format         sql.NullString
		tags, fullMetadata                            sql.NullString
		fileSize                                      sql.NullInt64
		downloadTS, status, createdAt, updatedAt      string
	)

	err := row.Scan(
		&v.ID,
		&v.VideoID,
		&url,
		&title,
		&description,
		&creator,
		&displayName,
		&v.DurationSeconds,
		&v.ViewCount,
		&v.LikeCount,
		&v.CommentCount,
		&v.ShareCount,
		&uploadTS,
		&downloadTS,
		&filePath,
		&thumbPath,
		&fileSize,
		&format,
		&tags,
		&fullMetadata,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.URL = url.String
	v.Title = title.String
	v.Description = description.String
	v.CreatorUsername = creator.String
	v.CreatorDisplayName = displayName.String
	v.UploadTimestamp = uploadTS.String
	v.FilePath = filePath.String
	v.ThumbnailPath = thumbPath.String
	v.FileSizeBytes = fileSize.Int64
	v.FormatDescriptor = format.String
	v.FullMetadata = fullMetadata.String
	v.Status = models.VideoStatus(status)

	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &v.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags of %s: %w", v.VideoID, err)
		}
	}

	if v.DownloadedAt, err = parseTime(downloadTS); err != nil {
		return nil, err
	}
	if v.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if v.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return v, nil
}

func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
