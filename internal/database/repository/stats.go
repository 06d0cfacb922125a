package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/artur/clipvault/internal/database/models"
)

const topCreatorsLimit = 10

// StatsRepository computes aggregate statistics over the videos table
type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Statistics returns counts, storage usage, download date range and top creators
func (r *StatsRepository) Statistics(ctx context.Context) (*models.Statistics, error) {
	stats := &models.Statistics{}

	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COUNT(DISTINCT CASE WHEN status = ? THEN creator_username END),
			COALESCE(SUM(CASE WHEN status = ? THEN file_size_bytes END), 0),
			MIN(CASE WHEN status = ? THEN download_timestamp END),
			MAX(CASE WHEN status = ? THEN download_timestamp END)
		FROM videos
	`
	completed := models.VideoStatusCompleted
	var first, last sql.NullString
	err := r.db.QueryRowContext(ctx, query,
		completed, models.VideoStatusFailed, completed, completed, completed, completed,
	).Scan(
		&stats.TotalVideos,
		&stats.FailedDownloads,
		&stats.UniqueCreators,
		&stats.TotalFileSize,
		&first,
		&last,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}
	stats.FirstDownload = first.String
	stats.LastDownload = last.String
	stats.TotalFileSizeMB = models.RoundTo(float64(stats.TotalFileSize)/(1024*1024), 2)

	stats.TopCreators, err = r.TopCreators(ctx, topCreatorsLimit)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// TopCreators returns creators with the most completed videos (top N)
func (r *StatsRepository) TopCreators(ctx context.Context, limit int) ([]models.CreatorCount, error) {
	query := `
		SELECT creator_username, COUNT(*) as video_count
		FROM videos
		WHERE status = ? AND creator_username IS NOT NULL
		GROUP BY creator_username
		ORDER BY video_count DESC, creator_username ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, models.VideoStatusCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top creators: %w", err)
	}
	defer rows.Close()

	results := make([]models.CreatorCount, 0, limit)
	for rows.Next() {
		var item models.CreatorCount
		if err := rows.Scan(&item.Username, &item.VideoCount); err != nil {
			return nil, fmt.Errorf("failed to scan creator count: %w", err)
		}
		results = append(results, item)
	}

	return results, rows.Err()
}
