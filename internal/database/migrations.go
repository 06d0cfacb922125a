package database

import (
	"fmt"
)

// Migrate runs all database migrations
func (db *DB) Migrate() error {
	migrations := []string{
		// Videos table, one row per video_id
		`CREATE TABLE IF NOT EXISTS videos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			video_id TEXT NOT NULL UNIQUE,
			url TEXT,
			title TEXT,
			description TEXT,
			creator_username TEXT,
			creator_display_name TEXT,
			duration_seconds INTEGER NOT NULL DEFAULT 0,
			view_count INTEGER NOT NULL DEFAULT 0,
			like_count INTEGER NOT NULL DEFAULT 0,
			comment_count INTEGER NOT NULL DEFAULT 0,
			share_count INTEGER NOT NULL DEFAULT 0,
			upload_timestamp TEXT,
			download_timestamp TEXT NOT NULL,
			file_path TEXT,
			thumbnail_path TEXT,
			file_size_bytes INTEGER,
			format_descriptor TEXT,
			tags TEXT,
			full_metadata TEXT,
			status TEXT NOT NULL DEFAULT 'completed',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_creator_username ON videos(creator_username)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_download_timestamp ON videos(download_timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_status ON videos(status)`,

		// Download sessions table, one row per run
		`CREATE TABLE IF NOT EXISTS download_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL UNIQUE,
			start_time TEXT NOT NULL,
			end_time TEXT,
			total_urls INTEGER NOT NULL DEFAULT 0,
			successful_downloads INTEGER,
			failed_downloads INTEGER,
			success_rate REAL,
			source_file TEXT,
			status TEXT NOT NULL DEFAULT 'running',
			notes TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_download_sessions_start_time ON download_sessions(start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_download_sessions_end_time ON download_sessions(end_time)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	return nil
}
