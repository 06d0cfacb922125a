package models

import (
	"fmt"
	"strings"
)

// CreatorCount is one entry of the top creators list
type CreatorCount struct {
	Username   string `json:"username"`
	VideoCount int64  `json:"video_count"`
}

// Statistics aggregates the videos table
type Statistics struct {
	TotalVideos     int64          `json:"total_videos"`
	FailedDownloads int64          `json:"failed_downloads"`
	UniqueCreators  int64          `json:"unique_creators"`
	TotalFileSize   int64          `json:"total_file_size"`
	TotalFileSizeMB float64        `json:"total_file_size_mb"`
	FirstDownload   string         `json:"first_download,omitempty"`
	LastDownload    string         `json:"last_download,omitempty"`
	TopCreators     []CreatorCount `json:"top_creators"`
}

// SearchField selects which columns a search matches against
type SearchField string

const (
	SearchAll         SearchField = "all"
	SearchTitle       SearchField = "title"
	SearchCreator     SearchField = "creator"
	SearchDescription SearchField = "description"
)

// ParseSearchField accepts the field names understood by search; empty means all
func ParseSearchField(s string) (SearchField, error) {
	switch f := SearchField(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return SearchAll, nil
	case SearchAll, SearchTitle, SearchCreator, SearchDescription:
		return f, nil
	default:
		return "", fmt.Errorf("unknown search field %q (want all, title, creator or description)", s)
	}
}
