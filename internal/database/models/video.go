package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// VideoStatus is the outcome stored with a video row
type VideoStatus string

const (
	VideoStatusCompleted VideoStatus = "completed"
	VideoStatusFailed    VideoStatus = "failed"
)

// failedIDHexLen keeps 128 bits of the URL digest
const failedIDHexLen = 32

// Video represents one row of the videos table, keyed by VideoID
type Video struct {
	ID                 int64
	VideoID            string
	URL                string
	Title              string
	Description        string
	CreatorUsername    string
	CreatorDisplayName string
	DurationSeconds    int64
	ViewCount          int64
	LikeCount          int64
	CommentCount       int64
	ShareCount         int64
	UploadTimestamp    string
	DownloadedAt       time.Time
	FilePath           string
	ThumbnailPath      string
	FileSizeBytes      int64
	FormatDescriptor   string
	Tags               []string
	FullMetadata       string // JSON object
	Status             VideoStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// FailedVideoID derives the synthetic key used when extraction never produced an id.
// The same URL always maps to the same key.
func FailedVideoID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "failed_" + hex.EncodeToString(sum[:])[:failedIDHexLen]
}
