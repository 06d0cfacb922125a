package session

import (
	"encoding/json"
	"math"
	"time"

	"github.com/artur/clipvault/internal/database/models"
	"github.com/artur/clipvault/internal/downloader"
)

// BuildVideo maps extractor metadata onto a completed video row
func BuildVideo(meta *downloader.Metadata, url string, now time.Time) *models.Video {
	v := &models.Video{
		VideoID:            meta.ID,
		URL:                url,
		Title:              meta.Title,
		Description:        meta.Description,
		CreatorUsername:    meta.CreatorUsername(),
		CreatorDisplayName: meta.Uploader,
		DurationSeconds:    int64(math.Round(meta.Duration)),
		ViewCount:          meta.ViewCount,
		LikeCount:          meta.LikeCount,
		CommentCount:       meta.CommentCount,
		ShareCount:         meta.RepostCount,
		UploadTimestamp:    meta.UploadDate,
		DownloadedAt:       now,
		FilePath:           meta.Filename,
		ThumbnailPath:      meta.ThumbnailFile,
		FileSizeBytes:      meta.Size(),
		FormatDescriptor:   meta.Format,
		Tags:               meta.Tags,
		Status:             models.VideoStatusCompleted,
	}
	if meta.WebpageURL != "" {
		v.URL = meta.WebpageURL
	}
	if v.ThumbnailPath == "" {
		v.ThumbnailPath = meta.Thumbnail
	}
	if data, err := json.Marshal(meta.StrippedRaw()); err == nil {
		v.FullMetadata = string(data)
	}
	return v
}
