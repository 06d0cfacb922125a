package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/kkdai/youtube/v2"
)

const youtubeName = "youtube"

type Quality string

const (
	QualityLow    Quality = "360p"
	QualityMedium Quality = "480p"
	QualityHigh   Quality = "720p"
	QualityFull   Quality = "1080p"
)

const maxNameRunes = 80

type youtubeClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// YouTubeExtractor handles youtube.com and youtu.be links natively, without yt-dlp
type YouTubeExtractor struct {
	client     youtubeClient
	videosDir  string
	maxQuality Quality
}

func NewYouTubeExtractor(videosDir string, maxQuality Quality) *YouTubeExtractor {
	return newYouTubeExtractor(&youtube.Client{}, videosDir, maxQuality)
}

func newYouTubeExtractor(client youtubeClient, videosDir string, maxQuality Quality) *YouTubeExtractor {
	if maxQuality == "" {
		maxQuality = QualityHigh
	}
	return &YouTubeExtractor{
		client:     client,
		videosDir:  videosDir,
		maxQuality: maxQuality,
	}
}

func (d *YouTubeExtractor) Name() string { return youtubeName }

func (d *YouTubeExtractor) Extract(ctx context.Context, url string, download bool) (*Metadata, error) {
	video, err := d.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, extractionError(youtubeName, url, fmt.Errorf("failed to get video info: %w", err))
	}

	meta := videoMetadata(video)
	if !download {
		return meta, nil
	}

	format := selectFormat(video.Formats, parseQualityNum(string(d.maxQuality)))
	if format == nil {
		return nil, extractionError(youtubeName, url, errors.New("no mp4 format with audio found"))
	}

	path, size, err := d.save(ctx, video, format)
	if err != nil {
		return nil, extractionError(youtubeName, url, err)
	}

	meta.Filename = path
	meta.Filesize = size
	meta.Format = fmt.Sprintf("%d - %dx%d (%s)", format.ItagNo, format.Width, format.Height, format.QualityLabel)
	meta.Raw["_filename"] = path
	meta.Raw["filesize"] = size
	meta.Raw["format"] = meta.Format
	meta.Raw["format_id"] = fmt.Sprint(format.ItagNo)
	return meta, nil
}

func (d *YouTubeExtractor) save(ctx context.Context, video *youtube.Video, format *youtube.Format) (string, int64, error) {
	stream, _, err := d.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", 0, fmt.Errorf("failed to get stream: %w", err)
	}
	defer stream.Close()

	if err := os.MkdirAll(d.videosDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create videos directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(d.videosDir, "yt-*.part")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer tmpFile.Close()

	size, err := io.Copy(tmpFile, stream)
	if err != nil {
		os.Remove(tmpFile.Name())
		return "", 0, fmt.Errorf("failed to download video: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpFile.Name())
		return "", 0, fmt.Errorf("failed to write video: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s.mp4", sanitizeName(video.Author), sanitizeName(video.Title), video.ID)
	path := filepath.Join(d.videosDir, name)
	if err := os.Rename(tmpFile.Name(), path); err != nil {
		os.Remove(tmpFile.Name())
		return "", 0, fmt.Errorf("failed to move video into place: %w", err)
	}
	return path, size, nil
}

func videoMetadata(video *youtube.Video) *Metadata {
	meta := &Metadata{
		ID:          video.ID,
		Title:       video.Title,
		Description: video.Description,
		Uploader:    video.Author,
		UploaderID:  video.ChannelHandle,
		Duration:    video.Duration.Seconds(),
		ViewCount:   int64(video.Views),
		WebpageURL:  "https://www.youtube.com/watch?v=" + video.ID,
	}
	if meta.UploaderID == "" {
		meta.UploaderID = video.ChannelID
	}
	if !video.PublishDate.IsZero() {
		meta.UploadDate = video.PublishDate.Format("20060102")
	}
	if n := len(video.Thumbnails); n > 0 {
		meta.Thumbnail = video.Thumbnails[n-1].URL
	}

	meta.Raw = map[string]any{
		"id":          meta.ID,
		"title":       meta.Title,
		"description": meta.Description,
		"uploader":    meta.Uploader,
		"uploader_id": meta.UploaderID,
		"channel_id":  video.ChannelID,
		"duration":    meta.Duration,
		"view_count":  meta.ViewCount,
		"upload_date": meta.UploadDate,
		"webpage_url": meta.WebpageURL,
		"thumbnail":   meta.Thumbnail,
		"extractor":   youtubeName,
	}
	return meta
}

// selectFormat picks the highest mp4 with audio at or under maxHeight,
// preferring the smaller file between equal qualities. If nothing fits the
// cap, the lowest quality mp4 with audio is used.
func selectFormat(formats youtube.FormatList, maxHeight int) *youtube.Format {
	withAudio := formats.WithAudioChannels()

	var best, lowest *youtube.Format
	bestQ, lowestQ := 0, 0
	for i := range withAudio {
		f := &withAudio[i]
		if !strings.Contains(f.MimeType, "video/mp4") {
			continue
		}

		q := parseQualityNum(f.QualityLabel)
		if q == 0 {
			q = f.Height
		}

		if lowest == nil || q < lowestQ {
			lowest, lowestQ = f, q
		}
		if maxHeight > 0 && q > maxHeight {
			continue
		}
		if best == nil || q > bestQ || (q == bestQ && f.ContentLength < best.ContentLength) {
			best, bestQ = f, q
		}
	}

	if best == nil {
		return lowest
	}
	return best
}

func parseQualityNum(quality string) int {
	var num int
	fmt.Sscanf(quality, "%dp", &num)
	return num
}

func sanitizeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r), unicode.IsControl(r):
			return '_'
		case unicode.IsSpace(r):
			return ' '
		}
		return r
	}, strings.TrimSpace(s))

	if r := []rune(s); len(r) > maxNameRunes {
		s = string(r[:maxNameRunes])
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	return s
}
