package downloader

import (
	"encoding/json"
)

// heavy sub-fields that never go into stored metadata
var strippedKeys = []string{
	"formats",
	"thumbnails",
	"automatic_captions",
	"subtitles",
	"requested_formats",
	"requested_downloads",
	"http_headers",
}

// Metadata is the extractor's description of one video. Field names follow
// yt-dlp's info dict; Raw keeps every field that was returned.
type Metadata struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Uploader       string   `json:"uploader"`
	UploaderID     string   `json:"uploader_id"`
	Duration       float64  `json:"duration"`
	ViewCount      int64    `json:"view_count"`
	LikeCount      int64    `json:"like_count"`
	CommentCount   int64    `json:"comment_count"`
	RepostCount    int64    `json:"repost_count"`
	UploadDate     string   `json:"upload_date"`
	Tags           []string `json:"tags"`
	WebpageURL     string   `json:"webpage_url"`
	Thumbnail      string   `json:"thumbnail"`
	Format         string   `json:"format"`
	Filename       string   `json:"_filename"`
	Filesize       int64    `json:"filesize"`
	FilesizeApprox float64  `json:"filesize_approx"`

	// ThumbnailFile is the local thumbnail written next to the video, if any
	ThumbnailFile string `json:"-"`

	Raw map[string]any `json:"-"`
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	type plain Metadata
	var aux struct {
		plain
		AltFilename string `json:"filename"`
		Thumbnails  []struct {
			Filepath string `json:"filepath"`
		} `json:"thumbnails"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = Metadata(aux.plain)
	m.Raw = raw
	if m.Filename == "" {
		m.Filename = aux.AltFilename
	}
	for i := len(aux.Thumbnails) - 1; i >= 0; i-- {
		if aux.Thumbnails[i].Filepath != "" {
			m.ThumbnailFile = aux.Thumbnails[i].Filepath
			break
		}
	}
	return nil
}

// CreatorUsername prefers the uploader name and falls back to its id
func (m *Metadata) CreatorUsername() string {
	if m.Uploader != "" {
		return m.Uploader
	}
	return m.UploaderID
}

// Size is the exact file size when known, otherwise the extractor's estimate
func (m *Metadata) Size() int64 {
	if m.Filesize > 0 {
		return m.Filesize
	}
	return int64(m.FilesizeApprox)
}

// StrippedRaw returns a copy of Raw without format lists, thumbnail lists,
// captions and request headers. It falls back to the typed fields when Raw is empty.
func (m *Metadata) StrippedRaw() map[string]any {
	out := make(map[string]any, len(m.Raw))
	if len(m.Raw) == 0 {
		data, err := json.Marshal(m)
		if err == nil {
			_ = json.Unmarshal(data, &out)
		}
		return out
	}

	for k, v := range m.Raw {
		out[k] = v
	}
	for _, k := range strippedKeys {
		delete(out, k)
	}
	return out
}
