package downloader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedExtractor struct{ name string }

func (n namedExtractor) Name() string { return n.name }

func (n namedExtractor) Extract(ctx context.Context, url string, download bool) (*Metadata, error) {
	return &Metadata{ID: n.name}, nil
}

func TestRouter_For(t *testing.T) {
	def := namedExtractor{"yt-dlp"}
	yt := namedExtractor{"youtube"}
	r := NewRouter(def, Route{Hosts: []string{"youtube.com", "youtu.be"}, Extractor: yt})

	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/shorts/abc", "youtube"},
		{"https://youtu.be/abc", "youtube"},
		{"https://M.YouTube.com/watch?v=abc", "youtube"},
		{"https://www.tiktok.com/@a/video/1", "yt-dlp"},
		{"https://notyoutube.com/x", "yt-dlp"},
		{"not a url", "yt-dlp"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, r.For(tt.url).Name())
		})
	}
	assert.Equal(t, "router(yt-dlp,youtube)", r.Name())
}

func TestRouter_Extract(t *testing.T) {
	r := NewRouter(namedExtractor{"yt-dlp"})
	meta, err := r.Extract(context.Background(), "https://www.tiktok.com/@a/video/1", false)
	require.NoError(t, err)
	assert.Equal(t, "yt-dlp", meta.ID)

	r = NewRouter(nil, Route{Hosts: []string{"youtube.com"}, Extractor: namedExtractor{"youtube"}})
	_, err = r.Extract(context.Background(), "https://www.tiktok.com/@a/video/1", false)
	assert.True(t, errors.Is(err, ErrUnsupportedURL))
}
