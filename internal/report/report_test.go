package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artur/clipvault/internal/database/models"
	"github.com/artur/clipvault/internal/session"
	"github.com/artur/clipvault/internal/urlsource"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeQuerier struct {
	videos   []models.Video
	sessions []models.Session
	stats    *models.Statistics
	err      error

	lastLimit int
	lastField models.SearchField
	lastQuery string
	creator   string
}

func (q *fakeQuerier) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	if q.err != nil {
		return nil, q.err
	}
	for i := range q.videos {
		if q.videos[i].VideoID == id {
			return &q.videos[i], nil
		}
	}
	return nil, nil
}

func (q *fakeQuerier) VideosByCreator(ctx context.Context, creator string) ([]models.Video, error) {
	q.creator = creator
	var out []models.Video
	for _, v := range q.videos {
		if v.CreatorUsername == creator {
			out = append(out, v)
		}
	}
	return out, q.err
}

func (q *fakeQuerier) RecentVideos(ctx context.Context, limit int) ([]models.Video, error) {
	q.lastLimit = limit
	return q.videos[:min(limit, len(q.videos))], q.err
}

func (q *fakeQuerier) SearchVideos(ctx context.Context, query string, field models.SearchField) ([]models.Video, error) {
	q.lastQuery, q.lastField = query, field
	return q.videos, q.err
}

func (q *fakeQuerier) Statistics(ctx context.Context) (*models.Statistics, error) {
	return q.stats, q.err
}

func (q *fakeQuerier) RecentSessions(ctx context.Context, limit int) ([]models.Session, error) {
	q.lastLimit = limit
	return q.sessions, q.err
}

func video(id, creator, title string) models.Video {
	return models.Video{
		VideoID:         id,
		URL:             "https://www.tiktok.com/@" + creator + "/video/" + id,
		Title:           title,
		CreatorUsername: creator,
		DurationSeconds: 75,
		ViewCount:       1200,
		LikeCount:       30,
		FileSizeBytes:   2 << 20,
		DownloadedAt:    testNow.Add(-2 * time.Hour),
		Status:          models.VideoStatusCompleted,
	}
}

func newTestPrinter(q Querier) (*Printer, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewPrinter(&buf, q, Options{PageSize: 2, Now: func() time.Time { return testNow }}), &buf
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "N/A", FormatFileSize(0))
	assert.Equal(t, "1.0 KiB", FormatFileSize(1024))
	assert.Equal(t, "N/A", FormatDuration(0))
	assert.Equal(t, "1:05", FormatDuration(65))
	assert.Equal(t, "12:00", FormatDuration(720))
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab...", Truncate("abc", 2))
	assert.Equal(t, "привет...", Truncate("приветствую", 6))
	assert.Equal(t, "2024-05-01", formatUploadDate("20240501"))
	assert.Equal(t, "N/A", formatUploadDate(""))
	assert.Equal(t, "2025-03-10 12:00:00", formatStoredTime("2025-03-10T12:00:00.123456789Z"))
}

func TestColorFromMode(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, ColorFromMode("always", &buf))
	assert.False(t, ColorFromMode("never", &buf))
	assert.False(t, ColorFromMode("auto", &buf))
}

func TestPalette(t *testing.T) {
	assert.Equal(t, "x", palette{}.red("x"))
	assert.Equal(t, ansiRed+"x"+ansiReset, palette{enabled: true}.red("x"))
}

func TestStatistics(t *testing.T) {
	q := &fakeQuerier{stats: &models.Statistics{
		TotalVideos:     1234,
		FailedDownloads: 2,
		UniqueCreators:  7,
		TotalFileSize:   3 << 20,
		TotalFileSizeMB: 3,
		FirstDownload:   "2025-03-01T10:00:00Z",
		LastDownload:    "2025-03-09T10:00:00Z",
		TopCreators: []models.CreatorCount{
			{Username: "a", VideoCount: 9}, {Username: "b", VideoCount: 8}, {Username: "c", VideoCount: 7},
			{Username: "d", VideoCount: 6}, {Username: "e", VideoCount: 5}, {Username: "f", VideoCount: 4},
		},
	}}
	p, buf := newTestPrinter(q)

	require.NoError(t, p.Statistics(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "Total Videos: 1,234")
	assert.Contains(t, out, "Failed Downloads: 2")
	assert.Contains(t, out, "Total Size: 3.0 MiB (3.00 MB)")
	assert.Contains(t, out, "First Download: 2025-03-01 10:00:00")
	assert.Contains(t, out, "5. e: 5 videos")
	assert.NotContains(t, out, "f: 4")
	assert.NotContains(t, out, "\033[")
}

func TestRecent(t *testing.T) {
	q := &fakeQuerier{videos: []models.Video{video("1", "alice", "First"), video("2", "bob", "")}}
	p, buf := newTestPrinter(q)

	require.NoError(t, p.Recent(context.Background(), 0))

	out := buf.String()
	assert.Equal(t, DefaultRecentLimit, q.lastLimit)
	assert.Contains(t, out, "RECENT VIDEOS (Last 10)")
	assert.Contains(t, out, "1. First")
	assert.Contains(t, out, "2. N/A")
	assert.Contains(t, out, "Duration: 1:15")
	assert.Contains(t, out, "Size: 2.0 MiB")
	assert.Contains(t, out, "(2 hours ago)")
}

func TestRecent_Empty(t *testing.T) {
	p, buf := newTestPrinter(&fakeQuerier{})

	require.NoError(t, p.Recent(context.Background(), 3))
	assert.Contains(t, buf.String(), "No videos found in database")
}

func TestSearch_Paged(t *testing.T) {
	q := &fakeQuerier{videos: []models.Video{
		video("1", "a", "dance one"), video("2", "b", "dance two"), video("3", "c", "dance three"),
	}}
	p, buf := newTestPrinter(q)

	require.NoError(t, p.Search(context.Background(), "dance", "title"))

	out := buf.String()
	assert.Equal(t, "dance", q.lastQuery)
	assert.Equal(t, models.SearchTitle, q.lastField)
	assert.Contains(t, out, "Found 3 video(s):")
	assert.Contains(t, out, "2. dance two")
	assert.NotContains(t, out, "3. dance three")
	assert.Contains(t, out, "... and 1 more results")
	assert.Contains(t, out, "1,200 views")
}

func TestSearch_BadField(t *testing.T) {
	p, _ := newTestPrinter(&fakeQuerier{})
	assert.Error(t, p.Search(context.Background(), "x", "tags"))
}

func TestCreator(t *testing.T) {
	q := &fakeQuerier{videos: []models.Video{video("1", "alice", "a"), video("2", "alice", "b"), video("3", "bob", "c")}}
	p, buf := newTestPrinter(q)

	require.NoError(t, p.Creator(context.Background(), "@alice"))

	out := buf.String()
	assert.Equal(t, "alice", q.creator)
	assert.Contains(t, out, "Found 2 video(s) by @alice")
	assert.Contains(t, out, "Total: 2,400 views, 60 likes")
}

func TestVideo(t *testing.T) {
	v := video("42", "alice", "Hello")
	v.Tags = []string{"fyp", "dance"}
	v.UploadTimestamp = "20250301"
	v.FullMetadata = `{"id":"42","extractor":"TikTok"}`
	q := &fakeQuerier{videos: []models.Video{v}}
	p, buf := newTestPrinter(q)

	require.NoError(t, p.Video(context.Background(), "42", false))
	out := buf.String()
	assert.Contains(t, out, "Title: Hello")
	assert.Contains(t, out, "Creator: @alice (N/A)")
	assert.Contains(t, out, "Uploaded: 2025-03-01")
	assert.Contains(t, out, "fyp, dance")
	assert.NotContains(t, out, "FULL METADATA")

	buf.Reset()
	require.NoError(t, p.Video(context.Background(), "42", true))
	assert.Contains(t, buf.String(), "FULL METADATA")
	assert.Contains(t, buf.String(), "TikTok")
}

func TestVideo_NotFound(t *testing.T) {
	p, buf := newTestPrinter(&fakeQuerier{})

	require.NoError(t, p.Video(context.Background(), "nope", false))
	assert.Contains(t, buf.String(), "Video with ID 'nope' not found")
}

func TestSessions(t *testing.T) {
	end := testNow.Add(-time.Hour)
	ok, failed, rate := 3, 1, 75.0
	q := &fakeQuerier{sessions: []models.Session{
		{SessionID: "s2", StartTime: testNow.Add(-30 * time.Minute), TotalURLs: 5, Status: models.SessionStatusRunning},
		{
			SessionID: "s1", StartTime: end.Add(-90 * time.Second), EndTime: &end, TotalURLs: 4,
			SuccessfulDownloads: &ok, FailedDownloads: &failed, SuccessRate: &rate,
			SourceFile: "urls.txt", Status: models.SessionStatusCompleted,
		},
	}}
	p, buf := newTestPrinter(q)

	require.NoError(t, p.Sessions(context.Background(), 0))

	out := buf.String()
	assert.Equal(t, DefaultSessionsLimit, q.lastLimit)
	assert.Contains(t, out, "1. s2 [running]")
	assert.Contains(t, out, "5 URLs")
	assert.Contains(t, out, "2. s1 [completed]")
	assert.Contains(t, out, "(1m30s)")
	assert.Contains(t, out, "3/4 successful, 1 failed (75.0%)")
	assert.Contains(t, out, "Source: urls.txt")
}

func TestQueryErrorsAreReturned(t *testing.T) {
	boom := errors.New("db is locked")
	p, _ := newTestPrinter(&fakeQuerier{err: boom})
	ctx := context.Background()

	assert.ErrorIs(t, p.Statistics(ctx), boom)
	assert.ErrorIs(t, p.Recent(ctx, 1), boom)
	assert.ErrorIs(t, p.Search(ctx, "x", ""), boom)
	assert.ErrorIs(t, p.Creator(ctx, "x"), boom)
	assert.ErrorIs(t, p.Video(ctx, "x", false), boom)
	assert.ErrorIs(t, p.Sessions(ctx, 1), boom)
}

func TestDownloadSummary(t *testing.T) {
	res := &session.Result{LogPath: "logs/download_log_20250310_120000.json"}
	for i := range 7 {
		res.Successful = append(res.Successful, session.SuccessEntry{Title: fmt.Sprintf("video %d", i), Creator: "alice"})
	}
	for i := range 4 {
		res.Failed = append(res.Failed, session.FailureEntry{URL: fmt.Sprintf("u%d", i), Error: strings.Repeat("e", 120)})
	}
	p, buf := newTestPrinter(&fakeQuerier{})

	p.DownloadSummary(res)

	out := buf.String()
	assert.Contains(t, out, "Successful: 7/11")
	assert.Contains(t, out, "Failed: 4/11")
	assert.Contains(t, out, "Success Rate: 63.6%")
	assert.Contains(t, out, "video 4 by alice")
	assert.NotContains(t, out, "video 5 by")
	assert.Contains(t, out, "... and 2 more\n")
	assert.Contains(t, out, "• u2")
	assert.NotContains(t, out, "• u3")
	assert.Contains(t, out, "Error: "+strings.Repeat("e", 100)+"...")
	assert.Contains(t, out, "... and 1 more failures")
	assert.Contains(t, out, "Download log saved to: logs/download_log_20250310_120000.json")
	assert.NotContains(t, out, "Interrupted")
}

func TestWarningsAndProgress(t *testing.T) {
	p, buf := newTestPrinter(&fakeQuerier{})

	p.Warnings([]urlsource.Warning{{Line: 3, Text: "hello"}})
	p.Progress(session.Event{Index: 0, Total: 2, URL: "u1", Stage: session.StageStarted})
	p.Progress(session.Event{Index: 1, Total: 2, URL: "u2", Stage: session.StageFailed, Err: errors.New("boom")})

	out := buf.String()
	assert.Contains(t, out, "Line 3: Not a supported URL - hello")
	assert.Contains(t, out, "[1/2] u1")
	assert.Contains(t, out, "[2/2] ❌ Failed to download u2: boom")
}
