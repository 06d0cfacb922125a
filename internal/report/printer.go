// Package report renders the video archive for people: statistics, listings,
// search results, video details, session history and download summaries.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/k0kubun/pp/v3"

	"github.com/artur/clipvault/internal/database/models"
	"github.com/artur/clipvault/internal/session"
	"github.com/artur/clipvault/internal/urlsource"
)

const (
	DefaultRecentLimit   = 10
	DefaultSessionsLimit = 10
	DefaultPageSize      = 20

	topCreatorsShown  = 5
	summarySuccesses  = 5
	summaryFailures   = 3
	headerWidth       = 60
	summaryWidth      = 50
	titleWidth        = 60
	shortTitleWidth   = 50
	descriptionWidth  = 200
	summaryErrorWidth = 100
)

// Querier is the read side of the store
type Querier interface {
	GetVideo(ctx context.Context, videoID string) (*models.Video, error)
	VideosByCreator(ctx context.Context, creator string) ([]models.Video, error)
	RecentVideos(ctx context.Context, limit int) ([]models.Video, error)
	SearchVideos(ctx context.Context, query string, field models.SearchField) ([]models.Video, error)
	Statistics(ctx context.Context) (*models.Statistics, error)
	RecentSessions(ctx context.Context, limit int) ([]models.Session, error)
}

type Options struct {
	Color    bool
	PageSize int
	Now      func() time.Time
}

type Printer struct {
	out  io.Writer
	q    Querier
	opts Options
	c    palette
}

func NewPrinter(out io.Writer, q Querier, opts Options) *Printer {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Printer{out: out, q: q, opts: opts, c: palette{enabled: opts.Color}}
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *Printer) header(title string) {
	line := strings.Repeat("=", headerWidth)
	p.printf("\n%s\n%s\n%s\n", p.c.cyan(line), p.c.cyan(title), p.c.cyan(line))
}

func (p *Printer) Statistics(ctx context.Context) error {
	stats, err := p.q.Statistics(ctx)
	if err != nil {
		return fmt.Errorf("failed to load statistics: %w", err)
	}

	p.header("📊 DATABASE STATISTICS")
	p.printf("%s\n", p.c.green(fmt.Sprintf("📹 Total Videos: %s", humanize.Comma(stats.TotalVideos))))
	p.printf("%s\n", p.c.red(fmt.Sprintf("❌ Failed Downloads: %s", humanize.Comma(stats.FailedDownloads))))
	p.printf("%s\n", p.c.blue(fmt.Sprintf("👤 Unique Creators: %s", humanize.Comma(stats.UniqueCreators))))
	p.printf("%s\n", p.c.magenta(fmt.Sprintf("💾 Total Size: %s (%.2f MB)", FormatFileSize(stats.TotalFileSize), stats.TotalFileSizeMB)))

	if stats.FirstDownload != "" {
		p.printf("%s\n", p.c.yellow("📅 First Download: "+formatStoredTime(stats.FirstDownload)))
		p.printf("%s\n", p.c.yellow("📅 Last Download: "+formatStoredTime(stats.LastDownload)))
	}

	if len(stats.TopCreators) > 0 {
		p.printf("\n%s\n", p.c.cyan("🏆 TOP CREATORS:"))
		for i, c := range stats.TopCreators[:min(len(stats.TopCreators), topCreatorsShown)] {
			p.printf("  %d. %s: %d videos\n", i+1, c.Username, c.VideoCount)
		}
	}
	return nil
}

func (p *Printer) Recent(ctx context.Context, limit int) error {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	videos, err := p.q.RecentVideos(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to load recent videos: %w", err)
	}

	p.header(fmt.Sprintf("🕒 RECENT VIDEOS (Last %d)", limit))
	if len(videos) == 0 {
		p.printf("%s\n", p.c.yellow("No videos found in database"))
		return nil
	}

	now := p.opts.Now()
	for i, v := range videos {
		p.printf("\n%s\n", p.c.green(fmt.Sprintf("%d. %s", i+1, Truncate(orNA(v.Title), shortTitleWidth))))
		p.printf("   👤 Creator: %s\n", orNA(v.CreatorUsername))
		p.printf("   ⏱️  Duration: %s\n", FormatDuration(v.DurationSeconds))
		p.printf("   💾 Size: %s\n", FormatFileSize(v.FileSizeBytes))
		p.printf("   📅 Downloaded: %s (%s)\n", formatTime(v.DownloadedAt), humanize.RelTime(v.DownloadedAt, now, "ago", "from now"))
	}
	return nil
}

func (p *Printer) Search(ctx context.Context, query, field string) error {
	f, err := models.ParseSearchField(field)
	if err != nil {
		return err
	}
	videos, err := p.q.SearchVideos(ctx, query, f)
	if err != nil {
		return fmt.Errorf("failed to search videos: %w", err)
	}

	p.header(fmt.Sprintf("🔍 SEARCH RESULTS: '%s' in %s", query, f))
	if len(videos) == 0 {
		p.printf("%s\n", p.c.yellow(fmt.Sprintf("No videos found matching '%s'", query)))
		return nil
	}

	p.printf("%s\n", p.c.green(fmt.Sprintf("Found %d video(s):", len(videos))))
	for i, v := range videos[:min(len(videos), p.opts.PageSize)] {
		p.printf("\n%s\n", p.c.cyan(fmt.Sprintf("%d. %s", i+1, Truncate(orNA(v.Title), titleWidth))))
		p.printf("   👤 %s | 👁️ %s views | ❤️ %s likes\n", orNA(v.CreatorUsername), humanize.Comma(v.ViewCount), humanize.Comma(v.LikeCount))
		p.printf("   📅 Downloaded: %s\n", formatTime(v.DownloadedAt))
	}
	if extra := len(videos) - p.opts.PageSize; extra > 0 {
		p.printf("\n%s\n", p.c.yellow(fmt.Sprintf("... and %d more results", extra)))
	}
	return nil
}

func (p *Printer) Creator(ctx context.Context, creator string) error {
	creator = strings.TrimPrefix(strings.TrimSpace(creator), "@")
	videos, err := p.q.VideosByCreator(ctx, creator)
	if err != nil {
		return fmt.Errorf("failed to load videos for %s: %w", creator, err)
	}

	p.header(fmt.Sprintf("👤 VIDEOS BY @%s", creator))
	if len(videos) == 0 {
		p.printf("%s\n", p.c.yellow(fmt.Sprintf("No videos found for creator '%s'", creator)))
		return nil
	}

	var views, likes int64
	for _, v := range videos {
		views += v.ViewCount
		likes += v.LikeCount
	}
	p.printf("%s\n", p.c.green(fmt.Sprintf("Found %d video(s) by @%s:", len(videos), creator)))
	p.printf("%s\n", p.c.blue(fmt.Sprintf("📊 Total: %s views, %s likes", humanize.Comma(views), humanize.Comma(likes))))

	for i, v := range videos {
		p.printf("\n%s\n", p.c.cyan(fmt.Sprintf("%d. %s", i+1, Truncate(orNA(v.Title), titleWidth))))
		p.printf("   👁️ %s views | ❤️ %s likes | ⏱️ %s\n", humanize.Comma(v.ViewCount), humanize.Comma(v.LikeCount), FormatDuration(v.DurationSeconds))
		p.printf("   📅 Downloaded: %s\n", formatTime(v.DownloadedAt))
	}
	return nil
}

// Video prints one video's details; raw adds the stored extractor metadata
func (p *Printer) Video(ctx context.Context, videoID string, raw bool) error {
	v, err := p.q.GetVideo(ctx, videoID)
	if err != nil {
		return fmt.Errorf("failed to load video %s: %w", videoID, err)
	}
	if v == nil {
		p.printf("%s\n", p.c.red(fmt.Sprintf("❌ Video with ID '%s' not found", videoID)))
		return nil
	}

	p.header("📹 VIDEO DETAILS: " + videoID)
	p.printf("%s\n", p.c.green("Title: "+orNA(v.Title)))
	p.printf("%s\n", p.c.blue(fmt.Sprintf("Creator: @%s (%s)", orNA(v.CreatorUsername), orNA(v.CreatorDisplayName))))
	p.printf("%s\n", p.c.cyan("URL: "+orNA(v.URL)))
	p.printf("%s\n", p.c.yellow("Duration: "+FormatDuration(v.DurationSeconds)))
	p.printf("%s\n", p.c.magenta("File Size: "+FormatFileSize(v.FileSizeBytes)))
	if v.Status == models.VideoStatusFailed {
		p.printf("%s\n", p.c.red("Status: failed"))
	}

	p.printf("\n%s\n", p.c.cyan("📊 ENGAGEMENT:"))
	p.printf("   👁️ Views: %s\n", humanize.Comma(v.ViewCount))
	p.printf("   ❤️ Likes: %s\n", humanize.Comma(v.LikeCount))
	p.printf("   💬 Comments: %s\n", humanize.Comma(v.CommentCount))
	p.printf("   🔄 Shares: %s\n", humanize.Comma(v.ShareCount))

	p.printf("\n%s\n", p.c.cyan("📅 DATES:"))
	p.printf("   📤 Uploaded: %s\n", formatUploadDate(v.UploadTimestamp))
	p.printf("   📥 Downloaded: %s\n", formatTime(v.DownloadedAt))

	if v.Description != "" {
		p.printf("\n%s\n   %s\n", p.c.cyan("📝 DESCRIPTION:"), Truncate(v.Description, descriptionWidth))
	}
	if len(v.Tags) > 0 {
		p.printf("\n%s\n   %s\n", p.c.cyan("🏷️ TAGS:"), strings.Join(v.Tags, ", "))
	}
	if v.FilePath != "" {
		p.printf("\n%s\n   %s\n", p.c.cyan("📁 FILE PATH:"), v.FilePath)
	}

	if raw && v.FullMetadata != "" {
		var meta map[string]any
		if err := json.Unmarshal([]byte(v.FullMetadata), &meta); err != nil {
			return fmt.Errorf("failed to decode stored metadata: %w", err)
		}
		p.printf("\n%s\n", p.c.cyan("🧾 FULL METADATA:"))
		pr := pp.New()
		pr.SetOutput(p.out)
		pr.SetColoringEnabled(p.opts.Color)
		pr.Println(meta)
	}
	return nil
}

func (p *Printer) Sessions(ctx context.Context, limit int) error {
	if limit <= 0 {
		limit = DefaultSessionsLimit
	}
	sessions, err := p.q.RecentSessions(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	p.header(fmt.Sprintf("🗂️ DOWNLOAD SESSIONS (Last %d)", limit))
	if len(sessions) == 0 {
		p.printf("%s\n", p.c.yellow("No sessions recorded yet"))
		return nil
	}

	for i, s := range sessions {
		status := string(s.Status)
		switch s.Status {
		case models.SessionStatusCompleted:
			status = p.c.green(status)
		case models.SessionStatusInterrupted:
			status = p.c.red(status)
		default:
			status = p.c.yellow(status)
		}

		p.printf("\n%d. %s [%s]\n", i+1, s.SessionID, status)
		p.printf("   🚀 Started: %s\n", formatTime(s.StartTime))
		if s.EndTime != nil {
			p.printf("   🏁 Ended: %s (%s)\n", formatTime(*s.EndTime), s.EndTime.Sub(s.StartTime).Round(time.Second))
		}
		if s.SuccessfulDownloads != nil && s.FailedDownloads != nil {
			rate := 0.0
			if s.SuccessRate != nil {
				rate = *s.SuccessRate
			}
			p.printf("   📈 %d/%d successful, %d failed (%.1f%%)\n", *s.SuccessfulDownloads, s.TotalURLs, *s.FailedDownloads, rate)
		} else {
			p.printf("   📈 %d URLs\n", s.TotalURLs)
		}
		if s.SourceFile != "" {
			p.printf("   📂 Source: %s\n", s.SourceFile)
		}
		if s.Notes != "" {
			p.printf("   📝 %s\n", s.Notes)
		}
	}
	return nil
}

// DownloadSummary prints the end-of-run summary
func (p *Printer) DownloadSummary(res *session.Result) {
	total := res.Total()
	line := strings.Repeat("=", summaryWidth)

	p.printf("\n%s\n%s\n%s\n", p.c.cyan(line), p.c.cyan("📊 DOWNLOAD SUMMARY"), p.c.cyan(line))
	p.printf("%s\n", p.c.green(fmt.Sprintf("✅ Successful: %d/%d", len(res.Successful), total)))
	p.printf("%s\n", p.c.red(fmt.Sprintf("❌ Failed: %d/%d", len(res.Failed), total)))
	p.printf("%s\n", p.c.blue(fmt.Sprintf("📈 Success Rate: %.1f%%", res.SuccessRate())))
	if res.Interrupted {
		p.printf("%s\n", p.c.yellow("⚠️  Interrupted before all URLs were processed"))
	}

	if len(res.Successful) > 0 {
		p.printf("\n%s\n", p.c.green("🎉 Successfully downloaded videos:"))
		for _, s := range res.Successful[:min(len(res.Successful), summarySuccesses)] {
			p.printf("  • %s by %s\n", Truncate(s.Title, shortTitleWidth), s.Creator)
		}
		if extra := len(res.Successful) - summarySuccesses; extra > 0 {
			p.printf("  ... and %d more\n", extra)
		}
	}

	if len(res.Failed) > 0 {
		p.printf("\n%s\n", p.c.red("💥 Failed downloads:"))
		for _, f := range res.Failed[:min(len(res.Failed), summaryFailures)] {
			p.printf("  • %s\n", f.URL)
			p.printf("    Error: %s\n", Truncate(f.Error, summaryErrorWidth))
		}
		if extra := len(res.Failed) - summaryFailures; extra > 0 {
			p.printf("  ... and %d more failures\n", extra)
		}
	}

	if res.LogPath != "" {
		p.printf("\n%s\n", p.c.blue("📝 Download log saved to: "+res.LogPath))
	}
}

// Warnings prints the lines the URL reader skipped
func (p *Printer) Warnings(warnings []urlsource.Warning) {
	for _, w := range warnings {
		p.printf("%s\n", p.c.yellow("⚠️  "+w.String()))
	}
}

// Progress prints one orchestrator event
func (p *Printer) Progress(e session.Event) {
	prefix := fmt.Sprintf("[%d/%d]", e.Index+1, e.Total)
	switch e.Stage {
	case session.StageStarted:
		p.printf("%s %s\n", p.c.cyan(prefix), e.URL)
	case session.StageProbed:
		p.printf("%s '%s' by %s\n", p.c.cyan(prefix), Truncate(e.Title, 30), e.Creator)
	case session.StageDownloaded:
		p.printf("%s %s\n", p.c.cyan(prefix), p.c.green(fmt.Sprintf("✅ Downloaded: %s by %s", e.Title, e.Creator)))
	case session.StageFailed:
		p.printf("%s %s\n", p.c.cyan(prefix), p.c.red(fmt.Sprintf("❌ Failed to download %s: %v", e.URL, e.Err)))
	}
}
