package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artur/clipvault/internal/logger"
	"github.com/artur/clipvault/internal/session"
	"github.com/artur/clipvault/internal/urlsource"
)

type fakeViewer struct {
	args []string
	err  error
}

func (v *fakeViewer) RunDB(ctx context.Context, args []string, in io.Reader) error {
	v.args = args
	return v.err
}

type fakeRunner struct {
	urls   []string
	source string
	res    *session.Result
	err    error
}

func (r *fakeRunner) Run(ctx context.Context, urls []string, source string) (*session.Result, error) {
	r.urls, r.source = urls, source
	if r.res == nil && r.err == nil {
		return &session.Result{}, nil
	}
	return r.res, r.err
}

type fakeReporter struct {
	warnings []urlsource.Warning
	summary  *session.Result
}

func (r *fakeReporter) Warnings(w []urlsource.Warning)      { r.warnings = append(r.warnings, w...) }
func (r *fakeReporter) DownloadSummary(res *session.Result) { r.summary = res }

type fakeNotifier struct {
	calls  int
	ctxErr error
	err    error
}

func (n *fakeNotifier) Notify(ctx context.Context, res *session.Result, source string) error {
	n.calls++
	n.ctxErr = ctx.Err()
	return n.err
}

type downloadFixture struct {
	dir      string
	runner   *fakeRunner
	reporter *fakeReporter
	notifier *fakeNotifier
	out      *bytes.Buffer
	handler  *DownloadHandler
}

func newDownloadFixture(t *testing.T, input string) *downloadFixture {
	t.Helper()
	f := &downloadFixture{
		dir:      t.TempDir(),
		runner:   &fakeRunner{},
		reporter: &fakeReporter{},
		notifier: &fakeNotifier{},
		out:      &bytes.Buffer{},
	}
	f.handler = NewDownloadHandler(
		Source{DataDir: f.dir, DefaultFile: "tiktok_urls.txt", Domains: []string{"tiktok.com"}},
		f.runner, f.reporter, f.notifier, strings.NewReader(input), f.out, logger.Discard(),
	)
	return f
}

func (f *downloadFixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const urlFile = "https://www.tiktok.com/@a/video/1\n# comment\nhello\nhttps://www.tiktok.com/@b/video/2\n"

func TestApp_DispatchOrder(t *testing.T) {
	var out bytes.Buffer
	viewer := &fakeViewer{}
	f := newDownloadFixture(t, "")

	app := New(&out, logger.Discard())
	app.RegisterHandler(NewHelpHandler(&out))
	app.RegisterHandler(NewDBHandler(viewer, nil))
	app.RegisterHandler(f.handler)

	require.NoError(t, app.Run(context.Background(), []string{"--help"}))
	assert.Contains(t, out.String(), "Usage:")

	require.NoError(t, app.Run(context.Background(), []string{"db", "recent", "5"}))
	assert.Equal(t, []string{"recent", "5"}, viewer.args)

	err := app.Run(context.Background(), []string{"a.txt", "b.txt"})
	assert.ErrorContains(t, err, "unexpected arguments")
}

func TestApp_NoHandlers(t *testing.T) {
	var out bytes.Buffer
	app := New(&out, logger.Discard())

	assert.Error(t, app.Run(context.Background(), nil))
	assert.Contains(t, out.String(), "clipvault help")
}

func TestHelpHandler_CanHandle(t *testing.T) {
	h := NewHelpHandler(io.Discard)

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"help"}, true},
		{[]string{"-h"}, true},
		{[]string{"--help"}, true},
		{[]string{"urls.txt"}, false},
		{nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, h.CanHandle(tt.args), "%v", tt.args)
	}
}

func TestDBHandler_PropagatesError(t *testing.T) {
	h := NewDBHandler(&fakeViewer{err: assert.AnError}, nil)

	assert.True(t, h.CanHandle([]string{"db"}))
	assert.False(t, h.CanHandle([]string{"dbx"}))
	assert.ErrorIs(t, h.Handle(context.Background(), []string{"db", "purge"}), assert.AnError)
}

func TestDownload_FileInDataDir(t *testing.T) {
	f := newDownloadFixture(t, "")
	path := f.write(t, "batch.txt", urlFile)
	f.runner.res = &session.Result{SessionID: "s1"}

	require.NoError(t, f.handler.Handle(context.Background(), []string{"batch.txt"}))

	assert.Equal(t, []string{"https://www.tiktok.com/@a/video/1", "https://www.tiktok.com/@b/video/2"}, f.runner.urls)
	assert.Equal(t, path, f.runner.source)
	assert.Equal(t, []urlsource.Warning{{Line: 3, Text: "hello"}}, f.reporter.warnings)
	assert.Equal(t, "s1", f.reporter.summary.SessionID)
	assert.Equal(t, 1, f.notifier.calls)
	assert.Contains(t, f.out.String(), "Found 2 URLs")
}

func TestDownload_ExistingPathWins(t *testing.T) {
	f := newDownloadFixture(t, "")
	other := filepath.Join(t.TempDir(), "elsewhere.txt")
	require.NoError(t, os.WriteFile(other, []byte(urlFile), 0o644))

	require.NoError(t, f.handler.Handle(context.Background(), []string{other}))
	assert.Equal(t, other, f.runner.source)
}

func TestDownload_MissingFile(t *testing.T) {
	f := newDownloadFixture(t, "")

	require.NoError(t, f.handler.Handle(context.Background(), []string{"nope.txt"}))

	assert.Contains(t, f.out.String(), "File not found")
	assert.Nil(t, f.runner.urls)
	assert.Zero(t, f.notifier.calls)
}

func TestDownload_NoValidURLs(t *testing.T) {
	f := newDownloadFixture(t, "")
	f.write(t, "bad.txt", "not a url\n")

	require.NoError(t, f.handler.Handle(context.Background(), []string{"bad.txt"}))

	assert.Contains(t, f.out.String(), "No valid URLs")
	assert.Len(t, f.reporter.warnings, 1)
	assert.Nil(t, f.runner.urls)
}

func TestDownload_InterruptedStillNotifies(t *testing.T) {
	f := newDownloadFixture(t, "")
	f.write(t, "batch.txt", urlFile)
	f.runner.res = &session.Result{Interrupted: true}
	f.runner.err = context.Canceled

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.handler.Handle(ctx, []string{"batch.txt"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotNil(t, f.reporter.summary)
	assert.Equal(t, 1, f.notifier.calls)
	assert.NoError(t, f.notifier.ctxErr)
}

func TestDownload_RunErrorWithoutResult(t *testing.T) {
	f := newDownloadFixture(t, "")
	f.write(t, "batch.txt", urlFile)
	boom := errors.New("boom")
	f.runner.err = boom

	assert.ErrorIs(t, f.handler.Handle(context.Background(), []string{"batch.txt"}), boom)
	assert.Nil(t, f.reporter.summary)
	assert.Zero(t, f.notifier.calls)
}

func TestDownload_NotifyFailureIsLogged(t *testing.T) {
	log, hook := test.NewNullLogger()
	f := newDownloadFixture(t, "")
	f.handler.log = log
	f.write(t, "batch.txt", urlFile)
	f.notifier.err = errors.New("telegram down")

	require.NoError(t, f.handler.Handle(context.Background(), []string{"batch.txt"}))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Failed to send notification", hook.LastEntry().Message)
}

func TestDownload_InteractiveSelection(t *testing.T) {
	f := newDownloadFixture(t, "x\n5\n2\n")
	f.write(t, "a.txt", urlFile)
	want := f.write(t, "b.txt", urlFile)

	require.NoError(t, f.handler.Handle(context.Background(), nil))

	assert.Equal(t, want, f.runner.source)
	assert.Equal(t, 2, strings.Count(f.out.String(), "Invalid selection"))
}

func TestDownload_InteractiveDefault(t *testing.T) {
	f := newDownloadFixture(t, "\n")
	f.write(t, "a.txt", urlFile)
	want := f.write(t, "tiktok_urls.txt", urlFile)

	require.NoError(t, f.handler.Handle(context.Background(), nil))

	assert.Contains(t, f.out.String(), "tiktok_urls.txt (default)")
	assert.Equal(t, want, f.runner.source)
}

func TestDownload_InteractiveQuit(t *testing.T) {
	f := newDownloadFixture(t, "q\n")
	f.write(t, "a.txt", urlFile)

	require.NoError(t, f.handler.Handle(context.Background(), nil))

	assert.Contains(t, f.out.String(), "Cancelled")
	assert.Nil(t, f.runner.urls)
}

func TestDownload_InteractiveNoFiles(t *testing.T) {
	f := newDownloadFixture(t, "")

	require.NoError(t, f.handler.Handle(context.Background(), nil))

	assert.Contains(t, f.out.String(), "No .txt files found")
	assert.Nil(t, f.runner.urls)
}
