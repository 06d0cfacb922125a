package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artur/clipvault/internal/config"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"loud", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := New(config.Log{Level: tt.level})
			assert.Equal(t, tt.want, l.GetLevel())
		})
	}
}

func TestNew_JSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "clipvault.log")

	l := New(config.Log{Level: "info", Format: "json", File: path})
	Component(l, "db").Info("hello")
	require.NoError(t, Close(l))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "db", entry["component"])
}

func TestNew_UnopenableFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	l := New(config.Log{File: filepath.Join(blocker, "x.log")})
	assert.Equal(t, os.Stderr, l.Out)
}

func TestClose_ReleasesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clipvault.log")

	l := New(config.Log{File: path})
	f, ok := l.Out.(*os.File)
	require.True(t, ok)

	require.NoError(t, Close(l))
	assert.Equal(t, os.Stderr, l.Out)

	// the handle New opened is gone
	_, err := f.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)

	// stderr loggers are untouched
	require.NoError(t, Close(New(config.Log{})))
}

func TestComponent(t *testing.T) {
	l, hook := test.NewNullLogger()

	Component(l, "session").Warn("careful")

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "session", hook.LastEntry().Data["component"])
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing to see")
	assert.NotEqual(t, os.Stderr, l.Out)
}
