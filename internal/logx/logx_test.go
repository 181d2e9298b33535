package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":    slog.LevelDebug,
		"INFO":     slog.LevelInfo,
		"Warning":  slog.LevelWarn,
		"warn":     slog.LevelWarn,
		"ERROR":    slog.LevelError,
		"critical": LevelCritical,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNew_FiltersByLevelAndRenamesLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.LevelWarn, FormatJSON, &buf)

	l.Info("hidden")
	l.Warn("shown")
	l.Log(context.Background(), LevelCritical, "fatal")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, "WARNING", first["level"])
	assert.Equal(t, "CRITICAL", second["level"])
	assert.Equal(t, "fatal", second["msg"])
}

func TestNew_MultipleWriters(t *testing.T) {
	var a, b bytes.Buffer
	New(slog.LevelInfo, FormatText, &a, &b).Info("hello", "k", "v")
	assert.Contains(t, a.String(), "hello")
	assert.Equal(t, a.String(), b.String())
}

func TestOpenFile_CreatesParentAndAppends(t *testing.T) {
	p := filepath.Join(t.TempDir(), "logs", "run.log")

	for i := 0; i < 2; i++ {
		f, err := OpenFile(p)
		require.NoError(t, err)
		_, err = f.WriteString("line\n")
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "line\nline\n", string(b))
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.LevelInfo, FormatText, &buf)
	ctx := WithLogger(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))

	// 缺失时不 panic。
	assert.NotNil(t, FromContext(context.Background()))
}
