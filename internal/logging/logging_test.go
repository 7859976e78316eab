package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_FileTee(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diarysync.log")
	log, err := New("debug", path, false)
	require.NoError(t, err)

	log.Debug("entries synced", zap.Int("submitted", 3))
	_ = log.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), `"msg":"entries synced"`)
	require.Contains(t, string(b), `"submitted":3`)
}

func TestNew_LevelFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diarysync.log")
	log, err := New("warn", path, true)
	require.NoError(t, err)

	log.Info("quiet")
	log.Warn("loud")
	_ = log.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(b), "quiet")
	require.Contains(t, string(b), "loud")
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New("chatty", "", false)
	require.Error(t, err)

	log, err := New("", "", false)
	require.NoError(t, err)
	require.True(t, log.Core().Enabled(zap.InfoLevel))
	require.False(t, log.Core().Enabled(zap.DebugLevel))
}
