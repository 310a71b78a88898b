package mapstyle

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme.yaml")
	require.NoError(t, os.WriteFile(path, []byte("high_color: \"#111111\"\n"), 0600))

	changes := make(chan Theme, 4)
	w, err := NewThemeWatcher(path, func(th Theme) { changes <- th })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// an invalid version is skipped
	require.NoError(t, os.WriteFile(path, []byte("high_color: nope\n"), 0600))
	time.Sleep(500 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("high_color: \"#222222\"\n"), 0600))

	select {
	case th := <-changes:
		assert.Equal(t, "#222222", th.HighColor)
		assert.Equal(t, DefaultTheme().LowColor, th.LowColor)
	case <-time.After(5 * time.Second):
		t.Fatal("theme change was not reported")
	}
}

func TestThemeWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "theme.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0600))

	changes := make(chan Theme, 1)
	w, err := NewThemeWatcher(path, func(th Theme) { changes <- th })
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0600))

	select {
	case <-changes:
		t.Fatal("unrelated file triggered a reload")
	case <-time.After(500 * time.Millisecond):
	}

	w.Stop()
	w.Stop()
}

func TestThemeWatcher_MissingDir(t *testing.T) {
	w, err := NewThemeWatcher(filepath.Join(t.TempDir(), "missing", "theme.yaml"), func(Theme) {})
	require.NoError(t, err)
	assert.Error(t, w.Start(context.Background()))
	w.Stop()
}
