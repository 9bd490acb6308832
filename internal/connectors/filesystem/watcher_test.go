package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/litreview/internal/core/domain"
)

func waitChange(t *testing.T, changes <-chan domain.PaperChange) domain.PaperChange {
	t.Helper()
	select {
	case c, ok := <-changes:
		require.True(t, ok, "channel closed before a change arrived")
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change")
	}
	return domain.PaperChange{}
}

func TestWatcher_Watch(t *testing.T) {
	t.Run("reports new files", func(t *testing.T) {
		dir := t.TempDir()
		w := New(".pdf")
		defer w.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		changes, err := w.Watch(ctx, dir)
		require.NoError(t, err)

		path := filepath.Join(dir, "paper.pdf")
		require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))

		change := waitChange(t, changes)
		assert.Equal(t, domain.ChangeCreated, change.Type)
		assert.Equal(t, path, change.Path)
	})

	t.Run("follows new sub-directories", func(t *testing.T) {
		dir := t.TempDir()
		w := New(".pdf")
		defer w.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		changes, err := w.Watch(ctx, dir)
		require.NoError(t, err)

		sub := filepath.Join(dir, "Kooijman_2010")
		require.NoError(t, os.Mkdir(sub, 0o755))
		// Give the watcher time to add the new directory.
		time.Sleep(100 * time.Millisecond)
		require.NoError(t, os.WriteFile(filepath.Join(sub, "main.pdf"), []byte("%PDF"), 0o644))

		change := waitChange(t, changes)
		assert.Equal(t, filepath.Join(sub, "main.pdf"), change.Path)
	})

	t.Run("closes channel when context is cancelled", func(t *testing.T) {
		w := New()
		defer w.Close()

		ctx, cancel := context.WithCancel(context.Background())
		changes, err := w.Watch(ctx, t.TempDir())
		require.NoError(t, err)
		cancel()

		select {
		case _, ok := <-changes:
			for ok {
				_, ok = <-changes
			}
		case <-time.After(time.Second):
			t.Fatal("channel did not close after context cancellation")
		}
	})

	t.Run("returns error for non-existent directory", func(t *testing.T) {
		w := New()
		changes, err := w.Watch(context.Background(), "/non/existent/path")
		assert.Error(t, err)
		assert.Nil(t, changes)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("returns error when closed", func(t *testing.T) {
		w := New()
		require.NoError(t, w.Close())

		changes, err := w.Watch(context.Background(), t.TempDir())
		assert.Error(t, err)
		assert.Nil(t, changes)
		assert.Contains(t, err.Error(), "closed")
	})
}

func TestWatcher_Close_Idempotent(t *testing.T) {
	w := New()
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

func TestHandleFsEvent(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "paper.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF"), 0o644))
	txtPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("notes"), 0o644))
	hiddenPath := filepath.Join(dir, ".paper.pdf")
	require.NoError(t, os.WriteFile(hiddenPath, []byte("%PDF"), 0o644))
	dirPath := filepath.Join(dir, "folder.pdf")
	require.NoError(t, os.Mkdir(dirPath, 0o755))

	tests := []struct {
		name     string
		path     string
		op       fsnotify.Op
		wantNil  bool
		wantType domain.ChangeType
	}{
		{name: "create", path: pdfPath, op: fsnotify.Create, wantType: domain.ChangeCreated},
		{name: "write", path: pdfPath, op: fsnotify.Write, wantType: domain.ChangeUpdated},
		{name: "remove", path: filepath.Join(dir, "gone.pdf"), op: fsnotify.Remove, wantType: domain.ChangeDeleted},
		{name: "rename", path: filepath.Join(dir, "moved.pdf"), op: fsnotify.Rename, wantType: domain.ChangeDeleted},
		{name: "chmod ignored", path: pdfPath, op: fsnotify.Chmod, wantNil: true},
		{name: "other extension ignored", path: txtPath, op: fsnotify.Create, wantNil: true},
		{name: "hidden ignored", path: hiddenPath, op: fsnotify.Create, wantNil: true},
		{name: "directory ignored", path: dirPath, op: fsnotify.Create, wantNil: true},
		{name: "create of vanished file ignored", path: filepath.Join(dir, "tmp.pdf"), op: fsnotify.Create, wantNil: true},
	}

	w := New(".pdf")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change := w.handleFsEvent(fsnotify.Event{Name: tt.path, Op: tt.op})
			if tt.wantNil {
				assert.Nil(t, change)
				return
			}
			require.NotNil(t, change)
			assert.Equal(t, tt.wantType, change.Type)
			assert.Equal(t, tt.path, change.Path)
		})
	}
}

func TestIsHidden(t *testing.T) {
	assert.True(t, isHidden("/papers/.DS_Store"))
	assert.True(t, isHidden(".git"))
	assert.False(t, isHidden("/papers/a.pdf"))
	assert.False(t, isHidden("."))
}
