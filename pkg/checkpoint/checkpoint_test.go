package checkpoint

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/soundprediction/duocdien/pkg/benchmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	tmpDir := t.TempDir()
	ctx := context.Background()

	t.Run("Create manager with custom directory", func(t *testing.T) {
		manager, err := NewManager(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, tmpDir, manager.Dir())
	})

	t.Run("Create manager with default directory", func(t *testing.T) {
		manager, err := NewManager("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(os.TempDir(), "duocdien-checkpoints"), manager.Dir())
	})

	t.Run("Save and load checkpoint", func(t *testing.T) {
		manager, err := NewManager(tmpDir)
		require.NoError(t, err)

		cp := NewRunCheckpoint("hybrid", "run-1", "hybrid")
		cp.Add("1-hop", benchmark.LogEntry{Type: "1-hop", Question: "q1", GroundTruth: "a", ModelAnswer: "a"})
		cp.Add("1-hop", benchmark.LogEntry{Type: "1-hop", Question: "q2", Failed: true, ErrorKind: "rate_limit"})
		cp.Complete("1-hop")
		require.NoError(t, manager.Save(ctx, cp))

		loaded, err := manager.Load(ctx, "hybrid")
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, "run-1", loaded.RunID)
		assert.Equal(t, 2, loaded.Done("1-hop"))
		assert.Equal(t, 0, loaded.Done("2-hop"))
		assert.True(t, loaded.Completed["1-hop"])
		assert.True(t, loaded.Entries["1-hop"][1].Failed)

		_, err = os.Stat(filepath.Join(tmpDir, "eval_hybrid.json.tmp"))
		assert.True(t, os.IsNotExist(err), "temporary file should be renamed")
	})

	t.Run("Load non-existent checkpoint", func(t *testing.T) {
		manager, err := NewManager(tmpDir)
		require.NoError(t, err)

		cp, err := manager.Load(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, cp)
	})

	t.Run("LoadOrCreate", func(t *testing.T) {
		manager, err := NewManager(t.TempDir())
		require.NoError(t, err)

		cp, found, err := manager.LoadOrCreate(ctx, "rag", "run-2", "rag")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, "run-2", cp.RunID)

		cp.Add("2-hop", benchmark.LogEntry{Question: "q"})
		require.NoError(t, manager.Save(ctx, cp))

		again, found, err := manager.LoadOrCreate(ctx, "rag", "run-3", "rag")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "run-2", again.RunID, "resumed run keeps its id")
		assert.Equal(t, 1, again.Done("2-hop"))
	})

	t.Run("Delete checkpoint", func(t *testing.T) {
		manager, err := NewManager(tmpDir)
		require.NoError(t, err)

		require.NoError(t, manager.Save(ctx, NewRunCheckpoint("zeroshot", "run-4", "zeroshot")))
		require.NoError(t, manager.Delete(ctx, "zeroshot"))

		cp, err := manager.Load(ctx, "zeroshot")
		require.NoError(t, err)
		assert.Nil(t, cp)

		assert.NoError(t, manager.Delete(ctx, "zeroshot"), "deleting twice is fine")
	})

	t.Run("Save honours cancelled context", func(t *testing.T) {
		manager, err := NewManager(t.TempDir())
		require.NoError(t, err)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, manager.Save(cancelled, NewRunCheckpoint("x", "r", "hybrid")), context.Canceled)
	})
}

func TestCleanOld(t *testing.T) {
	ctx := context.Background()
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, manager.Save(ctx, NewRunCheckpoint("old", "r1", "hybrid")))
	require.NoError(t, manager.Save(ctx, NewRunCheckpoint("new", "r2", "hybrid")))

	// Save stamps LastUpdatedAt, so age the file by rewriting it directly.
	old, err := manager.Load(ctx, "old")
	require.NoError(t, err)
	old.LastUpdatedAt = time.Now().Add(-48 * time.Hour)
	data, err := json.Marshal(old)
	require.NoError(t, err)
	path, err := manager.Path("old")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	removed, err := manager.CleanOld(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	list, err := manager.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new", list[0].Key)
}

func TestPathTraversalPrevention(t *testing.T) {
	ctx := context.Background()
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	attempts := []struct {
		name string
		key  string
	}{
		{"simple path traversal", "../../../etc/passwd"},
		{"path traversal with dots", ".."},
		{"double traversal", "foo/../.."},
		{"forward slash", "foo/bar"},
		{"backslash", `foo\bar`},
		{"null byte", "run\x00.json"},
		{"absolute path attempt", "/etc/passwd"},
		{"windows path", `C:\Windows\System32`},
		{"empty key", ""},
	}

	for _, tc := range attempts {
		t.Run("Path_"+tc.name, func(t *testing.T) {
			_, err := manager.Path(tc.key)
			assert.ErrorIs(t, err, ErrInvalidRunKey)
		})
		t.Run("Load_"+tc.name, func(t *testing.T) {
			_, err := manager.Load(ctx, tc.key)
			assert.Error(t, err)
		})
		t.Run("Delete_"+tc.name, func(t *testing.T) {
			assert.Error(t, manager.Delete(ctx, tc.key))
		})
		t.Run("Save_"+tc.name, func(t *testing.T) {
			assert.Error(t, manager.Save(ctx, NewRunCheckpoint(tc.key, "r", "hybrid")))
		})
	}

	for _, key := range []string{"hybrid", "rag_1hop", "Run.With.Dots", "a"} {
		t.Run("valid_"+key, func(t *testing.T) {
			path, err := manager.Path(key)
			require.NoError(t, err)
			assert.Contains(t, path, key)
		})
	}
}
