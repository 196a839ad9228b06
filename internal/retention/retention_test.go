package retention

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zbk/internal/zfs"
)

func writeLog(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("log\n"), 0o644))
}

func dates(ds ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ds))
	for _, d := range ds {
		set[d] = struct{}{}
	}
	return set
}

func TestLogFileName(t *testing.T) {
	ts := time.Date(2025, 6, 2, 9, 30, 45, 0, time.UTC)
	assert.Equal(t, "p1_backup_20250602_0930.log", LogFileName("p1", ts))
}

func TestSnapshotDates(t *testing.T) {
	records := []zfs.Record{
		{Name: "p1", Type: zfs.TypeFilesystem},
		{Name: "p1@p1-20250601120000", Type: zfs.TypeSnapshot},
		{Name: "p1/data@p1-20250601180000", Type: zfs.TypeSnapshot},
		{Name: "p1/data@p1-20250602090000", Type: zfs.TypeSnapshot},
		{Name: "p1/data@before-upgrade", Type: zfs.TypeSnapshot},
	}

	set := SnapshotDates(records)
	assert.Equal(t, dates("20250601", "20250602"), set)
}

func TestReconcile(t *testing.T) {
	today := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)

	t.Run("orphan removed, matched kept", func(t *testing.T) {
		dir := t.TempDir()
		writeLog(t, dir, "p1_backup_20250101_0900.log")
		writeLog(t, dir, "p1_backup_20250602_0900.log")

		result, err := Reconcile(dir, "p1", dates("20250602"), today)
		require.NoError(t, err)

		assert.Equal(t, 2, result.Processed)
		assert.Equal(t, 1, result.Removed)
		assert.Equal(t, 1, result.Kept)

		assert.NoFileExists(t, filepath.Join(dir, "p1_backup_20250101_0900.log"))
		assert.FileExists(t, filepath.Join(dir, "p1_backup_20250602_0900.log"))
	})

	t.Run("current-day exemption", func(t *testing.T) {
		dir := t.TempDir()
		writeLog(t, dir, "p1_backup_20250603_0700.log")

		// No snapshot exists for today yet; the log must stay.
		result, err := Reconcile(dir, "p1", dates(), today)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Processed)
		assert.Equal(t, 1, result.Kept)
		assert.Equal(t, 0, result.Removed)
		require.Len(t, result.Decisions, 1)
		assert.Equal(t, ActionKept, result.Decisions[0].Action)
		assert.Equal(t, "current-day exemption", result.Decisions[0].Reason)
		assert.FileExists(t, filepath.Join(dir, "p1_backup_20250603_0700.log"))
	})

	t.Run("unextractable date warned and untouched", func(t *testing.T) {
		dir := t.TempDir()
		writeLog(t, dir, "p1_backup_2025_0900.log")

		result, err := Reconcile(dir, "p1", dates(), today)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Processed)
		assert.Equal(t, 1, result.Warned)
		assert.Equal(t, 0, result.Removed)
		require.Len(t, result.Decisions, 1)
		assert.Equal(t, ActionWarned, result.Decisions[0].Action)
		assert.FileExists(t, filepath.Join(dir, "p1_backup_2025_0900.log"))
	})

	t.Run("other pools untouched", func(t *testing.T) {
		dir := t.TempDir()
		writeLog(t, dir, "p1_backup_20250101_0900.log")
		writeLog(t, dir, "p2_backup_20250101_0900.log")

		result, err := Reconcile(dir, "p1", dates(), today)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Processed)
		assert.FileExists(t, filepath.Join(dir, "p2_backup_20250101_0900.log"))
	})

	t.Run("idempotent", func(t *testing.T) {
		dir := t.TempDir()
		writeLog(t, dir, "p1_backup_20250101_0900.log")
		writeLog(t, dir, "p1_backup_20250602_0900.log")

		first, err := Reconcile(dir, "p1", dates("20250602"), today)
		require.NoError(t, err)
		assert.Equal(t, 1, first.Removed)

		second, err := Reconcile(dir, "p1", dates("20250602"), today)
		require.NoError(t, err)
		assert.Equal(t, 0, second.Removed)
		assert.Equal(t, 1, second.Kept)
	})

	t.Run("deletion failure warned, pass continues", func(t *testing.T) {
		dir := t.TempDir()
		writeLog(t, dir, "p1_backup_20250101_0900.log")
		writeLog(t, dir, "p1_backup_20250201_0900.log")
		writeLog(t, dir, "p1_backup_20250602_0900.log")

		// First orphan refuses to go; the second must still be removed.
		stuck := filepath.Join(dir, "p1_backup_20250101_0900.log")
		orig := removeFile
		removeFile = func(path string) error {
			if path == stuck {
				return os.ErrPermission
			}
			return os.Remove(path)
		}
		t.Cleanup(func() { removeFile = orig })

		result, err := Reconcile(dir, "p1", dates("20250602"), today)
		require.NoError(t, err)

		assert.Equal(t, 3, result.Processed)
		assert.Equal(t, 1, result.Removed)
		assert.Equal(t, 1, result.Kept)
		assert.Equal(t, 1, result.Warned)

		assert.FileExists(t, stuck)
		assert.NoFileExists(t, filepath.Join(dir, "p1_backup_20250201_0900.log"))
		assert.FileExists(t, filepath.Join(dir, "p1_backup_20250602_0900.log"))

		var warned *Decision
		for i := range result.Decisions {
			if result.Decisions[i].Action == ActionWarned {
				warned = &result.Decisions[i]
			}
		}
		require.NotNil(t, warned)
		assert.Equal(t, "deletion failed", warned.Reason)
		assert.ErrorIs(t, warned.Err, os.ErrPermission)
	})

	t.Run("pool name prefix not confused", func(t *testing.T) {
		dir := t.TempDir()
		// p1-extra is a different pool even though it shares the prefix.
		writeLog(t, dir, "p1-extra_backup_20250101_0900.log")

		result, err := Reconcile(dir, "p1", dates(), today)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Processed)
		assert.FileExists(t, filepath.Join(dir, "p1-extra_backup_20250101_0900.log"))
	})

	t.Run("missing log directory", func(t *testing.T) {
		_, err := Reconcile(filepath.Join(t.TempDir(), "nope"), "p1", dates(), today)
		assert.ErrorContains(t, err, "failed to read log directory")
	})
}
