package zfs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseList(t *testing.T) {
	t.Run("datasets and snapshots", func(t *testing.T) {
		output := "tank\tfilesystem\t1.2G\tSun Jun  1 12:00 2025\n" +
			"tank@tank-20250601120000\tsnapshot\t0B\tSun Jun  1 12:00 2025\n" +
			"tank/data\tfilesystem\t800M\tSun Jun  1 12:05 2025\n" +
			"tank/data@tank-20250602090000\tsnapshot\t12K\tMon Jun  2 09:00 2025\n"

		records, err := ParseList(output)
		require.NoError(t, err)
		require.Len(t, records, 4)

		assert.Equal(t, "tank", records[0].Name)
		assert.Equal(t, TypeFilesystem, records[0].Type)
		assert.Equal(t, "1.2G", records[0].Used)
		assert.False(t, records[0].IsSnapshot())

		assert.True(t, records[1].IsSnapshot())
		assert.Equal(t, "tank", records[1].Dataset())
		assert.Equal(t, "tank-20250601120000", records[1].SnapshotName())

		assert.Equal(t, "tank/data", records[3].Dataset())
		assert.Equal(t, time.June, records[3].Creation.Month())
		assert.Equal(t, 2, records[3].Creation.Day())
	})

	t.Run("empty output", func(t *testing.T) {
		records, err := ParseList("")
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("malformed line", func(t *testing.T) {
		_, err := ParseList("tank\tfilesystem\n")
		assert.ErrorContains(t, err, "unexpected zfs list line")
	})

	t.Run("unparseable creation left zero", func(t *testing.T) {
		records, err := ParseList("tank\tfilesystem\t1.2G\t-\n")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.True(t, records[0].Creation.IsZero())
	})
}

func TestCheckPoolExistsExecFailureNotMissingPool(t *testing.T) {
	// With an empty PATH the zfs binary cannot be found at all; that must
	// not be reported as a missing pool.
	t.Setenv("PATH", t.TempDir())

	err := CheckPoolExists("tank")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPoolNotFound)
}

func TestRecordAccessors(t *testing.T) {
	rec := Record{Name: "tank/data@tank-20250601120000", Type: TypeSnapshot}
	assert.Equal(t, "tank/data", rec.Dataset())
	assert.Equal(t, "tank-20250601120000", rec.SnapshotName())

	ds := Record{Name: "tank/data", Type: TypeFilesystem}
	assert.Equal(t, "tank/data", ds.Dataset())
	assert.Equal(t, "", ds.SnapshotName())
}
