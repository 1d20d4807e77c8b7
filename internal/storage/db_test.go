package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dd2-manager/internal/models"
	"dd2-manager/pkg/logger"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "sub", "history.db"), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBeginAndFinishRun(t *testing.T) {
	db := openTemp(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	id, err := db.BeginRun(start)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	runs, err := db.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].End.IsZero())
	assert.Zero(t, runs[0].Duration())

	require.NoError(t, db.FinishRun(id, start.Add(7*time.Minute), 3, "cycle limit"))
	runs, err = db.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 3, runs[0].Cycles)
	assert.Equal(t, "cycle limit", runs[0].Reason)
	assert.Equal(t, 7*time.Minute, runs[0].Duration())
}

func TestFinishUnknownRun(t *testing.T) {
	db := openTemp(t)
	assert.Error(t, db.FinishRun("missing", time.Now(), 0, "manual"))
}

func TestRecentRunsOrderAndLimit(t *testing.T) {
	db := openTemp(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := db.AddRun(models.Run{
			ID:     string(rune('a' + i)),
			Start:  base.Add(time.Duration(i) * time.Hour),
			End:    base.Add(time.Duration(i)*time.Hour + time.Minute),
			Cycles: i,
			Reason: "manual",
		})
		require.NoError(t, err)
	}

	runs, err := db.RecentRuns(3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"e", "d", "c"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
}

func TestRemoveAndCleanup(t *testing.T) {
	db := openTemp(t)
	old, err := db.AddRun(models.Run{Start: time.Now().Add(-48 * time.Hour), Reason: "manual"})
	require.NoError(t, err)
	fresh, err := db.AddRun(models.Run{Start: time.Now(), Reason: "manual"})
	require.NoError(t, err)
	other, err := db.AddRun(models.Run{Start: time.Now(), Reason: "cancelled"})
	require.NoError(t, err)

	require.NoError(t, db.Cleanup(24*time.Hour))
	require.NoError(t, db.RemoveRuns([]string{other}))

	runs, err := db.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, fresh, runs[0].ID)
	assert.NotEqual(t, old, runs[0].ID)
}
