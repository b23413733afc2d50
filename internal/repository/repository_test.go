package repository

import (
	"memcard/internal/db"
	"memcard/internal/model"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func initTestDB(t *testing.T) {
	t.Helper()
	require.NoError(t, db.Init(filepath.Join(t.TempDir(), "test.db")))
}

func TestGameRepositoryCRUD(t *testing.T) {
	initTestDB(t)
	repo := NewGameRepository()

	game, err := repo.Add("Hollow Knight", "/saves/hk", "/mirror/hk", "PREFER_NEWER")
	require.NoError(t, err)
	assert.NotZero(t, game.ID)
	assert.Equal(t, model.GameStatusActive, game.Status)

	byName, err := repo.GetByName("Hollow Knight")
	require.NoError(t, err)
	assert.Equal(t, game.ID, byName.ID)
	assert.Equal(t, "/saves/hk", byName.LocalPath)
	assert.Equal(t, "PREFER_NEWER", byName.Policy)

	require.NoError(t, repo.UpdateStatus(game.ID, model.GameStatusPaused))
	byID, err := repo.GetByID(game.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GameStatusPaused, byID.Status)

	all, err := repo.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.Delete(game.ID))
	_, err = repo.GetByID(game.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGameRepositoryRejectsDuplicateName(t *testing.T) {
	initTestDB(t)
	repo := NewGameRepository()

	_, err := repo.Add("Celeste", "/a", "/b", "MANUAL")
	require.NoError(t, err)

	_, err = repo.Add("Celeste", "/c", "/d", "MANUAL")
	assert.Error(t, err)
}

func TestSyncLogRepository(t *testing.T) {
	initTestDB(t)
	repo := NewSyncLogRepository()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	entries := []model.SyncLog{
		{GameID: 1, GameName: "Celeste", Operation: model.OpSync, FilesSynced: 3, Success: true, SyncedAt: base},
		{GameID: 1, GameName: "Celeste", Operation: model.OpSync, Success: false, ErrMsg: "scan failed", SyncedAt: base.Add(time.Minute)},
		{GameID: 2, GameName: "Hades", Operation: model.OpSync, FilesSynced: 1, Success: true, SyncedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		require.NoError(t, repo.Save(e))
	}

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Success)
	assert.Equal(t, int64(1), stats.Failed)

	recent, err := repo.GetRecent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "Hades", recent[0].GameName, "newest first")

	byGame, err := repo.GetByGame(1, 10)
	require.NoError(t, err)
	assert.Len(t, byGame, 2)

	cleared, err := repo.Clear(1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cleared)

	stats, err = repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)
}

func TestSyncLogSaveFillsTimestamp(t *testing.T) {
	initTestDB(t)
	repo := NewSyncLogRepository()

	require.NoError(t, repo.Save(model.SyncLog{GameName: "Hades", Operation: model.OpSync, Success: true}))

	recent, err := repo.GetRecent(1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.WithinDuration(t, time.Now(), recent[0].SyncedAt, time.Minute)
}
