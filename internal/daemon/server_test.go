package daemon

import (
	"encoding/json"
	"memcard/internal/config"
	"memcard/internal/db"
	"memcard/internal/model"
	"memcard/internal/repository"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	require.NoError(t, db.Init(filepath.Join(t.TempDir(), "test.db")))

	cfg := config.Default
	return NewServer(NewManager(&cfg), 0)
}

func seedHistory(t *testing.T) {
	t.Helper()
	repo := repository.NewSyncLogRepository()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	entries := []model.SyncLog{
		{GameID: 1, GameName: "Celeste", Operation: model.OpSync, FilesSynced: 2, Success: true, SyncedAt: base},
		{GameID: 1, GameName: "Celeste", Operation: model.OpSync, Success: false, ErrMsg: "scan failed", SyncedAt: base.Add(time.Minute)},
		{GameID: 2, GameName: "Hades", Operation: model.OpSync, FilesSynced: 1, Success: true, SyncedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		require.NoError(t, repo.Save(e))
	}
}

func TestHistoryStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	seedHistory(t)

	req := httptest.NewRequest(http.MethodGet, "/history/stats", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(3), stats["total"])
	assert.Equal(t, int64(2), stats["success"])
	assert.Equal(t, int64(1), stats["failed"])
}

func TestClearHistoryEndpoint(t *testing.T) {
	srv := newTestServer(t)
	seedHistory(t)

	req := httptest.NewRequest(http.MethodDelete, "/history?game_id=1", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, int64(2), result["cleared"])

	remaining, err := repository.NewSyncLogRepository().GetRecent(10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "Hades", remaining[0].GameName)
}

func TestClearHistoryRejectsBadGameID(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/history?game_id=abc", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
