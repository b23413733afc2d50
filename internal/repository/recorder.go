package repository

import (
	"memcard/internal/logger"
	"memcard/internal/model"
	"memcard/internal/syncer"

	"go.uber.org/zap"
)

// RunRecorder adapts the sync log store to the orchestrator's Recorder
// interface. The zero GameID marks an ad-hoc run outside the game library.
type RunRecorder struct {
	GameID   uint
	GameName string
	logs     *SyncLogRepository
}

func NewRunRecorder(gameID uint, gameName string) *RunRecorder {
	return &RunRecorder{
		GameID:   gameID,
		GameName: gameName,
		logs:     NewSyncLogRepository(),
	}
}

func (r *RunRecorder) Record(record syncer.RunRecord) {
	entry := model.SyncLog{
		GameID:      r.GameID,
		GameName:    r.GameName,
		Operation:   model.OpSync,
		FilesSynced: record.FilesSynced,
		Conflicts:   record.Conflicts,
		Failed:      record.Failed,
		Success:     record.Success,
		ErrMsg:      record.ErrMsg,
		SyncedAt:    record.FinishedAt,
	}

	if err := r.logs.Save(entry); err != nil {
		logger.Log.Warn("failed to save sync log",
			zap.Error(err))
	}
}
