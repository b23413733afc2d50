package repository

import (
	"memcard/internal/db"
	"memcard/internal/model"
	"time"
)

type SyncLogRepository struct{}

func NewSyncLogRepository() *SyncLogRepository {
	return &SyncLogRepository{}
}

func (r *SyncLogRepository) Save(entry model.SyncLog) error {
	if entry.SyncedAt.IsZero() {
		entry.SyncedAt = time.Now()
	}

	return db.DB.Create(&entry).Error
}

type Stats struct {
	Total   int64
	Success int64
	Failed  int64
}

func (r *SyncLogRepository) GetStats() (Stats, error) {
	var stats Stats
	if err := db.DB.Model(&model.SyncLog{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	if err := db.DB.Model(&model.SyncLog{}).
		Where("success = ?", true).
		Count(&stats.Success).Error; err != nil {
		return stats, err
	}

	stats.Failed = stats.Total - stats.Success
	return stats, nil
}

func (r *SyncLogRepository) GetRecent(limit int) ([]model.SyncLog, error) {
	var entries []model.SyncLog
	result := db.DB.
		Order("synced_at desc").
		Limit(limit).
		Find(&entries)

	return entries, result.Error
}

func (r *SyncLogRepository) GetByGame(gameID uint, limit int) ([]model.SyncLog, error) {
	var entries []model.SyncLog
	result := db.DB.
		Where("game_id = ?", gameID).
		Order("synced_at desc").
		Limit(limit).
		Find(&entries)

	return entries, result.Error
}

func (r *SyncLogRepository) Clear(gameID uint) (int64, error) {
	query := db.DB.Model(&model.SyncLog{})
	if gameID != 0 {
		query = query.Where("game_id = ?", gameID)
	}

	result := query.Unscoped().Where("1 = 1").Delete(&model.SyncLog{})
	return result.RowsAffected, result.Error
}
