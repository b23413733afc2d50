package model

import (
	"time"

	"gorm.io/gorm"
)

type Operation string

const (
	OpSync    Operation = "SYNC"
	OpResolve Operation = "CONFLICT_RESOLVED"
)

// SyncLog records one completed sync run or conflict resolution.
type SyncLog struct {
	gorm.Model
	GameID      uint      `gorm:"index" json:"game_id"`
	GameName    string    `gorm:"not null" json:"game_name"`
	Operation   Operation `gorm:"not null" json:"operation"`
	FilesSynced int       `json:"files_synced"`
	Conflicts   int       `json:"conflicts"`
	Failed      int       `json:"failed"`
	Success     bool      `gorm:"not null" json:"success"`
	ErrMsg      string    `json:"error,omitempty"`
	SyncedAt    time.Time `gorm:"not null;index" json:"synced_at"`
}
