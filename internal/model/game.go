package model

import "gorm.io/gorm"

type GameStatus string

const (
	GameStatusActive GameStatus = "ACTIVE"
	GameStatusPaused GameStatus = "PAUSED"
)

// Game is one entry of the save library: a local save directory paired with
// the folder a cloud client keeps synced.
type Game struct {
	gorm.Model
	Name       string     `gorm:"not null;uniqueIndex" json:"name"`
	LocalPath  string     `gorm:"not null" json:"local_path"`
	MirrorPath string     `gorm:"not null" json:"mirror_path"`
	Policy     string     `gorm:"not null;default:'MANUAL'" json:"policy"`
	Status     GameStatus `gorm:"not null;default:'ACTIVE'" json:"status"`
}
