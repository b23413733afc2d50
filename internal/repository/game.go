package repository

import (
	"memcard/internal/db"
	"memcard/internal/model"
)

type GameRepository struct{}

func NewGameRepository() *GameRepository {
	return &GameRepository{}
}

func (r *GameRepository) Add(name, localPath, mirrorPath, policy string) (model.Game, error) {
	game := model.Game{
		Name:       name,
		LocalPath:  localPath,
		MirrorPath: mirrorPath,
		Policy:     policy,
		Status:     model.GameStatusActive,
	}

	return game, db.DB.Create(&game).Error
}

func (r *GameRepository) GetAll() ([]model.Game, error) {
	var games []model.Game
	return games, db.DB.Find(&games).Error
}

func (r *GameRepository) GetByID(id uint) (model.Game, error) {
	var game model.Game
	return game, db.DB.First(&game, id).Error
}

func (r *GameRepository) GetByName(name string) (model.Game, error) {
	var game model.Game
	return game, db.DB.Where("name = ?", name).First(&game).Error
}

func (r *GameRepository) UpdateStatus(id uint, status model.GameStatus) error {
	return db.DB.Model(&model.Game{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *GameRepository) Delete(id uint) error {
	return db.DB.Delete(&model.Game{}, id).Error
}
