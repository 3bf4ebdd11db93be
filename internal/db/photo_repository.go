package db

import (
	"github.com/overtq/blesk/internal/models"
	"gorm.io/gorm"
)

type PhotoRepository struct {
	database *gorm.DB
}

func NewPhotoRepository(database *gorm.DB) *PhotoRepository {
	return &PhotoRepository{database: database}
}

func (repo *PhotoRepository) Add(taskID int, kind string, fileID string, filePath string) error {
	return repo.database.Create(&models.TaskPhoto{
		TaskID:   taskID,
		Kind:     kind,
		FileID:   fileID,
		FilePath: filePath,
	}).Error
}

func (repo *PhotoRepository) ListByTask(taskID int) ([]models.TaskPhoto, error) {
	photos := make([]models.TaskPhoto, 0)
	if err := repo.database.
		Where("task_id = ?", taskID).
		Order("id").
		Find(&photos).Error; err != nil {
		return nil, err
	}
	return photos, nil
}

func (repo *PhotoRepository) ListByTaskAndKind(taskID int, kind string) ([]models.TaskPhoto, error) {
	photos := make([]models.TaskPhoto, 0)
	if err := repo.database.
		Where("task_id = ? AND kind = ?", taskID, kind).
		Order("id").
		Find(&photos).Error; err != nil {
		return nil, err
	}
	return photos, nil
}

func (repo *PhotoRepository) DeleteByTask(taskID int) error {
	return repo.database.Where("task_id = ?", taskID).Delete(&models.TaskPhoto{}).Error
}

func (repo *PhotoRepository) DeleteByTaskAndKind(taskID int, kind string) error {
	return repo.database.Where("task_id = ? AND kind = ?", taskID, kind).Delete(&models.TaskPhoto{}).Error
}
