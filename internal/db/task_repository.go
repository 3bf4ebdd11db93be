package db

import (
	"errors"
	"time"

	"github.com/overtq/blesk/internal/models"
	"gorm.io/gorm"
)

type TaskRepository struct {
	database *gorm.DB
}

func NewTaskRepository(database *gorm.DB) *TaskRepository {
	return &TaskRepository{database: database}
}

// Create inserts a task with the smallest positive ID not currently in
// use, so IDs freed by deleted tasks are recycled. The scan and the
// insert run in one transaction; the deployment is single-writer, so no
// stronger guard is taken against concurrent allocators.
func (repo *TaskRepository) Create(createdBy int64, photoID string, photoPath string, comment string, category string) (int, error) {
	taskID := 0
	err := repo.database.Transaction(func(tx *gorm.DB) error {
		existing := make([]int, 0)
		if err := tx.Model(&models.Task{}).
			Order("task_id").
			Pluck("task_id", &existing).Error; err != nil {
			return err
		}

		taskID = 1
		for _, used := range existing {
			if used != taskID {
				break
			}
			taskID++
		}

		return tx.Create(&models.Task{
			TaskID:          taskID,
			CreatedBy:       createdBy,
			PhotoBeforeID:   photoID,
			PhotoBeforePath: photoPath,
			Comment:         comment,
			Status:          models.StatusNew,
			Category:        category,
			CreatedAt:       time.Now(),
		}).Error
	})
	if err != nil {
		return 0, err
	}
	return taskID, nil
}

func (repo *TaskRepository) Find(taskID int) (models.Task, bool, error) {
	var task models.Task
	err := repo.database.Where("task_id = ?", taskID).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Task{}, false, nil
	}
	if err != nil {
		return models.Task{}, false, err
	}
	return task, true, nil
}

// List returns tasks newest-created first. Empty filters are ignored;
// both supplied means both must match.
func (repo *TaskRepository) List(status string, category string) ([]models.Task, error) {
	query := repo.database.Model(&models.Task{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}

	tasks := make([]models.Task, 0)
	if err := query.Order("created_at DESC, task_id DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// CountOpen returns the number of tasks awaiting executor work (status
// new or redo) in the given category.
func (repo *TaskRepository) CountOpen(category string) (int64, error) {
	var count int64
	err := repo.database.Model(&models.Task{}).
		Where("category = ? AND status IN ?", category, []string{models.StatusNew, models.StatusRedo}).
		Count(&count).Error
	return count, err
}

// UpdateStatus sets the status. StatusCompleted is the only status that
// carries a payload: it atomically records who completed the task, the
// after-photo reference and the completion time. Every other status only
// flips the column; callers clear completion fields via ResetToNew.
func (repo *TaskRepository) UpdateStatus(taskID int, status string, completedBy *int64, photoAfterID string, photoAfterPath string) error {
	if status == models.StatusCompleted {
		return repo.database.Model(&models.Task{}).Where("task_id = ?", taskID).Updates(map[string]any{
			"status":           status,
			"completed_by":     completedBy,
			"photo_after_id":   photoAfterID,
			"photo_after_path": photoAfterPath,
			"completed_at":     time.Now(),
		}).Error
	}
	return repo.database.Model(&models.Task{}).
		Where("task_id = ?", taskID).
		Update("status", status).Error
}

// ResetToNew reopens the task: status back to new, completion fields and
// after-photo references cleared.
func (repo *TaskRepository) ResetToNew(taskID int) error {
	return repo.database.Model(&models.Task{}).Where("task_id = ?", taskID).Updates(map[string]any{
		"status":           models.StatusNew,
		"completed_by":     nil,
		"photo_after_id":   "",
		"photo_after_path": "",
		"completed_at":     nil,
	}).Error
}

func (repo *TaskRepository) UpdateComment(taskID int, comment string) error {
	return repo.database.Model(&models.Task{}).
		Where("task_id = ?", taskID).
		Update("comment", comment).Error
}

func (repo *TaskRepository) UpdateBeforePhoto(taskID int, photoID string, photoPath string) error {
	return repo.database.Model(&models.Task{}).Where("task_id = ?", taskID).Updates(map[string]any{
		"photo_before_id":   photoID,
		"photo_before_path": photoPath,
	}).Error
}

// Delete removes the task row and every attachment row. The cascade is
// done explicitly in the same transaction rather than trusting the
// sqlite foreign-key pragma to be on.
func (repo *TaskRepository) Delete(taskID int) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskPhoto{}).Error; err != nil {
			return err
		}
		return tx.Where("task_id = ?", taskID).Delete(&models.Task{}).Error
	})
}
