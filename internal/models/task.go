package models

import "time"

const (
	StatusNew       = "new"
	StatusCompleted = "completed"
	StatusApproved  = "approved"
	StatusRedo      = "redo"
)

const (
	CategoryCashRegister = "cash-register"
	CategorySaladStation = "salad-station"
	CategoryBreading     = "breading"
	CategoryStreet       = "street"
	CategoryHall         = "hall"
	// CategoryOther is the catch-all: tasks filed under it are visible to
	// every executor regardless of their own category.
	CategoryOther = "other"
)

// Categories lists every work area in menu order.
func Categories() []string {
	return []string{
		CategoryCashRegister,
		CategorySaladStation,
		CategoryBreading,
		CategoryStreet,
		CategoryHall,
		CategoryOther,
	}
}

func ValidCategory(category string) bool {
	for _, known := range Categories() {
		if category == known {
			return true
		}
	}
	return false
}

func ValidStatus(status string) bool {
	switch status {
	case StatusNew, StatusCompleted, StatusApproved, StatusRedo:
		return true
	default:
		return false
	}
}

// Task carries the legacy single-photo columns alongside the task_photos
// album rows; the legacy fields mirror the first photo of each kind so
// databases written by older deployments stay readable.
type Task struct {
	TaskID          int        `gorm:"column:task_id;primaryKey" json:"task_id"`
	CreatedBy       int64      `gorm:"column:created_by" json:"created_by"`
	PhotoBeforeID   string     `gorm:"column:photo_before_id" json:"photo_before_id"`
	PhotoBeforePath string     `gorm:"column:photo_before_path" json:"photo_before_path"`
	Comment         string     `gorm:"column:comment" json:"comment"`
	Status          string     `gorm:"column:status;not null;default:new" json:"status"`
	Category        string     `gorm:"column:category" json:"category"`
	CompletedBy     *int64     `gorm:"column:completed_by" json:"completed_by"`
	PhotoAfterID    string     `gorm:"column:photo_after_id" json:"photo_after_id"`
	PhotoAfterPath  string     `gorm:"column:photo_after_path" json:"photo_after_path"`
	CreatedAt       time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	CompletedAt     *time.Time `gorm:"column:completed_at" json:"completed_at"`
}

func (Task) TableName() string {
	return "tasks"
}

// Open reports whether the task still needs executor work.
func (task Task) Open() bool {
	return task.Status == StatusNew || task.Status == StatusRedo
}
