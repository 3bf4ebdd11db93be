package models

const (
	PhotoKindBefore = "before"
	PhotoKindAfter  = "after"
)

// TaskPhoto is one attachment in a task's before or after album.
type TaskPhoto struct {
	ID       uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TaskID   int    `gorm:"column:task_id;not null;index" json:"task_id"`
	Kind     string `gorm:"column:kind;not null" json:"kind"`
	FileID   string `gorm:"column:file_id" json:"file_id"`
	FilePath string `gorm:"column:file_path" json:"file_path"`
}

func (TaskPhoto) TableName() string {
	return "task_photos"
}
