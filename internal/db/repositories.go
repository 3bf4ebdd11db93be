package db

import "gorm.io/gorm"

type Repositories struct {
	Users  *UserRepository
	Tasks  *TaskRepository
	Photos *PhotoRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Users:  NewUserRepository(database),
		Tasks:  NewTaskRepository(database),
		Photos: NewPhotoRepository(database),
	}
}
