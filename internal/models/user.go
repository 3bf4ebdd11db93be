package models

import "time"

const (
	RoleExecutor = "executor"
	RoleManager  = "manager"
	RoleInactive = "inactive"
)

// User is keyed by the chat platform's user identifier, not a surrogate ID.
// A user is never hard-deleted; deactivation sets Role to RoleInactive.
type User struct {
	UserID     int64     `gorm:"column:user_id;primaryKey" json:"user_id"`
	Username   string    `gorm:"column:username" json:"username"`
	Role       string    `gorm:"column:role;not null;default:executor" json:"role"`
	Category   *string   `gorm:"column:category" json:"category"`
	LastActive time.Time `gorm:"column:last_active;not null" json:"last_active"`
	CreatedAt  time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

func ValidRole(role string) bool {
	switch role {
	case RoleExecutor, RoleManager, RoleInactive:
		return true
	default:
		return false
	}
}
