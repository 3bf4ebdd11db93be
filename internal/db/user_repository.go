package db

import (
	"errors"
	"time"

	"github.com/overtq/blesk/internal/models"
	"gorm.io/gorm"
)

// UserRepository is the identity and role store. Reads never fail on an
// unknown user: they return the documented defaults instead (an unknown
// user is a plain executor with no category).
type UserRepository struct {
	database *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{database: database}
}

// SetRole upserts the user, overwriting role and category. The category
// argument is taken as-is for executors; any other role forces it to NULL
// so that manager and inactive rows can never keep a stale work area.
func (repo *UserRepository) SetRole(userID int64, username string, role string, category *string) error {
	if role != models.RoleExecutor {
		category = nil
	}
	now := time.Now()

	result := repo.database.Model(&models.User{}).Where("user_id = ?", userID).Updates(map[string]any{
		"username":    username,
		"role":        role,
		"category":    category,
		"last_active": now,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return repo.database.Create(&models.User{
		UserID:     userID,
		Username:   username,
		Role:       role,
		Category:   category,
		LastActive: now,
		CreatedAt:  now,
	}).Error
}

// SetCategory changes the work area without touching the role. An unknown
// user is created as an executor in that category.
func (repo *UserRepository) SetCategory(userID int64, username string, category string) error {
	now := time.Now()

	result := repo.database.Model(&models.User{}).Where("user_id = ?", userID).Updates(map[string]any{
		"username":    username,
		"category":    category,
		"last_active": now,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return repo.database.Create(&models.User{
		UserID:     userID,
		Username:   username,
		Role:       models.RoleExecutor,
		Category:   &category,
		LastActive: now,
		CreatedAt:  now,
	}).Error
}

// MarkInactive is the soft-delete path.
func (repo *UserRepository) MarkInactive(userID int64) error {
	return repo.database.Model(&models.User{}).Where("user_id = ?", userID).Updates(map[string]any{
		"role":        models.RoleInactive,
		"category":    nil,
		"last_active": time.Now(),
	}).Error
}

// MarkInactiveIdleSince deactivates every non-inactive user whose last
// activity is older than the cutoff. Returns how many rows changed.
func (repo *UserRepository) MarkInactiveIdleSince(cutoff time.Time) (int64, error) {
	result := repo.database.Model(&models.User{}).
		Where("role <> ? AND last_active < ?", models.RoleInactive, cutoff).
		Updates(map[string]any{
			"role":     models.RoleInactive,
			"category": nil,
		})
	return result.RowsAffected, result.Error
}

func (repo *UserRepository) Touch(userID int64) error {
	return repo.database.Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("last_active", time.Now()).Error
}

func (repo *UserRepository) Find(userID int64) (models.User, bool, error) {
	var user models.User
	err := repo.database.Where("user_id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	return user, true, nil
}

func (repo *UserRepository) Role(userID int64) (string, error) {
	user, found, err := repo.Find(userID)
	if err != nil {
		return "", err
	}
	if !found {
		return models.RoleExecutor, nil
	}
	return user.Role, nil
}

func (repo *UserRepository) Category(userID int64) (*string, error) {
	user, found, err := repo.Find(userID)
	if err != nil || !found {
		return nil, err
	}
	if user.Category != nil && *user.Category == "" {
		return nil, nil
	}
	return user.Category, nil
}

func (repo *UserRepository) Username(userID int64) (string, error) {
	user, _, err := repo.Find(userID)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

func (repo *UserRepository) LastActive(userID int64) (time.Time, bool, error) {
	user, found, err := repo.Find(userID)
	if err != nil || !found {
		return time.Time{}, false, err
	}
	return user.LastActive, true, nil
}

func (repo *UserRepository) ListByCategory(category string) ([]models.User, error) {
	users := make([]models.User, 0)
	if err := repo.database.Where("category = ?", category).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (repo *UserRepository) ListByRole(role string) ([]models.User, error) {
	users := make([]models.User, 0)
	if err := repo.database.Where("role = ?", role).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (repo *UserRepository) ListExecutorIDs() ([]int64, error) {
	return repo.listIDsByRole(models.RoleExecutor)
}

func (repo *UserRepository) ListManagerIDs() ([]int64, error) {
	return repo.listIDsByRole(models.RoleManager)
}

func (repo *UserRepository) listIDsByRole(role string) ([]int64, error) {
	ids := make([]int64, 0)
	if err := repo.database.Model(&models.User{}).
		Where("role = ?", role).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
