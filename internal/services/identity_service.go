package services

import (
	"fmt"
	"time"

	"github.com/overtq/blesk/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// IdentityStore is the slice of the user store the identity service needs.
type IdentityStore interface {
	SetRole(userID int64, username string, role string, category *string) error
	MarkInactive(userID int64) error
	MarkInactiveIdleSince(cutoff time.Time) (int64, error)
	Role(userID int64) (string, error)
	Category(userID int64) (*string, error)
}

// IdentityService handles registration, category selection and the
// manager promotion gate.
type IdentityService struct {
	users IdentityStore
	// managerCodeHash is the bcrypt hash of the shared manager access
	// code from configuration.
	managerCodeHash string
}

func NewIdentityService(users IdentityStore, managerCodeHash string) *IdentityService {
	return &IdentityService{users: users, managerCodeHash: managerCodeHash}
}

// Restart is a full identity reset: whatever the user was before, they
// come back as a plain executor with no category.
func (service *IdentityService) Restart(userID int64, username string) error {
	if err := service.users.SetRole(userID, username, models.RoleExecutor, nil); err != nil {
		return fmt.Errorf("reset identity: %w", err)
	}
	return nil
}

// SelectCategory records the user's work area. Picking a category is a
// role-setting event: whoever does it comes out an executor in that
// category, a manager included.
func (service *IdentityService) SelectCategory(userID int64, username string, category string) error {
	if !models.ValidCategory(category) {
		return ErrUnknownCategory
	}
	if err := service.users.SetRole(userID, username, models.RoleExecutor, &category); err != nil {
		return fmt.Errorf("set category: %w", err)
	}
	return nil
}

// VerifyAccessCode checks a submitted code against the configured hash.
// An empty configured hash rejects everything.
func (service *IdentityService) VerifyAccessCode(code string) error {
	if service.managerCodeHash == "" {
		return ErrAccessDenied
	}
	if err := bcrypt.CompareHashAndPassword([]byte(service.managerCodeHash), []byte(code)); err != nil {
		return ErrAccessDenied
	}
	return nil
}

// PromoteToManager verifies the shared access code and grants the
// manager role. Promotion clears any executor category.
func (service *IdentityService) PromoteToManager(userID int64, username string, code string) error {
	if err := service.VerifyAccessCode(code); err != nil {
		return err
	}
	if err := service.users.SetRole(userID, username, models.RoleManager, nil); err != nil {
		return fmt.Errorf("promote to manager: %w", err)
	}
	return nil
}

// Deactivate is the soft-delete path.
func (service *IdentityService) Deactivate(userID int64) error {
	if err := service.users.MarkInactive(userID); err != nil {
		return fmt.Errorf("mark inactive: %w", err)
	}
	return nil
}

// DeactivateIdle marks everyone inactive whose last activity is older
// than the threshold. Returns how many users were deactivated.
func (service *IdentityService) DeactivateIdle(olderThan time.Duration) (int64, error) {
	count, err := service.users.MarkInactiveIdleSince(time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("deactivate idle users: %w", err)
	}
	return count, nil
}

func (service *IdentityService) Role(userID int64) (string, error) {
	return service.users.Role(userID)
}

func (service *IdentityService) Category(userID int64) (*string, error) {
	return service.users.Category(userID)
}
