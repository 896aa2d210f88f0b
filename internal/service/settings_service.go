package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"azox/internal/cache"
	"azox/internal/models"
	"azox/internal/repository"
	"azox/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SettingsService covers self-service account management. Every mutation
// requires the caller's current password.
type SettingsService struct {
	db       *gorm.DB
	userRepo repository.UserRepository
}

func NewSettingsService(db *gorm.DB, userRepo repository.UserRepository) *SettingsService {
	return &SettingsService{db: db, userRepo: userRepo}
}

func (s *SettingsService) ChangeEmail(ctx context.Context, userID uint, currentPassword, newEmail string) error {
	user, err := s.requireVerified(ctx, userID, currentPassword)
	if err != nil {
		return err
	}

	newEmail = strings.TrimSpace(strings.ToLower(newEmail))
	if err := validation.ValidateEmail(newEmail); err != nil {
		return err
	}
	if newEmail == user.Email {
		return models.NewValidationError("New email matches your current email")
	}

	existing, err := s.userRepo.GetByEmail(ctx, newEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		return models.NewValidationError("Email already in use")
	}

	user.Email = newEmail
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (s *SettingsService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	user, err := s.requireVerified(ctx, userID, currentPassword)
	if err != nil {
		return err
	}

	if err := validation.ValidateNewPassword(newPassword, currentPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.PasswordHash = string(hash)
	return s.userRepo.Update(ctx, user)
}

// DeleteAccount deactivates the caller's own account. Content goes through
// the same soft-delete cascade moderators use, while notifications and
// sessions are removed outright and the email is scrambled so the address
// can be registered again.
func (s *SettingsService) DeleteAccount(ctx context.Context, userID uint, password string) error {
	user, err := s.requireVerified(ctx, userID, password)
	if err != nil {
		return err
	}
	if user.Role.Moderator() {
		return models.NewForbiddenError("Staff accounts cannot self-delete; ask the owner")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Thread{}).Where("author_id = ?", user.ID).Update("is_deleted", true).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).Where("author_id = ?", user.ID).Update("is_deleted", true).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Message{}).Where("sender_id = ?", user.ID).Update("is_deleted", true).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserSession{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"is_active": false,
			"email":     fmt.Sprintf("deleted_%d@deleted.local", user.ID),
		}).Error
	})
	if err != nil {
		return models.NewDatabaseError("delete account", err)
	}

	cache.InvalidateUser(ctx, user.ID)
	slog.InfoContext(ctx, "account self-deleted", "user_id", user.ID)
	return nil
}

func (s *SettingsService) requireVerified(ctx context.Context, userID uint, password string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, models.NewUnauthorizedError("Account is not active")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.NewValidationError("Current password is incorrect")
	}
	return user, nil
}
