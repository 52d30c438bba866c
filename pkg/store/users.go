package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/hobbsbbs/hobbs/internal/telemetry"
	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

// MinPasswordLength is enforced on registration and password changes.
const MinPasswordLength = 8

// RegisterUser creates a new account. The first user in an empty table
// atomically becomes SysOp; everyone after that starts as Member.
func (s *GORMStore) RegisterUser(ctx context.Context, username, password, nickname string) (*models.User, error) {
	if username == "" {
		return nil, models.NewValidationError("username", "must not be empty")
	}
	if len(password) < MinPasswordLength {
		return nil, models.NewValidationError("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	if nickname == "" {
		nickname = username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Nickname:     nickname,
		Role:         models.RoleMember,
		Encoding:     "utf-8",
		Language:     "en",
		AutoPaging:   true,
		IsActive:     true,
	}

	// The empty-table check and the insert share one transaction so two
	// concurrent first registrations cannot both become SysOp.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			user.Role = models.RoleSysOp
		}
		if err := tx.Create(user).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.ErrDuplicateUser
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Authenticate verifies the password for the username. Unknown users and
// wrong passwords both yield ErrInvalidCredentials; a correct password on
// a disabled account yields ErrUserInactive.
func (s *GORMStore) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	ctx, span := telemetry.StartStoreSpan(ctx, "Authenticate", telemetry.Username(username))
	defer span.End()

	user, err := s.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, models.ErrUserInactive
	}

	return user, nil
}

// GetUser retrieves a user by username.
func (s *GORMStore) GetUser(ctx context.Context, username string) (*models.User, error) {
	return getByField[models.User](s.db, ctx, "username", username, models.ErrUserNotFound)
}

// GetUserByID retrieves a user by id.
func (s *GORMStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return getByField[models.User](s.db, ctx, "id", id, models.ErrUserNotFound)
}

// ListUsers returns one page of users ordered by id.
func (s *GORMStore) ListUsers(ctx context.Context, page Page) ([]*models.User, int64, error) {
	return listPage[models.User](s.db, ctx, page, "id ASC", "")
}

// CountUsers returns the total number of users.
func (s *GORMStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}

// UpdateUser applies the set fields of the update to the user.
func (s *GORMStore) UpdateUser(ctx context.Context, id int64, update models.UserUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	fields := map[string]any{}
	if update.Nickname != nil {
		fields["nickname"] = *update.Nickname
	}
	if update.Email != nil {
		fields["email"] = *update.Email
	}
	if update.Profile != nil {
		fields["profile"] = *update.Profile
	}
	if update.TerminalProfileName != nil {
		fields["terminal_profile_name"] = *update.TerminalProfileName
	}
	if update.Encoding != nil {
		fields["encoding"] = *update.Encoding
	}
	if update.Language != nil {
		fields["language"] = *update.Language
	}
	if update.AutoPaging != nil {
		fields["auto_paging"] = *update.AutoPaging
	}
	if update.IsActive != nil {
		// Deactivation must go through SetUserActive for the SysOp check.
		return s.SetUserActive(ctx, id, *update.IsActive)
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// UpdatePassword hashes and stores a new password.
func (s *GORMStore) UpdatePassword(ctx context.Context, id int64, password string) error {
	if len(password) < MinPasswordLength {
		return models.NewValidationError("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Update("password_hash", string(hash))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// UpdateLastLogin records a successful login timestamp.
func (s *GORMStore) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Update("last_login", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// ChangeRole sets a new role for the target user. Demoting the last
// active SysOp is refused inside the same transaction that performs the
// update, so the invariant holds under concurrent changes.
func (s *GORMStore) ChangeRole(ctx context.Context, targetID int64, newRole models.Role) error {
	if !newRole.IsValid() {
		return models.NewValidationError("role", "unknown role")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.User
		if err := tx.Where("id = ?", targetID).First(&target).Error; err != nil {
			return convertNotFoundError(err, models.ErrUserNotFound)
		}

		if target.Role == models.RoleSysOp && newRole < models.RoleSysOp {
			var sysops int64
			if err := tx.Model(&models.User{}).
				Where("role = ? AND is_active = ?", models.RoleSysOp, true).
				Count(&sysops).Error; err != nil {
				return err
			}
			if sysops <= 1 {
				return models.ErrLastSysOp
			}
		}

		return tx.Model(&target).Update("role", newRole).Error
	})
}

// SetUserActive enables or disables an account. Disabling the last active
// SysOp is refused.
func (s *GORMStore) SetUserActive(ctx context.Context, targetID int64, active bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.User
		if err := tx.Where("id = ?", targetID).First(&target).Error; err != nil {
			return convertNotFoundError(err, models.ErrUserNotFound)
		}

		if !active && target.Role == models.RoleSysOp && target.IsActive {
			var sysops int64
			if err := tx.Model(&models.User{}).
				Where("role = ? AND is_active = ?", models.RoleSysOp, true).
				Count(&sysops).Error; err != nil {
				return err
			}
			if sysops <= 1 {
				return models.ErrLastSysOp
			}
		}

		return tx.Model(&target).Update("is_active", active).Error
	})
}
