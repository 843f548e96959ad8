package store

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/bistrokit/bistro/pkg/models"
)

// ManagerUsername is the bootstrap manager account created on first start.
const ManagerUsername = "manager"

// EnvManagerInitialPassword overrides the generated bootstrap password.
const EnvManagerInitialPassword = "BISTRO_MANAGER_INITIAL_PASSWORD"

// memberCodeAttempts bounds the retry loop for unique code generation.
const memberCodeAttempts = 32

// GetUserByID returns the user with the given identifier.
func (s *Store) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).Where("user_id = ?", id).First(&user).Error
	})
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrUserNotFound)
	}
	return &user, nil
}

// GetUserByUsername returns the user with the given username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	})
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrUserNotFound)
	}
	return &user, nil
}

// GetUserByMemberCode returns the member identified by a 6-digit membership
// code, as scanned from a card or QR at a terminal.
func (s *Store) GetUserByMemberCode(ctx context.Context, code int) (*models.User, error) {
	var user models.User
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).Where("member_code = ?", code).First(&user).Error
	})
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrUserNotFound)
	}
	return &user, nil
}

// ValidateCredentials checks username/password and returns the user on match.
// Returns ErrInvalidCredentials for an unknown user or a wrong password, so a
// caller cannot distinguish the two.
func (s *Store) ValidateCredentials(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	return user, nil
}

// RegisterMember creates a MEMBER account with a fresh unique 6-digit
// membership code and a bcrypt-hashed password. The returned user carries
// the assigned code.
func (s *Store) RegisterMember(ctx context.Context, user *models.User, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hash)
	user.Role = models.RoleMember
	user.IsLoggedIn = false

	// Code collisions are resolved by retrying the insert; the unique index
	// on member_code is the authority.
	for attempt := 0; attempt < memberCodeAttempts; attempt++ {
		code, err := randomMemberCode()
		if err != nil {
			return nil, err
		}
		user.MemberCode = &code

		err = s.withHandle(func(db *gorm.DB) error {
			return db.WithContext(ctx).Create(user).Error
		})
		if err == nil {
			return user, nil
		}
		if !isUniqueConstraintError(err) {
			return nil, err
		}

		// A username collision cannot be fixed by a new code.
		if _, lookupErr := s.GetUserByUsername(ctx, user.Username); lookupErr == nil {
			return nil, models.ErrDuplicateUsername
		}
	}
	return nil, models.ErrDuplicateMemberCode
}

// CreateStaff creates a WORKER or MANAGER account.
func (s *Store) CreateStaff(ctx context.Context, user *models.User, password string) error {
	if !user.Role.IsStaff() {
		return fmt.Errorf("staff role required, got %s", user.Role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hash)

	err = s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).Create(user).Error
	})
	if isUniqueConstraintError(err) {
		return models.ErrDuplicateUsername
	}
	return err
}

// UpdateUserContact updates the mutable contact fields of a user.
func (s *Store) UpdateUserContact(ctx context.Context, userID uint, firstName, lastName, phone, email string) error {
	return s.withHandle(func(db *gorm.DB) error {
		result := db.WithContext(ctx).
			Model(&models.User{}).
			Where("user_id = ?", userID).
			Updates(map[string]any{
				"first_name": firstName,
				"last_name":  lastName,
				"phone":      phone,
				"email":      email,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.ErrUserNotFound
		}
		return nil
	})
}

// MarkLoggedIn conditionally sets the is_logged_in flag. The conditional
// update is what enforces the single-session invariant across processes:
// zero rows affected means another session already holds the account.
func (s *Store) MarkLoggedIn(ctx context.Context, userID uint) error {
	return s.withHandle(func(db *gorm.DB) error {
		result := db.WithContext(ctx).
			Model(&models.User{}).
			Where("user_id = ? AND is_logged_in = ?", userID, false).
			Update("is_logged_in", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.ErrAlreadyOnline
		}
		return nil
	})
}

// MarkLoggedOut clears the is_logged_in flag.
func (s *Store) MarkLoggedOut(ctx context.Context, userID uint) error {
	return s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Model(&models.User{}).
			Where("user_id = ?", userID).
			Update("is_logged_in", false).Error
	})
}

// ResetAllLoginFlags clears every is_logged_in flag. Called once at server
// startup so sessions stuck by an unclean shutdown do not block logins.
func (s *Store) ResetAllLoginFlags(ctx context.Context) error {
	return s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Model(&models.User{}).
			Where("is_logged_in = ?", true).
			Update("is_logged_in", false).Error
	})
}

// ListMembers returns all MEMBER accounts.
func (s *Store) ListMembers(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).
			Where("role = ?", models.RoleMember).
			Order("user_id").
			Find(&users).Error
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// EnsureManagerUser creates the bootstrap MANAGER account on first start.
// Returns the generated password (printed once by the caller), or "" when
// the account already exists.
func (s *Store) EnsureManagerUser(ctx context.Context) (string, error) {
	_, err := s.GetUserByUsername(ctx, ManagerUsername)
	if err == nil {
		return "", nil // already bootstrapped
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return "", err
	}

	password := os.Getenv(EnvManagerInitialPassword)
	fromEnv := password != ""
	if !fromEnv {
		password, err = generatePassword()
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
	}

	manager := &models.User{
		Username:  ManagerUsername,
		FirstName: "Bistro",
		LastName:  "Manager",
		Role:      models.RoleManager,
	}
	if err := s.CreateStaff(ctx, manager, password); err != nil {
		return "", fmt.Errorf("failed to create manager user: %w", err)
	}

	if fromEnv {
		return "", nil
	}
	return password, nil
}

// BootstrapManager creates a MANAGER account from a pre-hashed password, as
// written by "bistro init". Returns true when the account was created, false
// when it already existed.
func (s *Store) BootstrapManager(ctx context.Context, username, passwordHash string) (bool, error) {
	if username == "" {
		username = ManagerUsername
	}

	_, err := s.GetUserByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return false, err
	}

	manager := &models.User{
		Username:  username,
		Password:  passwordHash,
		FirstName: "Bistro",
		LastName:  "Manager",
		Role:      models.RoleManager,
	}
	if err := s.withHandle(func(db *gorm.DB) error {
		return db.WithContext(ctx).Create(manager).Error
	}); err != nil {
		return false, fmt.Errorf("failed to create manager user: %w", err)
	}
	return true, nil
}

// randomMemberCode returns a random 6-digit membership code (100000-999999).
func randomMemberCode() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return 0, fmt.Errorf("failed to generate member code: %w", err)
	}
	return int(n.Int64()) + 100000, nil
}

// generatePassword returns a random URL-safe password for bootstrap accounts.
func generatePassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
