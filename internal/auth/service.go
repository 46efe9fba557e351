package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/sharedreader/internal/config"
	"github.com/mrlokans/sharedreader/internal/database"
	"github.com/mrlokans/sharedreader/internal/database/users"
	"github.com/mrlokans/sharedreader/internal/entities"
)

// Names are shared with the remote identity service, which allows letters,
// digits and spaces.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9 ]{2,64}$`)

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrUsernameInvalid  = errors.New("username must be 2-64 letters, digits or spaces")
	ErrPasswordRequired = errors.New("password is required")
	ErrInvalidRole      = errors.New("invalid role")
)

// Service manages local accounts for the cookie policy.
type Service struct {
	db     *database.Database
	config config.Auth
	now    func() time.Time
}

// NewService creates a new authentication service.
func NewService(db *database.Database, cfg config.Auth) *Service {
	return &Service{db: db, config: cfg, now: time.Now}
}

// CreateUser creates a new user with password authentication.
func (s *Service) CreateUser(ctx context.Context, username, password string, role entities.UserRole) (*entities.User, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	var user *entities.User
	err = s.db.WithConn(ctx, func(tx *gorm.DB) error {
		var err error
		user, err = users.NewRepository(tx).CreateUser(username, passwordHash, role)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords both
// yield ErrInvalidCredentials. Users listed in AUTH_ADMIN_USERS are promoted
// to admin here.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*entities.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user *entities.User
	err := s.db.WithConn(ctx, func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)

		var err error
		user, err = repo.GetUserByUsername(username)
		if errors.Is(err, users.ErrUserNotFound) {
			return ErrInvalidCredentials
		}
		if err != nil {
			return err
		}

		if err := CheckPassword(password, user.PasswordHash); err != nil {
			return ErrInvalidCredentials
		}

		if user.Role != entities.UserRoleAdmin && slices.Contains(s.config.AdminUsers, user.Username) {
			if err := repo.SetRole(user.ID, entities.UserRoleAdmin); err != nil {
				return fmt.Errorf("failed to promote %s: %w", user.Username, err)
			}
			user.Role = entities.UserRoleAdmin
		}

		now := s.now()
		user.LastLoginAt = &now
		return repo.TouchLogin(user.ID, now)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	var user *entities.User
	err := s.db.WithConn(ctx, func(tx *gorm.DB) error {
		var err error
		user, err = users.NewRepository(tx).GetUserByID(id)
		return err
	})
	return user, err
}

// HasUsers returns true if any users exist in the database.
func (s *Service) HasUsers(ctx context.Context) (bool, error) {
	var count int64
	err := s.db.WithConn(ctx, func(tx *gorm.DB) error {
		var err error
		count, err = users.NewRepository(tx).Count()
		return err
	})
	return count > 0, err
}
