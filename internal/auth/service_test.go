package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/sharedreader/internal/config"
	"github.com/mrlokans/sharedreader/internal/database"
	"github.com/mrlokans/sharedreader/internal/entities"
)

const testPassword = "correct horse battery"

func setupTestService(t *testing.T, admins ...string) *Service {
	t.Helper()
	return NewService(database.NewTestDatabase(t), config.Auth{
		BcryptCost: bcrypt.MinCost,
		AdminUsers: admins,
	})
}

func TestService_CreateUser(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "Jane Doe", testPassword, entities.UserRoleAuthor)
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "Jane Doe", user.Username)
	assert.Equal(t, entities.UserRoleAuthor, user.Role)
	assert.NotEqual(t, testPassword, user.PasswordHash)
	assert.NoError(t, CheckPassword(testPassword, user.PasswordHash))

	has, err := svc.HasUsers(ctx)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestService_CreateUser_Validation(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		role     entities.UserRole
		wantErr  error
	}{
		{"empty username", "", testPassword, entities.UserRoleAuthor, ErrUsernameRequired},
		{"punctuation", "jane.doe", testPassword, entities.UserRoleAuthor, ErrUsernameInvalid},
		{"too short", "j", testPassword, entities.UserRoleAuthor, ErrUsernameInvalid},
		{"empty password", "jane", "", entities.UserRoleAuthor, ErrPasswordRequired},
		{"short password", "jane", "short", entities.UserRoleAuthor, ErrPasswordTooShort},
		{"unknown role", "jane", testPassword, "wizard", ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(ctx, tt.username, tt.password, tt.role)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	has, err := svc.HasUsers(ctx)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestService_Authenticate(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	loginAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return loginAt }

	created, err := svc.CreateUser(ctx, "t1", testPassword, entities.UserRoleAuthor)
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "t1", testPassword)
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, entities.UserRoleAuthor, user.Role)

	stored, err := svc.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.True(t, loginAt.Equal(*stored.LastLoginAt))
}

func TestService_Authenticate_InvalidCredentials(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "t1", testPassword, entities.UserRoleAuthor)
	require.NoError(t, err)

	for _, tc := range []struct{ username, password string }{
		{"t1", "wrong password here"},
		{"nobody", testPassword},
		{"t1", ""},
		{"", testPassword},
	} {
		_, err := svc.Authenticate(ctx, tc.username, tc.password)
		assert.ErrorIs(t, err, ErrInvalidCredentials, tc.username)
	}
}

func TestService_Authenticate_PromotesConfiguredAdmins(t *testing.T) {
	svc := setupTestService(t, "boss")
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, "boss", testPassword, entities.UserRoleParticipant)
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "boss", testPassword)
	require.NoError(t, err)
	assert.Equal(t, entities.UserRoleAdmin, user.Role)

	stored, err := svc.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.UserRoleAdmin, stored.Role)
}
