package auth

import (
	"context"
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/sharedreader/internal/entities"
)

// AuthenticationHeader carries the remote-token credential.
const AuthenticationHeader = "Authentication"

var remoteTokenPattern = regexp.MustCompile(
	`^MYAUTH user:"([a-zA-Z0-9 ]+)", role:"([a-z]+)", token:"([0-9a-f]+)"`)

// Resolver turns request credentials into an Identity. It returns
// ErrNoCredentials when the request carries none.
type Resolver interface {
	Resolve(c *gin.Context) (*Identity, error)
}

// NoneResolver never finds credentials.
type NoneResolver struct{}

func (NoneResolver) Resolve(*gin.Context) (*Identity, error) {
	return nil, ErrNoCredentials
}

// LoginValidator confirms a remote login token.
type LoginValidator interface {
	ValidateLogin(ctx context.Context, name, role, token string) error
}

// RemoteTokenResolver validates the MYAUTH header against the identity
// service on every request.
type RemoteTokenResolver struct {
	validator LoginValidator
}

func NewRemoteTokenResolver(validator LoginValidator) *RemoteTokenResolver {
	return &RemoteTokenResolver{validator: validator}
}

func (r *RemoteTokenResolver) Resolve(c *gin.Context) (*Identity, error) {
	header := c.GetHeader(AuthenticationHeader)
	if header == "" {
		return nil, ErrNoCredentials
	}

	m := remoteTokenPattern.FindStringSubmatch(header)
	if m == nil {
		return nil, fmt.Errorf("%w: malformed %s header", ErrInvalidCredentials, AuthenticationHeader)
	}
	name, role, token := m[1], m[2], m[3]

	if err := r.validator.ValidateLogin(c.Request.Context(), name, role, token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return &Identity{Name: name, Role: entities.UserRole(role)}, nil
}

// UserLookup loads local accounts.
type UserLookup interface {
	GetUserByID(ctx context.Context, id uint) (*entities.User, error)
}

// SessionResolver reads the signed session cookie set at login. The account
// is reloaded on each request so role changes apply immediately.
type SessionResolver struct {
	sessions *SessionManager
	users    UserLookup
}

func NewSessionResolver(sessions *SessionManager, users UserLookup) *SessionResolver {
	return &SessionResolver{sessions: sessions, users: users}
}

func (r *SessionResolver) Resolve(c *gin.Context) (*Identity, error) {
	userID := r.sessions.GetUserID(c.Request)
	if userID == 0 {
		return nil, ErrNoCredentials
	}

	user, err := r.users.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return &Identity{Name: user.Username, Role: user.Role}, nil
}
