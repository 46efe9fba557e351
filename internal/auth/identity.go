package auth

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/sharedreader/internal/entities"
)

const contextKeyIdentity = "auth_identity"

var (
	ErrForbidden          = errors.New("forbidden")
	ErrNoCredentials      = errors.New("no credentials supplied")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Identity is the resolved caller.
type Identity struct {
	Name string
	Role entities.UserRole
}

// SetIdentity stores id on the request context.
func SetIdentity(c *gin.Context, id *Identity) {
	c.Set(contextKeyIdentity, id)
}

// GetIdentity returns the caller resolved by the middleware, or nil.
func GetIdentity(c *gin.Context) *Identity {
	if v, exists := c.Get(contextKeyIdentity); exists {
		if id, ok := v.(*Identity); ok {
			return id
		}
	}
	return nil
}

// GetUsername returns the caller's name, or "" when nobody was resolved.
func GetUsername(c *gin.Context) string {
	if id := GetIdentity(c); id != nil {
		return id.Name
	}
	return ""
}
