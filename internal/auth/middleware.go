package auth

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/sharedreader/internal/config"
	"github.com/mrlokans/sharedreader/internal/entities"
)

// Capability is a check on the resolved caller.
type Capability func(c *gin.Context, id *Identity) bool

// IsKnown passes any resolved caller.
func IsKnown(_ *gin.Context, id *Identity) bool {
	return id != nil && id.Name != ""
}

// IsAdmin passes callers holding the admin role.
func IsAdmin(_ *gin.Context, id *Identity) bool {
	return id != nil && id.Role == entities.UserRoleAdmin
}

// MinRole passes callers whose role ranks at least min.
func MinRole(min entities.UserRole) Capability {
	return func(_ *gin.Context, id *Identity) bool {
		return id != nil && id.Role.AtLeast(min)
	}
}

// IsSelf passes when the named path or query parameter is absent or equals
// the caller's name.
func IsSelf(param string) Capability {
	return func(c *gin.Context, id *Identity) bool {
		if id == nil {
			return false
		}
		value := c.Param(param)
		if value == "" {
			value = c.Query(param)
		}
		return value == "" || value == id.Name
	}
}

// Middleware guards routes with a Resolver.
type Middleware struct {
	resolver      Resolver
	loginRedirect bool
}

// NewMiddleware creates a middleware. Under the cookie policy browsers without
// a session are sent to the login page instead of getting a 403.
func NewMiddleware(resolver Resolver, mode config.AuthMode) *Middleware {
	return &Middleware{
		resolver:      resolver,
		loginRedirect: mode == config.AuthModeCookie,
	}
}

// Require resolves the caller and aborts unless every capability passes.
func (m *Middleware) Require(caps ...Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := m.resolver.Resolve(c)
		if err != nil {
			if errors.Is(err, ErrNoCredentials) && m.loginRedirect && !isAPIRequest(c) {
				c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
				c.Abort()
				return
			}
			if !errors.Is(err, ErrNoCredentials) {
				log.Printf("Auth rejected %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			}
			forbid(c)
			return
		}

		for _, allowed := range caps {
			if !allowed(c, id) {
				forbid(c)
				return
			}
		}

		SetIdentity(c, id)
		c.Next()
	}
}

// Optional resolves the caller when credentials are present and never blocks.
func (m *Middleware) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := m.resolver.Resolve(c); err == nil {
			SetIdentity(c, id)
		}
		c.Next()
	}
}

func forbid(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
}

// isAPIRequest determines if this is an API request vs web browser request.
func isAPIRequest(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		return true
	}
	if c.GetHeader("X-Requested-With") != "" {
		return true
	}
	return c.ContentType() == "application/json"
}
