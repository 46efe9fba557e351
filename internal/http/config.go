package http

import (
	"github.com/mrlokans/sharedreader/internal/auth"
	"github.com/mrlokans/sharedreader/internal/config"
	"github.com/mrlokans/sharedreader/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Books    BookStore
	Activity ActivityStore
	Audit    AuditReader // optional, GET /audit is not registered without it
	Database *database.Database

	// Authentication. Resolver decides who the caller is; the login
	// controller and session manager are only set under the cookie policy.
	AuthMode        config.AuthMode
	Resolver        auth.Resolver
	SessionManager  *auth.SessionManager
	LoginController *auth.LoginController
	CSRFSecret      []byte
	SecureCookies   bool

	// Owner recorded for imports when no identity is resolved
	ImportOwner string

	// Content service origin, allowed as an image source
	THRBaseURL string

	// Cross-origin clients
	CORSAllowedOrigins []string

	// UI paths
	StaticPath    string
	TemplatesPath string

	// Application info
	Version string
}
