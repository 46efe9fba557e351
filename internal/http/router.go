package http

import (
	"html/template"
	"log"
	"os"
	"path/filepath"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/sharedreader/internal/auth"
	"github.com/mrlokans/sharedreader/internal/config"
	"github.com/mrlokans/sharedreader/internal/entities"
)

// routeGuards holds the middleware each class of route runs behind for the
// configured auth mode.
type routeGuards struct {
	known  gin.HandlerFunc // teacher-scoped reads and writes
	author gin.HandlerFunc // commenting
	admin  gin.HandlerFunc // imports, audit trail
}

func newRouteGuards(mw *auth.Middleware, mode config.AuthMode) routeGuards {
	switch mode {
	case config.AuthModeCookie:
		return routeGuards{
			known:  mw.Require(auth.IsKnown),
			author: mw.Require(auth.MinRole(entities.UserRoleAuthor)),
			admin:  mw.Require(auth.IsAdmin),
		}
	case config.AuthModeRemote:
		return routeGuards{
			known:  mw.Require(auth.MinRole(entities.UserRoleParticipant)),
			author: mw.Require(auth.MinRole(entities.UserRoleAuthor)),
			admin:  mw.Require(auth.MinRole(entities.UserRoleAdmin)),
		}
	default:
		// Nobody is authenticated; teacher names come from the request.
		optional := mw.Optional()
		return routeGuards{known: optional, author: optional, admin: optional}
	}
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	// "/books/" and "//books" reach the same handler as "/books"
	router.RedirectTrailingSlash = true
	router.RemoveExtraSlash = true

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware(cfg.THRBaseURL))

	if len(cfg.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{auth.AuthenticationHeader, auth.CSRFTokenHeader, "Content-Type", "X-Requested-With"},
			AllowCredentials: true,
		}))
	}

	// Sessions load before anything that resolves identity
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	resolver := cfg.Resolver
	if resolver == nil {
		resolver = auth.NoneResolver{}
	}
	guards := newRouteGuards(auth.NewMiddleware(resolver, cfg.AuthMode), cfg.AuthMode)

	// Serve static files
	assets := NewStaticAssets(cfg.StaticPath)
	if cfg.StaticPath != "" {
		router.Static(StaticPrefix, cfg.StaticPath)
	}
	if tmpl := loadTemplates(cfg.TemplatesPath, assets); tmpl != nil {
		router.SetHTMLTemplate(tmpl)
		router.GET("/", NewIndexController(cfg.Version).Index)
	}

	// Login routes, cookie policy only
	if cfg.LoginController != nil {
		loginRoutes := router.Group("/")
		if len(cfg.CSRFSecret) > 0 {
			loginRoutes.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
		}
		cfg.LoginController.RegisterRoutes(loginRoutes)
	}

	var pinger Pinger
	if cfg.Database != nil {
		pinger = cfg.Database
	}
	health := NewHealthController(pinger, cfg.Version)
	students := NewStudentsController(cfg.Activity)
	books := NewBooksController(cfg.Books, cfg.ImportOwner)
	logs := NewLogController(cfg.Activity)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	// Students
	router.GET("/students", guards.known, students.ListStudents)
	router.POST("/students", guards.known, students.AddStudent)

	// Books
	router.GET("/books", books.ListBooks)
	router.GET("/books/:slug", books.GetBook)
	router.POST("/books", guards.admin, books.ImportBook)
	router.POST("/books/:slug/comments", guards.author, books.AddComment)

	// Reading log
	router.POST("/log", logs.AppendLog)
	router.GET("/log", guards.known, logs.ListLog)

	if cfg.Audit != nil {
		router.GET("/audit", guards.admin, NewAuditController(cfg.Audit).GetAuditEvents)
	}

	return router
}

// loadTemplates parses the HTML templates under dir, if there are any. The
// "static" function returns versioned asset URLs.
func loadTemplates(dir string, assets *StaticAssets) *template.Template {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(filepath.Join(dir, "index.html")); err != nil {
		return nil
	}

	funcMap := template.FuncMap{
		"static": assets.URL,
	}
	tmpl, err := template.New("").Funcs(funcMap).ParseGlob(filepath.Join(dir, "*.html"))
	if err != nil {
		log.Printf("Warning: failed to parse templates in %s: %v", dir, err)
		return nil
	}
	return tmpl
}
