package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/sharedreader/internal/audit"
	"github.com/mrlokans/sharedreader/internal/auth"
	"github.com/mrlokans/sharedreader/internal/config"
	"github.com/mrlokans/sharedreader/internal/database"
	auditstore "github.com/mrlokans/sharedreader/internal/database/audit"
	http_controllers "github.com/mrlokans/sharedreader/internal/http"
	"github.com/mrlokans/sharedreader/internal/scheduler"
	"github.com/mrlokans/sharedreader/internal/services"
	"github.com/mrlokans/sharedreader/internal/thr"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for SIGINT or SIGTERM, then give in-flight requests the
	// configured timeout to finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Cleanup runs after the server stops accepting requests so nothing
	// writes through a closed resource.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

// sessionSecret decodes the configured secret, generating one when unset.
func sessionSecret(configured string) ([]byte, error) {
	if configured != "" {
		secret, err := hex.DecodeString(configured)
		if err != nil {
			// Not hex, use as raw bytes
			return []byte(configured), nil
		}
		return secret, nil
	}

	secret, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, err
	}
	log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return hex.DecodeString(secret)
}

// app holds everything Run wires together.
type app struct {
	router  *gin.Engine
	cleanup func()
}

// build wires storage, the THR client, services and the auth policy into a
// router.
func build(cfg *config.Config, db *database.Database, version string) (*app, error) {
	thrClient := thr.NewClient(cfg.THR)

	// Raw THR payloads are archived here; audit events go to the database
	auditor := audit.NewAuditor(cfg.Audit.Dir)
	auditService := audit.NewService(auditstore.NewRepository(db.DB))

	routerCfg := http_controllers.RouterConfig{
		Books:              services.NewBookService(db, thrClient, auditor, auditService),
		Activity:           services.NewActivityService(db),
		Audit:              auditService,
		Database:           db,
		AuthMode:           cfg.Auth.Mode,
		ImportOwner:        cfg.Import.DefaultOwner,
		THRBaseURL:         cfg.THR.BaseURL,
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		StaticPath:         cfg.UI.StaticPath,
		TemplatesPath:      cfg.UI.TemplatesPath,
		SecureCookies:      cfg.Auth.SecureCookies,
		Version:            version,
	}

	var loginController *auth.LoginController

	switch cfg.Auth.Mode {
	case config.AuthModeCookie:
		log.Printf("Authentication mode: cookie (local accounts)")

		authService := auth.NewService(db, cfg.Auth)
		sessionManager, err := auth.NewSessionManager(db, cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize session manager: %w", err)
		}
		csrfSecret, err := sessionSecret(cfg.Auth.SessionSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to generate CSRF secret: %w", err)
		}
		loginController = auth.NewLoginController(authService, sessionManager, cfg.Auth, auditService)

		routerCfg.Resolver = auth.NewSessionResolver(sessionManager, authService)
		routerCfg.SessionManager = sessionManager
		routerCfg.LoginController = loginController
		routerCfg.CSRFSecret = csrfSecret

		hasUsers, err := authService.HasUsers(context.Background())
		if err == nil && !hasUsers {
			log.Printf("No users found. Run 'create-user' to add an administrator account.")
		}

	case config.AuthModeRemote:
		log.Printf("Authentication mode: remote (MYAUTH header validated by %s)", cfg.THR.BaseURL)
		routerCfg.Resolver = auth.NewRemoteTokenResolver(thrClient)

	case config.AuthModeNone:
		log.Printf("Authentication mode: none (teacher supplied by the caller)")
		routerCfg.Resolver = auth.NoneResolver{}

	default:
		return nil, fmt.Errorf("unknown AUTH_MODE %q", cfg.Auth.Mode)
	}

	if !auditor.Enabled() {
		log.Printf("AUDIT_DIR is empty, THR payloads will not be archived")
	}

	retention := scheduler.NewAuditRetentionScheduler(auditService, cfg.Audit)
	if err := retention.Start(); err != nil {
		if loginController != nil {
			loginController.Stop()
		}
		return nil, err
	}

	return &app{
		router: http_controllers.NewRouter(routerCfg),
		cleanup: func() {
			retention.Stop()
			if loginController != nil {
				loginController.Stop()
			}
			auditService.Wait()
		},
	}, nil
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Shared Reader v%s", version)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	a, err := build(cfg, db, version)
	if err != nil {
		log.Printf("Failed to start: %v", err)
		return
	}

	Serve(a.router, cfg, func(ctx context.Context) {
		a.cleanup()
	})
}
