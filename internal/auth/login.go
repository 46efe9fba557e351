package auth

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/sharedreader/internal/config"
)

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
func isLocalPath(path string) bool {
	if path == "" {
		return false
	}
	if !strings.HasPrefix(path, "/") {
		return false
	}
	// Reject protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}
	if strings.Contains(path, "://") {
		return false
	}
	if strings.Contains(path, "\\") {
		return false
	}
	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to "/" if invalid.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}

// AuthRecorder receives login outcomes for the audit trail.
type AuthRecorder interface {
	LogAuth(actor, action, ipAddr, userAgent string, success bool)
}

type loginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
	Next     string `form:"next" json:"next"`
}

// LoginController serves the login endpoints of the cookie policy.
type LoginController struct {
	service        *Service
	sessionManager *SessionManager
	rateLimiter    *RateLimiter
	recorder       AuthRecorder
}

// NewLoginController creates the controller. recorder may be nil.
func NewLoginController(service *Service, sessionManager *SessionManager, cfg config.Auth, recorder AuthRecorder) *LoginController {
	rateLimiter := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     cfg.MaxLoginAttempts,
		WindowDuration:  cfg.RateLimitWindow,
		LockoutDuration: cfg.LockoutDuration,
	})

	return &LoginController{
		service:        service,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
		recorder:       recorder,
	}
}

// RegisterRoutes registers authentication routes.
func (lc *LoginController) RegisterRoutes(router gin.IRoutes) {
	router.GET("/login", lc.LoginPage)
	router.POST("/login", lc.Login)
	router.POST("/logout", lc.Logout)
}

// Stop cleans up resources (rate limiter background goroutine).
func (lc *LoginController) Stop() {
	lc.rateLimiter.Stop()
}

// LoginPage returns the CSRF token the login form must echo, and who is
// logged in already.
func (lc *LoginController) LoginPage(c *gin.Context) {
	resp := gin.H{
		"csrf_token":    GetCSRFToken(c),
		"next":          sanitizeRedirectPath(c.Query("next")),
		"authenticated": false,
	}

	if userID := lc.sessionManager.GetUserID(c.Request); userID != 0 {
		if user, err := lc.service.GetUserByID(c.Request.Context(), userID); err == nil {
			resp["authenticated"] = true
			resp["username"] = user.Username
			resp["role"] = user.Role
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Login checks the submitted credentials and starts a session. Browsers are
// redirected to next; JSON clients get the account back.
func (lc *LoginController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid login request"})
		return
	}
	clientIP := c.ClientIP()

	if allowed, retryAfter := lc.rateLimiter.Allow(clientIP, req.Username); !allowed {
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many login attempts"})
		return
	}

	user, err := lc.service.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			log.Printf("Login for %q failed: %v", req.Username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		lc.rateLimiter.RecordFailure(clientIP, req.Username)
		lc.record(c, req.Username, "login", false)
		forbid(c)
		return
	}

	lc.rateLimiter.RecordSuccess(clientIP, req.Username)

	if err := lc.sessionManager.CreateSession(c.Request, user); err != nil {
		log.Printf("Failed to create session for %s: %v", user.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	lc.record(c, user.Username, "login", true)

	if c.ContentType() == "application/json" {
		c.JSON(http.StatusOK, gin.H{"username": user.Username, "role": user.Role})
		return
	}
	c.Redirect(http.StatusFound, sanitizeRedirectPath(req.Next))
}

// Logout destroys the session.
func (lc *LoginController) Logout(c *gin.Context) {
	userID := lc.sessionManager.GetUserID(c.Request)
	_ = lc.sessionManager.DestroySession(c.Request)

	if userID != 0 {
		if user, err := lc.service.GetUserByID(c.Request.Context(), userID); err == nil {
			lc.record(c, user.Username, "logout", true)
		}
	}

	if c.ContentType() == "application/json" || isAPIRequest(c) {
		c.JSON(http.StatusOK, "ok")
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

func (lc *LoginController) record(c *gin.Context, actor, action string, success bool) {
	if lc.recorder != nil {
		lc.recorder.LogAuth(actor, action, c.ClientIP(), c.Request.UserAgent(), success)
	}
}
