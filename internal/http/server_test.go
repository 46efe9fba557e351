package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/sharedreader/internal/audit"
	"github.com/mrlokans/sharedreader/internal/auth"
	"github.com/mrlokans/sharedreader/internal/config"
	"github.com/mrlokans/sharedreader/internal/database"
	auditstore "github.com/mrlokans/sharedreader/internal/database/audit"
	"github.com/mrlokans/sharedreader/internal/entities"
	"github.com/mrlokans/sharedreader/internal/services"
	"github.com/mrlokans/sharedreader/internal/thr"
)

const (
	validToken   = "abc123"
	userPassword = "correct horse battery"
)

const redBallJSON = `{
	"title": "Red Ball",
	"author": "Gary",
	"pages": [
		{"text": "A", "url": "u1", "width": 10, "height": 10},
		{"text": "B", "url": "u2", "width": 10, "height": 10}
	]
}`

// fakeTHR serves red-ball, a 404 for "missing" and garbage for "broken".
// Logins validate when the hash is validToken.
func fakeTHR(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/book-as-json", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("slug") {
		case "red-ball":
			_, _ = io.WriteString(w, redBallJSON)
		case "broken":
			_, _ = io.WriteString(w, "<html>oops</html>")
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		ok := r.URL.Query().Get("hash") == validToken
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": ok})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

type testServer struct {
	router *gin.Engine
	db     *database.Database
	audit  *audit.Service
	users  *auth.Service
}

// newTestServer wires the full router for mode over a fresh database and a
// fake THR.
func newTestServer(t *testing.T, mode config.AuthMode, opts ...func(*RouterConfig)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := database.NewTestDatabase(t)
	upstream := fakeTHR(t)
	client := thr.NewClient(config.THR{BaseURL: upstream.URL, Timeout: 2 * time.Second})

	auditService := audit.NewService(auditstore.NewRepository(db.DB))
	t.Cleanup(auditService.Wait)
	archiver := audit.NewAuditor(t.TempDir())

	authCfg := config.Auth{Mode: mode, BcryptCost: bcrypt.MinCost, SessionLifetime: time.Hour}
	users := auth.NewService(db, authCfg)

	cfg := RouterConfig{
		Books:       services.NewBookService(db, client, archiver, auditService),
		Activity:    services.NewActivityService(db),
		Audit:       auditService,
		Database:    db,
		AuthMode:    mode,
		ImportOwner: config.DefaultImportOwner,
		THRBaseURL:  upstream.URL,
		Version:     "test",
	}

	switch mode {
	case config.AuthModeRemote:
		cfg.Resolver = auth.NewRemoteTokenResolver(client)
	case config.AuthModeCookie:
		sm, err := auth.NewSessionManager(db, authCfg)
		require.NoError(t, err)
		lc := auth.NewLoginController(users, sm, authCfg, auditService)
		t.Cleanup(lc.Stop)

		cfg.SessionManager = sm
		cfg.LoginController = lc
		cfg.Resolver = auth.NewSessionResolver(sm, users)
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &testServer{
		router: NewRouter(cfg),
		db:     db,
		audit:  auditService,
		users:  users,
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) get(target string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	setHeaders(req, headers)
	return s.do(req)
}

func (s *testServer) postJSON(target, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	setHeaders(req, headers)
	return s.do(req)
}

// setHeaders applies name/value pairs.
func setHeaders(req *http.Request, headers []string) {
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
}

// remoteAuth returns the Authentication header pair for name with role.
func remoteAuth(name string, role entities.UserRole) []string {
	return []string{
		auth.AuthenticationHeader,
		`MYAUTH user:"` + name + `", role:"` + string(role) + `", token:"` + validToken + `"`,
	}
}

// login creates a local account and returns its session cookie header pair.
func (s *testServer) login(t *testing.T, username string, role entities.UserRole) []string {
	t.Helper()

	_, err := s.users.CreateUser(context.Background(), username, userPassword, role)
	require.NoError(t, err)

	rr := s.postJSON("/login", `{"username":"`+username+`","password":"`+userPassword+`"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	for _, c := range rr.Result().Cookies() {
		if c.Name == "session" {
			return []string{"Cookie", c.Name + "=" + c.Value}
		}
	}
	t.Fatal("login set no session cookie")
	return nil
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}
