package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/sharedreader/internal/config"
	"github.com/mrlokans/sharedreader/internal/entities"
)

func TestRouter_RemoteTokenPolicy(t *testing.T) {
	s := newTestServer(t, config.AuthModeRemote)
	participant := remoteAuth("Jane Doe", entities.UserRoleParticipant)
	admin := remoteAuth("gb", entities.UserRoleAdmin)

	t.Run("missing, malformed and rejected headers are forbidden", func(t *testing.T) {
		for _, headers := range [][]string{
			nil,
			{"Authentication", `Bearer abc`},
			{"Authentication", `MYAUTH user:"Jane Doe", role:"participant", token:"dead"`},
		} {
			rr := s.get("/students", headers...)
			assert.Equal(t, http.StatusForbidden, rr.Code)
			assert.JSONEq(t, `{"error":"Forbidden"}`, rr.Body.String())
		}
	})

	t.Run("students are scoped to the caller", func(t *testing.T) {
		rr := s.postJSON("/students", `{"student":"s1","teacher":"someone else"}`, participant...)
		require.Equal(t, http.StatusOK, rr.Code)

		rr = s.get("/students?teacher=someone+else", participant...)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"students":["s1"]}`, rr.Body.String())
	})

	t.Run("imports need the admin role", func(t *testing.T) {
		rr := s.postJSON("/books", `{"thrslug":"red-ball"}`, remoteAuth("Jane Doe", entities.UserRoleAuthor)...)
		assert.Equal(t, http.StatusForbidden, rr.Code)

		rr = s.postJSON("/books", `{"thrslug":"red-ball"}`, admin...)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "gb", decode[entities.BookView](t, rr).Owner)
	})

	t.Run("comments need the author role", func(t *testing.T) {
		body := `{"page":0,"reading":0,"comment":"x"}`
		assert.Equal(t, http.StatusForbidden, s.postJSON("/books/red-ball/comments", body, participant...).Code)
		assert.Equal(t, http.StatusCreated,
			s.postJSON("/books/red-ball/comments", body, remoteAuth("Jane Doe", entities.UserRoleAuthor)...).Code)
	})

	t.Run("reading routes stay public", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, s.get("/books").Code)
		assert.Equal(t, http.StatusOK, s.get("/books/red-ball").Code)
		assert.Equal(t, http.StatusOK, s.postJSON("/log", readEvent).Code)
	})
}

func TestRouter_SignedCookiePolicy(t *testing.T) {
	s := newTestServer(t, config.AuthModeCookie)

	t.Run("browsers without a session are sent to login", func(t *testing.T) {
		rr := s.get("/students")
		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/login?next=%2Fstudents", rr.Header().Get("Location"))
	})

	t.Run("API clients without a session are forbidden", func(t *testing.T) {
		rr := s.get("/students", "Accept", "application/json")
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("logged in teachers see their students", func(t *testing.T) {
		cookie := s.login(t, "t1", entities.UserRoleParticipant)

		require.Equal(t, http.StatusOK, s.postJSON("/students", `{"student":"s1"}`, cookie...).Code)
		rr := s.get("/students", cookie...)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"students":["s1"]}`, rr.Body.String())

		assert.Equal(t, http.StatusForbidden, s.postJSON("/books", `{"thrslug":"red-ball"}`, cookie...).Code)
	})

	t.Run("admins import and read the audit trail", func(t *testing.T) {
		cookie := s.login(t, "gb", entities.UserRoleAdmin)

		rr := s.postJSON("/books", `{"thrslug":"red-ball"}`, cookie...)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "gb", decode[entities.BookView](t, rr).Owner)

		s.audit.Wait()
		rr = s.get("/audit?type=import", cookie...)
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decode[struct {
			Events []entities.AuditEvent `json:"events"`
			Total  int64                 `json:"total_events"`
		}](t, rr)
		require.EqualValues(t, 1, resp.Total)
		assert.Equal(t, "red-ball", resp.Events[0].Slug)
		assert.Equal(t, "gb", resp.Events[0].Actor)
	})
}

func TestRouter_CSRFOnLogin(t *testing.T) {
	s := newTestServer(t, config.AuthModeCookie, func(cfg *RouterConfig) {
		cfg.CSRFSecret = []byte("0123456789abcdef0123456789abcdef")
	})

	rr := s.postJSON("/login", `{"username":"t1","password":"whatever it is"}`)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"error":"Forbidden"}`, rr.Body.String())

	page := s.get("/login")
	require.Equal(t, http.StatusOK, page.Code)
	assert.NotEmpty(t, decode[map[string]any](t, page)["csrf_token"])
}

func TestRouter_NoAuthImportOwner(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)

	rr := s.postJSON("/books", `{"thrslug":"red-ball"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, config.DefaultImportOwner, decode[entities.BookView](t, rr).Owner)
}

func TestRouter_TrailingSlash(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)

	rr := s.get("/books/")

	assert.Equal(t, http.StatusMovedPermanently, rr.Code)
	assert.Equal(t, "/books", rr.Header().Get("Location"))
}

func TestRouter_SecurityHeaders(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)

	rr := s.get("/ping")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "img-src 'self' data: http://127.0.0.1")
}

func TestRouter_CORS(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone, func(cfg *RouterConfig) {
		cfg.CORSAllowedOrigins = []string{"http://localhost:5173"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/books", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := s.do(req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = s.get("/books", "Origin", "http://evil.example")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
