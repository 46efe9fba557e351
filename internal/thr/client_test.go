package thr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/sharedreader/internal/config"
)

const redBallJSON = `{"title":"Red Ball","author":"Gary","pages":[
	{"text":"A","url":"u1","width":10,"height":10},
	{"text":"B","url":"u2","width":10,"height":10}]}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.THR{BaseURL: server.URL + "/", Timeout: 2 * time.Second, SharedMarker: "2"})
}

func TestFetchBook(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/book-as-json", r.URL.Path)
		assert.Equal(t, "red-ball", r.URL.Query().Get("slug"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(redBallJSON))
	})

	book, err := client.FetchBook(context.Background(), "red-ball")
	require.NoError(t, err)

	assert.Equal(t, "Red Ball", book.Title)
	assert.Equal(t, "Gary", book.Author)
	require.Len(t, book.Pages, 2)
	assert.Equal(t, Page{Text: "A", URL: "u1", Width: 10, Height: 10}, book.Pages[0])
	assert.Equal(t, "B", book.Pages[1].Text)
	assert.True(t, json.Valid(book.Raw))
}

func TestFetchBook_EscapesSlug(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "a&b=c", r.URL.Query().Get("slug"))
		_, _ = w.Write([]byte(redBallJSON))
	})

	_, err := client.FetchBook(context.Background(), "a&b=c")
	require.NoError(t, err)
}

func TestFetchBook_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchBook(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestFetchBook_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"title": "Red`))
		}},
		{"no pages", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"title":"Empty","author":"x","pages":[]}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.FetchBook(context.Background(), "red-ball")
			assert.ErrorIs(t, err, ErrUpstream)
		})
	}
}

func TestFetchBook_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	client := NewClient(config.THR{BaseURL: base, Timeout: time.Second})
	_, err := client.FetchBook(context.Background(), "red-ball")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestFetchBook_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	client := NewClient(config.THR{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := client.FetchBook(context.Background(), "red-ball")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestValidateLogin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("shared"))
		assert.Equal(t, "Jane Doe", q.Get("login"))
		assert.Equal(t, "author", q.Get("role"))

		ok := q.Get("hash") == "abc123"
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": ok})
	})

	ctx := context.Background()
	assert.NoError(t, client.ValidateLogin(ctx, "Jane Doe", "author", "abc123"))
	assert.ErrorIs(t, client.ValidateLogin(ctx, "Jane Doe", "author", "ffff"), ErrRejected)
}

func TestValidateLogin_UpstreamFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	})

	err := client.ValidateLogin(context.Background(), "Jane", "author", "abc")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.False(t, errors.Is(err, ErrRejected))
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(config.THR{BaseURL: "https://example.org/"})

	assert.Equal(t, "https://example.org", client.baseURL)
	assert.Equal(t, 10*time.Second, client.httpClient.Timeout)
	assert.Equal(t, "2", client.sharedMarker)
}
