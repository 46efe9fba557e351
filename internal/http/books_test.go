package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/sharedreader/internal/config"
	"github.com/mrlokans/sharedreader/internal/entities"
)

func TestBooksController_ListBooks(t *testing.T) {
	t.Run("returns three empty lists when nothing is shared", func(t *testing.T) {
		s := newTestServer(t, config.AuthModeNone)

		rr := s.get("/books")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"recent":[],"yours":[],"books":[]}`, rr.Body.String())
	})

	t.Run("drafts are listed for their owner only", func(t *testing.T) {
		s := newTestServer(t, config.AuthModeNone)
		require.Equal(t, http.StatusOK, s.postJSON("/books", `{"thrslug":"red-ball"}`).Code)

		global := decode[entities.BookIndex](t, s.get("/books"))
		assert.Empty(t, global.Books)

		owned := decode[entities.BookIndex](t, s.get("/books?teacher=admin"))
		require.Len(t, owned.Yours, 1)
		assert.Equal(t, entities.BookSummary{Title: "Red Ball", Author: "Gary", Pages: 2, Slug: "red-ball", Image: "u1"}, owned.Yours[0])
		assert.Empty(t, owned.Recent)
		assert.Empty(t, owned.Books)

		other := decode[entities.BookIndex](t, s.get("/books?teacher=t2"))
		assert.Empty(t, other.Yours)
	})
}

func TestBooksController_ImportBook(t *testing.T) {
	t.Run("imports and re-imports with a suffixed slug", func(t *testing.T) {
		s := newTestServer(t, config.AuthModeNone)

		rr := s.postJSON("/books", `{"thrslug":"red-ball"}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.JSONEq(t, `{
			"title": "Red Ball",
			"slug": "red-ball",
			"status": "draft",
			"level": "",
			"author": "Gary",
			"owner": "admin",
			"pages": [
				{"text": "A", "url": "u1", "width": 10, "height": 10, "comments": []},
				{"text": "B", "url": "u2", "width": 10, "height": 10, "comments": []}
			]
		}`, rr.Body.String())

		again := decode[entities.BookView](t, s.postJSON("/books", `{"thrslug":"red-ball"}`))
		assert.Equal(t, "red-ball2", again.Slug)

		var pages []entities.Page
		require.NoError(t, s.db.DB.Order("bookid, pageno").Find(&pages).Error)
		require.Len(t, pages, 4)
		assert.Equal(t, 0, pages[0].PageNo)
		assert.Equal(t, "A", pages[0].Caption)
		assert.Equal(t, 1, pages[1].PageNo)
		assert.Equal(t, "B", pages[1].Caption)
	})

	t.Run("requires thrslug", func(t *testing.T) {
		s := newTestServer(t, config.AuthModeNone)

		for _, body := range []string{`{}`, `{"thrslug":""}`, `not json`} {
			rr := s.postJSON("/books", body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, body)
			assert.JSONEq(t, `{"error":"thrslug is required"}`, rr.Body.String())
		}
	})

	t.Run("unknown THR book is not found", func(t *testing.T) {
		s := newTestServer(t, config.AuthModeNone)

		rr := s.postJSON("/books", `{"thrslug":"missing"}`)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("malformed upstream payload is a bad gateway", func(t *testing.T) {
		s := newTestServer(t, config.AuthModeNone)

		rr := s.postJSON("/books", `{"thrslug":"broken"}`)

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		var count int64
		require.NoError(t, s.db.DB.Model(&entities.Book{}).Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestBooksController_GetBook(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)
	require.Equal(t, http.StatusOK, s.postJSON("/books", `{"thrslug":"red-ball"}`).Code)

	t.Run("returns the book", func(t *testing.T) {
		rr := s.get("/books/red-ball")

		require.Equal(t, http.StatusOK, rr.Code)
		book := decode[entities.BookView](t, rr)
		assert.Equal(t, "Red Ball", book.Title)
		assert.Len(t, book.Pages, 2)
	})

	t.Run("unknown slug is not found", func(t *testing.T) {
		rr := s.get("/books/blue-ball")

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.JSONEq(t, `{"error":"book not found"}`, rr.Body.String())
	})
}

func TestBooksController_AddComment(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)
	require.Equal(t, http.StatusOK, s.postJSON("/books", `{"thrslug":"red-ball"}`).Code)

	t.Run("comments appear on their page", func(t *testing.T) {
		rr := s.postJSON("/books/red-ball/comments", `{"page":1,"reading":0,"comment":"What color?"}`)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		book := decode[entities.BookView](t, s.get("/books/red-ball"))
		assert.Empty(t, book.Pages[0].Comments)
		assert.Equal(t, []string{"What color?"}, book.Pages[1].Comments)
	})

	t.Run("validation", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, s.postJSON("/books/red-ball/comments", `{"reading":0,"comment":"x"}`).Code)
		assert.Equal(t, http.StatusBadRequest, s.postJSON("/books/red-ball/comments", `{"page":0,"reading":0}`).Code)
		assert.Equal(t, http.StatusBadRequest, s.postJSON("/books/red-ball/comments", `{"page":2,"reading":0,"comment":"x"}`).Code)
	})

	t.Run("unknown slug is not found", func(t *testing.T) {
		rr := s.postJSON("/books/blue-ball/comments", `{"page":0,"reading":0,"comment":"x"}`)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
