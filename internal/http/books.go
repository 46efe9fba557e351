package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/sharedreader/internal/database/books"
	"github.com/mrlokans/sharedreader/internal/services"
	"github.com/mrlokans/sharedreader/internal/thr"
)

type BooksController struct {
	store       BookStore
	importOwner string
}

func NewBooksController(store BookStore, importOwner string) *BooksController {
	return &BooksController{store: store, importOwner: importOwner}
}

// ListBooks returns the published catalogue, or the teacher's recent and
// owned books when a teacher is given
// GET /books
func (bc *BooksController) ListBooks(c *gin.Context) {
	index, err := bc.store.ListBooks(c.Request.Context(), c.Query("teacher"))
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, index)
}

// GetBook returns a shared book with its pages and comments
// GET /books/:slug
func (bc *BooksController) GetBook(c *gin.Context) {
	book, err := bc.store.GetBook(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, books.ErrBookNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// ImportBook copies a book from THR and shares it as a draft
// POST /books
func (bc *BooksController) ImportBook(c *gin.Context) {
	var req struct {
		THRSlug string `json:"thrslug" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "thrslug is required")
		return
	}

	owner := teacherFor(c, bc.importOwner)

	book, err := bc.store.ImportBook(c.Request.Context(), req.THRSlug, owner)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, book)
	case errors.Is(err, services.ErrTHRSlugRequired):
		respondBadRequest(c, "thrslug is required")
	case errors.Is(err, thr.ErrBookNotFound):
		respondNotFound(c, "THR book")
	case errors.Is(err, thr.ErrUpstream):
		respondBadGateway(c, err, "import book")
	default:
		respondInternalError(c, err, "import book")
	}
}

// AddComment records a reading comment on a page
// POST /books/:slug/comments
func (bc *BooksController) AddComment(c *gin.Context) {
	var req struct {
		Page    *int   `json:"page" binding:"required"`
		Reading *int   `json:"reading" binding:"required"`
		Comment string `json:"comment" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "page, reading and comment are required")
		return
	}

	comment, err := bc.store.AddComment(c.Request.Context(), c.Param("slug"), *req.Page, *req.Reading, req.Comment)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, comment)
	case errors.Is(err, books.ErrBookNotFound):
		respondNotFound(c, "book")
	case errors.Is(err, books.ErrPageOutOfRange):
		respondBadRequest(c, "page out of range")
	default:
		respondInternalError(c, err, "add comment")
	}
}
