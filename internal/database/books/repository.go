// Package books provides the queries behind shared books: the book/page
// content imported from THR, its shared (published or draft) records and the
// reading comments attached to them.
//
// # Usage
//
//	err := db.WithConn(ctx, func(tx *gorm.DB) error {
//		view, err := books.NewRepository(tx).GetBySlug("red-ball")
//		...
//	})
package books

import (
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/mrlokans/sharedreader/internal/database"
	"github.com/mrlokans/sharedreader/internal/entities"
)

// RecentLimit is how many recently read books a teacher sees.
const RecentLimit = 8

var (
	ErrBookNotFound   = errors.New("book not found")
	ErrPageOutOfRange = errors.New("page out of range")
	ErrNoPages        = errors.New("book has no pages")
	ErrEmptyTHRSlug   = errors.New("thrslug is required")
)

const summaryColumns = `B.title, B.author, B.pages, S.slug, S.level, B.image`

// Repository handles book, page, shared and comment queries.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository bound to db, which may be a pooled
// handle, a dedicated connection or a transaction.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListPublished returns every published shared book.
func (r *Repository) ListPublished() ([]entities.BookSummary, error) {
	books := []entities.BookSummary{}
	err := database.Query(r.db, &books, `
		SELECT `+summaryColumns+`
		FROM books B
		JOIN shared S ON B.bookid = S.bookid
		WHERE S.status = ?
		ORDER BY S.sharedid`, entities.SharedStatusPublished)
	return books, err
}

// ListRecent returns up to limit published books the teacher logged activity
// on, most recently logged first.
func (r *Repository) ListRecent(teacher string, limit int) ([]entities.BookSummary, error) {
	books := []entities.BookSummary{}
	err := database.Query(r.db, &books, `
		SELECT `+summaryColumns+`
		FROM books B
		JOIN shared S ON B.bookid = S.bookid
		JOIN (
			SELECT slug, MAX(time) AS last_time
			FROM log
			WHERE teacher = ? AND slug <> ''
			GROUP BY slug
		) L ON L.slug = S.slug
		WHERE S.status = ?
		ORDER BY L.last_time DESC
		LIMIT ?`, teacher, entities.SharedStatusPublished, limit)
	return books, err
}

// ListOwned returns the teacher's own shared books, drafts included.
func (r *Repository) ListOwned(teacher string) ([]entities.BookSummary, error) {
	books := []entities.BookSummary{}
	err := database.Query(r.db, &books, `
		SELECT `+summaryColumns+`
		FROM books B
		JOIN shared S ON B.bookid = S.bookid
		WHERE S.status IN (?, ?) AND S.owner = ?
		ORDER BY S.sharedid`,
		entities.SharedStatusPublished, entities.SharedStatusDraft, teacher)
	return books, err
}

type bookRow struct {
	Title    string
	Slug     string
	Status   string
	Level    string
	Author   string
	Owner    string
	SharedID uint `gorm:"column:sharedid"`
	BookID   uint `gorm:"column:bookid"`
}

type pageRow struct {
	Text   string `gorm:"column:text"`
	URL    string `gorm:"column:url"`
	Width  int
	Height int
}

type commentRow struct {
	Comment string
	PageNo  int `gorm:"column:pageno"`
}

// GetBySlug returns the shared book with its pages in pageno order.
//
// Comments are matched to a page by the page's position in that ordered list,
// not by its stored pageno. Both agree while pagenos stay dense from 0.
func (r *Repository) GetBySlug(slug string) (*entities.BookView, error) {
	var rows []bookRow
	err := database.Query(r.db, &rows, `
		SELECT B.title, S.slug, S.status, S.level, B.author, S.owner,
			S.sharedid, B.bookid
		FROM books B
		JOIN shared S ON B.bookid = S.bookid
		WHERE S.slug = ?`, slug)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrBookNotFound
	}
	book := rows[0]

	var pages []pageRow
	err = database.Query(r.db, &pages, `
		SELECT caption AS text, image AS url, width, height
		FROM pages
		WHERE bookid = ?
		ORDER BY pageno`, book.BookID)
	if err != nil {
		return nil, err
	}

	var comments []commentRow
	err = database.Query(r.db, &comments, `
		SELECT comment, pageno
		FROM comments
		WHERE sharedid = ?
		ORDER BY pageno, reading`, book.SharedID)
	if err != nil {
		return nil, err
	}

	view := &entities.BookView{
		Title:    book.Title,
		Slug:     book.Slug,
		Status:   book.Status,
		Level:    book.Level,
		Author:   book.Author,
		Owner:    book.Owner,
		Pages:    make([]entities.PageView, len(pages)),
		SharedID: book.SharedID,
		BookID:   book.BookID,
	}
	for i, p := range pages {
		texts := []string{}
		for _, c := range comments {
			if c.PageNo == i {
				texts = append(texts, c.Comment)
			}
		}
		view.Pages[i] = entities.PageView{
			Text:     p.Text,
			URL:      p.URL,
			Width:    p.Width,
			Height:   p.Height,
			Comments: texts,
		}
	}
	return view, nil
}

// CreateBook inserts the book and one page row per entry, numbering pageno in
// slice order. The book's cached page count and cover come from pages.
func (r *Repository) CreateBook(book *entities.Book, pages []entities.Page) error {
	if book.THRSlug == "" {
		return ErrEmptyTHRSlug
	}
	if len(pages) == 0 {
		return ErrNoPages
	}
	book.Pages = len(pages)
	if book.Image == "" {
		book.Image = pages[0].Image
	}
	if err := database.Insert(r.db, book); err != nil {
		return fmt.Errorf("failed to create book %s: %w", book.THRSlug, err)
	}

	for i := range pages {
		pages[i].BookID = book.BookID
		pages[i].PageNo = i
	}
	if err := database.Insert(r.db, &pages); err != nil {
		return fmt.Errorf("failed to create pages for %s: %w", book.THRSlug, err)
	}
	return nil
}

// SlugsForTHR lists the slugs of existing shared records of any book imported
// from thrslug, in slug order.
func (r *Repository) SlugsForTHR(thrslug string) ([]string, error) {
	slugs := []string{}
	err := database.Query(r.db, &slugs, `
		SELECT S.slug
		FROM shared S
		JOIN books B ON S.bookid = B.bookid
		WHERE B.thrslug = ?
		ORDER BY S.slug`, thrslug)
	return slugs, err
}

// NextSlug picks the slug for a new shared record of thrslug. The first one
// uses thrslug itself; later ones take the first existing slug and append the
// count of existing records plus one, counting further up if that is taken.
func (r *Repository) NextSlug(thrslug string) (string, error) {
	existing, err := r.SlugsForTHR(thrslug)
	if err != nil {
		return "", err
	}
	if len(existing) == 0 {
		taken, err := r.slugTaken(thrslug)
		if err != nil || !taken {
			return thrslug, err
		}
		existing = []string{thrslug}
	}

	base := existing[0]
	for n := len(existing) + 1; ; n++ {
		candidate := base + strconv.Itoa(n)
		taken, err := r.slugTaken(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}

func (r *Repository) slugTaken(slug string) (bool, error) {
	var count int64
	if err := r.db.Model(&entities.Shared{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check slug %s: %w", slug, err)
	}
	return count > 0, nil
}

// CreateShared inserts a shared record.
func (r *Repository) CreateShared(shared *entities.Shared) error {
	if err := database.Insert(r.db, shared); err != nil {
		return fmt.Errorf("failed to create shared record %s: %w", shared.Slug, err)
	}
	return nil
}

// AddComment stores a reading comment for a page of the shared book.
func (r *Repository) AddComment(slug string, pageNo, reading int, text string) (*entities.Comment, error) {
	var rows []struct {
		SharedID uint `gorm:"column:sharedid"`
		Pages    int
	}
	err := database.Query(r.db, &rows, `
		SELECT S.sharedid, B.pages
		FROM shared S
		JOIN books B ON B.bookid = S.bookid
		WHERE S.slug = ?`, slug)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrBookNotFound
	}
	if pageNo < 0 || pageNo >= rows[0].Pages {
		return nil, ErrPageOutOfRange
	}

	comment := &entities.Comment{
		SharedID: rows[0].SharedID,
		PageNo:   pageNo,
		Reading:  reading,
		Comment:  text,
	}
	if err := database.Insert(r.db, comment); err != nil {
		return nil, fmt.Errorf("failed to add comment to %s: %w", slug, err)
	}
	return comment, nil
}
