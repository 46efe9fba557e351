package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/sharedreader/internal/database"
	"github.com/mrlokans/sharedreader/internal/database/books"
	"github.com/mrlokans/sharedreader/internal/entities"
	"github.com/mrlokans/sharedreader/internal/thr"
)

var ErrTHRSlugRequired = errors.New("thrslug is required")

// BookService runs book reads and imports, one unit of work per call.
type BookService struct {
	db       *database.Database
	source   BookSource
	archiver PayloadArchiver
	recorder ImportRecorder
	now      func() time.Time
}

// NewBookService creates a BookService. archiver and recorder may be nil.
func NewBookService(db *database.Database, source BookSource, archiver PayloadArchiver, recorder ImportRecorder) *BookService {
	return &BookService{
		db:       db,
		source:   source,
		archiver: archiver,
		recorder: recorder,
		now:      time.Now,
	}
}

// WithClock replaces the time source used for shared record timestamps.
func (s *BookService) WithClock(now func() time.Time) *BookService {
	s.now = now
	return s
}

// ListBooks returns the global published list when teacher is empty, and the
// teacher's recent and owned lists otherwise. Lists not requested are empty.
func (s *BookService) ListBooks(ctx context.Context, teacher string) (*entities.BookIndex, error) {
	index := &entities.BookIndex{
		Recent: []entities.BookSummary{},
		Yours:  []entities.BookSummary{},
		Books:  []entities.BookSummary{},
	}

	err := s.db.WithConn(ctx, func(tx *gorm.DB) error {
		repo := books.NewRepository(tx)
		var err error
		if teacher == "" {
			index.Books, err = repo.ListPublished()
			return err
		}
		if index.Recent, err = repo.ListRecent(teacher, books.RecentLimit); err != nil {
			return err
		}
		index.Yours, err = repo.ListOwned(teacher)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return index, nil
}

// GetBook returns the full shared book, or books.ErrBookNotFound.
func (s *BookService) GetBook(ctx context.Context, slug string) (*entities.BookView, error) {
	var view *entities.BookView
	err := s.db.WithConn(ctx, func(tx *gorm.DB) error {
		var err error
		view, err = books.NewRepository(tx).GetBySlug(slug)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ImportBook copies a book from THR and shares it as a draft owned by owner.
// The book, its pages and the shared record are written in one transaction.
func (s *BookService) ImportBook(ctx context.Context, thrslug, owner string) (*entities.BookView, error) {
	if thrslug == "" {
		return nil, ErrTHRSlugRequired
	}

	source, err := s.source.FetchBook(ctx, thrslug)
	if err != nil {
		s.recordImport(owner, thrslug, "", "", err)
		return nil, fmt.Errorf("failed to fetch %s: %w", thrslug, err)
	}

	archive := s.archive(thrslug, source)

	book := &entities.Book{
		THRSlug: thrslug,
		Title:   source.Title,
		Author:  source.Author,
	}
	pages := make([]entities.Page, len(source.Pages))
	for i, p := range source.Pages {
		pages[i] = entities.Page{
			Caption: p.Text,
			Image:   p.URL,
			Width:   p.Width,
			Height:  p.Height,
		}
	}

	var view *entities.BookView
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := books.NewRepository(tx)
		if err := repo.CreateBook(book, pages); err != nil {
			return err
		}

		slug, err := repo.NextSlug(thrslug)
		if err != nil {
			return err
		}

		now := s.now()
		err = repo.CreateShared(&entities.Shared{
			BookID:   book.BookID,
			Slug:     slug,
			Status:   entities.SharedStatusDraft,
			Owner:    owner,
			Created:  now,
			Modified: now,
		})
		if err != nil {
			return err
		}

		view, err = repo.GetBySlug(slug)
		return err
	})
	if err != nil {
		s.recordImport(owner, thrslug, "", archive, err)
		return nil, fmt.Errorf("failed to import %s: %w", thrslug, err)
	}

	log.Printf("Imported %s from THR as %s (%d pages, owner %s)", thrslug, view.Slug, len(view.Pages), owner)
	s.recordImport(owner, thrslug, view.Slug, archive, nil)
	return view, nil
}

// AddComment attaches a reading comment to a page of a shared book.
func (s *BookService) AddComment(ctx context.Context, slug string, page, reading int, text string) (*entities.Comment, error) {
	var comment *entities.Comment
	err := s.db.WithConn(ctx, func(tx *gorm.DB) error {
		var err error
		comment, err = books.NewRepository(tx).AddComment(slug, page, reading, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// archive stores the raw payload. Archiving problems never fail an import.
func (s *BookService) archive(thrslug string, book *thr.Book) string {
	if s.archiver == nil || len(book.Raw) == 0 {
		return ""
	}
	name, err := s.archiver.SaveJSON(book.Raw)
	if err != nil {
		log.Printf("Warning: failed to archive THR payload for %s: %v", thrslug, err)
		return ""
	}
	return name
}

func (s *BookService) recordImport(actor, thrslug, slug, archive string, err error) {
	if s.recorder != nil {
		s.recorder.LogImport(actor, thrslug, slug, archive, err)
	}
}
