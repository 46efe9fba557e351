package http

import (
	"context"

	"github.com/mrlokans/sharedreader/internal/database/activity"
	"github.com/mrlokans/sharedreader/internal/database/audit"
	"github.com/mrlokans/sharedreader/internal/entities"
)

// Each controller depends on the narrowest interface it needs; the
// services package provides the implementations.

// BookStore lists, reads and imports shared books.
type BookStore interface {
	ListBooks(ctx context.Context, teacher string) (*entities.BookIndex, error)
	GetBook(ctx context.Context, slug string) (*entities.BookView, error)
	ImportBook(ctx context.Context, thrslug, owner string) (*entities.BookView, error)
	AddComment(ctx context.Context, slug string, page, reading int, text string) (*entities.Comment, error)
}

// ActivityStore reads and appends the log table.
type ActivityStore interface {
	ListStudents(ctx context.Context, teacher string) ([]string, error)
	AddStudent(ctx context.Context, teacher, student string) error
	AppendLog(ctx context.Context, in activity.LogInput) (*entities.LogEntry, error)
	ListLog(ctx context.Context, teacher, slug string) ([]entities.LogEntry, error)
}

// AuditReader pages through recorded audit events.
type AuditReader interface {
	GetEvents(filter audit.EventFilter) ([]entities.AuditEvent, int64, error)
}
