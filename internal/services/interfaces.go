package services

import (
	"context"

	"github.com/mrlokans/sharedreader/internal/thr"
)

// BookSource fetches original book content by its THR slug.
type BookSource interface {
	FetchBook(ctx context.Context, slug string) (*thr.Book, error)
}

// PayloadArchiver keeps a copy of raw upstream payloads. It returns the name
// the payload was stored under, or "" when archiving is off.
type PayloadArchiver interface {
	SaveJSON(data any) (string, error)
}

// ImportRecorder records the outcome of every import attempt.
type ImportRecorder interface {
	LogImport(actor, thrslug, slug, archive string, err error)
}
