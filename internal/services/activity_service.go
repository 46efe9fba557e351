package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/sharedreader/internal/database"
	"github.com/mrlokans/sharedreader/internal/database/activity"
	"github.com/mrlokans/sharedreader/internal/entities"
)

// ActivityService reads and appends teacher/student activity.
type ActivityService struct {
	db  *database.Database
	now func() time.Time
}

func NewActivityService(db *database.Database) *ActivityService {
	return &ActivityService{db: db, now: time.Now}
}

// WithClock replaces the time source used to stamp log rows.
func (s *ActivityService) WithClock(now func() time.Time) *ActivityService {
	s.now = now
	return s
}

func (s *ActivityService) repo(tx *gorm.DB) *activity.Repository {
	return activity.NewRepository(tx).WithClock(s.now)
}

func (s *ActivityService) ListStudents(ctx context.Context, teacher string) ([]string, error) {
	var students []string
	err := s.db.WithConn(ctx, func(tx *gorm.DB) error {
		var err error
		students, err = s.repo(tx).ListStudents(teacher)
		return err
	})
	return students, err
}

func (s *ActivityService) AddStudent(ctx context.Context, teacher, student string) error {
	return s.db.WithConn(ctx, func(tx *gorm.DB) error {
		return s.repo(tx).AddStudent(teacher, student)
	})
}

func (s *ActivityService) AppendLog(ctx context.Context, in activity.LogInput) (*entities.LogEntry, error) {
	var entry *entities.LogEntry
	err := s.db.WithConn(ctx, func(tx *gorm.DB) error {
		var err error
		entry, err = s.repo(tx).AppendLog(in)
		return err
	})
	return entry, err
}

func (s *ActivityService) ListLog(ctx context.Context, teacher, slug string) ([]entities.LogEntry, error) {
	var entries []entities.LogEntry
	err := s.db.WithConn(ctx, func(tx *gorm.DB) error {
		var err error
		entries, err = s.repo(tx).ListForSlug(teacher, slug)
		return err
	})
	return entries, err
}
