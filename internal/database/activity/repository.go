// Package activity provides queries over the append-only log table: the
// students a teacher has added and the reading events recorded for them.
//
// Log rows are never updated or deleted.
package activity

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/sharedreader/internal/database"
	"github.com/mrlokans/sharedreader/internal/entities"
)

var (
	ErrTeacherRequired = errors.New("teacher is required")
	ErrStudentRequired = errors.New("student is required")
	ErrSlugRequired    = errors.New("bookid is required")
)

// LogInput is a reading event as submitted by a client. Slug arrives on the
// wire as "bookid".
type LogInput struct {
	Teacher string
	Student string
	Action  string
	Slug    string
	Page    *int
	Reading *int
}

type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// WithClock replaces the time source used to stamp new rows.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

// ListStudents returns the distinct non-empty students logged under teacher,
// alphabetically.
func (r *Repository) ListStudents(teacher string) ([]string, error) {
	students := []string{}
	err := database.Query(r.db, &students, `
		SELECT DISTINCT student
		FROM log
		WHERE teacher = ? AND student <> ''
		ORDER BY student`, teacher)
	return students, err
}

// AddStudent records that teacher added student.
func (r *Repository) AddStudent(teacher, student string) error {
	if teacher == "" {
		return ErrTeacherRequired
	}
	if student == "" {
		return ErrStudentRequired
	}

	entry := &entities.LogEntry{
		Time:    r.now(),
		Teacher: teacher,
		Student: student,
		Action:  entities.LogActionAdd,
	}
	if err := database.Insert(r.db, entry); err != nil {
		return fmt.Errorf("failed to add student %s for %s: %w", student, teacher, err)
	}
	return nil
}

// AppendLog inserts a reading event stamped with the current time. When a
// comment exists for the same slug, page and reading its text is copied onto
// the row.
func (r *Repository) AppendLog(in LogInput) (*entities.LogEntry, error) {
	if in.Slug == "" {
		return nil, ErrSlugRequired
	}

	entry := &entities.LogEntry{
		Time:    r.now(),
		Teacher: in.Teacher,
		Student: in.Student,
		Action:  in.Action,
		Slug:    in.Slug,
		Page:    in.Page,
		Reading: in.Reading,
	}

	if in.Page != nil && in.Reading != nil {
		text, err := r.commentAt(in.Slug, *in.Page, *in.Reading)
		if err != nil {
			return nil, err
		}
		entry.Comment = text
	}

	if err := database.Insert(r.db, entry); err != nil {
		return nil, fmt.Errorf("failed to append log for %s: %w", in.Slug, err)
	}
	return entry, nil
}

// commentAt returns the earliest comment stored at (slug, page, reading), or
// "" when there is none.
func (r *Repository) commentAt(slug string, page, reading int) (string, error) {
	var comments []string
	err := database.Query(r.db, &comments, `
		SELECT C.comment
		FROM comments C
		JOIN shared S ON C.sharedid = S.sharedid
		WHERE S.slug = ? AND C.pageno = ? AND C.reading = ?
		ORDER BY C.commentid
		LIMIT 1`, slug, page, reading)
	if err != nil || len(comments) == 0 {
		return "", err
	}
	return comments[0], nil
}

// ListForSlug returns the teacher's log rows for slug, oldest first.
func (r *Repository) ListForSlug(teacher, slug string) ([]entities.LogEntry, error) {
	entries := []entities.LogEntry{}
	err := r.db.
		Where("teacher = ? AND slug = ?", teacher, slug).
		Order("time, logid").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list log for %s: %w", slug, err)
	}
	return entries, nil
}
