package audit

import (
	"log"
	"sync"
	"time"

	"github.com/mrlokans/sharedreader/internal/database/audit"
	"github.com/mrlokans/sharedreader/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Wait blocks until every LogAsync write has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogImport records a THR import. archive names the saved payload file, if any.
func (s *Service) LogImport(actor, thrslug, slug, archive string, err error) {
	event := &entities.AuditEvent{
		Actor:       actor,
		EventType:   entities.AuditEventImport,
		Action:      "thr_import",
		Description: "Imported " + thrslug + " from THR",
		Slug:        slug,
		Archive:     archive,
		Status:      entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Description = "Failed to import " + thrslug + " from THR"
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(actor, action, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		Actor:     actor,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		UserAgent: truncate(userAgent, 500),
		Status:    entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// GetEvents retrieves a filtered page of audit events.
func (s *Service) GetEvents(filter audit.EventFilter) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(filter)
}

// DeleteBefore prunes events created before cutoff.
func (s *Service) DeleteBefore(cutoff time.Time) (int64, error) {
	return s.repo.DeleteBefore(cutoff)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
