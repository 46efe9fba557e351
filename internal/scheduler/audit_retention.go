// Package scheduler runs periodic housekeeping next to the HTTP server.
package scheduler

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/sharedreader/internal/config"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule checks a five-field cron expression or @descriptor.
func ValidateSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// AuditPruner deletes audit events created before a cutoff.
type AuditPruner interface {
	DeleteBefore(cutoff time.Time) (int64, error)
}

// AuditRetentionScheduler drops audit events and archived THR payloads once
// they are older than the retention period.
type AuditRetentionScheduler struct {
	pruner     AuditPruner
	archiveDir string
	retention  time.Duration
	schedule   string
	now        func() time.Time

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

func NewAuditRetentionScheduler(pruner AuditPruner, cfg config.Audit) *AuditRetentionScheduler {
	return &AuditRetentionScheduler{
		pruner:     pruner,
		archiveDir: cfg.Dir,
		retention:  time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		schedule:   cfg.CleanupSchedule,
		now:        time.Now,
		cron:       cron.New(cron.WithParser(cronParser)),
	}
}

// Start schedules the cleanup job. It does nothing when retention is off.
func (s *AuditRetentionScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if s.retention <= 0 {
		log.Printf("Audit retention: disabled, events are kept forever")
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}
	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		return fmt.Errorf("failed to schedule audit cleanup: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	entries := s.cron.Entries()
	log.Printf("Audit retention: keeping %v, schedule '%s', next run %v",
		s.retention, s.schedule, entries[0].Next)
	return nil
}

// Stop waits for a running cleanup to finish and stops the scheduler.
func (s *AuditRetentionScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false

	log.Printf("Audit retention: stopped")
}

func (s *AuditRetentionScheduler) run() {
	events, files, err := s.RunOnce()
	if err != nil {
		log.Printf("Audit retention: cleanup failed: %v", err)
		return
	}
	log.Printf("Audit retention: removed %d events and %d payload files", events, files)
}

// RunOnce removes everything older than the retention period right away.
func (s *AuditRetentionScheduler) RunOnce() (events int64, files int, err error) {
	if s.retention <= 0 {
		return 0, 0, nil
	}
	cutoff := s.now().Add(-s.retention)

	events, err = s.pruner.DeleteBefore(cutoff)
	if err != nil {
		return 0, 0, fmt.Errorf("delete audit events: %w", err)
	}

	files, err = s.pruneArchive(cutoff)
	return events, files, err
}

// pruneArchive deletes payload files last modified before cutoff.
func (s *AuditRetentionScheduler) pruneArchive(cutoff time.Time) (int, error) {
	if s.archiveDir == "" {
		return 0, nil
	}

	paths, err := filepath.Glob(filepath.Join(s.archiveDir, "*.json"))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("remove %s: %w", path, err)
		}
		removed++
	}
	return removed, nil
}
