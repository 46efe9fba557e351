package entities

import "time"

// Log actions written by this service. Readers send their own action names
// for reading events.
const (
	LogActionAdd = "add"
)

// LogEntry is one append-only audit row of teacher/student activity.
// Slug references Shared.Slug without an enforced foreign key.
type LogEntry struct {
	LogID   uint      `gorm:"column:logid;primaryKey" json:"-"`
	Time    time.Time `gorm:"index" json:"time"`
	Teacher string    `gorm:"index;size:100" json:"teacher"`
	Student string    `gorm:"size:100" json:"student"`
	Action  string    `gorm:"size:50" json:"action"`
	Slug    string    `gorm:"index;size:255" json:"slug,omitempty"`
	Page    *int      `json:"page,omitempty"`
	Reading *int      `json:"reading,omitempty"`
	Comment string    `gorm:"type:text" json:"comment,omitempty"`
}

func (LogEntry) TableName() string { return "log" }
