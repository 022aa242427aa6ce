package review

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandwave/ambassador-api/internal/domain/submission"
)

// AuditAction distinguishes status transitions from hard deletes in
// the trail.
const (
	AuditActionTransition = "transition"
	AuditActionDelete     = "delete"
)

// AuditEntry is one immutable line of reviewer-facing history. Entries
// are only ever appended, never updated, and deliberately carry no
// foreign key so they outlive a deleted submission.
type AuditEntry struct {
	ID           uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	SubmissionID uuid.UUID         `json:"submission_id" gorm:"type:uuid;not null;index"`
	Action       string            `json:"action" gorm:"not null;default:'transition'"`
	ActorID      uuid.UUID         `json:"actor_id" gorm:"type:uuid;not null"`
	FromStatus   submission.Status `json:"from_status" gorm:"type:text;not null"`
	ToStatus     submission.Status `json:"to_status" gorm:"type:text;not null"`
	Reason       string            `json:"reason"`
	CreatedAt    time.Time         `json:"created_at" gorm:"autoCreateTime"`
}

// TableName overrides the table name
func (AuditEntry) TableName() string {
	return "audit_entries"
}

// BeforeCreate will set a UUID rather than numeric ID.
func (a *AuditEntry) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
