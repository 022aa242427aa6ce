package postgres

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandwave/ambassador-api/internal/domain/review"
	"github.com/brandwave/ambassador-api/internal/logger"
)

// AuditRepository implements audit trail persistence using GORM
type AuditRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewAuditRepository creates a new PostgreSQL audit repository
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{
		db:  db,
		log: logger.Repository("audit"),
	}
}

// Append records an audit entry
func (r *AuditRepository) Append(entry *review.AuditEntry) error {
	r.log.Debug("Appending audit entry",
		"submission_id", entry.SubmissionID,
		"action", entry.Action,
		"from", entry.FromStatus,
		"to", entry.ToStatus)

	if err := r.db.Create(entry).Error; err != nil {
		r.log.Error("Failed to append audit entry", "submission_id", entry.SubmissionID, "error", err)
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}

// HistoryFor retrieves the audit trail of a submission, oldest first
func (r *AuditRepository) HistoryFor(submissionID uuid.UUID) ([]*review.AuditEntry, error) {
	r.log.Debug("Getting audit history", "submission_id", submissionID)

	var entries []*review.AuditEntry
	err := r.db.Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		r.log.Error("Failed to get audit history", "submission_id", submissionID, "error", err)
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}

	return entries, nil
}
