package postgres

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandwave/ambassador-api/internal/domain/common"
	"github.com/brandwave/ambassador-api/internal/domain/submission"
	"github.com/brandwave/ambassador-api/internal/logger"
)

// SubmissionRepository implements submission persistence using GORM
type SubmissionRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewSubmissionRepository creates a new PostgreSQL submission repository
func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{
		db:  db,
		log: logger.Repository("submission"),
	}
}

// Create creates a new submission. A unique violation on the occupied
// slot index is reported as submission.ErrSlotOccupied.
func (r *SubmissionRepository) Create(s *submission.Submission) error {
	r.log.Debug("Creating submission", "event_id", s.EventID, "submitter_id", s.SubmitterID, "kind", s.Kind)

	if err := r.db.Create(s).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			r.log.Debug("Submission slot already occupied", "submitter_id", s.SubmitterID, "post_id", s.PostID)
			return submission.ErrSlotOccupied
		}
		r.log.Error("Failed to create submission", "error", err)
		return fmt.Errorf("failed to create submission: %w", err)
	}

	r.log.Info("Submission created successfully", "submission_id", s.ID, "kind", s.Kind)
	return nil
}

// GetByID retrieves a submission by its ID
func (r *SubmissionRepository) GetByID(id uuid.UUID) (*submission.Submission, error) {
	r.log.Debug("Getting submission by ID", "submission_id", id)

	var s submission.Submission
	if err := r.db.First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &common.NotFoundError{Resource: "submission", ID: id.String()}
		}
		r.log.Error("Failed to get submission", "submission_id", id, "error", err)
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return &s, nil
}

// GetByIDs retrieves the submissions matching the given IDs. Missing IDs
// are simply absent from the result, callers decide whether that is an error.
func (r *SubmissionRepository) GetByIDs(ids []uuid.UUID) ([]*submission.Submission, error) {
	r.log.Debug("Getting submissions by IDs", "count", len(ids))

	if len(ids) == 0 {
		return nil, nil
	}

	var subs []*submission.Submission
	if err := r.db.Where("id IN ?", ids).Find(&subs).Error; err != nil {
		r.log.Error("Failed to get submissions by IDs", "error", err)
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}

	return subs, nil
}

// SlotOccupant returns the non-rejected submission holding the
// (submitter, post) slot, or nil when the slot is free.
func (r *SubmissionRepository) SlotOccupant(submitterID, postID uuid.UUID) (*submission.Submission, error) {
	r.log.Debug("Checking slot occupant", "submitter_id", submitterID, "post_id", postID)

	var s submission.Submission
	err := r.db.
		Where("submitter_id = ? AND post_id = ? AND status <> ?", submitterID, postID, submission.StatusRejected).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("Failed to check slot occupant", "error", err)
		return nil, fmt.Errorf("failed to check slot occupant: %w", err)
	}

	return &s, nil
}

// CountApproved counts approved submissions of a kind for a submitter in an event
func (r *SubmissionRepository) CountApproved(submitterID, eventID uuid.UUID, kind submission.Kind) (int, error) {
	var count int64
	err := r.db.Model(&submission.Submission{}).
		Where("submitter_id = ? AND event_id = ? AND kind = ? AND status = ?",
			submitterID, eventID, kind, submission.StatusApproved).
		Count(&count).Error
	if err != nil {
		r.log.Error("Failed to count approved submissions", "submitter_id", submitterID, "event_id", eventID, "error", err)
		return 0, fmt.Errorf("failed to count approved submissions: %w", err)
	}

	return int(count), nil
}

// UpdateDecision persists the decision fields of a reviewed submission.
// Only decision columns are written so concurrent artifact updates survive.
func (r *SubmissionRepository) UpdateDecision(s *submission.Submission) error {
	r.log.Debug("Updating submission decision", "submission_id", s.ID, "status", s.Status)

	result := r.db.Model(&submission.Submission{}).
		Where("id = ?", s.ID).
		Updates(map[string]interface{}{
			"status":           s.Status,
			"rejection_reason": s.RejectionReason,
			"decided_at":       s.DecidedAt,
			"decided_by":       s.DecidedBy,
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return submission.ErrSlotOccupied
		}
		r.log.Error("Failed to update submission decision", "submission_id", s.ID, "error", result.Error)
		return fmt.Errorf("failed to update submission decision: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return &common.NotFoundError{Resource: "submission", ID: s.ID.String()}
	}

	r.log.Info("Submission decision updated", "submission_id", s.ID, "status", s.Status)
	return nil
}

// Delete removes a submission permanently
func (r *SubmissionRepository) Delete(id uuid.UUID) error {
	r.log.Debug("Deleting submission", "submission_id", id)

	result := r.db.Delete(&submission.Submission{}, "id = ?", id)
	if result.Error != nil {
		r.log.Error("Failed to delete submission", "submission_id", id, "error", result.Error)
		return fmt.Errorf("failed to delete submission: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return &common.NotFoundError{Resource: "submission", ID: id.String()}
	}

	r.log.Info("Submission deleted", "submission_id", id)
	return nil
}
