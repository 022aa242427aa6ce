package postgres

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brandwave/ambassador-api/internal/domain/common"
	"github.com/brandwave/ambassador-api/internal/domain/progress"
	"github.com/brandwave/ambassador-api/internal/logger"
)

var participationConflictTarget = []clause.Column{
	{Name: "user_id"},
	{Name: "event_id"},
}

// ParticipationRepository implements participation persistence using GORM
type ParticipationRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewParticipationRepository creates a new PostgreSQL participation repository
func NewParticipationRepository(db *gorm.DB) *ParticipationRepository {
	return &ParticipationRepository{
		db:  db,
		log: logger.Repository("participation"),
	}
}

// GetFor retrieves the participation record for a user in an event
func (r *ParticipationRepository) GetFor(userID, eventID uuid.UUID) (*progress.Participation, error) {
	r.log.Debug("Getting participation", "user_id", userID, "event_id", eventID)

	var p progress.Participation
	err := r.db.Where("user_id = ? AND event_id = ?", userID, eventID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &common.NotFoundError{Resource: "participation", ID: userID.String()}
		}
		r.log.Error("Failed to get participation", "user_id", userID, "event_id", eventID, "error", err)
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}

	return &p, nil
}

// EnsureActive creates an active participation record if none exists yet.
// An existing record is left untouched, including withdrawn ones.
func (r *ParticipationRepository) EnsureActive(userID, eventID uuid.UUID) error {
	r.log.Debug("Ensuring participation exists", "user_id", userID, "event_id", eventID)

	p := progress.NewParticipation(userID, eventID)
	err := r.db.Clauses(clause.OnConflict{
		Columns:   participationConflictTarget,
		DoNothing: true,
	}).Create(p).Error
	if err != nil {
		r.log.Error("Failed to ensure participation", "user_id", userID, "event_id", eventID, "error", err)
		return fmt.Errorf("failed to ensure participation: %w", err)
	}

	return nil
}

// SaveProgress upserts the derived progress columns only, so a concurrent
// withdrawal or override edit is never clobbered by reconciliation.
func (r *ParticipationRepository) SaveProgress(p *progress.Participation) error {
	r.log.Debug("Saving participation progress",
		"user_id", p.UserID,
		"event_id", p.EventID,
		"posts", p.CurrentPosts,
		"sales", p.CurrentSales,
		"achieved", p.GoalAchieved)

	err := r.db.Clauses(clause.OnConflict{
		Columns:   participationConflictTarget,
		DoUpdates: clause.AssignmentColumns([]string{"current_posts", "current_sales", "goal_achieved", "updated_at"}),
	}).Create(p).Error
	if err != nil {
		r.log.Error("Failed to save participation progress", "user_id", p.UserID, "event_id", p.EventID, "error", err)
		return fmt.Errorf("failed to save participation progress: %w", err)
	}

	return nil
}

// Save upserts the editable participation columns, status and override fields
func (r *ParticipationRepository) Save(p *progress.Participation) error {
	r.log.Debug("Saving participation", "user_id", p.UserID, "event_id", p.EventID, "status", p.Status)

	err := r.db.Clauses(clause.OnConflict{
		Columns: participationConflictTarget,
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "withdrawn_reason", "withdrawn_at",
			"manual_override", "override_reason", "updated_at",
		}),
	}).Create(p).Error
	if err != nil {
		r.log.Error("Failed to save participation", "user_id", p.UserID, "event_id", p.EventID, "error", err)
		return fmt.Errorf("failed to save participation: %w", err)
	}

	r.log.Info("Participation saved", "user_id", p.UserID, "event_id", p.EventID, "status", p.Status)
	return nil
}
