package progress

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ParticipationStatus says whether a user currently counts toward an
// event's occupied capacity. It is orthogonal to submission history.
type ParticipationStatus string

const (
	ParticipationActive    ParticipationStatus = "active"
	ParticipationWithdrawn ParticipationStatus = "withdrawn"
)

// ParticipationStatusFromString converts a string to a ParticipationStatus
func ParticipationStatusFromString(s string) (ParticipationStatus, bool) {
	switch ParticipationStatus(s) {
	case ParticipationActive, ParticipationWithdrawn:
		return ParticipationStatus(s), true
	default:
		return ParticipationActive, false
	}
}

// Scan implements the sql.Scanner interface for database deserialization
func (ps *ParticipationStatus) Scan(value any) error {
	if value == nil {
		*ps = ParticipationActive
		return nil
	}
	switch v := value.(type) {
	case string:
		*ps = ParticipationStatus(v)
	case []byte:
		*ps = ParticipationStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into ParticipationStatus", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for database serialization
func (ps ParticipationStatus) Value() (driver.Value, error) {
	return string(ps), nil
}

// Participation is one user's standing in one event. CurrentPosts and
// CurrentSales are derived from the submission store and persisted
// only for read performance; the reconciler is the single writer of
// those fields and always recomputes them from scratch.
type Participation struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID  uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_participations_user_event"`
	EventID uuid.UUID `json:"event_id" gorm:"type:uuid;not null;uniqueIndex:idx_participations_user_event"`

	CurrentPosts int  `json:"current_posts" gorm:"not null;default:0"`
	CurrentSales int  `json:"current_sales" gorm:"not null;default:0"`
	GoalAchieved bool `json:"goal_achieved" gorm:"not null;default:false"`

	ManualOverride bool   `json:"manual_override" gorm:"not null;default:false"`
	OverrideReason string `json:"override_reason"`

	Status          ParticipationStatus `json:"participation_status" gorm:"type:text;not null;default:'active'"`
	WithdrawnReason string              `json:"withdrawn_reason"`
	WithdrawnAt     *time.Time          `json:"withdrawn_at"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name
func (Participation) TableName() string {
	return "participations"
}

// BeforeCreate will set a UUID rather than numeric ID.
func (p *Participation) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// NewParticipation creates an active record with zero progress
func NewParticipation(userID, eventID uuid.UUID) *Participation {
	return &Participation{
		ID:        uuid.New(),
		UserID:    userID,
		EventID:   eventID,
		Status:    ParticipationActive,
		CreatedAt: time.Now(),
	}
}

// Withdraw marks the user as no longer occupying a slot. Counters and
// goal state are untouched.
func (p *Participation) Withdraw(reason string, at time.Time) {
	p.Status = ParticipationWithdrawn
	p.WithdrawnReason = reason
	p.WithdrawnAt = &at
}

// Reactivate restores the user to active participation
func (p *Participation) Reactivate() {
	p.Status = ParticipationActive
	p.WithdrawnReason = ""
	p.WithdrawnAt = nil
}
