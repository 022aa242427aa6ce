package submission

import (
	"database/sql/driver"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandwave/ambassador-api/internal/domain/common"
)

// Status is the review state of a submission.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) String() string {
	return string(s)
}

// StatusFromString converts a string to a Status
func StatusFromString(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(s), true
	default:
		return StatusPending, false
	}
}

// CanTransitionTo checks if the status can move to a new status.
// Approved and rejected submissions only leave their state through an
// explicit revert to pending.
func (s Status) CanTransitionTo(newStatus Status) bool {
	transitions := map[Status][]Status{
		StatusPending:  {StatusApproved, StatusRejected},
		StatusApproved: {StatusPending},
		StatusRejected: {StatusPending},
	}

	allowed, exists := transitions[s]
	if !exists {
		return false
	}

	return slices.Contains(allowed, newStatus)
}

// Occupying reports whether a submission in this status holds its
// (submitter, post) slot. Only rejection frees the slot.
func (s Status) Occupying() bool {
	return s != StatusRejected
}

// Scan implements the sql.Scanner interface for database deserialization
func (s *Status) Scan(value any) error {
	if value == nil {
		*s = StatusPending
		return nil
	}

	var str string
	switch v := value.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Status", value)
	}

	status, valid := StatusFromString(str)
	if !valid {
		return fmt.Errorf("invalid status value: %s", str)
	}
	*s = status
	return nil
}

// Value implements the driver.Valuer interface for database serialization
func (s Status) Value() (driver.Value, error) {
	return string(s), nil
}

// Kind is the tagged variant of a submission. Each kind declares its
// required fields once in Fields; intake validates against that
// declaration instead of scattering per-kind conditionals.
type Kind string

const (
	KindContentPost         Kind = "content_post"
	KindSaleReceipt         Kind = "sale_receipt"
	KindProfileVerification Kind = "profile_verification"
)

// KindFromString converts a string to a Kind
func KindFromString(s string) (Kind, bool) {
	switch Kind(s) {
	case KindContentPost, KindSaleReceipt, KindProfileVerification:
		return Kind(s), true
	default:
		return KindContentPost, false
	}
}

// Scan implements the sql.Scanner interface for database deserialization
func (k *Kind) Scan(value any) error {
	if value == nil {
		*k = KindContentPost
		return nil
	}

	var str string
	switch v := value.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Kind", value)
	}

	kind, valid := KindFromString(str)
	if !valid {
		return fmt.Errorf("invalid kind value: %s", str)
	}
	*k = kind
	return nil
}

// Value implements the driver.Valuer interface for database serialization
func (k Kind) Value() (driver.Value, error) {
	return string(k), nil
}

// FieldSet declares what a submission kind requires at intake.
type FieldSet struct {
	NeedsPost            bool // must target a post slot and beat its deadline
	SlotLimited          bool // at most one live submission per (submitter, post)
	NeedsFollowerBracket bool
	NeedsProfileShot     bool
	CountsAsPost         bool
	CountsAsSale         bool
}

// Fields returns the required-field declaration for the kind.
func (k Kind) Fields() FieldSet {
	switch k {
	case KindSaleReceipt:
		return FieldSet{CountsAsSale: true}
	case KindProfileVerification:
		return FieldSet{
			NeedsPost:            true,
			SlotLimited:          true,
			NeedsFollowerBracket: true,
			NeedsProfileShot:     true,
		}
	default: // KindContentPost
		return FieldSet{
			NeedsPost:    true,
			SlotLimited:  true,
			CountsAsPost: true,
		}
	}
}

// Submission is one user-supplied proof artifact awaiting or having
// received a review decision. PostID is nil only for sale receipts.
type Submission struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	EventID     uuid.UUID  `json:"event_id" gorm:"type:uuid;not null"`
	SubmitterID uuid.UUID  `json:"submitter_id" gorm:"type:uuid;not null"`
	PostID      *uuid.UUID `json:"post_id" gorm:"type:uuid"`

	Kind   Kind   `json:"kind" gorm:"type:text;not null"`
	Status Status `json:"status" gorm:"type:text;not null;default:'pending'"`

	ArtifactKey        string `json:"artifact_key" gorm:"not null"`
	ProfileArtifactKey string `json:"profile_artifact_key"`
	FollowerBracket    string `json:"follower_bracket"`
	TicketingEmail     string `json:"ticketing_email"`

	RejectionReason string     `json:"rejection_reason"`
	SubmittedAt     time.Time  `json:"submitted_at" gorm:"autoCreateTime"`
	DecidedAt       *time.Time `json:"decided_at"`
	DecidedBy       *uuid.UUID `json:"decided_by" gorm:"type:uuid"`

	// Relations - using shared types to avoid circular imports
	Event     common.SharedEvent `json:"event,omitempty" gorm:"foreignKey:EventID"`
	Submitter common.SharedUser  `json:"submitter,omitempty" gorm:"foreignKey:SubmitterID"`
}

// TableName overrides the table name
func (Submission) TableName() string {
	return "submissions"
}

// BeforeCreate will set a UUID rather than numeric ID.
func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// NewSubmission creates a pending submission
func NewSubmission(eventID, submitterID uuid.UUID, postID *uuid.UUID, kind Kind, artifactKey string) *Submission {
	return &Submission{
		ID:          uuid.New(),
		EventID:     eventID,
		SubmitterID: submitterID,
		PostID:      postID,
		Kind:        kind,
		Status:      StatusPending,
		ArtifactKey: artifactKey,
		SubmittedAt: time.Now(),
	}
}

// Validate checks if the submission data is valid
func (s *Submission) Validate() error {
	if s.EventID == uuid.Nil {
		return fmt.Errorf("event_id is required")
	}
	if s.SubmitterID == uuid.Nil {
		return fmt.Errorf("submitter_id is required")
	}
	if s.ArtifactKey == "" {
		return fmt.Errorf("artifact_key is required")
	}
	if s.Kind.Fields().NeedsPost && s.PostID == nil {
		return fmt.Errorf("post_id is required for %s submissions", s.Kind)
	}
	if !s.Kind.Fields().NeedsPost && s.PostID != nil {
		return fmt.Errorf("post_id must be empty for %s submissions", s.Kind)
	}
	return nil
}
