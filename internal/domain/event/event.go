package event

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Event represents a time-boxed campaign ambassadors submit proof
// artifacts against. RequiredPosts/RequiredSales of zero means the
// event has no automatic goal and achievement is decided by manual
// review only.
type Event struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`

	RequiredPosts      int  `json:"required_posts" gorm:"not null;default:0"`
	RequiredSales      int  `json:"required_sales" gorm:"not null;default:0"`
	TotalRequiredPosts *int `json:"total_required_posts"`
	IsApproximate      bool `json:"is_approximate" gorm:"not null;default:false"`

	AcceptsPosts               bool `json:"accepts_posts" gorm:"not null;default:true"`
	AcceptsSales               bool `json:"accepts_sales" gorm:"not null;default:false"`
	AcceptsProfileVerification bool `json:"accepts_profile_verification" gorm:"not null;default:false"`

	RequiresProfileShot    bool `json:"requires_profile_shot" gorm:"not null;default:false"`
	RequiresTicketingEmail bool `json:"requires_ticketing_email" gorm:"not null;default:false"`

	// Empty means unrestricted.
	AllowedGenders pq.StringArray `json:"allowed_genders" gorm:"type:text[]"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Posts []Post `json:"posts,omitempty" gorm:"foreignKey:EventID"`
}

// TableName overrides the table name used by GORM
func (Event) TableName() string {
	return "events"
}

// BeforeCreate sets a UUID before creating the record
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// NewEvent creates a new event with the given parameters
func NewEvent(name, description string, startDate, endDate time.Time) *Event {
	return &Event{
		ID:           uuid.New(),
		Name:         name,
		Description:  description,
		StartDate:    startDate,
		EndDate:      endDate,
		AcceptsPosts: true,
		CreatedAt:    time.Now(),
	}
}

// HasAutomaticGoal reports whether the event defines numeric
// requirements. Without them achievement is manual-review only.
func (e *Event) HasAutomaticGoal() bool {
	return e.RequiredPosts > 0 || e.RequiredSales > 0
}

// IsEligible checks the submitter's profile attribute against the
// event's audience restriction. An absent attribute is treated as
// eligible by default.
func (e *Event) IsEligible(gender string) bool {
	if len(e.AllowedGenders) == 0 || gender == "" {
		return true
	}
	return slices.Contains(e.AllowedGenders, gender)
}

// Validate checks if the event data is valid
func (e *Event) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("name is required")
	}
	if e.EndDate.Before(e.StartDate) {
		return fmt.Errorf("end_date must be after start_date")
	}
	if e.RequiredPosts < 0 || e.RequiredSales < 0 {
		return fmt.Errorf("requirements cannot be negative")
	}
	return nil
}

// Post is a single content slot inside an event. A content submission
// occupies the (submitter, post) slot until it is rejected.
type Post struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	EventID  uuid.UUID `json:"event_id" gorm:"type:uuid;not null"`
	Label    string    `json:"label" gorm:"not null"`
	Deadline time.Time `json:"deadline" gorm:"not null"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (Post) TableName() string {
	return "posts"
}

// BeforeCreate sets a UUID before creating the record
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// NewPost creates a new post slot for an event
func NewPost(eventID uuid.UUID, label string, deadline time.Time) *Post {
	return &Post{
		ID:       uuid.New(),
		EventID:  eventID,
		Label:    label,
		Deadline: deadline,
	}
}

// DeadlinePassed reports whether the post no longer accepts submissions
func (p *Post) DeadlinePassed(now time.Time) bool {
	return now.After(p.Deadline)
}
