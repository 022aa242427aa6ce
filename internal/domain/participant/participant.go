package participant

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandwave/ambassador-api/internal/domain/common"
)

// User is an ambassador, reviewer or admin known to the platform.
// Gender is optional; when set it is matched against an event's
// audience restriction during intake.
type User struct {
	ID           uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string      `json:"name" gorm:"not null"`
	Handle       string      `json:"handle" gorm:"uniqueIndex;not null"`
	Email        string      `json:"email" gorm:"uniqueIndex;not null"`
	Contact      string      `json:"contact"`
	Gender       string      `json:"gender"`
	Role         common.Role `json:"role" gorm:"type:text;not null;default:'ambassador'"`
	PasswordHash string      `json:"-" gorm:"not null"`
	CreatedAt    time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (User) TableName() string {
	return "users"
}

// BeforeCreate sets a UUID before creating the record
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// NewUser creates a new ambassador account
func NewUser(name, handle, email string) *User {
	return &User{
		ID:        uuid.New(),
		Name:      name,
		Handle:    handle,
		Email:     email,
		Role:      common.RoleAmbassador,
		CreatedAt: time.Now(),
	}
}

// Actor converts the user into the identity services operate on
func (u *User) Actor() common.Actor {
	return common.Actor{ID: u.ID, Name: u.Name, Role: u.Role}
}

// Validate checks if the user data is valid
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(u.Handle) == "" {
		return fmt.Errorf("handle is required")
	}
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("email must have a valid format")
	}
	return nil
}
