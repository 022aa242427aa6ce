package common

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
)

// Role identifies what a caller is allowed to do. Ambassadors submit,
// reviewers decide, admins additionally may hard-delete submissions.
type Role string

const (
	RoleAmbassador Role = "ambassador"
	RoleReviewer   Role = "reviewer"
	RoleAdmin      Role = "admin"
)

// IsPrivileged reports whether the role may perform reviewer mutations
// (status transitions, manual overrides, participation changes).
func (r Role) IsPrivileged() bool {
	return r == RoleReviewer || r == RoleAdmin
}

func (r *Role) Scan(value any) error {
	if value == nil {
		*r = RoleAmbassador
		return nil
	}
	switch v := value.(type) {
	case string:
		*r = Role(v)
	case []byte:
		*r = Role(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", value)
	}
	return nil
}

func (r Role) Value() (driver.Value, error) {
	return string(r), nil
}

// Actor is the authenticated identity performing an operation. The HTTP
// layer builds it from the verified token; services trust the identity
// but still enforce their own role checks.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Role Role      `json:"role"`
}

// SharedEvent represents the minimal Event structure used across domains
type SharedEvent struct {
	ID   uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name string    `json:"name"`
}

// SharedUser represents the minimal User structure used across domains
type SharedUser struct {
	ID     uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name   string    `json:"name"`
	Handle string    `json:"handle"`
}

func (SharedEvent) TableName() string { return "events" }
func (SharedUser) TableName() string  { return "users" }
