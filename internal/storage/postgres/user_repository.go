package postgres

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandwave/ambassador-api/internal/domain/common"
	"github.com/brandwave/ambassador-api/internal/domain/participant"
	"github.com/brandwave/ambassador-api/internal/logger"
)

// UserRepository implements user persistence using GORM
type UserRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db:  db,
		log: logger.Repository("user"),
	}
}

// Create creates a new user
func (r *UserRepository) Create(u *participant.User) error {
	r.log.Debug("Creating user", "handle", u.Handle)

	if err := r.db.Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &common.ValidationError{Field: "handle", Reason: "handle or email already taken"}
		}
		r.log.Error("Failed to create user", "handle", u.Handle, "error", err)
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Info("User created successfully", "user_id", u.ID, "handle", u.Handle)
	return nil
}

// GetByID retrieves a user by their ID
func (r *UserRepository) GetByID(id uuid.UUID) (*participant.User, error) {
	r.log.Debug("Getting user by ID", "user_id", id)

	var u participant.User
	if err := r.db.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &common.NotFoundError{Resource: "user", ID: id.String()}
		}
		r.log.Error("Failed to get user", "user_id", id, "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &u, nil
}

// GetByEmail retrieves a user by their email address
func (r *UserRepository) GetByEmail(email string) (*participant.User, error) {
	r.log.Debug("Getting user by email")

	var u participant.User
	if err := r.db.First(&u, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &common.NotFoundError{Resource: "user", ID: email}
		}
		r.log.Error("Failed to get user by email", "error", err)
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &u, nil
}

// GetAll retrieves all users ordered by name
func (r *UserRepository) GetAll() ([]*participant.User, error) {
	r.log.Debug("Getting all users")

	var users []*participant.User
	if err := r.db.Order("name ASC").Find(&users).Error; err != nil {
		r.log.Error("Failed to get users", "error", err)
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	return users, nil
}
