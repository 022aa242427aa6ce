package auth

import (
	"errors"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/brandwave/ambassador-api/internal/domain/common"
	"github.com/brandwave/ambassador-api/internal/domain/participant"
	"github.com/brandwave/ambassador-api/internal/logger"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// UserStore is the user lookup the auth service needs
type UserStore interface {
	Create(u *participant.User) error
	GetByEmail(email string) (*participant.User, error)
}

// Service handles credential verification and token issuance
type Service struct {
	users  UserStore
	tokens *TokenManager
	log    *log.Logger
}

// NewService creates the authentication service
func NewService(users UserStore, tokens *TokenManager) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		log:    logger.Service("auth"),
	}
}

// Login verifies credentials and returns a signed token plus the user
func (s *Service) Login(email, password string) (string, *participant.User, error) {
	s.log.Debug("Login attempt")

	user, err := s.users.GetByEmail(email)
	if err != nil {
		// Same error for unknown email and bad password.
		s.log.Debug("Login failed, user not found")
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Debug("Login failed, password mismatch", "user_id", user.ID)
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.Actor())
	if err != nil {
		s.log.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return "", nil, err
	}

	s.log.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return token, user, nil
}

// Register creates a new user with a hashed password
func (s *Service) Register(name, handle, email, contact, gender, password string, role common.Role) (*participant.User, error) {
	s.log.Debug("Registering user", "handle", handle)

	if len(password) < 8 {
		return nil, &common.ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error("Failed to hash password", "error", err)
		return nil, err
	}

	user := participant.NewUser(name, handle, email)
	user.Contact = contact
	user.Gender = gender
	user.Role = role
	user.PasswordHash = string(hash)

	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	s.log.Info("User registered", "user_id", user.ID, "handle", handle, "role", role)
	return user, nil
}
