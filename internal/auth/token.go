package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/brandwave/ambassador-api/internal/domain/common"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims carries the authenticated identity inside a signed token
type Claims struct {
	UserID uuid.UUID   `json:"user_id"`
	Name   string      `json:"name"`
	Role   common.Role `json:"role"`
	jwt.RegisteredClaims
}

// Actor converts the claims into the actor identity domain services expect
func (c *Claims) Actor() common.Actor {
	return common.Actor{
		ID:   c.UserID,
		Name: c.Name,
		Role: c.Role,
	}
}

// TokenManager issues and validates HS256 signed tokens
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a token manager with the given signing secret
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Generate issues a signed token for the given actor
func (m *TokenManager) Generate(actor common.Actor) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: actor.ID,
		Name:   actor.Name,
		Role:   actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "ambassador-api",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses a token string and returns its claims
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.UserID == uuid.Nil && claims.Subject != "" {
		if uid, perr := uuid.Parse(claims.Subject); perr == nil {
			claims.UserID = uid
		}
	}

	return claims, nil
}
