package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brandwave/ambassador-api/internal/auth"
	"github.com/brandwave/ambassador-api/internal/domain/common"
	"github.com/brandwave/ambassador-api/internal/response"
	"github.com/brandwave/ambassador-api/internal/validation"
)

// AuthHandler handles registration and login
type AuthHandler struct {
	service *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Handle   string `json:"handle" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Contact  string `json:"contact"`
	Gender   string `json:"gender"`
	Password string `json:"password" binding:"required"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request payload: "+err.Error())
		return
	}

	userValidation := validation.UserValidation{}
	if err := userValidation.ValidateUserName(req.Name); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := userValidation.ValidateUserEmail(req.Email); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	// Self-registration always creates ambassadors. Privileged roles
	// are provisioned out of band.
	user, err := h.service.Register(req.Name, req.Handle, req.Email, req.Contact, req.Gender, req.Password, common.RoleAmbassador)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "user registered", user)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request payload: "+err.Error())
		return
	}

	token, user, err := h.service.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			response.Unauthorized(c, err.Error())
			return
		}
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", gin.H{
		"token": token,
		"user":  user,
	})
}
