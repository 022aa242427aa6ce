package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brandwave/ambassador-api/internal/domain/event"
	"github.com/brandwave/ambassador-api/internal/response"
	"github.com/brandwave/ambassador-api/internal/storage/postgres"
	"github.com/brandwave/ambassador-api/internal/validation"
)

// EventHandler handles campaign event management
type EventHandler struct {
	events *postgres.EventRepository
}

// NewEventHandler creates a new event handler
func NewEventHandler(events *postgres.EventRepository) *EventHandler {
	return &EventHandler{events: events}
}

type CreateEventRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`

	RequiredPosts      int  `json:"required_posts"`
	RequiredSales      int  `json:"required_sales"`
	TotalRequiredPosts *int `json:"total_required_posts"`
	IsApproximate      bool `json:"is_approximate"`

	AcceptsPosts               *bool `json:"accepts_posts"`
	AcceptsSales               bool  `json:"accepts_sales"`
	AcceptsProfileVerification bool  `json:"accepts_profile_verification"`

	RequiresProfileShot    bool `json:"requires_profile_shot"`
	RequiresTicketingEmail bool `json:"requires_ticketing_email"`

	AllowedGenders []string `json:"allowed_genders"`
}

// CreateEvent handles POST /api/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request payload: "+err.Error())
		return
	}

	eventValidation := validation.EventValidation{}
	if err := eventValidation.ValidateEventName(req.Name); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		response.BadRequest(c, "invalid start_date format, expected YYYY-MM-DD")
		return
	}

	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		response.BadRequest(c, "invalid end_date format, expected YYYY-MM-DD")
		return
	}

	if err := validation.ValidateDateRange(startDate, endDate); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ev := event.NewEvent(req.Name, req.Description, startDate, endDate)
	ev.RequiredPosts = req.RequiredPosts
	ev.RequiredSales = req.RequiredSales
	ev.TotalRequiredPosts = req.TotalRequiredPosts
	ev.IsApproximate = req.IsApproximate
	if req.AcceptsPosts != nil {
		ev.AcceptsPosts = *req.AcceptsPosts
	}
	ev.AcceptsSales = req.AcceptsSales
	ev.AcceptsProfileVerification = req.AcceptsProfileVerification
	ev.RequiresProfileShot = req.RequiresProfileShot
	ev.RequiresTicketingEmail = req.RequiresTicketingEmail
	ev.AllowedGenders = req.AllowedGenders

	if err := ev.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.events.Create(ev); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "event created", ev)
}

// GetEvents handles GET /api/events
func (h *EventHandler) GetEvents(c *gin.Context) {
	events, err := h.events.GetAll()
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", events)
}

// GetEvent handles GET /api/events/:event_id
func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		response.BadRequest(c, "event_id must be a valid UUID")
		return
	}

	ev, err := h.events.GetByID(eventID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", ev)
}

type CreatePostRequest struct {
	Label    string    `json:"label" binding:"required"`
	Deadline time.Time `json:"deadline" binding:"required"`
}

// CreatePost handles POST /api/events/:event_id/posts
func (h *EventHandler) CreatePost(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		response.BadRequest(c, "event_id must be a valid UUID")
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request payload: "+err.Error())
		return
	}

	if _, err := h.events.GetByID(eventID); err != nil {
		response.FromError(c, err)
		return
	}

	post := event.NewPost(eventID, req.Label, req.Deadline)
	if err := h.events.CreatePost(post); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "post created", post)
}

// GetEventPosts handles GET /api/events/:event_id/posts
func (h *EventHandler) GetEventPosts(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		response.BadRequest(c, "event_id must be a valid UUID")
		return
	}

	posts, err := h.events.GetEventPosts(eventID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", posts)
}
