package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brandwave/ambassador-api/internal/domain/progress"
	"github.com/brandwave/ambassador-api/internal/middleware/authn"
	"github.com/brandwave/ambassador-api/internal/response"
	"github.com/brandwave/ambassador-api/internal/storage/postgres"
)

// ParticipationHandler handles withdrawal, reactivation and goal overrides
type ParticipationHandler struct {
	participations *progress.ParticipationService
	reconciler     *progress.Reconciler
	store          *postgres.ParticipationRepository
}

// NewParticipationHandler creates a new participation handler
func NewParticipationHandler(
	participations *progress.ParticipationService,
	reconciler *progress.Reconciler,
	store *postgres.ParticipationRepository,
) *ParticipationHandler {
	return &ParticipationHandler{
		participations: participations,
		reconciler:     reconciler,
		store:          store,
	}
}

// GetParticipation handles GET /api/events/:event_id/participants/:user_id
func (h *ParticipationHandler) GetParticipation(c *gin.Context) {
	userID, eventID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	p, err := h.store.GetFor(userID, eventID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", p)
}

type ParticipationStatusRequest struct {
	Reason string `json:"reason"`
}

// Withdraw handles POST /api/events/:event_id/participants/:user_id/withdraw
func (h *ParticipationHandler) Withdraw(c *gin.Context) {
	h.setStatus(c, progress.ParticipationWithdrawn)
}

// Reactivate handles POST /api/events/:event_id/participants/:user_id/reactivate
func (h *ParticipationHandler) Reactivate(c *gin.Context) {
	h.setStatus(c, progress.ParticipationActive)
}

func (h *ParticipationHandler) setStatus(c *gin.Context, status progress.ParticipationStatus) {
	actor, ok := authn.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	userID, eventID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	var req ParticipationStatusRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request payload: "+err.Error())
			return
		}
	}

	p, err := h.participations.SetStatus(actor, userID, eventID, status, req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "participation "+string(status), p)
}

type OverrideRequest struct {
	Override bool   `json:"override"`
	Reason   string `json:"reason"`
}

// SetOverride handles PUT /api/events/:event_id/participants/:user_id/override
func (h *ParticipationHandler) SetOverride(c *gin.Context) {
	actor, ok := authn.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	userID, eventID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request payload: "+err.Error())
		return
	}

	if err := h.reconciler.SetManualOverride(actor, userID, eventID, req.Override, req.Reason); err != nil {
		response.FromError(c, err)
		return
	}

	p, err := h.store.GetFor(userID, eventID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "override updated", p)
}

// Reconcile handles POST /api/events/:event_id/participants/:user_id/reconcile.
// Reconciliation is idempotent, so an explicit trigger is safe at any time.
func (h *ParticipationHandler) Reconcile(c *gin.Context) {
	userID, eventID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	if err := h.reconciler.Reconcile(userID, eventID); err != nil {
		response.FromError(c, err)
		return
	}

	p, err := h.store.GetFor(userID, eventID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "progress reconciled", p)
}

func (h *ParticipationHandler) pathIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		response.BadRequest(c, "event_id must be a valid UUID")
		return uuid.Nil, uuid.Nil, false
	}

	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.BadRequest(c, "user_id must be a valid UUID")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, eventID, true
}
