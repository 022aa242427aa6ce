package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brandwave/ambassador-api/internal/domain/report"
	"github.com/brandwave/ambassador-api/internal/domain/review"
	"github.com/brandwave/ambassador-api/internal/domain/submission"
	"github.com/brandwave/ambassador-api/internal/logger"
	"github.com/brandwave/ambassador-api/internal/middleware/authn"
	"github.com/brandwave/ambassador-api/internal/response"
)

// ReviewHandler handles the review queue and status transitions
type ReviewHandler struct {
	transitions *review.TransitionService
	projector   *report.Projector
	log         *log.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(transitions *review.TransitionService, projector *report.Projector) *ReviewHandler {
	return &ReviewHandler{
		transitions: transitions,
		projector:   projector,
		log:         logger.Handler("review"),
	}
}

// Queue handles GET /api/review/queue. All filters are explicit query
// parameters.
func (h *ReviewHandler) Queue(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	rows, total, err := h.projector.QueuePage(filter)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", gin.H{
		"rows":  rows,
		"total": total,
	})
}

type TransitionRequest struct {
	Reason string `json:"reason"`
}

// Approve handles POST /api/submissions/:submission_id/approve
func (h *ReviewHandler) Approve(c *gin.Context) {
	h.transition(c, submission.StatusApproved)
}

// Reject handles POST /api/submissions/:submission_id/reject
func (h *ReviewHandler) Reject(c *gin.Context) {
	h.transition(c, submission.StatusRejected)
}

// Revert handles POST /api/submissions/:submission_id/revert
func (h *ReviewHandler) Revert(c *gin.Context) {
	h.transition(c, submission.StatusPending)
}

func (h *ReviewHandler) transition(c *gin.Context, target submission.Status) {
	actor, ok := authn.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		response.BadRequest(c, "submission_id must be a valid UUID")
		return
	}

	var req TransitionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request payload: "+err.Error())
			return
		}
	}

	if target == submission.StatusRejected && req.Reason == "" {
		response.BadRequest(c, "reason is required when rejecting")
		return
	}

	sub, err := h.transitions.Transition(actor, id, target, req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "submission "+string(target), sub)
}

type BulkTransitionRequest struct {
	SubmissionIDs []uuid.UUID `json:"submission_ids" binding:"required"`
	Target        string      `json:"target" binding:"required"`
	Reason        string      `json:"reason"`
}

// BulkTransition handles POST /api/review/bulk. The batch commits or
// fails as a whole.
func (h *ReviewHandler) BulkTransition(c *gin.Context) {
	actor, ok := authn.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req BulkTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request payload: "+err.Error())
		return
	}

	target, ok := submission.StatusFromString(req.Target)
	if !ok {
		response.BadRequest(c, "target must be one of pending, approved, rejected")
		return
	}

	if target == submission.StatusRejected && req.Reason == "" {
		response.BadRequest(c, "reason is required when rejecting")
		return
	}

	subs, err := h.transitions.BulkTransition(actor, req.SubmissionIDs, target, req.Reason)
	if err != nil {
		h.log.Warn("Bulk transition rolled back", "count", len(req.SubmissionIDs), "target", target, "error", err)
		response.FromError(c, err)
		return
	}

	h.log.Info("Bulk transition applied", "count", len(subs), "target", target, "actor_id", actor.ID)
	response.Success(c, http.StatusOK, "bulk transition applied", subs)
}

// Delete handles DELETE /api/submissions/:submission_id
func (h *ReviewHandler) Delete(c *gin.Context) {
	actor, ok := authn.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		response.BadRequest(c, "submission_id must be a valid UUID")
		return
	}

	if err := h.transitions.Delete(actor, id); err != nil {
		response.FromError(c, err)
		return
	}

	h.log.Info("Submission deleted", "submission_id", id, "actor_id", actor.ID)
	response.Success(c, http.StatusOK, "submission deleted", nil)
}

// History handles GET /api/submissions/:submission_id/history
func (h *ReviewHandler) History(c *gin.Context) {
	id, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		response.BadRequest(c, "submission_id must be a valid UUID")
		return
	}

	entries, err := h.transitions.History(id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", entries)
}

// filterFromQuery builds the report filter from query parameters
func filterFromQuery(c *gin.Context) (report.Filter, error) {
	var f report.Filter

	if value := c.Query("event_id"); value != "" {
		id, err := uuid.Parse(value)
		if err != nil {
			return f, &invalidFilterError{param: "event_id"}
		}
		f.EventID = &id
	}

	if value := c.Query("status"); value != "" {
		status, ok := submission.StatusFromString(value)
		if !ok {
			return f, &invalidFilterError{param: "status"}
		}
		f.Status = &status
	}

	if value := c.Query("kind"); value != "" {
		kind, ok := submission.KindFromString(value)
		if !ok {
			return f, &invalidFilterError{param: "kind"}
		}
		f.Kind = &kind
	}

	f.SubmitterQuery = c.Query("submitter")

	if value := c.Query("from"); value != "" {
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return f, &invalidFilterError{param: "from"}
		}
		f.From = &t
	}

	if value := c.Query("to"); value != "" {
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return f, &invalidFilterError{param: "to"}
		}
		f.To = &t
	}

	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	return f, nil
}

type invalidFilterError struct {
	param string
}

func (e *invalidFilterError) Error() string {
	return e.param + " has an invalid value"
}
