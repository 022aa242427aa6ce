package handlers

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brandwave/ambassador-api/internal/domain/submission"
	"github.com/brandwave/ambassador-api/internal/logger"
	"github.com/brandwave/ambassador-api/internal/middleware/authn"
	"github.com/brandwave/ambassador-api/internal/response"
	"github.com/brandwave/ambassador-api/internal/storage/postgres"
)

// SubmissionHandler handles proof artifact intake
type SubmissionHandler struct {
	intake      *submission.IntakeService
	submissions *postgres.SubmissionRepository
	maxFileSize int64
	log         *log.Logger
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(intake *submission.IntakeService, submissions *postgres.SubmissionRepository, maxFileSize int64) *SubmissionHandler {
	return &SubmissionHandler{
		intake:      intake,
		submissions: submissions,
		maxFileSize: maxFileSize,
		log:         logger.Handler("submission"),
	}
}

// Submit handles POST /api/events/:event_id/submissions. The body is
// multipart form data carrying the artifact file(s) plus the kind
// specific fields.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	actor, ok := authn.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		response.BadRequest(c, "event_id must be a valid UUID")
		return
	}

	kind, ok := submission.KindFromString(c.PostForm("kind"))
	if !ok {
		response.BadRequest(c, "kind must be one of content_post, sale_receipt, profile_verification")
		return
	}

	req := submission.SubmitRequest{
		SubmitterID:     actor.ID,
		EventID:         eventID,
		Kind:            kind,
		FollowerBracket: c.PostForm("follower_bracket"),
		TicketingEmail:  c.PostForm("ticketing_email"),
	}

	if postIDValue := c.PostForm("post_id"); postIDValue != "" {
		postID, err := uuid.Parse(postIDValue)
		if err != nil {
			response.BadRequest(c, "post_id must be a valid UUID")
			return
		}
		req.PostID = &postID
	}

	artifact, closeArtifact, err := h.formUpload(c, "artifact")
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if closeArtifact != nil {
		defer closeArtifact()
	}
	req.Artifact = artifact

	profileArtifact, closeProfile, err := h.formUpload(c, "profile_artifact")
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if closeProfile != nil {
		defer closeProfile()
	}
	req.ProfileArtifact = profileArtifact

	sub, err := h.intake.Submit(c.Request.Context(), req)
	if err != nil {
		h.log.Debug("Submission rejected at intake", "event_id", eventID, "submitter_id", actor.ID, "kind", kind, "error", err)
		response.FromError(c, err)
		return
	}

	h.log.Info("Submission received", "submission_id", sub.ID, "event_id", eventID, "kind", kind)
	response.Success(c, http.StatusCreated, "submission received", sub)
}

// GetSubmission handles GET /api/submissions/:submission_id
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		response.BadRequest(c, "submission_id must be a valid UUID")
		return
	}

	sub, err := h.submissions.GetByID(id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", sub)
}

// formUpload opens an optional multipart file field. A missing field
// returns nil, presence of each file is enforced by the intake checks.
func (h *SubmissionHandler) formUpload(c *gin.Context, field string) (*submission.ArtifactUpload, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	if header.Size > h.maxFileSize {
		return nil, nil, &fileTooLargeError{field: field, max: h.maxFileSize}
	}

	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}

	upload := &submission.ArtifactUpload{
		Reader:      file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Filename:    header.Filename,
	}
	return upload, func() { _ = file.Close() }, nil
}

type fileTooLargeError struct {
	field string
	max   int64
}

func (e *fileTooLargeError) Error() string {
	return e.field + " exceeds the maximum allowed file size"
}
