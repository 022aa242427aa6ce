package handlers

import (
	"encoding/csv"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brandwave/ambassador-api/internal/domain/report"
	"github.com/brandwave/ambassador-api/internal/response"
)

// exportColumns is the stable column order of the CSV export
var exportColumns = []string{
	"submission_id",
	"kind",
	"status",
	"rejection_reason",
	"event_name",
	"post_label",
	"submitter_name",
	"submitter_handle",
	"submitter_contact",
	"submitted_at",
	"approved_posts",
	"approved_sales",
	"goal_label",
	"participation",
}

// ReportHandler handles per-event exports
type ReportHandler struct {
	projector *report.Projector
}

// NewReportHandler creates a new report handler
func NewReportHandler(projector *report.Projector) *ReportHandler {
	return &ReportHandler{projector: projector}
}

// Export handles GET /api/events/:event_id/export. The same filters as
// the review queue apply, the event is always taken from the path.
func (h *ReportHandler) Export(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		response.BadRequest(c, "event_id must be a valid UUID")
		return
	}

	filter, err := filterFromQuery(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	rows, err := h.projector.Export(eventID, filter)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="submissions-`+eventID.String()+`.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(exportColumns)

	for _, row := range rows {
		fields := row.Fields()
		record := make([]string, 0, len(exportColumns))
		for _, col := range exportColumns {
			record = append(record, fields[col])
		}
		_ = w.Write(record)
	}

	w.Flush()
}
