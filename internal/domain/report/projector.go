package report

import (
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/brandwave/ambassador-api/internal/domain/progress"
	"github.com/brandwave/ambassador-api/internal/domain/submission"
	"github.com/brandwave/ambassador-api/internal/logger"
)

// Filter is the explicit query parameter object for review queues and
// exports. It is passed in by the caller on every request; nothing in
// the projector depends on ambient state.
type Filter struct {
	EventID        *uuid.UUID
	Status         *submission.Status
	Kind           *submission.Kind
	SubmitterQuery string
	From           *time.Time
	To             *time.Time

	Page     int
	PageSize int
}

// Record is one joined result from the source: a submission plus the
// submitter identity and, when it exists, the participation state.
type Record struct {
	Submission submission.Submission

	SubmitterName    string
	SubmitterHandle  string
	SubmitterContact string

	EventName        string
	HasAutomaticGoal bool
	PostLabel        string

	// Nil when the user has submissions but no participation record
	// yet; the projector treats that as default active, zero progress.
	Participation *progress.Participation
}

// Source executes the join against the store. Find returns one page
// plus the total match count; FindAll returns every match for export.
type Source interface {
	Find(f Filter) ([]Record, int64, error)
	FindAll(f Filter) ([]Record, error)
}

// Row is the denormalized, flat output consumed by the review queue
// and the export renderer.
type Row struct {
	SubmissionID    uuid.UUID         `json:"submission_id"`
	Kind            submission.Kind   `json:"kind"`
	Status          submission.Status `json:"status"`
	RejectionReason string            `json:"rejection_reason,omitempty"`

	EventName string `json:"event_name"`
	PostLabel string `json:"post_label,omitempty"`

	SubmitterName    string `json:"submitter_name"`
	SubmitterHandle  string `json:"submitter_handle"`
	SubmitterContact string `json:"submitter_contact"`

	SubmittedAt time.Time `json:"submitted_at"`

	ApprovedPosts int    `json:"approved_posts"`
	ApprovedSales int    `json:"approved_sales"`
	GoalLabel     string `json:"goal_label"`
	Participation string `json:"participation"`
}

// Fields exposes the row as a named flat mapping so an export renderer
// can select an arbitrary subset of columns without the core knowing
// the output format.
func (r Row) Fields() map[string]string {
	return map[string]string{
		"submission_id":     r.SubmissionID.String(),
		"kind":              string(r.Kind),
		"status":            string(r.Status),
		"rejection_reason":  r.RejectionReason,
		"event_name":        r.EventName,
		"post_label":        r.PostLabel,
		"submitter_name":    r.SubmitterName,
		"submitter_handle":  r.SubmitterHandle,
		"submitter_contact": r.SubmitterContact,
		"submitted_at":      r.SubmittedAt.Format(time.RFC3339),
		"approved_posts":    strconv.Itoa(r.ApprovedPosts),
		"approved_sales":    strconv.Itoa(r.ApprovedSales),
		"goal_label":        r.GoalLabel,
		"participation":     r.Participation,
	}
}

// Projector joins submissions, submitter identity and participation
// state into denormalized rows. It never mutates any state.
type Projector struct {
	source Source
	log    *log.Logger
}

// NewProjector creates the reporting projector
func NewProjector(source Source) *Projector {
	return &Projector{
		source: source,
		log:    logger.Service("report"),
	}
}

// QueuePage returns one page of rows plus the total match count for
// pagination.
func (p *Projector) QueuePage(f Filter) ([]Row, int64, error) {
	f = normalize(f)

	records, total, err := p.source.Find(f)
	if err != nil {
		return nil, 0, err
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, toRow(rec))
	}

	p.log.Debug("queue page projected", "rows", len(rows), "total", total, "page", f.Page, "page_size", f.PageSize)
	return rows, total, nil
}

// Export returns every matching row for a single event, honoring the
// same filters as the queue.
func (p *Projector) Export(eventID uuid.UUID, f Filter) ([]Row, error) {
	f.EventID = &eventID

	records, err := p.source.FindAll(f)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, toRow(rec))
	}

	p.log.Debug("export projected", "event_id", eventID, "rows", len(rows))
	return rows, nil
}

// toRow denormalizes one record, defaulting a missing participation
// record to active, zero progress, not achieved.
func toRow(rec Record) Row {
	row := Row{
		SubmissionID:     rec.Submission.ID,
		Kind:             rec.Submission.Kind,
		Status:           rec.Submission.Status,
		RejectionReason:  rec.Submission.RejectionReason,
		EventName:        rec.EventName,
		PostLabel:        rec.PostLabel,
		SubmitterName:    rec.SubmitterName,
		SubmitterHandle:  rec.SubmitterHandle,
		SubmitterContact: rec.SubmitterContact,
		SubmittedAt:      rec.Submission.SubmittedAt,
		Participation:    string(progress.ParticipationActive),
		GoalLabel:        goalLabel(rec.HasAutomaticGoal, false, false),
	}

	if p := rec.Participation; p != nil {
		row.ApprovedPosts = p.CurrentPosts
		row.ApprovedSales = p.CurrentSales
		row.Participation = string(p.Status)
		row.GoalLabel = goalLabel(rec.HasAutomaticGoal, p.GoalAchieved, p.ManualOverride)
	}

	return row
}

// goalLabel distinguishes manual-review participants from those with
// an automatic goal still pending.
func goalLabel(hasAutomaticGoal, achieved, override bool) string {
	switch {
	case override:
		return "achieved (override)"
	case achieved:
		return "achieved"
	case !hasAutomaticGoal:
		return "manual review"
	default:
		return "pending"
	}
}

func normalize(f Filter) Filter {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
	return f
}
