package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandwave/ambassador-api/internal/domain/progress"
	"github.com/brandwave/ambassador-api/internal/domain/report"
	"github.com/brandwave/ambassador-api/internal/domain/submission"
	"github.com/brandwave/ambassador-api/internal/logger"
)

// ReportRepository implements the reporting read model with a single
// join over submissions, users, events, posts and participations
type ReportRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewReportRepository creates a new PostgreSQL report repository
func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{
		db:  db,
		log: logger.Repository("report"),
	}
}

// joinedRow is the flat scan target of the report join
type joinedRow struct {
	ID               uuid.UUID
	EventID          uuid.UUID
	SubmitterID      uuid.UUID
	PostID           *uuid.UUID
	Kind             submission.Kind
	Status           submission.Status
	ArtifactKey      string
	RejectionReason  string
	SubmittedAt      time.Time
	DecidedAt        *time.Time
	SubmitterName    string
	SubmitterHandle  string
	SubmitterContact string
	EventName        string
	RequiredPosts    int
	RequiredSales    int
	PostLabel        *string

	PartID          *uuid.UUID
	CurrentPosts    *int
	CurrentSales    *int
	GoalAchieved    *bool
	ManualOverride  *bool
	OverrideReason  *string
	PartStatus      *string
	WithdrawnReason *string
	WithdrawnAt     *time.Time
}

const reportSelect = `
	submissions.id AS id,
	submissions.event_id AS event_id,
	submissions.submitter_id AS submitter_id,
	submissions.post_id AS post_id,
	submissions.kind AS kind,
	submissions.status AS status,
	submissions.artifact_key AS artifact_key,
	submissions.rejection_reason AS rejection_reason,
	submissions.submitted_at AS submitted_at,
	submissions.decided_at AS decided_at,
	users.name AS submitter_name,
	users.handle AS submitter_handle,
	users.contact AS submitter_contact,
	events.name AS event_name,
	events.required_posts AS required_posts,
	events.required_sales AS required_sales,
	posts.label AS post_label,
	participations.id AS part_id,
	participations.current_posts AS current_posts,
	participations.current_sales AS current_sales,
	participations.goal_achieved AS goal_achieved,
	participations.manual_override AS manual_override,
	participations.override_reason AS override_reason,
	participations.status AS part_status,
	participations.withdrawn_reason AS withdrawn_reason,
	participations.withdrawn_at AS withdrawn_at`

// Find returns the page of records matching the filter plus the total count
func (r *ReportRepository) Find(f report.Filter) ([]report.Record, int64, error) {
	r.log.Debug("Querying report records", "page", f.Page, "page_size", f.PageSize)

	base := r.filtered(f)

	var total int64
	if err := base.Session(&gorm.Session{}).Distinct("submissions.id").Count(&total).Error; err != nil {
		r.log.Error("Failed to count report records", "error", err)
		return nil, 0, fmt.Errorf("failed to count report records: %w", err)
	}

	var rows []joinedRow
	err := base.Select(reportSelect).
		Order("submissions.submitted_at DESC").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Scan(&rows).Error
	if err != nil {
		r.log.Error("Failed to query report records", "error", err)
		return nil, 0, fmt.Errorf("failed to query report records: %w", err)
	}

	records := make([]report.Record, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].toRecord())
	}

	return records, total, nil
}

// FindAll returns every record matching the filter, unpaginated, for exports
func (r *ReportRepository) FindAll(f report.Filter) ([]report.Record, error) {
	r.log.Debug("Querying report records for export")

	var rows []joinedRow
	err := r.filtered(f).Select(reportSelect).
		Order("submissions.submitted_at DESC").
		Scan(&rows).Error
	if err != nil {
		r.log.Error("Failed to query report export", "error", err)
		return nil, fmt.Errorf("failed to query report export: %w", err)
	}

	records := make([]report.Record, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].toRecord())
	}

	return records, nil
}

func (r *ReportRepository) filtered(f report.Filter) *gorm.DB {
	q := r.db.Model(&submission.Submission{}).
		Joins("JOIN users ON users.id = submissions.submitter_id").
		Joins("JOIN events ON events.id = submissions.event_id").
		Joins("LEFT JOIN posts ON posts.id = submissions.post_id").
		Joins("LEFT JOIN participations ON participations.user_id = submissions.submitter_id AND participations.event_id = submissions.event_id")

	if f.EventID != nil {
		q = q.Where("submissions.event_id = ?", *f.EventID)
	}
	if f.Status != nil {
		q = q.Where("submissions.status = ?", *f.Status)
	}
	if f.Kind != nil {
		q = q.Where("submissions.kind = ?", *f.Kind)
	}
	if f.SubmitterQuery != "" {
		needle := "%" + strings.ToLower(f.SubmitterQuery) + "%"
		q = q.Where("LOWER(users.name) LIKE ? OR LOWER(users.handle) LIKE ?", needle, needle)
	}
	if f.From != nil {
		q = q.Where("submissions.submitted_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("submissions.submitted_at < ?", *f.To)
	}

	return q
}

func (row *joinedRow) toRecord() report.Record {
	rec := report.Record{
		Submission: submission.Submission{
			ID:              row.ID,
			EventID:         row.EventID,
			SubmitterID:     row.SubmitterID,
			PostID:          row.PostID,
			Kind:            row.Kind,
			Status:          row.Status,
			ArtifactKey:     row.ArtifactKey,
			RejectionReason: row.RejectionReason,
			SubmittedAt:     row.SubmittedAt,
			DecidedAt:       row.DecidedAt,
		},
		SubmitterName:    row.SubmitterName,
		SubmitterHandle:  row.SubmitterHandle,
		SubmitterContact: row.SubmitterContact,
		EventName:        row.EventName,
		HasAutomaticGoal: row.RequiredPosts > 0 || row.RequiredSales > 0,
	}

	if row.PostLabel != nil {
		rec.PostLabel = *row.PostLabel
	}

	if row.PartID != nil {
		p := &progress.Participation{
			ID:          *row.PartID,
			UserID:      row.SubmitterID,
			EventID:     row.EventID,
			Status:      progress.ParticipationActive,
			WithdrawnAt: row.WithdrawnAt,
		}
		if row.CurrentPosts != nil {
			p.CurrentPosts = *row.CurrentPosts
		}
		if row.CurrentSales != nil {
			p.CurrentSales = *row.CurrentSales
		}
		if row.GoalAchieved != nil {
			p.GoalAchieved = *row.GoalAchieved
		}
		if row.ManualOverride != nil {
			p.ManualOverride = *row.ManualOverride
		}
		if row.OverrideReason != nil {
			p.OverrideReason = *row.OverrideReason
		}
		if row.PartStatus != nil {
			p.Status = progress.ParticipationStatus(*row.PartStatus)
		}
		if row.WithdrawnReason != nil {
			p.WithdrawnReason = *row.WithdrawnReason
		}
		rec.Participation = p
	}

	return rec
}
