package postgres

import (
	"gorm.io/gorm"

	"github.com/brandwave/ambassador-api/internal/domain/review"
)

// Container bundles all PostgreSQL repositories sharing one connection.
// It satisfies review.Store, so the transition manager can run a status
// change and its audit entry against a single transaction.
type Container struct {
	db *gorm.DB

	submissions    *SubmissionRepository
	events         *EventRepository
	users          *UserRepository
	participations *ParticipationRepository
	audit          *AuditRepository
	rateLimits     *RateLimitRepository
	reports        *ReportRepository
}

// NewContainer creates a repository container over a database connection
func NewContainer(db *gorm.DB) *Container {
	return &Container{
		db:             db,
		submissions:    NewSubmissionRepository(db),
		events:         NewEventRepository(db),
		users:          NewUserRepository(db),
		participations: NewParticipationRepository(db),
		audit:          NewAuditRepository(db),
		rateLimits:     NewRateLimitRepository(db),
		reports:        NewReportRepository(db),
	}
}

// Submissions returns the submission repository
func (c *Container) Submissions() review.SubmissionStore {
	return c.submissions
}

// SubmissionRepo returns the submission repository with its full surface
func (c *Container) SubmissionRepo() *SubmissionRepository {
	return c.submissions
}

// Events returns the event repository
func (c *Container) Events() *EventRepository {
	return c.events
}

// Users returns the user repository
func (c *Container) Users() *UserRepository {
	return c.users
}

// Participations returns the participation repository
func (c *Container) Participations() *ParticipationRepository {
	return c.participations
}

// Audit returns the audit log repository
func (c *Container) Audit() review.AuditLog {
	return c.audit
}

// RateLimits returns the rate limit repository
func (c *Container) RateLimits() *RateLimitRepository {
	return c.rateLimits
}

// Reports returns the reporting read model
func (c *Container) Reports() *ReportRepository {
	return c.reports
}

// InTransaction runs fn against a container bound to one database
// transaction. All repository writes inside fn commit or roll back
// together.
func (c *Container) InTransaction(fn func(review.Store) error) error {
	return c.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewContainer(tx))
	})
}

// DB exposes the underlying connection for health checks
func (c *Container) DB() *gorm.DB {
	return c.db
}
