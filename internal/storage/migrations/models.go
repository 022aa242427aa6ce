package migrations

import (
	"github.com/brandwave/ambassador-api/internal/domain/event"
	"github.com/brandwave/ambassador-api/internal/domain/participant"
	"github.com/brandwave/ambassador-api/internal/domain/progress"
	"github.com/brandwave/ambassador-api/internal/domain/review"
	"github.com/brandwave/ambassador-api/internal/domain/submission"
)

// AllModels returns every model managed by the schema migrations,
// ordered so foreign key targets are created first
func AllModels() []interface{} {
	return []interface{}{
		&participant.User{},
		&event.Event{},
		&event.Post{},
		&submission.Submission{},
		&progress.Participation{},
		&review.AuditEntry{},
	}
}
