package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brandwave/ambassador-api/internal/logger"
)

// RateCounter tracks accepted actions per subject within a fixed window
type RateCounter struct {
	SubjectID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"subject_id"`
	Action      string    `gorm:"primaryKey" json:"action"`
	WindowStart time.Time `gorm:"primaryKey" json:"window_start"`
	Count       int       `gorm:"not null;default:0" json:"count"`
}

// TableName overrides the table name
func (RateCounter) TableName() string {
	return "rate_counters"
}

// RateLimitRepository implements fixed-window rate counting on the
// database. The counter increment is a single atomic upsert, so
// concurrent submissions never race past the ceiling.
type RateLimitRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewRateLimitRepository creates a new PostgreSQL rate limit repository
func NewRateLimitRepository(db *gorm.DB) *RateLimitRepository {
	return &RateLimitRepository{
		db:  db,
		log: logger.Repository("ratelimit"),
	}
}

// Acquire increments the counter for the window and returns the new count
func (r *RateLimitRepository) Acquire(ctx context.Context, subjectID uuid.UUID, action string, windowStart time.Time) (int, error) {
	r.log.Debug("Acquiring rate limit slot", "subject_id", subjectID, "action", action, "window_start", windowStart)

	var count int
	err := r.db.WithContext(ctx).Raw(
		`INSERT INTO rate_counters (subject_id, action, window_start, count)
		 VALUES (?, ?, ?, 1)
		 ON CONFLICT (subject_id, action, window_start)
		 DO UPDATE SET count = rate_counters.count + 1
		 RETURNING count`,
		subjectID, action, windowStart,
	).Scan(&count).Error
	if err != nil {
		r.log.Error("Failed to acquire rate limit slot", "subject_id", subjectID, "error", err)
		return 0, fmt.Errorf("failed to acquire rate limit slot: %w", err)
	}

	return count, nil
}

// Release gives back a slot that was acquired but not used, so rejected
// intake attempts do not count against the ceiling
func (r *RateLimitRepository) Release(ctx context.Context, subjectID uuid.UUID, action string, windowStart time.Time) error {
	r.log.Debug("Releasing rate limit slot", "subject_id", subjectID, "action", action, "window_start", windowStart)

	err := r.db.WithContext(ctx).Exec(
		`UPDATE rate_counters
		 SET count = count - 1
		 WHERE subject_id = ? AND action = ? AND window_start = ? AND count > 0`,
		subjectID, action, windowStart,
	).Error
	if err != nil {
		r.log.Error("Failed to release rate limit slot", "subject_id", subjectID, "error", err)
		return fmt.Errorf("failed to release rate limit slot: %w", err)
	}

	return nil
}

// PurgeBefore removes counters for windows that ended before the cutoff
func (r *RateLimitRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("window_start < ?", cutoff).Delete(&RateCounter{})
	if result.Error != nil {
		r.log.Error("Failed to purge rate counters", "error", result.Error)
		return 0, fmt.Errorf("failed to purge rate counters: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		r.log.Info("Purged expired rate counters", "removed", result.RowsAffected, "cutoff", cutoff)
	}
	return result.RowsAffected, nil
}
