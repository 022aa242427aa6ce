package migrations

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// rateCounter mirrors postgres.RateCounter for schema creation only
type rateCounter struct {
	SubjectID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Action      string    `gorm:"primaryKey"`
	WindowStart time.Time `gorm:"primaryKey"`
	Count       int       `gorm:"not null;default:0"`
}

func (rateCounter) TableName() string {
	return "rate_counters"
}

// migration004AuditAndCounters creates the rate counter table and the
// value constraints on status columns
func migration004AuditAndCounters() Migration {
	return Migration{
		Version:     "004",
		Description: "Create rate counters and status value constraints",
		Up: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&rateCounter{}); err != nil {
				return fmt.Errorf("failed to create rate counter table: %w", err)
			}

			statements := []string{
				`ALTER TABLE submissions
				 ADD CONSTRAINT chk_submissions_status
				 CHECK (status IN ('pending', 'approved', 'rejected'))`,
				`ALTER TABLE submissions
				 ADD CONSTRAINT chk_submissions_kind
				 CHECK (kind IN ('content_post', 'sale_receipt', 'profile_verification'))`,
				`ALTER TABLE participations
				 ADD CONSTRAINT chk_participations_status
				 CHECK (status IN ('active', 'withdrawn'))`,
				`ALTER TABLE participations
				 ADD CONSTRAINT chk_participations_counters
				 CHECK (current_posts >= 0 AND current_sales >= 0)`,
				`ALTER TABLE rate_counters
				 ADD CONSTRAINT chk_rate_counters_count
				 CHECK (count >= 0)`,
			}

			for _, stmt := range statements {
				if err := tx.Exec(stmt).Error; err != nil {
					return fmt.Errorf("failed to add constraint: %w", err)
				}
			}
			return nil
		},
		Down: func(tx *gorm.DB) error {
			statements := []string{
				`ALTER TABLE submissions DROP CONSTRAINT IF EXISTS chk_submissions_status`,
				`ALTER TABLE submissions DROP CONSTRAINT IF EXISTS chk_submissions_kind`,
				`ALTER TABLE participations DROP CONSTRAINT IF EXISTS chk_participations_status`,
				`ALTER TABLE participations DROP CONSTRAINT IF EXISTS chk_participations_counters`,
				`ALTER TABLE rate_counters DROP CONSTRAINT IF EXISTS chk_rate_counters_count`,
			}
			for _, stmt := range statements {
				if err := tx.Exec(stmt).Error; err != nil {
					return fmt.Errorf("failed to drop constraint: %w", err)
				}
			}

			if err := tx.Migrator().DropTable("rate_counters"); err != nil {
				return fmt.Errorf("failed to drop rate counter table: %w", err)
			}
			return nil
		},
	}
}
