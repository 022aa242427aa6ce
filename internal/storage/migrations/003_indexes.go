package migrations

import (
	"fmt"

	"gorm.io/gorm"
)

// migration003Indexes adds the indexes the query paths depend on. The
// partial unique index on (submitter_id, post_id) is the storage-level
// guarantee that at most one non-rejected submission occupies a post
// slot, whatever the application layer races into.
func migration003Indexes() Migration {
	return Migration{
		Version:     "003",
		Description: "Add slot uniqueness and query indexes",
		Up: func(tx *gorm.DB) error {
			statements := []string{
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_submissions_occupied_slot
				 ON submissions (submitter_id, post_id)
				 WHERE status <> 'rejected' AND post_id IS NOT NULL`,
				`CREATE INDEX IF NOT EXISTS idx_submissions_progress
				 ON submissions (submitter_id, event_id, kind, status)`,
				`CREATE INDEX IF NOT EXISTS idx_submissions_event_status
				 ON submissions (event_id, status)`,
				`CREATE INDEX IF NOT EXISTS idx_posts_event
				 ON posts (event_id)`,
			}

			for _, stmt := range statements {
				if err := tx.Exec(stmt).Error; err != nil {
					return fmt.Errorf("failed to create index: %w", err)
				}
			}
			return nil
		},
		Down: func(tx *gorm.DB) error {
			indexes := []string{
				"idx_submissions_occupied_slot",
				"idx_submissions_progress",
				"idx_submissions_event_status",
				"idx_posts_event",
			}
			for _, name := range indexes {
				if err := tx.Exec(fmt.Sprintf("DROP INDEX IF EXISTS %s", name)).Error; err != nil {
					return fmt.Errorf("failed to drop index %s: %w", name, err)
				}
			}
			return nil
		},
	}
}
