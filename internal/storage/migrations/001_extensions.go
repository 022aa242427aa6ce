package migrations

import (
	"fmt"

	"gorm.io/gorm"
)

// migration001ExtensionsAndTypes enables the PostgreSQL extensions the
// schema depends on
func migration001ExtensionsAndTypes() Migration {
	return Migration{
		Version:     "001",
		Description: "Enable required PostgreSQL extensions",
		Up: func(tx *gorm.DB) error {
			if err := tx.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
				return fmt.Errorf("failed to create uuid-ossp extension: %w", err)
			}
			return nil
		},
		Down: func(tx *gorm.DB) error {
			// Extensions stay, other databases on the cluster may use them.
			return nil
		},
	}
}
