package migrations

import (
	"fmt"

	"gorm.io/gorm"
)

// migration002CoreTables creates the core schema from the domain models
func migration002CoreTables() Migration {
	return Migration{
		Version:     "002",
		Description: "Create users, events, posts, submissions, participations and audit tables",
		Up: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(AllModels()...); err != nil {
				return fmt.Errorf("failed to create core tables: %w", err)
			}
			return nil
		},
		Down: func(tx *gorm.DB) error {
			tables := []string{
				"audit_entries",
				"participations",
				"submissions",
				"posts",
				"events",
				"users",
			}
			for _, table := range tables {
				if err := tx.Migrator().DropTable(table); err != nil {
					return fmt.Errorf("failed to drop table %s: %w", table, err)
				}
			}
			return nil
		},
	}
}
