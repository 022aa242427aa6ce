package migrations

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/brandwave/ambassador-api/internal/logger"
)

// Migration represents a single database migration
type Migration struct {
	Version     string
	Description string
	Up          func(*gorm.DB) error
	Down        func(*gorm.DB) error
}

// MigrationRecord tracks applied migrations in the database
type MigrationRecord struct {
	Version   string    `gorm:"primaryKey"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the table name
func (MigrationRecord) TableName() string {
	return "schema_migrations"
}

// allMigrations returns migrations in execution order
func allMigrations() []Migration {
	return []Migration{
		migration001ExtensionsAndTypes(),
		migration002CoreTables(),
		migration003Indexes(),
		migration004AuditAndCounters(),
	}
}

// RunMigrations applies all pending migrations in order
func RunMigrations(db *gorm.DB) error {
	log := logger.Migration()

	if err := db.AutoMigrate(&MigrationRecord{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	for _, m := range allMigrations() {
		if applied[m.Version] {
			log.Debug("Migration already applied", "version", m.Version)
			continue
		}

		log.Info("Applying migration", "version", m.Version, "description", m.Description)
		start := time.Now()

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&MigrationRecord{Version: m.Version}).Error
		})
		if err != nil {
			log.Error("Migration failed", "version", m.Version, "error", err)
			return fmt.Errorf("migration %s failed: %w", m.Version, err)
		}

		log.Info("Migration applied", "version", m.Version, "duration", time.Since(start))
	}

	return nil
}

// RollbackMigration reverts the most recently applied migration
func RollbackMigration(db *gorm.DB) error {
	log := logger.Migration()

	var record MigrationRecord
	err := db.Order("applied_at DESC").First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			log.Info("No migrations to roll back")
			return nil
		}
		return fmt.Errorf("failed to find last migration: %w", err)
	}

	var target *Migration
	for _, m := range allMigrations() {
		if m.Version == record.Version {
			mCopy := m
			target = &mCopy
			break
		}
	}
	if target == nil {
		return fmt.Errorf("unknown migration version %s", record.Version)
	}

	log.Info("Rolling back migration", "version", target.Version, "description", target.Description)

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := target.Down(tx); err != nil {
			return err
		}
		return tx.Delete(&MigrationRecord{Version: target.Version}).Error
	})
	if err != nil {
		log.Error("Rollback failed", "version", target.Version, "error", err)
		return fmt.Errorf("rollback of %s failed: %w", target.Version, err)
	}

	log.Info("Migration rolled back", "version", target.Version)
	return nil
}

func appliedVersions(db *gorm.DB) (map[string]bool, error) {
	var records []MigrationRecord
	if err := db.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load applied migrations: %w", err)
	}

	applied := make(map[string]bool, len(records))
	for _, r := range records {
		applied[r.Version] = true
	}
	return applied, nil
}
