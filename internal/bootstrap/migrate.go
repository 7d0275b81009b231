package bootstrap

import (
	"fmt"
	"time"

	"expertsolve.com/hub/internal/model"
	"expertsolve.com/hub/pkg/logger"
	"gorm.io/gorm"
)

// SchemaMigration records one applied migration step.
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:100;not null"`
	AppliedAt time.Time `gorm:"not null"`
}

type migration struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
}

// Models lists every persisted type in dependency-agnostic order; gorm
// sorts them by foreign keys when migrating.
func Models() []any {
	return []any{
		&model.User{},
		&model.Category{},
		&model.UserExpertise{},
		&model.UserFollow{},
		&model.UserSession{},
		&model.Question{},
		&model.Answer{},
		&model.Challenge{},
		&model.ChallengeParticipant{},
		&model.Solution{},
		&model.AnswerRating{},
		&model.SolutionRating{},
		&model.ExpertRating{},
		&model.Notification{},
		&model.ActivityLog{},
	}
}

var migrations = []migration{
	{Version: 1, Name: "create_schema", Up: func(tx *gorm.DB) error {
		return tx.AutoMigrate(Models()...)
	}},
	{Version: 2, Name: "seed_categories", Up: seedCategories},
	{Version: 3, Name: "seed_subcategories", Up: seedSubcategories},
}

// Migrate applies pending steps in version order, each in its own
// transaction together with its schema_migrations row.
func Migrate(db *gorm.DB, log *logger.Logger) error {
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var applied []int
	if err := db.Model(&SchemaMigration{}).Pluck("version", &applied).Error; err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	for _, m := range migrations {
		if done[m.Version] {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{Version: m.Version, Name: m.Name, AppliedAt: time.Now()}).Error
		})
		if err != nil {
			return fmt.Errorf("apply migration %d_%s: %w", m.Version, m.Name, err)
		}
		log.Info("migration applied", "version", m.Version, "name", m.Name)
	}

	return nil
}
