package database

import (
	"fmt"

	"ddjj/internal/model"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewConnection initializes a new connection pool using GORM and migrates the schema.
func NewConnection(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	log.Info().Msg("database schema up to date")

	return db, nil
}

// Migrate creates or updates every table the service owns, including the
// unique indexes the filing and rectification invariants rely on.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Configuration{},
		&model.Taxpayer{},
		&model.Trade{},
		&model.Filing{},
		&model.Rectification{},
		&model.Notification{},
		&model.AuditLog{},
	)
}
