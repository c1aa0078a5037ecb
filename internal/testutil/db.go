// Package testutil provides database fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"ddjj/internal/database"
	"ddjj/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with the full schema. A single
// connection keeps every goroutine on the same database and serializes writers.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// SeedConfiguration stores the default policy and returns it.
func SeedConfiguration(t *testing.T, db *gorm.DB) model.Configuration {
	t.Helper()
	cfg := model.DefaultConfiguration()
	require.NoError(t, db.WithContext(context.Background()).Create(&cfg).Error)
	return cfg
}

// SeedTrade creates a taxpayer with one trade and returns both.
func SeedTrade(t *testing.T, db *gorm.DB, cuit string, good, active bool) (model.Taxpayer, model.Trade) {
	t.Helper()
	taxpayer := model.Taxpayer{CUIT: cuit, BusinessName: "Comercio " + cuit, GoodTaxpayer: good, Active: true}
	require.NoError(t, db.Create(&taxpayer).Error)

	trade := model.Trade{TaxpayerID: taxpayer.ID, Code: "COM-" + cuit, Name: "Local " + cuit, Active: active}
	require.NoError(t, db.Create(&trade).Error)
	return taxpayer, trade
}
