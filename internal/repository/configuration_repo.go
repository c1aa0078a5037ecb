package repository

import (
	"context"

	"ddjj/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConfigurationRepository interface {
	Get(ctx context.Context) (*model.Configuration, error)
	Save(ctx context.Context, cfg *model.Configuration) error
	SeedDefault(ctx context.Context) (bool, error)
}

type configurationRepository struct {
	db *gorm.DB
}

func NewConfigurationRepository(db *gorm.DB) ConfigurationRepository {
	return &configurationRepository{db: db}
}

func (r *configurationRepository) Get(ctx context.Context) (*model.Configuration, error) {
	var cfg model.Configuration
	if err := GetDB(ctx, r.db).First(&cfg, "id = ?", model.ConfigurationID).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save always writes the singleton row, whatever ID the caller passed.
func (r *configurationRepository) Save(ctx context.Context, cfg *model.Configuration) error {
	cfg.ID = model.ConfigurationID
	return GetDB(ctx, r.db).Save(cfg).Error
}

// SeedDefault inserts the default policy when no row exists yet and reports
// whether it did.
func (r *configurationRepository) SeedDefault(ctx context.Context) (bool, error) {
	cfg := model.DefaultConfiguration()
	res := GetDB(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&cfg)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
