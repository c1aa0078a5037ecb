package repository

import (
	"context"

	"ddjj/internal/model"

	"gorm.io/gorm"
)

// RegistryRepository reads the taxpayer/trade facts owned by the registration
// workflow. ActivateTrade is the only write it exposes.
type RegistryRepository interface {
	FindTrade(ctx context.Context, id uint) (*model.Trade, error)
	FindTaxpayer(ctx context.Context, id uint) (*model.Taxpayer, error)
	ActivateTrade(ctx context.Context, id uint) (int64, error)
}

type registryRepository struct {
	db *gorm.DB
}

func NewRegistryRepository(db *gorm.DB) RegistryRepository {
	return &registryRepository{db: db}
}

func (r *registryRepository) FindTrade(ctx context.Context, id uint) (*model.Trade, error) {
	var trade model.Trade
	if err := GetDB(ctx, r.db).Preload("Taxpayer").First(&trade, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &trade, nil
}

func (r *registryRepository) FindTaxpayer(ctx context.Context, id uint) (*model.Taxpayer, error) {
	var taxpayer model.Taxpayer
	if err := GetDB(ctx, r.db).First(&taxpayer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &taxpayer, nil
}

func (r *registryRepository) ActivateTrade(ctx context.Context, id uint) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Trade{}).Where("id = ?", id).Update("active", true)
	return res.RowsAffected, res.Error
}
