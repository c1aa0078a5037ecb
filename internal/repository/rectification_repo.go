package repository

import (
	"context"

	"ddjj/internal/model"
	"ddjj/internal/period"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RectificationRepository interface {
	NextSequenceNumber(ctx context.Context, key model.FilingKey) (int, error)
	Create(ctx context.Context, rectification *model.Rectification) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Rectification, error)
	ListByFiling(ctx context.Context, filingID uuid.UUID) ([]model.Rectification, error)
	MarkTransmitted(ctx context.Context, id uuid.UUID) (int64, error)
}

type rectificationRepository struct {
	db *gorm.DB
}

func NewRectificationRepository(db *gorm.DB) RectificationRepository {
	return &rectificationRepository{db: db}
}

// NextSequenceNumber returns max(sequence_number)+1 for the filing, or 1. It is
// only race free inside a transaction holding the filing row lock.
func (r *rectificationRepository) NextSequenceNumber(ctx context.Context, key model.FilingKey) (int, error) {
	var current int
	if err := GetDB(ctx, r.db).Model(&model.Rectification{}).
		Select("COALESCE(MAX(sequence_number), 0)").
		Where("taxpayer_id = ? AND trade_id = ? AND period = ?", key.TaxpayerID, key.TradeID, period.Of(key.Period)).
		Scan(&current).Error; err != nil {
		return 0, err
	}
	return current + 1, nil
}

func (r *rectificationRepository) Create(ctx context.Context, rectification *model.Rectification) error {
	return GetDB(ctx, r.db).Create(rectification).Error
}

func (r *rectificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Rectification, error) {
	var rectification model.Rectification
	if err := GetDB(ctx, r.db).First(&rectification, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rectification, nil
}

func (r *rectificationRepository) ListByFiling(ctx context.Context, filingID uuid.UUID) ([]model.Rectification, error) {
	rectifications := make([]model.Rectification, 0)
	if err := GetDB(ctx, r.db).
		Where("filing_id = ?", filingID).
		Order("sequence_number asc").
		Find(&rectifications).Error; err != nil {
		return nil, err
	}
	return rectifications, nil
}

func (r *rectificationRepository) MarkTransmitted(ctx context.Context, id uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Rectification{}).
		Where("id = ? AND transmitted = ?", id, false).
		Update("transmitted", true)
	return res.RowsAffected, res.Error
}
