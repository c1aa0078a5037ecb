package repository

import (
	"context"
	"time"

	"ddjj/internal/model"
	"ddjj/internal/period"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UnfiledTrade is an active trade that has no Filing for the queried period.
type UnfiledTrade struct {
	TradeID    uint
	TaxpayerID uint
	TradeCode  string
	CUIT       string `gorm:"column:cuit"`
}

type FilingRepository interface {
	Create(ctx context.Context, filing *model.Filing) error
	CreatePlaceholder(ctx context.Context, filing *model.Filing) (bool, error)
	FindByPeriod(ctx context.Context, taxpayerID, tradeID uint, year, month int) ([]model.Filing, error)
	FindByKey(ctx context.Context, key model.FilingKey) (*model.Filing, error)
	FindByKeyForUpdate(ctx context.Context, key model.FilingKey) (*model.Filing, error)
	ExistsForPeriod(ctx context.Context, key model.FilingKey) (bool, error)
	MarkTransmitted(ctx context.Context, key model.FilingKey) (int64, error)
	ApplyRectification(ctx context.Context, id uuid.UUID, amount, fee decimal.Decimal) error
	FindUnfiledActiveTrades(ctx context.Context, p time.Time, limit int) ([]UnfiledTrade, error)
}

type filingRepository struct {
	db *gorm.DB
}

func NewFilingRepository(db *gorm.DB) FilingRepository {
	return &filingRepository{db: db}
}

func (r *filingRepository) Create(ctx context.Context, filing *model.Filing) error {
	return GetDB(ctx, r.db).Create(filing).Error
}

// CreatePlaceholder inserts filing unless its period key already exists, and
// reports whether the row was written.
func (r *filingRepository) CreatePlaceholder(ctx context.Context, filing *model.Filing) (bool, error) {
	res := GetDB(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(filing)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindByPeriod returns the filings of a trade for a whole year (month == 0) or a
// single month, ordered by period. No rows is an empty slice, not an error.
func (r *filingRepository) FindByPeriod(ctx context.Context, taxpayerID, tradeID uint, year, month int) ([]model.Filing, error) {
	from := period.New(year, time.January)
	to := period.New(year+1, time.January)
	if month != 0 {
		from = period.New(year, time.Month(month))
		to = period.Next(from)
	}

	filings := make([]model.Filing, 0)
	if err := GetDB(ctx, r.db).
		Where("taxpayer_id = ? AND trade_id = ? AND period >= ? AND period < ?", taxpayerID, tradeID, from, to).
		Order("period asc").
		Find(&filings).Error; err != nil {
		return nil, err
	}
	return filings, nil
}

func (r *filingRepository) FindByKey(ctx context.Context, key model.FilingKey) (*model.Filing, error) {
	var filing model.Filing
	if err := GetDB(ctx, r.db).
		Where("taxpayer_id = ? AND trade_id = ? AND period = ?", key.TaxpayerID, key.TradeID, period.Of(key.Period)).
		First(&filing).Error; err != nil {
		return nil, err
	}
	return &filing, nil
}

// FindByKeyForUpdate locks the filing row until the surrounding transaction ends.
func (r *filingRepository) FindByKeyForUpdate(ctx context.Context, key model.FilingKey) (*model.Filing, error) {
	var filing model.Filing
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("taxpayer_id = ? AND trade_id = ? AND period = ?", key.TaxpayerID, key.TradeID, period.Of(key.Period)).
		First(&filing).Error; err != nil {
		return nil, err
	}
	return &filing, nil
}

func (r *filingRepository) ExistsForPeriod(ctx context.Context, key model.FilingKey) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Filing{}).
		Where("taxpayer_id = ? AND trade_id = ? AND period = ?", key.TaxpayerID, key.TradeID, period.Of(key.Period)).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkTransmitted flips transmitted for a filing that has not been sent yet.
func (r *filingRepository) MarkTransmitted(ctx context.Context, key model.FilingKey) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Filing{}).
		Where("taxpayer_id = ? AND trade_id = ? AND period = ? AND transmitted = ?", key.TaxpayerID, key.TradeID, period.Of(key.Period), false).
		Update("transmitted", true)
	return res.RowsAffected, res.Error
}

// ApplyRectification copies the latest rectified values onto the filing row.
func (r *filingRepository) ApplyRectification(ctx context.Context, id uuid.UUID, amount, fee decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.Filing{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"amount":       amount,
			"computed_fee": fee,
			"rectified":    true,
		}).Error
}

// FindUnfiledActiveTrades is the anti-join between active trades and the
// filings of period p, in trade id order.
func (r *filingRepository) FindUnfiledActiveTrades(ctx context.Context, p time.Time, limit int) ([]UnfiledTrade, error) {
	rows := make([]UnfiledTrade, 0)
	if err := GetDB(ctx, r.db).Table("trades AS t").
		Select("t.id AS trade_id, t.taxpayer_id AS taxpayer_id, t.code AS trade_code, tp.cuit AS cuit").
		Joins("LEFT JOIN taxpayers tp ON tp.id = t.taxpayer_id").
		Where("t.active = ?", true).
		Where("NOT EXISTS (SELECT 1 FROM filings f WHERE f.taxpayer_id = t.taxpayer_id AND f.trade_id = t.id AND f.period = ?)", period.Of(p)).
		Order("t.id asc").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
