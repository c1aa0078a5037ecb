package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Filing (DDJJ) is one taxpayer's sworn declaration for one trade and one month.
// Period is always the first day of the month; (taxpayer, trade, period) is unique.
type Filing struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TaxpayerID  uint            `gorm:"not null;uniqueIndex:idx_filing_period,priority:1" json:"taxpayer_id"`
	TradeID     uint            `gorm:"not null;uniqueIndex:idx_filing_period,priority:2;index" json:"trade_id"`
	Period      time.Time       `gorm:"type:date;not null;uniqueIndex:idx_filing_period,priority:3;index" json:"period"`
	FiledOn     time.Time       `gorm:"type:date;not null" json:"filed_on"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Description string          `gorm:"type:text" json:"description"`
	FiledOnTime bool            `gorm:"not null;default:false" json:"filed_on_time"`
	ComputedFee decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"computed_fee"`
	Transmitted bool            `gorm:"not null;default:false;index" json:"transmitted"`
	Rectified   bool            `gorm:"not null;default:false" json:"rectified"`
	Backfilled  bool            `gorm:"not null;default:false" json:"backfilled"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// FilingKey identifies a Filing by its natural key.
type FilingKey struct {
	TaxpayerID uint
	TradeID    uint
	Period     time.Time
}

// String renders the key as "<taxpayer>/<trade>/<YYYY-MM>".
func (k FilingKey) String() string {
	return fmt.Sprintf("%d/%d/%04d-%02d", k.TaxpayerID, k.TradeID, k.Period.Year(), int(k.Period.Month()))
}
