package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Rectification is one correction of a Filing. SequenceNumber is 1-based and
// unique per Filing; Transmitted is independent from the Filing's own flag.
type Rectification struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	FilingID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_rectification_seq,priority:1" json:"filing_id"`
	TaxpayerID     uint            `gorm:"not null;index:idx_rectification_key,priority:1" json:"taxpayer_id"`
	TradeID        uint            `gorm:"not null;index:idx_rectification_key,priority:2" json:"trade_id"`
	Period         time.Time       `gorm:"type:date;not null;index:idx_rectification_key,priority:3" json:"period"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Fee            decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"fee"`
	Description    string          `gorm:"type:text" json:"description"`
	Transmitted    bool            `gorm:"not null;default:false" json:"transmitted"`
	SequenceNumber int             `gorm:"not null;uniqueIndex:idx_rectification_seq,priority:2" json:"sequence_number"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
