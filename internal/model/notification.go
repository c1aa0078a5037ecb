package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Notification kinds
const (
	NotificationNewFiling     = "NEW_FILING"
	NotificationBackfill      = "BACKFILL"
	NotificationRectification = "RECTIFICATION"
)

// Notification is an operator-facing inbox entry raised by filing activity.
type Notification struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Kind       string          `gorm:"type:varchar(20);not null;index" json:"kind"`
	Read       bool            `gorm:"column:is_read;not null;default:false;index" json:"read"`
	CUIT       string          `gorm:"column:cuit;type:varchar(13)" json:"cuit"`
	TradeCode  string          `gorm:"type:varchar(50)" json:"trade_code"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	MonthLabel string          `gorm:"type:varchar(20)" json:"month"`
	CreatedAt  time.Time       `gorm:"index" json:"created_at"`
}
