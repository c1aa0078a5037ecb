package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConfigurationID is the primary key of the single policy row.
const ConfigurationID uint = 1

// Configuration is the singleton filing policy: deadline, rate, minimum billable
// amount and the good-taxpayer discount. Fees are snapshotted on each Filing, so
// changing these values never touches historical rows.
type Configuration struct {
	ID                   uint            `gorm:"primaryKey;autoIncrement:false" json:"id"`
	DeadlineDay          int             `gorm:"type:int;not null" json:"deadline_day"`                     // 1-31
	CurrentRate          decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"current_rate"`           // e.g. 0.08
	DefaultAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"default_amount"`         // minimum billable / placeholder amount
	GoodTaxpayerDiscount decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"good_taxpayer_discount"` // e.g. 0.10
	UpdatedAt            time.Time       `json:"updated_at"`
}

func (Configuration) TableName() string {
	return "configurations"
}

// DefaultConfiguration is the policy seeded on a fresh database.
func DefaultConfiguration() Configuration {
	return Configuration{
		ID:                   ConfigurationID,
		DeadlineDay:          26,
		CurrentRate:          decimal.RequireFromString("0.08"),
		DefaultAmount:        decimal.NewFromInt(9999),
		GoodTaxpayerDiscount: decimal.RequireFromString("0.10"),
	}
}
