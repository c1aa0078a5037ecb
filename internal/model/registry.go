package model

import "time"

// Taxpayer is owned by the registration workflow; this service only reads it.
type Taxpayer struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CUIT         string    `gorm:"column:cuit;type:varchar(13);uniqueIndex;not null" json:"cuit"`
	BusinessName string    `gorm:"type:varchar(255)" json:"business_name"`
	GoodTaxpayer bool      `gorm:"not null;default:false" json:"good_taxpayer"`
	Active       bool      `gorm:"not null;default:false" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Trade is a registered commerce owned by a Taxpayer. Only active trades are
// expected to file each month.
type Trade struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TaxpayerID uint      `gorm:"not null;index" json:"taxpayer_id"`
	Taxpayer   *Taxpayer `gorm:"foreignKey:TaxpayerID" json:"taxpayer,omitempty"`
	Code       string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name       string    `gorm:"type:varchar(255)" json:"name"`
	Active     bool      `gorm:"not null;default:false;index" json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
