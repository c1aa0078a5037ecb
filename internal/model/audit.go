package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionUpdateConfiguration   = "UPDATE_CONFIGURATION"
	ActionTransmitFiling        = "TRANSMIT_FILING"
	ActionTransmitRectification = "TRANSMIT_RECTIFICATION"
	ActionActivateTrade         = "ACTIVATE_TRADE"
	ActionTriggerBackfill       = "TRIGGER_BACKFILL"
)

// AuditLog tracks Who, What, and When for administrative changes
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Actor      string    `gorm:"type:varchar(100);index" json:"actor"` // JWT subject, empty for the scheduler
	Action     string    `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string    `gorm:"type:varchar(100);index" json:"entity_id"`
	EntityName string    `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string    `gorm:"type:text" json:"details"` // Serialized JSON payload of the action
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
