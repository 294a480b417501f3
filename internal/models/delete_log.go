package models

import "time"

// DeleteLog records hard deletes performed from the admin screens, since the
// schema keeps no tombstones.
type DeleteLog struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	EntityType string    `gorm:"type:varchar(50);not null;index" json:"entity_type"`
	EntityID   string    `gorm:"type:varchar(36);not null;index" json:"entity_id"`
	Label      string    `gorm:"type:text" json:"label,omitempty"`
	Reason     string    `gorm:"type:varchar(50);not null" json:"reason"`
	Actor      string    `gorm:"type:varchar(255)" json:"actor,omitempty"`
	DeletedAt  time.Time `gorm:"not null;autoCreateTime;index" json:"deleted_at"`
}

func (DeleteLog) TableName() string {
	return "delete_logs"
}

// DeleteReason constants
const (
	DeleteReasonManual    = "manual_deletion"
	DeleteReasonRetention = "retention_cleanup"
	DeleteReasonDuplicate = "duplicate"
)
