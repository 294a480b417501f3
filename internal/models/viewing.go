package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Viewing is a scheduled appointment to visit a property. No overlap checks
// are performed when scheduling; double-booking an agent is allowed.
type Viewing struct {
	ID         string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	PropertyID string  `gorm:"type:varchar(36);not null;index" json:"property_id"`
	LeadID     *string `gorm:"type:varchar(36);index" json:"lead_id,omitempty"`
	AgentID    *string `gorm:"type:varchar(36);index" json:"agent_id,omitempty"`

	// Freeform contact, used when no lead record exists
	ClientName  string `gorm:"type:varchar(255)" json:"client_name,omitempty"`
	ClientEmail string `gorm:"type:varchar(255)" json:"client_email,omitempty"`
	ClientPhone string `gorm:"type:varchar(50)" json:"client_phone,omitempty"`

	ScheduledAt     time.Time     `gorm:"not null;index" json:"scheduled_at"`
	DurationMinutes int           `gorm:"not null;default:60" json:"duration_minutes"`
	Status          ViewingStatus `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	Notes           string        `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Viewing) TableName() string {
	return "viewings"
}

func (v *Viewing) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

type ViewingStatus string

const (
	ViewingStatusScheduled ViewingStatus = "scheduled"
	ViewingStatusConfirmed ViewingStatus = "confirmed"
	ViewingStatusCompleted ViewingStatus = "completed"
	ViewingStatusCancelled ViewingStatus = "cancelled"
	ViewingStatusNoShow    ViewingStatus = "no_show"
)

func (s ViewingStatus) Valid() bool {
	switch s {
	case ViewingStatusScheduled, ViewingStatusConfirmed, ViewingStatusCompleted,
		ViewingStatusCancelled, ViewingStatusNoShow:
		return true
	}
	return false
}

// IsUpcoming reports whether the viewing still occupies the calendar.
func (s ViewingStatus) IsUpcoming() bool {
	return s == ViewingStatusScheduled || s == ViewingStatusConfirmed
}
