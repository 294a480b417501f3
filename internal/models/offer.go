package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Offer struct {
	ID         string `gorm:"type:varchar(36);primaryKey" json:"id"`
	PropertyID string `gorm:"type:varchar(36);not null;index" json:"property_id"`
	LeadID     string `gorm:"type:varchar(36);not null;index" json:"lead_id"`

	Amount   int64       `gorm:"type:bigint;not null" json:"amount"`
	Currency string      `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	Status   OfferStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Notes    string      `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index:idx_offers_created_at,sort:desc" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Offer) TableName() string {
	return "offers"
}

func (o *Offer) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

type OfferStatus string

const (
	OfferStatusDraft     OfferStatus = "draft"
	OfferStatusSubmitted OfferStatus = "submitted"
	OfferStatusCountered OfferStatus = "countered"
	OfferStatusAccepted  OfferStatus = "accepted"
	OfferStatusRejected  OfferStatus = "rejected"
	OfferStatusWithdrawn OfferStatus = "withdrawn"
)

func (s OfferStatus) Valid() bool {
	switch s {
	case OfferStatusDraft, OfferStatusSubmitted, OfferStatusCountered,
		OfferStatusAccepted, OfferStatusRejected, OfferStatusWithdrawn:
		return true
	}
	return false
}

// IsOpen reports whether the offer is still being negotiated.
func (s OfferStatus) IsOpen() bool {
	switch s {
	case OfferStatusDraft, OfferStatusSubmitted, OfferStatusCountered:
		return true
	}
	return false
}

// OfferEvent is an append-only audit row for an offer. The payload echoes the
// change as JSON; the table is only ever displayed, never used to rebuild
// offer state.
type OfferEvent struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OfferID   string         `gorm:"type:varchar(36);not null;index:idx_offer_events_offer" json:"offer_id"`
	EventType string         `gorm:"type:varchar(30);not null" json:"event_type"`
	Payload   datatypes.JSON `json:"payload,omitempty"`
	Actor     string         `gorm:"type:varchar(255)" json:"actor,omitempty"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (OfferEvent) TableName() string {
	return "offer_events"
}

// Offer event type constants
const (
	OfferEventCreated      = "created"
	OfferEventStatusChange = "status_change"
	OfferEventAmountChange = "amount_change"
)
