// Package pipeline mutates the status fields on leads, offers, viewings and
// tasks, and appends the matching audit rows in the same transaction.
//
// Transitions are deliberately unrestricted: any valid status may replace any
// other, including re-opening a won lead. The check lives in CanTransition so
// a transition graph can be introduced later without touching call sites.
package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"real-estate-cms/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service performs status transitions and audit writes.
type Service struct {
	db *gorm.DB
}

// NewService creates a new pipeline service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CanTransition reports whether a lead may move between two statuses. Every
// pair of valid statuses is allowed, including from == to.
func CanTransition(from, to models.LeadStatus) bool {
	return to.Valid()
}

// CanTransitionOffer is the offer counterpart of CanTransition.
func CanTransitionOffer(from, to models.OfferStatus) bool {
	return to.Valid()
}

// ChangeLeadStatus sets the lead's status and appends one activity row whose
// description names both the prior and the new status. Re-applying the
// current status still succeeds and still appends a row.
func (s *Service) ChangeLeadStatus(leadID string, to models.LeadStatus, actor string) (*models.Lead, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("invalid lead status: %s", to)
	}

	var lead models.Lead
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", leadID).First(&lead).Error; err != nil {
			return err
		}

		from := lead.Status
		if !CanTransition(from, to) {
			return fmt.Errorf("transition %s -> %s not allowed", from, to)
		}

		if err := tx.Model(&lead).Update("status", to).Error; err != nil {
			return err
		}
		lead.Status = to

		activity := models.LeadActivity{
			LeadID:      lead.ID,
			Type:        models.ActivityTypeStatusChange,
			Description: fmt.Sprintf("status changed from %s to %s", from, to),
			Actor:       actor,
		}
		return tx.Create(&activity).Error
	})
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// AddLeadNote appends a freeform note to the lead's activity trail.
func (s *Service) AddLeadNote(leadID, note, actor string) (*models.LeadActivity, error) {
	activity := models.LeadActivity{
		LeadID:      leadID,
		Type:        models.ActivityTypeNote,
		Description: note,
		Actor:       actor,
	}
	if err := s.db.Create(&activity).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

// RecordLeadCreated writes the initial activity row for a new lead.
func (s *Service) RecordLeadCreated(tx *gorm.DB, lead *models.Lead) error {
	activity := models.LeadActivity{
		LeadID:      lead.ID,
		Type:        models.ActivityTypeCreated,
		Description: fmt.Sprintf("lead created via %s", lead.Source),
	}
	return tx.Create(&activity).Error
}

// GetLeadActivities returns the lead's audit trail, newest first.
func (s *Service) GetLeadActivities(leadID string, limit int) ([]models.LeadActivity, error) {
	var activities []models.LeadActivity
	q := s.db.Where("lead_id = ?", leadID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&activities).Error
	return activities, err
}

// offerStatusPayload is the JSON body of a status-change offer event.
type offerStatusPayload struct {
	From      models.OfferStatus `json:"from"`
	To        models.OfferStatus `json:"to"`
	Amount    int64              `json:"amount"`
	Currency  string             `json:"currency"`
	ChangedAt time.Time          `json:"changed_at"`
}

// ChangeOfferStatus sets the offer's status and appends one event row with a
// JSON payload echoing the change. The events table is display-only; it is
// never read back to reconstruct offer state.
func (s *Service) ChangeOfferStatus(offerID string, to models.OfferStatus, actor string) (*models.Offer, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("invalid offer status: %s", to)
	}

	var offer models.Offer
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", offerID).First(&offer).Error; err != nil {
			return err
		}

		from := offer.Status
		if !CanTransitionOffer(from, to) {
			return fmt.Errorf("transition %s -> %s not allowed", from, to)
		}

		if err := tx.Model(&offer).Update("status", to).Error; err != nil {
			return err
		}
		offer.Status = to

		payload, err := json.Marshal(offerStatusPayload{
			From:      from,
			To:        to,
			Amount:    offer.Amount,
			Currency:  offer.Currency,
			ChangedAt: time.Now(),
		})
		if err != nil {
			return err
		}

		event := models.OfferEvent{
			OfferID:   offer.ID,
			EventType: models.OfferEventStatusChange,
			Payload:   datatypes.JSON(payload),
			Actor:     actor,
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// RecordOfferCreated writes the initial event row for a new offer.
func (s *Service) RecordOfferCreated(tx *gorm.DB, offer *models.Offer, actor string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"status":   offer.Status,
		"amount":   offer.Amount,
		"currency": offer.Currency,
	})
	if err != nil {
		return err
	}
	event := models.OfferEvent{
		OfferID:   offer.ID,
		EventType: models.OfferEventCreated,
		Payload:   datatypes.JSON(payload),
		Actor:     actor,
	}
	return tx.Create(&event).Error
}

// GetOfferEvents returns the offer's event trail, newest first.
func (s *Service) GetOfferEvents(offerID string, limit int) ([]models.OfferEvent, error) {
	var events []models.OfferEvent
	q := s.db.Where("offer_id = ?", offerID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&events).Error
	return events, err
}

// ChangeViewingStatus sets the viewing's status. When the viewing is linked
// to a lead, the change is also noted on the lead's activity trail.
func (s *Service) ChangeViewingStatus(viewingID string, to models.ViewingStatus, actor string) (*models.Viewing, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("invalid viewing status: %s", to)
	}

	var viewing models.Viewing
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", viewingID).First(&viewing).Error; err != nil {
			return err
		}

		from := viewing.Status
		if err := tx.Model(&viewing).Update("status", to).Error; err != nil {
			return err
		}
		viewing.Status = to

		if viewing.LeadID == nil {
			return nil
		}
		activity := models.LeadActivity{
			LeadID:      *viewing.LeadID,
			Type:        models.ActivityTypeViewing,
			Description: fmt.Sprintf("viewing status changed from %s to %s", from, to),
			Actor:       actor,
		}
		return tx.Create(&activity).Error
	})
	if err != nil {
		return nil, err
	}
	return &viewing, nil
}

// ChangeTaskStatus flips a task between pending and completed.
func (s *Service) ChangeTaskStatus(taskID string, to models.TaskStatus) (*models.Task, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("invalid task status: %s", to)
	}

	var task models.Task
	if err := s.db.Where("id = ?", taskID).First(&task).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&task).Update("status", to).Error; err != nil {
		return nil, err
	}
	task.Status = to
	return &task, nil
}
