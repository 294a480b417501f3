package pipeline_test

import (
	"encoding/json"
	"testing"
	"time"

	"real-estate-cms/internal/database"
	"real-estate-cms/internal/models"
	"real-estate-cms/internal/pipeline"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*pipeline.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// The in-memory database lives per connection; a second pool connection
	// would see an empty schema
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.NewGormDBFromDB(db).InitSchema(); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return pipeline.NewService(db), db
}

func seedLead(t *testing.T, db *gorm.DB, status models.LeadStatus) models.Lead {
	t.Helper()
	lead := models.Lead{
		Name:   "Maria Campos",
		Email:  "maria@example.com",
		Status: status,
		Source: models.LeadSourceWebsite,
	}
	if err := db.Create(&lead).Error; err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	return lead
}

func TestChangeLeadStatus_WritesOneActivityRow(t *testing.T) {
	svc, db := newTestService(t)
	lead := seedLead(t, db, models.LeadStatusNew)

	updated, err := svc.ChangeLeadStatus(lead.ID, models.LeadStatusQualified, "admin@example.com")
	if err != nil {
		t.Fatalf("change status: %v", err)
	}
	if updated.Status != models.LeadStatusQualified {
		t.Fatalf("status not applied: %s", updated.Status)
	}

	var activities []models.LeadActivity
	db.Where("lead_id = ? AND type = ?", lead.ID, models.ActivityTypeStatusChange).Find(&activities)
	if len(activities) != 1 {
		t.Fatalf("expected exactly one status-change activity, got %d", len(activities))
	}
	desc := activities[0].Description
	if desc != "status changed from new to qualified" {
		t.Fatalf("description must name both statuses, got %q", desc)
	}
	if activities[0].Actor != "admin@example.com" {
		t.Fatalf("actor not recorded: %q", activities[0].Actor)
	}
}

func TestChangeLeadStatus_ReapplySameStatusStillAppends(t *testing.T) {
	svc, db := newTestService(t)
	lead := seedLead(t, db, models.LeadStatusContacted)

	for i := 0; i < 2; i++ {
		if _, err := svc.ChangeLeadStatus(lead.ID, models.LeadStatusContacted, "admin@example.com"); err != nil {
			t.Fatalf("re-apply %d: %v", i, err)
		}
	}

	var count int64
	db.Model(&models.LeadActivity{}).
		Where("lead_id = ? AND type = ?", lead.ID, models.ActivityTypeStatusChange).
		Count(&count)
	if count != 2 {
		t.Fatalf("each re-apply must append a row, got %d", count)
	}
}

func TestChangeLeadStatus_AnyToAnyAllowed(t *testing.T) {
	svc, db := newTestService(t)
	lead := seedLead(t, db, models.LeadStatusWon)

	// Re-opening a won lead is allowed
	updated, err := svc.ChangeLeadStatus(lead.ID, models.LeadStatusNew, "admin@example.com")
	if err != nil {
		t.Fatalf("won -> new should be allowed: %v", err)
	}
	if updated.Status != models.LeadStatusNew {
		t.Fatalf("status not applied: %s", updated.Status)
	}
}

func TestChangeLeadStatus_RejectsUnknownStatus(t *testing.T) {
	svc, db := newTestService(t)
	lead := seedLead(t, db, models.LeadStatusNew)

	if _, err := svc.ChangeLeadStatus(lead.ID, models.LeadStatus("archived"), "admin@example.com"); err == nil {
		t.Fatalf("unknown status must be rejected")
	}

	// Rejected change leaves no audit row behind
	var count int64
	db.Model(&models.LeadActivity{}).Where("lead_id = ?", lead.ID).Count(&count)
	if count != 0 {
		t.Fatalf("rejected transition must not write activities, got %d", count)
	}
}

func TestChangeOfferStatus_EventPayload(t *testing.T) {
	svc, db := newTestService(t)

	offer := models.Offer{
		PropertyID: "prop-1",
		LeadID:     "lead-1",
		Amount:     425000,
		Currency:   "EUR",
		Status:     models.OfferStatusSubmitted,
	}
	if err := db.Create(&offer).Error; err != nil {
		t.Fatalf("seed offer: %v", err)
	}

	if _, err := svc.ChangeOfferStatus(offer.ID, models.OfferStatusAccepted, "admin@example.com"); err != nil {
		t.Fatalf("change offer status: %v", err)
	}

	var events []models.OfferEvent
	db.Where("offer_id = ? AND event_type = ?", offer.ID, models.OfferEventStatusChange).Find(&events)
	if len(events) != 1 {
		t.Fatalf("expected one status-change event, got %d", len(events))
	}

	var payload struct {
		From     string `json:"from"`
		To       string `json:"to"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(events[0].Payload, &payload); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if payload.From != "submitted" || payload.To != "accepted" {
		t.Fatalf("payload must echo the transition, got %+v", payload)
	}
	if payload.Amount != 425000 || payload.Currency != "EUR" {
		t.Fatalf("payload must carry the offer terms, got %+v", payload)
	}
}

func TestChangeViewingStatus_LeadActivityOnlyWhenLinked(t *testing.T) {
	svc, db := newTestService(t)
	lead := seedLead(t, db, models.LeadStatusViewing)

	linked := models.Viewing{
		PropertyID:  "prop-1",
		LeadID:      &lead.ID,
		ScheduledAt: time.Now().Add(24 * time.Hour),
		Status:      models.ViewingStatusScheduled,
	}
	walkIn := models.Viewing{
		PropertyID:  "prop-1",
		ClientName:  "Walk-in client",
		ScheduledAt: time.Now().Add(48 * time.Hour),
		Status:      models.ViewingStatusScheduled,
	}
	if err := db.Create(&linked).Error; err != nil {
		t.Fatalf("seed linked viewing: %v", err)
	}
	if err := db.Create(&walkIn).Error; err != nil {
		t.Fatalf("seed walk-in viewing: %v", err)
	}

	if _, err := svc.ChangeViewingStatus(linked.ID, models.ViewingStatusCompleted, "agent@example.com"); err != nil {
		t.Fatalf("change linked viewing: %v", err)
	}
	if _, err := svc.ChangeViewingStatus(walkIn.ID, models.ViewingStatusCancelled, "agent@example.com"); err != nil {
		t.Fatalf("change walk-in viewing: %v", err)
	}

	var activities []models.LeadActivity
	db.Where("type = ?", models.ActivityTypeViewing).Find(&activities)
	if len(activities) != 1 {
		t.Fatalf("only the linked viewing should note the lead, got %d rows", len(activities))
	}
	if activities[0].LeadID != lead.ID {
		t.Fatalf("activity attached to wrong lead: %s", activities[0].LeadID)
	}
	if activities[0].Description != "viewing status changed from scheduled to completed" {
		t.Fatalf("unexpected description: %q", activities[0].Description)
	}
}

func TestAddLeadNote(t *testing.T) {
	svc, db := newTestService(t)
	lead := seedLead(t, db, models.LeadStatusNew)

	note, err := svc.AddLeadNote(lead.ID, "Prefers sea views, budget flexible", "admin@example.com")
	if err != nil {
		t.Fatalf("add note: %v", err)
	}
	if note.Type != models.ActivityTypeNote {
		t.Fatalf("wrong activity type: %s", note.Type)
	}

	activities, err := svc.GetLeadActivities(lead.ID, 10)
	if err != nil {
		t.Fatalf("get activities: %v", err)
	}
	if len(activities) != 1 || activities[0].Description != "Prefers sea views, budget flexible" {
		t.Fatalf("note not readable back: %+v", activities)
	}
}
