package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"real-estate-cms/internal/database"
	"real-estate-cms/internal/handlers"
	"real-estate-cms/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	r := gin.New()
	leadHandler := handlers.NewLeadHandler(db, nil)
	viewingHandler := handlers.NewViewingHandler(db, nil)
	offerHandler := handlers.NewOfferHandler(db, nil)

	admin := r.Group("/api/admin")
	{
		admin.GET("/leads", leadHandler.List)
		admin.POST("/leads", leadHandler.Create)
		admin.GET("/leads/:id", leadHandler.Get)
		admin.PATCH("/leads/:id/status", leadHandler.ChangeStatus)
		admin.POST("/leads/:id/notes", leadHandler.AddNote)
		admin.DELETE("/leads/:id", leadHandler.Delete)

		admin.POST("/viewings", viewingHandler.Create)
		admin.PATCH("/viewings/:id/status", viewingHandler.ChangeStatus)

		admin.DELETE("/offers/:id", offerHandler.Delete)
	}
	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLeadCreate_WritesInitialActivity(t *testing.T) {
	r, db := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/admin/leads", map[string]interface{}{
		"name":  "Maria Campos",
		"email": "maria@example.com",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var lead models.Lead
	if err := json.Unmarshal(w.Body.Bytes(), &lead); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if lead.Status != models.LeadStatusNew {
		t.Fatalf("new lead should start in 'new', got %s", lead.Status)
	}
	if lead.Source != models.LeadSourceManual {
		t.Fatalf("admin-created lead defaults to manual source, got %s", lead.Source)
	}

	var count int64
	db.Model(&models.LeadActivity{}).
		Where("lead_id = ? AND type = ?", lead.ID, models.ActivityTypeCreated).
		Count(&count)
	if count != 1 {
		t.Fatalf("creation must write the initial activity row, got %d", count)
	}
}

func TestLeadCreate_RejectsMissingEmail(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/admin/leads", map[string]interface{}{
		"name": "No Email",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without email, got %d", w.Code)
	}
}

func TestLeadChangeStatus_Endpoint(t *testing.T) {
	r, db := newTestRouter(t)

	lead := models.Lead{Name: "Maria", Email: "maria@example.com", Status: models.LeadStatusNew, Source: models.LeadSourceWebsite}
	if err := db.Create(&lead).Error; err != nil {
		t.Fatalf("seed lead: %v", err)
	}

	w := doJSON(t, r, http.MethodPatch, "/api/admin/leads/"+lead.ID+"/status", map[string]string{
		"status": "qualified",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var reloaded models.Lead
	db.Where("id = ?", lead.ID).First(&reloaded)
	if reloaded.Status != models.LeadStatusQualified {
		t.Fatalf("status not persisted: %s", reloaded.Status)
	}

	// Bad status is rejected before touching the row
	w = doJSON(t, r, http.MethodPatch, "/api/admin/leads/"+lead.ID+"/status", map[string]string{
		"status": "archived",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", w.Code)
	}

	// Unknown lead is a 404
	w = doJSON(t, r, http.MethodPatch, "/api/admin/leads/no-such-lead/status", map[string]string{
		"status": "qualified",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown lead, got %d", w.Code)
	}
}

func TestLeadList_StatusFilterAndPaging(t *testing.T) {
	r, db := newTestRouter(t)

	for i := 0; i < 3; i++ {
		lead := models.Lead{
			Name:   fmt.Sprintf("Lead %d", i),
			Email:  fmt.Sprintf("lead%d@example.com", i),
			Status: models.LeadStatusNew,
			Source: models.LeadSourceWebsite,
		}
		if i == 2 {
			lead.Status = models.LeadStatusWon
		}
		if err := db.Create(&lead).Error; err != nil {
			t.Fatalf("seed lead: %v", err)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/api/admin/leads?status=new&per_page=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Items []models.Lead `json:"items"`
		Total int64         `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("status filter wrong, total=%d", resp.Total)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("per_page not applied, got %d items", len(resp.Items))
	}
}

func TestLeadDelete_RemovesActivityTrail(t *testing.T) {
	r, db := newTestRouter(t)

	lead := models.Lead{Name: "Doomed", Email: "doomed@example.com", Status: models.LeadStatusNew, Source: models.LeadSourceWebsite}
	if err := db.Create(&lead).Error; err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	activity := models.LeadActivity{LeadID: lead.ID, Type: models.ActivityTypeCreated, Description: "lead created via website"}
	if err := db.Create(&activity).Error; err != nil {
		t.Fatalf("seed activity: %v", err)
	}

	w := doJSON(t, r, http.MethodDelete, "/api/admin/leads/"+lead.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var leadCount, activityCount int64
	db.Model(&models.Lead{}).Where("id = ?", lead.ID).Count(&leadCount)
	db.Model(&models.LeadActivity{}).Where("lead_id = ?", lead.ID).Count(&activityCount)
	if leadCount != 0 || activityCount != 0 {
		t.Fatalf("lead and trail should be gone: leads=%d activities=%d", leadCount, activityCount)
	}

	// The deletion itself is logged
	var logCount int64
	db.Model(&models.DeleteLog{}).Where("entity_type = ? AND entity_id = ?", "lead", lead.ID).Count(&logCount)
	if logCount != 1 {
		t.Fatalf("manual delete should be logged, got %d rows", logCount)
	}
}

func TestOfferDelete_RemovesEventTrail(t *testing.T) {
	r, db := newTestRouter(t)

	prop := models.Property{
		TitleEN: "Villa", Type: models.PropertyTypeVilla,
		ListingType: models.ListingTypeSale, Status: models.PropertyStatusAvailable,
		Currency: "EUR",
	}
	if err := db.Create(&prop).Error; err != nil {
		t.Fatalf("seed property: %v", err)
	}
	lead := models.Lead{Name: "Maria", Email: "maria@example.com", Status: models.LeadStatusOffer, Source: models.LeadSourceWebsite}
	if err := db.Create(&lead).Error; err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	offer := models.Offer{PropertyID: prop.ID, LeadID: lead.ID, Amount: 425000, Currency: "EUR", Status: models.OfferStatusSubmitted}
	if err := db.Create(&offer).Error; err != nil {
		t.Fatalf("seed offer: %v", err)
	}
	events := []models.OfferEvent{
		{OfferID: offer.ID, EventType: models.OfferEventCreated},
		{OfferID: offer.ID, EventType: models.OfferEventStatusChange},
	}
	for i := range events {
		if err := db.Create(&events[i]).Error; err != nil {
			t.Fatalf("seed event: %v", err)
		}
	}

	w := doJSON(t, r, http.MethodDelete, "/api/admin/offers/"+offer.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var offerCount, eventCount int64
	db.Model(&models.Offer{}).Where("id = ?", offer.ID).Count(&offerCount)
	db.Model(&models.OfferEvent{}).Where("offer_id = ?", offer.ID).Count(&eventCount)
	if offerCount != 0 || eventCount != 0 {
		t.Fatalf("offer and trail should be gone: offers=%d events=%d", offerCount, eventCount)
	}

	var logCount int64
	db.Model(&models.DeleteLog{}).Where("entity_type = ? AND entity_id = ?", "offer", offer.ID).Count(&logCount)
	if logCount != 1 {
		t.Fatalf("manual delete should be logged, got %d rows", logCount)
	}

	// A second delete finds nothing
	w = doJSON(t, r, http.MethodDelete, "/api/admin/offers/"+offer.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for deleted offer, got %d", w.Code)
	}
}

func TestViewingCreate_OverlapsAreAccepted(t *testing.T) {
	r, db := newTestRouter(t)

	prop := models.Property{
		TitleEN: "Villa", Type: models.PropertyTypeVilla,
		ListingType: models.ListingTypeSale, Status: models.PropertyStatusAvailable,
		Currency: "EUR", Published: true,
	}
	if err := db.Create(&prop).Error; err != nil {
		t.Fatalf("seed property: %v", err)
	}

	slot := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	body := map[string]interface{}{
		"property_id":  prop.ID,
		"scheduled_at": slot,
		"client_name":  "First client",
	}

	if w := doJSON(t, r, http.MethodPost, "/api/admin/viewings", body); w.Code != http.StatusCreated {
		t.Fatalf("first booking failed: %d %s", w.Code, w.Body.String())
	}

	// Same property, same time slot: no overlap rejection
	body["client_name"] = "Second client"
	if w := doJSON(t, r, http.MethodPost, "/api/admin/viewings", body); w.Code != http.StatusCreated {
		t.Fatalf("overlapping booking must be accepted: %d %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&models.Viewing{}).Where("property_id = ?", prop.ID).Count(&count)
	if count != 2 {
		t.Fatalf("both viewings should exist, got %d", count)
	}
}

func TestViewingCreate_RejectsUnknownProperty(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/admin/viewings", map[string]interface{}{
		"property_id":  "no-such-property",
		"scheduled_at": time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown property, got %d", w.Code)
	}
}

func TestViewingChangeStatus_NotesLinkedLead(t *testing.T) {
	r, db := newTestRouter(t)

	prop := models.Property{
		TitleEN: "Villa", Type: models.PropertyTypeVilla,
		ListingType: models.ListingTypeSale, Status: models.PropertyStatusAvailable,
		Currency: "EUR",
	}
	if err := db.Create(&prop).Error; err != nil {
		t.Fatalf("seed property: %v", err)
	}
	lead := models.Lead{Name: "Maria", Email: "maria@example.com", Status: models.LeadStatusViewing, Source: models.LeadSourceWebsite}
	if err := db.Create(&lead).Error; err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	viewing := models.Viewing{
		PropertyID:  prop.ID,
		LeadID:      &lead.ID,
		ScheduledAt: time.Now().Add(24 * time.Hour),
		Status:      models.ViewingStatusScheduled,
	}
	if err := db.Create(&viewing).Error; err != nil {
		t.Fatalf("seed viewing: %v", err)
	}

	w := doJSON(t, r, http.MethodPatch, "/api/admin/viewings/"+viewing.ID+"/status", map[string]string{
		"status": "completed",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&models.LeadActivity{}).
		Where("lead_id = ? AND type = ?", lead.ID, models.ActivityTypeViewing).
		Count(&count)
	if count != 1 {
		t.Fatalf("linked viewing change should note the lead, got %d rows", count)
	}
}
