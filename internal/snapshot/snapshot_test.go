package snapshot_test

import (
	"testing"
	"time"

	"real-estate-cms/internal/database"
	"real-estate-cms/internal/models"
	"real-estate-cms/internal/snapshot"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*snapshot.Service, *gorm.DB) {
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
	return snapshot.NewService(db), db
}

func seedWorld(t *testing.T, db *gorm.DB, now time.Time) {
	t.Helper()

	props := []models.Property{
		{TitleEN: "Published villa", Type: models.PropertyTypeVilla, ListingType: models.ListingTypeSale, Status: models.PropertyStatusAvailable, Currency: "EUR", Published: true},
		{TitleEN: "Draft apartment", Type: models.PropertyTypeApartment, ListingType: models.ListingTypeSale, Status: models.PropertyStatusAvailable, Currency: "EUR", Published: false},
	}
	for i := range props {
		if err := db.Create(&props[i]).Error; err != nil {
			t.Fatalf("seed property: %v", err)
		}
	}

	leads := []models.Lead{
		{Name: "Open lead", Email: "a@example.com", Status: models.LeadStatusQualified, Source: models.LeadSourceWebsite},
		{Name: "Won lead", Email: "b@example.com", Status: models.LeadStatusWon, Source: models.LeadSourceWebsite},
		{Name: "Lost lead", Email: "c@example.com", Status: models.LeadStatusLost, Source: models.LeadSourceWebsite},
	}
	for i := range leads {
		if err := db.Create(&leads[i]).Error; err != nil {
			t.Fatalf("seed lead: %v", err)
		}
	}

	viewings := []models.Viewing{
		{PropertyID: props[0].ID, ScheduledAt: now.Add(24 * time.Hour), Status: models.ViewingStatusScheduled},
		{PropertyID: props[0].ID, ScheduledAt: now.Add(-24 * time.Hour), Status: models.ViewingStatusScheduled},
		{PropertyID: props[0].ID, ScheduledAt: now.Add(48 * time.Hour), Status: models.ViewingStatusCancelled},
	}
	for i := range viewings {
		if err := db.Create(&viewings[i]).Error; err != nil {
			t.Fatalf("seed viewing: %v", err)
		}
	}

	offers := []models.Offer{
		{PropertyID: props[0].ID, LeadID: leads[0].ID, Amount: 500000, Currency: "EUR", Status: models.OfferStatusSubmitted},
		{PropertyID: props[0].ID, LeadID: leads[1].ID, Amount: 640000, Currency: "EUR", Status: models.OfferStatusAccepted},
		{PropertyID: props[0].ID, LeadID: leads[2].ID, Amount: 100000, Currency: "EUR", Status: models.OfferStatusWithdrawn},
	}
	for i := range offers {
		if err := db.Create(&offers[i]).Error; err != nil {
			t.Fatalf("seed offer: %v", err)
		}
	}
}

func TestComputeStats(t *testing.T) {
	svc, db := newTestService(t)
	now := time.Now()
	seedWorld(t, db, now)

	snap, err := svc.ComputeStats(now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if snap.TotalProperties != 2 || snap.PublishedProperties != 1 {
		t.Fatalf("property counts wrong: %+v", snap)
	}
	if snap.ActiveLeads != 1 {
		t.Fatalf("won and lost leads must not count as active, got %d", snap.ActiveLeads)
	}
	// Past and cancelled viewings do not count
	if snap.ScheduledViewings != 1 {
		t.Fatalf("scheduled viewings wrong: %d", snap.ScheduledViewings)
	}
	// Accepted and withdrawn offers are settled
	if snap.OpenOffers != 1 {
		t.Fatalf("open offers wrong: %d", snap.OpenOffers)
	}
	// The accepted offer was updated this month
	if snap.MonthlyRevenue != 640000 {
		t.Fatalf("monthly revenue wrong: %d", snap.MonthlyRevenue)
	}
}

func TestComputeStats_EmptyDatabase(t *testing.T) {
	svc, _ := newTestService(t)

	snap, err := svc.ComputeStats(time.Now())
	if err != nil {
		t.Fatalf("compute on empty db: %v", err)
	}
	if snap.MonthlyRevenue != 0 {
		t.Fatalf("revenue on empty db should be zero, got %d", snap.MonthlyRevenue)
	}
}

func TestCreateSnapshot_SameDayRerunOverwrites(t *testing.T) {
	svc, db := newTestService(t)
	now := time.Now()
	seedWorld(t, db, now)

	first, err := svc.CreateSnapshot(now)
	if err != nil {
		t.Fatalf("first snapshot: %v", err)
	}

	// New lead arrives, same-day rerun must refresh the existing row
	lead := models.Lead{Name: "Late lead", Email: "late@example.com", Status: models.LeadStatusNew, Source: models.LeadSourceWebsite}
	if err := db.Create(&lead).Error; err != nil {
		t.Fatalf("seed late lead: %v", err)
	}

	second, err := svc.CreateSnapshot(now.Add(2 * time.Hour))
	if err != nil {
		t.Fatalf("rerun snapshot: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("rerun must reuse the day's row, got id %d vs %d", second.ID, first.ID)
	}
	if second.ActiveLeads != first.ActiveLeads+1 {
		t.Fatalf("rerun must refresh counts: %d vs %d", second.ActiveLeads, first.ActiveLeads)
	}

	var count int64
	db.Model(&models.StatsSnapshot{}).Count(&count)
	if count != 1 {
		t.Fatalf("one row per day, got %d", count)
	}
}

func TestCreateSnapshot_DateFollowsCallerTimezone(t *testing.T) {
	svc, _ := newTestService(t)

	// 01:00 on the 16th in UTC+10 is still the 15th in UTC; the snapshot
	// must land on the caller's calendar date
	loc := time.FixedZone("UTC+10", 10*60*60)
	now := time.Date(2026, 4, 16, 1, 0, 0, 0, loc)

	snap, err := svc.CreateSnapshot(now)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.SnapshotAt.Day() != 16 {
		t.Fatalf("snapshot dated on the wrong day: %v", snap.SnapshotAt)
	}
	if h, m, s := snap.SnapshotAt.Clock(); h != 0 || m != 0 || s != 0 {
		t.Fatalf("snapshot must be dated at midnight, got %v", snap.SnapshotAt)
	}
}

func TestGetHistory_NewestFirst(t *testing.T) {
	svc, db := newTestService(t)

	days := []time.Time{
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC),
	}
	for i, d := range days {
		snap := models.StatsSnapshot{SnapshotAt: d, TotalProperties: int64(i)}
		if err := db.Create(&snap).Error; err != nil {
			t.Fatalf("seed snapshot: %v", err)
		}
	}

	history, err := svc.GetHistory(2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("limit not applied: %d", len(history))
	}
	if !history[0].SnapshotAt.After(history[1].SnapshotAt) {
		t.Fatalf("history must be newest first: %v then %v", history[0].SnapshotAt, history[1].SnapshotAt)
	}
}
