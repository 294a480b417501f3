package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"real-estate-cms/internal/cache"
	"real-estate-cms/internal/database"
	"real-estate-cms/internal/models"
	"real-estate-cms/internal/pipeline"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupInquiryTest points the package globals at an in-memory store and a
// miniredis-backed cache, and restores them when the test ends.
func setupInquiryTest(t *testing.T) (*gin.Engine, *miniredis.Miniredis, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// The in-memory database lives per connection; a second pool connection
	// would see an empty schema
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	store := database.NewGormDBFromDB(gdb)
	if err := store.InitSchema(); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	gormDB = store
	pipelineService = pipeline.NewService(gdb)
	cacheClient = cache.NewFromClient(client)
	t.Cleanup(func() {
		gormDB = nil
		pipelineService = nil
		cacheClient = nil
	})

	r := gin.New()
	r.POST("/api/inquiries", submitInquiry)
	return r, mr, gdb
}

func TestSubmitInquiry_InvalidatesDashboardCache(t *testing.T) {
	r, mr, db := setupInquiryTest(t)

	// A stale aggregate is sitting in the cache
	err := cacheClient.Set(context.Background(), cache.DashboardStatsKey,
		map[string]int64{"active_leads": 0}, time.Minute)
	if err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	body, _ := json.Marshal(map[string]interface{}{
		"name":  "Maria Campos",
		"email": "maria@example.com",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/inquiries", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&models.Lead{}).Count(&count)
	if count != 1 {
		t.Fatalf("inquiry should create a lead, got %d", count)
	}

	if mr.Exists(cache.DashboardStatsKey) {
		t.Fatalf("inquiry write must invalidate the cached dashboard aggregates")
	}
}
