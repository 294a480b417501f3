package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"real-estate-cms/internal/cache"
	"real-estate-cms/internal/cleanup"
	"real-estate-cms/internal/config"
	"real-estate-cms/internal/database"
	"real-estate-cms/internal/models"
	"real-estate-cms/internal/observability"
	"real-estate-cms/internal/scheduler"
	"real-estate-cms/internal/snapshot"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminHandler handles dashboard stats, analytics and maintenance operations
type AdminHandler struct {
	db              *gorm.DB
	gdb             *database.GormDB
	cache           *cache.Cache
	scheduler       *scheduler.Scheduler
	snapshotService *snapshot.Service
	cleanupService  *cleanup.Service
	statsTTL        time.Duration
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(gdb *database.GormDB, cacheCli *cache.Cache, sched *scheduler.Scheduler, cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		db:              gdb.DB(),
		gdb:             gdb,
		cache:           cacheCli,
		scheduler:       sched,
		snapshotService: snapshot.NewService(gdb.DB()),
		cleanupService:  cleanup.NewService(gdb.DB()),
		statsTTL:        cfg.Redis.StatsTTL(),
	}
}

// DashboardStats is the aggregate block the dashboard renders. One explicit
// struct rather than loose maps so the shape is visible in one place.
type DashboardStats struct {
	TotalProperties     int64 `json:"total_properties"`
	PublishedProperties int64 `json:"published_properties"`
	FeaturedProperties  int64 `json:"featured_properties"`
	ActiveLeads         int64 `json:"active_leads"`
	NewLeadsThisWeek    int64 `json:"new_leads_this_week"`
	ScheduledViewings   int64 `json:"scheduled_viewings"`
	OpenOffers          int64 `json:"open_offers"`
	PendingTasks        int64 `json:"pending_tasks"`
	OverdueTasks        int64 `json:"overdue_tasks"`
	MonthlyRevenue      int64 `json:"monthly_revenue"`

	LeadsByStatus      map[string]int64 `json:"leads_by_status"`
	PropertiesByStatus map[string]int64 `json:"properties_by_status"`
}

// GetStats returns the dashboard aggregates, served from cache when fresh
func (h *AdminHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	if h.cache != nil {
		var cached DashboardStats
		err := h.cache.Get(ctx, cache.DashboardStatsKey, &cached)
		if err == nil {
			observability.RecordCacheHit()
			c.JSON(http.StatusOK, cached)
			return
		}
		if err == cache.ErrCacheMiss {
			observability.RecordCacheMiss()
		} else {
			observability.RecordCacheError()
			log.Printf("Dashboard cache read failed: %v", err)
		}
	}

	stats, err := h.computeDashboardStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, cache.DashboardStatsKey, stats, h.statsTTL); err != nil {
			log.Printf("Dashboard cache write failed: %v", err)
		}
	}

	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) computeDashboardStats() (*DashboardStats, error) {
	now := time.Now()
	stats := &DashboardStats{
		LeadsByStatus:      make(map[string]int64),
		PropertiesByStatus: make(map[string]int64),
	}

	if err := h.db.Model(&models.Property{}).Count(&stats.TotalProperties).Error; err != nil {
		return nil, err
	}
	if err := h.db.Model(&models.Property{}).Where("published = ?", true).Count(&stats.PublishedProperties).Error; err != nil {
		return nil, err
	}
	if err := h.db.Model(&models.Property{}).Where("featured = ?", true).Count(&stats.FeaturedProperties).Error; err != nil {
		return nil, err
	}

	if err := h.db.Model(&models.Lead{}).
		Where("status NOT IN ?", []string{string(models.LeadStatusWon), string(models.LeadStatusLost)}).
		Count(&stats.ActiveLeads).Error; err != nil {
		return nil, err
	}
	weekAgo := now.AddDate(0, 0, -7)
	if err := h.db.Model(&models.Lead{}).Where("created_at >= ?", weekAgo).Count(&stats.NewLeadsThisWeek).Error; err != nil {
		return nil, err
	}

	if err := h.db.Model(&models.Viewing{}).
		Where("status IN ?", []string{string(models.ViewingStatusScheduled), string(models.ViewingStatusConfirmed)}).
		Where("scheduled_at >= ?", now).
		Count(&stats.ScheduledViewings).Error; err != nil {
		return nil, err
	}

	if err := h.db.Model(&models.Offer{}).
		Where("status IN ?", []string{
			string(models.OfferStatusDraft),
			string(models.OfferStatusSubmitted),
			string(models.OfferStatusCountered),
		}).
		Count(&stats.OpenOffers).Error; err != nil {
		return nil, err
	}

	if err := h.db.Model(&models.Task{}).Where("status = ?", models.TaskStatusPending).Count(&stats.PendingTasks).Error; err != nil {
		return nil, err
	}
	if err := h.db.Model(&models.Task{}).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", models.TaskStatusPending, now).
		Count(&stats.OverdueTasks).Error; err != nil {
		return nil, err
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var revenue *int64
	if err := h.db.Model(&models.Offer{}).
		Where("status = ? AND updated_at >= ?", models.OfferStatusAccepted, monthStart).
		Select("SUM(amount)").
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	if revenue != nil {
		stats.MonthlyRevenue = *revenue
	}

	var leadCounts []struct {
		Status string
		Count  int64
	}
	if err := h.db.Model(&models.Lead{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&leadCounts).Error; err != nil {
		return nil, err
	}
	for _, lc := range leadCounts {
		stats.LeadsByStatus[lc.Status] = lc.Count
	}

	var propCounts []struct {
		Status string
		Count  int64
	}
	if err := h.db.Model(&models.Property{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&propCounts).Error; err != nil {
		return nil, err
	}
	for _, pc := range propCounts {
		stats.PropertiesByStatus[pc.Status] = pc.Count
	}

	return stats, nil
}

// GetStatsHistory returns the daily snapshot rows for trend charts
func (h *AdminHandler) GetStatsHistory(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "90")
	limit, _ := strconv.Atoi(limitStr)

	snapshots, err := h.snapshotService.GetHistory(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}

// GetRecentActivity returns the latest lead activity rows across all leads
func (h *AdminHandler) GetRecentActivity(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, _ := strconv.Atoi(limitStr)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var activities []models.LeadActivity
	err := h.db.Order("created_at DESC, id DESC").Limit(limit).Find(&activities).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activities": activities,
		"count":      len(activities),
	})
}

// priceBucket is one bar of the price distribution chart
type priceBucket struct {
	Label string `json:"label"`
	Min   int64  `json:"min"`
	Max   int64  `json:"max,omitempty"`
	Count int64  `json:"count"`
}

// GetAnalytics returns chart data: sale price distribution, leads by status
// and properties by region
func (h *AdminHandler) GetAnalytics(c *gin.Context) {
	// Price distribution over published sale listings
	bounds := []int64{0, 250000, 500000, 1000000, 2000000, 5000000}
	labels := []string{"< 250k", "250k - 500k", "500k - 1M", "1M - 2M", "2M - 5M", "> 5M"}

	buckets := make([]priceBucket, 0, len(bounds))
	for i := range bounds {
		b := priceBucket{Label: labels[i], Min: bounds[i]}

		q := h.db.Model(&models.Property{}).
			Where("published = ? AND price_sale IS NOT NULL AND price_sale >= ?", true, bounds[i])
		if i < len(bounds)-1 {
			b.Max = bounds[i+1]
			q = q.Where("price_sale < ?", bounds[i+1])
		}
		if err := q.Count(&b.Count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		buckets = append(buckets, b)
	}

	var leadCounts []struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	if err := h.db.Model(&models.Lead{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&leadCounts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var regionCounts []struct {
		RegionID *string `json:"region_id"`
		Count    int64   `json:"count"`
	}
	if err := h.db.Model(&models.Property{}).
		Select("region_id, count(*) as count").
		Group("region_id").
		Scan(&regionCounts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"price_distribution":   buckets,
		"leads_by_status":      leadCounts,
		"properties_by_region": regionCounts,
	})
}

// TriggerSnapshot manually writes today's stats snapshot
func (h *AdminHandler) TriggerSnapshot(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Scheduler not available (MySQL/GORM required)",
		})
		return
	}

	if err := h.scheduler.RunSnapshotNow(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Snapshot written"})
}

// TriggerReindex manually rebuilds the search index
func (h *AdminHandler) TriggerReindex(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Scheduler not available (MySQL/GORM required)",
		})
		return
	}

	log.Println("Admin: Manual reindex trigger requested")

	// Run in goroutine to avoid blocking
	go func() {
		if err := h.scheduler.RunReindexNow(); err != nil {
			log.Printf("Admin: Manual reindex failed: %v", err)
		} else {
			log.Println("Admin: Manual reindex completed successfully")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Reindex started",
		"status":  "running",
	})
}

// RunCleanup executes physical deletion of old audit rows
func (h *AdminHandler) RunCleanup(c *gin.Context) {
	var req struct {
		RetentionDays    int  `json:"retention_days"`
		MaxDeletionCount int  `json:"max_deletion_count"`
		DryRun           bool `json:"dry_run"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cleanupCfg := cleanup.DefaultCleanupConfig()
	if req.RetentionDays > 0 {
		cleanupCfg.RetentionDays = req.RetentionDays
	}
	if req.MaxDeletionCount > 0 {
		cleanupCfg.MaxDeletionCount = req.MaxDeletionCount
	}
	cleanupCfg.DryRun = req.DryRun

	log.Printf("Admin: Running cleanup (retention: %d days, max: %d, dry-run: %v)",
		cleanupCfg.RetentionDays, cleanupCfg.MaxDeletionCount, cleanupCfg.DryRun)

	result, err := h.cleanupService.Run(cleanupCfg)
	if err != nil {
		log.Printf("Admin: Cleanup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetDeleteLogs returns recent delete log entries
func (h *AdminHandler) GetDeleteLogs(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "100")
	limit, _ := strconv.Atoi(limitStr)

	logs, err := h.cleanupService.GetRecentDeleteLogs(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"count": len(logs),
	})
}

// GetDeleteStats returns aggregate deletion statistics
func (h *AdminHandler) GetDeleteStats(c *gin.Context) {
	stats, err := h.cleanupService.GetDeleteStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
