package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"real-estate-cms/internal/auth"
	"real-estate-cms/internal/cache"
	"real-estate-cms/internal/config"
	"real-estate-cms/internal/database"
	"real-estate-cms/internal/handlers"
	"real-estate-cms/internal/models"
	"real-estate-cms/internal/observability"
	"real-estate-cms/internal/pipeline"
	"real-estate-cms/internal/ratelimit"
	"real-estate-cms/internal/scheduler"
	"real-estate-cms/internal/search"
	"real-estate-cms/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

var (
	db              *database.DB
	gormDB          *database.GormDB
	searchClient    *search.SearchClient
	cacheClient     *cache.Cache
	uploader        *storage.S3Uploader
	appConfig       *config.Config
	authService     *auth.Service
	inquiryLimiter  *ratelimit.ClientLimiter
	appScheduler    *scheduler.Scheduler
	pipelineService *pipeline.Service
)

func main() {
	// Load .env for local development; real deployments set the environment
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	configPath := getEnv("CONFIG_PATH", "config/config.yaml")
	var err error
	appConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}

	// Initialize database based on configuration
	dbType := appConfig.Database.Type
	if dbType == "" {
		dbType = getEnv("DB_TYPE", "mysql")
	}

	if dbType == "mysql" {
		log.Println("Using MySQL with GORM")
		mysqlCfg := appConfig.Database.MySQL

		portStr := ""
		if mysqlCfg.Port > 0 {
			portStr = fmt.Sprintf("%d", mysqlCfg.Port)
		}

		gormDB, err = database.NewGormDB(
			getEnvOrConfig(mysqlCfg.Host, "DB_HOST", "mysql"),
			getEnvOrConfig(portStr, "DB_PORT", "3306"),
			getEnvOrConfig(mysqlCfg.User, "DB_USER", "cms_user"),
			getEnvOrConfig(mysqlCfg.Password, "DB_PASSWORD", "cms_pass"),
			getEnvOrConfig(mysqlCfg.Database, "DB_NAME", "cms_db"),
		)
		if err != nil {
			log.Fatalf("Failed to connect to MySQL: %v", err)
		}
		defer gormDB.Close()

		if err := gormDB.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
	} else {
		log.Println("Using PostgreSQL (public read path only)")
		pgCfg := appConfig.Database.Postgres

		portStr := ""
		if pgCfg.Port > 0 {
			portStr = fmt.Sprintf("%d", pgCfg.Port)
		}

		db, err = database.NewDB(
			getEnvOrConfig(pgCfg.Host, "DB_HOST", "db"),
			getEnvOrConfig(portStr, "DB_PORT", "5432"),
			getEnvOrConfig(pgCfg.User, "DB_USER", "cms_user"),
			getEnvOrConfig(pgCfg.Password, "DB_PASSWORD", "cms_pass"),
			getEnvOrConfig(pgCfg.Database, "DB_NAME", "cms_db"),
		)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
	}

	// Initialize Meilisearch
	meilisearchHost := getEnvOrConfig(appConfig.Search.Meilisearch.Host, "MEILISEARCH_HOST", "")
	if meilisearchHost != "" {
		meilisearchKey := getEnvOrConfig(appConfig.Search.Meilisearch.APIKey, "MEILISEARCH_KEY", "")
		searchClient = search.NewSearchClient(meilisearchHost, meilisearchKey)

		if err := searchClient.InitIndex(); err != nil {
			log.Printf("Warning: Failed to initialize search index: %v", err)
		}
	} else {
		log.Println("Meilisearch not configured, search endpoints disabled")
	}

	// Initialize Redis cache and changefeed
	redisAddr := getEnvOrConfig(appConfig.Redis.Addr, "REDIS_ADDR", "")
	if redisAddr != "" {
		cacheClient = cache.New(redisAddr, appConfig.Redis.Password, appConfig.Redis.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := cacheClient.Ping(ctx); err != nil {
			log.Printf("Warning: Redis unreachable at %s: %v. Caching and changefeed disabled.", redisAddr, err)
			cacheClient = nil
		}
		cancel()
		if cacheClient != nil {
			defer cacheClient.Close()
		}
	} else {
		log.Println("Redis not configured, caching and changefeed disabled")
	}

	// Initialize object storage
	storageCfg := appConfig.Storage
	if storageCfg.Bucket != "" {
		uploader, err = storage.NewS3Uploader(context.Background(), storage.S3Config{
			Bucket:          storageCfg.Bucket,
			Region:          storageCfg.Region,
			Endpoint:        storageCfg.Endpoint,
			AccessKeyID:     getEnvOrConfig(storageCfg.AccessKeyID, "S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnvOrConfig(storageCfg.SecretAccessKey, "S3_SECRET_ACCESS_KEY", ""),
			PublicBaseURL:   storageCfg.PublicBaseURL,
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize object storage: %v. Uploads disabled.", err)
			uploader = nil
		}
	} else {
		log.Println("Object storage not configured, uploads disabled")
	}

	// Rate limiter for the public write endpoints
	inquiryLimiter = ratelimit.NewClientLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)
	log.Printf("Rate limiter initialized: %d req/min, %d req/hour per client (enabled: %v)",
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)

	// Admin session auth
	if appConfig.Auth.AdminEmail == "" || appConfig.Auth.AdminPassword == "" || appConfig.Auth.SessionSecret == "" {
		log.Println("Warning: admin credentials or session secret not configured, admin API disabled")
	} else {
		authService = auth.NewService(appConfig.Auth)
	}

	// Pipeline service and scheduler (MySQL only)
	if gormDB != nil {
		pipelineService = pipeline.NewService(gormDB.DB())

		appScheduler = scheduler.NewScheduler(gormDB, searchClient, appConfig)
		if err := appScheduler.Start(); err != nil {
			log.Printf("Warning: Failed to start scheduler: %v", err)
		}
		defer appScheduler.Stop()
	}

	// Setup Gin router
	r := gin.Default()
	r.Use(observability.Middleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     appConfig.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	// Public routes
	r.GET("/health", healthCheck)
	r.GET("/metrics", observability.Handler())
	r.GET("/api/properties", getProperties)
	r.GET("/api/properties/:id", getProperty)
	r.GET("/api/regions", getRegions)
	r.GET("/api/regions/:slug", getRegion)
	r.GET("/api/agents", getAgents)
	r.GET("/api/settings", getPublicSettings)
	r.GET("/api/search", searchProperties)
	r.GET("/api/search/facets", getSearchFacets)
	r.POST("/api/inquiries", rateLimitMiddleware(), submitInquiry)

	// Admin API routes
	if gormDB != nil && authService != nil {
		authHandler := handlers.NewAuthHandler(authService, inquiryLimiter)
		r.POST("/api/admin/login", authHandler.Login)

		adminHandler := handlers.NewAdminHandler(gormDB, cacheClient, appScheduler, appConfig)
		propertyHandler := handlers.NewPropertyHandler(gormDB, searchClient, cacheClient)
		leadHandler := handlers.NewLeadHandler(gormDB.DB(), cacheClient)
		offerHandler := handlers.NewOfferHandler(gormDB.DB(), cacheClient)
		viewingHandler := handlers.NewViewingHandler(gormDB.DB(), cacheClient)
		taskHandler := handlers.NewTaskHandler(gormDB.DB(), cacheClient)
		agentHandler := handlers.NewAgentHandler(gormDB.DB(), cacheClient)
		regionHandler := handlers.NewRegionHandler(gormDB, cacheClient)
		uploadHandler := handlers.NewUploadHandler(gormDB.DB(), uploader, cacheClient)
		settingsHandler := handlers.NewSettingsHandler(gormDB.DB(), cacheClient)
		exportHandler := handlers.NewExportHandler(gormDB.DB())
		changesHandler := handlers.NewChangesHandler(cacheClient)

		admin := r.Group("/api/admin", authService.Middleware())
		{
			admin.POST("/logout", authHandler.Logout)
			admin.GET("/me", authHandler.Me)

			// Dashboard and analytics
			admin.GET("/stats", adminHandler.GetStats)
			admin.GET("/stats/history", adminHandler.GetStatsHistory)
			admin.GET("/activity", adminHandler.GetRecentActivity)
			admin.GET("/analytics", adminHandler.GetAnalytics)
			admin.GET("/changes", changesHandler.Stream)

			// Properties
			admin.GET("/properties", propertyHandler.List)
			admin.POST("/properties", propertyHandler.Create)
			admin.GET("/properties/:id", propertyHandler.Get)
			admin.PUT("/properties/:id", propertyHandler.Update)
			admin.PATCH("/properties/:id/publish", propertyHandler.SetPublished)
			admin.DELETE("/properties/:id", propertyHandler.Delete)
			admin.PUT("/properties/:id/images/order", propertyHandler.ReorderImages)
			admin.POST("/properties/:id/images", uploadHandler.UploadPropertyImage)
			admin.DELETE("/properties/:id/images/:imageId", uploadHandler.DeletePropertyImage)
			admin.POST("/properties/:id/documents", uploadHandler.UploadPropertyDocument)
			admin.DELETE("/properties/:id/documents/:docId", uploadHandler.DeletePropertyDocument)

			// Leads
			admin.GET("/leads", leadHandler.List)
			admin.POST("/leads", leadHandler.Create)
			admin.GET("/leads/:id", leadHandler.Get)
			admin.PUT("/leads/:id", leadHandler.Update)
			admin.PATCH("/leads/:id/status", leadHandler.ChangeStatus)
			admin.POST("/leads/:id/notes", leadHandler.AddNote)
			admin.DELETE("/leads/:id", leadHandler.Delete)

			// Offers
			admin.GET("/offers", offerHandler.List)
			admin.POST("/offers", offerHandler.Create)
			admin.GET("/offers/:id", offerHandler.Get)
			admin.PATCH("/offers/:id/status", offerHandler.ChangeStatus)
			admin.PATCH("/offers/:id/amount", offerHandler.UpdateAmount)
			admin.DELETE("/offers/:id", offerHandler.Delete)

			// Viewings
			admin.GET("/viewings", viewingHandler.List)
			admin.POST("/viewings", viewingHandler.Create)
			admin.PUT("/viewings/:id", viewingHandler.Update)
			admin.PATCH("/viewings/:id/status", viewingHandler.ChangeStatus)
			admin.DELETE("/viewings/:id", viewingHandler.Delete)

			// Tasks
			admin.GET("/tasks", taskHandler.List)
			admin.POST("/tasks", taskHandler.Create)
			admin.PUT("/tasks/:id", taskHandler.Update)
			admin.PATCH("/tasks/:id/status", taskHandler.ChangeStatus)
			admin.DELETE("/tasks/:id", taskHandler.Delete)

			// Agents
			admin.GET("/agents", agentHandler.List)
			admin.POST("/agents", agentHandler.Create)
			admin.GET("/agents/:id", agentHandler.Get)
			admin.PUT("/agents/:id", agentHandler.Update)
			admin.DELETE("/agents/:id", agentHandler.Delete)
			admin.POST("/agents/:id/photo", uploadHandler.UploadAgentPhoto)

			// Regions
			admin.GET("/regions", regionHandler.List)
			admin.POST("/regions", regionHandler.Create)
			admin.PUT("/regions/:id", regionHandler.Update)
			admin.DELETE("/regions/:id", regionHandler.Delete)

			// Settings
			admin.GET("/settings", settingsHandler.List)
			admin.PUT("/settings", settingsHandler.Update)
			admin.POST("/settings/logo", uploadHandler.UploadSiteLogo)

			// Exports
			admin.GET("/exports/leads", exportHandler.ExportLeads)
			admin.GET("/exports/properties", exportHandler.ExportProperties)

			// Maintenance
			admin.POST("/search/reindex", adminHandler.TriggerReindex)
			admin.POST("/snapshots/run", adminHandler.TriggerSnapshot)
			admin.POST("/cleanup/run", adminHandler.RunCleanup)
			admin.GET("/cleanup/logs", adminHandler.GetDeleteLogs)
			admin.GET("/cleanup/stats", adminHandler.GetDeleteStats)
		}

		log.Println("Admin API routes registered at /api/admin/*")
	}

	port := getEnvOrConfig(appConfig.Server.Port, "PORT", "8085")
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

// getProperties lists published properties with the composed filter set
func getProperties(c *gin.Context) {
	if gormDB != nil {
		filters := database.PropertyFilters{
			Search:      c.Query("search"),
			Type:        c.Query("type"),
			ListingType: c.Query("listing_type"),
			RegionSlug:  c.Query("region"),
			AgentID:     c.Query("agent_id"),
			SortBy:      c.Query("sort"),
		}

		if v := c.Query("min_price"); v != "" {
			if n, parseErr := strconv.ParseInt(v, 10, 64); parseErr == nil {
				filters.MinPrice = &n
			}
		}
		if v := c.Query("max_price"); v != "" {
			if n, parseErr := strconv.ParseInt(v, 10, 64); parseErr == nil {
				filters.MaxPrice = &n
			}
		}
		if v := c.Query("min_bedrooms"); v != "" {
			filters.MinBedrooms, _ = strconv.Atoi(v)
		}
		if v := c.Query("min_bathrooms"); v != "" {
			filters.MinBathrooms, _ = strconv.Atoi(v)
		}
		filters.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
		filters.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "0"))

		result, err := gormDB.ListProperties(filters)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	// Legacy fallback: unfiltered published list with basic sorting
	properties, err := db.GetPublishedProperties(c.Query("sort"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": properties, "total": len(properties)})
}

// getProperty returns a published property with its gallery and documents
func getProperty(c *gin.Context) {
	id := c.Param("id")

	if gormDB == nil {
		property, err := db.GetPropertyByID(id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"property": property})
		return
	}

	property, err := gormDB.GetPropertyByID(id)
	if err != nil || !property.Published {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	images, _ := gormDB.GetPropertyImages(id)
	documents, _ := gormDB.GetPropertyDocuments(id)

	c.JSON(http.StatusOK, gin.H{
		"property":  property,
		"images":    images,
		"documents": documents,
	})
}

// getRegions lists all regions for the public navigation
func getRegions(c *gin.Context) {
	if gormDB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "regions require MySQL/GORM"})
		return
	}

	var regions []models.Region
	if err := gormDB.DB().Order("display_order ASC, name_en ASC").Find(&regions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": regions})
}

// getRegion returns one region by slug with its published property count
func getRegion(c *gin.Context) {
	if gormDB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "regions require MySQL/GORM"})
		return
	}

	region, err := gormDB.GetRegionBySlug(c.Param("slug"))
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Region not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var propertyCount int64
	gormDB.DB().Model(&models.Property{}).
		Where("region_id = ? AND published = ?", region.ID, true).
		Count(&propertyCount)

	c.JSON(http.StatusOK, gin.H{
		"region":         region,
		"property_count": propertyCount,
	})
}

// getAgents lists agents for the public team page
func getAgents(c *gin.Context) {
	if gormDB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "agents require MySQL/GORM"})
		return
	}

	q := gormDB.DB().Model(&models.Agent{})
	if c.Query("featured") == "true" {
		q = q.Where("featured = ?", true)
	}

	var agents []models.Agent
	if err := q.Order("display_order ASC, name_en ASC").Find(&agents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": agents})
}

// publicSettingKeys are the only settings exposed without authentication
var publicSettingKeys = []string{
	models.SettingSiteLogo,
	models.SettingContactEmail,
	models.SettingContactPhone,
}

func getPublicSettings(c *gin.Context) {
	if gormDB == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	var settings []models.Setting
	if err := gormDB.DB().Where("`key` IN ?", publicSettingKeys).Find(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	values := make(map[string]string, len(settings))
	for _, s := range settings {
		values[s.Key] = s.Value
	}
	c.JSON(http.StatusOK, values)
}

// searchProperties performs free-text search over published listings
func searchProperties(c *gin.Context) {
	if searchClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search not configured"})
		return
	}

	query := c.Query("q")
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil {
		limit = 20
	}

	result, err := searchClient.Search(query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// getSearchFacets retrieves facet distributions for the search UI
func getSearchFacets(c *gin.Context) {
	if searchClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search not configured"})
		return
	}

	facets := []string{"type", "listing_type", "bedrooms", "region_slug"}
	facetDist, err := searchClient.GetFacets(facets)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"facets": facets, "distribution": facetDist})
}

// submitInquiry creates a lead from the public contact form. When the form
// was reached from a property page the property reference is kept.
func submitInquiry(c *gin.Context) {
	if gormDB == nil || pipelineService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "inquiries require MySQL/GORM"})
		return
	}

	var req struct {
		Name       string  `json:"name" binding:"required"`
		Email      string  `json:"email" binding:"required,email"`
		Phone      string  `json:"phone"`
		Message    string  `json:"message"`
		PropertyID *string `json:"property_id"`
		BudgetMin  *int64  `json:"budget_min"`
		BudgetMax  *int64  `json:"budget_max"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	source := models.LeadSourceWebsite
	if req.PropertyID != nil {
		// Only keep valid references; a stale property link must not fail the inquiry
		var count int64
		gormDB.DB().Model(&models.Property{}).Where("id = ?", *req.PropertyID).Count(&count)
		if count == 0 {
			req.PropertyID = nil
		} else {
			source = models.LeadSourcePropertyPage
		}
	}

	lead := models.Lead{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Message:    req.Message,
		Status:     models.LeadStatusNew,
		Source:     source,
		PropertyID: req.PropertyID,
		BudgetMin:  req.BudgetMin,
		BudgetMax:  req.BudgetMax,
	}

	err := gormDB.DB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&lead).Error; err != nil {
			return err
		}
		return pipelineService.RecordLeadCreated(tx, &lead)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if cacheClient != nil {
		cacheClient.PublishChange(c.Request.Context(), "lead", "created", lead.ID)
		observability.RecordChangefeedEvent()
		if err := cacheClient.Del(c.Request.Context(), cache.DashboardStatsKey); err != nil {
			log.Printf("Failed to invalidate dashboard cache: %v", err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{"id": lead.ID, "message": "Thank you, we will be in touch shortly"})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns config value if set, otherwise falls back to environment variable, then default
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}

// rateLimitMiddleware enforces the per-client limit on public writes
func rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !inquiryLimiter.AllowRequest(c.ClientIP()) {
			stats := inquiryLimiter.GetStats(c.ClientIP())
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": "Too many requests. Please try again later.",
				"stats":   stats,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
