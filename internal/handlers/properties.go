package handlers

import (
	"log"
	"net/http"
	"strconv"

	"real-estate-cms/internal/auth"
	"real-estate-cms/internal/cache"
	"real-estate-cms/internal/cleanup"
	"real-estate-cms/internal/database"
	"real-estate-cms/internal/models"
	"real-estate-cms/internal/search"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PropertyHandler handles admin property management
type PropertyHandler struct {
	notifier
	gdb        *database.GormDB
	searchCli  *search.SearchClient
	cleanupSvc *cleanup.Service
}

// NewPropertyHandler creates a new property handler. searchCli and cache may
// be nil when those backends are not configured.
func NewPropertyHandler(gdb *database.GormDB, searchCli *search.SearchClient, cacheCli *cache.Cache) *PropertyHandler {
	return &PropertyHandler{
		notifier:   notifier{cache: cacheCli},
		gdb:        gdb,
		searchCli:  searchCli,
		cleanupSvc: cleanup.NewService(gdb.DB()),
	}
}

// PropertyInput is the create/update request body
type PropertyInput struct {
	TitleEN       string          `json:"title_en" binding:"required"`
	TitleES       string          `json:"title_es"`
	DescriptionEN string          `json:"description_en"`
	DescriptionES string          `json:"description_es"`
	Type          string          `json:"type" binding:"required"`
	ListingType   string          `json:"listing_type"`
	Status        string          `json:"status"`
	PriceSale     *int64          `json:"price_sale"`
	PriceRent     *int64          `json:"price_rent"`
	Currency      string          `json:"currency"`
	Bedrooms      int             `json:"bedrooms"`
	Bathrooms     int             `json:"bathrooms"`
	Area          *float64        `json:"area"`
	PlotSize      *float64        `json:"plot_size"`
	Floor         *int            `json:"floor"`
	Features      datatypes.JSON  `json:"features"`
	Amenities     datatypes.JSON  `json:"amenities"`
	Featured      *bool           `json:"featured"`
	Published     *bool           `json:"published"`
	RegionID      *string         `json:"region_id"`
	AgentID       *string         `json:"agent_id"`
}

func (in *PropertyInput) validate() (string, bool) {
	if !models.PropertyType(in.Type).Valid() {
		return "invalid property type: " + in.Type, false
	}
	if in.ListingType != "" && !models.ListingType(in.ListingType).Valid() {
		return "invalid listing type: " + in.ListingType, false
	}
	if in.Status != "" && !models.PropertyStatus(in.Status).Valid() {
		return "invalid status: " + in.Status, false
	}
	return "", true
}

func (in *PropertyInput) apply(p *models.Property) {
	p.TitleEN = in.TitleEN
	p.TitleES = in.TitleES
	p.DescriptionEN = in.DescriptionEN
	p.DescriptionES = in.DescriptionES
	p.Type = models.PropertyType(in.Type)
	if in.ListingType != "" {
		p.ListingType = models.ListingType(in.ListingType)
	}
	if in.Status != "" {
		p.Status = models.PropertyStatus(in.Status)
	}
	p.PriceSale = in.PriceSale
	p.PriceRent = in.PriceRent
	if in.Currency != "" {
		p.Currency = in.Currency
	}
	p.Bedrooms = in.Bedrooms
	p.Bathrooms = in.Bathrooms
	p.Area = in.Area
	p.PlotSize = in.PlotSize
	p.Floor = in.Floor
	if in.Features != nil {
		p.Features = in.Features
	}
	if in.Amenities != nil {
		p.Amenities = in.Amenities
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
	if in.Published != nil {
		p.Published = *in.Published
	}
	p.RegionID = in.RegionID
	p.AgentID = in.AgentID
}

// List returns a filtered, paginated property list including unpublished rows
func (h *PropertyHandler) List(c *gin.Context) {
	filters := parsePropertyFilters(c)
	filters.IncludeUnpublished = true

	page, err := h.gdb.ListProperties(filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, page)
}

// Get returns a single property with its images and documents
func (h *PropertyHandler) Get(c *gin.Context) {
	id := c.Param("id")

	property, err := h.gdb.GetPropertyByID(id)
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	images, err := h.gdb.GetPropertyImages(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	documents, err := h.gdb.GetPropertyDocuments(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"property":  property,
		"images":    images,
		"documents": documents,
	})
}

// Create inserts a new property
func (h *PropertyHandler) Create(c *gin.Context) {
	var input PropertyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg, ok := input.validate(); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	property := models.Property{
		ListingType: models.ListingTypeSale,
		Status:      models.PropertyStatusAvailable,
		Currency:    "EUR",
	}
	input.apply(&property)

	if err := h.gdb.DB().Create(&property).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.syncSearchIndex(&property)
	h.notifyChange(c, "property", "created", property.ID)

	c.JSON(http.StatusCreated, property)
}

// Update replaces a property's editable fields
func (h *PropertyHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var input PropertyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg, ok := input.validate(); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	property, err := h.gdb.GetPropertyByID(id)
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	input.apply(property)

	if err := h.gdb.DB().Save(property).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.syncSearchIndex(property)
	h.notifyChange(c, "property", "updated", property.ID)

	c.JSON(http.StatusOK, property)
}

// SetPublished flips the publish flag without touching other fields
func (h *PropertyHandler) SetPublished(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Published *bool `json:"published" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	property, err := h.gdb.GetPropertyByID(id)
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.gdb.DB().Model(property).Update("published", *req.Published).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	property.Published = *req.Published

	h.syncSearchIndex(property)
	h.notifyChange(c, "property", "updated", property.ID)

	c.JSON(http.StatusOK, property)
}

// Delete hard-deletes a property with its images and documents
func (h *PropertyHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	property, err := h.gdb.GetPropertyByID(id)
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.gdb.DeleteProperty(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.cleanupSvc.LogManualDelete("property", id, property.TitleEN, auth.ActorFromContext(c)); err != nil {
		log.Printf("Failed to write delete log for property %s: %v", id, err)
	}

	if h.searchCli != nil {
		if err := h.searchCli.RemoveProperty(id); err != nil {
			log.Printf("Failed to remove property %s from search index: %v", id, err)
		}
	}
	h.notifyChange(c, "property", "deleted", id)

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ReorderImages applies a new sort order to a property's images
func (h *PropertyHandler) ReorderImages(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		ImageIDs []int64 `json:"image_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.gdb.DB().Transaction(func(tx *gorm.DB) error {
		for i, imageID := range req.ImageIDs {
			if err := tx.Model(&models.PropertyImage{}).
				Where("id = ? AND property_id = ?", imageID, id).
				Update("sort_order", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	images, err := h.gdb.GetPropertyImages(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyChange(c, "property", "updated", id)
	c.JSON(http.StatusOK, gin.H{"images": images})
}

// syncSearchIndex keeps the search index in step with the row: published
// properties are (re)indexed, everything else is removed. Index failures are
// logged, never surfaced; the nightly reindex repairs drift.
func (h *PropertyHandler) syncSearchIndex(p *models.Property) {
	if h.searchCli == nil {
		return
	}

	if !p.Published {
		if err := h.searchCli.RemoveProperty(p.ID); err != nil {
			log.Printf("Failed to remove property %s from search index: %v", p.ID, err)
		}
		return
	}

	var regionSlug, regionName, agentName string
	if p.RegionID != nil {
		var region models.Region
		if err := h.gdb.DB().Where("id = ?", *p.RegionID).First(&region).Error; err == nil {
			regionSlug = region.Slug
			regionName = region.NameEN
		}
	}
	if p.AgentID != nil {
		var agent models.Agent
		if err := h.gdb.DB().Where("id = ?", *p.AgentID).First(&agent).Error; err == nil {
			agentName = agent.NameEN
		}
	}

	doc := search.DocFromProperty(p, regionSlug, regionName, agentName)
	if err := h.searchCli.IndexProperty(doc); err != nil {
		log.Printf("Failed to index property %s: %v", p.ID, err)
	}
}

// parsePropertyFilters reads the shared listing query parameters. Used by the
// public listing endpoint and the admin list.
func parsePropertyFilters(c *gin.Context) database.PropertyFilters {
	filters := database.PropertyFilters{
		Search:      c.Query("search"),
		Type:        c.Query("type"),
		ListingType: c.Query("listing_type"),
		RegionSlug:  c.Query("region"),
		AgentID:     c.Query("agent_id"),
		Status:      c.Query("status"),
		SortBy:      c.Query("sort"),
	}

	if v := c.Query("min_price"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filters.MinPrice = &n
		}
	}
	if v := c.Query("max_price"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
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

	return filters
}
