package handlers

import (
	"log"
	"net/http"

	"real-estate-cms/internal/auth"
	"real-estate-cms/internal/cache"
	"real-estate-cms/internal/cleanup"
	"real-estate-cms/internal/database"
	"real-estate-cms/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegionHandler handles admin region management
type RegionHandler struct {
	notifier
	gdb        *database.GormDB
	cleanupSvc *cleanup.Service
}

// NewRegionHandler creates a new region handler
func NewRegionHandler(gdb *database.GormDB, cacheCli *cache.Cache) *RegionHandler {
	return &RegionHandler{
		notifier:   notifier{cache: cacheCli},
		gdb:        gdb,
		cleanupSvc: cleanup.NewService(gdb.DB()),
	}
}

// List returns all regions in display order
func (h *RegionHandler) List(c *gin.Context) {
	var regions []models.Region
	err := h.gdb.DB().Order("display_order ASC, name_en ASC").Find(&regions).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": regions,
		"count": len(regions),
	})
}

// RegionInput is the create/update request body
type RegionInput struct {
	NameEN        string `json:"name_en" binding:"required"`
	NameES        string `json:"name_es"`
	DescriptionEN string `json:"description_en"`
	DescriptionES string `json:"description_es"`
	Slug          string `json:"slug" binding:"required"`
	ImageURL      string `json:"image_url"`
	Featured      *bool  `json:"featured"`
	DisplayOrder  *int   `json:"display_order"`
}

func (in *RegionInput) apply(r *models.Region) {
	r.NameEN = in.NameEN
	r.NameES = in.NameES
	r.DescriptionEN = in.DescriptionEN
	r.DescriptionES = in.DescriptionES
	r.Slug = in.Slug
	r.ImageURL = in.ImageURL
	if in.Featured != nil {
		r.Featured = *in.Featured
	}
	if in.DisplayOrder != nil {
		r.DisplayOrder = *in.DisplayOrder
	}
}

// Create inserts a new region. The slug must be unique.
func (h *RegionHandler) Create(c *gin.Context) {
	var input RegionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var count int64
	if err := h.gdb.DB().Model(&models.Region{}).Where("slug = ?", input.Slug).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "slug already in use: " + input.Slug})
		return
	}

	var region models.Region
	input.apply(&region)

	if err := h.gdb.DB().Create(&region).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyChange(c, "region", "created", region.ID)
	c.JSON(http.StatusCreated, region)
}

// Update replaces a region's fields
func (h *RegionHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var input RegionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var region models.Region
	err := h.gdb.DB().Where("id = ?", id).First(&region).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "region not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if input.Slug != region.Slug {
		var count int64
		if err := h.gdb.DB().Model(&models.Region{}).Where("slug = ? AND id <> ?", input.Slug, id).Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "slug already in use: " + input.Slug})
			return
		}
	}

	input.apply(&region)

	if err := h.gdb.DB().Save(&region).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyChange(c, "region", "updated", region.ID)
	c.JSON(http.StatusOK, region)
}

// Delete removes a region. Properties referencing it stay and lose their
// region assignment.
func (h *RegionHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	var region models.Region
	err := h.gdb.DB().Where("id = ?", id).First(&region).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "region not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.gdb.DeleteRegion(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.cleanupSvc.LogManualDelete("region", id, region.NameEN, auth.ActorFromContext(c)); err != nil {
		log.Printf("Failed to write delete log for region %s: %v", id, err)
	}

	h.notifyChange(c, "region", "deleted", id)
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
