package handlers

import (
	"net/http"
	"time"

	"real-estate-cms/internal/export"
	"real-estate-cms/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ExportHandler streams CSV downloads from the admin screens
type ExportHandler struct {
	db *gorm.DB
}

// NewExportHandler creates a new export handler
func NewExportHandler(db *gorm.DB) *ExportHandler {
	return &ExportHandler{db: db}
}

// ExportLeads downloads the lead list as CSV, honoring the status filter
func (h *ExportHandler) ExportLeads(c *gin.Context) {
	q := h.db.Model(&models.Lead{})
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var leads []models.Lead
	if err := q.Order("created_at DESC").Find(&leads).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := export.Filename("leads", time.Now())
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	if err := export.WriteLeadsCSV(c.Writer, leads); err != nil {
		// Headers are already out; nothing sane to send back
		_ = c.Error(err)
	}
}

// ExportProperties downloads the property list as CSV
func (h *ExportHandler) ExportProperties(c *gin.Context) {
	q := h.db.Model(&models.Property{})
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if c.Query("published") == "true" {
		q = q.Where("published = ?", true)
	}

	var properties []models.Property
	if err := q.Order("created_at DESC").Find(&properties).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := export.Filename("properties", time.Now())
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	if err := export.WritePropertiesCSV(c.Writer, properties); err != nil {
		_ = c.Error(err)
	}
}
