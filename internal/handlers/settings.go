package handlers

import (
	"net/http"

	"real-estate-cms/internal/cache"
	"real-estate-cms/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SettingsHandler handles the site-wide key/value settings
type SettingsHandler struct {
	notifier
	db *gorm.DB
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(db *gorm.DB, cacheCli *cache.Cache) *SettingsHandler {
	return &SettingsHandler{
		notifier: notifier{cache: cacheCli},
		db:       db,
	}
}

// List returns all settings as a flat key/value map
func (h *SettingsHandler) List(c *gin.Context) {
	var settings []models.Setting
	if err := h.db.Find(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	values := make(map[string]string, len(settings))
	for _, s := range settings {
		values[s.Key] = s.Value
	}

	c.JSON(http.StatusOK, values)
}

// Update upserts the supplied keys. Keys not in the request are untouched.
func (h *SettingsHandler) Update(c *gin.Context) {
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no settings supplied"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		for key, value := range req {
			setting := models.Setting{Key: key, Value: value}
			if err := tx.Save(&setting).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	for key := range req {
		h.notifyChange(c, "setting", "updated", key)
	}

	c.JSON(http.StatusOK, gin.H{"updated": len(req)})
}
