package handlers

import (
	"net/http"
	"strconv"
	"time"

	"real-estate-cms/internal/auth"
	"real-estate-cms/internal/cache"
	"real-estate-cms/internal/models"
	"real-estate-cms/internal/pipeline"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ViewingHandler handles admin viewing management
type ViewingHandler struct {
	notifier
	db       *gorm.DB
	pipeline *pipeline.Service
}

// NewViewingHandler creates a new viewing handler
func NewViewingHandler(db *gorm.DB, cacheCli *cache.Cache) *ViewingHandler {
	return &ViewingHandler{
		notifier: notifier{cache: cacheCli},
		db:       db,
		pipeline: pipeline.NewService(db),
	}
}

// List returns viewings filtered by status, property, agent and a date window
func (h *ViewingHandler) List(c *gin.Context) {
	q := h.db.Model(&models.Viewing{})

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if propertyID := c.Query("property_id"); propertyID != "" {
		q = q.Where("property_id = ?", propertyID)
	}
	if agentID := c.Query("agent_id"); agentID != "" {
		q = q.Where("agent_id = ?", agentID)
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			q = q.Where("scheduled_at >= ?", t)
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			q = q.Where("scheduled_at < ?", t.AddDate(0, 0, 1))
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "25"))
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}

	var viewings []models.Viewing
	err := q.Order("scheduled_at ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&viewings).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    viewings,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// ViewingInput is the create/update request body
type ViewingInput struct {
	PropertyID      string    `json:"property_id" binding:"required"`
	LeadID          *string   `json:"lead_id"`
	AgentID         *string   `json:"agent_id"`
	ClientName      string    `json:"client_name"`
	ClientEmail     string    `json:"client_email"`
	ClientPhone     string    `json:"client_phone"`
	ScheduledAt     time.Time `json:"scheduled_at" binding:"required"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes"`
}

// Create schedules a viewing. Overlapping appointments for the same agent or
// property are accepted; the calendar view surfaces collisions visually.
func (h *ViewingHandler) Create(c *gin.Context) {
	var input ViewingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var count int64
	if err := h.db.Model(&models.Property{}).Where("id = ?", input.PropertyID).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if count == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "property not found: " + input.PropertyID})
		return
	}

	viewing := models.Viewing{
		PropertyID:      input.PropertyID,
		LeadID:          input.LeadID,
		AgentID:         input.AgentID,
		ClientName:      input.ClientName,
		ClientEmail:     input.ClientEmail,
		ClientPhone:     input.ClientPhone,
		ScheduledAt:     input.ScheduledAt,
		DurationMinutes: 60,
		Status:          models.ViewingStatusScheduled,
		Notes:           input.Notes,
	}
	if input.DurationMinutes > 0 {
		viewing.DurationMinutes = input.DurationMinutes
	}

	if err := h.db.Create(&viewing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyChange(c, "viewing", "created", viewing.ID)
	c.JSON(http.StatusCreated, viewing)
}

// Update replaces a viewing's schedule and contact fields
func (h *ViewingHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var input ViewingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var viewing models.Viewing
	err := h.db.Where("id = ?", id).First(&viewing).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "viewing not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	viewing.PropertyID = input.PropertyID
	viewing.LeadID = input.LeadID
	viewing.AgentID = input.AgentID
	viewing.ClientName = input.ClientName
	viewing.ClientEmail = input.ClientEmail
	viewing.ClientPhone = input.ClientPhone
	viewing.ScheduledAt = input.ScheduledAt
	if input.DurationMinutes > 0 {
		viewing.DurationMinutes = input.DurationMinutes
	}
	viewing.Notes = input.Notes

	if err := h.db.Save(&viewing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyChange(c, "viewing", "updated", viewing.ID)
	c.JSON(http.StatusOK, viewing)
}

// ChangeStatus moves the viewing through its lifecycle
func (h *ViewingHandler) ChangeStatus(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	to := models.ViewingStatus(req.Status)
	if !to.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid viewing status: " + req.Status})
		return
	}

	viewing, err := h.pipeline.ChangeViewingStatus(id, to, auth.ActorFromContext(c))
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "viewing not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyChange(c, "viewing", "updated", viewing.ID)
	c.JSON(http.StatusOK, viewing)
}

// Delete removes a viewing
func (h *ViewingHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	result := h.db.Where("id = ?", id).Delete(&models.Viewing{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "viewing not found"})
		return
	}

	h.notifyChange(c, "viewing", "deleted", id)
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
