package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"real-estate-cms/internal/auth"
	"real-estate-cms/internal/cache"
	"real-estate-cms/internal/cleanup"
	"real-estate-cms/internal/models"
	"real-estate-cms/internal/pipeline"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LeadHandler handles admin lead management
type LeadHandler struct {
	notifier
	db         *gorm.DB
	pipeline   *pipeline.Service
	cleanupSvc *cleanup.Service
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(db *gorm.DB, cacheCli *cache.Cache) *LeadHandler {
	return &LeadHandler{
		notifier:   notifier{cache: cacheCli},
		db:         db,
		pipeline:   pipeline.NewService(db),
		cleanupSvc: cleanup.NewService(db),
	}
}

// List returns leads filtered by status, source and a name/email search
func (h *LeadHandler) List(c *gin.Context) {
	q := h.db.Model(&models.Lead{})

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if source := c.Query("source"); source != "" {
		q = q.Where("source = ?", source)
	}
	if propertyID := c.Query("property_id"); propertyID != "" {
		q = q.Where("property_id = ?", propertyID)
	}
	if agentID := c.Query("agent_id"); agentID != "" {
		q = q.Where("agent_id = ?", agentID)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + search + "%"
		q = q.Where("name LIKE ? OR email LIKE ? OR phone LIKE ?", like, like, like)
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

	var leads []models.Lead
	err := q.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&leads).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    leads,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// Get returns a lead with its activity trail
func (h *LeadHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var lead models.Lead
	err := h.db.Where("id = ?", id).First(&lead).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	activities, err := h.pipeline.GetLeadActivities(id, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lead":       lead,
		"activities": activities,
	})
}

// LeadInput is the create/update request body
type LeadInput struct {
	Name       string  `json:"name" binding:"required"`
	Email      string  `json:"email" binding:"required,email"`
	Phone      string  `json:"phone"`
	Message    string  `json:"message"`
	Source     string  `json:"source"`
	PropertyID *string `json:"property_id"`
	AgentID    *string `json:"agent_id"`
	BudgetMin  *int64  `json:"budget_min"`
	BudgetMax  *int64  `json:"budget_max"`
}

// Create inserts a manually entered lead with its initial activity row
func (h *LeadHandler) Create(c *gin.Context) {
	var input LeadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	source := models.LeadSourceManual
	if input.Source != "" {
		source = models.LeadSource(input.Source)
	}

	lead := models.Lead{
		Name:       input.Name,
		Email:      input.Email,
		Phone:      input.Phone,
		Message:    input.Message,
		Status:     models.LeadStatusNew,
		Source:     source,
		PropertyID: input.PropertyID,
		AgentID:    input.AgentID,
		BudgetMin:  input.BudgetMin,
		BudgetMax:  input.BudgetMax,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&lead).Error; err != nil {
			return err
		}
		return h.pipeline.RecordLeadCreated(tx, &lead)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyChange(c, "lead", "created", lead.ID)
	c.JSON(http.StatusCreated, lead)
}

// Update replaces a lead's contact and assignment fields. Status changes go
// through ChangeStatus so the audit trail stays complete.
func (h *LeadHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var input LeadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var lead models.Lead
	err := h.db.Where("id = ?", id).First(&lead).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	lead.Name = input.Name
	lead.Email = input.Email
	lead.Phone = input.Phone
	lead.Message = input.Message
	lead.PropertyID = input.PropertyID
	lead.AgentID = input.AgentID
	lead.BudgetMin = input.BudgetMin
	lead.BudgetMax = input.BudgetMax
	if input.Source != "" {
		lead.Source = models.LeadSource(input.Source)
	}

	if err := h.db.Save(&lead).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyChange(c, "lead", "updated", lead.ID)
	c.JSON(http.StatusOK, lead)
}

// ChangeStatus moves the lead to a new pipeline stage
func (h *LeadHandler) ChangeStatus(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	to := models.LeadStatus(req.Status)
	if !to.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lead status: " + req.Status})
		return
	}

	lead, err := h.pipeline.ChangeLeadStatus(id, to, auth.ActorFromContext(c))
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyChange(c, "lead", "updated", lead.ID)
	c.JSON(http.StatusOK, lead)
}

// AddNote appends a freeform note to the lead's activity trail
func (h *LeadHandler) AddNote(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Note string `json:"note" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var lead models.Lead
	err := h.db.Where("id = ?", id).First(&lead).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	activity, err := h.pipeline.AddLeadNote(id, req.Note, auth.ActorFromContext(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, activity)
}

// Delete hard-deletes a lead together with its activity trail
func (h *LeadHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	var lead models.Lead
	err := h.db.Where("id = ?", id).First(&lead).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lead_id = ?", id).Delete(&models.LeadActivity{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Lead{}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.cleanupSvc.LogManualDelete("lead", id, lead.Name, auth.ActorFromContext(c)); err != nil {
		log.Printf("Failed to write delete log for lead %s: %v", id, err)
	}

	h.notifyChange(c, "lead", "deleted", id)
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
