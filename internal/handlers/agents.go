package handlers

import (
	"log"
	"net/http"

	"real-estate-cms/internal/auth"
	"real-estate-cms/internal/cache"
	"real-estate-cms/internal/cleanup"
	"real-estate-cms/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AgentHandler handles admin agent management
type AgentHandler struct {
	notifier
	db         *gorm.DB
	cleanupSvc *cleanup.Service
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(db *gorm.DB, cacheCli *cache.Cache) *AgentHandler {
	return &AgentHandler{
		notifier:   notifier{cache: cacheCli},
		db:         db,
		cleanupSvc: cleanup.NewService(db),
	}
}

// List returns all agents in display order
func (h *AgentHandler) List(c *gin.Context) {
	var agents []models.Agent
	err := h.db.Order("display_order ASC, name_en ASC").Find(&agents).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": agents,
		"count": len(agents),
	})
}

// Get returns a single agent
func (h *AgentHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var agent models.Agent
	err := h.db.Where("id = ?", id).First(&agent).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "agent not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, agent)
}

// AgentInput is the create/update request body
type AgentInput struct {
	NameEN       string         `json:"name_en" binding:"required"`
	NameES       string         `json:"name_es"`
	BioEN        string         `json:"bio_en"`
	BioES        string         `json:"bio_es"`
	Email        string         `json:"email" binding:"required,email"`
	Phone        string         `json:"phone"`
	PhotoURL     string         `json:"photo_url"`
	Languages    datatypes.JSON `json:"languages"`
	Specialties  datatypes.JSON `json:"specialties"`
	Featured     *bool          `json:"featured"`
	DisplayOrder *int           `json:"display_order"`
}

func (in *AgentInput) apply(a *models.Agent) {
	a.NameEN = in.NameEN
	a.NameES = in.NameES
	a.BioEN = in.BioEN
	a.BioES = in.BioES
	a.Email = in.Email
	a.Phone = in.Phone
	a.PhotoURL = in.PhotoURL
	if in.Languages != nil {
		a.Languages = in.Languages
	}
	if in.Specialties != nil {
		a.Specialties = in.Specialties
	}
	if in.Featured != nil {
		a.Featured = *in.Featured
	}
	if in.DisplayOrder != nil {
		a.DisplayOrder = *in.DisplayOrder
	}
}

// Create inserts a new agent
func (h *AgentHandler) Create(c *gin.Context) {
	var input AgentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var agent models.Agent
	input.apply(&agent)

	if err := h.db.Create(&agent).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyChange(c, "agent", "created", agent.ID)
	c.JSON(http.StatusCreated, agent)
}

// Update replaces an agent's fields
func (h *AgentHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var input AgentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var agent models.Agent
	err := h.db.Where("id = ?", id).First(&agent).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "agent not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	input.apply(&agent)

	if err := h.db.Save(&agent).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyChange(c, "agent", "updated", agent.ID)
	c.JSON(http.StatusOK, agent)
}

// Delete removes an agent. Properties and leads keep their agent_id pointing
// at the removed row; displays treat the dangling reference as unassigned.
func (h *AgentHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	var agent models.Agent
	err := h.db.Where("id = ?", id).First(&agent).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "agent not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.Where("id = ?", id).Delete(&models.Agent{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.cleanupSvc.LogManualDelete("agent", id, agent.NameEN, auth.ActorFromContext(c)); err != nil {
		log.Printf("Failed to write delete log for agent %s: %v", id, err)
	}

	h.notifyChange(c, "agent", "deleted", id)
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
