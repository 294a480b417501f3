package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"real-estate-cms/internal/auth"
	"real-estate-cms/internal/cache"
	"real-estate-cms/internal/cleanup"
	"real-estate-cms/internal/models"
	"real-estate-cms/internal/pipeline"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OfferHandler handles admin offer management
type OfferHandler struct {
	notifier
	db         *gorm.DB
	pipeline   *pipeline.Service
	cleanupSvc *cleanup.Service
}

// NewOfferHandler creates a new offer handler
func NewOfferHandler(db *gorm.DB, cacheCli *cache.Cache) *OfferHandler {
	return &OfferHandler{
		notifier:   notifier{cache: cacheCli},
		db:         db,
		pipeline:   pipeline.NewService(db),
		cleanupSvc: cleanup.NewService(db),
	}
}

// List returns offers filtered by status, property or lead
func (h *OfferHandler) List(c *gin.Context) {
	q := h.db.Model(&models.Offer{})

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if propertyID := c.Query("property_id"); propertyID != "" {
		q = q.Where("property_id = ?", propertyID)
	}
	if leadID := c.Query("lead_id"); leadID != "" {
		q = q.Where("lead_id = ?", leadID)
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

	var offers []models.Offer
	err := q.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&offers).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    offers,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// Get returns an offer with its event trail
func (h *OfferHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var offer models.Offer
	err := h.db.Where("id = ?", id).First(&offer).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "offer not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	events, err := h.pipeline.GetOfferEvents(id, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"offer":  offer,
		"events": events,
	})
}

// OfferInput is the create request body
type OfferInput struct {
	PropertyID string `json:"property_id" binding:"required"`
	LeadID     string `json:"lead_id" binding:"required"`
	Amount     int64  `json:"amount" binding:"required,gt=0"`
	Currency   string `json:"currency"`
	Notes      string `json:"notes"`
}

// Create inserts a new draft offer with its initial event row. The property
// and lead must both exist.
func (h *OfferHandler) Create(c *gin.Context) {
	var input OfferInput
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
	if err := h.db.Model(&models.Lead{}).Where("id = ?", input.LeadID).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if count == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lead not found: " + input.LeadID})
		return
	}

	offer := models.Offer{
		PropertyID: input.PropertyID,
		LeadID:     input.LeadID,
		Amount:     input.Amount,
		Currency:   "EUR",
		Status:     models.OfferStatusDraft,
		Notes:      input.Notes,
	}
	if input.Currency != "" {
		offer.Currency = input.Currency
	}

	actor := auth.ActorFromContext(c)
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&offer).Error; err != nil {
			return err
		}
		return h.pipeline.RecordOfferCreated(tx, &offer, actor)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyChange(c, "offer", "created", offer.ID)
	c.JSON(http.StatusCreated, offer)
}

// ChangeStatus moves the offer to a new negotiation state
func (h *OfferHandler) ChangeStatus(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	to := models.OfferStatus(req.Status)
	if !to.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offer status: " + req.Status})
		return
	}

	offer, err := h.pipeline.ChangeOfferStatus(id, to, auth.ActorFromContext(c))
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "offer not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyChange(c, "offer", "updated", offer.ID)
	c.JSON(http.StatusOK, offer)
}

// Delete removes an offer together with its event trail
func (h *OfferHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	var offer models.Offer
	err := h.db.Where("id = ?", id).First(&offer).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "offer not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("offer_id = ?", id).Delete(&models.OfferEvent{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Offer{}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	label := fmt.Sprintf("%d %s on property %s", offer.Amount, offer.Currency, offer.PropertyID)
	if err := h.cleanupSvc.LogManualDelete("offer", id, label, auth.ActorFromContext(c)); err != nil {
		log.Printf("Failed to write delete log for offer %s: %v", id, err)
	}

	h.notifyChange(c, "offer", "deleted", id)
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// UpdateAmount records a new negotiated amount with an event row
func (h *OfferHandler) UpdateAmount(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Amount int64  `json:"amount" binding:"required,gt=0"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var offer models.Offer
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&offer).Error; err != nil {
			return err
		}

		oldAmount := offer.Amount
		updates := map[string]interface{}{"amount": req.Amount}
		if req.Notes != "" {
			updates["notes"] = req.Notes
		}
		if err := tx.Model(&offer).Updates(updates).Error; err != nil {
			return err
		}
		offer.Amount = req.Amount

		payload, err := json.Marshal(map[string]interface{}{
			"old_amount": oldAmount,
			"new_amount": req.Amount,
			"currency":   offer.Currency,
			"changed_at": time.Now(),
		})
		if err != nil {
			return err
		}

		event := models.OfferEvent{
			OfferID:   offer.ID,
			EventType: models.OfferEventAmountChange,
			Payload:   datatypes.JSON(payload),
			Actor:     auth.ActorFromContext(c),
		}
		return tx.Create(&event).Error
	})
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "offer not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyChange(c, "offer", "updated", offer.ID)
	c.JSON(http.StatusOK, offer)
}
