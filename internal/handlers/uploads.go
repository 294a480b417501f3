package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"real-estate-cms/internal/cache"
	"real-estate-cms/internal/models"
	"real-estate-cms/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UploadHandler handles property image, document and site logo uploads
type UploadHandler struct {
	notifier
	db       *gorm.DB
	uploader *storage.S3Uploader
}

// NewUploadHandler creates a new upload handler. uploader may be nil when
// object storage is not configured; every endpoint then returns 503.
func NewUploadHandler(db *gorm.DB, uploader *storage.S3Uploader, cacheCli *cache.Cache) *UploadHandler {
	return &UploadHandler{
		notifier: notifier{cache: cacheCli},
		db:       db,
		uploader: uploader,
	}
}

func (h *UploadHandler) requireStorage(c *gin.Context) bool {
	if h.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "object storage not configured"})
		return false
	}
	return true
}

// UploadPropertyImage stores an image and appends it to the property's gallery
func (h *UploadHandler) UploadPropertyImage(c *gin.Context) {
	if !h.requireStorage(c) {
		return
	}
	propertyID := c.Param("id")

	var count int64
	if err := h.db.Model(&models.Property{}).Where("id = ?", propertyID).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if err := storage.ValidateUpload(storage.KindImage, contentType, fileHeader.Size); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	key := storage.ObjectKey(storage.KindImage, fileHeader.Filename)
	if err := h.uploader.Upload(c.Request.Context(), key, file, contentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// New images append at the end of the gallery
	var maxOrder *int
	if err := h.db.Model(&models.PropertyImage{}).
		Where("property_id = ?", propertyID).
		Select("MAX(sort_order)").
		Scan(&maxOrder).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sortOrder := 0
	if maxOrder != nil {
		sortOrder = *maxOrder + 1
	}

	image := models.PropertyImage{
		PropertyID: propertyID,
		StorageKey: key,
		ImageURL:   h.uploader.PublicURL(key),
		SortOrder:  sortOrder,
	}
	if err := h.db.Create(&image).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyChange(c, "property", "updated", propertyID)
	c.JSON(http.StatusCreated, image)
}

// DeletePropertyImage removes an image row and its stored object
func (h *UploadHandler) DeletePropertyImage(c *gin.Context) {
	if !h.requireStorage(c) {
		return
	}
	propertyID := c.Param("id")
	imageID, err := strconv.ParseInt(c.Param("imageId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image id"})
		return
	}

	var image models.PropertyImage
	dbErr := h.db.Where("id = ? AND property_id = ?", imageID, propertyID).First(&image).Error
	if dbErr == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}
	if dbErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": dbErr.Error()})
		return
	}

	if err := h.db.Delete(&image).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Row is gone; a leftover object only wastes space
	if err := h.uploader.Delete(c.Request.Context(), image.StorageKey); err != nil {
		log.Printf("Failed to delete stored object %s: %v", image.StorageKey, err)
	}

	h.notifyChange(c, "property", "updated", propertyID)
	c.JSON(http.StatusOK, gin.H{"deleted": imageID})
}

// UploadPropertyDocument stores a document attached to a property
func (h *UploadHandler) UploadPropertyDocument(c *gin.Context) {
	if !h.requireStorage(c) {
		return
	}
	propertyID := c.Param("id")

	var count int64
	if err := h.db.Model(&models.Property{}).Where("id = ?", propertyID).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if err := storage.ValidateUpload(storage.KindDocument, contentType, fileHeader.Size); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	key := storage.ObjectKey(storage.KindDocument, fileHeader.Filename)
	if err := h.uploader.Upload(c.Request.Context(), key, file, contentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	name := c.PostForm("name")
	if name == "" {
		name = fileHeader.Filename
	}

	doc := models.PropertyDocument{
		PropertyID:  propertyID,
		Name:        name,
		StorageKey:  key,
		DocumentURL: h.uploader.PublicURL(key),
		ContentType: contentType,
		SizeBytes:   fileHeader.Size,
	}
	if err := h.db.Create(&doc).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyChange(c, "property", "updated", propertyID)
	c.JSON(http.StatusCreated, doc)
}

// DeletePropertyDocument removes a document row and its stored object
func (h *UploadHandler) DeletePropertyDocument(c *gin.Context) {
	if !h.requireStorage(c) {
		return
	}
	propertyID := c.Param("id")
	docID, err := strconv.ParseInt(c.Param("docId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	var doc models.PropertyDocument
	dbErr := h.db.Where("id = ? AND property_id = ?", docID, propertyID).First(&doc).Error
	if dbErr == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	if dbErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": dbErr.Error()})
		return
	}

	if err := h.db.Delete(&doc).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.uploader.Delete(c.Request.Context(), doc.StorageKey); err != nil {
		log.Printf("Failed to delete stored object %s: %v", doc.StorageKey, err)
	}

	h.notifyChange(c, "property", "updated", propertyID)
	c.JSON(http.StatusOK, gin.H{"deleted": docID})
}

// UploadAgentPhoto stores an agent portrait and points photo_url at it
func (h *UploadHandler) UploadAgentPhoto(c *gin.Context) {
	if !h.requireStorage(c) {
		return
	}
	agentID := c.Param("id")

	var agent models.Agent
	dbErr := h.db.Where("id = ?", agentID).First(&agent).Error
	if dbErr == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "agent not found"})
		return
	}
	if dbErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": dbErr.Error()})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if err := storage.ValidateUpload(storage.KindImage, contentType, fileHeader.Size); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	key := storage.ObjectKey(storage.KindImage, fileHeader.Filename)
	if err := h.uploader.Upload(c.Request.Context(), key, file, contentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	url := h.uploader.PublicURL(key)
	if err := h.db.Model(&agent).Update("photo_url", url).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyChange(c, "agent", "updated", agentID)
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// UploadSiteLogo stores the site logo and records its URL in settings
func (h *UploadHandler) UploadSiteLogo(c *gin.Context) {
	if !h.requireStorage(c) {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if err := storage.ValidateUpload(storage.KindLogo, contentType, fileHeader.Size); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	key := storage.ObjectKey(storage.KindLogo, fileHeader.Filename)
	if err := h.uploader.Upload(c.Request.Context(), key, file, contentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	url := h.uploader.PublicURL(key)
	setting := models.Setting{Key: models.SettingSiteLogo, Value: url}
	if err := h.db.Save(&setting).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("logo stored but settings update failed: %v", err)})
		return
	}

	h.notifyChange(c, "setting", "updated", models.SettingSiteLogo)
	c.JSON(http.StatusOK, gin.H{"url": url})
}
