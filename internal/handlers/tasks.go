package handlers

import (
	"net/http"
	"time"

	"real-estate-cms/internal/cache"
	"real-estate-cms/internal/models"
	"real-estate-cms/internal/pipeline"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TaskHandler handles admin task management
type TaskHandler struct {
	notifier
	db       *gorm.DB
	pipeline *pipeline.Service
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(db *gorm.DB, cacheCli *cache.Cache) *TaskHandler {
	return &TaskHandler{
		notifier: notifier{cache: cacheCli},
		db:       db,
		pipeline: pipeline.NewService(db),
	}
}

// List returns tasks, optionally restricted to pending or overdue ones.
// Pending tasks sort by due date with undated ones last; completed sort newest
// first.
func (h *TaskHandler) List(c *gin.Context) {
	q := h.db.Model(&models.Task{})

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if assigneeID := c.Query("assignee_id"); assigneeID != "" {
		q = q.Where("assignee_id = ?", assigneeID)
	}
	if leadID := c.Query("lead_id"); leadID != "" {
		q = q.Where("lead_id = ?", leadID)
	}
	if c.Query("overdue") == "true" {
		q = q.Where("status = ? AND due_date IS NOT NULL AND due_date < ?",
			models.TaskStatusPending, time.Now())
	}

	var tasks []models.Task
	err := q.Order("CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date ASC, created_at DESC").
		Find(&tasks).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": tasks,
		"count": len(tasks),
	})
}

// TaskInput is the create/update request body
type TaskInput struct {
	Title      string     `json:"title" binding:"required"`
	DueDate    *time.Time `json:"due_date"`
	LeadID     *string    `json:"lead_id"`
	AssigneeID *string    `json:"assignee_id"`
}

// Create inserts a pending task
func (h *TaskHandler) Create(c *gin.Context) {
	var input TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task := models.Task{
		Title:      input.Title,
		DueDate:    input.DueDate,
		Status:     models.TaskStatusPending,
		LeadID:     input.LeadID,
		AssigneeID: input.AssigneeID,
	}

	if err := h.db.Create(&task).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyChange(c, "task", "created", task.ID)
	c.JSON(http.StatusCreated, task)
}

// Update replaces a task's fields
func (h *TaskHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var input TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var task models.Task
	err := h.db.Where("id = ?", id).First(&task).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	task.Title = input.Title
	task.DueDate = input.DueDate
	task.LeadID = input.LeadID
	task.AssigneeID = input.AssigneeID

	if err := h.db.Save(&task).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyChange(c, "task", "updated", task.ID)
	c.JSON(http.StatusOK, task)
}

// ChangeStatus flips a task between pending and completed
func (h *TaskHandler) ChangeStatus(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	to := models.TaskStatus(req.Status)
	if !to.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task status: " + req.Status})
		return
	}

	task, err := h.pipeline.ChangeTaskStatus(id, to)
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyChange(c, "task", "updated", task.ID)
	c.JSON(http.StatusOK, task)
}

// Delete removes a task
func (h *TaskHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	result := h.db.Where("id = ?", id).Delete(&models.Task{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	h.notifyChange(c, "task", "deleted", id)
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
