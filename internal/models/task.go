package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Task struct {
	ID         string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title      string     `gorm:"type:varchar(255);not null" json:"title"`
	DueDate    *time.Time `gorm:"index" json:"due_date,omitempty"`
	Status     TaskStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	LeadID     *string    `gorm:"type:varchar(36);index" json:"lead_id,omitempty"`
	AssigneeID *string    `gorm:"type:varchar(36);index" json:"assignee_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	return s == TaskStatusPending || s == TaskStatusCompleted
}

// IsOverdue reports whether a pending task is past its due date.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status == TaskStatusPending && t.DueDate != nil && t.DueDate.Before(now)
}
