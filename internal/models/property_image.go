package models

import "time"

// PropertyImage references an uploaded image in object storage.
type PropertyImage struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID string    `gorm:"type:varchar(36);not null;index" json:"property_id"`
	StorageKey string    `gorm:"type:varchar(255);not null" json:"storage_key"`
	ImageURL   string    `gorm:"type:text;not null" json:"image_url"`
	SortOrder  int       `gorm:"not null;default:0;index" json:"sort_order"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PropertyImage) TableName() string {
	return "property_images"
}

// PropertyDocument references an uploaded document (floor plan, brochure, deed).
type PropertyDocument struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID  string    `gorm:"type:varchar(36);not null;index" json:"property_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	StorageKey  string    `gorm:"type:varchar(255);not null" json:"storage_key"`
	DocumentURL string    `gorm:"type:text;not null" json:"document_url"`
	ContentType string    `gorm:"type:varchar(100)" json:"content_type,omitempty"`
	SizeBytes   int64     `gorm:"not null;default:0" json:"size_bytes"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PropertyDocument) TableName() string {
	return "property_documents"
}
