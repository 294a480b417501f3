package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Region struct {
	ID            string `gorm:"type:varchar(36);primaryKey" json:"id"`
	NameEN        string `gorm:"type:varchar(255);not null" json:"name_en"`
	NameES        string `gorm:"type:varchar(255)" json:"name_es,omitempty"`
	DescriptionEN string `gorm:"type:text" json:"description_en,omitempty"`
	DescriptionES string `gorm:"type:text" json:"description_es,omitempty"`

	// Slug is the public URL identifier, e.g. /regions/costa-del-sol
	Slug     string `gorm:"type:varchar(100);not null;uniqueIndex" json:"slug"`
	ImageURL string `gorm:"type:text" json:"image_url,omitempty"`

	Featured     bool `gorm:"not null;default:false" json:"featured"`
	DisplayOrder int  `gorm:"not null;default:0;index" json:"display_order"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Region) TableName() string {
	return "regions"
}

func (r *Region) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
