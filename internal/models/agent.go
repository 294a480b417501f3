package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Agent struct {
	ID     string `gorm:"type:varchar(36);primaryKey" json:"id"`
	NameEN string `gorm:"type:varchar(255);not null" json:"name_en"`
	NameES string `gorm:"type:varchar(255)" json:"name_es,omitempty"`
	BioEN  string `gorm:"type:text" json:"bio_en,omitempty"`
	BioES  string `gorm:"type:text" json:"bio_es,omitempty"`

	Email    string `gorm:"type:varchar(255);not null" json:"email"`
	Phone    string `gorm:"type:varchar(50)" json:"phone,omitempty"`
	PhotoURL string `gorm:"type:text" json:"photo_url,omitempty"`

	Languages   datatypes.JSON `json:"languages,omitempty"`
	Specialties datatypes.JSON `json:"specialties,omitempty"`

	Featured     bool `gorm:"not null;default:false;index" json:"featured"`
	DisplayOrder int  `gorm:"not null;default:0;index" json:"display_order"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Agent) TableName() string {
	return "agents"
}

func (a *Agent) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
