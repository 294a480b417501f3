package models

import "time"

// Setting is a key/value row for site-wide configuration managed from the
// admin screens (logo URL, contact email, social links).
type Setting struct {
	Key       string    `gorm:"type:varchar(100);primaryKey" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Well-known setting keys
const (
	SettingSiteLogo     = "site_logo_url"
	SettingContactEmail = "contact_email"
	SettingContactPhone = "contact_phone"
)
