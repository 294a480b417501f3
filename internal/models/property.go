package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Property struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	// Bilingual content
	TitleEN       string `gorm:"type:varchar(255);not null" json:"title_en"`
	TitleES       string `gorm:"type:varchar(255)" json:"title_es,omitempty"`
	DescriptionEN string `gorm:"type:text" json:"description_en,omitempty"`
	DescriptionES string `gorm:"type:text" json:"description_es,omitempty"`

	// Classification
	Type        PropertyType   `gorm:"type:varchar(20);not null;index" json:"type"`
	ListingType ListingType    `gorm:"type:varchar(10);not null;default:'sale';index" json:"listing_type"`
	Status      PropertyStatus `gorm:"type:varchar(20);not null;default:'available';index" json:"status"`

	// Pricing; which column is meaningful follows listing_type, both may be
	// populated when listing_type is "both"
	PriceSale *int64 `gorm:"type:bigint;index" json:"price_sale,omitempty"`
	PriceRent *int64 `gorm:"type:bigint;index" json:"price_rent,omitempty"`
	Currency  string `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`

	// Physical attributes
	Bedrooms  int      `gorm:"not null;default:0;index" json:"bedrooms"`
	Bathrooms int      `gorm:"not null;default:0" json:"bathrooms"`
	Area      *float64 `gorm:"type:decimal(10,2)" json:"area,omitempty"`
	PlotSize  *float64 `gorm:"type:decimal(10,2)" json:"plot_size,omitempty"`
	Floor     *int     `gorm:"type:int" json:"floor,omitempty"`

	Features  datatypes.JSON `json:"features,omitempty"`
	Amenities datatypes.JSON `json:"amenities,omitempty"`

	Featured  bool `gorm:"not null;default:false;index" json:"featured"`
	Published bool `gorm:"not null;default:false;index" json:"published"`

	RegionID *string `gorm:"type:varchar(36);index" json:"region_id,omitempty"`
	AgentID  *string `gorm:"type:varchar(36);index" json:"agent_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index:idx_properties_created_at,sort:desc" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Property) TableName() string {
	return "properties"
}

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type PropertyType string

const (
	PropertyTypeVilla      PropertyType = "villa"
	PropertyTypeApartment  PropertyType = "apartment"
	PropertyTypeTownhouse  PropertyType = "townhouse"
	PropertyTypePenthouse  PropertyType = "penthouse"
	PropertyTypePlot       PropertyType = "plot"
	PropertyTypeCommercial PropertyType = "commercial"
)

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyTypeVilla, PropertyTypeApartment, PropertyTypeTownhouse,
		PropertyTypePenthouse, PropertyTypePlot, PropertyTypeCommercial:
		return true
	}
	return false
}

type ListingType string

const (
	ListingTypeSale ListingType = "sale"
	ListingTypeRent ListingType = "rent"
	ListingTypeBoth ListingType = "both"
)

func (t ListingType) Valid() bool {
	return t == ListingTypeSale || t == ListingTypeRent || t == ListingTypeBoth
}

type PropertyStatus string

const (
	PropertyStatusAvailable PropertyStatus = "available"
	PropertyStatusPending   PropertyStatus = "pending"
	PropertyStatusSold      PropertyStatus = "sold"
	PropertyStatusRented    PropertyStatus = "rented"
	PropertyStatusOffMarket PropertyStatus = "off_market"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyStatusAvailable, PropertyStatusPending, PropertyStatusSold,
		PropertyStatusRented, PropertyStatusOffMarket:
		return true
	}
	return false
}

// IsAvailable reports whether the property can still be marketed.
func (p *Property) IsAvailable() bool {
	return p.Status == PropertyStatusAvailable
}
