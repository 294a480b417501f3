package database

import (
	"fmt"
	"strings"
	"time"

	"real-estate-cms/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormDB struct {
	db *gorm.DB
}

func NewGormDB(host, port, user, password, dbname string) (*GormDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	return gdb.db.AutoMigrate(
		&models.Property{},
		&models.PropertyImage{},
		&models.PropertyDocument{},
		&models.Agent{},
		&models.Region{},
		&models.Lead{},
		&models.LeadActivity{},
		&models.Viewing{},
		&models.Offer{},
		&models.OfferEvent{},
		&models.Task{},
		&models.Setting{},
		&models.StatsSnapshot{},
		&models.DeleteLog{},
	)
}

// PropertyFilters describes a property listing query. All supplied filters
// are ANDed together. Price filters and price sorts use the rent price column
// when ListingType is "rent" and the sale price column otherwise, including
// when no listing-type filter is set at all (the sale column is the
// documented default).
type PropertyFilters struct {
	Search       string
	Type         string
	ListingType  string
	MinPrice     *int64
	MaxPrice     *int64
	MinBedrooms  int
	MinBathrooms int
	RegionSlug   string
	AgentID      string
	Status       string
	SortBy       string
	Page         int
	PerPage      int

	// IncludeUnpublished is set on the admin listing path only
	IncludeUnpublished bool
}

// DefaultPerPage is the page size when the request does not specify one.
const DefaultPerPage = 12

// MaxPerPage caps the page size a client may request.
const MaxPerPage = 100

// PropertyPage is one slice of a filtered, sorted property listing.
type PropertyPage struct {
	Items      []models.Property `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	TotalPages int               `json:"total_pages"`
}

// priceColumn selects which price column a filter set operates on.
func priceColumn(listingType string) string {
	if listingType == string(models.ListingTypeRent) {
		return "price_rent"
	}
	return "price_sale"
}

// ListProperties runs the composed listing query: conjunctive filters, sort
// with a created_at DESC tie-break, and page slicing. The total count is
// taken on the filtered set before the slice, so it is invariant across
// pages. An unknown region slug yields an empty page, not an error.
func (gdb *GormDB) ListProperties(f PropertyFilters) (*PropertyPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage <= 0 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}

	page := &PropertyPage{
		Items:   []models.Property{},
		Page:    f.Page,
		PerPage: f.PerPage,
	}

	q := gdb.db.Model(&models.Property{})

	if !f.IncludeUnpublished {
		q = q.Where("published = ?", true)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.AgentID != "" {
		q = q.Where("agent_id = ?", f.AgentID)
	}

	switch f.ListingType {
	case string(models.ListingTypeSale):
		q = q.Where("listing_type IN ?", []string{string(models.ListingTypeSale), string(models.ListingTypeBoth)})
	case string(models.ListingTypeRent):
		q = q.Where("listing_type IN ?", []string{string(models.ListingTypeRent), string(models.ListingTypeBoth)})
	case string(models.ListingTypeBoth):
		q = q.Where("listing_type = ?", string(models.ListingTypeBoth))
	}

	col := priceColumn(f.ListingType)
	if f.MinPrice != nil {
		q = q.Where(col+" >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where(col+" <= ?", *f.MaxPrice)
	}

	if f.MinBedrooms > 0 {
		q = q.Where("bedrooms >= ?", f.MinBedrooms)
	}
	if f.MinBathrooms > 0 {
		q = q.Where("bathrooms >= ?", f.MinBathrooms)
	}

	if f.Search != "" {
		like := "%" + strings.TrimSpace(f.Search) + "%"
		q = q.Where(
			"title_en LIKE ? OR title_es LIKE ? OR description_en LIKE ? OR description_es LIKE ?",
			like, like, like, like,
		)
	}

	// Region filter is a two-step lookup: slug first, then the row filter.
	// An unknown slug matches nothing.
	if f.RegionSlug != "" {
		region, err := gdb.GetRegionBySlug(f.RegionSlug)
		if err == gorm.ErrRecordNotFound {
			return page, nil
		}
		if err != nil {
			return nil, err
		}
		q = q.Where("region_id = ?", region.ID)
	}

	if err := q.Count(&page.Total).Error; err != nil {
		return nil, err
	}

	err := q.Order(orderClause(f.SortBy, col)).
		Offset((f.Page - 1) * f.PerPage).
		Limit(f.PerPage).
		Find(&page.Items).Error
	if err != nil {
		return nil, err
	}

	page.TotalPages = int((page.Total + int64(f.PerPage) - 1) / int64(f.PerPage))
	return page, nil
}

// orderClause maps a sort key to an ORDER BY clause. NULL prices sort last in
// either direction; created_at DESC is the fixed tie-break everywhere.
func orderClause(sortBy, priceCol string) string {
	switch sortBy {
	case "price-low":
		return fmt.Sprintf("CASE WHEN %s IS NULL THEN 1 ELSE 0 END, %s ASC, created_at DESC", priceCol, priceCol)
	case "price-high":
		return fmt.Sprintf("CASE WHEN %s IS NULL THEN 1 ELSE 0 END, %s DESC, created_at DESC", priceCol, priceCol)
	case "bedrooms":
		return "bedrooms DESC, created_at DESC"
	case "area":
		return "CASE WHEN area IS NULL THEN 1 ELSE 0 END, area DESC, created_at DESC"
	case "featured":
		return "featured DESC, created_at DESC"
	case "newest", "":
		return "created_at DESC"
	default:
		return "created_at DESC"
	}
}

// GetPropertyByID retrieves a property by ID
func (gdb *GormDB) GetPropertyByID(id string) (*models.Property, error) {
	var property models.Property
	err := gdb.db.Where("id = ?", id).First(&property).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// GetPropertyImages retrieves images for a property ordered for display
func (gdb *GormDB) GetPropertyImages(propertyID string) ([]models.PropertyImage, error) {
	var images []models.PropertyImage
	err := gdb.db.Where("property_id = ?", propertyID).
		Order("sort_order ASC, id ASC").
		Find(&images).Error
	return images, err
}

// GetPropertyDocuments retrieves documents attached to a property
func (gdb *GormDB) GetPropertyDocuments(propertyID string) ([]models.PropertyDocument, error) {
	var docs []models.PropertyDocument
	err := gdb.db.Where("property_id = ?", propertyID).
		Order("id ASC").
		Find(&docs).Error
	return docs, err
}

// GetRegionBySlug retrieves a region by its public slug
func (gdb *GormDB) GetRegionBySlug(slug string) (*models.Region, error) {
	var region models.Region
	err := gdb.db.Where("slug = ?", slug).First(&region).Error
	if err != nil {
		return nil, err
	}
	return &region, nil
}

// DeleteRegion hard-deletes a region. Properties referencing it are kept and
// their region_id is nulled; there is no cascade and no pre-delete check for
// references.
func (gdb *GormDB) DeleteRegion(id string) error {
	return gdb.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Property{}).
			Where("region_id = ?", id).
			Update("region_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Region{}).Error
	})
}

// DeleteProperty hard-deletes a property together with its image and
// document rows.
func (gdb *GormDB) DeleteProperty(id string) error {
	return gdb.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("property_id = ?", id).Delete(&models.PropertyImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("property_id = ?", id).Delete(&models.PropertyDocument{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Property{}).Error
	})
}

// GetPublishedProperties retrieves all published properties (for reindexing)
func (gdb *GormDB) GetPublishedProperties() ([]models.Property, error) {
	var properties []models.Property
	err := gdb.db.Where("published = ?", true).Order("created_at DESC").Find(&properties).Error
	return properties, err
}
