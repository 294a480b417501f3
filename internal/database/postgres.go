package database

import (
	"database/sql"
	"fmt"
	"time"

	"real-estate-cms/internal/models"

	_ "github.com/lib/pq"
)

// DB is the legacy PostgreSQL store. It covers the public property read path
// only; admin features, leads, offers and the rest of the back-office require
// the GORM/MySQL store.
type DB struct {
	conn *sql.DB
}

func NewDB(host, port, user, password, dbname string) (*DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates the properties table if it doesn't exist
func (db *DB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS properties (
		id VARCHAR(36) PRIMARY KEY,
		title_en VARCHAR(255) NOT NULL,
		title_es VARCHAR(255),
		description_en TEXT,
		description_es TEXT,
		type VARCHAR(20) NOT NULL,
		listing_type VARCHAR(10) NOT NULL DEFAULT 'sale',
		status VARCHAR(20) NOT NULL DEFAULT 'available',
		price_sale BIGINT,
		price_rent BIGINT,
		currency VARCHAR(3) NOT NULL DEFAULT 'EUR',
		bedrooms INTEGER NOT NULL DEFAULT 0,
		bathrooms INTEGER NOT NULL DEFAULT 0,
		area DECIMAL(10, 2),
		featured BOOLEAN NOT NULL DEFAULT FALSE,
		published BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_properties_created_at ON properties(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_properties_price_sale ON properties(price_sale);
	CREATE INDEX IF NOT EXISTS idx_properties_price_rent ON properties(price_rent);
	CREATE INDEX IF NOT EXISTS idx_properties_type ON properties(type);
	`
	_, err := db.conn.Exec(query)
	return err
}

// SaveProperty saves or updates a property
func (db *DB) SaveProperty(p *models.Property) error {
	query := `
	INSERT INTO properties (
		id, title_en, title_es, description_en, description_es,
		type, listing_type, status, price_sale, price_rent, currency,
		bedrooms, bathrooms, area, featured, published, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	ON CONFLICT (id) DO UPDATE SET
		title_en = EXCLUDED.title_en,
		title_es = EXCLUDED.title_es,
		description_en = EXCLUDED.description_en,
		description_es = EXCLUDED.description_es,
		type = EXCLUDED.type,
		listing_type = EXCLUDED.listing_type,
		status = EXCLUDED.status,
		price_sale = EXCLUDED.price_sale,
		price_rent = EXCLUDED.price_rent,
		currency = EXCLUDED.currency,
		bedrooms = EXCLUDED.bedrooms,
		bathrooms = EXCLUDED.bathrooms,
		area = EXCLUDED.area,
		featured = EXCLUDED.featured,
		published = EXCLUDED.published,
		updated_at = EXCLUDED.updated_at
	`
	_, err := db.conn.Exec(query,
		p.ID, p.TitleEN, p.TitleES, p.DescriptionEN, p.DescriptionES,
		p.Type, p.ListingType, p.Status, p.PriceSale, p.PriceRent, p.Currency,
		p.Bedrooms, p.Bathrooms, p.Area, p.Featured, p.Published,
		p.CreatedAt, time.Now())
	return err
}

// GetPublishedProperties retrieves published properties with basic sorting.
// The legacy path does not implement the full filter composition; callers
// fall back to it only when the GORM store is unavailable.
func (db *DB) GetPublishedProperties(sortBy string) ([]models.Property, error) {
	var orderClause string
	switch sortBy {
	case "price-low":
		orderClause = "CASE WHEN price_sale IS NULL THEN 1 ELSE 0 END, price_sale ASC, created_at DESC"
	case "price-high":
		orderClause = "CASE WHEN price_sale IS NULL THEN 1 ELSE 0 END, price_sale DESC, created_at DESC"
	case "featured":
		orderClause = "featured DESC, created_at DESC"
	default:
		orderClause = "created_at DESC"
	}

	query := fmt.Sprintf(`
		SELECT id, title_en, title_es, description_en, description_es,
			   type, listing_type, status, price_sale, price_rent, currency,
			   bedrooms, bathrooms, area, featured, published, created_at, updated_at
		FROM properties
		WHERE published = TRUE
		ORDER BY %s
	`, orderClause)

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var properties []models.Property
	for rows.Next() {
		var p models.Property
		err := rows.Scan(
			&p.ID, &p.TitleEN, &p.TitleES, &p.DescriptionEN, &p.DescriptionES,
			&p.Type, &p.ListingType, &p.Status, &p.PriceSale, &p.PriceRent, &p.Currency,
			&p.Bedrooms, &p.Bathrooms, &p.Area, &p.Featured, &p.Published,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}

	return properties, rows.Err()
}

// GetPropertyByID retrieves a property by ID
func (db *DB) GetPropertyByID(id string) (*models.Property, error) {
	query := `
		SELECT id, title_en, title_es, description_en, description_es,
			   type, listing_type, status, price_sale, price_rent, currency,
			   bedrooms, bathrooms, area, featured, published, created_at, updated_at
		FROM properties
		WHERE id = $1 AND published = TRUE
	`

	var p models.Property
	err := db.conn.QueryRow(query, id).Scan(
		&p.ID, &p.TitleEN, &p.TitleES, &p.DescriptionEN, &p.DescriptionES,
		&p.Type, &p.ListingType, &p.Status, &p.PriceSale, &p.PriceRent, &p.Currency,
		&p.Bedrooms, &p.Bathrooms, &p.Area, &p.Featured, &p.Published,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &p, nil
}
