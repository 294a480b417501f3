// Package export writes admin CSV downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"real-estate-cms/internal/models"
)

// WriteLeadsCSV streams the full lead list as CSV, newest first ordering is
// the caller's responsibility.
func WriteLeadsCSV(w io.Writer, leads []models.Lead) error {
	cw := csv.NewWriter(w)

	header := []string{
		"id", "name", "email", "phone", "status", "source",
		"property_id", "agent_id", "budget_min", "budget_max", "created_at",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, l := range leads {
		record := []string{
			l.ID,
			l.Name,
			l.Email,
			l.Phone,
			string(l.Status),
			string(l.Source),
			strPtr(l.PropertyID),
			strPtr(l.AgentID),
			int64Ptr(l.BudgetMin),
			int64Ptr(l.BudgetMax),
			l.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WritePropertiesCSV streams the property list as CSV.
func WritePropertiesCSV(w io.Writer, properties []models.Property) error {
	cw := csv.NewWriter(w)

	header := []string{
		"id", "title_en", "type", "listing_type", "status",
		"price_sale", "price_rent", "currency", "bedrooms", "bathrooms",
		"area", "region_id", "agent_id", "featured", "published", "created_at",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, p := range properties {
		record := []string{
			p.ID,
			p.TitleEN,
			string(p.Type),
			string(p.ListingType),
			string(p.Status),
			int64Ptr(p.PriceSale),
			int64Ptr(p.PriceRent),
			p.Currency,
			strconv.Itoa(p.Bedrooms),
			strconv.Itoa(p.Bathrooms),
			floatPtr(p.Area),
			strPtr(p.RegionID),
			strPtr(p.AgentID),
			strconv.FormatBool(p.Featured),
			strconv.FormatBool(p.Published),
			p.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Filename builds the attachment name with the export date baked in.
func Filename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s.csv", prefix, now.Format("2006-01-02"))
}

func strPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func int64Ptr(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func floatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
