package snapshot

import (
	"time"

	"real-estate-cms/internal/models"

	"gorm.io/gorm"
)

// Service computes and stores the daily stats snapshots
type Service struct {
	db *gorm.DB
}

// NewService creates a new snapshot service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ComputeStats gathers the current aggregate counts from the live tables.
// Monthly revenue is the sum of accepted offer amounts updated this calendar
// month.
func (s *Service) ComputeStats(now time.Time) (*models.StatsSnapshot, error) {
	// Midnight in now's own location, so the snapshot date matches the
	// configured timezone rather than the UTC epoch grid
	snap := &models.StatsSnapshot{
		SnapshotAt: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
	}

	if err := s.db.Model(&models.Property{}).Count(&snap.TotalProperties).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Property{}).
		Where("published = ?", true).
		Count(&snap.PublishedProperties).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Lead{}).
		Where("status NOT IN ?", []string{string(models.LeadStatusWon), string(models.LeadStatusLost)}).
		Count(&snap.ActiveLeads).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Viewing{}).
		Where("status IN ?", []string{string(models.ViewingStatusScheduled), string(models.ViewingStatusConfirmed)}).
		Where("scheduled_at >= ?", now).
		Count(&snap.ScheduledViewings).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Offer{}).
		Where("status NOT IN ?", []string{
			string(models.OfferStatusAccepted),
			string(models.OfferStatusRejected),
			string(models.OfferStatusWithdrawn),
		}).
		Count(&snap.OpenOffers).Error; err != nil {
		return nil, err
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var revenue *int64
	if err := s.db.Model(&models.Offer{}).
		Where("status = ? AND updated_at >= ?", models.OfferStatusAccepted, monthStart).
		Select("SUM(amount)").
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	if revenue != nil {
		snap.MonthlyRevenue = *revenue
	}

	return snap, nil
}

// CreateSnapshot writes today's snapshot row. A rerun on the same date
// overwrites the existing row instead of creating a duplicate.
func (s *Service) CreateSnapshot(now time.Time) (*models.StatsSnapshot, error) {
	snap, err := s.ComputeStats(now)
	if err != nil {
		return nil, err
	}

	// Check if a snapshot already exists for today
	var existing models.StatsSnapshot
	result := s.db.Where("snapshot_at = ?", snap.SnapshotAt).First(&existing)

	if result.Error == gorm.ErrRecordNotFound {
		if err := s.db.Create(snap).Error; err != nil {
			return nil, err
		}
		return snap, nil
	} else if result.Error != nil {
		return nil, result.Error
	}

	// Update existing snapshot
	snap.ID = existing.ID
	snap.CreatedAt = existing.CreatedAt
	if err := s.db.Save(snap).Error; err != nil {
		return nil, err
	}
	return snap, nil
}

// GetHistory retrieves snapshot history, newest first
func (s *Service) GetHistory(limit int) ([]models.StatsSnapshot, error) {
	var snapshots []models.StatsSnapshot
	query := s.db.Order("snapshot_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&snapshots).Error; err != nil {
		return nil, err
	}

	return snapshots, nil
}
