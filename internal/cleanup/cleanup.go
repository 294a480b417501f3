package cleanup

import (
	"fmt"
	"log"
	"time"

	"real-estate-cms/internal/models"

	"gorm.io/gorm"
)

// Service handles physical deletion of old audit rows. The activity and event
// tables are append-only, so retention cleanup is the only thing that ever
// deletes from them.
type Service struct {
	db *gorm.DB
}

// NewService creates a new cleanup service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CleanupConfig holds configuration for cleanup operations
type CleanupConfig struct {
	RetentionDays    int  // Days to keep audit rows before physical deletion
	MaxDeletionCount int  // Maximum number of rows to delete in one run (safety limit)
	DryRun           bool // If true, only log what would be deleted without actually deleting
}

// DefaultCleanupConfig returns default configuration
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		RetentionDays:    365,
		MaxDeletionCount: 50000,
		DryRun:           false,
	}
}

// CleanupResult holds the result of a cleanup operation
type CleanupResult struct {
	TargetActivities int       `json:"target_activities"` // Lead activity rows eligible for deletion
	TargetEvents     int       `json:"target_events"`     // Offer event rows eligible for deletion
	DeletedCount     int       `json:"deleted_count"`     // Rows actually deleted
	DryRun           bool      `json:"dry_run"`           // Whether this was a dry run
	ExecutedAt       time.Time `json:"executed_at"`       // When the cleanup was executed
	Errors           []string  `json:"errors,omitempty"`  // Error messages
}

// countExpired counts rows older than the cutoff in both audit tables.
func (s *Service) countExpired(cutoff time.Time) (activities int64, events int64, err error) {
	if err = s.db.Model(&models.LeadActivity{}).
		Where("created_at < ?", cutoff).
		Count(&activities).Error; err != nil {
		return
	}
	err = s.db.Model(&models.OfferEvent{}).
		Where("created_at < ?", cutoff).
		Count(&events).Error
	return
}

// Run deletes audit rows older than the retention window. Each table's delete
// runs in its own transaction together with a delete log entry, so a partial
// failure still leaves an accurate trail.
func (s *Service) Run(config CleanupConfig) (*CleanupResult, error) {
	result := &CleanupResult{
		DryRun:     config.DryRun,
		ExecutedAt: time.Now(),
	}

	cutoff := time.Now().AddDate(0, 0, -config.RetentionDays)

	activities, events, err := s.countExpired(cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to count expired audit rows: %w", err)
	}
	result.TargetActivities = int(activities)
	result.TargetEvents = int(events)

	total := activities + events
	if total == 0 {
		log.Println("Cleanup: no expired audit rows found")
		return result, nil
	}

	// Safety check: abort if too many rows would be deleted
	if total > int64(config.MaxDeletionCount) {
		return nil, fmt.Errorf("safety check failed: %d rows exceed max deletion limit of %d",
			total, config.MaxDeletionCount)
	}

	log.Printf("Cleanup: %d lead activities and %d offer events older than %s (dry-run: %v)",
		activities, events, cutoff.Format("2006-01-02"), config.DryRun)

	if config.DryRun {
		result.DeletedCount = int(total)
		return result, nil
	}

	if activities > 0 {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("created_at < ?", cutoff).Delete(&models.LeadActivity{}).Error; err != nil {
				return err
			}
			deleteLog := models.DeleteLog{
				EntityType: "lead_activity",
				EntityID:   "batch",
				Label:      fmt.Sprintf("%d rows older than %s", activities, cutoff.Format("2006-01-02")),
				Reason:     models.DeleteReasonRetention,
				Actor:      "scheduler",
			}
			return tx.Create(&deleteLog).Error
		})
		if err != nil {
			errMsg := fmt.Sprintf("failed to delete expired lead activities: %v", err)
			log.Printf("Cleanup ERROR: %s", errMsg)
			result.Errors = append(result.Errors, errMsg)
		} else {
			result.DeletedCount += int(activities)
		}
	}

	if events > 0 {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("created_at < ?", cutoff).Delete(&models.OfferEvent{}).Error; err != nil {
				return err
			}
			deleteLog := models.DeleteLog{
				EntityType: "offer_event",
				EntityID:   "batch",
				Label:      fmt.Sprintf("%d rows older than %s", events, cutoff.Format("2006-01-02")),
				Reason:     models.DeleteReasonRetention,
				Actor:      "scheduler",
			}
			return tx.Create(&deleteLog).Error
		})
		if err != nil {
			errMsg := fmt.Sprintf("failed to delete expired offer events: %v", err)
			log.Printf("Cleanup ERROR: %s", errMsg)
			result.Errors = append(result.Errors, errMsg)
		} else {
			result.DeletedCount += int(events)
		}
	}

	log.Printf("Cleanup completed: %d rows deleted, %d errors", result.DeletedCount, len(result.Errors))
	return result, nil
}

// LogManualDelete records a hard delete performed from an admin screen.
func (s *Service) LogManualDelete(entityType, entityID, label, actor string) error {
	deleteLog := models.DeleteLog{
		EntityType: entityType,
		EntityID:   entityID,
		Label:      label,
		Reason:     models.DeleteReasonManual,
		Actor:      actor,
	}
	return s.db.Create(&deleteLog).Error
}

// GetDeleteStats returns statistics about deleted entities
func (s *Service) GetDeleteStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	// Total delete logs
	var totalDeleted int64
	if err := s.db.Model(&models.DeleteLog{}).Count(&totalDeleted).Error; err != nil {
		return nil, err
	}
	stats["total_deleted"] = totalDeleted

	// Delete logs by reason
	var reasonCounts []struct {
		Reason string
		Count  int64
	}
	if err := s.db.Model(&models.DeleteLog{}).
		Select("reason, count(*) as count").
		Group("reason").
		Scan(&reasonCounts).Error; err != nil {
		return nil, err
	}

	reasonMap := make(map[string]int64)
	for _, rc := range reasonCounts {
		reasonMap[rc.Reason] = rc.Count
	}
	stats["by_reason"] = reasonMap

	// Recent deletions (last 30 days)
	var recentDeleted int64
	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	if err := s.db.Model(&models.DeleteLog{}).
		Where("deleted_at >= ?", thirtyDaysAgo).
		Count(&recentDeleted).Error; err != nil {
		return nil, err
	}
	stats["deleted_last_30_days"] = recentDeleted

	return stats, nil
}

// GetRecentDeleteLogs returns recent delete log entries
func (s *Service) GetRecentDeleteLogs(limit int) ([]models.DeleteLog, error) {
	var logs []models.DeleteLog
	err := s.db.Order("deleted_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
