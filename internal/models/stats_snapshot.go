package models

import "time"

// StatsSnapshot is one row per day of dashboard aggregates, written by the
// scheduler so the admin can chart trends without recomputing history.
type StatsSnapshot struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SnapshotAt time.Time `gorm:"type:date;not null;uniqueIndex:idx_stats_snapshot_date" json:"snapshot_at"`

	TotalProperties     int64 `gorm:"not null;default:0" json:"total_properties"`
	PublishedProperties int64 `gorm:"not null;default:0" json:"published_properties"`
	ActiveLeads         int64 `gorm:"not null;default:0" json:"active_leads"`
	ScheduledViewings   int64 `gorm:"not null;default:0" json:"scheduled_viewings"`
	OpenOffers          int64 `gorm:"not null;default:0" json:"open_offers"`
	MonthlyRevenue      int64 `gorm:"not null;default:0" json:"monthly_revenue"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (StatsSnapshot) TableName() string {
	return "stats_snapshots"
}
