package scheduler

import (
	"fmt"
	"log"
	"strings"
	"time"

	"real-estate-cms/internal/cleanup"
	"real-estate-cms/internal/config"
	"real-estate-cms/internal/database"
	"real-estate-cms/internal/models"
	"real-estate-cms/internal/search"
	"real-estate-cms/internal/snapshot"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the recurring background jobs: the daily stats snapshot, the
// nightly search reindex and the weekly audit retention cleanup.
type Scheduler struct {
	cron      *cron.Cron
	gdb       *database.GormDB
	searchCli *search.SearchClient
	snapshot  *snapshot.Service
	cleanup   *cleanup.Service
	config    *config.Config
	isRunning bool
}

// NewScheduler creates a new scheduler
func NewScheduler(gdb *database.GormDB, searchCli *search.SearchClient, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(cfg.Location())),
		gdb:       gdb,
		searchCli: searchCli,
		snapshot:  snapshot.NewService(gdb.DB()),
		cleanup:   cleanup.NewService(gdb.DB()),
		config:    cfg,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Scheduler.Enabled {
		log.Println("Scheduler: disabled in configuration")
		return nil
	}

	snapshotSpec := parseDailyRunTime(s.config.Scheduler.SnapshotTime, "0 1 * * *")
	if _, err := s.cron.AddFunc(snapshotSpec, func() {
		log.Println("Scheduler: starting daily stats snapshot...")
		if err := s.RunSnapshotNow(); err != nil {
			log.Printf("Scheduler: stats snapshot failed: %v", err)
		} else {
			log.Println("Scheduler: stats snapshot completed")
		}
	}); err != nil {
		return err
	}

	if s.searchCli != nil {
		reindexSpec := parseDailyRunTime(s.config.Scheduler.ReindexTime, "0 3 * * *")
		if _, err := s.cron.AddFunc(reindexSpec, func() {
			log.Println("Scheduler: starting nightly search reindex...")
			if err := s.RunReindexNow(); err != nil {
				log.Printf("Scheduler: search reindex failed: %v", err)
			} else {
				log.Println("Scheduler: search reindex completed")
			}
		}); err != nil {
			return err
		}
	}

	cleanupSpec := fmt.Sprintf("0 4 * * %s", weekdaySpec(s.config.Scheduler.CleanupWeekday))
	if _, err := s.cron.AddFunc(cleanupSpec, func() {
		log.Println("Scheduler: starting weekly audit cleanup...")
		if _, err := s.RunCleanupNow(false); err != nil {
			log.Printf("Scheduler: audit cleanup failed: %v", err)
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: started (snapshot: %s, reindex: %s, cleanup: %s)",
		snapshotSpec, s.config.Scheduler.ReindexTime, cleanupSpec)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Println("Scheduler: stopped")
	}
}

// RunSnapshotNow immediately writes today's stats snapshot (for manual trigger).
// "Today" is resolved in the configured timezone.
func (s *Scheduler) RunSnapshotNow() error {
	_, err := s.snapshot.CreateSnapshot(time.Now().In(s.config.Location()))
	return err
}

// RunCleanupNow immediately runs the audit retention cleanup (for manual trigger)
func (s *Scheduler) RunCleanupNow(dryRun bool) (*cleanup.CleanupResult, error) {
	cfg := cleanup.DefaultCleanupConfig()
	if s.config.Scheduler.CleanupRetentionDays > 0 {
		cfg.RetentionDays = s.config.Scheduler.CleanupRetentionDays
	}
	cfg.DryRun = dryRun
	return s.cleanup.Run(cfg)
}

// RunReindexNow rebuilds the search index from the published properties.
func (s *Scheduler) RunReindexNow() error {
	if s.searchCli == nil {
		return fmt.Errorf("search is not configured")
	}
	return ReindexAll(s.gdb, s.searchCli)
}

// ReindexAll clears the index and re-adds every published property with its
// denormalized region and agent names. Also used by the admin reindex endpoint.
func ReindexAll(gdb *database.GormDB, searchCli *search.SearchClient) error {
	properties, err := gdb.GetPublishedProperties()
	if err != nil {
		return fmt.Errorf("load published properties: %w", err)
	}

	var regions []models.Region
	if err := gdb.DB().Find(&regions).Error; err != nil {
		return fmt.Errorf("load regions: %w", err)
	}
	regionByID := make(map[string]models.Region, len(regions))
	for _, r := range regions {
		regionByID[r.ID] = r
	}

	var agents []models.Agent
	if err := gdb.DB().Find(&agents).Error; err != nil {
		return fmt.Errorf("load agents: %w", err)
	}
	agentByID := make(map[string]models.Agent, len(agents))
	for _, a := range agents {
		agentByID[a.ID] = a
	}

	docs := make([]search.PropertyDoc, 0, len(properties))
	for i := range properties {
		p := &properties[i]
		var regionSlug, regionName, agentName string
		if p.RegionID != nil {
			if r, ok := regionByID[*p.RegionID]; ok {
				regionSlug = r.Slug
				regionName = r.NameEN
			}
		}
		if p.AgentID != nil {
			if a, ok := agentByID[*p.AgentID]; ok {
				agentName = a.NameEN
			}
		}
		docs = append(docs, search.DocFromProperty(p, regionSlug, regionName, agentName))
	}

	if err := searchCli.ClearIndex(); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	if err := searchCli.IndexProperties(docs); err != nil {
		return fmt.Errorf("index properties: %w", err)
	}

	log.Printf("Reindex: %d published properties indexed", len(docs))
	return nil
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "02:00" -> "0 2 * * *" (run at 2:00 AM every day)
func parseDailyRunTime(timeStr, fallback string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 && hour >= 0 && hour < 24 && minute >= 0 && minute < 60 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	log.Printf("Scheduler: failed to parse time '%s', using default spec %s", timeStr, fallback)
	return fallback
}

// weekdaySpec normalizes a configured weekday name to a cron weekday field.
func weekdaySpec(weekday string) string {
	switch strings.ToUpper(strings.TrimSpace(weekday)) {
	case "MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN":
		return strings.ToUpper(strings.TrimSpace(weekday))
	default:
		return "SUN"
	}
}
