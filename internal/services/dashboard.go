package services

import (
	"time"

	"github.com/localnerve/grants-portal/internal/dashboard"
	"github.com/localnerve/grants-portal/internal/metrics"
	"github.com/localnerve/grants-portal/internal/models"
	"github.com/localnerve/grants-portal/internal/pipeline"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/hints"
)

type pendingCount struct {
	GrantApplicationID string
	N                  int
}

// LoadSnapshot reads the current clubs, grants and applications for one
// dashboard computation. Reads are tagged so they can be found in slow logs.
func LoadSnapshot(db *gorm.DB) (dashboard.Snapshot, error) {
	tagged := db.Clauses(hints.Comment("select", "dashboard_snapshot"))
	var snap dashboard.Snapshot

	var clubs []models.Club
	if err := tagged.Session(&gorm.Session{}).Select("id", "legal_entity_name", "shortened_name", "plan_code", "updated_at").
		Find(&clubs).Error; err != nil {
		return snap, storeErr(err)
	}
	var grants []models.Grant
	if err := tagged.Session(&gorm.Session{}).Select("id", "name", "provider", "status", "is_active", "close_date").
		Find(&grants).Error; err != nil {
		return snap, storeErr(err)
	}
	var apps []models.GrantApplication
	if err := tagged.Session(&gorm.Session{}).
		Select("id", "club_id", "grant_id", "application_status", "interest_status", "amount_won", "outcome_date", "updated_at").
		Find(&apps).Error; err != nil {
		return snap, storeErr(err)
	}
	var pending []pendingCount
	if err := tagged.Session(&gorm.Session{}).Model(&models.PendingItem{}).
		Select("grant_application_id, COUNT(*) AS n").
		Where("status = ?", string(pipeline.ItemPending)).
		Group("grant_application_id").
		Scan(&pending).Error; err != nil {
		return snap, storeErr(err)
	}
	byApp := make(map[string]int, len(pending))
	for _, p := range pending {
		byApp[p.GrantApplicationID] = p.N
	}

	snap.Clubs = make([]dashboard.ClubRecord, 0, len(clubs))
	for _, c := range clubs {
		snap.Clubs = append(snap.Clubs, dashboard.ClubRecord{
			ID:              c.ID,
			LegalEntityName: c.LegalEntityName,
			ShortenedName:   c.ShortenedName,
			PlanCode:        c.PlanCode,
			UpdatedAt:       c.UpdatedAt,
		})
	}
	snap.Grants = make([]dashboard.GrantRecord, 0, len(grants))
	for _, g := range grants {
		snap.Grants = append(snap.Grants, dashboard.GrantRecord{
			ID:        g.ID,
			Name:      g.Name,
			Provider:  g.Provider,
			Status:    g.Status,
			IsActive:  g.IsActive,
			CloseDate: g.CloseDate,
		})
	}
	snap.Applications = make([]dashboard.ApplicationRecord, 0, len(apps))
	for _, a := range apps {
		won := decimal.Zero
		if a.AmountWon.Valid {
			won = a.AmountWon.Decimal
		}
		snap.Applications = append(snap.Applications, dashboard.ApplicationRecord{
			ID:           a.ID,
			ClubID:       a.ClubID,
			GrantID:      a.GrantID,
			Stage:        a.ApplicationStatus,
			Interest:     a.InterestStatus,
			AmountWon:    won,
			OutcomeDate:  a.OutcomeDate,
			UpdatedAt:    a.UpdatedAt,
			PendingItems: byApp[a.ID],
		})
	}
	return snap, nil
}

// DashboardStats loads a fresh snapshot and computes the staff dashboard.
func DashboardStats(db *gorm.DB, now time.Time) (dashboard.Stats, error) {
	start := time.Now()
	defer func() { metrics.DashboardDuration.Observe(time.Since(start).Seconds()) }()

	snap, err := LoadSnapshot(db)
	if err != nil {
		return dashboard.Stats{}, err
	}
	return dashboard.Compute(snap, now), nil
}
