// grants.go
//
// Grant pipeline and club portal data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of grants-portal.
// grants-portal is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// grants-portal is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with grants-portal.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"strings"
	"time"

	"github.com/localnerve/grants-portal/internal/dashboard"
	"github.com/localnerve/grants-portal/internal/format"
	"github.com/localnerve/grants-portal/internal/models"
	"github.com/localnerve/grants-portal/internal/pipeline"
	"github.com/localnerve/grants-portal/internal/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GrantQuery filters and orders the grant catalogue.
type GrantQuery struct {
	Search    string
	Status    string
	GrantType string
	Sort      string
	Order     string
	Page
}

var grantSortColumns = map[string]string{
	"name":       "name",
	"close_date": "close_date",
	"closeDate":  "close_date",
	"open_date":  "open_date",
	"openDate":   "open_date",
	"status":     "status",
	"amount":     "amount_max",
}

// GrantRow is one catalogue row.
type GrantRow struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Provider         string             `json:"provider"`
	ProgramName      string             `json:"programName"`
	GrantType        string             `json:"grantType"`
	Amount           string             `json:"amount"`
	AmountMax        *decimal.Decimal   `json:"amountMax"`
	OpenDate         *time.Time         `json:"openDate"`
	CloseDate        *time.Time         `json:"closeDate"`
	ClosingSoon      bool               `json:"closingSoon"`
	Status           models.GrantStatus `json:"status"`
	ApplicationURL   string             `json:"applicationUrl"`
	LinkDomain       string             `json:"linkDomain"`
	States           []string           `json:"states"`
	ApplicationCount int64              `json:"applicationCount"`
}

// GrantPage is a page of the catalogue.
type GrantPage struct {
	Grants     []GrantRow `json:"grants"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PerPage    int        `json:"perPage"`
	TotalPages int        `json:"totalPages"`
}

// ListGrants pages through active grants.
func ListGrants(db *gorm.DB, q GrantQuery, now time.Time) (*GrantPage, error) {
	page := NewPage(q.Page.Page, q.Page.PerPage)

	base := db.Model(&models.Grant{}).Where("is_active = ?", true)
	if q.Search != "" {
		pattern := likePattern(q.Search)
		base = base.Where("LOWER(name) LIKE ? OR LOWER(provider) LIKE ? OR LOWER(program_name) LIKE ?", pattern, pattern, pattern)
	}
	if q.Status != "" {
		base = base.Where("status = ?", q.Status)
	}
	if q.GrantType != "" {
		base = base.Where("grant_type = ?", q.GrantType)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, storeErr(err)
	}

	column, ok := grantSortColumns[q.Sort]
	if !ok {
		column = "close_date"
	}
	var grants []models.Grant
	err := base.Session(&gorm.Session{}).
		Preload("EligibleStates").
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: q.Order != "asc"}).
		Order("id").
		Offset(page.Offset()).
		Limit(page.PerPage).
		Find(&grants).Error
	if err != nil {
		return nil, storeErr(err)
	}

	ids := make([]string, len(grants))
	for i, g := range grants {
		ids[i] = g.ID
	}
	counts, err := applicationCounts(db, "grant_id", ids)
	if err != nil {
		return nil, err
	}

	out := &GrantPage{
		Grants:     make([]GrantRow, 0, len(grants)),
		Total:      total,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalPages: page.TotalPages(total),
	}
	for i := range grants {
		out.Grants = append(out.Grants, grantRow(&grants[i], counts[grants[i].ID], now))
	}
	return out, nil
}

func grantRow(g *models.Grant, apps int64, now time.Time) GrantRow {
	row := GrantRow{
		ID:               g.ID,
		Name:             g.Name,
		Provider:         g.Provider,
		ProgramName:      g.ProgramName,
		GrantType:        g.GrantType,
		Amount:           format.AmountRange(g.AmountMin, g.AmountMax),
		OpenDate:         g.OpenDate,
		CloseDate:        g.CloseDate,
		ClosingSoon:      closingSoon(g, now),
		Status:           g.Status,
		ApplicationURL:   g.ApplicationURL,
		LinkDomain:       format.Hostname(g.ApplicationURL),
		States:           g.States(),
		ApplicationCount: apps,
	}
	if row.Provider == "" {
		row.Provider = format.Placeholder
	}
	if g.AmountMax.Valid {
		amountMax := g.AmountMax.Decimal
		row.AmountMax = &amountMax
	}
	return row
}

type countRow struct {
	RefID string
	N     int64
}

// applicationCounts counts applications grouped by grant_id or club_id.
func applicationCounts(db *gorm.DB, column string, ids []string) (map[string]int64, error) {
	out := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []countRow
	err := db.Model(&models.GrantApplication{}).
		Select(column + " AS ref_id, COUNT(*) AS n").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, storeErr(err)
	}
	for _, r := range rows {
		out[r.RefID] = r.N
	}
	return out, nil
}

// GrantStats computes the catalogue stat cards.
func GrantStats(db *gorm.DB, now time.Time) (dashboard.CatalogueStats, error) {
	snap, err := LoadSnapshot(db)
	if err != nil {
		return dashboard.CatalogueStats{}, err
	}
	return dashboard.Catalogue(snap, now), nil
}

// GrantInput creates a grant.
type GrantInput struct {
	Name           string           `json:"name"`
	Provider       string           `json:"provider"`
	ProgramName    string           `json:"programName"`
	GrantType      string           `json:"grantType"`
	Description    string           `json:"description"`
	AmountMin      *decimal.Decimal `json:"amountMin"`
	AmountMax      *decimal.Decimal `json:"amountMax"`
	OpenDate       *types.FlexDate  `json:"openDate"`
	CloseDate      *types.FlexDate  `json:"closeDate"`
	Status         string           `json:"status"`
	ApplicationURL string           `json:"applicationUrl"`
	EligibleStates []string         `json:"eligibleStates"`
	IsActive       *bool            `json:"isActive"`
}

func (in *GrantInput) validate() (models.GrantStatus, error) {
	var errs pipeline.ValidationErrors
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, required("name"))
	}
	if in.AmountMin != nil && in.AmountMin.IsNegative() {
		errs = append(errs, &pipeline.ValidationError{Field: "amountMin", Value: in.AmountMin.String(), Err: ErrOutOfRange})
	}
	if in.AmountMin != nil && in.AmountMax != nil && in.AmountMin.GreaterThan(*in.AmountMax) {
		errs = append(errs, &pipeline.ValidationError{Field: "amountMax", Value: in.AmountMax.String(), Err: ErrOutOfRange})
	}
	if in.OpenDate != nil && in.CloseDate != nil && in.CloseDate.Time().Before(in.OpenDate.Time()) {
		errs = append(errs, &pipeline.ValidationError{Field: "closeDate", Value: in.CloseDate.Time().Format(time.DateOnly), Err: ErrOutOfRange})
	}

	status := models.GrantDraft
	switch in.Status {
	case "", string(models.GrantDraft):
	case string(models.GrantOpen):
		status = models.GrantOpen
	default:
		errs = append(errs, &pipeline.ValidationError{
			Field:   "status",
			Value:   in.Status,
			Allowed: []string{string(models.GrantDraft), string(models.GrantOpen)},
			Err:     ErrInvalidGrantStatus,
		})
	}
	if len(errs) > 0 {
		return "", errs
	}
	return status, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

// CreateGrant adds a grant in draft, or open when asked.
func CreateGrant(db *gorm.DB, in GrantInput) (*models.Grant, error) {
	status, err := in.validate()
	if err != nil {
		return nil, err
	}

	grant := models.Grant{
		Name:           strings.TrimSpace(in.Name),
		Provider:       in.Provider,
		ProgramName:    in.ProgramName,
		GrantType:      in.GrantType,
		Description:    in.Description,
		AmountMin:      nullDecimal(in.AmountMin),
		AmountMax:      nullDecimal(in.AmountMax),
		OpenDate:       in.OpenDate.Ptr(),
		CloseDate:      in.CloseDate.Ptr(),
		Status:         status,
		ApplicationURL: in.ApplicationURL,
		IsActive:       in.IsActive == nil || *in.IsActive,
	}
	seen := make(map[string]bool)
	for _, s := range in.EligibleStates {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		grant.EligibleStates = append(grant.EligibleStates, models.GrantEligibleState{State: s})
	}

	if err := db.Create(&grant).Error; err != nil {
		return nil, storeErr(err)
	}
	return &grant, nil
}

// GrantDetail is a grant with its catalogue extras.
type GrantDetail struct {
	*models.Grant
	States           []string `json:"eligibleStates"`
	AmountDisplay    string   `json:"amountDisplay"`
	LinkDomain       string   `json:"linkDomain"`
	ClosingSoon      bool     `json:"closingSoon"`
	ApplicationCount int64    `json:"applicationCount"`
}

// GetGrant loads one grant.
func GetGrant(db *gorm.DB, grantID string, now time.Time) (*GrantDetail, error) {
	var grant models.Grant
	if err := silent(db).Preload("EligibleStates").First(&grant, "id = ?", grantID).Error; err != nil {
		return nil, storeErr(err)
	}
	counts, err := applicationCounts(db, "grant_id", []string{grant.ID})
	if err != nil {
		return nil, err
	}
	return &GrantDetail{
		Grant:            &grant,
		States:           grant.States(),
		AmountDisplay:    format.AmountRange(grant.AmountMin, grant.AmountMax),
		LinkDomain:       format.Hostname(grant.ApplicationURL),
		ClosingSoon:      closingSoon(&grant, now),
		ApplicationCount: counts[grant.ID],
	}, nil
}

// GrantApplicationRow is one club's application on a grant.
type GrantApplicationRow struct {
	ID                string             `json:"id"`
	ClubID            string             `json:"clubId"`
	ClubName          string             `json:"clubName"`
	ApplicationStatus pipeline.Stage     `json:"applicationStatus"`
	StageLabel        string             `json:"stageLabel"`
	InterestStatus    *pipeline.Interest `json:"interestStatus"`
	PendingCount      int                `json:"pendingCount"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// ListGrantApplications lists the applications made on a grant.
func ListGrantApplications(db *gorm.DB, grantID string) ([]GrantApplicationRow, error) {
	if err := exists(db, &models.Grant{}, grantID); err != nil {
		return nil, storeErr(err)
	}
	var apps []models.GrantApplication
	err := db.Preload("Club").
		Preload("PendingItems", "status = ?", string(pipeline.ItemPending)).
		Where("grant_id = ?", grantID).
		Order("updated_at DESC, id").
		Find(&apps).Error
	if err != nil {
		return nil, storeErr(err)
	}
	out := make([]GrantApplicationRow, 0, len(apps))
	for _, a := range apps {
		row := GrantApplicationRow{
			ID:                a.ID,
			ClubID:            a.ClubID,
			ClubName:          format.Placeholder,
			ApplicationStatus: a.ApplicationStatus,
			StageLabel:        a.ApplicationStatus.Label(),
			InterestStatus:    a.InterestStatus,
			PendingCount:      len(a.PendingItems),
			UpdatedAt:         a.UpdatedAt,
		}
		if a.Club != nil {
			row.ClubName = a.Club.DisplayName()
		}
		out = append(out, row)
	}
	return out, nil
}

var grantTransitions = map[models.GrantStatus][]models.GrantStatus{
	models.GrantDraft: {models.GrantOpen, models.GrantClosed},
	models.GrantOpen:  {models.GrantClosed},
}

func parseGrantStatus(raw string) (models.GrantStatus, error) {
	allowed := []string{string(models.GrantDraft), string(models.GrantOpen), string(models.GrantClosed)}
	for _, s := range allowed {
		if s == raw {
			return models.GrantStatus(s), nil
		}
	}
	return "", &pipeline.ValidationError{Field: "status", Value: raw, Allowed: allowed, Err: ErrInvalidGrantStatus}
}

// CheckGrantTransition allows draft to open, open to closed and draft to
// closed. Re-setting the current status is a no-op. A correction bypasses the
// rules, so a closed grant can be reopened by an administrator.
func CheckGrantTransition(from, to models.GrantStatus, correction bool) error {
	if from == to || correction {
		return nil
	}
	for _, next := range grantTransitions[from] {
		if next == to {
			return nil
		}
	}
	if from == models.GrantClosed {
		return conflict("grant is closed")
	}
	return conflict("grant cannot move from " + string(from) + " to " + string(to))
}

// SetGrantStatus moves a grant through its publication lifecycle.
func SetGrantStatus(db *gorm.DB, grantID, status string, correction bool) (*models.Grant, error) {
	to, err := parseGrantStatus(status)
	if err != nil {
		return nil, err
	}

	var grant models.Grant
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := silent(tx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&grant, "id = ?", grantID).Error; err != nil {
			return err
		}
		if err := CheckGrantTransition(grant.Status, to, correction); err != nil {
			return err
		}
		if grant.Status == to {
			return nil
		}
		grant.Status = to
		return tx.Model(&grant).Update("status", string(to)).Error
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return &grant, nil
}

// MatchResult reports the outcome of matching clubs to a grant, by club id.
type MatchResult struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
	Unknown []string `json:"unknown"`
}

// MatchClubs opens an open_match application for every listed club that has
// none for the grant yet.
func MatchClubs(db *gorm.DB, grantID string, clubIDs []string) (*MatchResult, error) {
	if len(clubIDs) == 0 {
		return nil, required("clubIds")
	}

	result := &MatchResult{Created: []string{}, Skipped: []string{}, Unknown: []string{}}
	err := db.Transaction(func(tx *gorm.DB) error {
		var grant models.Grant
		if err := silent(tx).First(&grant, "id = ?", grantID).Error; err != nil {
			return err
		}
		if grant.Status == models.GrantClosed {
			return conflict("grant is closed")
		}

		var known []string
		if err := tx.Model(&models.Club{}).Where("id IN ?", clubIDs).Pluck("id", &known).Error; err != nil {
			return err
		}
		var matched []string
		if err := tx.Model(&models.GrantApplication{}).
			Where("grant_id = ? AND club_id IN ?", grantID, clubIDs).
			Pluck("club_id", &matched).Error; err != nil {
			return err
		}
		isKnown := toSet(known)
		isMatched := toSet(matched)

		var apps []models.GrantApplication
		seen := make(map[string]bool)
		for _, id := range clubIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			switch {
			case !isKnown[id]:
				result.Unknown = append(result.Unknown, id)
			case isMatched[id]:
				result.Skipped = append(result.Skipped, id)
			default:
				result.Created = append(result.Created, id)
				apps = append(apps, models.GrantApplication{
					ClubID:            id,
					GrantID:           grantID,
					ApplicationStatus: pipeline.StageOpenMatch,
					SubStatuses:       pipeline.DefaultSubStatuses(),
				})
			}
		}
		if len(apps) == 0 {
			return nil
		}
		return tx.Create(&apps).Error
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return result, nil
}

func toSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// CloseExpiredGrants closes every open grant whose close date is before today.
func CloseExpiredGrants(db *gorm.DB, today time.Time) (int64, error) {
	res := db.Model(&models.Grant{}).
		Where("status = ? AND close_date < ?", string(models.GrantOpen), today).
		Update("status", string(models.GrantClosed))
	if res.Error != nil {
		return 0, storeErr(res.Error)
	}
	return res.RowsAffected, nil
}
