// applications.go
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
	"sort"
	"time"

	"github.com/localnerve/grants-portal/internal/dashboard"
	"github.com/localnerve/grants-portal/internal/format"
	"github.com/localnerve/grants-portal/internal/metrics"
	"github.com/localnerve/grants-portal/internal/models"
	"github.com/localnerve/grants-portal/internal/pipeline"
	"github.com/localnerve/grants-portal/internal/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemView is a pending item as shown on an application card.
type ItemView struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Type        pipeline.ItemType   `json:"type"`
	Description string              `json:"description"`
	Status      pipeline.ItemStatus `json:"status"`
}

// InvoiceSummary is the invoice block of an application card.
type InvoiceSummary struct {
	Number string                 `json:"number"`
	Amount string                 `json:"amount"`
	Status models.PaymentStatus   `json:"status"`
	Sub    pipeline.InvoiceStatus `json:"invoiceStatus"`
	Date   string                 `json:"date"`
}

// ApplicationView is one application in a club's application list.
type ApplicationView struct {
	ID                 string     `json:"id"`
	GrantID            string     `json:"grantId"`
	GrantName          string     `json:"grantName"`
	GrantProvider      string     `json:"grantProvider"`
	GrantType          string     `json:"grantType"`
	Amount             string     `json:"amount"`
	AmountWon          *string    `json:"amountWon"`
	OpenDate           *time.Time `json:"openDate"`
	CloseDate          *time.Time `json:"closeDate"`
	CloseDateFormatted string     `json:"closeDateFormatted"`
	ClosingSoon        bool       `json:"closingSoon"`
	ApplicationURL     string     `json:"applicationUrl"`

	ApplicationStatus   pipeline.Stage     `json:"applicationStatus"`
	StageLabel          string             `json:"stageLabel"`
	Progress            *pipeline.Progress `json:"progress"`
	InterestStatus      *pipeline.Interest `json:"interestStatus"`
	InterestSubmittedAt *time.Time         `json:"interestSubmittedAt"`
	SubmittedAt         *time.Time         `json:"submittedAt"`

	pipeline.SubStatuses

	InvoiceStatus        pipeline.InvoiceStatus `json:"invoiceStatus"`
	ProjectDescription   string                 `json:"projectDescription"`
	ProbabilityOfSuccess *int                   `json:"probabilityOfSuccess"`
	SuccessFeeAmount     *string                `json:"successFeeAmount"`
	OutcomeDate          *time.Time             `json:"outcomeDate"`
	ApplicationReference string                 `json:"applicationReference"`
	AssignedAE           *string                `json:"assignedAE"`
	GrantWriter          *string                `json:"grantWriter"`
	Reviewer             *string                `json:"reviewer"`
	PendingItems         []ItemView             `json:"pendingItems"`
	PendingCount         int                    `json:"pendingCount"`
	Invoice              *InvoiceSummary        `json:"invoice"`
	Version              uint64                 `json:"version"`
	UpdatedAt            time.Time              `json:"updatedAt"`
}

// ApplicationList is the club application list with per-stage counts.
type ApplicationList struct {
	Applications []ApplicationView `json:"applications"`
	Total        int               `json:"total"`
	StatusCounts map[string]int    `json:"statusCounts"`
}

// ListApplications projects every application of a club, newest first.
func ListApplications(db *gorm.DB, clubID string, now time.Time) (*ApplicationList, error) {
	if err := exists(silent(db), &models.Club{}, clubID); err != nil {
		return nil, storeErr(err)
	}
	var apps []models.GrantApplication
	err := silent(db).
		Preload("Grant").
		Preload("PendingItems", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC, id ASC")
		}).
		Preload("Invoice").
		Where("club_id = ?", clubID).
		Order("created_at DESC, id ASC").
		Find(&apps).Error
	if err != nil {
		return nil, storeErr(err)
	}

	staff, err := staffNames(db, apps)
	if err != nil {
		return nil, err
	}
	templates, err := templateNames(db, apps)
	if err != nil {
		return nil, err
	}

	list := &ApplicationList{
		Applications: make([]ApplicationView, 0, len(apps)),
		Total:        len(apps),
		StatusCounts: make(map[string]int),
	}
	for i := range apps {
		view := applicationView(&apps[i], staff, templates, now)
		list.Applications = append(list.Applications, view)
		list.StatusCounts[string(view.ApplicationStatus)]++
	}
	return list, nil
}

func applicationView(a *models.GrantApplication, staff map[string]string, templates map[uint]string, now time.Time) ApplicationView {
	v := ApplicationView{
		ID:                   a.ID,
		GrantID:              a.GrantID,
		GrantName:            "Unknown Grant",
		GrantProvider:        format.Placeholder,
		Amount:               format.Placeholder,
		CloseDateFormatted:   format.Placeholder,
		ApplicationStatus:    a.ApplicationStatus,
		StageLabel:           a.ApplicationStatus.Label(),
		Progress:             pipeline.DeriveProgress(a.ApplicationStatus),
		InterestStatus:       a.InterestStatus,
		InterestSubmittedAt:  a.InterestSubmittedAt,
		SubmittedAt:          a.SubmissionDate,
		SubStatuses:          a.SubStatuses,
		InvoiceStatus:        pipeline.InvoicePending,
		ProjectDescription:   a.ProjectDescription,
		ProbabilityOfSuccess: a.ProbabilityOfSuccess,
		SuccessFeeAmount:     currencyPtr(a.SuccessFeeAmount),
		AmountWon:            currencyPtr(a.AmountWon),
		OutcomeDate:          a.OutcomeDate,
		ApplicationReference: a.ApplicationReference,
		AssignedAE:           nameOf(staff, a.AccountExecutiveID),
		GrantWriter:          nameOf(staff, a.GrantWriterID),
		Reviewer:             nameOf(staff, a.ReviewerID),
		PendingItems:         make([]ItemView, 0, len(a.PendingItems)),
		Version:              a.Version,
		UpdatedAt:            a.UpdatedAt,
	}

	if g := a.Grant; g != nil {
		v.GrantName = g.Name
		if g.Provider != "" {
			v.GrantProvider = g.Provider
		}
		v.GrantType = g.GrantType
		v.OpenDate = g.OpenDate
		v.CloseDate = g.CloseDate
		v.CloseDateFormatted = format.Date(g.CloseDate)
		v.ApplicationURL = g.ApplicationURL
		v.ClosingSoon = closingSoon(g, now)
		v.Amount = format.AmountRange(g.AmountMin, g.AmountMax)
	}
	if a.AmountRequested.Valid {
		v.Amount = format.Currency(a.AmountRequested.Decimal)
	}

	for _, item := range a.PendingItems {
		v.PendingItems = append(v.PendingItems, ItemView{
			ID:          item.ID,
			Name:        itemName(item, templates),
			Type:        item.ItemType,
			Description: item.Description,
			Status:      item.Status,
		})
		if item.Status == pipeline.ItemPending {
			v.PendingCount++
		}
	}

	if inv := a.Invoice; inv != nil {
		v.InvoiceStatus = inv.InvoiceStatus
		v.Invoice = &InvoiceSummary{
			Number: inv.InvoiceNumber,
			Amount: format.Currency(inv.Amount),
			Status: inv.Status,
			Sub:    inv.InvoiceStatus,
			Date:   format.Date(&inv.InvoiceDate),
		}
	}
	return v
}

// closingSoon applies the dashboard window to a catalogue row. Unlike the
// dashboard a row also has to be active.
func closingSoon(g *models.Grant, now time.Time) bool {
	return g.IsActive && dashboard.IsClosingSoon(dashboard.GrantRecord{
		Status:    g.Status,
		CloseDate: g.CloseDate,
	}, now)
}

func itemName(item models.PendingItem, templates map[uint]string) string {
	if item.CustomName != "" {
		return item.CustomName
	}
	if item.TemplateID != nil {
		if name, ok := templates[*item.TemplateID]; ok && name != "" {
			return name
		}
	}
	return "Unnamed Item"
}

func currencyPtr(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := format.Currency(d.Decimal)
	return &s
}

func nameOf(names map[string]string, id *string) *string {
	if id == nil {
		return nil
	}
	if name, ok := names[*id]; ok {
		return &name
	}
	return nil
}

func staffNames(db *gorm.DB, apps []models.GrantApplication) (map[string]string, error) {
	ids := make(map[string]struct{})
	for _, a := range apps {
		for _, id := range []*string{a.AccountExecutiveID, a.GrantWriterID, a.ReviewerID} {
			if id != nil {
				ids[*id] = struct{}{}
			}
		}
	}
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var staff []models.StaffMember
	if err := db.Where("id IN ?", keys(ids)).Find(&staff).Error; err != nil {
		return nil, storeErr(err)
	}
	for _, s := range staff {
		names[s.ID] = s.FullName
	}
	return names, nil
}

func templateNames(db *gorm.DB, apps []models.GrantApplication) (map[uint]string, error) {
	ids := make(map[uint]struct{})
	for _, a := range apps {
		for _, item := range a.PendingItems {
			if item.TemplateID != nil && item.CustomName == "" {
				ids[*item.TemplateID] = struct{}{}
			}
		}
	}
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	list := make([]uint, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	var templates []models.PendingItemTemplate
	if err := db.Where("id IN ?", list).Find(&templates).Error; err != nil {
		return nil, storeErr(err)
	}
	for _, t := range templates {
		names[t.ID] = t.Name
	}
	return names, nil
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CreateApplication opens an application for a club on a grant. Only the two
// initial stages are accepted and a club has at most one application per
// grant.
func CreateApplication(db *gorm.DB, clubID, grantID, initialStage string) (*models.GrantApplication, error) {
	stage, err := pipeline.InitialStage(initialStage)
	if err != nil {
		return nil, err
	}

	app := models.GrantApplication{
		ClubID:            clubID,
		GrantID:           grantID,
		ApplicationStatus: stage,
		SubStatuses:       pipeline.DefaultSubStatuses(),
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &models.Club{}, clubID); err != nil {
			return err
		}
		if err := exists(tx, &models.Grant{}, grantID); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.GrantApplication{}).
			Where("club_id = ? AND grant_id = ?", clubID, grantID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflict("club already has an application for this grant")
		}
		return tx.Create(&app).Error
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return &app, nil
}

func exists(tx *gorm.DB, model interface{}, id string) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return pipeline.ErrNotFound
	}
	return nil
}

// findApplication loads an application scoped to its club.
func findApplication(tx *gorm.DB, clubID, appID string, lock bool) (*models.GrantApplication, error) {
	q := silent(tx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var app models.GrantApplication
	if err := q.Where("id = ? AND club_id = ?", appID, clubID).First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// GetApplication loads one application of a club.
func GetApplication(db *gorm.DB, clubID, appID string) (*models.GrantApplication, error) {
	app, err := findApplication(db, clubID, appID, false)
	if err != nil {
		return nil, storeErr(err)
	}
	return app, nil
}

// PatchResult is the state of an application after a successful patch.
type PatchResult struct {
	Application   *models.GrantApplication
	InvoiceStatus *pipeline.InvoiceStatus
	PreviousStage pipeline.Stage
}

// StageChanged reports whether the patch moved the application.
func (r *PatchResult) StageChanged() bool {
	return r.PreviousStage != r.Application.ApplicationStatus
}

// PatchApplication applies a validated patch to one application of a club in
// a single transaction. When the patch carries a version it must match the
// stored row. Every successful write bumps the version. A move into won or
// lost stamps the outcome date when none is recorded.
func PatchApplication(db *gorm.DB, clubID, appID string, patch *pipeline.ApplicationPatch, now time.Time) (*PatchResult, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, pipeline.ErrEmptyUpdate
	}

	result := &PatchResult{}
	err := db.Transaction(func(tx *gorm.DB) error {
		app, err := findApplication(tx, clubID, appID, true)
		if err != nil {
			return err
		}
		if patch.Version != nil && *patch.Version != app.Version {
			return pipeline.ErrVersionConflict
		}
		result.PreviousStage = app.ApplicationStatus

		st, err := patch.Apply(app.State(), now)
		if err != nil {
			return err
		}
		cols := patch.Columns(st)
		if st.Stage.IsOutcome() && app.OutcomeDate == nil && st.Stage != app.ApplicationStatus {
			cols["outcome_date"] = dashboard.Today(now)
		}

		if patch.InvoiceStatus != nil {
			res := tx.Model(&models.Invoice{}).
				Where("grant_application_id = ?", app.ID).
				Update("invoice_status", string(*patch.InvoiceStatus))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return pipeline.ErrNotFound
			}
			result.InvoiceStatus = patch.InvoiceStatus
		}

		cols["version"] = app.Version + 1
		res := tx.Model(&models.GrantApplication{}).
			Where("id = ? AND version = ?", app.ID, app.Version).
			Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pipeline.ErrVersionConflict
		}

		updated, err := findApplication(tx, clubID, appID, false)
		if err != nil {
			return err
		}
		result.Application = updated
		if result.InvoiceStatus == nil {
			var inv models.Invoice
			if err := silent(tx).Where("grant_application_id = ?", app.ID).First(&inv).Error; err == nil {
				result.InvoiceStatus = &inv.InvoiceStatus
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}

	if result.StageChanged() {
		metrics.StageTransitions.WithLabelValues(string(result.PreviousStage), string(result.Application.ApplicationStatus)).Inc()
	}
	return result, nil
}

// SetStage moves an application to any stage. Terminal stages are final.
func SetStage(db *gorm.DB, clubID, appID, stage string, now time.Time) (*PatchResult, error) {
	p, err := pipeline.StagePatch(stage)
	if err != nil {
		return nil, err
	}
	return PatchApplication(db, clubID, appID, p, now)
}

// RecordInterest stores a club's response to a match. A nil value clears it.
func RecordInterest(db *gorm.DB, clubID, appID string, value *string, now time.Time) (*PatchResult, error) {
	p, err := pipeline.InterestPatch(value)
	if err != nil {
		return nil, err
	}
	return PatchApplication(db, clubID, appID, p, now)
}

// SetSubStatus sets one sub-status, including the invoice sub-status.
func SetSubStatus(db *gorm.DB, clubID, appID, field, value string, now time.Time) (*PatchResult, error) {
	p, err := pipeline.SubStatusPatch(field, value)
	if err != nil {
		return nil, err
	}
	return PatchApplication(db, clubID, appID, p, now)
}

// ApplicationDetails are the informational fields of an application. Nil
// fields are left unchanged. They stay editable in terminal stages.
type ApplicationDetails struct {
	AmountRequested      *decimal.Decimal `json:"amountRequested"`
	AmountWon            *decimal.Decimal `json:"amountWon"`
	SuccessFeePercentage *decimal.Decimal `json:"successFeePercentage"`
	SuccessFeeAmount     *decimal.Decimal `json:"successFeeAmount"`
	ProbabilityOfSuccess *int             `json:"probabilityOfSuccess"`
	SubmissionDate       *types.FlexDate  `json:"submissionDate"`
	OutcomeDate          *types.FlexDate  `json:"outcomeDate"`
	ApplicationReference *string          `json:"applicationReference"`
	ProjectDescription   *string          `json:"projectDescription"`
	AccountExecutiveID   *string          `json:"accountExecutiveId"`
	GrantWriterID        *string          `json:"grantWriterId"`
	ReviewerID           *string          `json:"reviewerId"`
}

var hundred = decimal.NewFromInt(100)

// Validate checks ranges. Amounts are non-negative, percentages run 0..100.
func (d *ApplicationDetails) Validate() error {
	var errs pipeline.ValidationErrors
	for field, amount := range map[string]*decimal.Decimal{
		"amountRequested":  d.AmountRequested,
		"amountWon":        d.AmountWon,
		"successFeeAmount": d.SuccessFeeAmount,
	} {
		if amount != nil && amount.IsNegative() {
			errs = append(errs, &pipeline.ValidationError{Field: field, Value: amount.String(), Err: ErrOutOfRange})
		}
	}
	if p := d.SuccessFeePercentage; p != nil && (p.IsNegative() || p.GreaterThan(hundred)) {
		errs = append(errs, &pipeline.ValidationError{Field: "successFeePercentage", Value: p.String(), Err: ErrOutOfRange})
	}
	if p := d.ProbabilityOfSuccess; p != nil && (*p < 0 || *p > 100) {
		errs = append(errs, &pipeline.ValidationError{Field: "probabilityOfSuccess", Value: decimal.NewFromInt(int64(*p)).String(), Err: ErrOutOfRange})
	}
	if len(errs) == 0 {
		return nil
	}
	sortErrors(errs)
	return errs
}

func (d *ApplicationDetails) columns() map[string]interface{} {
	cols := make(map[string]interface{})
	setDecimal := func(col string, v *decimal.Decimal) {
		if v != nil {
			cols[col] = decimal.NewNullDecimal(*v)
		}
	}
	setDecimal("amount_requested", d.AmountRequested)
	setDecimal("amount_won", d.AmountWon)
	setDecimal("success_fee_percentage", d.SuccessFeePercentage)
	setDecimal("success_fee_amount", d.SuccessFeeAmount)
	if d.ProbabilityOfSuccess != nil {
		cols["probability_of_success"] = *d.ProbabilityOfSuccess
	}
	if d.SubmissionDate != nil {
		cols["submission_date"] = d.SubmissionDate.Time()
	}
	if d.OutcomeDate != nil {
		cols["outcome_date"] = d.OutcomeDate.Time()
	}
	if d.ApplicationReference != nil {
		cols["application_reference"] = *d.ApplicationReference
	}
	if d.ProjectDescription != nil {
		cols["project_description"] = *d.ProjectDescription
	}
	setStaff := func(col string, v *string) {
		if v == nil {
			return
		}
		if *v == "" {
			cols[col] = nil
			return
		}
		cols[col] = *v
	}
	setStaff("account_executive_id", d.AccountExecutiveID)
	setStaff("grant_writer_id", d.GrantWriterID)
	setStaff("reviewer_id", d.ReviewerID)
	return cols
}

// UpdateDetails writes the informational fields of an application.
func UpdateDetails(db *gorm.DB, clubID, appID string, details *ApplicationDetails) (*models.GrantApplication, error) {
	if err := details.Validate(); err != nil {
		return nil, err
	}
	cols := details.columns()
	if len(cols) == 0 {
		return nil, pipeline.ErrEmptyUpdate
	}

	var app *models.GrantApplication
	err := db.Transaction(func(tx *gorm.DB) error {
		current, err := findApplication(tx, clubID, appID, true)
		if err != nil {
			return err
		}
		cols["version"] = current.Version + 1
		if err := tx.Model(&models.GrantApplication{}).Where("id = ?", current.ID).Updates(cols).Error; err != nil {
			return err
		}
		app, err = findApplication(tx, clubID, appID, false)
		return err
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return app, nil
}
