// items.go
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
	"fmt"
	"strings"
	"time"

	"github.com/localnerve/grants-portal/internal/metrics"
	"github.com/localnerve/grants-portal/internal/models"
	"github.com/localnerve/grants-portal/internal/pipeline"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemInput is one pending item request. Blank fields fall back to the
// referenced template.
type ItemInput struct {
	TemplateID   *uint  `json:"templateId"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Description  string `json:"description"`
	Instructions string `json:"instructions"`
}

// AddItems validates the whole batch, then inserts every item as pending.
func AddItems(db *gorm.DB, clubID, appID string, inputs []ItemInput, createdBy string) ([]models.PendingItem, error) {
	if len(inputs) == 0 {
		return nil, pipeline.ErrEmptyUpdate
	}

	var items []models.PendingItem
	err := db.Transaction(func(tx *gorm.DB) error {
		app, err := findApplication(tx, clubID, appID, false)
		if err != nil {
			return err
		}
		templates, err := loadTemplates(tx, inputs)
		if err != nil {
			return err
		}

		items, err = buildItems(app.ID, inputs, templates, createdBy)
		if err != nil {
			return err
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return nil, storeErr(err)
	}

	for _, item := range items {
		metrics.PendingItemsCreated.WithLabelValues(string(item.ItemType)).Inc()
	}
	return items, nil
}

func loadTemplates(tx *gorm.DB, inputs []ItemInput) (map[uint]models.PendingItemTemplate, error) {
	var ids []uint
	for _, in := range inputs {
		if in.TemplateID != nil {
			ids = append(ids, *in.TemplateID)
		}
	}
	out := make(map[uint]models.PendingItemTemplate, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var templates []models.PendingItemTemplate
	if err := tx.Where("id IN ?", ids).Find(&templates).Error; err != nil {
		return nil, err
	}
	for _, t := range templates {
		out[t.ID] = t
	}
	return out, nil
}

func buildItems(appID string, inputs []ItemInput, templates map[uint]models.PendingItemTemplate, createdBy string) ([]models.PendingItem, error) {
	var errs pipeline.ValidationErrors
	items := make([]models.PendingItem, 0, len(inputs))
	for i, in := range inputs {
		prefix := ""
		if len(inputs) > 1 {
			prefix = fmt.Sprintf("items[%d].", i)
		}

		if in.TemplateID != nil {
			t, ok := templates[*in.TemplateID]
			if !ok {
				errs = append(errs, &pipeline.ValidationError{
					Field: prefix + "templateId",
					Value: fmt.Sprint(*in.TemplateID),
					Err:   pipeline.ErrNotFound,
				})
				continue
			}
			in = withTemplate(in, t)
		}

		name := strings.TrimSpace(in.Name)
		if name == "" {
			errs = append(errs, required(prefix+"name"))
		}
		itemType, err := pipeline.ParseItemType(in.Type)
		if err != nil {
			ve := err.(*pipeline.ValidationError)
			ve.Field = prefix + ve.Field
			errs = append(errs, ve)
		}
		if name == "" || err != nil {
			continue
		}

		item := models.PendingItem{
			GrantApplicationID: appID,
			TemplateID:         in.TemplateID,
			CustomName:         name,
			ItemType:           itemType,
			Description:        in.Description,
			Instructions:       in.Instructions,
			Status:             pipeline.ItemPending,
		}
		if createdBy != "" {
			item.CreatedBy = &createdBy
		}
		items = append(items, item)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return items, nil
}

func withTemplate(in ItemInput, t models.PendingItemTemplate) ItemInput {
	if in.Name == "" {
		in.Name = t.Name
	}
	if in.Type == "" {
		in.Type = string(t.ItemType)
	}
	if in.Description == "" {
		in.Description = t.Description
	}
	if in.Instructions == "" {
		in.Instructions = t.Instructions
	}
	return in
}

// findItem loads an item that belongs to an application of the given club.
func findItem(tx *gorm.DB, clubID, itemID string, lock bool) (*models.PendingItem, error) {
	q := silent(tx).
		Joins("JOIN grant_applications ON grant_applications.id = pending_items.grant_application_id").
		Where("pending_items.id = ? AND grant_applications.club_id = ?", itemID, clubID)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "pending_items"}})
	}
	var item models.PendingItem
	if err := q.First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// SetItemStatus moves an item of an application to any status.
func SetItemStatus(db *gorm.DB, clubID, appID, itemID, status string) (*models.PendingItem, error) {
	s, err := pipeline.ParseItemStatus(status)
	if err != nil {
		return nil, err
	}

	var item *models.PendingItem
	err = db.Transaction(func(tx *gorm.DB) error {
		item, err = findItem(tx, clubID, itemID, true)
		if err != nil {
			return err
		}
		if item.GrantApplicationID != appID {
			return pipeline.ErrNotFound
		}
		if err := tx.Model(item).Update("status", string(s)).Error; err != nil {
			return err
		}
		item.Status = s
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	metrics.PendingItemStatusChanges.WithLabelValues(string(s)).Inc()
	return item, nil
}

// CountPending counts the pending items of an application of a club.
func CountPending(db *gorm.DB, clubID, appID string) (int64, error) {
	if err := exists(silent(db).Where("club_id = ?", clubID), &models.GrantApplication{}, appID); err != nil {
		return 0, storeErr(err)
	}
	var n int64
	err := db.Model(&models.PendingItem{}).
		Where("grant_application_id = ? AND status = ?", appID, string(pipeline.ItemPending)).
		Count(&n).Error
	return n, storeErr(err)
}

// ItemResponse is a club's answer to a pending item. Which field is required
// depends on the item type.
type ItemResponse struct {
	Text      *string `json:"responseText"`
	FileURL   *string `json:"fileUrl"`
	Confirmed *bool   `json:"confirmed"`
}

func (r ItemResponse) validate(t pipeline.ItemType) *pipeline.ValidationError {
	switch t {
	case pipeline.ItemFile:
		if r.FileURL == nil || strings.TrimSpace(*r.FileURL) == "" {
			return &pipeline.ValidationError{Field: "fileUrl", Err: ErrInvalidResponse}
		}
	case pipeline.ItemText:
		if r.Text == nil || strings.TrimSpace(*r.Text) == "" {
			return &pipeline.ValidationError{Field: "responseText", Err: ErrInvalidResponse}
		}
	case pipeline.ItemConfirmation:
		if r.Confirmed == nil || !*r.Confirmed {
			return &pipeline.ValidationError{Field: "confirmed", Err: ErrInvalidResponse}
		}
	}
	return nil
}

// SubmitResponse records a club's fulfilment of one of its items and marks it
// received. The item type never changes.
func SubmitResponse(db *gorm.DB, clubID, itemID string, resp ItemResponse, now time.Time) (*models.PendingItem, error) {
	var item *models.PendingItem
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = findItem(tx, clubID, itemID, true)
		if err != nil {
			return err
		}
		if verr := resp.validate(item.ItemType); verr != nil {
			return verr
		}

		responded := now.UTC()
		cols := map[string]interface{}{
			"status":       string(pipeline.ItemReceived),
			"responded_at": responded,
		}
		if resp.Text != nil {
			cols["response_text"] = *resp.Text
		}
		if resp.FileURL != nil {
			cols["file_url"] = *resp.FileURL
		}
		if err := tx.Model(item).Updates(cols).Error; err != nil {
			return err
		}
		return silent(tx).First(item, "id = ?", item.ID).Error
	})
	if err != nil {
		return nil, storeErr(err)
	}
	metrics.PendingItemStatusChanges.WithLabelValues(string(pipeline.ItemReceived)).Inc()
	return item, nil
}

// ListTemplates returns the active templates by name.
func ListTemplates(db *gorm.DB) ([]models.PendingItemTemplate, error) {
	var templates []models.PendingItemTemplate
	err := db.Where("is_active = ?", true).Order("name ASC").Find(&templates).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return templates, nil
}
