// seed.go
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

package database

import (
	"encoding/json"
	"fmt"

	"github.com/localnerve/grants-portal/internal/models"
	"github.com/localnerve/grants-portal/internal/pipeline"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type templateSeed struct {
	Name         string `json:"name"`
	ItemType     string `json:"itemType"`
	Description  string `json:"description"`
	Instructions string `json:"instructions"`
}

// SeedTemplates inserts the pending item templates in raw that are not yet
// present, matched by name. Existing rows are left untouched. It returns the
// number of rows inserted.
func SeedTemplates(db *gorm.DB, raw []byte) (int64, error) {
	var seeds []templateSeed
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return 0, fmt.Errorf("invalid template seed: %w", err)
	}
	if len(seeds) == 0 {
		return 0, nil
	}

	rows := make([]models.PendingItemTemplate, 0, len(seeds))
	for _, s := range seeds {
		itemType, err := pipeline.ParseItemType(s.ItemType)
		if err != nil {
			return 0, fmt.Errorf("template %q: %w", s.Name, err)
		}
		rows = append(rows, models.PendingItemTemplate{
			Name:         s.Name,
			ItemType:     itemType,
			Description:  s.Description,
			Instructions: s.Instructions,
			IsActive:     true,
		})
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&rows)
	return result.RowsAffected, result.Error
}
