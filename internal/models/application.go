// application.go
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

package models

import (
	"time"

	"github.com/localnerve/grants-portal/internal/pipeline"
	"github.com/shopspring/decimal"
)

// GrantApplication pairs one club with one grant and carries its pipeline state.
type GrantApplication struct {
	ID                  string             `gorm:"primaryKey;type:char(36)" json:"id"`
	ClubID              string             `gorm:"type:char(36);not null;uniqueIndex:idx_club_grant" json:"clubId"`
	GrantID             string             `gorm:"type:char(36);not null;uniqueIndex:idx_club_grant;index" json:"grantId"`
	Club                *Club              `gorm:"foreignKey:ClubID" json:"-"`
	Grant               *Grant             `gorm:"foreignKey:GrantID" json:"-"`
	ApplicationStatus   pipeline.Stage     `gorm:"size:32;not null;default:open_match;index" json:"applicationStatus"`
	InterestStatus      *pipeline.Interest `gorm:"size:32" json:"interestStatus"`
	InterestSubmittedAt *time.Time         `json:"interestSubmittedAt"`

	pipeline.SubStatuses `gorm:"embedded"`

	AmountRequested      decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"amountRequested"`
	AmountWon            decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"amountWon"`
	SuccessFeePercentage decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"successFeePercentage"`
	SuccessFeeAmount     decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"successFeeAmount"`
	ProbabilityOfSuccess *int                `json:"probabilityOfSuccess"`
	SubmissionDate       *time.Time          `gorm:"type:date" json:"submissionDate"`
	OutcomeDate          *time.Time          `gorm:"type:date;index" json:"outcomeDate"`
	ApplicationReference string              `gorm:"size:120" json:"applicationReference"`
	ProjectDescription   string              `gorm:"type:text" json:"projectDescription"`
	AccountExecutiveID   *string             `gorm:"type:char(36)" json:"accountExecutiveId"`
	GrantWriterID        *string             `gorm:"type:char(36)" json:"grantWriterId"`
	ReviewerID           *string             `gorm:"type:char(36)" json:"reviewerId"`
	Version              uint64              `gorm:"not null;default:0" json:"version"`
	PendingItems         []PendingItem       `gorm:"foreignKey:GrantApplicationID" json:"-"`
	Invoice              *Invoice            `gorm:"foreignKey:GrantApplicationID" json:"-"`
	CreatedAt            time.Time           `json:"createdAt"`
	UpdatedAt            time.Time           `json:"updatedAt"`
}

// State extracts the pipeline position of the application.
func (a *GrantApplication) State() pipeline.State {
	return pipeline.State{
		Stage:               a.ApplicationStatus,
		Interest:            a.InterestStatus,
		InterestSubmittedAt: a.InterestSubmittedAt,
		SubStatuses:         a.SubStatuses,
	}
}

// SetState copies a pipeline position back onto the row.
func (a *GrantApplication) SetState(st pipeline.State) {
	a.ApplicationStatus = st.Stage
	a.InterestStatus = st.Interest
	a.InterestSubmittedAt = st.InterestSubmittedAt
	a.SubStatuses = st.SubStatuses
}

func (GrantApplication) TableName() string {
	return "grant_applications"
}
