package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// GrantStatus is the publication state of a grant.
type GrantStatus string

const (
	GrantDraft  GrantStatus = "draft"
	GrantOpen   GrantStatus = "open"
	GrantClosed GrantStatus = "closed"
)

// Grant is a funding opportunity in the catalogue.
type Grant struct {
	ID             string               `gorm:"primaryKey;type:char(36)" json:"id"`
	Name           string               `gorm:"size:255;not null;index" json:"name"`
	Provider       string               `gorm:"size:255" json:"provider"`
	ProgramName    string               `gorm:"size:255" json:"programName"`
	GrantType      string               `gorm:"size:64;index" json:"grantType"`
	Description    string               `gorm:"type:text" json:"description"`
	AmountMin      decimal.NullDecimal  `gorm:"type:decimal(12,2)" json:"amountMin"`
	AmountMax      decimal.NullDecimal  `gorm:"type:decimal(12,2)" json:"amountMax"`
	OpenDate       *time.Time           `gorm:"type:date" json:"openDate"`
	CloseDate      *time.Time           `gorm:"type:date;index" json:"closeDate"`
	Status         GrantStatus          `gorm:"size:16;not null;default:draft;index" json:"status"`
	ApplicationURL string               `gorm:"column:application_url;size:1024" json:"applicationUrl"`
	IsActive       bool                 `gorm:"not null" json:"isActive"`
	EligibleStates []GrantEligibleState `gorm:"foreignKey:GrantID" json:"-"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

// States lists the eligible state codes.
func (g *Grant) States() []string {
	out := make([]string, 0, len(g.EligibleStates))
	for _, s := range g.EligibleStates {
		out = append(out, s.State)
	}
	sort.Strings(out)
	return out
}

// GrantEligibleState is one state a grant is open to.
type GrantEligibleState struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	GrantID string `gorm:"type:char(36);not null;uniqueIndex:idx_grant_state"`
	State   string `gorm:"size:8;not null;uniqueIndex:idx_grant_state"`
}

func (Grant) TableName() string {
	return "grants"
}

func (GrantEligibleState) TableName() string {
	return "grant_eligible_states"
}
