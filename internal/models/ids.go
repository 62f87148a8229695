package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (c *Club) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

func (g *Grant) BeforeCreate(tx *gorm.DB) error {
	ensureID(&g.ID)
	return nil
}

func (a *GrantApplication) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

func (p *PendingItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

func (s *StaffMember) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
