package models

import (
	"time"

	"github.com/localnerve/grants-portal/internal/pipeline"
)

// PendingItem is one deliverable requested from a club for an application.
type PendingItem struct {
	ID                 string              `gorm:"primaryKey;type:char(36)" json:"id"`
	GrantApplicationID string              `gorm:"type:char(36);not null;index" json:"grantApplicationId"`
	TemplateID         *uint               `json:"templateId"`
	CustomName         string              `gorm:"size:255;not null" json:"customName"`
	ItemType           pipeline.ItemType   `gorm:"size:16;not null" json:"itemType"`
	Description        string              `gorm:"type:text" json:"description"`
	Instructions       string              `gorm:"type:text" json:"instructions"`
	Status             pipeline.ItemStatus `gorm:"size:16;not null;default:pending;index" json:"status"`
	ResponseText       *string             `gorm:"type:text" json:"responseText"`
	FileURL            *string             `gorm:"column:file_url;size:1024" json:"fileUrl"`
	RespondedAt        *time.Time          `json:"respondedAt"`
	CreatedBy          *string             `gorm:"type:char(36)" json:"createdBy"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// PendingItemTemplate is a reusable pending item definition.
type PendingItemTemplate struct {
	ID           uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string            `gorm:"size:255;not null;uniqueIndex" json:"name"`
	ItemType     pipeline.ItemType `gorm:"size:16;not null" json:"itemType"`
	Description  string            `gorm:"type:text" json:"description"`
	Instructions string            `gorm:"type:text" json:"instructions"`
	IsActive     bool              `gorm:"not null;index" json:"isActive"`
	CreatedAt    time.Time         `json:"createdAt"`
}

func (PendingItem) TableName() string {
	return "pending_items"
}

func (PendingItemTemplate) TableName() string {
	return "pending_item_templates"
}
