package models

import (
	"time"

	"github.com/localnerve/grants-portal/internal/pipeline"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the payment state of an invoice.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSent    PaymentStatus = "sent"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
)

// PaymentStatuses lists the payment vocabulary.
func PaymentStatuses() []string {
	return []string{string(PaymentPending), string(PaymentSent), string(PaymentPaid), string(PaymentOverdue)}
}

// InvoiceDueDays is the payment term from the invoice date.
const InvoiceDueDays = 30

// Invoice is the success fee invoice of a won application.
type Invoice struct {
	ID                 string                 `gorm:"primaryKey;type:char(36)" json:"id"`
	GrantApplicationID string                 `gorm:"type:char(36);not null;uniqueIndex" json:"grantApplicationId"`
	GrantApplication   *GrantApplication      `gorm:"foreignKey:GrantApplicationID" json:"-"`
	ClubID             string                 `gorm:"type:char(36);not null;index" json:"clubId"`
	InvoiceNumber      string                 `gorm:"size:32;not null;uniqueIndex" json:"invoiceNumber"`
	Amount             decimal.Decimal        `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status             PaymentStatus          `gorm:"size:16;not null;default:pending;index" json:"status"`
	InvoiceStatus      pipeline.InvoiceStatus `gorm:"size:16;not null;default:pending" json:"invoiceStatus"`
	InvoiceDate        time.Time              `gorm:"type:date;not null" json:"invoiceDate"`
	DueDate            time.Time              `gorm:"type:date;not null" json:"dueDate"`
	PaidDate           *time.Time             `gorm:"type:date" json:"paidDate"`
	CreatedAt          time.Time              `json:"createdAt"`
	UpdatedAt          time.Time              `json:"updatedAt"`
}

func (Invoice) TableName() string {
	return "invoices"
}
