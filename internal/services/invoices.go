// invoices.go
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
	"time"

	"github.com/localnerve/grants-portal/internal/dashboard"
	"github.com/localnerve/grants-portal/internal/format"
	"github.com/localnerve/grants-portal/internal/models"
	"github.com/localnerve/grants-portal/internal/pipeline"
	"github.com/localnerve/grants-portal/internal/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceInput overrides the derived invoice amount and date.
type InvoiceInput struct {
	Amount      *decimal.Decimal `json:"amount"`
	InvoiceDate *types.FlexDate  `json:"invoiceDate"`
}

// invoiceAmount prefers the recorded success fee, then derives it from the
// amount won and the fee percentage.
func invoiceAmount(app *models.GrantApplication) (decimal.Decimal, bool) {
	if app.SuccessFeeAmount.Valid {
		return app.SuccessFeeAmount.Decimal, true
	}
	if app.AmountWon.Valid && app.SuccessFeePercentage.Valid {
		return app.AmountWon.Decimal.Mul(app.SuccessFeePercentage.Decimal).Div(hundred).Round(2), true
	}
	return decimal.Zero, false
}

// CreateInvoice issues the success fee invoice of a won application. An
// application is invoiced at most once.
func CreateInvoice(db *gorm.DB, clubID, appID string, in InvoiceInput, now time.Time) (*models.Invoice, error) {
	var invoice models.Invoice
	err := db.Transaction(func(tx *gorm.DB) error {
		app, err := findApplication(tx, clubID, appID, true)
		if err != nil {
			return err
		}
		if app.ApplicationStatus != pipeline.StageWon {
			return conflict("only won applications can be invoiced")
		}
		var count int64
		if err := tx.Model(&models.Invoice{}).Where("grant_application_id = ?", app.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflict("application already has an invoice")
		}

		amount, ok := invoiceAmount(app)
		if in.Amount != nil {
			amount, ok = *in.Amount, true
		}
		if !ok {
			return required("amount")
		}
		if !amount.IsPositive() {
			return &pipeline.ValidationError{Field: "amount", Value: amount.String(), Err: ErrOutOfRange}
		}

		invoiceDate := dashboard.Today(now)
		if in.InvoiceDate != nil {
			invoiceDate = in.InvoiceDate.Time()
		}
		number, err := nextInvoiceNumber(tx, invoiceDate.Year())
		if err != nil {
			return err
		}

		invoice = models.Invoice{
			GrantApplicationID: app.ID,
			ClubID:             app.ClubID,
			InvoiceNumber:      number,
			Amount:             amount,
			Status:             models.PaymentPending,
			InvoiceStatus:      pipeline.InvoiceInvoiced,
			InvoiceDate:        invoiceDate,
			DueDate:            invoiceDate.AddDate(0, 0, models.InvoiceDueDays),
		}
		return tx.Create(&invoice).Error
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return &invoice, nil
}

// nextInvoiceNumber numbers invoices per year as INV-2026-0001.
func nextInvoiceNumber(tx *gorm.DB, year int) (string, error) {
	prefix := fmt.Sprintf("INV-%d-", year)
	var count int64
	if err := tx.Model(&models.Invoice{}).Where("invoice_number LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

// InvoiceView is an invoice row with its club and grant names.
type InvoiceView struct {
	ID              string                 `json:"id"`
	InvoiceNumber   string                 `json:"invoiceNumber"`
	ApplicationID   string                 `json:"applicationId"`
	ClubID          string                 `json:"clubId"`
	ClubName        string                 `json:"clubName"`
	GrantName       string                 `json:"grantName"`
	Amount          decimal.Decimal        `json:"amount"`
	AmountFormatted string                 `json:"amountFormatted"`
	Status          models.PaymentStatus   `json:"status"`
	InvoiceStatus   pipeline.InvoiceStatus `json:"invoiceStatus"`
	InvoiceDate     string                 `json:"invoiceDate"`
	DueDate         string                 `json:"dueDate"`
	PaidDate        *string                `json:"paidDate"`
}

func parsePaymentStatus(raw string) (models.PaymentStatus, error) {
	for _, s := range models.PaymentStatuses() {
		if s == raw {
			return models.PaymentStatus(s), nil
		}
	}
	return "", &pipeline.ValidationError{Field: "status", Value: raw, Allowed: models.PaymentStatuses(), Err: ErrInvalidPaymentStatus}
}

// ListInvoices lists every invoice, newest first, optionally by payment status.
func ListInvoices(db *gorm.DB, status string) ([]InvoiceView, error) {
	q := db.Model(&models.Invoice{})
	if status != "" {
		s, err := parsePaymentStatus(status)
		if err != nil {
			return nil, err
		}
		q = q.Where("status = ?", string(s))
	}
	return invoiceViews(q)
}

// ListClubInvoices lists the invoices of one club.
func ListClubInvoices(db *gorm.DB, clubID string) ([]InvoiceView, error) {
	return invoiceViews(db.Model(&models.Invoice{}).Where("club_id = ?", clubID))
}

func invoiceViews(q *gorm.DB) ([]InvoiceView, error) {
	var invoices []models.Invoice
	err := q.Preload("GrantApplication.Club").
		Preload("GrantApplication.Grant").
		Order("invoice_date DESC, invoice_number DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, storeErr(err)
	}

	out := make([]InvoiceView, 0, len(invoices))
	for _, inv := range invoices {
		v := InvoiceView{
			ID:              inv.ID,
			InvoiceNumber:   inv.InvoiceNumber,
			ApplicationID:   inv.GrantApplicationID,
			ClubID:          inv.ClubID,
			ClubName:        format.Placeholder,
			GrantName:       "Unknown Grant",
			Amount:          inv.Amount,
			AmountFormatted: format.Currency(inv.Amount),
			Status:          inv.Status,
			InvoiceStatus:   inv.InvoiceStatus,
			InvoiceDate:     format.Date(&inv.InvoiceDate),
			DueDate:         format.Date(&inv.DueDate),
		}
		if inv.PaidDate != nil {
			paid := format.Date(inv.PaidDate)
			v.PaidDate = &paid
		}
		if app := inv.GrantApplication; app != nil {
			if app.Club != nil {
				v.ClubName = app.Club.DisplayName()
			}
			if app.Grant != nil {
				v.GrantName = app.Grant.Name
			}
		}
		out = append(out, v)
	}
	return out, nil
}

// SetInvoiceStatus records a payment status. Paid stamps the paid date and
// moves the invoice sub-status to paid; any other status clears the paid
// date and leaves the sub-status at invoiced.
func SetInvoiceStatus(db *gorm.DB, invoiceID, status string, now time.Time) (*models.Invoice, error) {
	s, err := parsePaymentStatus(status)
	if err != nil {
		return nil, err
	}

	var invoice models.Invoice
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := silent(tx).First(&invoice, "id = ?", invoiceID).Error; err != nil {
			return err
		}
		cols := map[string]interface{}{"status": string(s)}
		if s == models.PaymentPaid {
			if invoice.PaidDate == nil {
				cols["paid_date"] = dashboard.Today(now)
			}
			cols["invoice_status"] = string(pipeline.InvoicePaid)
		} else {
			cols["paid_date"] = nil
			cols["invoice_status"] = string(pipeline.InvoiceInvoiced)
		}
		if err := tx.Model(&invoice).Updates(cols).Error; err != nil {
			return err
		}
		return silent(tx).First(&invoice, "id = ?", invoiceID).Error
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return &invoice, nil
}
