package services

import (
	"testing"
	"time"

	"github.com/localnerve/grants-portal/internal/models"
	"github.com/localnerve/grants-portal/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func winApplication(t *testing.T, f *fixture) {
	t.Helper()
	_, err := UpdateDetails(f.db, f.club.ID, f.app.ID, &ApplicationDetails{
		AmountWon:            amount("18000"),
		SuccessFeePercentage: amount("7.5"),
	})
	require.NoError(t, err)
	_, err = SetStage(f.db, f.club.ID, f.app.ID, "won", testNow)
	require.NoError(t, err)
}

func TestCreateInvoiceOnlyForWon(t *testing.T) {
	f := newFixture(t)

	_, err := CreateInvoice(f.db, f.club.ID, f.app.ID, InvoiceInput{}, testNow)
	assert.ErrorIs(t, err, pipeline.ErrConflict)

	_, err = CreateInvoice(f.db, f.other.ID, f.app.ID, InvoiceInput{}, testNow)
	assert.ErrorIs(t, err, pipeline.ErrNotFound)
}

func TestCreateInvoice(t *testing.T) {
	f := newFixture(t)
	winApplication(t, f)

	inv, err := CreateInvoice(f.db, f.club.ID, f.app.ID, InvoiceInput{}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0001", inv.InvoiceNumber)
	assert.True(t, inv.Amount.Equal(decimalOf("1350")), inv.Amount.String())
	assert.Equal(t, models.PaymentPending, inv.Status)
	assert.Equal(t, pipeline.InvoiceInvoiced, inv.InvoiceStatus)
	assert.Equal(t, "2026-03-02", inv.InvoiceDate.Format(time.DateOnly))
	assert.Equal(t, "2026-04-01", inv.DueDate.Format(time.DateOnly))

	_, err = CreateInvoice(f.db, f.club.ID, f.app.ID, InvoiceInput{}, testNow)
	assert.ErrorIs(t, err, pipeline.ErrConflict)

	// the patch result carries the invoice sub-status
	res, err := SetSubStatus(f.db, f.club.ID, f.app.ID, "invoiceStatus", "paid", testNow)
	require.NoError(t, err)
	require.NotNil(t, res.InvoiceStatus)
	assert.Equal(t, pipeline.InvoicePaid, *res.InvoiceStatus)
}

func TestCreateInvoiceNeedsAmount(t *testing.T) {
	f := newFixture(t)
	_, err := SetStage(f.db, f.club.ID, f.app.ID, "won", testNow)
	require.NoError(t, err)

	_, err = CreateInvoice(f.db, f.club.ID, f.app.ID, InvoiceInput{}, testNow)
	assert.ErrorIs(t, err, ErrRequired)

	_, err = CreateInvoice(f.db, f.club.ID, f.app.ID, InvoiceInput{Amount: amount("0")}, testNow)
	assert.ErrorIs(t, err, ErrOutOfRange)

	inv, err := CreateInvoice(f.db, f.club.ID, f.app.ID, InvoiceInput{Amount: amount("990"), InvoiceDate: date(2026, 2, 27)}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-27", inv.InvoiceDate.Format(time.DateOnly))
}

func TestSetInvoiceStatus(t *testing.T) {
	f := newFixture(t)
	winApplication(t, f)
	inv, err := CreateInvoice(f.db, f.club.ID, f.app.ID, InvoiceInput{}, testNow)
	require.NoError(t, err)

	_, err = SetInvoiceStatus(f.db, inv.ID, "void", testNow)
	assert.ErrorIs(t, err, ErrInvalidPaymentStatus)

	paid, err := SetInvoiceStatus(f.db, inv.ID, "paid", testNow)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, paid.Status)
	assert.Equal(t, pipeline.InvoicePaid, paid.InvoiceStatus)
	require.NotNil(t, paid.PaidDate)
	assert.Equal(t, "2026-03-02", paid.PaidDate.Format(time.DateOnly))

	overdue, err := SetInvoiceStatus(f.db, inv.ID, "overdue", testNow)
	require.NoError(t, err)
	assert.Nil(t, overdue.PaidDate)
	assert.Equal(t, pipeline.InvoiceInvoiced, overdue.InvoiceStatus)

	_, err = SetInvoiceStatus(f.db, "missing", "paid", testNow)
	assert.ErrorIs(t, err, pipeline.ErrNotFound)
}

func TestListInvoices(t *testing.T) {
	f := newFixture(t)
	winApplication(t, f)
	_, err := CreateInvoice(f.db, f.club.ID, f.app.ID, InvoiceInput{}, testNow)
	require.NoError(t, err)

	all, err := ListInvoices(f.db, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Riverside FC", all[0].ClubName)
	assert.Equal(t, "Community Facilities Fund", all[0].GrantName)
	assert.Equal(t, "2 Mar 2026", all[0].InvoiceDate)
	assert.Nil(t, all[0].PaidDate)

	paid, err := ListInvoices(f.db, "paid")
	require.NoError(t, err)
	assert.Empty(t, paid)

	_, err = ListInvoices(f.db, "unpaid")
	assert.ErrorIs(t, err, ErrInvalidPaymentStatus)

	mine, err := ListClubInvoices(f.db, f.club.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	theirs, err := ListClubInvoices(f.db, f.other.ID)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}
