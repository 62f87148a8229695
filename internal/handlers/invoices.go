package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/grants-portal/internal/services"
)

// InvoiceHandler handles the staff invoice routes
type InvoiceHandler struct {
	*Base
}

type invoiceStatusRequest struct {
	Status string `json:"status"`
}

// ListInvoices handles GET /api/invoices
// @Summary List invoices
// @Tags Invoices
// @Produce json
// @Param status query string false "pending, sent, paid or overdue"
// @Success 200 {array} services.InvoiceView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /invoices [get]
func (h *InvoiceHandler) ListInvoices(c *fiber.Ctx) error {
	invoices, err := services.ListInvoices(h.db(c), c.Query("status"))
	if err != nil {
		return h.respondError(c, err, "listInvoices")
	}
	return c.JSON(invoices)
}

// SetStatus handles PATCH /api/invoices/:id/status
// @Summary Record an invoice payment status
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param body body invoiceStatusRequest true "Payment status"
// @Success 200 {object} models.Invoice
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /invoices/{id}/status [patch]
func (h *InvoiceHandler) SetStatus(c *fiber.Ctx) error {
	var req invoiceStatusRequest
	if err := parseJSON(c, &req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	inv, err := services.SetInvoiceStatus(h.db(c), c.Params("id"), req.Status, h.now())
	if err != nil {
		return h.respondError(c, err, "setInvoiceStatus")
	}
	return c.JSON(inv)
}
