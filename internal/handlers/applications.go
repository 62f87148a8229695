// applications.go
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

package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/grants-portal/internal/format"
	"github.com/localnerve/grants-portal/internal/middleware"
	"github.com/localnerve/grants-portal/internal/models"
	"github.com/localnerve/grants-portal/internal/notify"
	"github.com/localnerve/grants-portal/internal/pipeline"
	"github.com/localnerve/grants-portal/internal/services"
	"github.com/localnerve/grants-portal/internal/types"
	"github.com/localnerve/grants-portal/internal/utils"
)

// ApplicationHandler handles the staff routes for one club's applications
type ApplicationHandler struct {
	*Base
}

type createApplicationRequest struct {
	GrantID      string `json:"grantId"`
	InitialStage string `json:"initialStage"`
}

type itemsRequest struct {
	Items types.FlexList[services.ItemInput] `json:"items"`
}

type itemStatusRequest struct {
	Status string `json:"status"`
}

// ListApplications handles GET /api/clubs/:id/applications
// @Summary List a club's applications
// @Tags Applications
// @Produce json
// @Param id path string true "Club ID"
// @Success 200 {object} services.ApplicationList
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /clubs/{id}/applications [get]
func (h *ApplicationHandler) ListApplications(c *fiber.Ctx) error {
	list, err := services.ListApplications(h.db(c), c.Params("id"), h.now())
	if err != nil {
		return h.respondError(c, err, "listApplications")
	}
	return c.JSON(list)
}

// CreateApplication handles POST /api/clubs/:id/applications
// @Summary Open an application
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Club ID"
// @Param body body createApplicationRequest true "Grant and initial stage"
// @Success 201 {object} models.GrantApplication
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /clubs/{id}/applications [post]
func (h *ApplicationHandler) CreateApplication(c *fiber.Ctx) error {
	var req createApplicationRequest
	if err := parseJSON(c, &req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	app, err := services.CreateApplication(h.db(c), c.Params("id"), req.GrantID, req.InitialStage)
	if err != nil {
		return h.respondError(c, err, "createApplication")
	}
	return c.Status(fiber.StatusCreated).JSON(app)
}

// PatchApplication handles PATCH /api/clubs/:id/applications/:appId
// @Summary Update stage and sub-statuses
// @Description Every field is validated first. Any failure rejects the whole body.
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Club ID"
// @Param appId path string true "Application ID"
// @Param body body object true "applicationStatus, interestStatus, sub-statuses, version"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /clubs/{id}/applications/{appId} [patch]
func (h *ApplicationHandler) PatchApplication(c *fiber.Ctx) error {
	var fields map[string]json.RawMessage
	if err := parseJSON(c, &fields); err != nil {
		return badRequest(c, "Invalid request body")
	}
	patch, err := pipeline.BuildPatch(fields)
	if err != nil {
		return h.respondError(c, err, "patchApplication")
	}

	result, err := services.PatchApplication(h.db(c), c.Params("id"), c.Params("appId"), patch, h.now())
	if err != nil {
		return h.respondError(c, err, "patchApplication")
	}

	var extra []notify.Event
	if patch.Interest != nil {
		extra = append(extra, interestRecorded(result.Application))
	}
	return h.patched(c, result, patch.Fields(), extra...)
}

// patched logs a committed application update, announces a stage change and
// any extra events, then renders the mutation response.
func (h *ApplicationHandler) patched(c *fiber.Ctx, result *services.PatchResult, fields []string, extra ...notify.Event) error {
	app := result.Application
	h.log(c).Info("Application updated", map[string]interface{}{
		"applicationId": app.ID,
		"fields":        fields,
		"actor":         middleware.StaffID(c),
	})
	if result.StageChanged() {
		h.dispatch(c, stageChanged(result))
	}
	for _, e := range extra {
		h.dispatch(c, e)
	}

	return utils.MutationSuccessResponse(c, app.Version, fiber.Map{
		"application":   app,
		"invoiceStatus": result.InvoiceStatus,
		"progress":      pipeline.DeriveProgress(app.ApplicationStatus),
	})
}

type stageRequest struct {
	ApplicationStatus string `json:"applicationStatus"`
}

type subStatusRequest struct {
	Value string `json:"value"`
}

// GetApplication handles GET /api/clubs/:id/applications/:appId
// @Summary Get one application with its progress and pending count
// @Tags Applications
// @Produce json
// @Param id path string true "Club ID"
// @Param appId path string true "Application ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /clubs/{id}/applications/{appId} [get]
func (h *ApplicationHandler) GetApplication(c *fiber.Ctx) error {
	clubID, appID := c.Params("id"), c.Params("appId")
	app, err := services.GetApplication(h.db(c), clubID, appID)
	if err != nil {
		return h.respondError(c, err, "getApplication")
	}
	pending, err := services.CountPending(h.db(c), clubID, appID)
	if err != nil {
		return h.respondError(c, err, "getApplication")
	}
	return c.JSON(fiber.Map{
		"application":  app,
		"stageLabel":   app.ApplicationStatus.Label(),
		"progress":     pipeline.DeriveProgress(app.ApplicationStatus),
		"pendingCount": pending,
	})
}

// SetStage handles PUT /api/clubs/:id/applications/:appId/stage
// @Summary Move an application to a stage
// @Description Any stage may follow a non-terminal stage. Terminal stages are final.
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Club ID"
// @Param appId path string true "Application ID"
// @Param body body stageRequest true "Stage"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /clubs/{id}/applications/{appId}/stage [put]
func (h *ApplicationHandler) SetStage(c *fiber.Ctx) error {
	var req stageRequest
	if err := parseJSON(c, &req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	result, err := services.SetStage(h.db(c), c.Params("id"), c.Params("appId"), req.ApplicationStatus, h.now())
	if err != nil {
		return h.respondError(c, err, "setStage")
	}
	return h.patched(c, result, []string{pipeline.FieldApplicationStatus})
}

// SetSubStatus handles PUT /api/clubs/:id/applications/:appId/sub-statuses/:field
// @Summary Set one sub-status
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Club ID"
// @Param appId path string true "Application ID"
// @Param field path string true "Sub-status field, e.g. draftingStatus or invoiceStatus"
// @Param body body subStatusRequest true "Value"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /clubs/{id}/applications/{appId}/sub-statuses/{field} [put]
func (h *ApplicationHandler) SetSubStatus(c *fiber.Ctx) error {
	var req subStatusRequest
	if err := parseJSON(c, &req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	field := c.Params("field")
	result, err := services.SetSubStatus(h.db(c), c.Params("id"), c.Params("appId"), field, req.Value, h.now())
	if err != nil {
		return h.respondError(c, err, "setSubStatus")
	}
	return h.patched(c, result, []string{field})
}

// UpdateDetails handles PATCH /api/clubs/:id/applications/:appId/details
// @Summary Update informational application fields
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Club ID"
// @Param appId path string true "Application ID"
// @Param body body services.ApplicationDetails true "Details"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /clubs/{id}/applications/{appId}/details [patch]
func (h *ApplicationHandler) UpdateDetails(c *fiber.Ctx) error {
	var details services.ApplicationDetails
	if err := parseJSON(c, &details); err != nil {
		return badRequest(c, "Invalid request body")
	}
	app, err := services.UpdateDetails(h.db(c), c.Params("id"), c.Params("appId"), &details)
	if err != nil {
		return h.respondError(c, err, "updateApplicationDetails")
	}
	return utils.MutationSuccessResponse(c, app.Version, app)
}

// AddItems handles POST /api/clubs/:id/applications/:appId/items
// @Summary Request information from a club
// @Description The whole batch is validated before any item is created
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Club ID"
// @Param appId path string true "Application ID"
// @Param body body itemsRequest true "Items"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /clubs/{id}/applications/{appId}/items [post]
func (h *ApplicationHandler) AddItems(c *fiber.Ctx) error {
	var req itemsRequest
	if err := parseJSON(c, &req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	clubID, appID := c.Params("id"), c.Params("appId")
	items, err := services.AddItems(h.db(c), clubID, appID, req.Items.Slice(), middleware.StaffID(c))
	if err != nil {
		return h.respondError(c, err, "addPendingItems")
	}

	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.CustomName
	}
	h.dispatch(c, notify.Event{
		Type:          notify.EventItemsAdded,
		ClubID:        clubID,
		ApplicationID: appID,
		Data:          map[string]interface{}{"count": len(items), "items": names},
	})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"items": items})
}

// SetItemStatus handles PATCH /api/clubs/:id/applications/:appId/items/:itemId
// @Summary Change a pending item status
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Club ID"
// @Param appId path string true "Application ID"
// @Param itemId path string true "Item ID"
// @Param body body itemStatusRequest true "pending, received or reviewing"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /clubs/{id}/applications/{appId}/items/{itemId} [patch]
func (h *ApplicationHandler) SetItemStatus(c *fiber.Ctx) error {
	var req itemStatusRequest
	if err := parseJSON(c, &req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	item, err := services.SetItemStatus(h.db(c), c.Params("id"), c.Params("appId"), c.Params("itemId"), req.Status)
	if err != nil {
		return h.respondError(c, err, "setPendingItemStatus")
	}
	pending, err := services.CountPending(h.db(c), c.Params("id"), item.GrantApplicationID)
	if err != nil {
		return h.respondError(c, err, "setPendingItemStatus")
	}
	return c.JSON(fiber.Map{"item": item, "pendingCount": pending})
}

// CreateInvoice handles POST /api/clubs/:id/applications/:appId/invoice
// @Summary Issue the success fee invoice
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Club ID"
// @Param appId path string true "Application ID"
// @Param body body services.InvoiceInput false "Amount and date overrides"
// @Success 201 {object} models.Invoice
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /clubs/{id}/applications/{appId}/invoice [post]
func (h *ApplicationHandler) CreateInvoice(c *fiber.Ctx) error {
	var in services.InvoiceInput
	if len(c.Body()) > 0 {
		if err := parseJSON(c, &in); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}
	inv, err := services.CreateInvoice(h.db(c), c.Params("id"), c.Params("appId"), in, h.now())
	if err != nil {
		return h.respondError(c, err, "createInvoice")
	}
	h.dispatch(c, notify.Event{
		Type:          notify.EventInvoiceCreated,
		ClubID:        inv.ClubID,
		ApplicationID: inv.GrantApplicationID,
		Data: map[string]interface{}{
			"invoiceNumber": inv.InvoiceNumber,
			"amount":        format.Currency(inv.Amount),
			"dueDate":       format.Date(&inv.DueDate),
		},
	})
	return c.Status(fiber.StatusCreated).JSON(inv)
}

// ListTemplates handles GET /api/pending-item-templates
// @Summary Active pending item templates
// @Tags Applications
// @Produce json
// @Success 200 {array} models.PendingItemTemplate
// @Security CookieAuth
// @Router /pending-item-templates [get]
func (h *ApplicationHandler) ListTemplates(c *fiber.Ctx) error {
	templates, err := services.ListTemplates(h.db(c))
	if err != nil {
		return h.respondError(c, err, "listTemplates")
	}
	return c.JSON(templates)
}

func stageChanged(r *services.PatchResult) notify.Event {
	return notify.Event{
		Type:          notify.EventStageChanged,
		ClubID:        r.Application.ClubID,
		ApplicationID: r.Application.ID,
		Data: map[string]interface{}{
			"from": r.PreviousStage.Label(),
			"to":   r.Application.ApplicationStatus.Label(),
		},
	}
}

func interestRecorded(app *models.GrantApplication) notify.Event {
	interest := "cleared"
	if app.InterestStatus != nil {
		interest = string(*app.InterestStatus)
	}
	return notify.Event{
		Type:          notify.EventInterestRecorded,
		ClubID:        app.ClubID,
		ApplicationID: app.ID,
		Data:          map[string]interface{}{"interest": interest},
	}
}
