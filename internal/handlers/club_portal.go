// club_portal.go
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
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/grants-portal/internal/middleware"
	"github.com/localnerve/grants-portal/internal/notify"
	"github.com/localnerve/grants-portal/internal/services"
)

// ClubPortalHandler serves a logged in club. The club id always comes
// from the session.
type ClubPortalHandler struct {
	*Base
}

type interestRequest struct {
	InterestStatus *string `json:"interestStatus"`
}

func clubID(c *fiber.Ctx) string {
	if club := middleware.Club(c); club != nil {
		return club.ID
	}
	return ""
}

// ListApplications handles GET /api/club/applications
// @Summary The club's applications
// @Tags Club
// @Produce json
// @Success 200 {object} services.ApplicationList
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /club/applications [get]
func (h *ClubPortalHandler) ListApplications(c *fiber.Ctx) error {
	list, err := services.ListApplications(h.db(c), clubID(c), h.now())
	if err != nil {
		return h.respondError(c, err, "clubApplications")
	}
	return c.JSON(list)
}

// RecordInterest handles POST /api/club/applications/:appId/interest
// @Summary Respond to a grant match
// @Description interested, not_interested, need_info, or null to clear. The stage does not change.
// @Tags Club
// @Accept json
// @Produce json
// @Param appId path string true "Application ID"
// @Param body body interestRequest true "Interest"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /club/applications/{appId}/interest [post]
func (h *ClubPortalHandler) RecordInterest(c *fiber.Ctx) error {
	var req interestRequest
	if err := parseJSON(c, &req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	result, err := services.RecordInterest(h.db(c), clubID(c), c.Params("appId"), req.InterestStatus, h.now())
	if err != nil {
		return h.respondError(c, err, "recordInterest")
	}
	app := result.Application
	h.dispatch(c, interestRecorded(app))
	return c.JSON(fiber.Map{
		"ok":                  true,
		"interestStatus":      app.InterestStatus,
		"interestSubmittedAt": app.InterestSubmittedAt,
		"applicationStatus":   app.ApplicationStatus,
	})
}

// RespondToItem handles POST /api/club/items/:itemId/response
// @Summary Answer a pending item
// @Description file items need fileUrl, text items responseText, confirmation items confirmed true
// @Tags Club
// @Accept json
// @Produce json
// @Param itemId path string true "Item ID"
// @Param body body services.ItemResponse true "Response"
// @Success 200 {object} models.PendingItem
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /club/items/{itemId}/response [post]
func (h *ClubPortalHandler) RespondToItem(c *fiber.Ctx) error {
	var resp services.ItemResponse
	if err := parseJSON(c, &resp); err != nil {
		return badRequest(c, "Invalid request body")
	}
	id := clubID(c)
	item, err := services.SubmitResponse(h.db(c), id, c.Params("itemId"), resp, h.now())
	if err != nil {
		return h.respondError(c, err, "respondToItem")
	}
	h.dispatch(c, notify.Event{
		Type:          notify.EventItemResponded,
		ClubID:        id,
		ApplicationID: item.GrantApplicationID,
		Data:          map[string]interface{}{"item": item.CustomName, "type": string(item.ItemType)},
	})
	return c.JSON(item)
}

// ListInvoices handles GET /api/club/invoices
// @Summary The club's invoices
// @Tags Club
// @Produce json
// @Success 200 {array} services.InvoiceView
// @Router /club/invoices [get]
func (h *ClubPortalHandler) ListInvoices(c *fiber.Ctx) error {
	invoices, err := services.ListClubInvoices(h.db(c), clubID(c))
	if err != nil {
		return h.respondError(c, err, "clubInvoices")
	}
	return c.JSON(invoices)
}

// GetProfile handles GET /api/club/profile
// @Summary The club's profile
// @Tags Club
// @Produce json
// @Success 200 {object} services.ClubDetail
// @Router /club/profile [get]
func (h *ClubPortalHandler) GetProfile(c *fiber.Ctx) error {
	detail, err := services.GetClub(c.UserContext(), h.db(c), clubID(c))
	if err != nil {
		return h.respondError(c, err, "clubProfile")
	}
	return c.JSON(detail)
}

// UpdateProfile handles PUT /api/club/profile
// @Summary Edit the club's profile
// @Description ABN, plan, subscription and account executive are staff only and ignored here
// @Tags Club
// @Accept json
// @Produce json
// @Param body body services.ClubInput true "Changes"
// @Success 200 {object} services.ClubDetail
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /club/profile [put]
func (h *ClubPortalHandler) UpdateProfile(c *fiber.Ctx) error {
	var in services.ClubInput
	if err := parseJSON(c, &in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	in.SelfService()
	return updateClub(h.Base, c, clubID(c), in, "updateClubProfile")
}
