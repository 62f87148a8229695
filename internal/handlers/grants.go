// grants.go
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
	"github.com/localnerve/grants-portal/internal/services"
	"github.com/localnerve/grants-portal/internal/types"
)

// GrantHandler handles the grant catalogue routes
type GrantHandler struct {
	*Base
}

type grantStatusRequest struct {
	Status     string `json:"status"`
	Correction bool   `json:"correction"`
}

type matchRequest struct {
	ClubIDs types.FlexList[string] `json:"clubIds"`
}

// ListGrants handles GET /api/grants
// @Summary List grants
// @Tags Grants
// @Produce json
// @Param search query string false "Name, provider or program contains"
// @Param status query string false "draft, open or closed"
// @Param type query string false "Grant type"
// @Param sort query string false "name, close_date, open_date, status, amount"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number"
// @Param perPage query int false "Rows per page, 1..50"
// @Success 200 {object} services.GrantPage
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /grants [get]
func (h *GrantHandler) ListGrants(c *fiber.Ctx) error {
	page, perPage := queryPage(c)
	q := services.GrantQuery{
		Search:    c.Query("search"),
		Status:    c.Query("status"),
		GrantType: c.Query("type"),
		Sort:      c.Query("sort"),
		Order:     c.Query("order"),
		Page:      services.NewPage(page, perPage),
	}
	result, err := services.ListGrants(h.db(c), q, h.now())
	if err != nil {
		return h.respondError(c, err, "listGrants")
	}
	return c.JSON(result)
}

// GetStats handles GET /api/grants/stats
// @Summary Grant catalogue statistics
// @Tags Grants
// @Produce json
// @Success 200 {object} dashboard.CatalogueStats
// @Security CookieAuth
// @Router /grants/stats [get]
func (h *GrantHandler) GetStats(c *fiber.Ctx) error {
	stats, err := services.GrantStats(h.db(c), h.now())
	if err != nil {
		return h.respondError(c, err, "grantStats")
	}
	return c.JSON(stats)
}

// CreateGrant handles POST /api/grants
// @Summary Create a grant
// @Tags Grants
// @Accept json
// @Produce json
// @Param body body services.GrantInput true "Grant"
// @Success 201 {object} models.Grant
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /grants [post]
func (h *GrantHandler) CreateGrant(c *fiber.Ctx) error {
	var in services.GrantInput
	if err := parseJSON(c, &in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	grant, err := services.CreateGrant(h.db(c), in)
	if err != nil {
		return h.respondError(c, err, "createGrant")
	}
	return c.Status(fiber.StatusCreated).JSON(grant)
}

// GetGrant handles GET /api/grants/:id
// @Summary Get a grant
// @Tags Grants
// @Produce json
// @Param id path string true "Grant ID"
// @Success 200 {object} services.GrantDetail
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /grants/{id} [get]
func (h *GrantHandler) GetGrant(c *fiber.Ctx) error {
	grant, err := services.GetGrant(h.db(c), c.Params("id"), h.now())
	if err != nil {
		return h.respondError(c, err, "getGrant")
	}
	return c.JSON(grant)
}

// SetStatus handles PATCH /api/grants/:id/status
// @Summary Change grant status
// @Description draft to open, open to closed, draft to closed. Closed grants only change as a correction.
// @Tags Grants
// @Accept json
// @Produce json
// @Param id path string true "Grant ID"
// @Param body body grantStatusRequest true "New status"
// @Success 200 {object} models.Grant
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /grants/{id}/status [patch]
func (h *GrantHandler) SetStatus(c *fiber.Ctx) error {
	var req grantStatusRequest
	if err := parseJSON(c, &req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	grant, err := services.SetGrantStatus(h.db(c), c.Params("id"), req.Status, req.Correction)
	if err != nil {
		return h.respondError(c, err, "setGrantStatus")
	}
	h.log(c).Info("Grant status changed", map[string]interface{}{
		"grantId":    grant.ID,
		"status":     string(grant.Status),
		"correction": req.Correction,
	})
	return c.JSON(grant)
}

// ListApplications handles GET /api/grants/:id/applications
// @Summary Applications for a grant
// @Tags Grants
// @Produce json
// @Param id path string true "Grant ID"
// @Success 200 {array} services.GrantApplicationRow
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /grants/{id}/applications [get]
func (h *GrantHandler) ListApplications(c *fiber.Ctx) error {
	rows, err := services.ListGrantApplications(h.db(c), c.Params("id"))
	if err != nil {
		return h.respondError(c, err, "listGrantApplications")
	}
	return c.JSON(rows)
}

// MatchClubs handles POST /api/grants/:id/matches
// @Summary Match clubs to a grant
// @Description Opens an open_match application for every club without one for the grant
// @Tags Grants
// @Accept json
// @Produce json
// @Param id path string true "Grant ID"
// @Param body body matchRequest true "Club ids"
// @Success 200 {object} services.MatchResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /grants/{id}/matches [post]
func (h *GrantHandler) MatchClubs(c *fiber.Ctx) error {
	var req matchRequest
	if err := parseJSON(c, &req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	result, err := services.MatchClubs(h.db(c), c.Params("id"), req.ClubIDs.Slice())
	if err != nil {
		return h.respondError(c, err, "matchClubs")
	}
	return c.JSON(result)
}
