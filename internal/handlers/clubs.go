package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/grants-portal/internal/services"
)

// ClubHandler handles the staff club directory routes
type ClubHandler struct {
	*Base
	PasscodeSecret string
}

// ListClubs handles GET /api/clubs
// @Summary List clubs
// @Tags Clubs
// @Produce json
// @Param search query string false "Name contains"
// @Param state query string false "Organisation address state"
// @Param plan query string false "Plan code"
// @Param status query string false "active or inactive"
// @Param ae query string false "Account executive id"
// @Param sort query string false "name or lastActive"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number"
// @Param perPage query int false "Rows per page, 1..50"
// @Success 200 {object} services.ClubPage
// @Security CookieAuth
// @Router /clubs [get]
func (h *ClubHandler) ListClubs(c *fiber.Ctx) error {
	page, perPage := queryPage(c)
	q := services.ClubQuery{
		Search: c.Query("search"),
		State:  c.Query("state"),
		Plan:   c.Query("plan"),
		Status: c.Query("status"),
		AE:     c.Query("ae"),
		Sort:   c.Query("sort"),
		Order:  c.Query("order"),
		Page:   services.NewPage(page, perPage),
	}
	result, err := services.ListClubs(h.db(c), q)
	if err != nil {
		return h.respondError(c, err, "listClubs")
	}
	return c.JSON(result)
}

// ListFilters handles GET /api/clubs/filters
// @Summary Club directory filter options
// @Tags Clubs
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security CookieAuth
// @Router /clubs/filters [get]
func (h *ClubHandler) ListFilters(c *fiber.Ctx) error {
	aes, err := services.ClubFilters(h.db(c))
	if err != nil {
		return h.respondError(c, err, "listClubFilters")
	}
	return c.JSON(fiber.Map{"accountExecutives": aes})
}

// CreateClub handles POST /api/clubs
// @Summary Create a club
// @Tags Clubs
// @Accept json
// @Produce json
// @Param body body services.ClubInput true "Club"
// @Success 201 {object} services.ClubDetail
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /clubs [post]
func (h *ClubHandler) CreateClub(c *fiber.Ctx) error {
	var in services.ClubInput
	if err := parseJSON(c, &in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	club, err := services.CreateClub(h.db(c), in)
	if err != nil {
		return h.respondError(c, err, "createClub")
	}
	detail, err := services.GetClub(c.UserContext(), h.db(c), club.ID)
	if err != nil {
		return h.respondError(c, err, "createClub")
	}
	return c.Status(fiber.StatusCreated).JSON(detail)
}

// GetClub handles GET /api/clubs/:id
// @Summary Get a club
// @Tags Clubs
// @Produce json
// @Param id path string true "Club ID"
// @Success 200 {object} services.ClubDetail
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /clubs/{id} [get]
func (h *ClubHandler) GetClub(c *fiber.Ctx) error {
	detail, err := services.GetClub(c.UserContext(), h.db(c), c.Params("id"))
	if err != nil {
		return h.respondError(c, err, "getClub")
	}
	return c.JSON(detail)
}

// UpdateClub handles PUT /api/clubs/:id
// @Summary Update a club
// @Description Present address and contact slots replace the stored slot
// @Tags Clubs
// @Accept json
// @Produce json
// @Param id path string true "Club ID"
// @Param body body services.ClubInput true "Changes"
// @Success 200 {object} services.ClubDetail
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /clubs/{id} [put]
func (h *ClubHandler) UpdateClub(c *fiber.Ctx) error {
	var in services.ClubInput
	if err := parseJSON(c, &in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	return updateClub(h.Base, c, c.Params("id"), in, "updateClub")
}

// RotatePasscode handles POST /api/clubs/:id/passcode
// @Summary Issue a new club passcode
// @Description Invalidates the previous passcode
// @Tags Clubs
// @Produce json
// @Param id path string true "Club ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /clubs/{id}/passcode [post]
func (h *ClubHandler) RotatePasscode(c *fiber.Ctx) error {
	passcode, err := services.RotateClubCode(h.db(c), h.PasscodeSecret, c.Params("id"))
	if err != nil {
		return h.respondError(c, err, "rotatePasscode")
	}
	return c.JSON(fiber.Map{"passcode": passcode})
}

func updateClub(b *Base, c *fiber.Ctx, clubID string, in services.ClubInput, op string) error {
	if _, err := services.UpdateClub(b.db(c), clubID, in); err != nil {
		return b.respondError(c, err, op)
	}
	detail, err := services.GetClub(c.UserContext(), b.db(c), clubID)
	if err != nil {
		return b.respondError(c, err, op)
	}
	return c.JSON(detail)
}
