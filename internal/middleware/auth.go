package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/grants-portal/internal/logger"
	"github.com/localnerve/grants-portal/internal/models"
	"github.com/localnerve/grants-portal/internal/services"
	"github.com/localnerve/grants-portal/internal/types"
)

const (
	localsStaffID = "staffId"
	localsClub    = "club"
)

const (
	staffErrorType = "authorization.staff"
	clubErrorType  = "authorization.club"
)

// ClubResolver maps a club session token to its club.
type ClubResolver func(ctx context.Context, token string) (*models.Club, error)

// AuthStaff validates that the request carries a staff session
func AuthStaff(v services.StaffValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := c.Cookies(services.StaffSessionCookie)
		if session == "" {
			return types.NewError(fiber.StatusForbidden, staffErrorType, "Authorizer cookie %q not found", services.StaffSessionCookie)
		}

		origin := fmt.Sprintf("%s://%s", c.Protocol(), c.Hostname())
		userID, err := v.ValidateStaff(origin, session)
		if err != nil {
			return types.NewError(fiber.StatusForbidden, staffErrorType, "Invalid session: %v", err).Wrap(err)
		}

		c.Locals(localsStaffID, userID)
		return c.Next()
	}
}

// AuthClub validates that the request carries a club session and exposes the
// club through Club.
func AuthClub(resolve ClubResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(services.ClubSessionCookie)
		if token == "" {
			return types.NewError(fiber.StatusUnauthorized, clubErrorType, "Not logged in.")
		}

		club, err := resolve(c.UserContext(), token)
		if errors.Is(err, services.ErrSessionNotFound) {
			return types.NewError(fiber.StatusUnauthorized, clubErrorType, "Session expired. Please log in again.").Wrap(err)
		}
		if err != nil {
			logger.FromCtx(c, logger.NewNoOpLogger()).WithError(err).Error("Club session lookup failed", nil)
			return types.NewError(fiber.StatusServiceUnavailable, clubErrorType, "Session store unavailable.").Wrap(err)
		}

		c.Locals(localsClub, club)
		return c.Next()
	}
}

// StaffID is the identity provider user id of the authenticated staff member.
func StaffID(c *fiber.Ctx) string {
	id, _ := c.Locals(localsStaffID).(string)
	return id
}

// Club is the authenticated club, nil outside AuthClub.
func Club(c *fiber.Ctx) *models.Club {
	club, _ := c.Locals(localsClub).(*models.Club)
	return club
}
