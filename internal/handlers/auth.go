package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/grants-portal/internal/services"
)

// AuthHandler handles club login and logout for both audiences
type AuthHandler struct {
	*Base
	Sessions       *services.ClubSessions
	PasscodeSecret string
	CookieSecure   bool
}

func (h *AuthHandler) clubCookie(value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     services.ClubSessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// ClubLogin handles POST /api/auth/club-login
// @Summary Club login
// @Description ABN and passcode, or a club access code
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.ClubCredentials true "Credentials"
// @Success 200 {object} services.LoginResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/club-login [post]
func (h *AuthHandler) ClubLogin(c *fiber.Ctx) error {
	var creds services.ClubCredentials
	if err := parseJSON(c, &creds); err != nil {
		return badRequest(c, "Invalid request body")
	}
	result, err := services.ClubLogin(c.UserContext(), h.db(c), h.Sessions, h.PasscodeSecret, creds)
	if err != nil {
		return h.respondError(c, err, "clubLogin")
	}

	c.Cookie(h.clubCookie(result.Token, time.Now().Add(h.Sessions.TTL())))
	h.log(c).Info("Club logged in", map[string]interface{}{
		"clubId": result.ClubID,
	})
	return c.JSON(result)
}

// ClubLogout handles POST /api/auth/club-logout
// @Summary Club logout
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /auth/club-logout [post]
func (h *AuthHandler) ClubLogout(c *fiber.Ctx) error {
	if token := c.Cookies(services.ClubSessionCookie); token != "" {
		if err := h.Sessions.Delete(c.UserContext(), token); err != nil {
			h.log(c).WithError(err).Warn("Club session delete failed", nil)
		}
	}
	c.Cookie(h.clubCookie("", time.Unix(0, 0)))
	return c.JSON(fiber.Map{"ok": true, "message": "Logged out"})
}

// AdminLogout handles POST /api/auth/admin-logout
// @Summary Staff logout
// @Description Clears the identity provider session cookie for this site
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /auth/admin-logout [post]
func (h *AuthHandler) AdminLogout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     services.StaffSessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"ok": true, "message": "Logged out"})
}
