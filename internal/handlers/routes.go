package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/grants-portal/internal/services"
	"github.com/localnerve/grants-portal/internal/types"
)

// Handlers groups every handler mounted under /api.
type Handlers struct {
	Dashboard    *DashboardHandler
	Grants       *GrantHandler
	Clubs        *ClubHandler
	Applications *ApplicationHandler
	Invoices     *InvoiceHandler
	Auth         *AuthHandler
	Club         *ClubPortalHandler
}

// AuthSettings configures club sessions and cookies.
type AuthSettings struct {
	Sessions       *services.ClubSessions
	PasscodeSecret string
	CookieSecure   bool
}

// New builds the handler groups over one shared base.
func New(base *Base, auth AuthSettings) *Handlers {
	return &Handlers{
		Dashboard:    &DashboardHandler{Base: base},
		Grants:       &GrantHandler{Base: base},
		Clubs:        &ClubHandler{Base: base, PasscodeSecret: auth.PasscodeSecret},
		Applications: &ApplicationHandler{Base: base},
		Invoices:     &InvoiceHandler{Base: base},
		Auth: &AuthHandler{
			Base:           base,
			Sessions:       auth.Sessions,
			PasscodeSecret: auth.PasscodeSecret,
			CookieSecure:   auth.CookieSecure,
		},
		Club: &ClubPortalHandler{Base: base},
	}
}

// Mount registers the API. staff guards the staff routes and club the club
// portal routes.
func (h *Handlers) Mount(api fiber.Router, staff, club fiber.Handler) {
	auth := api.Group("/auth")
	auth.Post("/club-login", h.Auth.ClubLogin)
	auth.Post("/club-logout", h.Auth.ClubLogout)
	auth.Post("/admin-logout", h.Auth.AdminLogout)

	// Per route guards: a /club group middleware would also match /clubs.
	portal := api.Group("/club")
	portal.Get("/applications", club, h.Club.ListApplications)
	portal.Post("/applications/:appId/interest", club, h.Club.RecordInterest)
	portal.Post("/items/:itemId/response", club, h.Club.RespondToItem)
	portal.Get("/invoices", club, h.Club.ListInvoices)
	portal.Get("/profile", club, h.Club.GetProfile)
	portal.Put("/profile", club, h.Club.UpdateProfile)

	api.Get("/dashboard/stats", staff, h.Dashboard.GetStats)
	api.Get("/pipeline/vocabulary", staff, h.Dashboard.GetVocabulary)

	grants := api.Group("/grants", staff)
	grants.Get("/", h.Grants.ListGrants)
	grants.Get("/stats", h.Grants.GetStats)
	grants.Post("/", h.Grants.CreateGrant)
	grants.Get("/:id", h.Grants.GetGrant)
	grants.Patch("/:id/status", h.Grants.SetStatus)
	grants.Get("/:id/applications", h.Grants.ListApplications)
	grants.Post("/:id/matches", h.Grants.MatchClubs)

	clubs := api.Group("/clubs", staff)
	clubs.Get("/", h.Clubs.ListClubs)
	clubs.Get("/filters", h.Clubs.ListFilters)
	clubs.Post("/", h.Clubs.CreateClub)
	clubs.Get("/:id", h.Clubs.GetClub)
	clubs.Put("/:id", h.Clubs.UpdateClub)
	clubs.Post("/:id/passcode", h.Clubs.RotatePasscode)

	clubs.Get("/:id/applications", h.Applications.ListApplications)
	clubs.Post("/:id/applications", h.Applications.CreateApplication)
	clubs.Get("/:id/applications/:appId", h.Applications.GetApplication)
	clubs.Patch("/:id/applications/:appId", h.Applications.PatchApplication)
	clubs.Put("/:id/applications/:appId/stage", h.Applications.SetStage)
	clubs.Put("/:id/applications/:appId/sub-statuses/:field", h.Applications.SetSubStatus)
	clubs.Patch("/:id/applications/:appId/details", h.Applications.UpdateDetails)
	clubs.Post("/:id/applications/:appId/items", h.Applications.AddItems)
	clubs.Patch("/:id/applications/:appId/items/:itemId", h.Applications.SetItemStatus)
	clubs.Post("/:id/applications/:appId/invoice", h.Applications.CreateInvoice)

	api.Get("/invoices", staff, h.Invoices.ListInvoices)
	api.Patch("/invoices/:id/status", staff, h.Invoices.SetStatus)
	api.Get("/pending-item-templates", staff, h.Applications.ListTemplates)
}

// ErrorHandler renders errors that escape handlers and middleware.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	var fe *fiber.Error
	if ce, ok := types.AsCustomError(err); ok {
		code, message, errorType = ce.Code, ce.Message, ce.Type
	} else if errors.As(err, &fe) {
		code, message = fe.Code, fe.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    code,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// NotFound is the catch-all for unmatched routes.
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":    fiber.StatusNotFound,
		"message":   notFoundMessage,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
	})
}
