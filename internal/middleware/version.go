package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/grants-portal/internal/types"
)

// APIVersionHeader selects the response contract.
const APIVersionHeader = "X-Api-Version"

const (
	localsAPIVersion  = "apiVersion"
	CurrentAPIVersion = "1.0.0"
)

// versionAliases maps accepted header values to the contract they select.
var versionAliases = map[string]string{
	"1":     CurrentAPIVersion,
	"1.0":   CurrentAPIVersion,
	"1.0.0": CurrentAPIVersion,
}

// VersionMiddleware resolves X-Api-Version, echoes it on the response and
// rejects versions this server does not speak. A missing header selects the
// current version.
func VersionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requested := c.Get(APIVersionHeader, CurrentAPIVersion)
		version, ok := versionAliases[requested]
		if !ok {
			return types.NewError(fiber.StatusBadRequest, "apiVersion", "Unsupported API version %q", requested)
		}

		c.Locals(localsAPIVersion, version)
		c.Set(APIVersionHeader, version)
		return c.Next()
	}
}

// APIVersion returns the version set by VersionMiddleware.
func APIVersion(c *fiber.Ctx) string {
	if v, ok := c.Locals(localsAPIVersion).(string); ok {
		return v
	}
	return CurrentAPIVersion
}
