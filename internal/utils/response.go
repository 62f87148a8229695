package utils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/grants-portal/internal/pipeline"
	"github.com/localnerve/grants-portal/internal/types"
)

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// SuccessResponse sends a standard success response
func SuccessResponse(c *fiber.Ctx, data interface{}, status int) error {
	return c.Status(status).JSON(data)
}

// ErrorResponse sends a standard error response
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"ok":        false,
		"timestamp": timestamp(),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// ValidationErrorResponse sends a 400 naming every rejected field
func ValidationErrorResponse(c *fiber.Ctx, errs pipeline.ValidationErrors, message string) error {
	if errs == nil {
		errs = pipeline.ValidationErrors{}
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status":    fiber.StatusBadRequest,
		"message":   message,
		"ok":        false,
		"errors":    errs,
		"timestamp": timestamp(),
		"url":       c.OriginalURL(),
		"type":      "validation",
	})
}

// VersionErrorResponse sends a version conflict error (409)
func VersionErrorResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"status":       fiber.StatusConflict,
		"message":      "E_VERSION - Refresh and reconcile with current version and retry.",
		"ok":           false,
		"versionError": true,
		"timestamp":    timestamp(),
		"url":          c.OriginalURL(),
		"type":         "version",
	})
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":    fiber.StatusNotFound,
		"message":   message,
		"ok":        false,
		"timestamp": timestamp(),
		"url":       c.OriginalURL(),
		"type":      "notFound",
	})
}

// PersistenceErrorResponse sends a 500 the caller may retry
func PersistenceErrorResponse(c *fiber.Ctx, errorType string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"status":    fiber.StatusInternalServerError,
		"message":   "The change could not be saved. Please retry.",
		"ok":        false,
		"retryable": true,
		"timestamp": timestamp(),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// MutationSuccessResponse sends a success response for versioned mutations
func MutationSuccessResponse(c *fiber.Ctx, newVersion uint64, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":    "Success",
		"ok":         true,
		"newVersion": types.FlexUint64(newVersion).String(),
		"timestamp":  timestamp(),
		"data":       data,
	})
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status       int                         `json:"status"`
	Message      string                      `json:"message"`
	Ok           bool                        `json:"ok"`
	Timestamp    string                      `json:"timestamp"`
	URL          string                      `json:"url"`
	Type         string                      `json:"type,omitempty"`
	VersionError bool                        `json:"versionError,omitempty"`
	Retryable    bool                        `json:"retryable,omitempty"`
	Errors       []*pipeline.ValidationError `json:"errors,omitempty"`
}

// SuccessResponseStruct defines the schema for mutation success responses
type SuccessResponseStruct struct {
	Message    string      `json:"message"`
	Ok         bool        `json:"ok"`
	NewVersion string      `json:"newVersion"`
	Timestamp  string      `json:"timestamp"`
	Data       interface{} `json:"data"`
}
