// common.go
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
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/grants-portal/internal/logger"
	"github.com/localnerve/grants-portal/internal/notify"
	"github.com/localnerve/grants-portal/internal/pipeline"
	"github.com/localnerve/grants-portal/internal/types"
	"github.com/localnerve/grants-portal/internal/utils"
	"gorm.io/gorm"
)

// notFoundMessage is the same for a missing row and a row of another club.
const notFoundMessage = "[404] Resource Not Found"

// Base carries the dependencies every handler group shares.
type Base struct {
	DB       *gorm.DB
	Log      logger.Logger
	Notifier notify.Notifier
	Location *time.Location
	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

func (b *Base) db(c *fiber.Ctx) *gorm.DB {
	return b.DB.WithContext(c.UserContext())
}

// now is the current time in the portal's civil time zone.
func (b *Base) now() time.Time {
	t := time.Now()
	if b.Clock != nil {
		t = b.Clock()
	}
	if b.Location != nil {
		t = t.In(b.Location)
	}
	return t
}

func (b *Base) log(c *fiber.Ctx) logger.Logger {
	fallback := b.Log
	if fallback == nil {
		fallback = logger.NewNoOpLogger()
	}
	return logger.FromCtx(c, fallback)
}

// dispatch hands a committed event to the notifier. It never fails the request.
func (b *Base) dispatch(c *fiber.Ctx, e notify.Event) {
	notify.Dispatch(c.UserContext(), b.Notifier, b.log(c), e)
}

// respondError renders a service error with the standard envelope.
func (b *Base) respondError(c *fiber.Ctx, err error, op string) error {
	var ce *types.CustomError
	var fe *fiber.Error

	switch {
	case errors.As(err, &ce):
		return utils.ErrorResponse(c, ce.Message, ce.Code, ce.Type)
	case errors.As(err, &fe):
		return utils.ErrorResponse(c, fe.Message, fe.Code, op)
	case errors.Is(err, pipeline.ErrVersionConflict):
		return utils.VersionErrorResponse(c)
	case errors.Is(err, pipeline.ErrEmptyUpdate):
		return utils.ValidationErrorResponse(c, nil, "No fields to update")
	case pipeline.IsValidation(err):
		return utils.ValidationErrorResponse(c, pipeline.AsValidationErrors(err), "Invalid request")
	case errors.Is(err, pipeline.ErrNotFound):
		return utils.NotFoundResponse(c, notFoundMessage)
	case errors.Is(err, pipeline.ErrTerminalStage):
		return utils.ErrorResponse(c, "Application is in a terminal stage and cannot change stage.", fiber.StatusConflict, "terminalStage")
	case errors.Is(err, pipeline.ErrConflict):
		return utils.ErrorResponse(c, conflictMessage(err), fiber.StatusConflict, "conflict")
	}

	b.log(c).WithError(err).Error("Request failed", map[string]interface{}{
		"op": op,
	})
	return utils.PersistenceErrorResponse(c, op)
}

func conflictMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), pipeline.ErrConflict.Error()+": ")
	if msg == pipeline.ErrConflict.Error() {
		return "The request conflicts with the current state."
	}
	return msg
}

func badRequest(c *fiber.Ctx, message string) error {
	return utils.ErrorResponse(c, message, fiber.StatusBadRequest, "badRequest")
}

// parseJSON decodes the request body into v.
func parseJSON(c *fiber.Ctx, v interface{}) error {
	if len(c.Body()) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(c.Body(), v)
}

// queryPage reads page and perPage query parameters.
func queryPage(c *fiber.Ctx) (int, int) {
	return c.QueryInt("page", 1), c.QueryInt("perPage", 0)
}
