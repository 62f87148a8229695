// handlers_test.go
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
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/grants-portal/internal/database"
	"github.com/localnerve/grants-portal/internal/logger"
	"github.com/localnerve/grants-portal/internal/middleware"
	"github.com/localnerve/grants-portal/internal/models"
	"github.com/localnerve/grants-portal/internal/notify"
	"github.com/localnerve/grants-portal/internal/pipeline"
	"github.com/localnerve/grants-portal/internal/services"
	"github.com/localnerve/grants-portal/internal/types"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	staffToken = "staff-session"
	secret     = "test-passcode-secret"
)

var sydney, _ = time.LoadLocation("Australia/Sydney")

// testNow is Monday 2 March 2026, mid morning in Sydney.
var testNow = time.Date(2026, 3, 2, 10, 30, 0, 0, sydney)

type staffStub struct{}

func (staffStub) ValidateStaff(_, cookie string) (string, error) {
	if cookie != staffToken {
		return "", services.ErrInvalidStaffSession
	}
	return "staff-user-1", nil
}

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) Notify(_ context.Context, e notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []notify.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type harness struct {
	app      *fiber.App
	db       *gorm.DB
	sessions *services.ClubSessions
	notes    *recorder
	club     *models.Club
	other    *models.Club
	grant    *models.Grant
	appRow   *models.GrantApplication
}

func ptr[T any](v T) *T {
	return &v
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	sessions := services.NewClubSessions(rdb, time.Hour)

	club, err := services.CreateClub(db, services.ClubInput{
		LegalEntityName: ptr("Riverside Football Club Incorporated"),
		ShortenedName:   ptr("Riverside FC"),
		ABN:             ptr("12 345 678 901"),
		About:           ptr("Community football since 1962."),
	})
	require.NoError(t, err)
	other, err := services.CreateClub(db, services.ClubInput{
		LegalEntityName: ptr("Harbour Athletics Club"),
		ABN:             ptr("98765432109"),
	})
	require.NoError(t, err)

	closeDate := types.FlexDate(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))
	grant, err := services.CreateGrant(db, services.GrantInput{
		Name:      "Community Facilities Fund",
		Provider:  "Office of Sport",
		CloseDate: &closeDate,
		Status:    "open",
	})
	require.NoError(t, err)

	row, err := services.CreateApplication(db, club.ID, grant.ID, "proceeding")
	require.NoError(t, err)
	_, err = services.SetStage(db, club.ID, row.ID, "review", testNow)
	require.NoError(t, err)
	row, err = services.GetApplication(db, club.ID, row.ID)
	require.NoError(t, err)

	notes := &recorder{}
	base := &Base{
		DB:       db,
		Log:      logger.NewTestLogger(t),
		Notifier: notes,
		Location: sydney,
		Clock:    func() time.Time { return testNow },
	}
	h := New(base, AuthSettings{Sessions: sessions, PasscodeSecret: secret})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	api := app.Group("/api")
	h.Mount(api,
		middleware.AuthStaff(staffStub{}),
		middleware.AuthClub(func(ctx context.Context, token string) (*models.Club, error) {
			return services.ResolveClub(ctx, db, sessions, token)
		}),
	)
	app.Use(NotFound)

	return &harness{app: app, db: db, sessions: sessions, notes: notes,
		club: club, other: other, grant: grant, appRow: row}
}

type result struct {
	status  int
	body    []byte
	cookies []*http.Cookie
}

func (r result) json(t *testing.T) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(r.body, &m), string(r.body))
	return m
}

func (h *harness) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) result {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return result{status: resp.StatusCode, body: b, cookies: resp.Cookies()}
}

func staff() *http.Cookie {
	return &http.Cookie{Name: services.StaffSessionCookie, Value: staffToken}
}

func (h *harness) clubLogin(t *testing.T) *http.Cookie {
	t.Helper()
	passcode := services.Passcode(secret, "12345678901", h.club.CodeVersion)
	res := h.do(t, http.MethodPost, "/api/auth/club-login", `{"abn":"12 345 678 901","passcode":"`+passcode+`"}`)
	require.Equal(t, fiber.StatusOK, res.status, string(res.body))
	for _, c := range res.cookies {
		if c.Name == services.ClubSessionCookie {
			return c
		}
	}
	t.Fatal("no club session cookie")
	return nil
}

func (h *harness) appPath(clubID string) string {
	return "/api/clubs/" + clubID + "/applications/" + h.appRow.ID
}

func (h *harness) stage(t *testing.T) pipeline.Stage {
	t.Helper()
	row, err := services.GetApplication(h.db, h.club.ID, h.appRow.ID)
	require.NoError(t, err)
	return row.ApplicationStatus
}

func TestStaffRoutesRequireSession(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodGet, "/api/dashboard/stats", "")
	assert.Equal(t, fiber.StatusForbidden, res.status)
	assert.Equal(t, "authorization.staff", res.json(t)["type"])

	res = h.do(t, http.MethodGet, "/api/grants", "", &http.Cookie{Name: services.StaffSessionCookie, Value: "forged"})
	assert.Equal(t, fiber.StatusForbidden, res.status)

	res = h.do(t, http.MethodGet, "/api/dashboard/stats", "", staff())
	assert.Equal(t, fiber.StatusOK, res.status, string(res.body))
}

func TestPatchApplicationIsAllOrNothing(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodPatch, h.appPath(h.club.ID), `{"applicationStatus":"won","reviewStatus":"bogus"}`, staff())
	require.Equal(t, fiber.StatusBadRequest, res.status)
	body := res.json(t)
	errs := body["errors"].([]interface{})
	require.Len(t, errs, 1)
	assert.Equal(t, "reviewStatus", errs[0].(map[string]interface{})["field"])

	assert.Equal(t, pipeline.StageReview, h.stage(t))
	assert.Empty(t, h.notes.types())
}

func TestPatchApplicationMovesStage(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodPatch, h.appPath(h.club.ID),
		`{"applicationStatus":"lodgment","reviewStatus":"approved","version":"`+jsonVersion(h.appRow.Version)+`"}`, staff())
	require.Equal(t, fiber.StatusOK, res.status, string(res.body))
	body := res.json(t)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, jsonVersion(h.appRow.Version+1), body["newVersion"])

	assert.Equal(t, pipeline.StageLodgment, h.stage(t))
	assert.Equal(t, []notify.EventType{notify.EventStageChanged}, h.notes.types())
}

func jsonVersion(v uint64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestPatchApplicationStaleVersion(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodPatch, h.appPath(h.club.ID), `{"draftingStatus":"wip","version":0}`, staff())
	require.Equal(t, fiber.StatusConflict, res.status, string(res.body))
	assert.Equal(t, true, res.json(t)["versionError"])
}

func TestPatchApplicationOtherClubIsNotFound(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodPatch, h.appPath(h.other.ID), `{"draftingStatus":"wip"}`, staff())
	require.Equal(t, fiber.StatusNotFound, res.status)
	missing := h.do(t, http.MethodPatch, "/api/clubs/"+h.club.ID+"/applications/nope", `{"draftingStatus":"wip"}`, staff())
	require.Equal(t, fiber.StatusNotFound, missing.status)

	assert.Equal(t, res.json(t)["message"], missing.json(t)["message"])
}

func TestPatchApplicationBadBodies(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodPatch, h.appPath(h.club.ID), `{}`, staff())
	assert.Equal(t, fiber.StatusBadRequest, res.status)
	assert.Equal(t, "No fields to update", res.json(t)["message"])

	res = h.do(t, http.MethodPatch, h.appPath(h.club.ID), `{"applicationStatus":`, staff())
	assert.Equal(t, fiber.StatusBadRequest, res.status)
	assert.Equal(t, "badRequest", res.json(t)["type"])
}

func TestTerminalStageIsFinal(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodPatch, h.appPath(h.club.ID), `{"applicationStatus":"lost"}`, staff())
	require.Equal(t, fiber.StatusOK, res.status, string(res.body))

	res = h.do(t, http.MethodPatch, h.appPath(h.club.ID), `{"applicationStatus":"review"}`, staff())
	assert.Equal(t, fiber.StatusConflict, res.status)
	assert.Equal(t, "terminalStage", res.json(t)["type"])
}

func TestStoreFailureIsRetryable(t *testing.T) {
	h := newHarness(t)
	sqlDB, err := h.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	res := h.do(t, http.MethodPatch, h.appPath(h.club.ID), `{"draftingStatus":"wip"}`, staff())
	require.Equal(t, fiber.StatusInternalServerError, res.status)
	body := res.json(t)
	assert.Equal(t, true, body["retryable"])
	assert.Equal(t, "patchApplication", body["type"])
}

func TestClubLoginAndPortal(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodGet, "/api/club/applications", "")
	assert.Equal(t, fiber.StatusUnauthorized, res.status)

	res = h.do(t, http.MethodPost, "/api/auth/club-login", `{"abn":"12345678901","passcode":"WRONG123"}`)
	assert.Equal(t, fiber.StatusUnauthorized, res.status)
	assert.Equal(t, "Invalid passcode.", res.json(t)["message"])

	session := h.clubLogin(t)
	assert.True(t, session.HttpOnly)

	res = h.do(t, http.MethodGet, "/api/club/applications", "", session)
	require.Equal(t, fiber.StatusOK, res.status, string(res.body))
	assert.Equal(t, float64(1), res.json(t)["total"])

	res = h.do(t, http.MethodGet, "/api/club/profile", "", session)
	require.Equal(t, fiber.StatusOK, res.status)
	assert.Equal(t, h.club.ID, res.json(t)["id"])

	res = h.do(t, http.MethodPost, "/api/auth/club-logout", "", session)
	require.Equal(t, fiber.StatusOK, res.status)

	res = h.do(t, http.MethodGet, "/api/club/applications", "", session)
	assert.Equal(t, fiber.StatusUnauthorized, res.status)
}

func TestClubInterestKeepsStage(t *testing.T) {
	h := newHarness(t)
	session := h.clubLogin(t)

	res := h.do(t, http.MethodPost, "/api/club/applications/"+h.appRow.ID+"/interest", `{"interestStatus":"interested"}`, session)
	require.Equal(t, fiber.StatusOK, res.status, string(res.body))
	body := res.json(t)
	assert.Equal(t, "interested", body["interestStatus"])
	assert.Equal(t, "review", body["applicationStatus"])
	assert.Equal(t, []notify.EventType{notify.EventInterestRecorded}, h.notes.types())

	res = h.do(t, http.MethodPost, "/api/club/applications/"+h.appRow.ID+"/interest", `{"interestStatus":"maybe"}`, session)
	assert.Equal(t, fiber.StatusBadRequest, res.status)
}

func TestClubCannotReachOtherClubRows(t *testing.T) {
	h := newHarness(t)
	row, err := services.CreateApplication(h.db, h.other.ID, h.grant.ID, "")
	require.NoError(t, err)

	session := h.clubLogin(t)
	res := h.do(t, http.MethodPost, "/api/club/applications/"+row.ID+"/interest", `{"interestStatus":"interested"}`, session)
	assert.Equal(t, fiber.StatusNotFound, res.status)
}

func TestPendingItemRoundTrip(t *testing.T) {
	h := newHarness(t)
	itemsPath := h.appPath(h.club.ID) + "/items"

	res := h.do(t, http.MethodPost, itemsPath, `{"items":[{"name":"Quote for lighting","type":"text"},{"name":"","type":"document"}]}`, staff())
	require.Equal(t, fiber.StatusBadRequest, res.status)

	res = h.do(t, http.MethodPost, itemsPath, `{"items":[{"name":"Quote for lighting","type":"text"}]}`, staff())
	require.Equal(t, fiber.StatusCreated, res.status, string(res.body))
	items := res.json(t)["items"].([]interface{})
	require.Len(t, items, 1)
	itemID := items[0].(map[string]interface{})["id"].(string)

	session := h.clubLogin(t)
	res = h.do(t, http.MethodPost, "/api/club/items/"+itemID+"/response", `{"confirmed":true}`, session)
	assert.Equal(t, fiber.StatusBadRequest, res.status)
	res = h.do(t, http.MethodPost, "/api/club/items/"+itemID+"/response", `{"responseText":"Attached below"}`, session)
	require.Equal(t, fiber.StatusOK, res.status, string(res.body))
	assert.Equal(t, "received", res.json(t)["status"])

	res = h.do(t, http.MethodPatch, itemsPath+"/"+itemID, `{"status":"reviewing"}`, staff())
	require.Equal(t, fiber.StatusOK, res.status, string(res.body))
	assert.Equal(t, float64(0), res.json(t)["pendingCount"])

	// a single object is accepted as a batch of one
	res = h.do(t, http.MethodPost, itemsPath, `{"items":{"name":"Signed quote","type":"file"}}`, staff())
	require.Equal(t, fiber.StatusCreated, res.status, string(res.body))
	assert.Len(t, res.json(t)["items"], 1)

	assert.Equal(t, []notify.EventType{notify.EventItemsAdded, notify.EventItemResponded, notify.EventItemsAdded}, h.notes.types())
}

func TestInvoiceFlow(t *testing.T) {
	h := newHarness(t)
	invoicePath := h.appPath(h.club.ID) + "/invoice"

	res := h.do(t, http.MethodPost, invoicePath, "", staff())
	assert.Equal(t, fiber.StatusConflict, res.status)

	res = h.do(t, http.MethodPatch, h.appPath(h.club.ID), `{"applicationStatus":"won"}`, staff())
	require.Equal(t, fiber.StatusOK, res.status)
	res = h.do(t, http.MethodPatch, h.appPath(h.club.ID)+"/details", `{"amountWon":"18000","successFeePercentage":"7.5"}`, staff())
	require.Equal(t, fiber.StatusOK, res.status, string(res.body))

	res = h.do(t, http.MethodPost, invoicePath, "", staff())
	require.Equal(t, fiber.StatusCreated, res.status, string(res.body))
	inv := res.json(t)
	assert.Equal(t, "INV-2026-0001", inv["invoiceNumber"])

	res = h.do(t, http.MethodPost, invoicePath, "", staff())
	assert.Equal(t, fiber.StatusConflict, res.status)

	res = h.do(t, http.MethodPatch, "/api/invoices/"+inv["id"].(string)+"/status", `{"status":"paid"}`, staff())
	require.Equal(t, fiber.StatusOK, res.status, string(res.body))
	assert.Equal(t, "paid", res.json(t)["status"])

	res = h.do(t, http.MethodGet, "/api/invoices?status=refunded", "", staff())
	assert.Equal(t, fiber.StatusBadRequest, res.status)

	session := h.clubLogin(t)
	res = h.do(t, http.MethodGet, "/api/club/invoices", "", session)
	require.Equal(t, fiber.StatusOK, res.status)
	var list []services.InvoiceView
	require.NoError(t, json.Unmarshal(res.body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "INV-2026-0001", list[0].InvoiceNumber)

	assert.Contains(t, h.notes.types(), notify.EventInvoiceCreated)
}

func TestGrantRoutes(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodGet, "/api/grants?perPage=500", "", staff())
	require.Equal(t, fiber.StatusOK, res.status, string(res.body))
	page := res.json(t)
	assert.Equal(t, float64(1), page["total"])
	assert.Equal(t, float64(50), page["perPage"])

	res = h.do(t, http.MethodPost, "/api/grants", `{"provider":"Office of Sport"}`, staff())
	require.Equal(t, fiber.StatusBadRequest, res.status)
	errs := res.json(t)["errors"].([]interface{})
	assert.Equal(t, "name", errs[0].(map[string]interface{})["field"])

	res = h.do(t, http.MethodPatch, "/api/grants/"+h.grant.ID+"/status", `{"status":"closed"}`, staff())
	require.Equal(t, fiber.StatusOK, res.status, string(res.body))
	res = h.do(t, http.MethodPatch, "/api/grants/"+h.grant.ID+"/status", `{"status":"open"}`, staff())
	assert.Equal(t, fiber.StatusConflict, res.status)
	res = h.do(t, http.MethodPatch, "/api/grants/"+h.grant.ID+"/status", `{"status":"open","correction":true}`, staff())
	assert.Equal(t, fiber.StatusOK, res.status)

	res = h.do(t, http.MethodPost, "/api/grants/"+h.grant.ID+"/matches", `{"clubIds":["`+h.club.ID+`","`+h.other.ID+`"]}`, staff())
	require.Equal(t, fiber.StatusOK, res.status, string(res.body))
	match := res.json(t)
	assert.Equal(t, []interface{}{h.other.ID}, match["created"])
	assert.Equal(t, []interface{}{h.club.ID}, match["skipped"])

	res = h.do(t, http.MethodGet, "/api/grants/"+h.grant.ID+"/applications", "", staff())
	require.Equal(t, fiber.StatusOK, res.status)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(res.body, &rows))
	assert.Len(t, rows, 2)
}

func TestClubRoutes(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodPost, "/api/clubs", `{"legalEntityName":"Bayside Netball","abn":"98765432109"}`, staff())
	assert.Equal(t, fiber.StatusConflict, res.status)

	res = h.do(t, http.MethodPost, "/api/clubs", `{"legalEntityName":"Bayside Netball","abn":"11122233344"}`, staff())
	require.Equal(t, fiber.StatusCreated, res.status, string(res.body))

	res = h.do(t, http.MethodGet, "/api/clubs?sort=name", "", staff())
	require.Equal(t, fiber.StatusOK, res.status)
	assert.Equal(t, float64(3), res.json(t)["total"])

	res = h.do(t, http.MethodPost, "/api/clubs/"+h.club.ID+"/passcode", "", staff())
	require.Equal(t, fiber.StatusOK, res.status)
	rotated := res.json(t)["passcode"].(string)

	// the old passcode stops working
	old := services.Passcode(secret, "12345678901", h.club.CodeVersion)
	res = h.do(t, http.MethodPost, "/api/auth/club-login", `{"abn":"12345678901","passcode":"`+old+`"}`)
	assert.Equal(t, fiber.StatusUnauthorized, res.status)
	res = h.do(t, http.MethodPost, "/api/auth/club-login", `{"abn":"12345678901","passcode":"`+rotated+`"}`)
	assert.Equal(t, fiber.StatusOK, res.status)
}

func TestListApplicationsUnknownClub(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodGet, "/api/clubs/no-such-club/applications", "", staff())
	require.Equal(t, fiber.StatusNotFound, res.status, string(res.body))
	assert.Equal(t, notFoundMessage, res.json(t)["message"])

	res = h.do(t, http.MethodGet, "/api/clubs/"+h.club.ID+"/applications", "", staff())
	require.Equal(t, fiber.StatusOK, res.status)
	assert.Equal(t, float64(1), res.json(t)["total"])
}

func TestClubSelfServiceCannotChangeABN(t *testing.T) {
	h := newHarness(t)
	session := h.clubLogin(t)

	res := h.do(t, http.MethodPut, "/api/club/profile", `{"abn":"11111111111","about":"Updated"}`, session)
	require.Equal(t, fiber.StatusOK, res.status, string(res.body))

	var club models.Club
	require.NoError(t, h.db.First(&club, "id = ?", h.club.ID).Error)
	assert.Equal(t, "12345678901", club.ABN)
	assert.Equal(t, "Updated", club.About)
}

func TestAdminLogoutClearsCookie(t *testing.T) {
	h := newHarness(t)
	res := h.do(t, http.MethodPost, "/api/auth/admin-logout", "", staff())
	require.Equal(t, fiber.StatusOK, res.status)
	require.NotEmpty(t, res.cookies)
	assert.Equal(t, services.StaffSessionCookie, res.cookies[0].Name)
	assert.Empty(t, res.cookies[0].Value)
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t)
	res := h.do(t, http.MethodGet, "/api/nowhere", "")
	assert.Equal(t, fiber.StatusNotFound, res.status)
}

func TestSingleFieldRoutes(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodGet, h.appPath(h.club.ID), "", staff())
	require.Equal(t, fiber.StatusOK, res.status, string(res.body))
	body := res.json(t)
	assert.Equal(t, "Review", body["stageLabel"])
	assert.Equal(t, float64(0), body["pendingCount"])

	res = h.do(t, http.MethodGet, h.appPath(h.other.ID), "", staff())
	assert.Equal(t, fiber.StatusNotFound, res.status)

	res = h.do(t, http.MethodPut, h.appPath(h.club.ID)+"/stage", `{"applicationStatus":"lodgment"}`, staff())
	require.Equal(t, fiber.StatusOK, res.status, string(res.body))
	assert.Equal(t, pipeline.StageLodgment, h.stage(t))
	assert.Equal(t, []notify.EventType{notify.EventStageChanged}, h.notes.types())

	res = h.do(t, http.MethodPut, h.appPath(h.club.ID)+"/stage", `{"applicationStatus":"submitted"}`, staff())
	assert.Equal(t, fiber.StatusBadRequest, res.status)

	res = h.do(t, http.MethodPut, h.appPath(h.club.ID)+"/sub-statuses/draftingStatus", `{"value":"complete"}`, staff())
	require.Equal(t, fiber.StatusOK, res.status, string(res.body))
	app := res.json(t)["data"].(map[string]interface{})["application"].(map[string]interface{})
	assert.Equal(t, "complete", app["draftingStatus"])
	assert.Equal(t, "lodgment", app["applicationStatus"])

	res = h.do(t, http.MethodPut, h.appPath(h.club.ID)+"/sub-statuses/colourStatus", `{"value":"pending"}`, staff())
	assert.Equal(t, fiber.StatusBadRequest, res.status)

	// no invoice yet
	res = h.do(t, http.MethodPut, h.appPath(h.club.ID)+"/sub-statuses/invoiceStatus", `{"value":"paid"}`, staff())
	assert.Equal(t, fiber.StatusNotFound, res.status)
}

func TestPipelineVocabulary(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodGet, "/api/pipeline/vocabulary", "")
	assert.Equal(t, fiber.StatusForbidden, res.status)

	res = h.do(t, http.MethodGet, "/api/pipeline/vocabulary", "", staff())
	require.Equal(t, fiber.StatusOK, res.status)
	var v pipeline.Vocabulary
	require.NoError(t, json.Unmarshal(res.body, &v))
	assert.Len(t, v.Stages, 12)
	assert.Len(t, v.ProgressStages, 7)
	assert.Len(t, v.SubStatuses, 8)
}
