package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/grants-portal/internal/types"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-passcode-secret"

func testSessions(t *testing.T) (*ClubSessions, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewClubSessions(rdb, 24*time.Hour), mr
}

func requireAuthError(t *testing.T, err error, code int, message string) {
	t.Helper()
	var ce *types.CustomError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, code, ce.Code)
	assert.Equal(t, message, ce.Message)
}

func TestPasscode(t *testing.T) {
	p := Passcode(testSecret, "12345678901", 1)
	assert.Len(t, p, 8)
	assert.Regexp(t, `^[0-9A-F]{8}$`, p)
	assert.Equal(t, p, Passcode(testSecret, "12345678901", 1))
	assert.NotEqual(t, p, Passcode(testSecret, "12345678901", 2))
	assert.NotEqual(t, p, Passcode("other", "12345678901", 1))
}

func TestClubLoginWithPasscode(t *testing.T) {
	f := newFixture(t)
	sessions, _ := testSessions(t)
	ctx := context.Background()
	passcode := Passcode(testSecret, f.club.ABN, f.club.CodeVersion)

	res, err := ClubLogin(ctx, f.db, sessions, testSecret, ClubCredentials{ABN: "12 345 678 901", Passcode: passcode})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, f.club.ID, res.ClubID)
	assert.Equal(t, "Riverside FC", res.ClubName)
	assert.Equal(t, "/club-dashboard", res.Redirect)
	require.NotEmpty(t, res.Token)

	club, err := ResolveClub(ctx, f.db, sessions, res.Token)
	require.NoError(t, err)
	assert.Equal(t, f.club.ID, club.ID)

	// passcodes are case-insensitive
	_, err = ClubLogin(ctx, f.db, sessions, testSecret, ClubCredentials{ABN: f.club.ABN, Passcode: strings.ToLower(passcode)})
	require.NoError(t, err)
}

func TestClubLoginFailures(t *testing.T) {
	f := newFixture(t)
	sessions, _ := testSessions(t)
	ctx := context.Background()

	_, err := ClubLogin(ctx, f.db, sessions, testSecret, ClubCredentials{ABN: "1234", Passcode: "ABCD1234"})
	requireAuthError(t, err, fiber.StatusBadRequest, "Invalid ABN format.")

	_, err = ClubLogin(ctx, f.db, sessions, testSecret, ClubCredentials{ABN: "11111111111", Passcode: "ABCD1234"})
	requireAuthError(t, err, fiber.StatusUnauthorized, "No club found with this ABN.")

	_, err = ClubLogin(ctx, f.db, sessions, testSecret, ClubCredentials{ABN: f.club.ABN, Passcode: "ABCD1234"})
	requireAuthError(t, err, fiber.StatusUnauthorized, "Invalid passcode.")

	_, err = ClubLogin(ctx, f.db, sessions, testSecret, ClubCredentials{Code: "nope"})
	requireAuthError(t, err, fiber.StatusUnauthorized, "Invalid or expired access code.")

	_, err = ClubLogin(ctx, f.db, sessions, testSecret, ClubCredentials{ABN: f.club.ABN})
	requireAuthError(t, err, fiber.StatusBadRequest, "Missing ABN/passcode or code.")

	// a rotated code revokes the old passcode
	old := Passcode(testSecret, f.club.ABN, f.club.CodeVersion)
	fresh, err := RotateClubCode(f.db, testSecret, f.club.ID)
	require.NoError(t, err)
	assert.NotEqual(t, old, fresh)
	_, err = ClubLogin(ctx, f.db, sessions, testSecret, ClubCredentials{ABN: f.club.ABN, Passcode: old})
	requireAuthError(t, err, fiber.StatusUnauthorized, "Invalid passcode.")
	_, err = ClubLogin(ctx, f.db, sessions, testSecret, ClubCredentials{ABN: f.club.ABN, Passcode: fresh})
	require.NoError(t, err)
}

func TestClubLoginWithAccessCode(t *testing.T) {
	f := newFixture(t)
	sessions, _ := testSessions(t)
	ctx := context.Background()
	require.NoError(t, f.db.Model(f.other).Update("access_code", "HARBOUR26").Error)

	res, err := ClubLogin(ctx, f.db, sessions, testSecret, ClubCredentials{Code: " harbour26 "})
	require.NoError(t, err)
	assert.Equal(t, f.other.ID, res.ClubID)
	// no about text yet
	assert.Equal(t, "/onboarding", res.Redirect)
}

func TestClubLoginInactiveSubscription(t *testing.T) {
	f := newFixture(t)
	sessions, _ := testSessions(t)
	ctx := context.Background()

	res, err := ClubLogin(ctx, f.db, sessions, testSecret, ClubCredentials{ABN: f.club.ABN, Passcode: Passcode(testSecret, f.club.ABN, 1)})
	require.NoError(t, err)

	_, err = UpdateClub(f.db, f.club.ID, ClubInput{SubscriptionActive: ptr(false)})
	require.NoError(t, err)

	_, err = ClubLogin(ctx, f.db, sessions, testSecret, ClubCredentials{ABN: f.club.ABN, Passcode: Passcode(testSecret, f.club.ABN, 1)})
	requireAuthError(t, err, fiber.StatusUnauthorized, "Club subscription is inactive.")

	// open sessions stop resolving
	_, err = ResolveClub(ctx, f.db, sessions, res.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestClubSessionExpiryAndLogout(t *testing.T) {
	sessions, mr := testSessions(t)
	ctx := context.Background()

	token, err := sessions.Create(ctx, "club-1")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, mr.TTL(clubSessionPrefix+token))

	sess, err := sessions.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "club-1", sess.ClubID)

	mr.FastForward(24*time.Hour + time.Second)
	_, err = sessions.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	token, err = sessions.Create(ctx, "club-1")
	require.NoError(t, err)
	require.NoError(t, sessions.Delete(ctx, token))
	_, err = sessions.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = sessions.Resolve(ctx, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.NoError(t, sessions.Delete(ctx, "unknown"))
}

func TestClubSessionStoreDown(t *testing.T) {
	sessions, mr := testSessions(t)
	mr.Close()

	_, err := sessions.Create(context.Background(), "club-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}
