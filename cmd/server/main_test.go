package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/localnerve/grants-portal/internal/config"
	"github.com/localnerve/grants-portal/internal/database"
	"github.com/localnerve/grants-portal/internal/logger"
	"github.com/localnerve/grants-portal/internal/notify"
	"github.com/localnerve/grants-portal/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type denyAll struct{}

func (denyAll) ValidateStaff(string, string) (string, error) {
	return "", services.ErrInvalidStaffSession
}

// TestServer builds the app once; the Prometheus collectors register globally.
func TestServer(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		AppEnv:         "test",
		Timezone:       "Australia/Sydney",
		DBType:         "sqlite",
		AuthzURL:       "http://authz.local",
		ClubSessionTTL: time.Hour,
	}
	log := logger.NewTestLogger(t)
	app := newApp(deps{
		cfg:      cfg,
		log:      log,
		db:       db,
		rdb:      rdb,
		notifier: notify.NewMulti(log, notify.NewLogNotifier(log)),
		staff:    denyAll{},
		health: &services.HealthChecker{
			Config:         cfg,
			DB:             db,
			Redis:          rdb,
			Log:            log,
			PingAuthorizer: func(string) error { return nil },
		},
	})

	get := func(path string) (*http.Response, []byte) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		b, _ := io.ReadAll(resp.Body)
		return resp, b
	}

	t.Run("health", func(t *testing.T) {
		resp, body := get("/health")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		var result services.HealthCheckResult
		require.NoError(t, json.Unmarshal(body, &result))
		assert.Equal(t, "ok", result.Sessions)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	})

	t.Run("staff routes are guarded", func(t *testing.T) {
		resp, _ := get("/api/dashboard/stats")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "1.0.0", resp.Header.Get("X-Api-Version"))
	})

	t.Run("club routes are guarded", func(t *testing.T) {
		resp, _ := get("/api/club/applications")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, body := get("/metrics")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "http_requests_total")
	})

	t.Run("unknown route", func(t *testing.T) {
		resp, _ := get("/nowhere")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
