package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/localnerve/grants-portal/internal/database"
	"github.com/localnerve/grants-portal/internal/logger"
	"github.com/localnerve/grants-portal/internal/metrics"
	"github.com/localnerve/grants-portal/internal/models"
	"github.com/localnerve/grants-portal/internal/notify"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func TestCronLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	clogger := cronLogger{logger.NewZapAdapter(zap.New(core))}

	clogger.Info("foo", "entry", 1)
	clogger.Error(errors.New("bar"), "test")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "foo", entries[0].Message)
	assert.Equal(t, int64(1), entries[0].ContextMap()["entry"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "bar", entries[1].ContextMap()["error"])
}

func TestSchedulerAddRemove(t *testing.T) {
	s := NewScheduler(logger.NewNoOpLogger(), time.UTC)
	id, err := s.AddFunc("* * * * *", func() {})
	require.NoError(t, err)
	assert.Len(t, s.Entries(), 1)
	s.Remove(id)
	assert.Empty(t, s.Entries())

	_, err = s.AddFunc("every tuesday", func() {})
	assert.Error(t, err)

	s.Start()
	s.Shutdown()
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

func sweepDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func civilDate(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestGrantSweeperClosesPastDue(t *testing.T) {
	db := sweepDB(t)
	grants := []models.Grant{
		{Name: "Past", Status: models.GrantOpen, IsActive: true, CloseDate: civilDate(2026, 3, 1)},
		{Name: "Today", Status: models.GrantOpen, IsActive: true, CloseDate: civilDate(2026, 3, 2)},
		{Name: "Undated", Status: models.GrantOpen, IsActive: true},
		{Name: "Draft", Status: models.GrantDraft, IsActive: true, CloseDate: civilDate(2026, 1, 1)},
	}
	require.NoError(t, db.Create(&grants).Error)

	sydney, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)
	rec := &recorder{}
	s := &GrantSweeper{
		DB:       db,
		Notifier: rec,
		Log:      logger.NewTestLogger(t),
		Location: sydney,
		// 2 March already in Sydney, still 1 March in UTC
		Now: func() time.Time { return time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC) },
	}

	before := testutil.ToFloat64(metrics.GrantsClosed)
	n, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.GrantsClosed))

	var closed []string
	require.NoError(t, db.Model(&models.Grant{}).Where("status = ?", models.GrantClosed).Pluck("name", &closed).Error)
	assert.Equal(t, []string{"Past"}, closed)

	require.Len(t, rec.events, 1)
	assert.Equal(t, notify.EventGrantsSweptClosed, rec.events[0].Type)
	assert.Equal(t, "2026-03-02", rec.events[0].Data["date"])

	// a second sweep is a no-op and stays quiet
	n, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, rec.events, 1)
}

func TestScheduleSweeper(t *testing.T) {
	sched := NewScheduler(logger.NewNoOpLogger(), time.UTC)
	s := &GrantSweeper{DB: sweepDB(t), Log: logger.NewNoOpLogger(), Location: time.UTC}

	id, err := ScheduleSweeper(sched, "", s)
	require.NoError(t, err)
	assert.Zero(t, id)
	assert.Empty(t, sched.Entries())

	id, err = ScheduleSweeper(sched, "0 1 * * *", s)
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Len(t, sched.Entries(), 1)

	_, err = ScheduleSweeper(sched, "not a schedule", s)
	assert.Error(t, err)
}
