// sweeper.go
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

package jobs

import (
	"context"
	"time"

	"github.com/localnerve/grants-portal/internal/dashboard"
	"github.com/localnerve/grants-portal/internal/logger"
	"github.com/localnerve/grants-portal/internal/metrics"
	"github.com/localnerve/grants-portal/internal/notify"
	"github.com/localnerve/grants-portal/internal/services"
	"gorm.io/gorm"
)

// sweepTimeout bounds one sweep.
const sweepTimeout = time.Minute

// GrantSweeper closes open grants whose close date has passed.
type GrantSweeper struct {
	DB       *gorm.DB
	Notifier notify.Notifier
	Log      logger.Logger
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

// Run closes past-due grants as of today in the business timezone.
func (s *GrantSweeper) Run(ctx context.Context) (int64, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	today := dashboard.Today(now().In(s.Location))

	n, err := services.CloseExpiredGrants(s.DB.WithContext(ctx), today)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		s.Log.Debug("Grant sweep found nothing to close", map[string]interface{}{"today": today.Format(time.DateOnly)})
		return 0, nil
	}

	metrics.GrantsClosed.Add(float64(n))
	s.Log.Info("Closed past-due grants", map[string]interface{}{
		"closed": n,
		"today":  today.Format(time.DateOnly),
	})
	notify.Dispatch(ctx, s.Notifier, s.Log, notify.Event{
		Type: notify.EventGrantsSweptClosed,
		Data: map[string]interface{}{"closed": n, "date": today.Format(time.DateOnly)},
	})
	return n, nil
}

// Job adapts Run to a cron func. Failures are logged.
func (s *GrantSweeper) Job() func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		if _, err := s.Run(ctx); err != nil {
			s.Log.WithError(err).Error("Grant sweep failed", nil)
		}
	}
}

// ScheduleSweeper registers the sweeper on schedule. An empty schedule leaves it
// unscheduled and returns id 0.
func ScheduleSweeper(sched *Scheduler, schedule string, s *GrantSweeper) (int, error) {
	if schedule == "" {
		s.Log.Info("Grant sweeper disabled", nil)
		return 0, nil
	}
	id, err := sched.AddFunc(schedule, s.Job())
	if err != nil {
		return 0, err
	}
	s.Log.Info("Grant sweeper scheduled", map[string]interface{}{"schedule": schedule})
	return id, nil
}
