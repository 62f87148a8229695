package services

import (
	"context"
	"fmt"
	"time"

	"github.com/localnerve/grants-portal/internal/config"
	"github.com/localnerve/grants-portal/internal/logger"
	"github.com/localnerve/grants-portal/internal/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Sessions     string            `json:"sessions"`
	Authorizer   string            `json:"authorizer"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

func (r *HealthCheckResult) fail(msg string, err error) {
	r.Status = "unhealthy"
	if r.ErrorMessage == "" {
		r.ErrorMessage = fmt.Sprintf("%s: %v", msg, err)
	} else {
		r.ErrorMessage += fmt.Sprintf("; %s: %v", msg, err)
	}
}

// HealthChecker checks the database, session store and identity provider.
type HealthChecker struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  redis.Cmdable
	Log    logger.Logger
	// PingAuthorizer defaults to a TCP dial of AUTHZ_URL.
	PingAuthorizer func(url string) error
}

// Check performs a comprehensive health check of the service
func (h *HealthChecker) Check(ctx context.Context) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	// Database
	sqlDB, err := h.DB.DB()
	if err != nil {
		result.Database = "error"
		result.Details["database_error"] = err.Error()
		result.fail("Database connection error", err)
		h.Log.WithError(err).Error("Health check failed - database connection", nil)
	} else if err := sqlDB.PingContext(ctx); err != nil {
		result.Database = "unreachable"
		result.Details["database_ping_error"] = err.Error()
		result.fail("Database ping failed", err)
		h.Log.WithError(err).Error("Health check failed - database ping", nil)
	} else {
		result.Database = "ok"
		result.Details["database_type"] = h.Config.DBType
		result.Details["database_name"] = h.Config.DBAppDatabase
	}

	// Club session store
	if h.Redis != nil {
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			result.Sessions = "unreachable"
			result.Details["sessions_error"] = err.Error()
			result.fail("Session store ping failed", err)
			h.Log.WithError(err).Error("Health check failed - session store ping", nil)
		} else {
			result.Sessions = "ok"
		}
	}

	// Authorizer
	ping := h.PingAuthorizer
	if ping == nil {
		ping = utils.PingAuthorizer
	}
	if err := ping(h.Config.AuthzURL); err != nil {
		result.Authorizer = "unreachable"
		result.Details["authorizer_error"] = err.Error()
		result.fail("Authorizer ping failed", err)
		h.Log.WithError(err).Error("Health check failed - authorizer ping", nil)
	} else {
		result.Authorizer = "ok"
		result.Details["authorizer_url"] = h.Config.AuthzURL
	}

	if result.Status == "healthy" {
		h.Log.Debug("Health check passed - all systems operational", nil)
	}
	return result
}
