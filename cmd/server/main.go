package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/grants-portal/data"
	"github.com/localnerve/grants-portal/internal/config"
	"github.com/localnerve/grants-portal/internal/database"
	"github.com/localnerve/grants-portal/internal/handlers"
	"github.com/localnerve/grants-portal/internal/jobs"
	"github.com/localnerve/grants-portal/internal/logger"
	"github.com/localnerve/grants-portal/internal/middleware"
	"github.com/localnerve/grants-portal/internal/models"
	"github.com/localnerve/grants-portal/internal/notify"
	"github.com/localnerve/grants-portal/internal/services"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	_ "github.com/localnerve/grants-portal/docs/api" // Swagger docs
)

// @title Grants Portal API
// @version 1.0.0
// @description Grant pipeline, club directory and club portal data service
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/grants-portal
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

// deps is everything the HTTP app is built from.
type deps struct {
	cfg      *config.Config
	log      logger.Logger
	db       *gorm.DB
	rdb      redis.Cmdable
	notifier notify.Notifier
	staff    services.StaffValidator
	health   *services.HealthChecker
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("grants-portal: %v", err)
	}
	log.Println("Server stopped")
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLog := logger.NewStructured(cfg.LogLevel, cfg.AppEnv)
	defer logger.Sync(appLog)

	db, err := database.Connect(cfg, appLog)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if cfg.SeedTemplates {
		n, err := database.SeedTemplates(db, data.PendingItemTemplates)
		if err != nil {
			return fmt.Errorf("failed to seed pending item templates: %w", err)
		}
		appLog.Info("Pending item templates seeded", map[string]interface{}{"created": n})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := database.NewRedis(cfg)
	defer rdb.Close()
	if err := database.PingRedis(ctx, rdb); err != nil {
		// sessions fail closed until the store comes back
		appLog.WithError(err).Warn("Session store unavailable at startup", nil)
	}

	notifier, err := notify.New(ctx, cfg, appLog)
	if err != nil {
		return fmt.Errorf("failed to configure notifications: %w", err)
	}

	sched := jobs.NewScheduler(appLog, cfg.Location())
	sweeper := &jobs.GrantSweeper{DB: db, Notifier: notifier, Log: appLog, Location: cfg.Location()}
	if _, err := jobs.ScheduleSweeper(sched, cfg.GrantSweepSchedule, sweeper); err != nil {
		return fmt.Errorf("invalid GRANT_SWEEP_SCHEDULE: %w", err)
	}
	sched.Start()
	defer sched.Shutdown()

	app := newApp(deps{
		cfg:      cfg,
		log:      appLog,
		db:       db,
		rdb:      rdb,
		notifier: notifier,
		staff:    services.NewAuthorizer(cfg, appLog, services.StaffRoles),
		health:   &services.HealthChecker{Config: cfg, DB: db, Redis: rdb, Log: appLog},
	})

	go func() {
		<-ctx.Done()
		appLog.Info("Gracefully shutting down...", nil)
		_ = app.Shutdown()
	}()

	appLog.Info("Starting server", map[string]interface{}{
		"port":      cfg.Port,
		"env":       cfg.AppEnv,
		"notifiers": notifier.Drivers(),
	})
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func newApp(d deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: d.cfg.IsProduction(),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.RequestID())
	app.Use(logger.RequestLogger(d.log))
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("grants-portal")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", func(c *fiber.Ctx) error {
		result := d.health.Check(c.UserContext())
		status := fiber.StatusOK
		if result.Status != "healthy" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(result)
	})

	api := app.Group("/api")
	api.Use(middleware.VersionMiddleware())

	sessions := services.NewClubSessions(d.rdb, d.cfg.ClubSessionTTL)
	base := &handlers.Base{
		DB:       d.db,
		Log:      d.log,
		Notifier: d.notifier,
		Location: d.cfg.Location(),
	}
	h := handlers.New(base, handlers.AuthSettings{
		Sessions:       sessions,
		PasscodeSecret: d.cfg.ClubPasscodeSecret,
		CookieSecure:   d.cfg.CookieSecure,
	})
	h.Mount(api,
		middleware.AuthStaff(d.staff),
		middleware.AuthClub(func(ctx context.Context, token string) (*models.Club, error) {
			return services.ResolveClub(ctx, d.db.WithContext(ctx), sessions, token)
		}),
	)

	// 404 handler
	app.Use(handlers.NotFound)

	return app
}
