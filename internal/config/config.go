package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Server configuration
	Port     string
	AppEnv   string
	LogLevel string
	Timezone string

	// Database configuration
	DBType               string // mysql, postgres, sqlite, sqlserver
	DBHost               string
	DBPort               string
	DBAppDatabase        string
	DBAppUser            string
	DBAppPassword        string
	DBAppConnectionLimit int
	SeedTemplates        bool

	// Authorizer configuration
	AuthzURL      string
	AuthzClientID string

	// Club sessions
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	ClubPasscodeSecret string
	ClubSessionTTL     time.Duration
	CookieSecure       bool

	// Notifications
	NotifyDrivers   []string
	AWSRegion       string
	NotifyFromEmail string
	NotifyTopicARN  string

	// Jobs
	GrantSweepSchedule string
}

var defaults = map[string]interface{}{
	"PORT":                    "3000",
	"APP_ENV":                 "development",
	"LOG_LEVEL":               "info",
	"APP_TIMEZONE":            "Australia/Sydney",
	"DB_TYPE":                 "mysql",
	"DB_HOST":                 "localhost",
	"DB_PORT":                 "3306",
	"DB_APP_CONNECTION_LIMIT": 5,
	"SEED_TEMPLATES":          true,
	"REDIS_ADDR":              "localhost:6379",
	"REDIS_DB":                0,
	"CLUB_SESSION_TTL":        "24h",
	"COOKIE_SECURE":           true,
	"NOTIFY_DRIVERS":          "log",
	"AWS_REGION":              "ap-southeast-2",
	"GRANT_SWEEP_SCHEDULE":    "0 1 * * *",
}

// Load reads configuration from the environment, after loading .env if present.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	// Empty but set variables disable the sweeper
	v.AllowEmptyEnv(true)

	cfg := &Config{
		Port:                 v.GetString("PORT"),
		AppEnv:               v.GetString("APP_ENV"),
		LogLevel:             strings.ToLower(v.GetString("LOG_LEVEL")),
		Timezone:             v.GetString("APP_TIMEZONE"),
		DBType:               v.GetString("DB_TYPE"),
		DBHost:               v.GetString("DB_HOST"),
		DBPort:               v.GetString("DB_PORT"),
		DBAppDatabase:        v.GetString("DB_APP_DATABASE"),
		DBAppUser:            v.GetString("DB_APP_USER"),
		DBAppPassword:        v.GetString("DB_APP_PASSWORD"),
		DBAppConnectionLimit: v.GetInt("DB_APP_CONNECTION_LIMIT"),
		SeedTemplates:        v.GetBool("SEED_TEMPLATES"),
		AuthzURL:             v.GetString("AUTHZ_URL"),
		AuthzClientID:        v.GetString("AUTHZ_CLIENT_ID"),
		RedisAddr:            v.GetString("REDIS_ADDR"),
		RedisPassword:        v.GetString("REDIS_PASSWORD"),
		RedisDB:              v.GetInt("REDIS_DB"),
		ClubPasscodeSecret:   v.GetString("CLUB_PASSCODE_SECRET"),
		ClubSessionTTL:       v.GetDuration("CLUB_SESSION_TTL"),
		CookieSecure:         v.GetBool("COOKIE_SECURE"),
		NotifyDrivers:        splitList(v.GetString("NOTIFY_DRIVERS")),
		AWSRegion:            v.GetString("AWS_REGION"),
		NotifyFromEmail:      v.GetString("NOTIFY_FROM_EMAIL"),
		NotifyTopicARN:       v.GetString("NOTIFY_TOPIC_ARN"),
		GrantSweepSchedule:   strings.TrimSpace(v.GetString("GRANT_SWEEP_SCHEDULE")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.DBAppDatabase == "" {
		return fmt.Errorf("DB_APP_DATABASE is required")
	}
	if cfg.AuthzURL == "" {
		return fmt.Errorf("AUTHZ_URL is required")
	}
	if cfg.AuthzClientID == "" {
		return fmt.Errorf("AUTHZ_CLIENT_ID is required")
	}
	if cfg.ClubPasscodeSecret == "" {
		return fmt.Errorf("CLUB_PASSCODE_SECRET is required")
	}
	if cfg.DBAppConnectionLimit < 1 {
		return fmt.Errorf("DB_APP_CONNECTION_LIMIT must be positive")
	}
	if cfg.ClubSessionTTL <= 0 {
		return fmt.Errorf("CLUB_SESSION_TTL must be a positive duration")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE %q: %w", cfg.Timezone, err)
	}
	for _, d := range cfg.NotifyDrivers {
		switch d {
		case "log", "ses", "sns":
		default:
			return fmt.Errorf("NOTIFY_DRIVERS: unknown driver %q", d)
		}
		if d == "ses" && cfg.NotifyFromEmail == "" {
			return fmt.Errorf("NOTIFY_FROM_EMAIL is required for the ses driver")
		}
		if d == "sns" && cfg.NotifyTopicARN == "" {
			return fmt.Errorf("NOTIFY_TOPIC_ARN is required for the sns driver")
		}
	}
	return nil
}

// Location resolves the business timezone used for date-only comparisons.
func (cfg *Config) Location() *time.Location {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProduction reports whether the service runs with production logging.
func (cfg *Config) IsProduction() bool {
	return cfg.AppEnv == "production"
}

func loadEnvFile() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(strings.ToLower(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
