// This file is a helper for running tests with testcontainers.
// It is used by the integration tests and by cmd/testcontainers as a
// standalone executable. Expects environment variables to be loaded from
// .env files; sensible images are used when they are not set.
//

package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/localnerve/grants-portal/internal/config"
	"github.com/localnerve/grants-portal/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Default images when DB_IMAGE, REDIS_IMAGE are unset.
const (
	DefaultPostgresImage = "postgres:16-alpine"
	DefaultMariaDBImage  = "mariadb:11"
	DefaultRedisImage    = "redis:7-alpine"
)

type TestContainers struct {
	Network             *testcontainers.DockerNetwork
	DBContainer         testcontainers.Container
	RedisContainer      testcontainers.Container
	AuthorizerContainer testcontainers.Container

	// Config points at the mapped ports of the containers.
	Config *config.Config
}

func (tc *TestContainers) Terminate(t *testing.T) {
	ctx := context.Background()
	if tc.AuthorizerContainer != nil {
		if err := tc.AuthorizerContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate Authorizer: %v", err)
		}
	}
	if tc.RedisContainer != nil {
		if err := tc.RedisContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate Redis: %v", err)
		}
	}
	if tc.DBContainer != nil {
		if err := tc.DBContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate Database: %v", err)
		}
	}
	if tc.Network != nil {
		if err := tc.Network.Remove(ctx); err != nil {
			logMessage(t, "Failed to remove network: %v", err)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// CreateAllTestContainers starts the database named by DB_TYPE, Redis and,
// when AUTHZ_IMAGE is set, an Authorizer.
func CreateAllTestContainers(t *testing.T) (*TestContainers, error) {
	ctx := context.Background()
	testContainers := &TestContainers{}

	nw, err := network.New(ctx)
	if err != nil {
		exitWithError(t, err, "Failed to create network")
	}
	testContainers.Network = nw
	networkName := nw.Name

	cfg, err := StartDatabase(ctx, t, testContainers, envOr("DB_TYPE", "postgres"))
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to start Database")
	}
	testContainers.Config = cfg

	redisAddr, err := StartRedis(ctx, testContainers, networkName)
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to start Redis")
	}
	cfg.RedisAddr = redisAddr
	logMessage(t, "REDIS_ADDR=%s", redisAddr)

	if os.Getenv("AUTHZ_IMAGE") != "" {
		authzURL, err := startAuthorizer(ctx, t, testContainers, networkName)
		if err != nil {
			testContainers.Terminate(t)
			exitWithError(t, err, "Failed to start Authorizer")
		}
		cfg.AuthzURL = authzURL
		logMessage(t, "AUTHZ_URL=%s", authzURL)
	}

	logMessage(t, "Grants portal testcontainers started successfully")
	return testContainers, nil
}

// StartDatabase starts a postgres or mariadb container and returns a config
// for it. The network is optional.
func StartDatabase(ctx context.Context, t *testing.T, tc *TestContainers, dbType string) (*config.Config, error) {
	port := "5432"
	image := DefaultPostgresImage
	if dbType != "postgres" {
		port = "3306"
		image = DefaultMariaDBImage
	}
	tcpDbPort, err := nat.NewPort("tcp", port)
	if err != nil {
		return nil, err
	}

	req := testcontainers.ContainerRequest{
		Image:        envOr("DB_IMAGE", image),
		ExposedPorts: []string{string(tcpDbPort)},
		Env:          getDBInitEnvMap(dbType),
		WaitingFor:   wait.ForListeningPort(tcpDbPort).WithStartupTimeout(90 * time.Second),
	}
	if tc.Network != nil {
		req.Networks = []string{tc.Network.Name}
		req.NetworkAliases = map[string][]string{tc.Network.Name: {"db"}}
	}
	dbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, err
	}
	tc.DBContainer = dbContainer

	dbHost, err := dbContainer.Host(ctx)
	if err != nil {
		return nil, err
	}
	dbPort, err := dbContainer.MappedPort(ctx, tcpDbPort)
	if err != nil {
		return nil, err
	}

	cfgType := dbType
	if dbType == "mariadb" {
		cfgType = "mysql"
	}
	cfg := &config.Config{
		AppEnv:               "test",
		LogLevel:             "warn",
		Timezone:             "Australia/Sydney",
		DBType:               cfgType,
		DBHost:               dbHost,
		DBPort:               dbPort.Port(),
		DBAppDatabase:        envOr("DB_APP_DATABASE", "grants"),
		DBAppUser:            envOr("DB_APP_USER", "grants"),
		DBAppPassword:        envOr("DB_APP_PASSWORD", "grants-secret"),
		DBAppConnectionLimit: 5,
		ClubSessionTTL:       time.Hour,
		ClubPasscodeSecret:   "integration-secret",
	}
	logMessage(t, "DB_HOST=%s DB_PORT=%s", cfg.DBHost, cfg.DBPort)

	if cfgType == "mysql" {
		if err := waitForMySQL(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// StartRedis starts the club session store and returns its host:port.
func StartRedis(ctx context.Context, tc *TestContainers, networkName string) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        envOr("REDIS_IMAGE", DefaultRedisImage),
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	if networkName != "" {
		req.Networks = []string{networkName}
		req.NetworkAliases = map[string][]string{networkName: {"redis"}}
	}
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", err
	}
	tc.RedisContainer = redisContainer

	host, err := redisContainer.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := redisContainer.MappedPort(ctx, "6379/tcp")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s", host, port.Port()), nil
}

func startAuthorizer(ctx context.Context, t *testing.T, tc *TestContainers, networkName string) (string, error) {
	tcpAuthzPort, err := nat.NewPort("tcp", envOr("AUTHZ_PORT", "8080"))
	if err != nil {
		return "", err
	}
	authzLogLevel := "info"
	if os.Getenv("DEBUG_CONTAINER") == "true" {
		authzLogLevel = "debug"
	}
	authorizerContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        os.Getenv("AUTHZ_IMAGE"),
			ExposedPorts: []string{string(tcpAuthzPort)},
			Env: map[string]string{
				"ENV":           "production",
				"CLIENT_ID":     os.Getenv("AUTHZ_CLIENT_ID"),
				"PORT":          tcpAuthzPort.Port(),
				"DATABASE_TYPE": "sqlite",
				"DATABASE_URL":  "/tmp/authorizer.db",
				"ADMIN_SECRET":  os.Getenv("AUTHZ_ADMIN_SECRET"),
				"ROLES":         "admin,staff,user",
				"DEFAULT_ROLES": "user",
				"LOG_LEVEL":     authzLogLevel,
			},
			WaitingFor: wait.ForLog("Authorizer running at PORT:").WithStartupTimeout(30 * time.Second),
			Networks:   []string{networkName},
			NetworkAliases: map[string][]string{
				networkName: {"authorizer"},
			},
		},
		Started: true,
	})
	if err != nil {
		return "", err
	}
	tc.AuthorizerContainer = authorizerContainer

	authzHost, _ := authorizerContainer.Host(ctx)
	authzPort, err := authorizerContainer.MappedPort(ctx, tcpAuthzPort)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://%s:%s", authzHost, authzPort.Port()), nil
}

func getDBInitEnvMap(dbType string) map[string]string {
	switch dbType {
	case "postgres":
		return map[string]string{
			"POSTGRES_PASSWORD": envOr("DB_APP_PASSWORD", "grants-secret"),
			"POSTGRES_USER":     envOr("DB_APP_USER", "grants"),
			"POSTGRES_DB":       envOr("DB_APP_DATABASE", "grants"),
		}
	case "mariadb", "mysql":
		return map[string]string{
			"MYSQL_ROOT_PASSWORD": envOr("DB_ROOT_PASSWORD", "root-secret"),
			"MYSQL_DATABASE":      envOr("DB_APP_DATABASE", "grants"),
			"MYSQL_USER":          envOr("DB_APP_USER", "grants"),
			"MYSQL_PASSWORD":      envOr("DB_APP_PASSWORD", "grants-secret"),
		}
	}
	return nil
}

// waitForMySQL pings until MariaDB accepts the application user; the port
// opens before the server finishes initialising.
func waitForMySQL(cfg *config.Config) error {
	db, err := sql.Open("mysql", database.MySQLDSN(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	for i := 0; i < 30; i++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		time.Sleep(1 * time.Second)
	}
	return fmt.Errorf("MariaDB not ready after 30 seconds: %w", err)
}

func exitWithError(t *testing.T, err error, msg string) {
	if t != nil {
		t.Fatalf(msg+": %v", err)
	} else {
		fmt.Printf(msg+": %v\n", err)
		os.Exit(1)
	}
}

func logMessage(t *testing.T, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if t != nil {
		t.Log(msg)
	} else {
		fmt.Println(strings.TrimSpace(msg))
	}
}
