package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/localnerve/grants-portal/tests/helpers"
)

const usage = `
Start the grants-portal development containers: a database, Redis and, when
AUTHZ_IMAGE is set, an Authorizer. Runs until interrupted.

Usage:

testcontainers [-h] [-f ENV_FILE_PATH] [-db postgres|mariadb] [-o OUT_ENV_PATH]

ENV_FILE_PATH: .env file to load before starting
OUT_ENV_PATH:  write the connection settings as a .env file for the server

example
  testcontainers -f ./.env.test -db mariadb -o ./.env.local
`

func main() {
	showHelp := flag.Bool("h", false, "show help")
	envFilename := flag.String("f", "", "path to the .env file")
	dbType := flag.String("db", "", "database container: postgres or mariadb")
	outFilename := flag.String("o", "", "write connection settings to this .env file")
	flag.Parse()

	if *showHelp {
		fmt.Print(usage)
		return
	}

	if *envFilename != "" {
		log.Printf("Loading environment variables from %s\n", *envFilename)
		if err := godotenv.Load(*envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	}
	if *dbType != "" {
		os.Setenv("DB_TYPE", *dbType)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	testContainers, err := helpers.CreateAllTestContainers(nil)
	if err != nil {
		log.Fatalf("Failed to create test containers: %v\n", err)
	}

	cfg := testContainers.Config
	settings := map[string]string{
		"DB_TYPE":              cfg.DBType,
		"DB_HOST":              cfg.DBHost,
		"DB_PORT":              cfg.DBPort,
		"DB_APP_DATABASE":      cfg.DBAppDatabase,
		"DB_APP_USER":          cfg.DBAppUser,
		"DB_APP_PASSWORD":      cfg.DBAppPassword,
		"REDIS_ADDR":           cfg.RedisAddr,
		"CLUB_PASSCODE_SECRET": cfg.ClubPasscodeSecret,
		"COOKIE_SECURE":        "false",
	}
	if cfg.AuthzURL != "" {
		settings["AUTHZ_URL"] = cfg.AuthzURL
	}

	out, err := godotenv.Marshal(settings)
	if err != nil {
		log.Fatalf("Failed to format settings: %v\n", err)
	}
	fmt.Println(out)
	if *outFilename != "" {
		if err := godotenv.Write(settings, *outFilename); err != nil {
			log.Printf("Failed to write %s: %v\n", *outFilename, err)
		}
	}

	<-ctx.Done()
	log.Printf("Received shutdown signal, terminating test containers...\n")
	testContainers.Terminate(nil)
}
