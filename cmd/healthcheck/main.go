// main.go
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

package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/localnerve/grants-portal/internal/config"
	"github.com/localnerve/grants-portal/internal/database"
	"github.com/localnerve/grants-portal/internal/logger"
	"github.com/localnerve/grants-portal/internal/services"
)

// healthcheck is the container health check. It runs the same checks as /health
// without going through the HTTP server and exits 1 when any fail.
func main() {
	timeout := flag.Duration("timeout", 5*time.Second, "overall deadline for the checks")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	hcLog := logger.NewStructured("error", cfg.AppEnv)

	db, err := database.Connect(cfg, hcLog)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)
	rdb := database.NewRedis(cfg)
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	checker := &services.HealthChecker{Config: cfg, DB: db, Redis: rdb, Log: hcLog}
	result := checker.Check(ctx)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("Failed to encode health check result: %v", err)
	}

	if result.Status != "healthy" {
		cancel()
		os.Exit(1)
	}
}
