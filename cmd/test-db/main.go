// Command test-db opens the configured database, applies pending migrations
// and reports the schema version. Useful as a deploy-time readiness check.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/mywallet-io/mywallet/internal/config"
	"github.com/mywallet-io/mywallet/internal/database"
	"github.com/mywallet-io/mywallet/internal/logging"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "app.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log := logging.New(cfg.Log)
	log.WithFields(logrus.Fields{
		"type": cfg.Database.Type,
		"path": cfg.Database.Path,
	}).Info("Testing database initialization")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	version, err := database.SchemaVersion(ctx, db)
	if err != nil {
		log.Fatalf("Failed to read schema version: %v", err)
	}
	log.WithField("version", version).Info("Database connection test successful")
}
