package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/mywallet-io/mywallet/internal/api"
	"github.com/mywallet-io/mywallet/internal/auth"
	"github.com/mywallet-io/mywallet/internal/config"
	"github.com/mywallet-io/mywallet/internal/database"
	"github.com/mywallet-io/mywallet/internal/export"
	"github.com/mywallet-io/mywallet/internal/ledger"
	"github.com/mywallet-io/mywallet/internal/logging"
	"github.com/mywallet-io/mywallet/internal/store"
	"github.com/sirupsen/logrus"
)

const version = "0.1.0"

// initializeAPI wires config, database and services. The returned DB must
// be closed by the caller.
func initializeAPI(ctx context.Context, configPath string) (*api.Api, *sqlx.DB, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	log := logging.New(cfg.Log)
	log.Infof("Starting MyWallet API v%s with config: %s", version, configPath)

	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	st := store.New(db)
	services := api.Services{
		Auth: auth.NewService(st, auth.Config{
			BcryptCost: cfg.Auth.BcryptCost,
			SessionTTL: cfg.Session.TTL,
		}, log),
		Ledger: ledger.NewService(st, loc, log),
	}

	if cfg.Export.Enabled() {
		exporter, err := export.NewClient(ctx, cfg.Export)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to initialize export: %w", err)
		}
		services.Exporter = exporter
		log.WithField("bucket", cfg.Export.Bucket).Info("Wallet export enabled")
	}

	a, err := api.NewApi(*cfg, services, log)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return a, db, nil
}

func main() {
	configPath := flag.String("config", "app.yml", "Path to configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, db, err := initializeAPI(ctx, *configPath)
	if err != nil {
		logrus.Fatal(err)
	}
	defer db.Close()

	if err := a.Serve(ctx); err != nil {
		logrus.Fatal(err)
	}
}
