package main

import (
	"context"

	"github.com/flexipay/wallet-service/internal/app"
	"github.com/flexipay/wallet-service/internal/config"
	"github.com/flexipay/wallet-service/internal/di"
	"github.com/flexipay/wallet-service/internal/errors"
	"github.com/flexipay/wallet-service/internal/infrastructure/api/routers"
	"github.com/flexipay/wallet-service/internal/infrastructure/database"
	"github.com/flexipay/wallet-service/internal/infrastructure/database/db_client"
	"github.com/flexipay/wallet-service/pkg/log"
)

const (
	appName = "flexipay-wallet"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	opts := []log.LoggerOption{log.WithConsoleLogger()}
	if cfg.Server.LogFile != "" {
		opts = append(opts, log.WithFileLogger(cfg.Server.LogFile))
	}
	log.Init(appName, opts...)
	logger := log.GetLogger()

	pgClient := db_client.NewPGClient(cfg.PostgreSQL)
	db, err := pgClient.Connect()
	if err != nil {
		logger.Fatal().Err(err).Msg(errors.ErrorFailedToConnectToTheDatabase)
	}

	if err := database.RunMigrations(cfg.PostgreSQL.DSN()); err != nil {
		logger.Fatal().Err(err).Msg(errors.ErrorFailedToRunMigrations)
	}

	container, err := di.NewContainer(db, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build the application container")
	}

	reconciler := app.NewReconcileProcess(container.ReconcileInteractor, cfg.Reconciler)
	go reconciler.Run(ctx)

	router := routers.NewRouter(container, cfg)
	service := app.NewService(cfg)
	service.Run(ctx, router)
}
