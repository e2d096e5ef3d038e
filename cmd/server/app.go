package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/transactionprocessing/estatereporting/internal/config"
	"github.com/transactionprocessing/estatereporting/internal/ingestion"
	"github.com/transactionprocessing/estatereporting/internal/logging"
	"github.com/transactionprocessing/estatereporting/internal/reporting"
	"github.com/transactionprocessing/estatereporting/internal/repository"
	"github.com/transactionprocessing/estatereporting/internal/rollup"
)

// app holds the wired services shared by every command.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	db        *sql.DB
	builder   *rollup.Builder
	reporting *reporting.Service
	ingestion *ingestion.Service
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log)

	logger.Info("opening database", "path", cfg.Database.Path)
	db, err := repository.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	// Create repositories.
	txnRepo := repository.NewTransactionRepo(db)
	dimRepo, err := repository.NewDimensionRepo(db, cfg.Cache.DimensionEstates)
	if err != nil {
		db.Close()
		return nil, err
	}
	summaryRepo := repository.NewSummaryRepo(db)
	settRepo := repository.NewSettlementRepo(db)
	activityRepo := repository.NewActivityRepo(db)
	calendarRepo := repository.NewCalendarRepo(db)

	// Create services.
	var opts []rollup.Option
	if !cfg.Rollup.Serialize {
		opts = append(opts, rollup.WithoutSerialization())
	}
	builder := rollup.NewBuilder(txnRepo, summaryRepo, logger, opts...)
	reportingSvc := reporting.NewService(txnRepo, dimRepo, summaryRepo, settRepo, activityRepo, calendarRepo)
	ingestionSvc := ingestion.NewService(dimRepo, txnRepo, settRepo, activityRepo, calendarRepo, builder, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		builder:   builder,
		reporting: reportingSvc,
		ingestion: ingestionSvc,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
