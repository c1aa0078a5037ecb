package main

import (
	"context"
	"fmt"

	"ddjj/internal/backfill"
	"ddjj/internal/config"
	"ddjj/internal/database"
	"ddjj/internal/logger"
	"ddjj/internal/notify"
	"ddjj/internal/period"
	"ddjj/internal/repository"
	"ddjj/internal/service"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// app holds the services a command needs. Commands run against the database
// directly; events go to NATS when NATS_URL is set.
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	db        *gorm.DB
	configs   service.ConfigurationService
	filings   service.FilingService
	scheduler *backfill.Scheduler
	closeFn   func()
}

func newApp(envFile string) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Log.Environment,
		ServiceName: "ddjjctl",
		Version:     Version,
	})

	db, err := database.NewConnection(cfg.Database.DSN(), log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	var publisher notify.Publisher = notify.Nop{}
	closeFn := func() {}
	if cfg.NATSURL != "" {
		natsPub, err := notify.ConnectNATS(cfg.NATSURL, log)
		if err != nil {
			log.Warn().Err(err).Msg("NATS unavailable, events are not published")
		} else {
			publisher = natsPub
			closeFn = natsPub.Close
		}
	}

	clock := period.SystemClock(cfg.Location)
	configRepo := repository.NewConfigurationRepository(db)
	filingRepo := repository.NewFilingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	txManager := repository.NewTransactionManager(db)
	audit := service.NewAuditService(repository.NewAuditRepository(db), log)

	engine := backfill.NewEngine(configRepo, filingRepo, notificationRepo, txManager, publisher, clock, cfg.Backfill.BatchSize, log)
	runner := backfill.NewRunner(engine, cfg.Backfill.IdleWait, cfg.Backfill.MaxBatches, log)

	return &app{
		cfg:       cfg,
		log:       log,
		db:        db,
		configs:   service.NewConfigurationService(configRepo, audit, publisher),
		filings:   service.NewFilingService(filingRepo, configRepo, repository.NewRegistryRepository(db), notificationRepo, txManager, audit, publisher, clock),
		scheduler: backfill.NewScheduler(runner, configRepo, clock, cfg.Backfill.RunAtHour, cfg.Backfill.RunAtMinute, log),
		closeFn:   closeFn,
	}, nil
}

func (a *app) Close() {
	a.closeFn()
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func withApp(envFile *string, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(*envFile)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(context.Background(), a)
}
