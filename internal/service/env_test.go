package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"ddjj/internal/backfill"
	"ddjj/internal/model"
	"ddjj/internal/notify"
	"ddjj/internal/period"
	"ddjj/internal/repository"
	"ddjj/internal/testutil"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event)
	}
	return out
}

type testEnv struct {
	db             *gorm.DB
	now            time.Time
	publisher      *recordingPublisher
	configs        ConfigurationService
	filings        FilingService
	rectifications RectificationService
	registry       RegistryService
	notifications  NotificationService
	audit          AuditService
	scheduler      *backfill.Scheduler
}

// newTestEnv wires every service on a fresh in-memory database with a clock
// frozen at now (UTC).
func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	clock := period.Clock{Now: func() time.Time { return now }, Location: time.UTC}
	log := zerolog.Nop()
	pub := &recordingPublisher{}

	configRepo := repository.NewConfigurationRepository(db)
	filingRepo := repository.NewFilingRepository(db)
	rectRepo := repository.NewRectificationRepository(db)
	registryRepo := repository.NewRegistryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	txManager := repository.NewTransactionManager(db)

	engine := backfill.NewEngine(configRepo, filingRepo, notificationRepo, txManager, pub, clock, 100, log)
	runner := backfill.NewRunner(engine, time.Millisecond, 100, log)
	scheduler := backfill.NewScheduler(runner, configRepo, clock, 0, 0, log)

	audit := NewAuditService(repository.NewAuditRepository(db), log)
	return &testEnv{
		db:             db,
		now:            now,
		publisher:      pub,
		configs:        NewConfigurationService(configRepo, audit, pub, scheduler),
		filings:        NewFilingService(filingRepo, configRepo, registryRepo, notificationRepo, txManager, audit, pub, clock),
		rectifications: NewRectificationService(rectRepo, filingRepo, configRepo, registryRepo, notificationRepo, txManager, audit, pub, clock),
		registry:       NewRegistryService(registryRepo, audit, scheduler, log),
		notifications:  NewNotificationService(notificationRepo, pub),
		audit:          audit,
		scheduler:      scheduler,
	}
}

func (e *testEnv) key(taxpayer model.Taxpayer, trade model.Trade) model.FilingKey {
	return model.FilingKey{TaxpayerID: taxpayer.ID, TradeID: trade.ID, Period: period.Of(e.now)}
}
