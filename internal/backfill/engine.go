// Package backfill creates placeholder filings for active trades that missed
// the monthly deadline, and schedules when that happens.
package backfill

import (
	"context"
	"fmt"

	"ddjj/internal/apperr"
	"ddjj/internal/model"
	"ddjj/internal/notify"
	"ddjj/internal/period"
	"ddjj/internal/repository"

	"github.com/rs/zerolog"
)

const DefaultBatchSize = 100

// BatchResult is the outcome of one RunOnce call.
type BatchResult struct {
	Inserted    int
	HasMoreWork bool
}

// BatchRunner processes at most one batch of unfiled trades.
type BatchRunner interface {
	RunOnce(ctx context.Context) (BatchResult, error)
}

// Engine finds active trades without a filing for the current period and
// inserts placeholder filings for them, one batch per call.
type Engine struct {
	configRepo       repository.ConfigurationRepository
	filingRepo       repository.FilingRepository
	notificationRepo repository.NotificationRepository
	txManager        repository.TransactionManager
	publisher        notify.Publisher
	clock            period.Clock
	batchSize        int
	log              zerolog.Logger
}

func NewEngine(
	configRepo repository.ConfigurationRepository,
	filingRepo repository.FilingRepository,
	notificationRepo repository.NotificationRepository,
	txManager repository.TransactionManager,
	publisher notify.Publisher,
	clock period.Clock,
	batchSize int,
	log zerolog.Logger,
) *Engine {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &Engine{
		configRepo:       configRepo,
		filingRepo:       filingRepo,
		notificationRepo: notificationRepo,
		txManager:        txManager,
		publisher:        publisher,
		clock:            clock,
		batchSize:        batchSize,
		log:              log.With().Str("component", "backfill_engine").Logger(),
	}
}

// RunOnce inserts placeholders for up to one batch of unfiled active trades.
// HasMoreWork is false only when the batch query came back empty. Rows already
// filed by a concurrent submission are skipped, not overwritten.
func (e *Engine) RunOnce(ctx context.Context) (BatchResult, error) {
	cfg, err := e.configRepo.Get(ctx)
	if err != nil {
		if repository.IsNotFound(err) {
			return BatchResult{}, fmt.Errorf("%w: backfill needs the configuration row", apperr.ErrConfigurationMissing)
		}
		return BatchResult{}, apperr.Persistence("load configuration", err)
	}

	today := e.clock.Today()
	current := period.Of(today)

	pending, err := e.filingRepo.FindUnfiledActiveTrades(ctx, current, e.batchSize)
	if err != nil {
		return BatchResult{}, apperr.Persistence("find unfiled trades", err)
	}
	if len(pending) == 0 {
		return BatchResult{}, nil
	}

	monthLabel := period.PreviousMonthName(current)
	description := fmt.Sprintf("DDJJ generada por el sistema. Debe rectificar el mes de %s", monthLabel)

	var created []model.Filing
	var notifications []model.Notification
	err = e.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, p := range pending {
			filing := model.Filing{
				TaxpayerID:  p.TaxpayerID,
				TradeID:     p.TradeID,
				Period:      current,
				FiledOn:     period.Date(today),
				Amount:      cfg.DefaultAmount,
				ComputedFee: cfg.DefaultAmount,
				Description: description,
				FiledOnTime: false,
				Transmitted: false,
				Backfilled:  true,
			}
			inserted, err := e.filingRepo.CreatePlaceholder(txCtx, &filing)
			if err != nil {
				return fmt.Errorf("trade %d: %w", p.TradeID, err)
			}
			if !inserted {
				continue
			}
			created = append(created, filing)
			notifications = append(notifications, model.Notification{
				Kind:       model.NotificationBackfill,
				CUIT:       p.CUIT,
				TradeCode:  p.TradeCode,
				Amount:     filing.Amount,
				MonthLabel: monthLabel,
			})
		}
		return e.notificationRepo.CreateBatch(txCtx, notifications)
	})
	if err != nil {
		return BatchResult{}, apperr.Persistence("insert placeholder filings", err)
	}

	for i := range created {
		e.publisher.Publish(ctx, notify.NewEvent(notify.EventFilingBackfilled, created[i]))
	}

	e.log.Info().
		Str("period", period.Format(current)).
		Int("candidates", len(pending)).
		Int("inserted", len(created)).
		Msg("backfill batch committed")

	return BatchResult{Inserted: len(created), HasMoreWork: true}, nil
}
