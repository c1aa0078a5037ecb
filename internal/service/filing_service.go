package service

import (
	"context"
	"errors"
	"fmt"

	"ddjj/internal/apperr"
	"ddjj/internal/model"
	"ddjj/internal/notify"
	"ddjj/internal/period"
	"ddjj/internal/rate"
	"ddjj/internal/repository"
)

// --- DTOs ---

type SubmitFilingRequest struct {
	TaxpayerID  uint   `json:"taxpayer_id" binding:"required"`
	TradeID     uint   `json:"trade_id" binding:"required"`
	Amount      string `json:"amount" binding:"required"` // Decimal string, e.g. "200000.00"
	Description string `json:"description"`
}

type FilingResponse struct {
	ID          string `json:"id"`
	TaxpayerID  uint   `json:"taxpayer_id"`
	TradeID     uint   `json:"trade_id"`
	Period      string `json:"period"` // YYYY-MM
	FiledOn     string `json:"filed_on"`
	Amount      string `json:"amount"`
	ComputedFee string `json:"computed_fee"`
	Description string `json:"description"`
	FiledOnTime bool   `json:"filed_on_time"`
	Transmitted bool   `json:"transmitted"`
	Rectified   bool   `json:"rectified"`
	Backfilled  bool   `json:"backfilled"`
}

// --- Interface ---

type FilingService interface {
	SubmitFiling(ctx context.Context, req SubmitFilingRequest) (FilingResponse, error)
	FindByPeriod(ctx context.Context, taxpayerID, tradeID uint, year, month int) ([]FilingResponse, error)
	MarkTransmitted(ctx context.Context, key model.FilingKey, actor string) error
}

type filingService struct {
	filingRepo       repository.FilingRepository
	configRepo       repository.ConfigurationRepository
	registryRepo     repository.RegistryRepository
	notificationRepo repository.NotificationRepository
	txManager        repository.TransactionManager
	audit            AuditService
	publisher        notify.Publisher
	clock            period.Clock
}

func NewFilingService(
	filingRepo repository.FilingRepository,
	configRepo repository.ConfigurationRepository,
	registryRepo repository.RegistryRepository,
	notificationRepo repository.NotificationRepository,
	txManager repository.TransactionManager,
	audit AuditService,
	publisher notify.Publisher,
	clock period.Clock,
) FilingService {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &filingService{
		filingRepo:       filingRepo,
		configRepo:       configRepo,
		registryRepo:     registryRepo,
		notificationRepo: notificationRepo,
		txManager:        txManager,
		audit:            audit,
		publisher:        publisher,
		clock:            clock,
	}
}

// --- Implementation ---

// SubmitFiling records the taxpayer's declaration for the current period. The
// fee is computed once here and never recomputed from later configurations.
func (s *filingService) SubmitFiling(ctx context.Context, req SubmitFilingRequest) (FilingResponse, error) {
	if req.TaxpayerID == 0 || req.TradeID == 0 {
		return FilingResponse{}, apperr.Validation("taxpayer_id and trade_id are required")
	}
	amount, err := parsePositiveAmount("amount", req.Amount)
	if err != nil {
		return FilingResponse{}, err
	}

	trade, err := s.registryRepo.FindTrade(ctx, req.TradeID)
	if err != nil {
		if repository.IsNotFound(err) {
			return FilingResponse{}, apperr.NotFound("trade %d", req.TradeID)
		}
		return FilingResponse{}, apperr.Persistence("load trade", err)
	}
	if trade.TaxpayerID != req.TaxpayerID || trade.Taxpayer == nil {
		return FilingResponse{}, apperr.Validation("trade %d does not belong to taxpayer %d", req.TradeID, req.TaxpayerID)
	}
	if !trade.Active {
		return FilingResponse{}, apperr.Validation("trade %d is not active", req.TradeID)
	}

	cfg, err := loadConfiguration(ctx, s.configRepo)
	if err != nil {
		return FilingResponse{}, err
	}

	now := s.clock.Today()
	filing := model.Filing{
		TaxpayerID:  req.TaxpayerID,
		TradeID:     req.TradeID,
		Period:      period.Of(now),
		FiledOn:     period.Date(now),
		Amount:      amount,
		Description: req.Description,
		FiledOnTime: !period.DeadlinePassed(now, cfg.DeadlineDay, s.clock.Location),
		ComputedFee: rate.ComputeFee(amount, cfg, trade.Taxpayer.GoodTaxpayer),
	}
	key := model.FilingKey{TaxpayerID: filing.TaxpayerID, TradeID: filing.TradeID, Period: filing.Period}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		exists, err := s.filingRepo.ExistsForPeriod(txCtx, key)
		if err != nil {
			return apperr.Persistence("check existing filing", err)
		}
		if exists {
			return duplicateFiling(key)
		}
		if err := s.filingRepo.Create(txCtx, &filing); err != nil {
			if repository.IsDuplicateKey(err) {
				return duplicateFiling(key)
			}
			return apperr.Persistence("create filing", err)
		}
		return s.notificationRepo.Create(txCtx, &model.Notification{
			Kind:       model.NotificationNewFiling,
			CUIT:       trade.Taxpayer.CUIT,
			TradeCode:  trade.Code,
			Amount:     filing.Amount,
			MonthLabel: period.MonthName(filing.Period.Month()),
		})
	})
	if err != nil {
		if errors.Is(err, apperr.ErrDuplicateFiling) || errors.Is(err, apperr.ErrPersistence) {
			return FilingResponse{}, err
		}
		return FilingResponse{}, apperr.Persistence("create filing notification", err)
	}

	res := toFilingResponse(filing)
	s.publisher.Publish(ctx, notify.NewEvent(notify.EventFilingCreated, res))
	return res, nil
}

// FindByPeriod lists a trade's filings for a year, or one month of it when
// month is 1-12. An empty result is not an error.
func (s *filingService) FindByPeriod(ctx context.Context, taxpayerID, tradeID uint, year, month int) ([]FilingResponse, error) {
	if year < 1 || year > 9999 {
		return nil, apperr.Validation("year %d out of range", year)
	}
	if month < 0 || month > 12 {
		return nil, apperr.Validation("month must be between 1 and 12, got %d", month)
	}

	filings, err := s.filingRepo.FindByPeriod(ctx, taxpayerID, tradeID, year, month)
	if err != nil {
		return nil, apperr.Persistence("find filings", err)
	}

	res := make([]FilingResponse, 0, len(filings))
	for _, f := range filings {
		res = append(res, toFilingResponse(f))
	}
	return res, nil
}

// MarkTransmitted flags a filing as sent to the external system. Marking twice
// is reported as ErrAlreadyTransmitted.
func (s *filingService) MarkTransmitted(ctx context.Context, key model.FilingKey, actor string) error {
	key.Period = period.Of(key.Period)

	affected, err := s.filingRepo.MarkTransmitted(ctx, key)
	if err != nil {
		return apperr.Persistence("mark filing transmitted", err)
	}
	if affected == 0 {
		exists, err := s.filingRepo.ExistsForPeriod(ctx, key)
		if err != nil {
			return apperr.Persistence("check filing", err)
		}
		if !exists {
			return apperr.NotFound("filing %s", key)
		}
		return fmt.Errorf("%w: filing %s", apperr.ErrAlreadyTransmitted, key)
	}

	s.audit.Record(ctx, actor, model.ActionTransmitFiling, key.String(), "filing", nil)
	s.publisher.Publish(ctx, notify.NewEvent(notify.EventFilingTransmitted, map[string]interface{}{
		"taxpayer_id": key.TaxpayerID,
		"trade_id":    key.TradeID,
		"period":      period.Format(key.Period),
	}))
	return nil
}

// --- Helpers ---

func duplicateFiling(key model.FilingKey) error {
	return fmt.Errorf("%w: %s, submit a rectification instead", apperr.ErrDuplicateFiling, key)
}

func toFilingResponse(f model.Filing) FilingResponse {
	return FilingResponse{
		ID:          f.ID.String(),
		TaxpayerID:  f.TaxpayerID,
		TradeID:     f.TradeID,
		Period:      period.Format(f.Period),
		FiledOn:     f.FiledOn.Format("2006-01-02"),
		Amount:      f.Amount.StringFixed(2),
		ComputedFee: f.ComputedFee.StringFixed(2),
		Description: f.Description,
		FiledOnTime: f.FiledOnTime,
		Transmitted: f.Transmitted,
		Rectified:   f.Rectified,
		Backfilled:  f.Backfilled,
	}
}
