package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ddjj/internal/apperr"
	"ddjj/internal/model"
	"ddjj/internal/notify"
	"ddjj/internal/period"
	"ddjj/internal/rate"
	"ddjj/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type RectifyRequest struct {
	Amount string `json:"amount" binding:"required"` // Decimal string
	Month  string `json:"month"`                     // Month label for the description; defaults to the month before the period
}

type RectificationResponse struct {
	ID             string `json:"id"`
	FilingID       string `json:"filing_id"`
	TaxpayerID     uint   `json:"taxpayer_id"`
	TradeID        uint   `json:"trade_id"`
	Period         string `json:"period"`
	Amount         string `json:"amount"`
	Fee            string `json:"fee"`
	Description    string `json:"description"`
	SequenceNumber int    `json:"sequence_number"`
	Transmitted    bool   `json:"transmitted"`
	CreatedAt      string `json:"created_at"`
}

// --- Interface ---

type RectificationService interface {
	Rectify(ctx context.Context, key model.FilingKey, req RectifyRequest) (RectificationResponse, error)
	ListByFiling(ctx context.Context, key model.FilingKey) ([]RectificationResponse, error)
	MarkTransmitted(ctx context.Context, id string, actor string) error
}

type rectificationService struct {
	rectificationRepo repository.RectificationRepository
	filingRepo        repository.FilingRepository
	configRepo        repository.ConfigurationRepository
	registryRepo      repository.RegistryRepository
	notificationRepo  repository.NotificationRepository
	txManager         repository.TransactionManager
	audit             AuditService
	publisher         notify.Publisher
	clock             period.Clock
	locks             *keyedMutex
}

func NewRectificationService(
	rectificationRepo repository.RectificationRepository,
	filingRepo repository.FilingRepository,
	configRepo repository.ConfigurationRepository,
	registryRepo repository.RegistryRepository,
	notificationRepo repository.NotificationRepository,
	txManager repository.TransactionManager,
	audit AuditService,
	publisher notify.Publisher,
	clock period.Clock,
) RectificationService {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &rectificationService{
		rectificationRepo: rectificationRepo,
		filingRepo:        filingRepo,
		configRepo:        configRepo,
		registryRepo:      registryRepo,
		notificationRepo:  notificationRepo,
		txManager:         txManager,
		audit:             audit,
		publisher:         publisher,
		clock:             clock,
		locks:             newKeyedMutex(),
	}
}

// --- Implementation ---

// Rectify records a correction of the filing at key and copies the new amount
// and fee onto the filing. Concurrent rectifications of one filing are
// serialized: in-process by key, across processes by the filing row lock.
func (s *rectificationService) Rectify(ctx context.Context, key model.FilingKey, req RectifyRequest) (RectificationResponse, error) {
	if key.TaxpayerID == 0 || key.TradeID == 0 {
		return RectificationResponse{}, apperr.Validation("taxpayer and trade are required")
	}
	amount, err := parsePositiveAmount("amount", req.Amount)
	if err != nil {
		return RectificationResponse{}, err
	}
	if len(req.Month) > 20 {
		return RectificationResponse{}, apperr.Validation("month label too long")
	}
	key.Period = period.Of(key.Period)

	cfg, err := loadConfiguration(ctx, s.configRepo)
	if err != nil {
		return RectificationResponse{}, err
	}

	unlock := s.locks.Lock(key.String())
	defer unlock()

	var rect model.Rectification
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		filing, err := s.filingRepo.FindByKeyForUpdate(txCtx, key)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperr.NotFound("filing %s", key)
			}
			return apperr.Persistence("lock filing", err)
		}

		trade, err := s.registryRepo.FindTrade(txCtx, key.TradeID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperr.NotFound("trade %d", key.TradeID)
			}
			return apperr.Persistence("load trade", err)
		}
		if trade.Taxpayer == nil {
			return apperr.NotFound("taxpayer %d", key.TaxpayerID)
		}

		label := strings.TrimSpace(req.Month)
		if label == "" {
			label = period.PreviousMonthName(filing.Period)
		}

		fee := rate.ComputeFee(amount, cfg, trade.Taxpayer.GoodTaxpayer)
		rect, err = s.record(txCtx, filing, amount, fee, label, s.clock.Today())
		if err != nil {
			return err
		}

		if err := s.notificationRepo.Create(txCtx, &model.Notification{
			Kind:       model.NotificationRectification,
			CUIT:       trade.Taxpayer.CUIT,
			TradeCode:  trade.Code,
			Amount:     rect.Amount,
			MonthLabel: label,
		}); err != nil {
			return apperr.Persistence("create rectification notification", err)
		}
		return nil
	})
	if err != nil {
		return RectificationResponse{}, err
	}

	res := toRectificationResponse(rect)
	s.publisher.Publish(ctx, notify.NewEvent(notify.EventRectificationCreated, res))
	return res, nil
}

// record inserts the next rectification of filing and dual-writes amount and
// fee onto it. Callers hold the filing row lock.
func (s *rectificationService) record(ctx context.Context, filing *model.Filing, amount, fee decimal.Decimal, monthLabel string, at time.Time) (model.Rectification, error) {
	key := model.FilingKey{TaxpayerID: filing.TaxpayerID, TradeID: filing.TradeID, Period: filing.Period}
	seq, err := s.rectificationRepo.NextSequenceNumber(ctx, key)
	if err != nil {
		return model.Rectification{}, apperr.Persistence("next sequence number", err)
	}

	rect := model.Rectification{
		FilingID:       filing.ID,
		TaxpayerID:     filing.TaxpayerID,
		TradeID:        filing.TradeID,
		Period:         period.Of(filing.Period),
		Amount:         amount,
		Fee:            fee,
		Description:    fmt.Sprintf("Rectificado mes de %s. %s", monthLabel, at.Format(time.DateTime)),
		SequenceNumber: seq,
	}
	if err := s.rectificationRepo.Create(ctx, &rect); err != nil {
		return model.Rectification{}, apperr.Persistence("create rectification", err)
	}
	if err := s.filingRepo.ApplyRectification(ctx, filing.ID, amount, fee); err != nil {
		return model.Rectification{}, apperr.Persistence("update rectified filing", err)
	}
	return rect, nil
}

// ListByFiling returns the rectifications of a filing in sequence order.
func (s *rectificationService) ListByFiling(ctx context.Context, key model.FilingKey) ([]RectificationResponse, error) {
	filing, err := s.filingRepo.FindByKey(ctx, key)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("filing %s", key)
		}
		return nil, apperr.Persistence("load filing", err)
	}

	rects, err := s.rectificationRepo.ListByFiling(ctx, filing.ID)
	if err != nil {
		return nil, apperr.Persistence("list rectifications", err)
	}

	res := make([]RectificationResponse, 0, len(rects))
	for _, r := range rects {
		res = append(res, toRectificationResponse(r))
	}
	return res, nil
}

// MarkTransmitted flags one rectification as sent. The filing's own flag is
// left alone.
func (s *rectificationService) MarkTransmitted(ctx context.Context, id string, actor string) error {
	rectID, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validation("invalid rectification id %q", id)
	}

	affected, err := s.rectificationRepo.MarkTransmitted(ctx, rectID)
	if err != nil {
		return apperr.Persistence("mark rectification transmitted", err)
	}
	if affected == 0 {
		if _, err := s.rectificationRepo.FindByID(ctx, rectID); err != nil {
			if repository.IsNotFound(err) {
				return apperr.NotFound("rectification %s", id)
			}
			return apperr.Persistence("load rectification", err)
		}
		return fmt.Errorf("%w: rectification %s", apperr.ErrAlreadyTransmitted, id)
	}

	s.audit.Record(ctx, actor, model.ActionTransmitRectification, id, "rectification", nil)
	s.publisher.Publish(ctx, notify.NewEvent(notify.EventRectificationTransmitted, map[string]string{"id": id}))
	return nil
}

// --- Helpers ---

func toRectificationResponse(r model.Rectification) RectificationResponse {
	return RectificationResponse{
		ID:             r.ID.String(),
		FilingID:       r.FilingID.String(),
		TaxpayerID:     r.TaxpayerID,
		TradeID:        r.TradeID,
		Period:         period.Format(r.Period),
		Amount:         r.Amount.StringFixed(2),
		Fee:            r.Fee.StringFixed(2),
		Description:    r.Description,
		SequenceNumber: r.SequenceNumber,
		Transmitted:    r.Transmitted,
		CreatedAt:      r.CreatedAt.Format(time.DateTime),
	}
}
