package service

import (
	"context"

	"ddjj/internal/apperr"
	"ddjj/internal/backfill"
	"ddjj/internal/model"
	"ddjj/internal/repository"

	"github.com/rs/zerolog"
)

type TradeResponse struct {
	ID           uint   `json:"id"`
	TaxpayerID   uint   `json:"taxpayer_id"`
	CUIT         string `json:"cuit"`
	BusinessName string `json:"business_name"`
	GoodTaxpayer bool   `json:"good_taxpayer"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Active       bool   `json:"active"`
}

type ActivateTradeResponse struct {
	Trade    TradeResponse    `json:"trade"`
	Backfill *backfill.Report `json:"backfill,omitempty"`
}

// BackfillTrigger runs the backfill when the current month's deadline passed.
type BackfillTrigger interface {
	RunIfDue(ctx context.Context, trigger backfill.Trigger) (backfill.Report, bool, error)
}

type RegistryService interface {
	GetTrade(ctx context.Context, id uint) (TradeResponse, error)
	ActivateTrade(ctx context.Context, id uint, actor string) (ActivateTradeResponse, error)
}

type registryService struct {
	repo     repository.RegistryRepository
	audit    AuditService
	backfill BackfillTrigger
	log      zerolog.Logger
}

func NewRegistryService(repo repository.RegistryRepository, audit AuditService, trigger BackfillTrigger, log zerolog.Logger) RegistryService {
	return &registryService{repo: repo, audit: audit, backfill: trigger, log: log}
}

func (s *registryService) GetTrade(ctx context.Context, id uint) (TradeResponse, error) {
	trade, err := s.repo.FindTrade(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return TradeResponse{}, apperr.NotFound("trade %d", id)
		}
		return TradeResponse{}, apperr.Persistence("load trade", err)
	}
	return toTradeResponse(*trade), nil
}

// ActivateTrade marks the trade active. If this month's deadline already
// passed, the backfill runs before returning so the newly active trade gets its
// placeholder. A backfill failure is logged and reported, the activation stands.
func (s *registryService) ActivateTrade(ctx context.Context, id uint, actor string) (ActivateTradeResponse, error) {
	affected, err := s.repo.ActivateTrade(ctx, id)
	if err != nil {
		return ActivateTradeResponse{}, apperr.Persistence("activate trade", err)
	}
	if affected == 0 {
		return ActivateTradeResponse{}, apperr.NotFound("trade %d", id)
	}

	trade, err := s.GetTrade(ctx, id)
	if err != nil {
		return ActivateTradeResponse{}, err
	}
	s.audit.Record(ctx, actor, model.ActionActivateTrade, trade.Code, trade.Name, nil)

	res := ActivateTradeResponse{Trade: trade}
	if s.backfill == nil {
		return res, nil
	}

	report, ran, err := s.backfill.RunIfDue(ctx, backfill.TriggerOnDemand)
	if err != nil {
		s.log.Error().Err(err).Uint("trade_id", id).Msg("on-demand backfill after trade activation failed")
		report.Error = err.Error()
		ran = true
	}
	if ran {
		res.Backfill = &report
	}
	return res, nil
}

func toTradeResponse(t model.Trade) TradeResponse {
	res := TradeResponse{
		ID:         t.ID,
		TaxpayerID: t.TaxpayerID,
		Code:       t.Code,
		Name:       t.Name,
		Active:     t.Active,
	}
	if t.Taxpayer != nil {
		res.CUIT = t.Taxpayer.CUIT
		res.BusinessName = t.Taxpayer.BusinessName
		res.GoodTaxpayer = t.Taxpayer.GoodTaxpayer
	}
	return res
}
