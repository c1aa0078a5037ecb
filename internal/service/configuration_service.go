package service

import (
	"context"
	"strconv"

	"ddjj/internal/apperr"
	"ddjj/internal/model"
	"ddjj/internal/notify"
	"ddjj/internal/repository"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

// UpdateConfigurationRequest carries decimals as strings, like every money
// field of the API.
type UpdateConfigurationRequest struct {
	DeadlineDay          int    `json:"deadline_day" binding:"required"`
	CurrentRate          string `json:"current_rate" binding:"required"`           // e.g. "0.08"
	DefaultAmount        string `json:"default_amount" binding:"required"`         // e.g. "9999"
	GoodTaxpayerDiscount string `json:"good_taxpayer_discount" binding:"required"` // e.g. "0.10"
}

type ConfigurationResponse struct {
	DeadlineDay          int    `json:"deadline_day"`
	CurrentRate          string `json:"current_rate"`
	DefaultAmount        string `json:"default_amount"`
	GoodTaxpayerDiscount string `json:"good_taxpayer_discount"`
	UpdatedAt            string `json:"updated_at"`
}

// ConfigurationWatcher is told about every saved configuration.
type ConfigurationWatcher interface {
	ConfigurationChanged(cfg model.Configuration)
}

// --- Interface ---

type ConfigurationService interface {
	GetConfiguration(ctx context.Context) (ConfigurationResponse, error)
	UpdateConfiguration(ctx context.Context, req UpdateConfigurationRequest, actor string) (ConfigurationResponse, error)
}

type configurationService struct {
	repo      repository.ConfigurationRepository
	audit     AuditService
	publisher notify.Publisher
	watchers  []ConfigurationWatcher
}

func NewConfigurationService(
	repo repository.ConfigurationRepository,
	audit AuditService,
	publisher notify.Publisher,
	watchers ...ConfigurationWatcher,
) ConfigurationService {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &configurationService{repo: repo, audit: audit, publisher: publisher, watchers: watchers}
}

// --- Implementation ---

func (s *configurationService) GetConfiguration(ctx context.Context) (ConfigurationResponse, error) {
	cfg, err := loadConfiguration(ctx, s.repo)
	if err != nil {
		return ConfigurationResponse{}, err
	}
	return toConfigurationResponse(cfg), nil
}

// UpdateConfiguration validates and replaces the policy. Existing filings keep
// their snapshotted fees; only later operations see the new values.
func (s *configurationService) UpdateConfiguration(ctx context.Context, req UpdateConfigurationRequest, actor string) (ConfigurationResponse, error) {
	cfg, err := parseConfiguration(req)
	if err != nil {
		return ConfigurationResponse{}, err
	}

	if err := s.repo.Save(ctx, &cfg); err != nil {
		return ConfigurationResponse{}, apperr.Persistence("save configuration", err)
	}

	s.audit.Record(ctx, actor, model.ActionUpdateConfiguration, strconv.Itoa(int(cfg.ID)), "configuration", req)
	s.publisher.Publish(ctx, notify.NewEvent(notify.EventConfigurationUpdated, toConfigurationResponse(cfg)))
	for _, w := range s.watchers {
		w.ConfigurationChanged(cfg)
	}

	return toConfigurationResponse(cfg), nil
}

// --- Helpers ---

func parseConfiguration(req UpdateConfigurationRequest) (model.Configuration, error) {
	if req.DeadlineDay < 1 || req.DeadlineDay > 31 {
		return model.Configuration{}, apperr.Validation("deadline_day must be between 1 and 31, got %d", req.DeadlineDay)
	}

	rate, err := decimal.NewFromString(req.CurrentRate)
	if err != nil {
		return model.Configuration{}, apperr.Validation("current_rate must be numeric, got %q", req.CurrentRate)
	}
	if !rate.IsPositive() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return model.Configuration{}, apperr.Validation("current_rate must be in (0, 1], got %s", rate)
	}

	defaultAmount, err := decimal.NewFromString(req.DefaultAmount)
	if err != nil {
		return model.Configuration{}, apperr.Validation("default_amount must be numeric, got %q", req.DefaultAmount)
	}
	if defaultAmount.IsNegative() {
		return model.Configuration{}, apperr.Validation("default_amount must not be negative")
	}

	discount, err := decimal.NewFromString(req.GoodTaxpayerDiscount)
	if err != nil {
		return model.Configuration{}, apperr.Validation("good_taxpayer_discount must be numeric, got %q", req.GoodTaxpayerDiscount)
	}
	if discount.IsNegative() || discount.GreaterThan(decimal.NewFromInt(1)) {
		return model.Configuration{}, apperr.Validation("good_taxpayer_discount must be in [0, 1], got %s", discount)
	}

	return model.Configuration{
		ID:                   model.ConfigurationID,
		DeadlineDay:          req.DeadlineDay,
		CurrentRate:          rate,
		DefaultAmount:        defaultAmount,
		GoodTaxpayerDiscount: discount,
	}, nil
}

func toConfigurationResponse(cfg model.Configuration) ConfigurationResponse {
	return ConfigurationResponse{
		DeadlineDay:          cfg.DeadlineDay,
		CurrentRate:          cfg.CurrentRate.StringFixed(4),
		DefaultAmount:        cfg.DefaultAmount.StringFixed(2),
		GoodTaxpayerDiscount: cfg.GoodTaxpayerDiscount.StringFixed(4),
		UpdatedAt:            cfg.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}
