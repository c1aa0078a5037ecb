package service

import (
	"context"
	"fmt"
	"strings"

	"ddjj/internal/apperr"
	"ddjj/internal/model"
	"ddjj/internal/repository"

	"github.com/shopspring/decimal"
)

// loadConfiguration reads the policy row once for the calling operation.
func loadConfiguration(ctx context.Context, repo repository.ConfigurationRepository) (model.Configuration, error) {
	cfg, err := repo.Get(ctx)
	if err != nil {
		if repository.IsNotFound(err) {
			return model.Configuration{}, fmt.Errorf("%w: no configuration row, seed it before accepting filings", apperr.ErrConfigurationMissing)
		}
		return model.Configuration{}, apperr.Persistence("load configuration", err)
	}
	return *cfg, nil
}

// parsePositiveAmount accepts a decimal string with at most two fraction digits.
func parsePositiveAmount(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, apperr.Validation("%s is required", field)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperr.Validation("%s must be numeric, got %q", field, raw)
	}
	if !amount.IsPositive() {
		return decimal.Zero, apperr.Validation("%s must be greater than zero", field)
	}
	if amount.Exponent() < -2 && !amount.Equal(amount.Round(2)) {
		return decimal.Zero, apperr.Validation("%s supports at most two decimals", field)
	}
	return amount, nil
}
