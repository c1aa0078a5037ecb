package service

import (
	"context"
	"testing"
	"time"

	"ddjj/internal/apperr"
	"ddjj/internal/model"
	"ddjj/internal/notify"
	"ddjj/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type watcherFunc func(model.Configuration)

func (f watcherFunc) ConfigurationChanged(cfg model.Configuration) { f(cfg) }

func TestConfigurationService_Get(t *testing.T) {
	env := newTestEnv(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := env.configs.GetConfiguration(ctx)
	assert.ErrorIs(t, err, apperr.ErrConfigurationMissing)

	testutil.SeedConfiguration(t, env.db)
	cfg, err := env.configs.GetConfiguration(ctx)
	require.NoError(t, err)
	assert.Equal(t, 26, cfg.DeadlineDay)
	assert.Equal(t, "0.0800", cfg.CurrentRate)
	assert.Equal(t, "9999.00", cfg.DefaultAmount)
	assert.Equal(t, "0.1000", cfg.GoodTaxpayerDiscount)
}

func TestConfigurationService_Update(t *testing.T) {
	env := newTestEnv(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	testutil.SeedConfiguration(t, env.db)
	ctx := context.Background()

	var seen []model.Configuration
	svc := NewConfigurationService(
		env.configs.(*configurationService).repo, env.audit, env.publisher,
		watcherFunc(func(cfg model.Configuration) { seen = append(seen, cfg) }),
	)

	res, err := svc.UpdateConfiguration(ctx, UpdateConfigurationRequest{
		DeadlineDay:          15,
		CurrentRate:          "0.05",
		DefaultAmount:        "5000",
		GoodTaxpayerDiscount: "0.2",
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 15, res.DeadlineDay)
	assert.Equal(t, "0.0500", res.CurrentRate)

	require.Len(t, seen, 1)
	assert.Equal(t, 15, seen[0].DeadlineDay)
	assert.Contains(t, env.publisher.types(), notify.EventConfigurationUpdated)

	var stored model.Configuration
	require.NoError(t, env.db.First(&stored, "id = ?", model.ConfigurationID).Error)
	assert.Equal(t, 15, stored.DeadlineDay)

	var count int64
	require.NoError(t, env.db.Model(&model.Configuration{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	logs, total, err := env.audit.GetAuditLogs(ctx, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, model.ActionUpdateConfiguration, logs[0].Action)
	assert.Equal(t, "admin", logs[0].Actor)
}

func TestConfigurationService_UpdateRejectsInvalid(t *testing.T) {
	env := newTestEnv(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	testutil.SeedConfiguration(t, env.db)

	valid := UpdateConfigurationRequest{DeadlineDay: 26, CurrentRate: "0.08", DefaultAmount: "9999", GoodTaxpayerDiscount: "0.10"}
	tests := []struct {
		name string
		edit func(r *UpdateConfigurationRequest)
	}{
		{"deadline zero", func(r *UpdateConfigurationRequest) { r.DeadlineDay = 0 }},
		{"deadline 32", func(r *UpdateConfigurationRequest) { r.DeadlineDay = 32 }},
		{"rate not numeric", func(r *UpdateConfigurationRequest) { r.CurrentRate = "ocho" }},
		{"rate zero", func(r *UpdateConfigurationRequest) { r.CurrentRate = "0" }},
		{"rate above one", func(r *UpdateConfigurationRequest) { r.CurrentRate = "1.5" }},
		{"negative default", func(r *UpdateConfigurationRequest) { r.DefaultAmount = "-1" }},
		{"discount above one", func(r *UpdateConfigurationRequest) { r.GoodTaxpayerDiscount = "1.01" }},
		{"discount not numeric", func(r *UpdateConfigurationRequest) { r.GoodTaxpayerDiscount = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.edit(&req)
			_, err := env.configs.UpdateConfiguration(context.Background(), req, "admin")
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	cfg, err := env.configs.GetConfiguration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 26, cfg.DeadlineDay)
}
