package repository

import (
	"context"
	"testing"
	"time"

	"ddjj/internal/model"
	"ddjj/internal/period"
	"ddjj/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFiling(taxpayerID, tradeID uint, p time.Time, amount string) *model.Filing {
	return &model.Filing{
		TaxpayerID:  taxpayerID,
		TradeID:     tradeID,
		Period:      p,
		FiledOn:     p,
		Amount:      decimal.RequireFromString(amount),
		ComputedFee: decimal.RequireFromString(amount).Mul(decimal.RequireFromString("0.08")).Round(2),
	}
}

func TestFilingRepositoryCreateRejectsSecondFilingForPeriod(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFilingRepository(db)
	ctx := context.Background()
	taxpayer, trade := testutil.SeedTrade(t, db, "20111111112", false, true)
	march := period.New(2024, time.March)

	require.NoError(t, repo.Create(ctx, newFiling(taxpayer.ID, trade.ID, march, "1000")))

	err := repo.Create(ctx, newFiling(taxpayer.ID, trade.ID, march, "2000"))
	require.Error(t, err)
	assert.True(t, IsDuplicateKey(err))

	exists, err := repo.ExistsForPeriod(ctx, model.FilingKey{TaxpayerID: taxpayer.ID, TradeID: trade.ID, Period: march.AddDate(0, 0, 14)})
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsForPeriod(ctx, model.FilingKey{TaxpayerID: taxpayer.ID, TradeID: trade.ID, Period: period.New(2024, time.April)})
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFilingRepositoryCreatePlaceholderSkipsExistingRow(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFilingRepository(db)
	ctx := context.Background()
	taxpayer, trade := testutil.SeedTrade(t, db, "20222222223", false, true)
	may := period.New(2024, time.May)

	inserted, err := repo.CreatePlaceholder(ctx, newFiling(taxpayer.ID, trade.ID, may, "9999"))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.CreatePlaceholder(ctx, newFiling(taxpayer.ID, trade.ID, may, "9999"))
	require.NoError(t, err)
	assert.False(t, inserted)

	var count int64
	require.NoError(t, db.Model(&model.Filing{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestFilingRepositoryFindByPeriod(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFilingRepository(db)
	ctx := context.Background()
	taxpayer, trade := testutil.SeedTrade(t, db, "20333333334", false, true)

	for _, p := range []time.Time{
		period.New(2023, time.December),
		period.New(2024, time.February),
		period.New(2024, time.January),
		period.New(2025, time.January),
	} {
		require.NoError(t, repo.Create(ctx, newFiling(taxpayer.ID, trade.ID, p, "500")))
	}

	year, err := repo.FindByPeriod(ctx, taxpayer.ID, trade.ID, 2024, 0)
	require.NoError(t, err)
	require.Len(t, year, 2)
	assert.Equal(t, time.January, year[0].Period.Month())
	assert.Equal(t, time.February, year[1].Period.Month())

	month, err := repo.FindByPeriod(ctx, taxpayer.ID, trade.ID, 2024, 2)
	require.NoError(t, err)
	require.Len(t, month, 1)

	none, err := repo.FindByPeriod(ctx, taxpayer.ID, trade.ID, 2024, 7)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestFilingRepositoryMarkTransmittedOnlyOnce(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFilingRepository(db)
	ctx := context.Background()
	taxpayer, trade := testutil.SeedTrade(t, db, "20444444445", false, true)
	june := period.New(2024, time.June)
	require.NoError(t, repo.Create(ctx, newFiling(taxpayer.ID, trade.ID, june, "100")))
	key := model.FilingKey{TaxpayerID: taxpayer.ID, TradeID: trade.ID, Period: june}

	rows, err := repo.MarkTransmitted(ctx, key)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)

	rows, err = repo.MarkTransmitted(ctx, key)
	require.NoError(t, err)
	assert.EqualValues(t, 0, rows)

	filing, err := repo.FindByKey(ctx, key)
	require.NoError(t, err)
	assert.True(t, filing.Transmitted)
}

func TestFilingRepositoryFindUnfiledActiveTrades(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFilingRepository(db)
	ctx := context.Background()
	july := period.New(2024, time.July)

	filedTaxpayer, filedTrade := testutil.SeedTrade(t, db, "20555555556", false, true)
	_, openTrade := testutil.SeedTrade(t, db, "20666666667", false, true)
	testutil.SeedTrade(t, db, "20777777778", false, false)
	_, otherOpen := testutil.SeedTrade(t, db, "20888888889", true, true)

	require.NoError(t, repo.Create(ctx, newFiling(filedTaxpayer.ID, filedTrade.ID, july, "100")))

	rows, err := repo.FindUnfiledActiveTrades(ctx, july, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, openTrade.ID, rows[0].TradeID)
	assert.Equal(t, "20666666667", rows[0].CUIT)
	assert.Equal(t, "COM-20666666667", rows[0].TradeCode)
	assert.Equal(t, otherOpen.ID, rows[1].TradeID)

	limited, err := repo.FindUnfiledActiveTrades(ctx, july, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	// A different period sees every active trade as unfiled.
	august, err := repo.FindUnfiledActiveTrades(ctx, period.New(2024, time.August), 10)
	require.NoError(t, err)
	assert.Len(t, august, 3)
}

func TestRectificationRepositorySequenceAndTransmission(t *testing.T) {
	db := testutil.NewDB(t)
	filings := NewFilingRepository(db)
	rectifications := NewRectificationRepository(db)
	ctx := context.Background()
	taxpayer, trade := testutil.SeedTrade(t, db, "20999999990", false, true)
	sept := period.New(2024, time.September)
	filing := newFiling(taxpayer.ID, trade.ID, sept, "100")
	require.NoError(t, filings.Create(ctx, filing))
	key := model.FilingKey{TaxpayerID: taxpayer.ID, TradeID: trade.ID, Period: sept}

	seq, err := rectifications.NextSequenceNumber(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)

	first := &model.Rectification{
		FilingID: filing.ID, TaxpayerID: taxpayer.ID, TradeID: trade.ID, Period: sept,
		Amount: decimal.NewFromInt(200), Fee: decimal.NewFromInt(16), SequenceNumber: seq,
	}
	require.NoError(t, rectifications.Create(ctx, first))

	seq, err = rectifications.NextSequenceNumber(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 2, seq)

	clash := &model.Rectification{
		FilingID: filing.ID, TaxpayerID: taxpayer.ID, TradeID: trade.ID, Period: sept,
		Amount: decimal.NewFromInt(300), Fee: decimal.NewFromInt(24), SequenceNumber: 1,
	}
	assert.True(t, IsDuplicateKey(rectifications.Create(ctx, clash)))

	rows, err := rectifications.MarkTransmitted(ctx, first.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)
	rows, err = rectifications.MarkTransmitted(ctx, first.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, rows)

	parent, err := filings.FindByKey(ctx, key)
	require.NoError(t, err)
	assert.False(t, parent.Transmitted)

	list, err := rectifications.ListByFiling(ctx, filing.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Transmitted)
}

func TestSchemaStoresCUITInCuitColumn(t *testing.T) {
	db := testutil.NewDB(t)
	migrator := db.Migrator()

	for _, table := range []string{"taxpayers", "notifications"} {
		assert.True(t, migrator.HasColumn(table, "cuit"), table)
		assert.False(t, migrator.HasColumn(table, "c_ui_t"), table)
	}
}
