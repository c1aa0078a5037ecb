package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfNormalizesToFirstDay(t *testing.T) {
	got := Of(time.Date(2025, time.March, 17, 15, 4, 5, 0, time.Local))
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestPreviousMonthNameWrapsAround(t *testing.T) {
	assert.Equal(t, "Diciembre", PreviousMonthName(New(2025, time.January)))
	assert.Equal(t, "Febrero", PreviousMonthName(New(2025, time.March)))
}

func TestParse(t *testing.T) {
	p, err := Parse("2025-03")
	require.NoError(t, err)
	assert.Equal(t, New(2025, time.March), p)

	p, err = Parse("2025-03-26")
	require.NoError(t, err)
	assert.Equal(t, New(2025, time.March), p)

	_, err = Parse("march")
	assert.Error(t, err)
}

func TestDeadlineClampsToMonthLength(t *testing.T) {
	loc := time.UTC
	d := DeadlineIn(time.Date(2025, time.February, 10, 0, 0, 0, 0, loc), 31, loc)
	assert.Equal(t, 28, d.Day())

	d = DeadlineIn(time.Date(2024, time.February, 10, 0, 0, 0, 0, loc), 30, loc)
	assert.Equal(t, 29, d.Day())
}

func TestDeadlinePassed(t *testing.T) {
	loc := time.UTC
	assert.False(t, DeadlinePassed(time.Date(2025, time.March, 25, 23, 59, 0, 0, loc), 26, loc))
	assert.True(t, DeadlinePassed(time.Date(2025, time.March, 26, 0, 0, 0, 0, loc), 26, loc))
	assert.True(t, DeadlinePassed(time.Date(2025, time.February, 28, 1, 0, 0, 0, loc), 31, loc))
}
