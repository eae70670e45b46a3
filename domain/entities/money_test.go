package entities

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateConversions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(1000), RateToBasisPoints(decimal.RequireFromString("0.1")))
	assert.Equal(t, int64(20000), RateToBasisPoints(decimal.RequireFromString("2")))
	assert.Equal(t, int64(1234), RateToBasisPoints(decimal.RequireFromString("0.12349")))
	assert.True(t, decimal.RequireFromString("0.1").Equal(BasisPointsToRate(1000)))
}

func TestApplyBasisPoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount, bps, want int64
	}{
		{amount: 100, bps: 1000, want: 10},
		{amount: 30, bps: 20000, want: 60},
		{amount: 7, bps: 1500, want: 1},
		{amount: 0, bps: 1000, want: 0},
		{amount: 33, bps: 15000, want: 49},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ApplyBasisPoints(tt.amount, tt.bps), "%d at %d bps", tt.amount, tt.bps)
	}
}

func TestSplitPrize(t *testing.T) {
	t.Parallel()

	shares, err := SplitPrize(100, []int64{7})
	require.NoError(t, err)
	assert.Equal(t, []PrizeShare{{UserID: 7, Amount: 100}}, shares)

	shares, err = SplitPrize(100, []int64{30, 10, 20})
	require.NoError(t, err)
	assert.Equal(t, []PrizeShare{
		{UserID: 10, Amount: 34},
		{UserID: 20, Amount: 33},
		{UserID: 30, Amount: 33},
	}, shares)

	var total int64
	for _, s := range shares {
		total += s.Amount
	}
	assert.Equal(t, int64(100), total)

	shares, err = SplitPrize(10, []int64{5, 5})
	require.NoError(t, err)
	assert.Len(t, shares, 1, "duplicate winners collapse")

	_, err = SplitPrize(10, nil)
	assert.ErrorIs(t, err, ErrNoWinningCard)

	_, err = SplitPrize(-1, []int64{1})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestReconciliationReport(t *testing.T) {
	t.Parallel()

	report := &ReconciliationReport{AvailableBalance: 90, BlockedBalance: 10, LedgerTotal: 100, LedgerBlocked: 10}
	assert.True(t, report.IsBalanced())

	report.BlockedBalance = 0
	assert.Equal(t, int64(-10), report.TotalDrift())
	assert.Equal(t, int64(-10), report.BlockedDrift())
	assert.False(t, report.IsBalanced())
}
