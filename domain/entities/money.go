package entities

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// BasisPointsPerUnit is the number of basis points in a rate of 1.0
const BasisPointsPerUnit int64 = 10000

var bpsDivisor = decimal.NewFromInt(BasisPointsPerUnit)

// RateToBasisPoints converts a decimal rate (0.1 = 10%) to basis points, rounding down
func RateToBasisPoints(rate decimal.Decimal) int64 {
	return rate.Mul(bpsDivisor).Floor().IntPart()
}

// BasisPointsToRate converts basis points back to a decimal rate
func BasisPointsToRate(bps int64) decimal.Decimal {
	return decimal.NewFromInt(bps).Div(bpsDivisor)
}

// ApplyBasisPoints returns floor(amount * bps / 10000)
func ApplyBasisPoints(amount, bps int64) int64 {
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(bps)).
		Div(bpsDivisor).
		Floor().
		IntPart()
}

// PrizeShare is one winner's part of a split prize
type PrizeShare struct {
	UserID int64 `json:"user_id"`
	Amount int64 `json:"amount"`
}

// SplitPrize divides total evenly between winners. Winners are ordered by
// ascending user ID and the indivisible remainder goes to the first of them.
func SplitPrize(total int64, winnerIDs []int64) ([]PrizeShare, error) {
	if total < 0 {
		return nil, fmt.Errorf("%w: negative prize %d", ErrInvalidAmount, total)
	}
	ids := UniqueSorted(winnerIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: prize split requires at least one winner", ErrNoWinningCard)
	}

	count := int64(len(ids))
	share := total / count
	remainder := total % count

	shares := make([]PrizeShare, len(ids))
	for i, id := range ids {
		shares[i] = PrizeShare{UserID: id, Amount: share}
	}
	shares[0].Amount += remainder

	return shares, nil
}

// UniqueSorted returns the distinct ids in ascending order
func UniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
