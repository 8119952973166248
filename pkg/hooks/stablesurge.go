package hooks

import (
	"fmt"
	"math/big"
	"sort"

	"quoter/pkg/fixedpoint"
	"quoter/pkg/models"
	"quoter/pkg/pools/stable"
)

// StableSurge raises the swap fee of a stable pool when a swap would
// push the balances further from parity, discouraging trades that drain
// one side of the pool during a depeg. Swaps that restore balance keep
// the static fee.
type StableSurge struct {
	Base
}

func (StableSurge) Flags() Flags {
	return Flags{ShouldCallComputeDynamicSwapFee: true}
}

func (StableSurge) OnComputeDynamicSwapFee(p *models.PoolSwapParams, staticSwapFee *big.Int, hookState models.HookState) (*big.Int, error) {
	state, ok := hookState.(*models.StableSurgeHookState)
	if !ok {
		return nil, fmt.Errorf("%w: stable surge hook requires stable surge state", models.ErrHookFailed)
	}

	// Simulate the swap fee-free on the gross amount to see where the
	// balances would land.
	calculated, err := stable.New(state.Amp).OnSwap(p)
	if err != nil {
		return nil, err
	}

	newBalances := make([]*big.Int, len(p.BalancesLiveScaled18))
	for i, b := range p.BalancesLiveScaled18 {
		newBalances[i] = new(big.Int).Set(b)
	}
	if p.Kind == models.GivenIn {
		newBalances[p.IndexIn].Add(newBalances[p.IndexIn], p.AmountGivenScaled18)
		newBalances[p.IndexOut].Sub(newBalances[p.IndexOut], calculated)
	} else {
		newBalances[p.IndexIn].Add(newBalances[p.IndexIn], calculated)
		newBalances[p.IndexOut].Sub(newBalances[p.IndexOut], p.AmountGivenScaled18)
	}

	newImbalance := calculateImbalance(newBalances)
	if newImbalance.Sign() == 0 {
		return staticSwapFee, nil
	}
	oldImbalance := calculateImbalance(p.BalancesLiveScaled18)
	if newImbalance.Cmp(oldImbalance) <= 0 || newImbalance.Cmp(state.SurgeThresholdPercentage) <= 0 {
		return staticSwapFee, nil
	}

	// fee = static + (max - static) * (imbalance - threshold) / (1 - threshold)
	surge := fixedpoint.MulDown(
		new(big.Int).Sub(state.MaxSurgeFeePercentage, staticSwapFee),
		fixedpoint.DivDown(
			new(big.Int).Sub(newImbalance, state.SurgeThresholdPercentage),
			fixedpoint.Complement(state.SurgeThresholdPercentage),
		),
	)
	return new(big.Int).Add(staticSwapFee, surge), nil
}

// calculateImbalance measures the pool's distance from parity as the
// total absolute deviation from the median balance over the total
// balance.
func calculateImbalance(balances []*big.Int) *big.Int {
	median := findMedian(balances)

	totalBalance := new(big.Int)
	totalDiff := new(big.Int)
	for _, b := range balances {
		totalBalance.Add(totalBalance, b)
		diff := new(big.Int).Sub(b, median)
		totalDiff.Add(totalDiff, diff.Abs(diff))
	}
	if totalBalance.Sign() == 0 {
		return new(big.Int)
	}
	return fixedpoint.DivDown(totalDiff, totalBalance)
}

func findMedian(balances []*big.Int) *big.Int {
	sorted := make([]*big.Int, len(balances))
	copy(sorted, balances)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) < 0 })

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	sum := new(big.Int).Add(sorted[mid-1], sorted[mid])
	return sum.Quo(sum, big.NewInt(2))
}
