// Package quantamm implements QuantAMM managed-weight pools: weighted
// product math over weights that drift linearly at per-second multiplier
// rates pushed by an off-chain strategy, with a per-swap trade size cap.
package quantamm

import (
	"fmt"
	"math/big"

	"quoter/pkg/fixedpoint"
	"quoter/pkg/models"
	"quoter/pkg/pools/weighted"
)

// Pool is a weighted curve whose weights are unpacked and interpolated
// from the strategy's packed update.
type Pool struct {
	maxTradeSizeRatio *big.Int
	weights           []*big.Int
	inner             *weighted.Pool
}

// New unpacks the weight/multiplier vectors and interpolates them to the
// snapshot's timestamp, capped at the strategy's interoperability time.
func New(numTokens int, immutable models.QuantAMMImmutable, mutable models.QuantAMMMutable) *Pool {
	weights := interpolatedWeights(numTokens, mutable)
	return &Pool{
		maxTradeSizeRatio: immutable.MaxTradeSizeRatio,
		weights:           weights,
		inner:             weighted.New(weights),
	}
}

// interpolatedWeights applies each token's per-second multiplier for the
// time elapsed since the last strategy update. Time past LastInteropTime
// does not accrue: beyond it the weights hold at their interop values.
func interpolatedWeights(numTokens int, mutable models.QuantAMMMutable) []*big.Int {
	multiplierTime := mutable.CurrentTimestamp
	if mutable.LastInteropTime < multiplierTime {
		multiplierTime = mutable.LastInteropTime
	}
	var elapsed uint64
	if multiplierTime > mutable.LastUpdateTime {
		elapsed = multiplierTime - mutable.LastUpdateTime
	}
	elapsedWad := new(big.Int).Mul(new(big.Int).SetUint64(elapsed), fixedpoint.WAD)

	weights := make([]*big.Int, numTokens)
	for i := 0; i < numTokens; i++ {
		weight, multiplier := unpack(i, mutable)
		// Multipliers are signed; the truncating product keeps the drift
		// biased toward zero in either direction.
		drift := fixedpoint.MulDown(multiplier, elapsedWad)
		weights[i] = new(big.Int).Add(weight, drift)
	}
	return weights
}

// unpack reads token i's weight and multiplier out of the packed arrays:
// each pack holds up to four weights followed by their four multipliers.
func unpack(i int, mutable models.QuantAMMMutable) (weight, multiplier *big.Int) {
	if i < 4 {
		pack := mutable.FirstFourWeightsAndMultipliers
		return pack[i], pack[i+len(pack)/2]
	}
	pack := mutable.SecondFourWeightsAndMultipliers
	return pack[i-4], pack[i-4+len(pack)/2]
}

func (p *Pool) MaximumInvariantRatio() *big.Int { return p.inner.MaximumInvariantRatio() }

func (p *Pool) MinimumInvariantRatio() *big.Int { return p.inner.MinimumInvariantRatio() }

func (p *Pool) OnSwap(sp *models.PoolSwapParams) (*big.Int, error) {
	balanceIn := sp.BalancesLiveScaled18[sp.IndexIn]
	balanceOut := sp.BalancesLiveScaled18[sp.IndexOut]

	if sp.Kind == models.GivenIn {
		if exceedsTradeSize(sp.AmountGivenScaled18, balanceIn, p.maxTradeSizeRatio) {
			return nil, fmt.Errorf("%w: amount in above max trade size ratio", models.ErrInvalidInput)
		}
	} else {
		if exceedsTradeSize(sp.AmountGivenScaled18, balanceOut, p.maxTradeSizeRatio) {
			return nil, fmt.Errorf("%w: amount out above max trade size ratio", models.ErrInvalidInput)
		}
	}

	calculated, err := p.inner.OnSwap(sp)
	if err != nil {
		return nil, err
	}

	// The computed side is capped too, so neither leg of a swap can move
	// more than the configured fraction of its balance.
	if sp.Kind == models.GivenIn {
		if exceedsTradeSize(calculated, balanceOut, p.maxTradeSizeRatio) {
			return nil, fmt.Errorf("%w: amount out above max trade size ratio", models.ErrInvalidInput)
		}
	} else {
		if exceedsTradeSize(calculated, balanceIn, p.maxTradeSizeRatio) {
			return nil, fmt.Errorf("%w: amount in above max trade size ratio", models.ErrInvalidInput)
		}
	}
	return calculated, nil
}

func exceedsTradeSize(amount, balance, maxRatio *big.Int) bool {
	return amount.Cmp(fixedpoint.MulDown(balance, maxRatio)) > 0
}

func (p *Pool) ComputeInvariant(balances []*big.Int, rounding models.Rounding) (*big.Int, error) {
	return weighted.ComputeInvariant(p.weights, balances, rounding)
}

func (p *Pool) ComputeBalance(balances []*big.Int, tokenIndex int, invariantRatio *big.Int) (*big.Int, error) {
	return weighted.ComputeBalanceOutGivenInvariant(balances[tokenIndex], p.weights[tokenIndex], invariantRatio), nil
}
