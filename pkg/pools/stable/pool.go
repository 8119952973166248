package stable

import (
	"math/big"

	"quoter/pkg/fixedpoint"
	"quoter/pkg/models"
)

// Pool is the StableSwap curve at a fixed amplification parameter.
type Pool struct {
	amp *big.Int
}

// New builds a stable pool. amp carries AmpPrecision decimals.
func New(amp *big.Int) *Pool {
	return &Pool{amp: amp}
}

func (p *Pool) MaximumInvariantRatio() *big.Int { return maxInvariantRatio }

func (p *Pool) MinimumInvariantRatio() *big.Int { return minInvariantRatio }

func (p *Pool) OnSwap(sp *models.PoolSwapParams) (*big.Int, error) {
	invariant, err := ComputeInvariant(p.amp, sp.BalancesLiveScaled18)
	if err != nil {
		return nil, err
	}
	if sp.Kind == models.GivenIn {
		return ComputeOutGivenExactIn(p.amp, sp.BalancesLiveScaled18, sp.IndexIn, sp.IndexOut, sp.AmountGivenScaled18, invariant)
	}
	return ComputeInGivenExactOut(p.amp, sp.BalancesLiveScaled18, sp.IndexIn, sp.IndexOut, sp.AmountGivenScaled18, invariant)
}

func (p *Pool) ComputeInvariant(balances []*big.Int, rounding models.Rounding) (*big.Int, error) {
	invariant, err := ComputeInvariant(p.amp, balances)
	if err != nil {
		return nil, err
	}
	if rounding == models.RoundUp && invariant.Sign() > 0 {
		invariant.Add(invariant, oneWei)
	}
	return invariant, nil
}

func (p *Pool) ComputeBalance(balances []*big.Int, tokenIndex int, invariantRatio *big.Int) (*big.Int, error) {
	invariant, err := ComputeInvariant(p.amp, balances)
	if err != nil {
		return nil, err
	}
	// Scale the invariant to the target ratio, rounding up, then solve
	// for the one balance that produces it.
	return ComputeBalance(p.amp, balances, fixedpoint.MulUp(invariant, invariantRatio), tokenIndex)
}
