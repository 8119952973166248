package weighted

import (
	"math/big"

	"quoter/pkg/models"
)

// Pool is the weighted-product curve over a fixed weight vector.
type Pool struct {
	weights []*big.Int
}

// New builds a weighted pool from WAD-normalized weights.
func New(weights []*big.Int) *Pool {
	return &Pool{weights: weights}
}

func (p *Pool) MaximumInvariantRatio() *big.Int { return maxInvariantRatio }

func (p *Pool) MinimumInvariantRatio() *big.Int { return minInvariantRatio }

func (p *Pool) OnSwap(sp *models.PoolSwapParams) (*big.Int, error) {
	balanceIn := sp.BalancesLiveScaled18[sp.IndexIn]
	balanceOut := sp.BalancesLiveScaled18[sp.IndexOut]
	weightIn := p.weights[sp.IndexIn]
	weightOut := p.weights[sp.IndexOut]
	if sp.Kind == models.GivenIn {
		return ComputeOutGivenExactIn(balanceIn, weightIn, balanceOut, weightOut, sp.AmountGivenScaled18)
	}
	return ComputeInGivenExactOut(balanceIn, weightIn, balanceOut, weightOut, sp.AmountGivenScaled18)
}

func (p *Pool) ComputeInvariant(balances []*big.Int, rounding models.Rounding) (*big.Int, error) {
	return ComputeInvariant(p.weights, balances, rounding)
}

func (p *Pool) ComputeBalance(balances []*big.Int, tokenIndex int, invariantRatio *big.Int) (*big.Int, error) {
	return ComputeBalanceOutGivenInvariant(balances[tokenIndex], p.weights[tokenIndex], invariantRatio), nil
}
