// Package lbp implements liquidity-bootstrapping pools: weighted-product
// math over a weight vector that shifts linearly from a start to an end
// schedule. Effective weights are a pure function of the snapshot's
// current timestamp and are never persisted.
package lbp

import (
	"fmt"
	"math/big"

	"quoter/pkg/fixedpoint"
	"quoter/pkg/models"
	"quoter/pkg/pools/weighted"
)

// Pool is a weighted curve under a gradual weight schedule with swap
// gating.
type Pool struct {
	immutable models.LBPImmutable
	mutable   models.LBPMutable
	weights   []*big.Int
	inner     *weighted.Pool
}

// New builds an LBP; the effective weights are fixed for the lifetime of
// the snapshot since the current timestamp is.
func New(immutable models.LBPImmutable, mutable models.LBPMutable) *Pool {
	weights := NormalizedWeights(immutable, mutable.CurrentTimestamp)
	return &Pool{
		immutable: immutable,
		mutable:   mutable,
		weights:   weights,
		inner:     weighted.New(weights),
	}
}

// NormalizedWeights interpolates each token's weight linearly over
// [StartTime, EndTime], clamping to the boundary vectors outside the
// window.
func NormalizedWeights(immutable models.LBPImmutable, now uint64) []*big.Int {
	if now <= immutable.StartTime {
		return immutable.StartWeights
	}
	if now >= immutable.EndTime {
		return immutable.EndWeights
	}
	elapsed := new(big.Int).SetUint64(now - immutable.StartTime)
	total := new(big.Int).SetUint64(immutable.EndTime - immutable.StartTime)
	pct := fixedpoint.DivDown(elapsed, total)

	weights := make([]*big.Int, len(immutable.StartWeights))
	for i, start := range immutable.StartWeights {
		end := immutable.EndWeights[i]
		if end.Cmp(start) >= 0 {
			delta := new(big.Int).Sub(end, start)
			weights[i] = new(big.Int).Add(start, fixedpoint.MulDown(pct, delta))
		} else {
			delta := new(big.Int).Sub(start, end)
			weights[i] = new(big.Int).Sub(start, fixedpoint.MulDown(pct, delta))
		}
	}
	return weights
}

func (p *Pool) MaximumInvariantRatio() *big.Int { return p.inner.MaximumInvariantRatio() }

func (p *Pool) MinimumInvariantRatio() *big.Int { return p.inner.MinimumInvariantRatio() }

func (p *Pool) OnSwap(sp *models.PoolSwapParams) (*big.Int, error) {
	if !p.mutable.IsSwapEnabled {
		return nil, fmt.Errorf("%w: swaps are disabled", models.ErrInvalidOperationForPool)
	}
	if p.immutable.IsProjectTokenSwapInBlocked && sp.IndexIn == p.immutable.ProjectTokenIndex {
		return nil, fmt.Errorf("%w: project token cannot be swapped in", models.ErrInvalidOperationForPool)
	}
	return p.inner.OnSwap(sp)
}

func (p *Pool) ComputeInvariant(balances []*big.Int, rounding models.Rounding) (*big.Int, error) {
	return weighted.ComputeInvariant(p.weights, balances, rounding)
}

func (p *Pool) ComputeBalance(balances []*big.Int, tokenIndex int, invariantRatio *big.Int) (*big.Int, error) {
	return weighted.ComputeBalanceOutGivenInvariant(balances[tokenIndex], p.weights[tokenIndex], invariantRatio), nil
}
