// Package reclamm implements readjusting concentrated-liquidity pools:
// a two-token constant product over real plus virtual balances, where
// the virtual balances track the configured price range and drift back
// toward center whenever the pool trades outside it. Liquidity can only
// be added or removed proportionally.
package reclamm

import (
	"fmt"
	"math/big"

	"quoter/pkg/fixedpoint"
	"quoter/pkg/models"
)

// Pool is a readjusting concentrated-liquidity pool snapshot with its
// virtual balances already rolled forward to the current timestamp.
type Pool struct {
	virtualA *big.Int
	virtualB *big.Int
	initErr  error
}

// New rolls the stored virtual balances forward to the snapshot
// timestamp. The second generation of the pool rounds centeredness up
// instead of down; everything else is shared.
func New(state *models.ReClammState) *Pool {
	roundUp := state.PoolType == models.PoolTypeReClammV2
	virtualA, virtualB, err := computeCurrentVirtualBalances(
		state.BalancesLiveScaled18, state.Immutable, state.Mutable, roundUp,
	)
	return &Pool{virtualA: virtualA, virtualB: virtualB, initErr: err}
}

// Invariant ratio bounds are both one: the pool only supports
// proportional liquidity, so the vault never changes the invariant
// through a non-proportional path.
func (p *Pool) MaximumInvariantRatio() *big.Int { return fixedpoint.WAD }

func (p *Pool) MinimumInvariantRatio() *big.Int { return fixedpoint.WAD }

func (p *Pool) OnSwap(sp *models.PoolSwapParams) (*big.Int, error) {
	if p.initErr != nil {
		return nil, p.initErr
	}
	if sp.Kind == models.GivenIn {
		return computeOutGivenIn(sp.BalancesLiveScaled18, p.virtualA, p.virtualB, sp.IndexIn, sp.IndexOut, sp.AmountGivenScaled18)
	}
	return computeInGivenOut(sp.BalancesLiveScaled18, p.virtualA, p.virtualB, sp.IndexIn, sp.IndexOut, sp.AmountGivenScaled18)
}

func (p *Pool) ComputeInvariant(balances []*big.Int, rounding models.Rounding) (*big.Int, error) {
	if p.initErr != nil {
		return nil, p.initErr
	}
	return computeInvariant(balances, p.virtualA, p.virtualB, rounding), nil
}

// ComputeBalance has no solution that preserves the price range, so the
// pool rejects every non-proportional liquidity operation.
func (p *Pool) ComputeBalance([]*big.Int, int, *big.Int) (*big.Int, error) {
	return nil, fmt.Errorf("%w: pool supports proportional liquidity only", models.ErrInvalidOperationForPool)
}
