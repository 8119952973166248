// Package pools defines the polymorphic curve contract every pool
// variant implements, and the dispatch from a pool-state snapshot to its
// implementation. The vault selects a variant purely on the poolType
// discriminator.
package pools

import (
	"fmt"
	"math/big"

	"quoter/pkg/models"
	"quoter/pkg/pools/gyroeclp"
	"quoter/pkg/pools/lbp"
	"quoter/pkg/pools/quantamm"
	"quoter/pkg/pools/reclamm"
	"quoter/pkg/pools/stable"
	"quoter/pkg/pools/weighted"
)

// Pool is the curve contract: invariant math, swap math and the inverse
// balance solve used by single-token liquidity operations. All amounts
// are 18-decimal scaled; rounding follows the pool-favoring convention
// (amounts out round down, amounts in round up).
type Pool interface {
	// MaximumInvariantRatio bounds how much the invariant may grow in a
	// single unbalanced operation.
	MaximumInvariantRatio() *big.Int

	// MinimumInvariantRatio bounds how much the invariant may shrink in
	// a single unbalanced operation.
	MinimumInvariantRatio() *big.Int

	// OnSwap solves the curve equation for the amount out (GivenIn) or
	// the amount in (GivenOut), holding the invariant constant.
	OnSwap(p *models.PoolSwapParams) (*big.Int, error)

	// ComputeInvariant evaluates the curve's aggregate function of the
	// balances, rounded in the requested direction.
	ComputeInvariant(balancesScaled18 []*big.Int, rounding models.Rounding) (*big.Int, error)

	// ComputeBalance returns the new balance of one token that brings
	// the invariant to invariantRatio times its current value.
	ComputeBalance(balancesScaled18 []*big.Int, tokenIndex int, invariantRatio *big.Int) (*big.Int, error)
}

// New builds the curve implementation for a snapshot. The poolType
// discriminator alone decides the variant; a mismatch between the
// discriminator and the concrete snapshot type is an input error.
func New(state models.View) (Pool, error) {
	base := state.Base()
	switch base.PoolType {
	case models.PoolTypeWeighted:
		s, ok := state.(*models.WeightedState)
		if !ok {
			return nil, fmt.Errorf("%w: %s snapshot is not a weighted state", models.ErrInvalidInput, base.PoolType)
		}
		return weighted.New(s.Weights), nil
	case models.PoolTypeStable:
		s, ok := state.(*models.StableState)
		if !ok {
			return nil, fmt.Errorf("%w: %s snapshot is not a stable state", models.ErrInvalidInput, base.PoolType)
		}
		return stable.New(s.Amp), nil
	case models.PoolTypeGyroECLP:
		s, ok := state.(*models.GyroECLPState)
		if !ok {
			return nil, fmt.Errorf("%w: %s snapshot is not an ECLP state", models.ErrInvalidInput, base.PoolType)
		}
		return gyroeclp.New(s.Params, s.Derived), nil
	case models.PoolTypeLiquidityBootstrapping:
		s, ok := state.(*models.LiquidityBootstrappingState)
		if !ok {
			return nil, fmt.Errorf("%w: %s snapshot is not an LBP state", models.ErrInvalidInput, base.PoolType)
		}
		return lbp.New(s.Immutable, s.Mutable), nil
	case models.PoolTypeReClamm, models.PoolTypeReClammV2:
		s, ok := state.(*models.ReClammState)
		if !ok {
			return nil, fmt.Errorf("%w: %s snapshot is not a ReClamm state", models.ErrInvalidInput, base.PoolType)
		}
		return reclamm.New(s), nil
	case models.PoolTypeQuantAMMWeighted:
		s, ok := state.(*models.QuantAMMWeightedState)
		if !ok {
			return nil, fmt.Errorf("%w: %s snapshot is not a QuantAMM state", models.ErrInvalidInput, base.PoolType)
		}
		return quantamm.New(len(base.Tokens), s.Immutable, s.Mutable), nil
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedPoolType, base.PoolType)
	}
}
