// Package gyroeclp implements Gyroscope elliptic concentrated-liquidity
// pools: a two-token curve that is an ellipse in a rotated coordinate
// frame, concentrating liquidity between the price bounds alpha and
// beta.
package gyroeclp

import (
	"math/big"

	"quoter/pkg/models"
)

var (
	maxInvariantRatio = mustInt("5000000000000000000") // 500%
	minInvariantRatio = mustInt("600000000000000000")  // 60%
)

// Pool is an ECLP snapshot. The derived tau parameters arrive
// precomputed; the invariant is recomputed per call because it depends
// on the live balances.
type Pool struct {
	params  models.EclpParams
	derived models.EclpDerivedParams
}

func New(params models.EclpParams, derived models.EclpDerivedParams) *Pool {
	return &Pool{params: params, derived: derived}
}

func (p *Pool) MaximumInvariantRatio() *big.Int { return maxInvariantRatio }

func (p *Pool) MinimumInvariantRatio() *big.Int { return minInvariantRatio }

func (p *Pool) OnSwap(sp *models.PoolSwapParams) (*big.Int, error) {
	tokenInIsToken0 := sp.IndexIn == 0

	currentInvariant, invErr, err := calculateInvariantWithError(sp.BalancesLiveScaled18, &p.params, &p.derived)
	if err != nil {
		return nil, err
	}
	// Overestimate in x, underestimate in y; the swap solvers pick the
	// component that rounds against the trader.
	invariant := vector2{
		x: new(big.Int).Add(currentInvariant, new(big.Int).Mul(big2, invErr)),
		y: currentInvariant,
	}

	if sp.Kind == models.GivenIn {
		return calcOutGivenIn(sp.BalancesLiveScaled18, sp.AmountGivenScaled18, tokenInIsToken0, &p.params, &p.derived, invariant)
	}
	return calcInGivenOut(sp.BalancesLiveScaled18, sp.AmountGivenScaled18, tokenInIsToken0, &p.params, &p.derived, invariant)
}

func (p *Pool) ComputeInvariant(balances []*big.Int, rounding models.Rounding) (*big.Int, error) {
	currentInvariant, invErr, err := calculateInvariantWithError(balances, &p.params, &p.derived)
	if err != nil {
		return nil, err
	}
	if rounding == models.RoundUp {
		return new(big.Int).Add(currentInvariant, invErr), nil
	}
	return new(big.Int).Sub(currentInvariant, invErr), nil
}

func (p *Pool) ComputeBalance(balances []*big.Int, tokenIndex int, invariantRatio *big.Int) (*big.Int, error) {
	currentInvariant, invErr, err := calculateInvariantWithError(balances, &p.params, &p.derived)
	if err != nil {
		return nil, err
	}
	// The target invariant carries the scaled error band so the solved
	// balance stays conservative.
	invariant := vector2{
		x: mulUpFixed(new(big.Int).Add(currentInvariant, invErr), invariantRatio),
		y: mulDownFixed(new(big.Int).Sub(currentInvariant, invErr), invariantRatio),
	}
	if tokenIndex == 0 {
		return calcXGivenY(balances[1], &p.params, &p.derived, invariant), nil
	}
	return calcYGivenX(balances[0], &p.params, &p.derived, invariant), nil
}

// mulUpFixed and mulDownFixed are the unsigned WAD products; operands
// here are always non-negative.
func mulUpFixed(a, b *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	if product.Sign() == 0 {
		return product
	}
	product.Sub(product, one)
	product.Quo(product, oneNp)
	return product.Add(product, one)
}

func mulDownFixed(a, b *big.Int) *big.Int {
	return new(big.Int).Quo(new(big.Int).Mul(a, b), oneNp)
}
