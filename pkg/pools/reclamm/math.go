package reclamm

import (
	"fmt"
	"math/big"

	"quoter/pkg/fixedpoint"
	"quoter/pkg/models"
)

var (
	two    = big.NewInt(2)
	four   = big.NewInt(4)
	twoWad = new(big.Int).Mul(two, fixedpoint.WAD)
	oneE36 = new(big.Int).Mul(fixedpoint.WAD, fixedpoint.WAD)
)

// computeInvariant is the constant product over real plus virtual
// balances. The result is WAD-scaled like any other invariant.
func computeInvariant(balances []*big.Int, virtualA, virtualB *big.Int, rounding models.Rounding) *big.Int {
	totalA := new(big.Int).Add(balances[0], virtualA)
	totalB := new(big.Int).Add(balances[1], virtualB)
	if rounding == models.RoundUp {
		return fixedpoint.MulUp(totalA, totalB)
	}
	return fixedpoint.MulDown(totalA, totalB)
}

// computeOutGivenIn solves the constant product for the out amount. The
// pool can never pay out more than its real balance.
func computeOutGivenIn(balances []*big.Int, virtualA, virtualB *big.Int, indexIn, indexOut int, amountIn *big.Int) (*big.Int, error) {
	virtuals := [2]*big.Int{virtualA, virtualB}
	totalIn := new(big.Int).Add(balances[indexIn], virtuals[indexIn])
	totalOut := new(big.Int).Add(balances[indexOut], virtuals[indexOut])

	amountOut := fixedpoint.MulDivDown(totalOut, amountIn, new(big.Int).Add(totalIn, amountIn))
	if amountOut.Cmp(balances[indexOut]) > 0 {
		return nil, fmt.Errorf("%w: amount out exceeds pool balance", models.ErrInvalidInput)
	}
	return amountOut, nil
}

// computeInGivenOut solves the constant product for the in amount,
// rounding in the pool's favor.
func computeInGivenOut(balances []*big.Int, virtualA, virtualB *big.Int, indexIn, indexOut int, amountOut *big.Int) (*big.Int, error) {
	if amountOut.Cmp(balances[indexOut]) > 0 {
		return nil, fmt.Errorf("%w: amount out exceeds pool balance", models.ErrInvalidInput)
	}
	virtuals := [2]*big.Int{virtualA, virtualB}
	totalIn := new(big.Int).Add(balances[indexIn], virtuals[indexIn])
	totalOut := new(big.Int).Add(balances[indexOut], virtuals[indexOut])

	return fixedpoint.MulDivUp(totalIn, amountOut, new(big.Int).Sub(totalOut, amountOut)), nil
}

// computeCurrentVirtualBalances re-derives the virtual balances for the
// snapshot timestamp. Three regimes apply in priority order: an in-flight
// price ratio update recomputes both from the interpolated ratio, an
// out-of-range pool decays the overvalued side toward center, and an
// in-range pool keeps the stored values.
func computeCurrentVirtualBalances(
	balances []*big.Int,
	immutable models.ReClammImmutable,
	mutable models.ReClammMutable,
	centeredRoundUp bool,
) (virtualA, virtualB *big.Int, err error) {
	virtualA = mutable.LastVirtualBalances[0]
	virtualB = mutable.LastVirtualBalances[1]
	if mutable.LastTimestamp == mutable.CurrentTimestamp {
		return virtualA, virtualB, nil
	}

	prs := mutable.PriceRatioState
	centeredness, isAboveCenter := computeCenteredness(balances, virtualA, virtualB, centeredRoundUp)

	if mutable.CurrentTimestamp > prs.PriceRatioUpdateStartTime && mutable.LastTimestamp < prs.PriceRatioUpdateEndTime {
		fourthRoot, ferr := computeFourthRootPriceRatio(mutable.CurrentTimestamp, prs)
		if ferr != nil {
			return nil, nil, ferr
		}
		virtualA, virtualB, err = computeVirtualBalancesUpdatingPriceRatio(
			fourthRoot, balances, virtualA, virtualB, centeredness, isAboveCenter,
		)
		if err != nil {
			return nil, nil, err
		}
	} else if centeredness.Cmp(immutable.CenterednessMargin) < 0 {
		virtualA, virtualB, err = computeVirtualBalancesUpdatingPriceRange(
			balances, virtualA, virtualB, isAboveCenter,
			immutable.DailyPriceShiftBase,
			mutable.CurrentTimestamp, mutable.LastTimestamp,
		)
		if err != nil {
			return nil, nil, err
		}
	}
	return virtualA, virtualB, nil
}

// computeCenteredness measures how close the pool sits to its range
// center as the ratio of the smaller cross product to the larger, so the
// result is at most one WAD. The rounding direction is the only place
// the two pool generations differ.
func computeCenteredness(balances []*big.Int, virtualA, virtualB *big.Int, roundUp bool) (*big.Int, bool) {
	if balances[0].Sign() == 0 {
		return new(big.Int), false
	}
	if balances[1].Sign() == 0 {
		return new(big.Int), true
	}
	numerator := new(big.Int).Mul(balances[0], virtualB)
	denominator := new(big.Int).Mul(virtualA, balances[1])

	div := fixedpoint.DivDown
	if roundUp {
		div = fixedpoint.DivUp
	}
	if numerator.Cmp(denominator) <= 0 {
		return div(numerator, denominator), false
	}
	return div(denominator, numerator), true
}

// computeFourthRootPriceRatio interpolates the fourth root of the price
// ratio geometrically over the update window, clamping to the endpoints
// outside it.
func computeFourthRootPriceRatio(now uint64, prs models.PriceRatioState) (*big.Int, error) {
	if now <= prs.PriceRatioUpdateStartTime || prs.PriceRatioUpdateEndTime <= prs.PriceRatioUpdateStartTime {
		return prs.StartFourthRootPriceRatio, nil
	}
	if now >= prs.PriceRatioUpdateEndTime {
		return prs.EndFourthRootPriceRatio, nil
	}
	elapsed := new(big.Int).SetUint64(now - prs.PriceRatioUpdateStartTime)
	total := new(big.Int).SetUint64(prs.PriceRatioUpdateEndTime - prs.PriceRatioUpdateStartTime)
	exponent := fixedpoint.DivDown(elapsed, total)

	base := fixedpoint.DivDown(prs.EndFourthRootPriceRatio, prs.StartFourthRootPriceRatio)
	power := fixedpoint.PowDown(base, exponent)
	ratio := fixedpoint.MulDown(prs.StartFourthRootPriceRatio, power)
	if ratio.Cmp(fixedpoint.WAD) < 0 {
		ratio = new(big.Int).Set(fixedpoint.WAD)
	}
	return ratio, nil
}

// computeVirtualBalancesUpdatingPriceRatio rebuilds both virtual
// balances so the interpolated price ratio holds while centeredness is
// preserved. The undervalued side comes from the quadratic
//
//	Vu = Ru * (1 + C + sqrt(C*(C + 4*Q - 2) + 1)) / (2*(Q - 1))
//
// with Q the square root of the price ratio and C the centeredness; the
// overvalued side follows from the previous virtual balance ratio.
func computeVirtualBalancesUpdatingPriceRatio(
	fourthRootPriceRatio *big.Int,
	balances []*big.Int,
	lastVirtualA, lastVirtualB *big.Int,
	centeredness *big.Int,
	isAboveCenter bool,
) (*big.Int, *big.Int, error) {
	balanceUnder := balances[1]
	lastVirtualUnder, lastVirtualOver := lastVirtualB, lastVirtualA
	if isAboveCenter {
		balanceUnder = balances[0]
		lastVirtualUnder, lastVirtualOver = lastVirtualA, lastVirtualB
	}

	sqrtPriceRatio := fixedpoint.MulDown(fourthRootPriceRatio, fourthRootPriceRatio)
	if sqrtPriceRatio.Cmp(fixedpoint.WAD) <= 0 {
		return nil, nil, fmt.Errorf("%w: price ratio must exceed one", models.ErrInvalidInput)
	}

	// Raw integer math throughout to keep precision; the sqrt input is a
	// 36-decimal value so the root comes out WAD-scaled.
	inner := new(big.Int).Sub(new(big.Int).Mul(four, sqrtPriceRatio), twoWad)
	inner.Add(inner, centeredness)
	discriminant := new(big.Int).Add(new(big.Int).Mul(centeredness, inner), oneE36)
	root := new(big.Int).Sqrt(discriminant)

	numerator := new(big.Int).Mul(balanceUnder, new(big.Int).Add(new(big.Int).Add(fixedpoint.WAD, centeredness), root))
	denominator := new(big.Int).Mul(two, new(big.Int).Sub(sqrtPriceRatio, fixedpoint.WAD))
	virtualUnder := new(big.Int).Quo(numerator, denominator)

	virtualOver := new(big.Int).Quo(new(big.Int).Mul(virtualUnder, lastVirtualOver), lastVirtualUnder)

	if isAboveCenter {
		return virtualUnder, virtualOver, nil
	}
	return virtualOver, virtualUnder, nil
}

// computeVirtualBalancesUpdatingPriceRange decays the overvalued side's
// virtual balance by the daily price shift base for the elapsed time and
// re-derives the undervalued side so the pool's price ratio is kept.
func computeVirtualBalancesUpdatingPriceRange(
	balances []*big.Int,
	virtualA, virtualB *big.Int,
	isAboveCenter bool,
	dailyPriceShiftBase *big.Int,
	currentTimestamp, lastTimestamp uint64,
) (*big.Int, *big.Int, error) {
	sqrtPriceRatio, err := computeSqrtPriceRatio(balances, virtualA, virtualB)
	if err != nil {
		return nil, nil, err
	}

	balanceUnder, balanceOver := balances[1], balances[0]
	virtualOver := virtualA
	if isAboveCenter {
		balanceUnder, balanceOver = balances[0], balances[1]
		virtualOver = virtualB
	}

	elapsed := new(big.Int).SetUint64(currentTimestamp - lastTimestamp)
	decay := fixedpoint.PowDown(dailyPriceShiftBase, new(big.Int).Mul(elapsed, fixedpoint.WAD))
	virtualOver = fixedpoint.MulDown(virtualOver, decay)

	// Vu = (Ru * (Vo + Ro)) / ((sqrtPriceRatio - 1) * Vo - Ro)
	denominator := new(big.Int).Sub(
		fixedpoint.MulDown(new(big.Int).Sub(sqrtPriceRatio, fixedpoint.WAD), virtualOver),
		balanceOver,
	)
	if denominator.Sign() <= 0 {
		return nil, nil, fmt.Errorf("%w: degenerate price range", models.ErrInvalidInput)
	}
	virtualUnder := new(big.Int).Quo(
		new(big.Int).Mul(balanceUnder, new(big.Int).Add(virtualOver, balanceOver)),
		denominator,
	)

	if isAboveCenter {
		return virtualUnder, virtualOver, nil
	}
	return virtualOver, virtualUnder, nil
}

// computeSqrtPriceRatio returns sqrt(maxPrice / minPrice) WAD-scaled,
// where the price bounds follow from the invariant and the virtual
// balances.
func computeSqrtPriceRatio(balances []*big.Int, virtualA, virtualB *big.Int) (*big.Int, error) {
	invariant := computeInvariant(balances, virtualA, virtualB, models.RoundDown)
	if invariant.Sign() == 0 || virtualA.Sign() == 0 || virtualB.Sign() == 0 {
		return nil, fmt.Errorf("%w: empty pool", models.ErrInvalidInput)
	}
	minPrice := new(big.Int).Quo(new(big.Int).Mul(virtualB, virtualB), invariant)
	maxPrice := fixedpoint.DivDown(invariant, fixedpoint.MulDown(virtualA, virtualA))
	if minPrice.Sign() == 0 {
		return nil, fmt.Errorf("%w: empty pool", models.ErrInvalidInput)
	}
	priceRatio := fixedpoint.DivUp(maxPrice, minPrice)
	return new(big.Int).Sqrt(new(big.Int).Mul(priceRatio, fixedpoint.WAD)), nil
}
