package gyroeclp

import (
	"fmt"
	"math/big"

	"quoter/pkg/models"
)

// The curve works in a rotated and stretched coordinate frame. Normal
// precision values carry 18 decimals, the derived tau parameters carry
// 38, and every term rounds in the direction that favors the pool. Small
// constant offsets (+1, +3, +7) absorb the worst-case rounding error of
// the preceding operations.
var (
	maxBalancesSum = mustInt("10000000000000000000000000000000000")  // 1e34
	maxInvariant   = mustInt("30000000000000000000000000000000000000") // 3e37
	big2           = big.NewInt(2)
	big7           = big.NewInt(7)
	big9           = big.NewInt(9)
	big20          = big.NewInt(20)
	big40          = big.NewInt(40)
	oneE9          = big.NewInt(1_000_000_000)
	oneE36         = new(big.Int).Mul(oneNp, oneNp)
)

func mustInt(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("gyroeclp: bad constant " + s)
	}
	return v
}

// vector2 is a two-component signed value; for the invariant it holds
// the overestimate in x and the underestimate in y.
type vector2 struct {
	x *big.Int
	y *big.Int
}

func tauBeta(d *models.EclpDerivedParams) vector2 { return vector2{d.TauBetaX, d.TauBetaY} }

// calculateInvariantWithError computes the invariant and a bound on its
// absolute error. Callers derive rounded-up and rounded-down invariants
// from the pair.
func calculateInvariantWithError(balances []*big.Int, p *models.EclpParams, d *models.EclpDerivedParams) (*big.Int, *big.Int, error) {
	x, y := balances[0], balances[1]
	if new(big.Int).Add(x, y).Cmp(maxBalancesSum) > 0 {
		return nil, nil, fmt.Errorf("%w: balances above curve limit", models.ErrInvalidInput)
	}

	atAChi := calcAtAChi(x, y, p, d)
	sqrt, errValue := calcInvariantSqrt(x, y, p, d)
	if sqrt.Sign() > 0 {
		errValue = divUpMag(new(big.Int).Add(errValue, one), new(big.Int).Mul(big2, sqrt))
	} else if errValue.Sign() > 0 {
		errValue = sqrtNp(errValue)
	} else {
		errValue = new(big.Int).Set(oneE9)
	}
	// Error in the numerator, scaled by 20 to cover every term.
	errValue = new(big.Int).Mul(
		new(big.Int).Add(new(big.Int).Add(new(big.Int).Quo(mulUpMag(p.Lambda, new(big.Int).Add(x, y)), oneXp), errValue), one),
		big20,
	)

	achiachi := calcAChiAChiInXp(p, d)
	mulDenominator := divXp(oneXp, new(big.Int).Sub(achiachi, oneXp))
	invariant := mulDownXpToNp(new(big.Int).Sub(new(big.Int).Add(atAChi, sqrt), errValue), mulDenominator)

	errValue = mulUpXpToNp(errValue, mulDenominator)
	lambdaSq := new(big.Int).Quo(new(big.Int).Mul(p.Lambda, p.Lambda), oneE36)
	scaleTerm := new(big.Int).Mul(new(big.Int).Mul(mulUpXpToNp(invariant, mulDenominator), lambdaSq), big40)
	errValue = new(big.Int).Add(errValue, new(big.Int).Add(new(big.Int).Quo(scaleTerm, oneXp), one))

	if new(big.Int).Add(invariant, errValue).Cmp(maxInvariant) > 0 {
		return nil, nil, fmt.Errorf("%w: invariant above curve limit", models.ErrInvalidInput)
	}
	return invariant, errValue, nil
}

// calcAtAChi computes A t(A chi), the linear part of the quadratic the
// invariant solves.
func calcAtAChi(x, y *big.Int, p *models.EclpParams, d *models.EclpDerivedParams) *big.Int {
	dSq2 := mulXp(d.DSq, d.DSq)

	// (cx - sy) * (w/lambda + z) / lambda
	termXp := divXp(new(big.Int).Add(divDownMag(divDownMag(d.W, p.Lambda), p.Lambda), d.Z), dSq2)
	val := mulDownXpToNp(new(big.Int).Sub(mulDownMag(x, p.C), mulDownMag(y, p.S)), termXp)

	// (x lambda s + y lambda c) * u
	termNp := new(big.Int).Add(mulDownMag(mulDownMag(x, p.Lambda), p.S), mulDownMag(mulDownMag(y, p.Lambda), p.C))
	val.Add(val, mulDownXpToNp(termNp, divXp(d.U, dSq2)))

	// (sx + cy) * v
	termNp = new(big.Int).Add(mulDownMag(x, p.S), mulDownMag(y, p.C))
	val.Add(val, mulDownXpToNp(termNp, divXp(d.V, dSq2)))
	return val
}

// calcAChiAChiInXp computes |A chi|^2 at extra precision.
func calcAChiAChiInXp(p *models.EclpParams, d *models.EclpDerivedParams) *big.Int {
	dSq3 := mulXp(mulXp(d.DSq, d.DSq), d.DSq)

	val := mulUpMag(p.Lambda, divXp(mulXp(new(big.Int).Mul(big2, d.U), d.V), dSq3))
	val.Add(val, mulUpMag(mulUpMag(divXp(mulXp(new(big.Int).Add(d.U, one), new(big.Int).Add(d.U, one)), dSq3), p.Lambda), p.Lambda))
	val.Add(val, divXp(mulXp(d.V, d.V), dSq3))

	termXp := new(big.Int).Add(divDownMag(d.W, p.Lambda), d.Z)
	val.Add(val, divXp(mulXp(termXp, termXp), dSq3))
	return val
}

// calcInvariantSqrt computes the square root part of the invariant along
// with the error of the radicand.
func calcInvariantSqrt(x, y *big.Int, p *models.EclpParams, d *models.EclpDerivedParams) (*big.Int, *big.Int) {
	val := calcMinAtxAChiySqPlusAtxSq(x, y, p, d)
	val.Add(val, calc2AtxAtyAChixAChiy(x, y, p, d))
	val.Add(val, calcMinAtyAChixSqPlusAtySq(x, y, p, d))

	errValue := new(big.Int).Quo(new(big.Int).Add(mulUpMag(x, x), mulUpMag(y, y)), oneXp)
	if val.Sign() > 0 {
		val = sqrtNp(val)
	} else {
		val = new(big.Int)
	}
	return val, errValue
}

func calcMinAtxAChiySqPlusAtxSq(x, y *big.Int, p *models.EclpParams, d *models.EclpDerivedParams) *big.Int {
	termNp := new(big.Int).Add(
		mulUpMag(mulUpMag(mulUpMag(x, x), p.C), p.C),
		mulUpMag(mulUpMag(mulUpMag(y, y), p.S), p.S),
	)
	termNp.Sub(termNp, mulDownMag(mulDownMag(mulDownMag(x, y), new(big.Int).Mul(big2, p.C)), p.S))

	termXp := new(big.Int).Add(mulXp(d.U, d.U), divDownMag(mulXp(new(big.Int).Mul(big2, d.U), d.V), p.Lambda))
	termXp.Add(termXp, divDownMag(divDownMag(mulXp(d.V, d.V), p.Lambda), p.Lambda))
	termXp = divXp(termXp, dSqPow4(d))

	val := mulDownXpToNp(new(big.Int).Neg(termNp), termXp)
	val.Add(val, mulDownXpToNp(
		divDownMag(divDownMag(new(big.Int).Sub(termNp, big9), p.Lambda), p.Lambda),
		divXp(oneXp, d.DSq),
	))
	return val
}

func calc2AtxAtyAChixAChiy(x, y *big.Int, p *models.EclpParams, d *models.EclpDerivedParams) *big.Int {
	termNp := mulDownMag(mulDownMag(
		new(big.Int).Sub(mulDownMag(x, x), mulUpMag(y, y)),
		new(big.Int).Mul(big2, p.C)), p.S)
	xy := mulDownMag(y, new(big.Int).Mul(big2, x))
	termNp.Add(termNp, mulDownMag(mulDownMag(xy, p.C), p.C))
	termNp.Sub(termNp, mulDownMag(mulDownMag(xy, p.S), p.S))

	termXp := new(big.Int).Add(mulXp(d.Z, d.U), divDownMag(divDownMag(mulXp(d.W, d.V), p.Lambda), p.Lambda))
	termXp.Add(termXp, divDownMag(new(big.Int).Add(mulXp(d.W, d.U), mulXp(d.Z, d.V)), p.Lambda))
	termXp = divXp(termXp, dSqPow4(d))

	return mulDownXpToNp(termNp, termXp)
}

func calcMinAtyAChixSqPlusAtySq(x, y *big.Int, p *models.EclpParams, d *models.EclpDerivedParams) *big.Int {
	termNp := new(big.Int).Add(
		mulUpMag(mulUpMag(mulUpMag(x, x), p.S), p.S),
		mulUpMag(mulUpMag(mulUpMag(y, y), p.C), p.C),
	)
	termNp.Add(termNp, mulUpMag(mulUpMag(mulUpMag(x, y), new(big.Int).Mul(big2, p.S)), p.C))

	termXp := new(big.Int).Add(mulXp(d.Z, d.Z), divDownMag(divDownMag(mulXp(d.W, d.W), p.Lambda), p.Lambda))
	termXp.Add(termXp, divDownMag(mulXp(new(big.Int).Mul(big2, d.Z), d.W), p.Lambda))
	termXp = divXp(termXp, dSqPow4(d))

	val := mulDownXpToNp(new(big.Int).Neg(termNp), termXp)
	val.Add(val, mulDownXpToNp(new(big.Int).Sub(termNp, big9), divXp(oneXp, d.DSq)))
	return val
}

func dSqPow4(d *models.EclpDerivedParams) *big.Int {
	dSq2 := mulXp(d.DSq, d.DSq)
	return mulXp(dSq2, dSq2)
}

// virtualOffset0 is the x offset a of the untranslated ellipse; the
// invariant overestimate is used whenever the term increases the offset.
func virtualOffset0(p *models.EclpParams, d *models.EclpDerivedParams, r vector2) *big.Int {
	termXp := divXp(d.TauBetaX, d.DSq)
	var a *big.Int
	if d.TauBetaX.Sign() > 0 {
		a = mulUpXpToNp(mulUpMag(mulUpMag(r.x, p.Lambda), p.C), termXp)
	} else {
		a = mulUpXpToNp(mulDownMag(mulDownMag(r.y, p.Lambda), p.C), termXp)
	}
	return a.Add(a, mulUpXpToNp(mulUpMag(r.x, p.S), divXp(d.TauBetaY, d.DSq)))
}

// virtualOffset1 is the y offset b of the untranslated ellipse.
func virtualOffset1(p *models.EclpParams, d *models.EclpDerivedParams, r vector2) *big.Int {
	termXp := divXp(d.TauAlphaX, d.DSq)
	var b *big.Int
	if d.TauAlphaX.Sign() < 0 {
		b = mulUpXpToNp(mulUpMag(mulUpMag(r.x, p.Lambda), p.S), new(big.Int).Neg(termXp))
	} else {
		b = mulUpXpToNp(mulDownMag(mulDownMag(new(big.Int).Neg(r.y), p.Lambda), p.S), termXp)
	}
	return b.Add(b, mulUpXpToNp(mulUpMag(r.x, p.C), divXp(d.TauAlphaY, d.DSq)))
}

// maxBalances0 is the largest x balance the curve admits at the given
// invariant.
func maxBalances0(p *models.EclpParams, d *models.EclpDerivedParams, r vector2) *big.Int {
	termXp1 := divXp(new(big.Int).Sub(d.TauBetaX, d.TauAlphaX), d.DSq)
	termXp2 := divXp(new(big.Int).Sub(d.TauBetaY, d.TauAlphaY), d.DSq)

	xp := mulDownXpToNp(mulDownMag(mulDownMag(r.y, p.Lambda), p.C), termXp1)
	var term2 *big.Int
	if termXp2.Sign() > 0 {
		term2 = mulDownMag(r.y, p.S)
	} else {
		term2 = mulUpMag(r.x, p.S)
	}
	return xp.Add(xp, mulDownXpToNp(term2, termXp2))
}

// maxBalances1 is the largest y balance the curve admits at the given
// invariant.
func maxBalances1(p *models.EclpParams, d *models.EclpDerivedParams, r vector2) *big.Int {
	termXp1 := divXp(new(big.Int).Sub(d.TauBetaX, d.TauAlphaX), d.DSq)
	termXp2 := divXp(new(big.Int).Sub(d.TauAlphaY, d.TauBetaY), d.DSq)

	yp := mulDownXpToNp(mulDownMag(mulDownMag(r.y, p.Lambda), p.S), termXp1)
	var term2 *big.Int
	if termXp2.Sign() > 0 {
		term2 = mulDownMag(r.y, p.C)
	} else {
		term2 = mulUpMag(r.x, p.C)
	}
	return yp.Add(yp, mulDownXpToNp(term2, termXp2))
}

// calcYGivenX solves the curve for the y balance at a given x balance
// and invariant.
func calcYGivenX(x *big.Int, p *models.EclpParams, d *models.EclpDerivedParams, r vector2) *big.Int {
	ab := vector2{virtualOffset0(p, d, r), virtualOffset1(p, d, r)}
	return solveQuadraticSwap(p.Lambda, x, p.S, p.C, r, ab, tauBeta(d), d.DSq)
}

// calcXGivenY solves the curve for the x balance; by symmetry it is the
// y problem with s and c swapped and tau reflected.
func calcXGivenY(y *big.Int, p *models.EclpParams, d *models.EclpDerivedParams, r vector2) *big.Int {
	ba := vector2{virtualOffset1(p, d, r), virtualOffset0(p, d, r)}
	tau := vector2{new(big.Int).Neg(d.TauAlphaX), d.TauAlphaY}
	return solveQuadraticSwap(p.Lambda, y, p.C, p.S, r, ba, tau, d.DSq)
}

// solveQuadraticSwap computes the smaller root of the swap quadratic,
// rounding every term so the returned balance is an underestimate.
func solveQuadraticSwap(lambda, x, s, c *big.Int, r vector2, ab vector2, tau vector2, dSq *big.Int) *big.Int {
	lamBar := vector2{
		x: new(big.Int).Sub(oneXp, divDownMag(divDownMag(oneXp, lambda), lambda)),
		y: new(big.Int).Sub(oneXp, divUpMag(divUpMag(oneXp, lambda), lambda)),
	}

	var qb *big.Int
	xp := new(big.Int).Sub(x, ab.x)
	if xp.Sign() > 0 {
		qb = mulUpXpToNp(mulDownMag(mulDownMag(new(big.Int).Neg(xp), s), c), divXp(lamBar.y, dSq))
	} else {
		qb = mulUpXpToNp(mulUpMag(mulUpMag(new(big.Int).Neg(xp), s), c), new(big.Int).Add(divXp(lamBar.x, dSq), one))
	}

	sTerm := vector2{
		x: divXp(mulDownMag(mulDownMag(lamBar.y, s), s), dSq),
		y: new(big.Int).Add(divXp(mulUpMag(mulUpMag(lamBar.x, s), s), new(big.Int).Add(dSq, one)), one),
	}
	sTerm.x = new(big.Int).Sub(oneXp, sTerm.x)
	sTerm.y = new(big.Int).Sub(oneXp, sTerm.y)

	qc := new(big.Int).Neg(calcXpXpDivLambdaLambda(x, r, lambda, s, c, tau, dSq))
	qc.Add(qc, mulDownXpToNp(mulDownMag(r.y, r.y), sTerm.y))
	if qc.Sign() > 0 {
		qc = sqrtNp(qc)
	} else {
		qc = new(big.Int)
	}

	qbc := new(big.Int).Sub(qb, qc)
	var qa *big.Int
	if qbc.Sign() > 0 {
		qa = mulUpXpToNp(qbc, new(big.Int).Add(divXp(oneXp, sTerm.y), one))
	} else {
		qa = mulUpXpToNp(qbc, divXp(oneXp, sTerm.x))
	}
	return qa.Add(qa, ab.y)
}

// calcXpXpDivLambdaLambda computes (x - a)^2 / lambda^2 with directed
// rounding on every term.
func calcXpXpDivLambdaLambda(x *big.Int, r vector2, lambda, s, c *big.Int, tau vector2, dSq *big.Int) *big.Int {
	// dSq is a 38-decimal constant but r.x is an 18-decimal magnitude,
	// so the two squares use different product scales.
	sqVars := vector2{mulXp(dSq, dSq), mulUpMag(r.x, r.x)}

	var qa *big.Int
	termXp := divXp(mulXp(tau.x, tau.y), sqVars.x)
	if termXp.Sign() > 0 {
		qa = mulUpMag(sqVars.y, new(big.Int).Mul(big2, s))
		qa = mulUpXpToNp(mulUpMag(qa, c), new(big.Int).Add(termXp, big7))
	} else {
		qa = mulDownMag(mulDownMag(r.y, r.y), new(big.Int).Mul(big2, s))
		qa = mulUpXpToNp(mulDownMag(qa, c), termXp)
	}

	var qb *big.Int
	if tau.x.Sign() < 0 {
		qb = mulUpXpToNp(mulUpMag(mulUpMag(r.x, x), new(big.Int).Mul(big2, c)), new(big.Int).Add(new(big.Int).Neg(divXp(tau.x, dSq)), big.NewInt(3)))
	} else {
		qb = mulUpXpToNp(mulDownMag(mulDownMag(new(big.Int).Neg(r.y), x), new(big.Int).Mul(big2, c)), divXp(tau.x, dSq))
	}
	qa.Add(qa, qb)

	termXp = new(big.Int).Add(divXp(mulXp(tau.y, tau.y), sqVars.x), big7)
	qb = mulUpMag(sqVars.y, s)
	qb = mulUpXpToNp(mulUpMag(qb, s), termXp)

	qc := mulUpXpToNp(mulDownMag(mulDownMag(new(big.Int).Neg(r.y), x), new(big.Int).Mul(big2, s)), divXp(tau.y, dSq))
	qb.Add(qb, qc)
	qb.Add(qb, mulUpMag(x, x))
	if qb.Sign() > 0 {
		qb = divUpMag(qb, lambda)
	} else {
		qb = divDownMag(qb, lambda)
	}

	qa.Add(qa, qb)
	if qa.Sign() > 0 {
		qa = divUpMag(qa, lambda)
	} else {
		qa = divDownMag(qa, lambda)
	}

	termXp = new(big.Int).Add(divXp(mulXp(tau.x, tau.x), sqVars.x), big7)
	val := mulUpMag(mulUpMag(sqVars.y, c), c)
	return new(big.Int).Add(mulUpXpToNp(val, termXp), qa)
}

// calcOutGivenIn computes the out amount; the in-side balance must stay
// inside the curve's admissible region.
func calcOutGivenIn(balances []*big.Int, amountIn *big.Int, tokenInIsToken0 bool, p *models.EclpParams, d *models.EclpDerivedParams, invariant vector2) (*big.Int, error) {
	indexIn, indexOut := 0, 1
	calcGiven, maxBalance := calcYGivenX, maxBalances0
	if !tokenInIsToken0 {
		indexIn, indexOut = 1, 0
		calcGiven, maxBalance = calcXGivenY, maxBalances1
	}

	balInNew := new(big.Int).Add(balances[indexIn], amountIn)
	if balInNew.Cmp(maxBalance(p, d, invariant)) > 0 {
		return nil, fmt.Errorf("%w: asset bounds exceeded", models.ErrInvalidInput)
	}
	balOutNew := calcGiven(balInNew, p, d, invariant)
	amountOut := new(big.Int).Sub(balances[indexOut], balOutNew)
	if amountOut.Sign() < 0 {
		return nil, fmt.Errorf("%w: asset bounds exceeded", models.ErrInvalidInput)
	}
	return amountOut, nil
}

// calcInGivenOut computes the in amount for an exact out.
func calcInGivenOut(balances []*big.Int, amountOut *big.Int, tokenInIsToken0 bool, p *models.EclpParams, d *models.EclpDerivedParams, invariant vector2) (*big.Int, error) {
	indexIn, indexOut := 0, 1
	calcGiven, maxBalance := calcXGivenY, maxBalances0
	if !tokenInIsToken0 {
		indexIn, indexOut = 1, 0
		calcGiven, maxBalance = calcYGivenX, maxBalances1
	}

	if amountOut.Cmp(balances[indexOut]) > 0 {
		return nil, fmt.Errorf("%w: asset bounds exceeded", models.ErrInvalidInput)
	}
	balOutNew := new(big.Int).Sub(balances[indexOut], amountOut)
	balInNew := calcGiven(balOutNew, p, d, invariant)
	if balInNew.Cmp(maxBalance(p, d, invariant)) > 0 {
		return nil, fmt.Errorf("%w: asset bounds exceeded", models.ErrInvalidInput)
	}
	return new(big.Int).Sub(balInNew, balances[indexIn]), nil
}
