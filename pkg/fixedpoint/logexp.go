package fixedpoint

import (
	"errors"
	"math/big"
)

// Natural exponentiation and logarithm in fixed point, used to compute
// x^y as exp(y*ln(x)). Internally the math runs at 20 decimals (36 for
// the high-precision logarithm near 1) so the final 18-decimal result
// carries a relative error below 1e-14. All signed divisions truncate
// toward zero, matching on-chain int256 semantics, which is why Quo is
// used throughout instead of Div.

// ErrPowOutOfBounds is the panic value raised when a pow argument falls
// outside the representable range.
var ErrPowOutOfBounds = errors.New("fixedpoint: pow argument out of bounds")

func mustBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("fixedpoint: bad constant " + s)
	}
	return n
}

var (
	one18 = mustBig("1000000000000000000")
	one20 = mustBig("100000000000000000000")
	one36 = mustBig("1000000000000000000000000000000000000")

	maxNaturalExponent = mustBig("130000000000000000000")
	minNaturalExponent = mustBig("-41000000000000000000")

	ln36LowerBound = mustBig("900000000000000000")
	ln36UpperBound = mustBig("1100000000000000000")

	// 2^254 / one20: bound on y such that y*ln(x) stays inside the
	// signed 256-bit range the on-chain math is defined over.
	mildExponentBound = new(big.Int).Quo(new(big.Int).Lsh(oneInt, 254), one20)

	// x must fit a signed 256-bit word; values at or above are rejected.
	maxPowBase = new(big.Int).Lsh(oneInt, 255)

	// x_n = 2^(7-n), a_n = exp(x_n). The first two are unscaled, the
	// rest carry 20 decimals.
	expX0 = mustBig("128000000000000000000")
	expA0 = mustBig("38877084059945950922200000000000000000000000000000000000")
	expX1 = mustBig("64000000000000000000")
	expA1 = mustBig("6235149080811616882910000000")
	expX2 = mustBig("3200000000000000000000")
	expA2 = mustBig("7896296018268069516100000000000000")
	expX3 = mustBig("1600000000000000000000")
	expA3 = mustBig("888611052050787263676000000")
	expX4 = mustBig("800000000000000000000")
	expA4 = mustBig("298095798704172827474000")
	expX5 = mustBig("400000000000000000000")
	expA5 = mustBig("5459815003314423907810")
	expX6 = mustBig("200000000000000000000")
	expA6 = mustBig("738905609893065022723")
	expX7 = mustBig("100000000000000000000")
	expA7 = mustBig("271828182845904523536")
	expX8 = mustBig("50000000000000000000")
	expA8 = mustBig("164872127070012814685")
	expX9 = mustBig("25000000000000000000")
	expA9 = mustBig("128402541668774148407")
	expX10 = mustBig("12500000000000000000")
	expA10 = mustBig("113314845306682631683")
	expX11 = mustBig("6250000000000000000")
	expA11 = mustBig("106449445891785942956")

	hundred = big.NewInt(100)
)

// Pow computes x^y where both operands are non-negative WAD-scaled fixed
// point values. It panics with ErrPowOutOfBounds when an argument or the
// intermediate exponent leaves the supported range.
func Pow(x, y *big.Int) *big.Int {
	if y.Sign() == 0 {
		// x^0 == 1, including 0^0 by convention.
		return new(big.Int).Set(one18)
	}
	if x.Sign() == 0 {
		return new(big.Int)
	}
	if x.Cmp(maxPowBase) >= 0 || y.Cmp(mildExponentBound) >= 0 {
		panic(ErrPowOutOfBounds)
	}

	var logxTimesY *big.Int
	if ln36LowerBound.Cmp(x) < 0 && x.Cmp(ln36UpperBound) < 0 {
		lnX := ln36(x)
		// Split the 36-decimal logarithm into whole and fractional
		// 18-decimal parts to keep the product in range.
		q := new(big.Int).Quo(lnX, one18)
		r := new(big.Int).Rem(lnX, one18)
		logxTimesY = new(big.Int).Mul(q, y)
		frac := new(big.Int).Mul(r, y)
		frac.Quo(frac, one18)
		logxTimesY.Add(logxTimesY, frac)
	} else {
		logxTimesY = new(big.Int).Mul(ln(x), y)
	}
	logxTimesY.Quo(logxTimesY, one18)

	if logxTimesY.Cmp(minNaturalExponent) < 0 || logxTimesY.Cmp(maxNaturalExponent) > 0 {
		panic(ErrPowOutOfBounds)
	}
	return exp(logxTimesY)
}

// exp computes e^x for an 18-decimal x in [minNaturalExponent,
// maxNaturalExponent], returning an 18-decimal result.
func exp(x *big.Int) *big.Int {
	if x.Cmp(minNaturalExponent) < 0 || x.Cmp(maxNaturalExponent) > 0 {
		panic(ErrPowOutOfBounds)
	}
	if x.Sign() < 0 {
		// e^-x == 1/e^x; the numerator carries 36 decimals so the
		// quotient is back at 18.
		neg := exp(new(big.Int).Neg(x))
		return new(big.Int).Quo(one36, neg)
	}
	x = new(big.Int).Set(x)

	// Strip the two largest powers of two from the exponent; their
	// e^x_n factors are applied at the very end, unscaled.
	firstAN := oneInt
	if x.Cmp(expX0) >= 0 {
		x.Sub(x, expX0)
		firstAN = expA0
	} else if x.Cmp(expX1) >= 0 {
		x.Sub(x, expX1)
		firstAN = expA1
	}

	// Continue at 20 decimal places.
	x.Mul(x, hundred)
	product := new(big.Int).Set(one20)

	for _, f := range [...]struct{ x, a *big.Int }{
		{expX2, expA2}, {expX3, expA3}, {expX4, expA4}, {expX5, expA5},
		{expX6, expA6}, {expX7, expA7}, {expX8, expA8}, {expX9, expA9},
	} {
		if x.Cmp(f.x) >= 0 {
			x.Sub(x, f.x)
			product.Mul(product, f.a)
			product.Quo(product, one20)
		}
	}

	// Taylor series for the sub-0.25 remainder: sum x^n/n!.
	seriesSum := new(big.Int).Set(one20)
	term := new(big.Int).Set(x)
	seriesSum.Add(seriesSum, term)
	for n := int64(2); n <= 12; n++ {
		term.Mul(term, x)
		term.Quo(term, one20)
		term.Quo(term, big.NewInt(n))
		seriesSum.Add(seriesSum, term)
	}

	out := new(big.Int).Mul(product, seriesSum)
	out.Quo(out, one20)
	out.Mul(out, firstAN)
	return out.Quo(out, hundred)
}

// ln computes the natural logarithm of an 18-decimal a.
func ln(a *big.Int) *big.Int {
	if a.Cmp(one18) < 0 {
		// ln(a) = -ln(1/a) for a < 1.
		inv := new(big.Int).Quo(one36, a)
		return new(big.Int).Neg(ln(inv))
	}
	a = new(big.Int).Set(a)
	sum := new(big.Int)

	if t := new(big.Int).Mul(expA0, one18); a.Cmp(t) >= 0 {
		a.Quo(a, expA0)
		sum.Add(sum, expX0)
	}
	if t := new(big.Int).Mul(expA1, one18); a.Cmp(t) >= 0 {
		a.Quo(a, expA1)
		sum.Add(sum, expX1)
	}

	sum.Mul(sum, hundred)
	a.Mul(a, hundred)

	for _, f := range [...]struct{ x, a *big.Int }{
		{expX2, expA2}, {expX3, expA3}, {expX4, expA4}, {expX5, expA5},
		{expX6, expA6}, {expX7, expA7}, {expX8, expA8}, {expX9, expA9},
		{expX10, expA10}, {expX11, expA11},
	} {
		if a.Cmp(f.a) >= 0 {
			a.Mul(a, one20)
			a.Quo(a, f.a)
			sum.Add(sum, f.x)
		}
	}

	// a is now between 1 and e^0.0625; use the atanh series
	// ln(a) = 2*(z + z^3/3 + z^5/5 + ...) with z = (a-1)/(a+1).
	z := new(big.Int).Sub(a, one20)
	z.Mul(z, one20)
	z.Quo(z, new(big.Int).Add(a, one20))
	zSquared := new(big.Int).Mul(z, z)
	zSquared.Quo(zSquared, one20)

	num := new(big.Int).Set(z)
	seriesSum := new(big.Int).Set(z)
	for n := int64(3); n <= 11; n += 2 {
		num.Mul(num, zSquared)
		num.Quo(num, one20)
		seriesSum.Add(seriesSum, new(big.Int).Quo(num, big.NewInt(n)))
	}
	seriesSum.Mul(seriesSum, two)

	sum.Add(sum, seriesSum)
	return sum.Quo(sum, hundred)
}

// ln36 computes the natural logarithm at 36 decimal places for an
// 18-decimal argument close to 1, where the regular 20-decimal
// computation loses too much precision.
func ln36(x *big.Int) *big.Int {
	x = new(big.Int).Mul(x, one18)

	z := new(big.Int).Sub(x, one36)
	z.Mul(z, one36)
	z.Quo(z, new(big.Int).Add(x, one36))
	zSquared := new(big.Int).Mul(z, z)
	zSquared.Quo(zSquared, one36)

	num := new(big.Int).Set(z)
	seriesSum := new(big.Int).Set(z)
	for n := int64(3); n <= 15; n += 2 {
		num.Mul(num, zSquared)
		num.Quo(num, one36)
		seriesSum.Add(seriesSum, new(big.Int).Quo(num, big.NewInt(n)))
	}
	return seriesSum.Mul(seriesSum, two)
}
