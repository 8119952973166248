package vault

import (
	"math/big"

	"quoter/pkg/fixedpoint"
)

// Scaling moves raw token amounts to the 18-decimal, rate-adjusted
// domain the curves work in and back. Scaling factors are plain
// multipliers (1e12 for a 6-decimal token); rates are WAD fractions.

func toScaled18ApplyRateRoundDown(amount, scalingFactor, rate *big.Int) *big.Int {
	return fixedpoint.MulDown(new(big.Int).Mul(amount, scalingFactor), rate)
}

func toScaled18ApplyRateRoundUp(amount, scalingFactor, rate *big.Int) *big.Int {
	return fixedpoint.MulUp(new(big.Int).Mul(amount, scalingFactor), rate)
}

func toRawUndoRateRoundDown(amountScaled18, scalingFactor, rate *big.Int) *big.Int {
	return fixedpoint.DivDown(amountScaled18, new(big.Int).Mul(scalingFactor, rate))
}

func toRawUndoRateRoundUp(amountScaled18, scalingFactor, rate *big.Int) *big.Int {
	return fixedpoint.DivUp(amountScaled18, new(big.Int).Mul(scalingFactor, rate))
}

// computeRateRoundUp rounds a token rate up at the wei level so that
// undoing a rate never credits the caller the truncated dust.
func computeRateRoundUp(rate *big.Int) *big.Int {
	rounded := new(big.Int).Quo(rate, fixedpoint.WAD)
	rounded.Mul(rounded, fixedpoint.WAD)
	if rounded.Cmp(rate) == 0 {
		return rate
	}
	return new(big.Int).Add(rate, big.NewInt(1))
}

func copyBigs(values []*big.Int) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		out[i] = new(big.Int).Set(v)
	}
	return out
}
