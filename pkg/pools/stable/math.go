// Package stable implements StableSwap pool math. The amplified
// invariant has no closed form, so it is solved iteratively; the solve
// runs at most 255 rounds and accepts an iterate once it moves by no
// more than one wei, matching the on-chain contracts these quotes must
// agree with.
package stable

import (
	"fmt"
	"math/big"

	"quoter/pkg/fixedpoint"
	"quoter/pkg/models"
)

// AmpPrecision is the scale of the amplification parameter: an amp of
// 1000000 means A = 1000.
var AmpPrecision = big.NewInt(1000)

var (
	maxInvariantRatio = big.NewInt(5e18)
	minInvariantRatio = big.NewInt(6e17)

	maxIterations = 255
)

// ComputeInvariant solves the StableSwap invariant D for the given
// balances:
//
//	A*n^n * S + D = A*D*n^n + D^(n+1) / (n^n * prod(balances))
func ComputeInvariant(amp *big.Int, balances []*big.Int) (*big.Int, error) {
	numTokens := int64(len(balances))
	n := big.NewInt(numTokens)

	sum := new(big.Int)
	for _, b := range balances {
		sum.Add(sum, b)
	}
	if sum.Sign() == 0 {
		return new(big.Int), nil
	}

	invariant := new(big.Int).Set(sum)
	ampTimesTotal := new(big.Int).Mul(amp, n)

	for i := 0; i < maxIterations; i++ {
		dP := new(big.Int).Set(invariant)
		for _, b := range balances {
			dP.Mul(dP, invariant)
			dP.Quo(dP, new(big.Int).Mul(b, n))
		}
		prev := invariant

		// invariant = (A*n*S/P + D_P*n) * D / ((A*n - P)*D/P + (n+1)*D_P)
		// with P the amp precision.
		num := new(big.Int).Mul(ampTimesTotal, sum)
		num.Quo(num, AmpPrecision)
		num.Add(num, new(big.Int).Mul(dP, n))
		num.Mul(num, invariant)

		den := new(big.Int).Sub(ampTimesTotal, AmpPrecision)
		den.Mul(den, invariant)
		den.Quo(den, AmpPrecision)
		den.Add(den, new(big.Int).Mul(dP, big.NewInt(numTokens+1)))

		invariant = num.Quo(num, den)

		diff := new(big.Int).Sub(invariant, prev)
		if diff.CmpAbs(oneWei) <= 0 {
			return invariant, nil
		}
	}
	return nil, fmt.Errorf("%w: stable invariant", models.ErrNonConvergence)
}

// ComputeBalance solves for the balance of one token given the invariant
// and every other balance, rounding up.
func ComputeBalance(amp *big.Int, balances []*big.Int, invariant *big.Int, tokenIndex int) (*big.Int, error) {
	numTokens := int64(len(balances))
	n := big.NewInt(numTokens)
	ampTimesTotal := new(big.Int).Mul(amp, n)

	sum := new(big.Int).Set(balances[0])
	pD := new(big.Int).Mul(balances[0], n)
	for j := 1; j < len(balances); j++ {
		pD.Mul(pD, balances[j])
		pD.Mul(pD, n)
		pD.Quo(pD, invariant)
		sum.Add(sum, balances[j])
	}
	sum.Sub(sum, balances[tokenIndex])

	inv2 := new(big.Int).Mul(invariant, invariant)

	// c = D^2 / (A*n*P_D) * precision * x_i, rounded up so the solved
	// balance errs in the pool's favor.
	c := fixedpoint.DivUpRaw(inv2, new(big.Int).Mul(ampTimesTotal, pD))
	c.Mul(c, AmpPrecision)
	c.Mul(c, balances[tokenIndex])

	// b = S + D*precision/(A*n)
	b := new(big.Int).Mul(invariant, AmpPrecision)
	b.Quo(b, ampTimesTotal)
	b.Add(b, sum)

	// Newton iteration on x^2 + c = x*(2x + b - D).
	tokenBalance := fixedpoint.DivUpRaw(new(big.Int).Add(inv2, c), new(big.Int).Add(invariant, b))
	for i := 0; i < maxIterations; i++ {
		prev := tokenBalance

		num := new(big.Int).Mul(tokenBalance, tokenBalance)
		num.Add(num, c)
		den := new(big.Int).Lsh(tokenBalance, 1)
		den.Add(den, b)
		den.Sub(den, invariant)
		tokenBalance = fixedpoint.DivUpRaw(num, den)

		diff := new(big.Int).Sub(tokenBalance, prev)
		if diff.CmpAbs(oneWei) <= 0 {
			return tokenBalance, nil
		}
	}
	return nil, fmt.Errorf("%w: stable balance", models.ErrNonConvergence)
}

// ComputeOutGivenExactIn returns the amount out for an exact amount in,
// holding the invariant constant. The result is reduced by one wei to
// absorb any solver error in the pool's favor.
func ComputeOutGivenExactIn(amp *big.Int, balances []*big.Int, indexIn, indexOut int, amountIn, invariant *big.Int) (*big.Int, error) {
	updated := copyBalances(balances)
	updated[indexIn] = new(big.Int).Add(updated[indexIn], amountIn)

	finalBalanceOut, err := ComputeBalance(amp, updated, invariant, indexOut)
	if err != nil {
		return nil, err
	}
	out := new(big.Int).Sub(balances[indexOut], finalBalanceOut)
	return out.Sub(out, oneWei), nil
}

// ComputeInGivenExactOut returns the amount in for an exact amount out,
// holding the invariant constant, padded by one wei in the pool's favor.
func ComputeInGivenExactOut(amp *big.Int, balances []*big.Int, indexIn, indexOut int, amountOut, invariant *big.Int) (*big.Int, error) {
	updated := copyBalances(balances)
	updated[indexOut] = new(big.Int).Sub(updated[indexOut], amountOut)

	finalBalanceIn, err := ComputeBalance(amp, updated, invariant, indexIn)
	if err != nil {
		return nil, err
	}
	in := new(big.Int).Sub(finalBalanceIn, balances[indexIn])
	return in.Add(in, oneWei), nil
}

func copyBalances(balances []*big.Int) []*big.Int {
	out := make([]*big.Int, len(balances))
	for i, b := range balances {
		out[i] = new(big.Int).Set(b)
	}
	return out
}

var oneWei = big.NewInt(1)
