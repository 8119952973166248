// Package weighted implements constant-weighted-product pool math. The
// invariant is the weighted geometric product of the balances; swaps
// solve it in closed form, no iteration involved.
package weighted

import (
	"fmt"
	"math/big"

	"quoter/pkg/fixedpoint"
	"quoter/pkg/models"
)

var (
	// Invariant growth/shrink bounds for a single unbalanced operation.
	maxInvariantRatio = big.NewInt(3e18)
	minInvariantRatio = big.NewInt(7e17)

	// A swap may consume at most 30% of the input-token balance and pay
	// out at most 30% of the output-token balance.
	maxInRatio  = big.NewInt(3e17)
	maxOutRatio = big.NewInt(3e17)
)

// ComputeInvariant evaluates prod(balance_i ^ weight_i) with every step
// rounded in the requested direction.
func ComputeInvariant(weights, balances []*big.Int, rounding models.Rounding) (*big.Int, error) {
	invariant := new(big.Int).Set(fixedpoint.WAD)
	for i, balance := range balances {
		if rounding == models.RoundUp {
			invariant = fixedpoint.MulUp(invariant, fixedpoint.PowUp(balance, weights[i]))
		} else {
			invariant = fixedpoint.MulDown(invariant, fixedpoint.PowDown(balance, weights[i]))
		}
	}
	if invariant.Sign() == 0 {
		return nil, fmt.Errorf("%w: zero invariant", models.ErrArithmetic)
	}
	return invariant, nil
}

// ComputeOutGivenExactIn solves the weighted-product equation for the
// amount out:
//
//	aO = bO * (1 - (bI / (bI + aI))^(wI / wO))
func ComputeOutGivenExactIn(balanceIn, weightIn, balanceOut, weightOut, amountIn *big.Int) (*big.Int, error) {
	if amountIn.Cmp(fixedpoint.MulDown(balanceIn, maxInRatio)) > 0 {
		return nil, fmt.Errorf("%w: amount in exceeds 30%% of balance", models.ErrInvalidInput)
	}
	denominator := new(big.Int).Add(balanceIn, amountIn)
	base := fixedpoint.DivUp(balanceIn, denominator)
	exponent := fixedpoint.DivDown(weightIn, weightOut)
	power := fixedpoint.PowUp(base, exponent)
	// Rounding the power up makes its complement, and with it the
	// amount out, round down.
	return fixedpoint.MulDown(balanceOut, fixedpoint.Complement(power)), nil
}

// ComputeInGivenExactOut solves the weighted-product equation for the
// amount in:
//
//	aI = bI * ((bO / (bO - aO))^(wO / wI) - 1)
func ComputeInGivenExactOut(balanceIn, weightIn, balanceOut, weightOut, amountOut *big.Int) (*big.Int, error) {
	if amountOut.Cmp(fixedpoint.MulDown(balanceOut, maxOutRatio)) > 0 {
		return nil, fmt.Errorf("%w: amount out exceeds 30%% of balance", models.ErrInvalidInput)
	}
	base := fixedpoint.DivUp(balanceOut, new(big.Int).Sub(balanceOut, amountOut))
	exponent := fixedpoint.DivUp(weightOut, weightIn)
	power := fixedpoint.PowUp(base, exponent)
	ratio := new(big.Int).Sub(power, fixedpoint.WAD)
	return fixedpoint.MulUp(balanceIn, ratio), nil
}

// ComputeBalanceOutGivenInvariant returns the balance one token must
// reach for the invariant to change by invariantRatio:
//
//	newBalance = balance * invariantRatio^(1 / weight)
//
// rounded up so single-token deposits never undercharge.
func ComputeBalanceOutGivenInvariant(currentBalance, weight, invariantRatio *big.Int) *big.Int {
	balanceRatio := fixedpoint.PowUp(invariantRatio, fixedpoint.DivUp(fixedpoint.WAD, weight))
	return fixedpoint.MulUp(currentBalance, balanceRatio)
}
