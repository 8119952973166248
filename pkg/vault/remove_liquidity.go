package vault

import (
	"fmt"
	"math/big"

	"quoter/pkg/fixedpoint"
	"quoter/pkg/hooks"
	"quoter/pkg/models"
	"quoter/pkg/pools"
)

// RemoveLiquidity quotes a remove against one pool snapshot, returning
// the BPT burned and the raw amounts paid out. Proportional removes work
// on every pool; single-token kinds require unbalanced liquidity
// support.
func (v *Vault) RemoveLiquidity(input *models.RemoveLiquidityInput, state models.View, hookState models.HookState) (result *models.RemoveLiquidityResult, err error) {
	defer recoverArithmetic(&err)

	base := state.Base()
	if base.PoolType == models.PoolTypeBuffer {
		return nil, fmt.Errorf("%w: buffers have no BPT to burn", models.ErrInvalidOperationForPool)
	}
	hook, err := hooks.New(base.HookType)
	if err != nil {
		return nil, err
	}
	flags := hook.Flags()

	pool, err := pools.New(state)
	if err != nil {
		return nil, err
	}

	// Exact amounts out scale up so the burned BPT covers them.
	minAmountsOutScaled18 := make([]*big.Int, len(input.MinAmountsOutRaw))
	for i, amount := range input.MinAmountsOutRaw {
		minAmountsOutScaled18[i] = toScaled18ApplyRateRoundUp(amount, base.ScalingFactors[i], base.TokenRates[i])
	}

	updatedBalances := copyBigs(base.BalancesLiveScaled18)
	if flags.ShouldCallBeforeRemoveLiquidity {
		adjusted, herr := hook.OnBeforeRemoveLiquidity(input.Kind, input.MaxBptAmountInRaw, minAmountsOutScaled18, updatedBalances, hookState)
		if herr != nil {
			return nil, fmt.Errorf("%w: before remove liquidity: %v", models.ErrHookFailed, herr)
		}
		updatedBalances = copyBigs(adjusted)
	}

	var (
		amountsOutScaled18 []*big.Int
		swapFeeAmounts     []*big.Int
		bptAmountIn        *big.Int
	)
	switch input.Kind {
	case models.RemoveProportional:
		bptAmountIn = input.MaxBptAmountInRaw
		amountsOutScaled18 = computeProportionalAmountsOut(updatedBalances, base.TotalSupply, bptAmountIn)
		swapFeeAmounts = zeroAmounts(len(updatedBalances))
	case models.RemoveSingleTokenExactIn:
		if !base.SupportsUnbalancedLiquidity {
			return nil, fmt.Errorf("%w: pool does not support unbalanced liquidity", models.ErrInvalidOperationForPool)
		}
		bptAmountIn = input.MaxBptAmountInRaw
		var tokenIndex int
		tokenIndex, err = singleNonZeroIndex(input.MinAmountsOutRaw)
		if err != nil {
			return nil, err
		}
		amountsOutScaled18 = copyBigs(minAmountsOutScaled18)
		amountsOutScaled18[tokenIndex], swapFeeAmounts, err = computeRemoveLiquiditySingleTokenExactIn(updatedBalances, tokenIndex, bptAmountIn, base.TotalSupply, base.SwapFee, pool)
	case models.RemoveSingleTokenExactOut:
		if !base.SupportsUnbalancedLiquidity {
			return nil, fmt.Errorf("%w: pool does not support unbalanced liquidity", models.ErrInvalidOperationForPool)
		}
		var tokenIndex int
		tokenIndex, err = singleNonZeroIndex(input.MinAmountsOutRaw)
		if err != nil {
			return nil, err
		}
		amountsOutScaled18 = minAmountsOutScaled18
		bptAmountIn, swapFeeAmounts, err = computeRemoveLiquiditySingleTokenExactOut(updatedBalances, tokenIndex, amountsOutScaled18[tokenIndex], base.TotalSupply, base.SwapFee, pool)
	default:
		return nil, fmt.Errorf("%w: remove liquidity kind %d", models.ErrInvalidInput, input.Kind)
	}
	if err != nil {
		return nil, err
	}

	// Amounts out round down against the caller when unscaled.
	amountsOutRaw := make([]*big.Int, len(amountsOutScaled18))
	for i, amount := range amountsOutScaled18 {
		amountsOutRaw[i] = toRawUndoRateRoundDown(amount, base.ScalingFactors[i], base.TokenRates[i])
	}

	for i := range updatedBalances {
		aggregateFee := new(big.Int)
		if swapFeeAmounts[i].Sign() > 0 && base.AggregateSwapFee != nil && base.AggregateSwapFee.Sign() > 0 {
			aggregateFee = fixedpoint.MulDown(swapFeeAmounts[i], base.AggregateSwapFee)
		}
		updatedBalances[i] = new(big.Int).Sub(updatedBalances[i], new(big.Int).Add(amountsOutScaled18[i], aggregateFee))
	}

	if flags.ShouldCallAfterRemoveLiquidity {
		adjustedRaw, herr := hook.OnAfterRemoveLiquidity(input.Kind, bptAmountIn, amountsOutScaled18, amountsOutRaw, updatedBalances, hookState)
		if herr != nil {
			return nil, fmt.Errorf("%w: after remove liquidity: %v", models.ErrHookFailed, herr)
		}
		if flags.EnableHookAdjustedAmounts {
			amountsOutRaw = adjustedRaw
		}
	}

	return &models.RemoveLiquidityResult{BptAmountIn: bptAmountIn, AmountsOutRaw: amountsOutRaw}, nil
}

// computeProportionalAmountsOut pays out each token pro rata to the BPT
// burned, rounding down.
func computeProportionalAmountsOut(balances []*big.Int, totalSupply, bptAmountIn *big.Int) []*big.Int {
	amountsOut := make([]*big.Int, len(balances))
	for i, balance := range balances {
		amountsOut[i] = new(big.Int).Mul(balance, bptAmountIn)
		amountsOut[i].Quo(amountsOut[i], totalSupply)
	}
	return amountsOut
}

// computeRemoveLiquiditySingleTokenExactIn burns an exact BPT amount for
// a single token, charging the swap fee on the amount beyond the
// proportional share.
func computeRemoveLiquiditySingleTokenExactIn(currentBalances []*big.Int, tokenIndex int, exactBptAmountIn, totalSupply, swapFee *big.Int, pool pools.Pool) (*big.Int, []*big.Int, error) {
	newSupply := new(big.Int).Sub(totalSupply, exactBptAmountIn)
	invariantRatio := fixedpoint.DivUp(newSupply, totalSupply)
	if invariantRatio.Cmp(pool.MinimumInvariantRatio()) < 0 {
		return nil, nil, fmt.Errorf("%w: ratio below minimum", models.ErrInvariantRatioOutOfBounds)
	}

	newBalance, err := pool.ComputeBalance(currentBalances, tokenIndex, invariantRatio)
	if err != nil {
		return nil, nil, err
	}
	amountOut := new(big.Int).Sub(currentBalances[tokenIndex], newBalance)

	newBalanceBeforeTax := new(big.Int).Mul(newSupply, currentBalances[tokenIndex])
	newBalanceBeforeTax = fixedpoint.DivUpRaw(newBalanceBeforeTax, totalSupply)
	taxable := new(big.Int).Sub(newBalanceBeforeTax, newBalance)

	fee := fixedpoint.MulUp(taxable, swapFee)

	swapFeeAmounts := zeroAmounts(len(currentBalances))
	swapFeeAmounts[tokenIndex] = fee

	return new(big.Int).Sub(amountOut, fee), swapFeeAmounts, nil
}

// computeRemoveLiquiditySingleTokenExactOut solves for the BPT burned to
// withdraw an exact single-token amount.
func computeRemoveLiquiditySingleTokenExactOut(currentBalances []*big.Int, tokenIndex int, exactAmountOut, totalSupply, swapFee *big.Int, pool pools.Pool) (*big.Int, []*big.Int, error) {
	newBalances := make([]*big.Int, len(currentBalances))
	for i, balance := range currentBalances {
		newBalances[i] = new(big.Int).Sub(balance, big.NewInt(1))
	}
	newBalances[tokenIndex] = new(big.Int).Sub(newBalances[tokenIndex], exactAmountOut)

	currentInvariant, err := pool.ComputeInvariant(currentBalances, models.RoundUp)
	if err != nil {
		return nil, nil, err
	}
	newInvariant, err := pool.ComputeInvariant(newBalances, models.RoundUp)
	if err != nil {
		return nil, nil, err
	}
	invariantRatio := fixedpoint.DivUp(newInvariant, currentInvariant)
	if invariantRatio.Cmp(pool.MinimumInvariantRatio()) < 0 {
		return nil, nil, fmt.Errorf("%w: ratio below minimum", models.ErrInvariantRatioOutOfBounds)
	}

	taxable := new(big.Int).Sub(fixedpoint.MulUp(invariantRatio, currentBalances[tokenIndex]), newBalances[tokenIndex])
	fee := new(big.Int).Sub(fixedpoint.DivUp(taxable, fixedpoint.Complement(swapFee)), taxable)
	newBalances[tokenIndex] = new(big.Int).Sub(newBalances[tokenIndex], fee)

	invariantWithFees, err := pool.ComputeInvariant(newBalances, models.RoundDown)
	if err != nil {
		return nil, nil, err
	}

	bptAmountIn := fixedpoint.MulDivUp(totalSupply, new(big.Int).Sub(currentInvariant, invariantWithFees), currentInvariant)

	swapFeeAmounts := zeroAmounts(len(currentBalances))
	swapFeeAmounts[tokenIndex] = fee

	return bptAmountIn, swapFeeAmounts, nil
}

func zeroAmounts(n int) []*big.Int {
	amounts := make([]*big.Int, n)
	for i := range amounts {
		amounts[i] = new(big.Int)
	}
	return amounts
}
