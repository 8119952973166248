package vault

import (
	"fmt"
	"math/big"

	"quoter/pkg/fixedpoint"
	"quoter/pkg/hooks"
	"quoter/pkg/models"
	"quoter/pkg/pools"
)

// AddLiquidity quotes an add against one pool snapshot, returning the
// BPT minted and the raw amounts pulled in. Both add kinds are
// unbalanced operations and require the pool to support them.
func (v *Vault) AddLiquidity(input *models.AddLiquidityInput, state models.View, hookState models.HookState) (result *models.AddLiquidityResult, err error) {
	defer recoverArithmetic(&err)

	base := state.Base()
	if base.PoolType == models.PoolTypeBuffer {
		return nil, fmt.Errorf("%w: buffers have no BPT to mint", models.ErrInvalidOperationForPool)
	}
	if !base.SupportsUnbalancedLiquidity {
		return nil, fmt.Errorf("%w: pool does not support unbalanced liquidity", models.ErrInvalidOperationForPool)
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

	maxAmountsInScaled18 := make([]*big.Int, len(input.MaxAmountsInRaw))
	for i, amount := range input.MaxAmountsInRaw {
		maxAmountsInScaled18[i] = toScaled18ApplyRateRoundDown(amount, base.ScalingFactors[i], base.TokenRates[i])
	}

	updatedBalances := copyBigs(base.BalancesLiveScaled18)
	if flags.ShouldCallBeforeAddLiquidity {
		adjusted, herr := hook.OnBeforeAddLiquidity(input.Kind, maxAmountsInScaled18, input.MinBptAmountOutRaw, updatedBalances, hookState)
		if herr != nil {
			return nil, fmt.Errorf("%w: before add liquidity: %v", models.ErrHookFailed, herr)
		}
		updatedBalances = copyBigs(adjusted)
	}

	var (
		amountsInScaled18 []*big.Int
		swapFeeAmounts    []*big.Int
		bptAmountOut      *big.Int
	)
	switch input.Kind {
	case models.AddUnbalanced:
		amountsInScaled18 = maxAmountsInScaled18
		bptAmountOut, swapFeeAmounts, err = computeAddLiquidityUnbalanced(updatedBalances, maxAmountsInScaled18, base.TotalSupply, base.SwapFee, pool)
	case models.AddSingleTokenExactOut:
		bptAmountOut = input.MinBptAmountOutRaw
		var tokenIndex int
		tokenIndex, err = singleNonZeroIndex(input.MaxAmountsInRaw)
		if err != nil {
			return nil, err
		}
		amountsInScaled18 = copyBigs(maxAmountsInScaled18)
		amountsInScaled18[tokenIndex], swapFeeAmounts, err = computeAddLiquiditySingleTokenExactOut(updatedBalances, tokenIndex, bptAmountOut, base.TotalSupply, base.SwapFee, pool)
	default:
		return nil, fmt.Errorf("%w: add liquidity kind %d", models.ErrInvalidInput, input.Kind)
	}
	if err != nil {
		return nil, err
	}

	// Amounts in round up against the caller when unscaled.
	amountsInRaw := make([]*big.Int, len(amountsInScaled18))
	for i, amount := range amountsInScaled18 {
		amountsInRaw[i] = toRawUndoRateRoundUp(amount, base.ScalingFactors[i], base.TokenRates[i])
	}

	for i := range updatedBalances {
		aggregateFee := new(big.Int)
		if swapFeeAmounts[i].Sign() > 0 && base.AggregateSwapFee != nil && base.AggregateSwapFee.Sign() > 0 {
			aggregateFee = fixedpoint.MulDown(swapFeeAmounts[i], base.AggregateSwapFee)
		}
		updatedBalances[i] = new(big.Int).Sub(new(big.Int).Add(updatedBalances[i], amountsInScaled18[i]), aggregateFee)
	}

	if flags.ShouldCallAfterAddLiquidity {
		adjustedRaw, herr := hook.OnAfterAddLiquidity(input.Kind, amountsInScaled18, amountsInRaw, bptAmountOut, updatedBalances, hookState)
		if herr != nil {
			return nil, fmt.Errorf("%w: after add liquidity: %v", models.ErrHookFailed, herr)
		}
		if flags.EnableHookAdjustedAmounts {
			amountsInRaw = adjustedRaw
		}
	}

	return &models.AddLiquidityResult{BptAmountOut: bptAmountOut, AmountsInRaw: amountsInRaw}, nil
}

// computeAddLiquidityUnbalanced prices an exact-amounts-in add: any
// amount above the proportional share is treated as a swap and charged
// the swap fee before BPT is minted on the invariant growth.
func computeAddLiquidityUnbalanced(currentBalances, exactAmounts []*big.Int, totalSupply, swapFee *big.Int, pool pools.Pool) (*big.Int, []*big.Int, error) {
	newBalances := make([]*big.Int, len(currentBalances))
	for i, balance := range currentBalances {
		newBalances[i] = new(big.Int).Sub(new(big.Int).Add(balance, exactAmounts[i]), big.NewInt(1))
	}

	currentInvariant, err := pool.ComputeInvariant(currentBalances, models.RoundUp)
	if err != nil {
		return nil, nil, err
	}
	newInvariant, err := pool.ComputeInvariant(newBalances, models.RoundDown)
	if err != nil {
		return nil, nil, err
	}
	invariantRatio := fixedpoint.DivDown(newInvariant, currentInvariant)
	if invariantRatio.Cmp(pool.MaximumInvariantRatio()) > 0 {
		return nil, nil, fmt.Errorf("%w: ratio above maximum", models.ErrInvariantRatioOutOfBounds)
	}

	swapFeeAmounts := make([]*big.Int, len(currentBalances))
	for i := range newBalances {
		swapFeeAmounts[i] = new(big.Int)
		proportional := fixedpoint.MulDown(currentBalances[i], invariantRatio)
		if newBalances[i].Cmp(proportional) > 0 {
			taxable := new(big.Int).Sub(newBalances[i], proportional)
			swapFeeAmounts[i] = fixedpoint.MulUp(taxable, swapFee)
			newBalances[i] = new(big.Int).Sub(newBalances[i], swapFeeAmounts[i])
		}
	}

	invariantWithFees, err := pool.ComputeInvariant(newBalances, models.RoundDown)
	if err != nil {
		return nil, nil, err
	}
	bptAmountOut := new(big.Int).Mul(totalSupply, new(big.Int).Sub(invariantWithFees, currentInvariant))
	bptAmountOut.Quo(bptAmountOut, currentInvariant)
	return bptAmountOut, swapFeeAmounts, nil
}

// computeAddLiquiditySingleTokenExactOut solves for the single-token
// amount in that mints an exact BPT amount, charging the swap fee on the
// non-proportional part.
func computeAddLiquiditySingleTokenExactOut(currentBalances []*big.Int, tokenIndex int, exactBptAmountOut, totalSupply, swapFee *big.Int, pool pools.Pool) (*big.Int, []*big.Int, error) {
	newSupply := new(big.Int).Add(exactBptAmountOut, totalSupply)
	invariantRatio := fixedpoint.DivUp(newSupply, totalSupply)
	if invariantRatio.Cmp(pool.MaximumInvariantRatio()) > 0 {
		return nil, nil, fmt.Errorf("%w: ratio above maximum", models.ErrInvariantRatioOutOfBounds)
	}

	newBalance, err := pool.ComputeBalance(currentBalances, tokenIndex, invariantRatio)
	if err != nil {
		return nil, nil, err
	}
	amountIn := new(big.Int).Sub(newBalance, currentBalances[tokenIndex])

	nonTaxableBalance := new(big.Int).Mul(newSupply, currentBalances[tokenIndex])
	nonTaxableBalance.Quo(nonTaxableBalance, totalSupply)
	taxable := new(big.Int).Sub(newBalance, nonTaxableBalance)

	fee := new(big.Int).Sub(fixedpoint.DivUp(taxable, fixedpoint.Complement(swapFee)), taxable)

	swapFeeAmounts := make([]*big.Int, len(currentBalances))
	for i := range swapFeeAmounts {
		swapFeeAmounts[i] = new(big.Int)
	}
	swapFeeAmounts[tokenIndex] = fee

	return new(big.Int).Add(amountIn, fee), swapFeeAmounts, nil
}

// singleNonZeroIndex expects exactly one non-zero entry and returns its
// index.
func singleNonZeroIndex(amounts []*big.Int) (int, error) {
	index := -1
	for i, amount := range amounts {
		if amount.Sign() != 0 {
			if index >= 0 {
				return 0, fmt.Errorf("%w: more than one non-zero amount", models.ErrInvalidInput)
			}
			index = i
		}
	}
	if index < 0 {
		return 0, fmt.Errorf("%w: all amounts are zero", models.ErrInvalidInput)
	}
	return index, nil
}
