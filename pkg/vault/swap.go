package vault

import (
	"fmt"
	"math/big"

	"quoter/pkg/fixedpoint"
	"quoter/pkg/hooks"
	"quoter/pkg/models"
	"quoter/pkg/pools"
)

func (v *Vault) poolSwap(input *models.SwapInput, base *models.PoolState, state models.View, hookState models.HookState) (*big.Int, error) {
	indexIn, indexOut, err := tokenIndices(base, input.TokenIn, input.TokenOut)
	if err != nil {
		return nil, err
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

	var amountGivenScaled18 *big.Int
	if input.Kind == models.GivenIn {
		amountGivenScaled18 = toScaled18ApplyRateRoundDown(input.AmountRaw, base.ScalingFactors[indexIn], base.TokenRates[indexIn])
	} else {
		amountGivenScaled18 = toScaled18ApplyRateRoundUp(input.AmountRaw, base.ScalingFactors[indexOut], base.TokenRates[indexOut])
	}

	updatedBalances := copyBigs(base.BalancesLiveScaled18)
	swapParams := &models.PoolSwapParams{
		Kind:                 input.Kind,
		AmountGivenScaled18:  amountGivenScaled18,
		BalancesLiveScaled18: updatedBalances,
		IndexIn:              indexIn,
		IndexOut:             indexOut,
	}

	if flags.ShouldCallBeforeSwap {
		adjusted, herr := hook.OnBeforeSwap(swapParams, hookState)
		if herr != nil {
			return nil, fmt.Errorf("%w: before swap: %v", models.ErrHookFailed, herr)
		}
		updatedBalances = copyBigs(adjusted)
		swapParams.BalancesLiveScaled18 = updatedBalances
	}

	swapFee := base.SwapFee
	if flags.ShouldCallComputeDynamicSwapFee {
		dynamicFee, herr := hook.OnComputeDynamicSwapFee(swapParams, base.SwapFee, hookState)
		if herr != nil {
			return nil, fmt.Errorf("%w: dynamic swap fee: %v", models.ErrHookFailed, herr)
		}
		swapFee = dynamicFee
	}

	// GivenIn charges the fee on the way in, before the curve sees the
	// amount; GivenOut charges it on the way out, after.
	totalSwapFeeScaled18 := new(big.Int)
	if input.Kind == models.GivenIn {
		totalSwapFeeScaled18 = fixedpoint.MulUp(amountGivenScaled18, swapFee)
		amountGivenScaled18 = new(big.Int).Sub(amountGivenScaled18, totalSwapFeeScaled18)
		swapParams.AmountGivenScaled18 = amountGivenScaled18
	}

	amountCalculatedScaled18, err := pool.OnSwap(swapParams)
	if err != nil {
		return nil, err
	}

	var amountCalculatedRaw *big.Int
	if input.Kind == models.GivenIn {
		amountCalculatedRaw = toRawUndoRateRoundDown(
			amountCalculatedScaled18,
			base.ScalingFactors[indexOut],
			computeRateRoundUp(base.TokenRates[indexOut]),
		)
	} else {
		totalSwapFeeScaled18 = fixedpoint.MulDivUp(amountCalculatedScaled18, swapFee, fixedpoint.Complement(swapFee))
		amountCalculatedScaled18 = new(big.Int).Add(amountCalculatedScaled18, totalSwapFeeScaled18)
		amountCalculatedRaw = toRawUndoRateRoundUp(
			amountCalculatedScaled18,
			base.ScalingFactors[indexIn],
			computeRateRoundUp(base.TokenRates[indexIn]),
		)
	}

	aggregateFeeScaled18 := new(big.Int)
	if totalSwapFeeScaled18.Sign() > 0 && base.AggregateSwapFee != nil && base.AggregateSwapFee.Sign() > 0 {
		aggregateFeeScaled18 = fixedpoint.MulDown(totalSwapFeeScaled18, base.AggregateSwapFee)
	}

	// Settle the balances the after hook observes. The aggregate fee
	// portion leaves the pool, everything else stays.
	var amountInScaled18, amountOutScaled18 *big.Int
	if input.Kind == models.GivenIn {
		amountInScaled18 = new(big.Int).Add(amountGivenScaled18, totalSwapFeeScaled18)
		amountOutScaled18 = amountCalculatedScaled18
	} else {
		amountInScaled18 = amountCalculatedScaled18
		amountOutScaled18 = swapParams.AmountGivenScaled18
	}
	updatedBalances[indexIn] = new(big.Int).Sub(new(big.Int).Add(updatedBalances[indexIn], amountInScaled18), aggregateFeeScaled18)
	updatedBalances[indexOut] = new(big.Int).Sub(updatedBalances[indexOut], amountOutScaled18)

	if flags.ShouldCallAfterSwap {
		adjustedRaw, herr := hook.OnAfterSwap(&hooks.AfterSwapParams{
			Kind:                     input.Kind,
			IndexIn:                  indexIn,
			IndexOut:                 indexOut,
			AmountInScaled18:         amountInScaled18,
			AmountOutScaled18:        amountOutScaled18,
			TokenInBalanceScaled18:   updatedBalances[indexIn],
			TokenOutBalanceScaled18:  updatedBalances[indexOut],
			AmountCalculatedScaled18: amountCalculatedScaled18,
			AmountCalculatedRaw:      amountCalculatedRaw,
		}, hookState)
		if herr != nil {
			return nil, fmt.Errorf("%w: after swap: %v", models.ErrHookFailed, herr)
		}
		if flags.EnableHookAdjustedAmounts {
			amountCalculatedRaw = adjustedRaw
		}
	}

	return amountCalculatedRaw, nil
}
