package vault

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"quoter/pkg/fixedpoint"
	"quoter/pkg/models"
)

var (
	tokenA = common.HexToAddress("0x7b79995e5f793A07Bc00c21412e50Ecae098E7f9")
	tokenB = common.HexToAddress("0xb19382073c7A0aDdbb56Ac6AF1808Fa49e377B75")
)

func wad(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), fixedpoint.WAD)
}

func ones(n int) []*big.Int {
	out := make([]*big.Int, n)
	for i := range out {
		out[i] = big.NewInt(1)
	}
	return out
}

func rates(n int) []*big.Int {
	out := make([]*big.Int, n)
	for i := range out {
		out[i] = new(big.Int).Set(fixedpoint.WAD)
	}
	return out
}

func weightedPool(balances []*big.Int, swapFee *big.Int) *models.WeightedState {
	return &models.WeightedState{
		PoolState: models.PoolState{
			PoolType:                    models.PoolTypeWeighted,
			Tokens:                      []common.Address{tokenA, tokenB},
			ScalingFactors:              ones(2),
			TokenRates:                  rates(2),
			BalancesLiveScaled18:        balances,
			SwapFee:                     swapFee,
			AggregateSwapFee:            big.NewInt(0),
			TotalSupply:                 wad(2000),
			SupportsUnbalancedLiquidity: true,
		},
		Weights: []*big.Int{big.NewInt(5e17), big.NewInt(5e17)},
	}
}

func TestSwapZeroAmountShortCircuits(t *testing.T) {
	v := New()
	state := weightedPool([]*big.Int{wad(1000), wad(1000)}, big.NewInt(1e16))

	out, err := v.Swap(&models.SwapInput{
		Kind:      models.GivenIn,
		AmountRaw: big.NewInt(0),
		TokenIn:   tokenA,
		TokenOut:  tokenB,
	}, state, nil)
	require.NoError(t, err)
	require.Equal(t, 0, out.Sign())
}

func TestSwapUnknownTokenRejected(t *testing.T) {
	v := New()
	state := weightedPool([]*big.Int{wad(1000), wad(1000)}, big.NewInt(0))

	_, err := v.Swap(&models.SwapInput{
		Kind:      models.GivenIn,
		AmountRaw: wad(1),
		TokenIn:   common.HexToAddress("0x000000000000000000000000000000000000dEaD"),
		TokenOut:  tokenB,
	}, state, nil)
	require.ErrorIs(t, err, models.ErrInvalidInput)

	// Same token on both sides is no swap either
	_, err = v.Swap(&models.SwapInput{
		Kind:      models.GivenIn,
		AmountRaw: wad(1),
		TokenIn:   tokenA,
		TokenOut:  tokenA,
	}, state, nil)
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestSwapFeeReducesOutput(t *testing.T) {
	v := New()
	input := &models.SwapInput{
		Kind:      models.GivenIn,
		AmountRaw: wad(10),
		TokenIn:   tokenA,
		TokenOut:  tokenB,
	}

	free, err := v.Swap(input, weightedPool([]*big.Int{wad(1000), wad(1000)}, big.NewInt(0)), nil)
	require.NoError(t, err)

	charged, err := v.Swap(input, weightedPool([]*big.Int{wad(1000), wad(1000)}, big.NewInt(1e16)), nil)
	require.NoError(t, err)

	require.True(t, charged.Cmp(free) < 0, "free %s charged %s", free, charged)

	// A 1% fee on a near-linear quote costs about 1% of the output
	approx := fixedpoint.MulDown(free, big.NewInt(99e16))
	diff := new(big.Int).Sub(charged, approx)
	diff.Abs(diff)
	require.True(t, diff.Cmp(wad(1)) < 0, "charged %s approx %s", charged, approx)
}

func TestSwapGivenOutChargesFeeOnTopOfInput(t *testing.T) {
	v := New()
	input := &models.SwapInput{
		Kind:      models.GivenOut,
		AmountRaw: wad(10),
		TokenIn:   tokenA,
		TokenOut:  tokenB,
	}

	free, err := v.Swap(input, weightedPool([]*big.Int{wad(1000), wad(1000)}, big.NewInt(0)), nil)
	require.NoError(t, err)

	charged, err := v.Swap(input, weightedPool([]*big.Int{wad(1000), wad(1000)}, big.NewInt(1e16)), nil)
	require.NoError(t, err)

	require.True(t, charged.Cmp(free) > 0, "free %s charged %s", free, charged)
}

func TestSwapScalingAppliesRateAndDecimals(t *testing.T) {
	v := New()
	state := weightedPool([]*big.Int{wad(1000), wad(1000)}, big.NewInt(0))
	// Token A has 6 decimals on the wire
	state.ScalingFactors = []*big.Int{big.NewInt(1e12), big.NewInt(1)}

	out, err := v.Swap(&models.SwapInput{
		Kind:      models.GivenIn,
		AmountRaw: big.NewInt(10_000_000), // 10 units at 6 decimals
		TokenIn:   tokenA,
		TokenOut:  tokenB,
	}, state, nil)
	require.NoError(t, err)

	// Out comes back in token B's native 18 decimals: roughly 10 units
	require.True(t, out.Cmp(wad(9)) > 0, "out %s", out)
	require.True(t, out.Cmp(wad(10)) < 0, "out %s", out)
}

func TestSwapArithmeticPanicBecomesError(t *testing.T) {
	v := New()
	state := weightedPool([]*big.Int{wad(1000), wad(1000)}, big.NewInt(0))
	state.TokenRates = []*big.Int{new(big.Int).Set(fixedpoint.WAD), big.NewInt(0)}

	_, err := v.Swap(&models.SwapInput{
		Kind:      models.GivenIn,
		AmountRaw: wad(10),
		TokenIn:   tokenA,
		TokenOut:  tokenB,
	}, state, nil)
	require.ErrorIs(t, err, models.ErrArithmetic)
}

func TestBufferSwapRoutesDirectly(t *testing.T) {
	v := New()
	state := &models.BufferState{
		PoolState: models.PoolState{
			PoolType:             models.PoolTypeBuffer,
			Tokens:               []common.Address{tokenA, tokenB},
			ScalingFactors:       ones(2),
			TokenRates:           rates(2),
			BalancesLiveScaled18: []*big.Int{big.NewInt(0), big.NewInt(0)},
			SwapFee:              big.NewInt(0),
			AggregateSwapFee:     big.NewInt(0),
			TotalSupply:          big.NewInt(0),
		},
		Rate: big.NewInt(11e17),
	}

	// Token A is the underlying; swapping it in wraps at the rate
	out, err := v.Swap(&models.SwapInput{
		Kind:      models.GivenIn,
		AmountRaw: big.NewInt(11e17),
		TokenIn:   tokenA,
		TokenOut:  tokenB,
	}, state, nil)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1e18), out)

	// Below the dust floor the buffer refuses to quote
	_, err = v.Swap(&models.SwapInput{
		Kind:      models.GivenIn,
		AmountRaw: big.NewInt(9_999),
		TokenIn:   tokenA,
		TokenOut:  tokenB,
	}, state, nil)
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestBufferRejectsLiquidityOperations(t *testing.T) {
	v := New()
	state := &models.BufferState{
		PoolState: models.PoolState{
			PoolType:                    models.PoolTypeBuffer,
			Tokens:                      []common.Address{tokenA, tokenB},
			ScalingFactors:              ones(2),
			TokenRates:                  rates(2),
			BalancesLiveScaled18:        []*big.Int{big.NewInt(0), big.NewInt(0)},
			SwapFee:                     big.NewInt(0),
			AggregateSwapFee:            big.NewInt(0),
			TotalSupply:                 big.NewInt(0),
			SupportsUnbalancedLiquidity: true,
		},
		Rate: big.NewInt(11e17),
	}

	_, err := v.AddLiquidity(&models.AddLiquidityInput{
		Kind:            models.AddUnbalanced,
		MaxAmountsInRaw: []*big.Int{wad(10), wad(10)},
	}, state, nil)
	require.ErrorIs(t, err, models.ErrInvalidOperationForPool)

	_, err = v.RemoveLiquidity(&models.RemoveLiquidityInput{
		Kind:              models.RemoveProportional,
		MaxBptAmountInRaw: wad(1),
		MinAmountsOutRaw:  []*big.Int{big.NewInt(0), big.NewInt(0)},
	}, state, nil)
	require.ErrorIs(t, err, models.ErrInvalidOperationForPool)
}

func TestAddLiquidityRequiresUnbalancedSupport(t *testing.T) {
	v := New()
	state := weightedPool([]*big.Int{wad(1000), wad(1000)}, big.NewInt(1e16))
	state.SupportsUnbalancedLiquidity = false

	_, err := v.AddLiquidity(&models.AddLiquidityInput{
		Kind:            models.AddUnbalanced,
		MaxAmountsInRaw: []*big.Int{wad(10), wad(10)},
	}, state, nil)
	require.ErrorIs(t, err, models.ErrInvalidOperationForPool)
}

func TestAddLiquidityUnbalancedMintsBpt(t *testing.T) {
	v := New()
	state := weightedPool([]*big.Int{wad(1000), wad(1000)}, big.NewInt(0))

	result, err := v.AddLiquidity(&models.AddLiquidityInput{
		Kind:            models.AddUnbalanced,
		MaxAmountsInRaw: []*big.Int{wad(100), wad(100)},
	}, state, nil)
	require.NoError(t, err)

	// A proportional 10% deposit mints close to 10% of the supply
	expected := wad(200)
	diff := new(big.Int).Sub(expected, result.BptAmountOut)
	diff.Abs(diff)
	require.True(t, diff.Cmp(wad(1)) < 0, "bpt %s", result.BptAmountOut)
	require.Equal(t, wad(100), result.AmountsInRaw[0])
}

func TestAddLiquidityUnbalancedChargesFeeOnSkew(t *testing.T) {
	v := New()
	deposit := &models.AddLiquidityInput{
		Kind:            models.AddUnbalanced,
		MaxAmountsInRaw: []*big.Int{wad(100), big.NewInt(0)},
	}

	free, err := v.AddLiquidity(deposit, weightedPool([]*big.Int{wad(1000), wad(1000)}, big.NewInt(0)), nil)
	require.NoError(t, err)

	charged, err := v.AddLiquidity(deposit, weightedPool([]*big.Int{wad(1000), wad(1000)}, big.NewInt(1e16)), nil)
	require.NoError(t, err)

	require.True(t, charged.BptAmountOut.Cmp(free.BptAmountOut) < 0,
		"free %s charged %s", free.BptAmountOut, charged.BptAmountOut)
}

func TestAddLiquiditySingleTokenExactOut(t *testing.T) {
	v := New()
	state := weightedPool([]*big.Int{wad(1000), wad(1000)}, big.NewInt(1e16))

	result, err := v.AddLiquidity(&models.AddLiquidityInput{
		Kind:               models.AddSingleTokenExactOut,
		MaxAmountsInRaw:    []*big.Int{wad(1), big.NewInt(0)},
		MinBptAmountOutRaw: wad(20),
	}, state, nil)
	require.NoError(t, err)

	require.Equal(t, wad(20), result.BptAmountOut)
	// Minting 1% of supply against one side of a 50/50 pool costs about
	// 2% of that side's balance, plus fees
	require.True(t, result.AmountsInRaw[0].Cmp(wad(20)) > 0, "in %s", result.AmountsInRaw[0])
	require.True(t, result.AmountsInRaw[0].Cmp(wad(21)) < 0, "in %s", result.AmountsInRaw[0])
	require.Equal(t, 0, result.AmountsInRaw[1].Sign())
}

func TestAddLiquidityInvariantRatioBound(t *testing.T) {
	v := New()
	state := weightedPool([]*big.Int{wad(1000), wad(1000)}, big.NewInt(0))

	// Tripling the invariant is the weighted maximum; minting past it
	// must fail
	_, err := v.AddLiquidity(&models.AddLiquidityInput{
		Kind:               models.AddSingleTokenExactOut,
		MaxAmountsInRaw:    []*big.Int{wad(1), big.NewInt(0)},
		MinBptAmountOutRaw: wad(4001),
	}, state, nil)
	require.ErrorIs(t, err, models.ErrInvariantRatioOutOfBounds)

	// Exactly at the bound the ratio check passes
	result, err := v.AddLiquidity(&models.AddLiquidityInput{
		Kind:               models.AddSingleTokenExactOut,
		MaxAmountsInRaw:    []*big.Int{wad(1), big.NewInt(0)},
		MinBptAmountOutRaw: wad(4000),
	}, state, nil)
	require.NoError(t, err)
	require.Equal(t, wad(4000), result.BptAmountOut)
}

func TestRemoveLiquidityProportional(t *testing.T) {
	v := New()
	state := weightedPool([]*big.Int{wad(1000), wad(4000)}, big.NewInt(1e16))

	result, err := v.RemoveLiquidity(&models.RemoveLiquidityInput{
		Kind:              models.RemoveProportional,
		MinAmountsOutRaw:  []*big.Int{big.NewInt(0), big.NewInt(0)},
		MaxBptAmountInRaw: wad(200), // 10% of supply
	}, state, nil)
	require.NoError(t, err)

	require.Equal(t, wad(200), result.BptAmountIn)
	require.Equal(t, wad(100), result.AmountsOutRaw[0])
	require.Equal(t, wad(400), result.AmountsOutRaw[1])
}

func TestRemoveLiquidityProportionalWorksWithoutUnbalancedSupport(t *testing.T) {
	v := New()
	state := weightedPool([]*big.Int{wad(1000), wad(1000)}, big.NewInt(1e16))
	state.SupportsUnbalancedLiquidity = false

	result, err := v.RemoveLiquidity(&models.RemoveLiquidityInput{
		Kind:              models.RemoveProportional,
		MinAmountsOutRaw:  []*big.Int{big.NewInt(0), big.NewInt(0)},
		MaxBptAmountInRaw: wad(20),
	}, state, nil)
	require.NoError(t, err)
	require.Equal(t, wad(10), result.AmountsOutRaw[0])

	// Single-token kinds stay rejected
	_, err = v.RemoveLiquidity(&models.RemoveLiquidityInput{
		Kind:              models.RemoveSingleTokenExactIn,
		MinAmountsOutRaw:  []*big.Int{wad(1), big.NewInt(0)},
		MaxBptAmountInRaw: wad(20),
	}, state, nil)
	require.ErrorIs(t, err, models.ErrInvalidOperationForPool)
}

func TestRemoveLiquiditySingleTokenExactIn(t *testing.T) {
	v := New()
	state := weightedPool([]*big.Int{wad(1000), wad(1000)}, big.NewInt(1e16))

	result, err := v.RemoveLiquidity(&models.RemoveLiquidityInput{
		Kind:              models.RemoveSingleTokenExactIn,
		MinAmountsOutRaw:  []*big.Int{wad(1), big.NewInt(0)},
		MaxBptAmountInRaw: wad(20), // 1% of supply
	}, state, nil)
	require.NoError(t, err)

	// Burning 1% of supply for one side of a 50/50 pool yields about 2%
	// of that balance, less fees
	out := result.AmountsOutRaw[0]
	require.True(t, out.Cmp(wad(19)) > 0, "out %s", out)
	require.True(t, out.Cmp(wad(20)) < 0, "out %s", out)
	require.Equal(t, 0, result.AmountsOutRaw[1].Sign())
}

func TestRemoveLiquidityRatioBound(t *testing.T) {
	v := New()
	state := weightedPool([]*big.Int{wad(1000), wad(1000)}, big.NewInt(0))

	// Burning 30% of supply puts the ratio at the 0.7 minimum; one more
	// wei of BPT pushes it under
	atBound := wad(600)
	_, err := v.RemoveLiquidity(&models.RemoveLiquidityInput{
		Kind:              models.RemoveSingleTokenExactIn,
		MinAmountsOutRaw:  []*big.Int{wad(1), big.NewInt(0)},
		MaxBptAmountInRaw: atBound,
	}, state, nil)
	require.NoError(t, err)

	_, err = v.RemoveLiquidity(&models.RemoveLiquidityInput{
		Kind:              models.RemoveSingleTokenExactIn,
		MinAmountsOutRaw:  []*big.Int{wad(1), big.NewInt(0)},
		MaxBptAmountInRaw: new(big.Int).Add(atBound, wad(1)),
	}, state, nil)
	require.ErrorIs(t, err, models.ErrInvariantRatioOutOfBounds)
}

func TestRemoveLiquiditySingleTokenExactOutRoundTrip(t *testing.T) {
	v := New()
	state := weightedPool([]*big.Int{wad(1000), wad(1000)}, big.NewInt(1e16))

	exactIn, err := v.RemoveLiquidity(&models.RemoveLiquidityInput{
		Kind:              models.RemoveSingleTokenExactIn,
		MinAmountsOutRaw:  []*big.Int{wad(1), big.NewInt(0)},
		MaxBptAmountInRaw: wad(20),
	}, state, nil)
	require.NoError(t, err)

	// Asking for that exact output burns about the same BPT
	exactOut, err := v.RemoveLiquidity(&models.RemoveLiquidityInput{
		Kind:              models.RemoveSingleTokenExactOut,
		MinAmountsOutRaw:  []*big.Int{exactIn.AmountsOutRaw[0], big.NewInt(0)},
		MaxBptAmountInRaw: wad(100),
	}, state, nil)
	require.NoError(t, err)

	diff := new(big.Int).Sub(exactOut.BptAmountIn, wad(20))
	diff.Abs(diff)
	require.True(t, diff.Cmp(big.NewInt(1e15)) < 0, "bpt in %s", exactOut.BptAmountIn)
}

func exitFeePool(fee *big.Int) (*models.WeightedState, *models.ExitFeeHookState) {
	state := &models.WeightedState{
		PoolState: models.PoolState{
			PoolType:             models.PoolTypeWeighted,
			Tokens:               []common.Address{tokenA, tokenB},
			ScalingFactors:       ones(2),
			TokenRates:           rates(2),
			BalancesLiveScaled18: []*big.Int{big.NewInt(5e15), wad(5)},
			SwapFee:              big.NewInt(0),
			AggregateSwapFee:     big.NewInt(0),
			TotalSupply:          big.NewInt(158113883008415798),
			HookType:             models.HookTypeExitFee,
		},
		Weights: []*big.Int{big.NewInt(5e17), big.NewInt(5e17)},
	}
	hookState := &models.ExitFeeHookState{
		Tokens:                           []common.Address{tokenA, tokenB},
		RemoveLiquidityHookFeePercentage: fee,
	}
	return state, hookState
}

func TestExitFeeHookZeroFee(t *testing.T) {
	v := New()
	state, hookState := exitFeePool(big.NewInt(0))

	result, err := v.RemoveLiquidity(&models.RemoveLiquidityInput{
		Kind:              models.RemoveProportional,
		MinAmountsOutRaw:  []*big.Int{big.NewInt(0), big.NewInt(0)},
		MaxBptAmountInRaw: big.NewInt(1e13),
	}, state, hookState)
	require.NoError(t, err)

	require.Equal(t, big.NewInt(316227766016), result.AmountsOutRaw[0])
	require.Equal(t, big.NewInt(316227766016844), result.AmountsOutRaw[1])
}

func TestExitFeeHookFivePercent(t *testing.T) {
	v := New()
	state, hookState := exitFeePool(big.NewInt(5e16))

	result, err := v.RemoveLiquidity(&models.RemoveLiquidityInput{
		Kind:              models.RemoveProportional,
		MinAmountsOutRaw:  []*big.Int{big.NewInt(0), big.NewInt(0)},
		MaxBptAmountInRaw: big.NewInt(1e13),
	}, state, hookState)
	require.NoError(t, err)

	require.Equal(t, big.NewInt(300416377716), result.AmountsOutRaw[0])
	require.Equal(t, big.NewInt(300416377716002), result.AmountsOutRaw[1])
}

func stableSurgePool() *models.StableState {
	return &models.StableState{
		PoolState: models.PoolState{
			PoolType:             models.PoolTypeStable,
			Tokens:               []common.Address{tokenA, tokenB},
			ScalingFactors:       ones(2),
			TokenRates:           rates(2),
			BalancesLiveScaled18: []*big.Int{wad(10000), wad(10000)},
			SwapFee:              big.NewInt(1e16),
			AggregateSwapFee:     big.NewInt(0),
			TotalSupply:          wad(20000),
			HookType:             models.HookTypeStableSurge,
		},
		Amp: big.NewInt(1_000_000),
	}
}

func TestStableSurgeSmallSwapKeepsStaticFee(t *testing.T) {
	v := New()
	hookState := &models.StableSurgeHookState{
		Amp:                      big.NewInt(1_000_000),
		SurgeThresholdPercentage: big.NewInt(3e17),
		MaxSurgeFeePercentage:    big.NewInt(95e16),
	}

	surged, err := v.Swap(&models.SwapInput{
		Kind:      models.GivenIn,
		AmountRaw: wad(10),
		TokenIn:   tokenA,
		TokenOut:  tokenB,
	}, stableSurgePool(), hookState)
	require.NoError(t, err)

	// The same pool without the hook quotes the same amount
	plain := stableSurgePool()
	plain.HookType = ""
	static, err := v.Swap(&models.SwapInput{
		Kind:      models.GivenIn,
		AmountRaw: wad(10),
		TokenIn:   tokenA,
		TokenOut:  tokenB,
	}, plain, nil)
	require.NoError(t, err)

	require.Equal(t, static, surged)
}

func TestStableSurgeLargeSwapPaysMore(t *testing.T) {
	v := New()
	hookState := &models.StableSurgeHookState{
		Amp:                      big.NewInt(1_000_000),
		SurgeThresholdPercentage: big.NewInt(3e17),
		MaxSurgeFeePercentage:    big.NewInt(95e16),
	}

	surged, err := v.Swap(&models.SwapInput{
		Kind:      models.GivenIn,
		AmountRaw: wad(5000),
		TokenIn:   tokenA,
		TokenOut:  tokenB,
	}, stableSurgePool(), hookState)
	require.NoError(t, err)

	plain := stableSurgePool()
	plain.HookType = ""
	static, err := v.Swap(&models.SwapInput{
		Kind:      models.GivenIn,
		AmountRaw: wad(5000),
		TokenIn:   tokenA,
		TokenOut:  tokenB,
	}, plain, nil)
	require.NoError(t, err)

	// The surged fee leaves the trader with noticeably less out
	require.True(t, surged.Cmp(static) < 0, "static %s surged %s", static, surged)
}

// surgeVectorPool is a heavily one-sided stable pool: token A is nearly
// drained, so its price is far off peg and surge behavior is easy to
// trigger from the B side.
func surgeVectorPool() (*models.StableState, *models.StableSurgeHookState) {
	state := &models.StableState{
		PoolState: models.PoolState{
			PoolType:       models.PoolTypeStable,
			Tokens:         []common.Address{tokenA, tokenB},
			ScalingFactors: ones(2),
			TokenRates:     rates(2),
			BalancesLiveScaled18: []*big.Int{
				big.NewInt(10000000000000000),
				wad(10),
			},
			SwapFee:          big.NewInt(1e16),
			AggregateSwapFee: big.NewInt(1e16),
			TotalSupply:      big.NewInt(9079062661965173292),
			HookType:         models.HookTypeStableSurge,
		},
		Amp: big.NewInt(1_000_000),
	}
	hookState := &models.StableSurgeHookState{
		Amp:                      big.NewInt(1_000_000),
		SurgeThresholdPercentage: big.NewInt(3e17),
		MaxSurgeFeePercentage:    big.NewInt(95e16),
	}
	return state, hookState
}

func TestStableSurgeGoldenQuotes(t *testing.T) {
	v := New()

	// Buying the plentiful token reduces the imbalance, so the static
	// 1% fee applies
	state, hookState := surgeVectorPool()
	out, err := v.Swap(&models.SwapInput{
		Kind:      models.GivenIn,
		AmountRaw: big.NewInt(1e15),
		TokenIn:   tokenA,
		TokenOut:  tokenB,
	}, state, hookState)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(78522716365403684), out)

	state, hookState = surgeVectorPool()
	out, err = v.Swap(&models.SwapInput{
		Kind:      models.GivenIn,
		AmountRaw: big.NewInt(1e16),
		TokenIn:   tokenA,
		TokenOut:  tokenB,
	}, state, hookState)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(452983383563178802), out)

	// The reverse direction deepens the imbalance past the threshold
	// and the surge fee crushes the quote
	state, hookState = surgeVectorPool()
	out, err = v.Swap(&models.SwapInput{
		Kind:      models.GivenIn,
		AmountRaw: wad(8),
		TokenIn:   tokenB,
		TokenOut:  tokenA,
	}, state, hookState)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(3252130027531260), out)
}

func TestRemoveLiquidityDivisionByZeroRecovered(t *testing.T) {
	v := New()
	state := weightedPool([]*big.Int{wad(1000), wad(1000)}, big.NewInt(0))
	state.TotalSupply = big.NewInt(0)

	_, err := v.RemoveLiquidity(&models.RemoveLiquidityInput{
		Kind:              models.RemoveProportional,
		MinAmountsOutRaw:  []*big.Int{big.NewInt(0), big.NewInt(0)},
		MaxBptAmountInRaw: wad(1),
	}, state, nil)
	require.ErrorIs(t, err, models.ErrArithmetic)
}

func TestUnsupportedPoolType(t *testing.T) {
	v := New()
	state := weightedPool([]*big.Int{wad(1000), wad(1000)}, big.NewInt(0))
	state.PoolType = "CONSTANT_SUM"

	_, err := v.Swap(&models.SwapInput{
		Kind:      models.GivenIn,
		AmountRaw: wad(1),
		TokenIn:   tokenA,
		TokenOut:  tokenB,
	}, state, nil)
	require.ErrorIs(t, err, models.ErrUnsupportedPoolType)
}
