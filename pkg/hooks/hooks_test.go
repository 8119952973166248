package hooks

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"quoter/pkg/fixedpoint"
	"quoter/pkg/models"
)

func wad(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), fixedpoint.WAD)
}

func TestNewResolvesHookTypes(t *testing.T) {
	hook, err := New("")
	require.NoError(t, err)
	require.Equal(t, Flags{}, hook.Flags())

	hook, err = New(models.HookTypeExitFee)
	require.NoError(t, err)
	require.True(t, hook.Flags().ShouldCallAfterRemoveLiquidity)
	require.True(t, hook.Flags().EnableHookAdjustedAmounts)

	hook, err = New(models.HookTypeStableSurge)
	require.NoError(t, err)
	require.True(t, hook.Flags().ShouldCallComputeDynamicSwapFee)
	require.False(t, hook.Flags().EnableHookAdjustedAmounts)

	_, err = New("FeeTaking")
	require.ErrorIs(t, err, models.ErrHookFailed)
}

func TestBasePassesThrough(t *testing.T) {
	base := Base{}

	fee, err := base.OnComputeDynamicSwapFee(nil, wad(1), nil)
	require.NoError(t, err)
	require.Equal(t, wad(1), fee)

	raw := []*big.Int{wad(2), wad(3)}
	out, err := base.OnAfterRemoveLiquidity(models.RemoveProportional, nil, nil, raw, nil, nil)
	require.NoError(t, err)
	require.Equal(t, raw, out)
}

func TestExitFeeWithholdsFee(t *testing.T) {
	hook := ExitFee{}
	state := &models.ExitFeeHookState{
		RemoveLiquidityHookFeePercentage: big.NewInt(5e16), // 5%
	}

	amountsOut := []*big.Int{wad(100), wad(200)}
	adjusted, err := hook.OnAfterRemoveLiquidity(models.RemoveProportional, nil, nil, amountsOut, nil, state)
	require.NoError(t, err)

	require.Equal(t, wad(95), adjusted[0])
	require.Equal(t, wad(190), adjusted[1])
	// Inputs are not mutated
	require.Equal(t, wad(100), amountsOut[0])
}

func TestExitFeeZeroFeeIsIdentity(t *testing.T) {
	hook := ExitFee{}
	state := &models.ExitFeeHookState{RemoveLiquidityHookFeePercentage: big.NewInt(0)}

	amountsOut := []*big.Int{wad(100), wad(200)}
	adjusted, err := hook.OnAfterRemoveLiquidity(models.RemoveProportional, nil, nil, amountsOut, nil, state)
	require.NoError(t, err)
	require.Equal(t, wad(100), adjusted[0])
	require.Equal(t, wad(200), adjusted[1])
}

func TestExitFeeRejectsNonProportional(t *testing.T) {
	hook := ExitFee{}
	state := &models.ExitFeeHookState{RemoveLiquidityHookFeePercentage: big.NewInt(5e16)}

	_, err := hook.OnAfterRemoveLiquidity(models.RemoveSingleTokenExactIn, nil, nil, []*big.Int{wad(1)}, nil, state)
	require.ErrorIs(t, err, models.ErrHookFailed)
}

func TestExitFeeRequiresMatchingState(t *testing.T) {
	hook := ExitFee{}
	_, err := hook.OnAfterRemoveLiquidity(models.RemoveProportional, nil, nil, []*big.Int{wad(1)}, nil, nil)
	require.ErrorIs(t, err, models.ErrHookFailed)
}

func surgeState() *models.StableSurgeHookState {
	return &models.StableSurgeHookState{
		Amp:                      big.NewInt(1_000_000),
		SurgeThresholdPercentage: big.NewInt(3e17),  // 30%
		MaxSurgeFeePercentage:    big.NewInt(95e16), // 95%
	}
}

func TestStableSurgeBelowThresholdKeepsStaticFee(t *testing.T) {
	hook := StableSurge{}
	staticFee := big.NewInt(1e16)

	// A balanced pool stays balanced on a small swap
	fee, err := hook.OnComputeDynamicSwapFee(&models.PoolSwapParams{
		Kind:                 models.GivenIn,
		AmountGivenScaled18:  wad(1),
		BalancesLiveScaled18: []*big.Int{wad(10000), wad(10000)},
		IndexIn:              0,
		IndexOut:             1,
	}, staticFee, surgeState())
	require.NoError(t, err)
	require.Equal(t, staticFee, fee)
}

func TestStableSurgeAboveThresholdRaisesFee(t *testing.T) {
	hook := StableSurge{}
	staticFee := big.NewInt(1e16)

	// Draining the scarce side past the threshold surges the fee
	fee, err := hook.OnComputeDynamicSwapFee(&models.PoolSwapParams{
		Kind:                 models.GivenIn,
		AmountGivenScaled18:  wad(5000),
		BalancesLiveScaled18: []*big.Int{wad(10000), wad(10000)},
		IndexIn:              0,
		IndexOut:             1,
	}, staticFee, surgeState())
	require.NoError(t, err)

	require.True(t, fee.Cmp(staticFee) > 0, "fee %s", fee)
	require.True(t, fee.Cmp(surgeState().MaxSurgeFeePercentage) <= 0, "fee %s", fee)
}

func TestStableSurgeRebalancingSwapKeepsStaticFee(t *testing.T) {
	hook := StableSurge{}
	staticFee := big.NewInt(1e16)

	// The pool is already imbalanced; a swap toward parity reduces the
	// imbalance and must not surge
	fee, err := hook.OnComputeDynamicSwapFee(&models.PoolSwapParams{
		Kind:                 models.GivenIn,
		AmountGivenScaled18:  wad(1000),
		BalancesLiveScaled18: []*big.Int{wad(4000), wad(16000)},
		IndexIn:              0,
		IndexOut:             1,
	}, staticFee, surgeState())
	require.NoError(t, err)
	require.Equal(t, staticFee, fee)
}

func TestStableSurgeFeeGrowsWithImbalance(t *testing.T) {
	hook := StableSurge{}
	staticFee := big.NewInt(1e16)
	balances := func() []*big.Int { return []*big.Int{wad(10000), wad(10000)} }

	feeFor := func(amountIn int64) *big.Int {
		fee, err := hook.OnComputeDynamicSwapFee(&models.PoolSwapParams{
			Kind:                 models.GivenIn,
			AmountGivenScaled18:  wad(amountIn),
			BalancesLiveScaled18: balances(),
			IndexIn:              0,
			IndexOut:             1,
		}, staticFee, surgeState())
		require.NoError(t, err)
		return fee
	}

	smaller := feeFor(5000)
	larger := feeFor(8000)
	require.True(t, larger.Cmp(smaller) > 0, "smaller %s larger %s", smaller, larger)
}

func TestStableSurgeRequiresMatchingState(t *testing.T) {
	hook := StableSurge{}
	_, err := hook.OnComputeDynamicSwapFee(&models.PoolSwapParams{}, big.NewInt(1e16), nil)
	require.ErrorIs(t, err, models.ErrHookFailed)
}
