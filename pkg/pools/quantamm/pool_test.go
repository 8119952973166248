package quantamm

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

func twoTokenMutable() models.QuantAMMMutable {
	return models.QuantAMMMutable{
		// weights 0.6/0.4, multipliers +1e-6/s and -1e-6/s
		FirstFourWeightsAndMultipliers: []*big.Int{
			big.NewInt(6e17), big.NewInt(4e17),
			big.NewInt(1e12), big.NewInt(-1e12),
		},
		LastUpdateTime:   1000,
		LastInteropTime:  2000,
		CurrentTimestamp: 1100,
	}
}

func TestInterpolatedWeightsDrift(t *testing.T) {
	weights := interpolatedWeights(2, twoTokenMutable())

	// 100 seconds of +-1e-6/s drift moves each weight by 1e-4
	require.Equal(t, big.NewInt(6001e14), weights[0])
	require.Equal(t, big.NewInt(3999e14), weights[1])

	sum := new(big.Int).Add(weights[0], weights[1])
	require.Equal(t, fixedpoint.WAD, sum)
}

func TestInterpolationCapsAtInteropTime(t *testing.T) {
	mutable := twoTokenMutable()
	mutable.CurrentTimestamp = 5000

	// Beyond LastInteropTime the drift stops accruing
	capped := interpolatedWeights(2, mutable)
	mutable.CurrentTimestamp = 2000
	atInterop := interpolatedWeights(2, mutable)

	require.Equal(t, atInterop[0], capped[0])
	require.Equal(t, atInterop[1], capped[1])
}

func TestInterpolationBeforeUpdateTime(t *testing.T) {
	mutable := twoTokenMutable()
	mutable.CurrentTimestamp = 1000

	weights := interpolatedWeights(2, mutable)
	require.Equal(t, big.NewInt(6e17), weights[0])
	require.Equal(t, big.NewInt(4e17), weights[1])
}

func TestUnpackSecondFour(t *testing.T) {
	mutable := models.QuantAMMMutable{
		FirstFourWeightsAndMultipliers: []*big.Int{
			big.NewInt(2e17), big.NewInt(2e17), big.NewInt(2e17), big.NewInt(2e17),
			big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0),
		},
		SecondFourWeightsAndMultipliers: []*big.Int{
			big.NewInt(1e17), big.NewInt(1e17),
			big.NewInt(5e11), big.NewInt(-5e11),
		},
	}

	weight, multiplier := unpack(4, mutable)
	require.Equal(t, big.NewInt(1e17), weight)
	require.Equal(t, big.NewInt(5e11), multiplier)

	weight, multiplier = unpack(5, mutable)
	require.Equal(t, big.NewInt(1e17), weight)
	require.Equal(t, big.NewInt(-5e11), multiplier)
}

func TestTradeSizeCapOnGivenLeg(t *testing.T) {
	pool := New(2, models.QuantAMMImmutable{MaxTradeSizeRatio: big.NewInt(1e17)}, twoTokenMutable())
	balances := []*big.Int{wad(1000), wad(1000)}

	// 10% of the input balance is the cap; one wei above fails. Selling
	// the lower-weight token keeps the computed output under its own
	// cap, so only the given leg is in play.
	atCap := wad(100)
	_, err := pool.OnSwap(&models.PoolSwapParams{
		Kind:                 models.GivenIn,
		AmountGivenScaled18:  atCap,
		BalancesLiveScaled18: balances,
		IndexIn:              1,
		IndexOut:             0,
	})
	require.NoError(t, err)

	_, err = pool.OnSwap(&models.PoolSwapParams{
		Kind:                 models.GivenIn,
		AmountGivenScaled18:  new(big.Int).Add(atCap, big.NewInt(1)),
		BalancesLiveScaled18: balances,
		IndexIn:              1,
		IndexOut:             0,
	})
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestTradeSizeCapOnCalculatedLeg(t *testing.T) {
	pool := New(2, models.QuantAMMImmutable{MaxTradeSizeRatio: big.NewInt(1e17)}, twoTokenMutable())

	// The output balance is tiny, so even a small permitted input
	// computes an output above 10% of the output side
	balances := []*big.Int{wad(100000), wad(100)}
	_, err := pool.OnSwap(&models.PoolSwapParams{
		Kind:                 models.GivenIn,
		AmountGivenScaled18:  wad(10000),
		BalancesLiveScaled18: balances,
		IndexIn:              0,
		IndexOut:             1,
	})
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestGivenOutCapChecksOutputBalance(t *testing.T) {
	pool := New(2, models.QuantAMMImmutable{MaxTradeSizeRatio: big.NewInt(1e17)}, twoTokenMutable())
	balances := []*big.Int{wad(1000), wad(1000)}

	_, err := pool.OnSwap(&models.PoolSwapParams{
		Kind:                 models.GivenOut,
		AmountGivenScaled18:  wad(101),
		BalancesLiveScaled18: balances,
		IndexIn:              0,
		IndexOut:             1,
	})
	require.ErrorIs(t, err, models.ErrInvalidInput)
}
