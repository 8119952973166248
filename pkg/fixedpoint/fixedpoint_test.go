package fixedpoint

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func wad(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), WAD)
}

func TestMulRounding(t *testing.T) {
	// 1/3 * 1 truncates down, rounds up by one wei
	third := big.NewInt(333333333333333333)
	down := MulDown(third, third)
	up := MulUp(third, third)

	require.Equal(t, "111111111111111110", down.String())
	require.Equal(t, "111111111111111111", up.String())
	require.Equal(t, 1, new(big.Int).Sub(up, down).Cmp(big.NewInt(0)))
}

func TestMulExact(t *testing.T) {
	// Exact products must not be bumped by the round-up variant
	a := wad(3)
	b := wad(7)
	require.Equal(t, wad(21), MulDown(a, b))
	require.Equal(t, wad(21), MulUp(a, b))
}

func TestDivRounding(t *testing.T) {
	one := wad(1)
	three := wad(3)

	down := DivDown(one, three)
	up := DivUp(one, three)

	require.Equal(t, "333333333333333333", down.String())
	require.Equal(t, "333333333333333334", up.String())

	// Exact quotients agree in both directions
	require.Equal(t, wad(2), DivDown(wad(6), wad(3)))
	require.Equal(t, wad(2), DivUp(wad(6), wad(3)))
}

func TestDivUpRaw(t *testing.T) {
	require.Equal(t, big.NewInt(4), DivUpRaw(big.NewInt(10), big.NewInt(3)))
	require.Equal(t, big.NewInt(3), DivUpRaw(big.NewInt(9), big.NewInt(3)))
	require.Equal(t, big.NewInt(0), DivUpRaw(big.NewInt(0), big.NewInt(3)))
}

func TestDivByZeroPanics(t *testing.T) {
	require.Panics(t, func() { DivDown(wad(1), big.NewInt(0)) })
	require.Panics(t, func() { DivUp(wad(1), big.NewInt(0)) })
}

func TestMulDiv(t *testing.T) {
	// 10 * 7 / 3 in raw units
	down := MulDivDown(big.NewInt(10), big.NewInt(7), big.NewInt(3))
	up := MulDivUp(big.NewInt(10), big.NewInt(7), big.NewInt(3))
	require.Equal(t, big.NewInt(23), down)
	require.Equal(t, big.NewInt(24), up)
}

func TestComplement(t *testing.T) {
	fee := big.NewInt(3e17)
	require.Equal(t, big.NewInt(7e17), Complement(fee))
	require.Equal(t, big.NewInt(0), Complement(wad(1)))
	// Values above one clamp to zero instead of going negative
	require.Equal(t, big.NewInt(0), Complement(wad(2)))
}

func TestPowIdentities(t *testing.T) {
	x := wad(4)

	// Whole exponents short-circuit and are exact
	require.Equal(t, x, PowDown(x, WAD))
	require.Equal(t, x, PowUp(x, WAD))
	require.Equal(t, wad(16), PowDown(x, wad(2)))
	require.Equal(t, wad(16), PowUp(x, wad(2)))
	require.Equal(t, wad(256), PowDown(x, wad(4)))

	// x^0 takes the approximation path: one WAD within the error margin
	down := PowDown(x, big.NewInt(0))
	up := PowUp(x, big.NewInt(0))
	require.True(t, down.Cmp(WAD) < 0)
	require.True(t, up.Cmp(WAD) > 0)
	require.True(t, new(big.Int).Sub(up, down).Cmp(big.NewInt(30000)) < 0)
}

func TestPowDownBelowPowUp(t *testing.T) {
	x := big.NewInt(1_234_567_890_123_456_789)
	y := big.NewInt(3e17)

	down := PowDown(x, y)
	up := PowUp(x, y)
	require.True(t, down.Cmp(up) <= 0)

	// The two bounds straddle a narrow band around the true value
	spread := new(big.Int).Sub(up, down)
	maxSpread := MulUp(up, big.NewInt(100_000))
	require.True(t, spread.Cmp(maxSpread) <= 0)
}

func TestPowDownClampsToZero(t *testing.T) {
	// 0.5^59 is about 1.7e-18, under the error margin, and must clamp
	// at zero rather than go negative
	result := PowDown(big.NewInt(5e17), wad(59))
	require.Equal(t, 0, result.Sign())
}

func TestPowHalfIsSqrt(t *testing.T) {
	half := big.NewInt(5e17)
	result := PowDown(wad(4), half)

	// sqrt(4) = 2 within the pow error margin
	diff := new(big.Int).Sub(wad(2), result)
	diff.Abs(diff)
	require.True(t, diff.Cmp(big.NewInt(1e6)) < 0, "got %s", result)
}
