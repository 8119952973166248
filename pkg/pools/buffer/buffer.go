// Package buffer implements ERC4626 buffer quotes: a direct
// wrap/unwrap conversion at the wrapped token's redemption rate. Buffers
// have no curve, charge no fees and call no hooks; the vault routes to
// them directly.
package buffer

import (
	"fmt"
	"math/big"

	"quoter/pkg/fixedpoint"
	"quoter/pkg/models"
)

// minimumWrapAmount filters out dust conversions whose rounding error
// would dominate the result.
var minimumWrapAmount = big.NewInt(10_000)

// CalculateBufferAmounts converts between the underlying asset (token 0)
// and the wrapped share token (token 1) at the given redemption rate.
// Direction follows from the token indices: underlying in means wrap.
// Results round against the caller in all four quadrants.
func CalculateBufferAmounts(kind models.SwapKind, amountRaw *big.Int, rate *big.Int, wrapping bool) (*big.Int, error) {
	if amountRaw.Cmp(minimumWrapAmount) < 0 {
		return nil, fmt.Errorf("%w: wrap amount below minimum", models.ErrInvalidInput)
	}

	if kind == models.GivenIn {
		if wrapping {
			// Underlying in, shares out.
			return fixedpoint.DivDown(amountRaw, rate), nil
		}
		// Shares in, underlying out.
		return fixedpoint.MulDown(amountRaw, rate), nil
	}

	if wrapping {
		// Shares out are fixed, charge the underlying in.
		return fixedpoint.MulUp(amountRaw, rate), nil
	}
	// Underlying out is fixed, charge the shares in.
	return fixedpoint.DivUp(amountRaw, rate), nil
}
