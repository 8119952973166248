// Package vault orchestrates quotes over pool snapshots: it scales raw
// amounts into the 18-decimal curve domain, applies swap fees and hook
// callbacks, delegates the curve math to the pool variant and unscales
// the result. All rounding favors the pool.
package vault

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"quoter/pkg/models"
	"quoter/pkg/pools/buffer"
)

// Vault is stateless; a single instance serves concurrent quotes.
type Vault struct{}

func New() *Vault { return &Vault{} }

// Swap quotes a single swap against one pool snapshot and returns the
// calculated raw amount: the amount out for GivenIn, the amount in for
// GivenOut. A zero given amount short-circuits to zero.
func (v *Vault) Swap(input *models.SwapInput, state models.View, hookState models.HookState) (amount *big.Int, err error) {
	defer recoverArithmetic(&err)

	if input.AmountRaw.Sign() == 0 {
		return new(big.Int), nil
	}

	base := state.Base()
	if base.PoolType == models.PoolTypeBuffer {
		return v.bufferSwap(input, state)
	}
	return v.poolSwap(input, base, state, hookState)
}

func (v *Vault) bufferSwap(input *models.SwapInput, state models.View) (*big.Int, error) {
	s, ok := state.(*models.BufferState)
	if !ok {
		return nil, fmt.Errorf("%w: buffer snapshot is not a buffer state", models.ErrInvalidInput)
	}
	indexIn, _, err := tokenIndices(s.Base(), input.TokenIn, input.TokenOut)
	if err != nil {
		return nil, err
	}
	wrapping := indexIn == 0
	return buffer.CalculateBufferAmounts(input.Kind, input.AmountRaw, s.Rate, wrapping)
}

func tokenIndices(base *models.PoolState, tokenIn, tokenOut common.Address) (int, int, error) {
	indexIn, indexOut := -1, -1
	for i, t := range base.Tokens {
		if t == tokenIn {
			indexIn = i
		}
		if t == tokenOut {
			indexOut = i
		}
	}
	if indexIn < 0 || indexOut < 0 || indexIn == indexOut {
		return 0, 0, fmt.Errorf("%w: swap tokens not in pool", models.ErrInvalidInput)
	}
	return indexIn, indexOut, nil
}

// recoverArithmetic converts math panics (zero division, domain bounds)
// into an error so callers never see a panic cross the package boundary.
func recoverArithmetic(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", models.ErrArithmetic, r)
	}
}
