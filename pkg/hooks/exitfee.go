package hooks

import (
	"fmt"
	"math/big"

	"quoter/pkg/fixedpoint"
	"quoter/pkg/models"
)

// ExitFee charges a percentage fee on the tokens paid out by a
// proportional remove. The fee is taken on raw amounts after unscaling,
// so the tokens withheld stay in the pool for the remaining holders.
type ExitFee struct {
	Base
}

func (ExitFee) Flags() Flags {
	return Flags{
		EnableHookAdjustedAmounts:      true,
		ShouldCallAfterRemoveLiquidity: true,
	}
}

func (ExitFee) OnAfterRemoveLiquidity(kind models.RemoveLiquidityKind, _ *big.Int, _, amountsOutRaw []*big.Int, _ []*big.Int, hookState models.HookState) ([]*big.Int, error) {
	state, ok := hookState.(*models.ExitFeeHookState)
	if !ok {
		return nil, fmt.Errorf("%w: exit fee hook requires exit fee state", models.ErrHookFailed)
	}
	if kind != models.RemoveProportional {
		return nil, fmt.Errorf("%w: exit fee hook supports proportional removes only", models.ErrHookFailed)
	}

	adjusted := make([]*big.Int, len(amountsOutRaw))
	for i, amount := range amountsOutRaw {
		if state.RemoveLiquidityHookFeePercentage.Sign() > 0 {
			fee := fixedpoint.MulDown(amount, state.RemoveLiquidityHookFeePercentage)
			adjusted[i] = new(big.Int).Sub(amount, fee)
		} else {
			adjusted[i] = new(big.Int).Set(amount)
		}
	}
	return adjusted, nil
}
