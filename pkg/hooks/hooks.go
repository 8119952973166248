// Package hooks implements the pool lifecycle extension points. A hook
// declares which callbacks it wants through its flags; the vault invokes
// only those, passing the hook state decoded alongside the pool
// snapshot.
package hooks

import (
	"fmt"
	"math/big"

	"quoter/pkg/models"
)

// Flags declares a hook's callback subscriptions. When
// EnableHookAdjustedAmounts is set the vault adopts the raw amounts the
// after callbacks return; otherwise their return values are ignored.
type Flags struct {
	EnableHookAdjustedAmounts       bool
	ShouldCallComputeDynamicSwapFee bool
	ShouldCallBeforeSwap            bool
	ShouldCallAfterSwap             bool
	ShouldCallBeforeAddLiquidity    bool
	ShouldCallAfterAddLiquidity     bool
	ShouldCallBeforeRemoveLiquidity bool
	ShouldCallAfterRemoveLiquidity  bool
}

// AfterSwapParams carries the settled swap to the after-swap callback.
// Balances are the post-swap live scaled balances.
type AfterSwapParams struct {
	Kind                     models.SwapKind
	IndexIn                  int
	IndexOut                 int
	AmountInScaled18         *big.Int
	AmountOutScaled18        *big.Int
	TokenInBalanceScaled18   *big.Int
	TokenOutBalanceScaled18  *big.Int
	AmountCalculatedScaled18 *big.Int
	AmountCalculatedRaw      *big.Int
}

// Hook is the full callback surface. Before callbacks may return
// adjusted balances the rest of the operation proceeds on; after
// callbacks may return adjusted raw amounts.
type Hook interface {
	Flags() Flags

	OnComputeDynamicSwapFee(p *models.PoolSwapParams, staticSwapFee *big.Int, hookState models.HookState) (*big.Int, error)
	OnBeforeSwap(p *models.PoolSwapParams, hookState models.HookState) ([]*big.Int, error)
	OnAfterSwap(p *AfterSwapParams, hookState models.HookState) (*big.Int, error)

	OnBeforeAddLiquidity(kind models.AddLiquidityKind, maxAmountsInScaled18 []*big.Int, minBptAmountOut *big.Int, balancesScaled18 []*big.Int, hookState models.HookState) ([]*big.Int, error)
	OnAfterAddLiquidity(kind models.AddLiquidityKind, amountsInScaled18, amountsInRaw []*big.Int, bptAmountOut *big.Int, balancesScaled18 []*big.Int, hookState models.HookState) ([]*big.Int, error)

	OnBeforeRemoveLiquidity(kind models.RemoveLiquidityKind, maxBptAmountIn *big.Int, minAmountsOutScaled18 []*big.Int, balancesScaled18 []*big.Int, hookState models.HookState) ([]*big.Int, error)
	OnAfterRemoveLiquidity(kind models.RemoveLiquidityKind, bptAmountIn *big.Int, amountsOutScaled18, amountsOutRaw []*big.Int, balancesScaled18 []*big.Int, hookState models.HookState) ([]*big.Int, error)
}

// Base is the no-op hook every concrete hook embeds; it subscribes to
// nothing and passes values through unchanged.
type Base struct{}

func (Base) Flags() Flags { return Flags{} }

func (Base) OnComputeDynamicSwapFee(_ *models.PoolSwapParams, staticSwapFee *big.Int, _ models.HookState) (*big.Int, error) {
	return staticSwapFee, nil
}

func (Base) OnBeforeSwap(p *models.PoolSwapParams, _ models.HookState) ([]*big.Int, error) {
	return p.BalancesLiveScaled18, nil
}

func (Base) OnAfterSwap(p *AfterSwapParams, _ models.HookState) (*big.Int, error) {
	return p.AmountCalculatedRaw, nil
}

func (Base) OnBeforeAddLiquidity(_ models.AddLiquidityKind, _ []*big.Int, _ *big.Int, balancesScaled18 []*big.Int, _ models.HookState) ([]*big.Int, error) {
	return balancesScaled18, nil
}

func (Base) OnAfterAddLiquidity(_ models.AddLiquidityKind, _, amountsInRaw []*big.Int, _ *big.Int, _ []*big.Int, _ models.HookState) ([]*big.Int, error) {
	return amountsInRaw, nil
}

func (Base) OnBeforeRemoveLiquidity(_ models.RemoveLiquidityKind, _ *big.Int, _ []*big.Int, balancesScaled18 []*big.Int, _ models.HookState) ([]*big.Int, error) {
	return balancesScaled18, nil
}

func (Base) OnAfterRemoveLiquidity(_ models.RemoveLiquidityKind, _ *big.Int, _, amountsOutRaw []*big.Int, _ []*big.Int, _ models.HookState) ([]*big.Int, error) {
	return amountsOutRaw, nil
}

// New resolves a hook type discriminator; the empty string means the
// pool has no hook.
func New(hookType string) (Hook, error) {
	switch hookType {
	case "":
		return Base{}, nil
	case models.HookTypeExitFee:
		return ExitFee{}, nil
	case models.HookTypeStableSurge:
		return StableSurge{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown hook type %q", models.ErrHookFailed, hookType)
	}
}
