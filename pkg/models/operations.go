package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SwapKind selects which side of a swap is fixed by the caller.
type SwapKind int

const (
	// GivenIn fixes the amount the user sends in.
	GivenIn SwapKind = iota
	// GivenOut fixes the amount the user wants out.
	GivenOut
)

// AddLiquidityKind selects how a liquidity deposit is specified.
type AddLiquidityKind int

const (
	// AddUnbalanced deposits exact token amounts for whatever BPT they
	// mint.
	AddUnbalanced AddLiquidityKind = iota
	// AddSingleTokenExactOut deposits a single token for an exact BPT
	// amount.
	AddSingleTokenExactOut
)

// RemoveLiquidityKind selects how a liquidity withdrawal is specified.
type RemoveLiquidityKind int

const (
	// RemoveProportional burns exact BPT for a proportional share of
	// every token.
	RemoveProportional RemoveLiquidityKind = iota
	// RemoveSingleTokenExactIn burns exact BPT for a single token.
	RemoveSingleTokenExactIn
	// RemoveSingleTokenExactOut burns whatever BPT is needed for an
	// exact amount of a single token.
	RemoveSingleTokenExactOut
)

// Rounding selects the direction curve invariants are rounded in.
type Rounding int

const (
	RoundDown Rounding = iota
	RoundUp
)

// SwapInput is a raw-unit swap request.
type SwapInput struct {
	Kind      SwapKind
	AmountRaw *big.Int
	TokenIn   common.Address
	TokenOut  common.Address
}

// AddLiquidityInput is a raw-unit deposit request. For AddUnbalanced,
// MaxAmountsInRaw holds the exact amounts per token; for
// AddSingleTokenExactOut it holds a single non-zero entry marking the
// input token, and MinBptAmountOutRaw the exact BPT target.
type AddLiquidityInput struct {
	Kind               AddLiquidityKind
	MaxAmountsInRaw    []*big.Int
	MinBptAmountOutRaw *big.Int
}

// RemoveLiquidityInput is a raw-unit withdrawal request. For the
// single-token kinds, MinAmountsOutRaw holds one non-zero entry marking
// the output token (exact for RemoveSingleTokenExactOut).
type RemoveLiquidityInput struct {
	Kind              RemoveLiquidityKind
	MinAmountsOutRaw  []*big.Int
	MaxBptAmountInRaw *big.Int
}

// AddLiquidityResult reports the outcome of a deposit in raw units.
type AddLiquidityResult struct {
	BptAmountOut *big.Int
	AmountsInRaw []*big.Int
}

// RemoveLiquidityResult reports the outcome of a withdrawal in raw
// units.
type RemoveLiquidityResult struct {
	BptAmountIn   *big.Int
	AmountsOutRaw []*big.Int
}

// PoolSwapParams carries a scaled swap through the curve layer. Balances
// are live 18-decimal values, already adjusted by any before-swap hook.
type PoolSwapParams struct {
	Kind                 SwapKind
	AmountGivenScaled18  *big.Int
	BalancesLiveScaled18 []*big.Int
	IndexIn              int
	IndexOut             int
}

// HookState is the marker interface for per-hook configuration passed
// alongside an operation.
type HookState interface{ isHookState() }

// ExitFeeHookState configures the exit-fee hook: a WAD fraction withheld
// from every token of a proportional withdrawal.
type ExitFeeHookState struct {
	Tokens                           []common.Address
	RemoveLiquidityHookFeePercentage *big.Int
}

func (ExitFeeHookState) isHookState() {}

// StableSurgeHookState configures the surge-fee hook for stable pools.
type StableSurgeHookState struct {
	Amp                      *big.Int
	SurgeThresholdPercentage *big.Int
	MaxSurgeFeePercentage    *big.Int
}

func (StableSurgeHookState) isHookState() {}
