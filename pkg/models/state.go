// Package models defines the typed pool-state snapshots, operation
// records and hook states consumed by the quoting engine. A snapshot is
// built once per call from an external source, read by the engine, and
// discarded; nothing in this package is mutated by the math layers.
package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Pool type discriminators, matching the wire-level poolType field.
const (
	PoolTypeWeighted               = "WEIGHTED"
	PoolTypeStable                 = "STABLE"
	PoolTypeGyroECLP               = "GYROE"
	PoolTypeLiquidityBootstrapping = "LIQUIDITY_BOOTSTRAPPING"
	PoolTypeReClamm                = "RECLAMM"
	PoolTypeReClammV2              = "RECLAMM_V2"
	PoolTypeQuantAMMWeighted       = "QUANT_AMM_WEIGHTED"
	PoolTypeBuffer                 = "BUFFER"
)

// Hook type discriminators.
const (
	HookTypeExitFee     = "ExitFee"
	HookTypeStableSurge = "StableSurge"
)

// PoolState is the variant-independent snapshot of a pool. Token order is
// significant: the index into Tokens is the canonical token reference and
// aligns with ScalingFactors, TokenRates and BalancesLiveScaled18.
type PoolState struct {
	PoolType    string
	PoolAddress common.Address
	Tokens      []common.Address

	// ScalingFactors normalize raw token decimals to 18 (1 for an
	// 18-decimal token, 1e12 for a 6-decimal token). TokenRates carry an
	// additional WAD-scaled rate, e.g. for yield-bearing wrappers.
	ScalingFactors []*big.Int
	TokenRates     []*big.Int

	BalancesLiveScaled18 []*big.Int

	// SwapFee and AggregateSwapFee are WAD-scaled fractions in [0, 1].
	SwapFee          *big.Int
	AggregateSwapFee *big.Int

	TotalSupply *big.Int

	SupportsUnbalancedLiquidity bool

	// HookType is empty for hookless pools.
	HookType string
}

// Base returns the variant-independent part of the snapshot.
func (s *PoolState) Base() *PoolState { return s }

// View is implemented by every pool-state variant and yields the shared
// base snapshot. The vault dispatches on Base().PoolType, never on the
// concrete Go type.
type View interface {
	Base() *PoolState
}

// WeightedState is the snapshot of a constant-weighted-product pool.
// Weights are WAD-normalized and sum to exactly one WAD.
type WeightedState struct {
	PoolState
	Weights []*big.Int
}

// StableState is the snapshot of a StableSwap pool. Amp carries the
// amplification parameter at 1e3 precision.
type StableState struct {
	PoolState
	Amp *big.Int
}

// EclpParams are the immutable rotation/stretch parameters of an ECLP
// curve: price bounds alpha/beta, rotation sine/cosine s/c and stretch
// factor lambda, all WAD-scaled signed values.
type EclpParams struct {
	Alpha  *big.Int
	Beta   *big.Int
	C      *big.Int
	S      *big.Int
	Lambda *big.Int
}

// EclpDerivedParams are the precomputed 38-decimal constants derived from
// EclpParams, stored so swap-time math avoids re-deriving the
// trigonometric transforms.
type EclpDerivedParams struct {
	TauAlphaX *big.Int
	TauAlphaY *big.Int
	TauBetaX  *big.Int
	TauBetaY  *big.Int
	U         *big.Int
	V         *big.Int
	W         *big.Int
	Z         *big.Int
	DSq       *big.Int
}

// GyroECLPState is the snapshot of an elliptic concentrated-liquidity
// pool.
type GyroECLPState struct {
	PoolState
	Params  EclpParams
	Derived EclpDerivedParams
}

// LBPImmutable are the deployment-time parameters of a
// liquidity-bootstrapping pool. Weights are interpolated between the
// start and end vectors over [StartTime, EndTime].
type LBPImmutable struct {
	ProjectTokenIndex           int
	IsProjectTokenSwapInBlocked bool
	StartWeights                []*big.Int
	EndWeights                  []*big.Int
	StartTime                   uint64
	EndTime                     uint64
}

// LBPMutable is the live portion of a liquidity-bootstrapping snapshot.
// CurrentTimestamp is read-only to the engine; callers refresh it between
// calls. Effective weights are derived from it at call time and never
// persisted.
type LBPMutable struct {
	IsSwapEnabled    bool
	CurrentTimestamp uint64
}

// LiquidityBootstrappingState is the snapshot of an LBP.
type LiquidityBootstrappingState struct {
	PoolState
	Immutable LBPImmutable
	Mutable   LBPMutable
}

// PriceRatioState tracks an in-flight price-ratio update of a ReClamm
// pool. The fourth-root price ratio interpolates between the start and
// end values over the update window.
type PriceRatioState struct {
	StartFourthRootPriceRatio *big.Int
	EndFourthRootPriceRatio   *big.Int
	PriceRatioUpdateStartTime uint64
	PriceRatioUpdateEndTime   uint64
}

// ReClammImmutable are the range-maintenance parameters of a readjusting
// concentrated-liquidity pool.
type ReClammImmutable struct {
	// DailyPriceShiftBase is the WAD-scaled per-second decay base the
	// virtual balances follow while the pool is out of range.
	DailyPriceShiftBase *big.Int
	CenterednessMargin  *big.Int
}

// ReClammMutable is the live portion of a ReClamm snapshot. Virtual
// balances are re-derived from these fields at call time.
type ReClammMutable struct {
	LastTimestamp       uint64
	CurrentTimestamp    uint64
	LastVirtualBalances []*big.Int
	PriceRatioState     PriceRatioState
}

// ReClammState is the snapshot of a readjusting concentrated-liquidity
// pool (two tokens only). The V2 variant differs solely in centeredness
// accounting and is selected by PoolType.
type ReClammState struct {
	PoolState
	Immutable ReClammImmutable
	Mutable   ReClammMutable
}

// QuantAMMImmutable is the deployment-time portion of a QuantAMM
// weighted snapshot.
type QuantAMMImmutable struct {
	// MaxTradeSizeRatio caps a single swap's amount in and amount out as
	// a WAD fraction of the respective balance.
	MaxTradeSizeRatio *big.Int
}

// QuantAMMMutable is the live portion of a QuantAMM weighted snapshot.
// Weight vectors are packed as up to four weights followed by up to four
// per-second multipliers; tokens five through eight use the second pack.
type QuantAMMMutable struct {
	FirstFourWeightsAndMultipliers  []*big.Int
	SecondFourWeightsAndMultipliers []*big.Int
	LastUpdateTime                  uint64
	LastInteropTime                 uint64
	CurrentTimestamp                uint64
}

// QuantAMMWeightedState is the snapshot of a QuantAMM managed-weight
// pool.
type QuantAMMWeightedState struct {
	PoolState
	Immutable QuantAMMImmutable
	Mutable   QuantAMMMutable
}

// BufferState is the snapshot of an ERC4626 buffer: a two-token
// wrapped/underlying pass-through with no curve parameters. Tokens[0] is
// the underlying asset and Tokens[1] the wrapped share token; Rate is the
// wrapped token's WAD-scaled redemption rate. Buffers bypass fees and
// hooks entirely, so the base fee fields stay unset.
type BufferState struct {
	PoolState
	Rate *big.Int
}
