// Package decoder turns pool wire records, as produced by an external
// pool-state mapper, into typed engine snapshots. Numbers arrive as
// decimal strings so arbitrary-precision values survive JSON.
package decoder

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"quoter/pkg/models"
)

// PoolRecord is the raw wire form of a pool snapshot. Variant fields
// are populated only for their pool type.
type PoolRecord struct {
	PoolType                    string   `json:"poolType"`
	PoolAddress                 string   `json:"poolAddress"`
	Tokens                      []string `json:"tokens"`
	ScalingFactors              []string `json:"scalingFactors"`
	TokenRates                  []string `json:"tokenRates"`
	BalancesLiveScaled18        []string `json:"balancesLiveScaled18"`
	SwapFee                     string   `json:"swapFee"`
	AggregateSwapFee            string   `json:"aggregateSwapFee"`
	TotalSupply                 string   `json:"totalSupply"`
	SupportsUnbalancedLiquidity bool     `json:"supportsUnbalancedLiquidity"`
	HookType                    string   `json:"hookType,omitempty"`

	// Weighted
	Weights []string `json:"weights,omitempty"`

	// Stable
	Amp string `json:"amp,omitempty"`

	// GyroECLP
	ParamsAlpha  string `json:"paramsAlpha,omitempty"`
	ParamsBeta   string `json:"paramsBeta,omitempty"`
	ParamsC      string `json:"paramsC,omitempty"`
	ParamsS      string `json:"paramsS,omitempty"`
	ParamsLambda string `json:"paramsLambda,omitempty"`
	TauAlphaX    string `json:"tauAlphaX,omitempty"`
	TauAlphaY    string `json:"tauAlphaY,omitempty"`
	TauBetaX     string `json:"tauBetaX,omitempty"`
	TauBetaY     string `json:"tauBetaY,omitempty"`
	U            string `json:"u,omitempty"`
	V            string `json:"v,omitempty"`
	W            string `json:"w,omitempty"`
	Z            string `json:"z,omitempty"`
	DSq          string `json:"dSq,omitempty"`

	// LiquidityBootstrapping
	ProjectTokenIndex           int      `json:"projectTokenIndex,omitempty"`
	IsProjectTokenSwapInBlocked bool     `json:"isProjectTokenSwapInBlocked,omitempty"`
	StartWeights                []string `json:"startWeights,omitempty"`
	EndWeights                  []string `json:"endWeights,omitempty"`
	StartTime                   uint64   `json:"startTime,omitempty"`
	EndTime                     uint64   `json:"endTime,omitempty"`
	IsSwapEnabled               bool     `json:"isSwapEnabled,omitempty"`
	CurrentTimestamp            uint64   `json:"currentTimestamp,omitempty"`

	// ReClamm
	LastTimestamp             uint64   `json:"lastTimestamp,omitempty"`
	LastVirtualBalances       []string `json:"lastVirtualBalances,omitempty"`
	DailyPriceShiftBase       string   `json:"dailyPriceShiftBase,omitempty"`
	CenterednessMargin        string   `json:"centerednessMargin,omitempty"`
	StartFourthRootPriceRatio string   `json:"startFourthRootPriceRatio,omitempty"`
	EndFourthRootPriceRatio   string   `json:"endFourthRootPriceRatio,omitempty"`
	PriceRatioUpdateStartTime uint64   `json:"priceRatioUpdateStartTime,omitempty"`
	PriceRatioUpdateEndTime   uint64   `json:"priceRatioUpdateEndTime,omitempty"`

	// QuantAMM
	FirstFourWeightsAndMultipliers  []string `json:"firstFourWeightsAndMultipliers,omitempty"`
	SecondFourWeightsAndMultipliers []string `json:"secondFourWeightsAndMultipliers,omitempty"`
	LastUpdateTime                  uint64   `json:"lastUpdateTime,omitempty"`
	LastInteropTime                 uint64   `json:"lastInteropTime,omitempty"`
	MaxTradeSizeRatio               string   `json:"maxTradeSizeRatio,omitempty"`

	// Buffer
	Rate string `json:"rate,omitempty"`
}

// DecodePool parses a wire record into the snapshot type matching its
// poolType discriminator.
func DecodePool(data []byte) (models.View, error) {
	var record PoolRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: parsing pool record: %v", models.ErrInvalidInput, err)
	}
	return record.ToState()
}

// ToState converts a parsed wire record into the typed snapshot.
func (r *PoolRecord) ToState() (models.View, error) {
	base, err := r.baseState()
	if err != nil {
		return nil, err
	}

	switch r.PoolType {
	case models.PoolTypeWeighted:
		weights, err := parseBigs("weights", r.Weights)
		if err != nil {
			return nil, err
		}
		if len(weights) != len(base.Tokens) {
			return nil, fmt.Errorf("%w: weights length %d does not match %d tokens", models.ErrInvalidInput, len(weights), len(base.Tokens))
		}
		return &models.WeightedState{PoolState: *base, Weights: weights}, nil

	case models.PoolTypeStable:
		amp, err := parseBig("amp", r.Amp)
		if err != nil {
			return nil, err
		}
		return &models.StableState{PoolState: *base, Amp: amp}, nil

	case models.PoolTypeGyroECLP:
		return r.eclpState(base)

	case models.PoolTypeLiquidityBootstrapping:
		return r.lbpState(base)

	case models.PoolTypeReClamm, models.PoolTypeReClammV2:
		return r.reclammState(base)

	case models.PoolTypeQuantAMMWeighted:
		return r.quantammState(base)

	case models.PoolTypeBuffer:
		if len(base.Tokens) != 2 {
			return nil, fmt.Errorf("%w: buffer pools hold exactly two tokens, got %d", models.ErrInvalidInput, len(base.Tokens))
		}
		rate, err := parseBig("rate", r.Rate)
		if err != nil {
			return nil, err
		}
		return &models.BufferState{PoolState: *base, Rate: rate}, nil

	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedPoolType, r.PoolType)
	}
}

func (r *PoolRecord) baseState() (*models.PoolState, error) {
	if len(r.Tokens) == 0 {
		return nil, fmt.Errorf("%w: pool record has no tokens", models.ErrInvalidInput)
	}
	if len(r.ScalingFactors) != len(r.Tokens) || len(r.TokenRates) != len(r.Tokens) || len(r.BalancesLiveScaled18) != len(r.Tokens) {
		return nil, fmt.Errorf("%w: token-indexed fields have mismatched lengths", models.ErrInvalidInput)
	}

	tokens := make([]common.Address, len(r.Tokens))
	for i, t := range r.Tokens {
		if !common.IsHexAddress(t) {
			return nil, fmt.Errorf("%w: invalid token address %q", models.ErrInvalidInput, t)
		}
		tokens[i] = common.HexToAddress(t)
	}

	scalingFactors, err := parseBigs("scalingFactors", r.ScalingFactors)
	if err != nil {
		return nil, err
	}
	tokenRates, err := parseBigs("tokenRates", r.TokenRates)
	if err != nil {
		return nil, err
	}
	balances, err := parseBigs("balancesLiveScaled18", r.BalancesLiveScaled18)
	if err != nil {
		return nil, err
	}
	swapFee, err := parseBig("swapFee", r.SwapFee)
	if err != nil {
		return nil, err
	}
	aggregateSwapFee, err := parseBig("aggregateSwapFee", r.AggregateSwapFee)
	if err != nil {
		return nil, err
	}
	totalSupply, err := parseBig("totalSupply", r.TotalSupply)
	if err != nil {
		return nil, err
	}

	return &models.PoolState{
		PoolType:                    r.PoolType,
		PoolAddress:                 common.HexToAddress(r.PoolAddress),
		Tokens:                      tokens,
		ScalingFactors:              scalingFactors,
		TokenRates:                  tokenRates,
		BalancesLiveScaled18:        balances,
		SwapFee:                     swapFee,
		AggregateSwapFee:            aggregateSwapFee,
		TotalSupply:                 totalSupply,
		SupportsUnbalancedLiquidity: r.SupportsUnbalancedLiquidity,
		HookType:                    r.HookType,
	}, nil
}

func (r *PoolRecord) eclpState(base *models.PoolState) (models.View, error) {
	if len(base.Tokens) != 2 {
		return nil, fmt.Errorf("%w: ECLP pools hold exactly two tokens, got %d", models.ErrInvalidInput, len(base.Tokens))
	}
	fields := map[string]string{
		"paramsAlpha": r.ParamsAlpha, "paramsBeta": r.ParamsBeta,
		"paramsC": r.ParamsC, "paramsS": r.ParamsS, "paramsLambda": r.ParamsLambda,
		"tauAlphaX": r.TauAlphaX, "tauAlphaY": r.TauAlphaY,
		"tauBetaX": r.TauBetaX, "tauBetaY": r.TauBetaY,
		"u": r.U, "v": r.V, "w": r.W, "z": r.Z, "dSq": r.DSq,
	}
	parsed := make(map[string]*big.Int, len(fields))
	for name, value := range fields {
		v, err := parseBig(name, value)
		if err != nil {
			return nil, err
		}
		parsed[name] = v
	}
	return &models.GyroECLPState{
		PoolState: *base,
		Params: models.EclpParams{
			Alpha:  parsed["paramsAlpha"],
			Beta:   parsed["paramsBeta"],
			C:      parsed["paramsC"],
			S:      parsed["paramsS"],
			Lambda: parsed["paramsLambda"],
		},
		Derived: models.EclpDerivedParams{
			TauAlphaX: parsed["tauAlphaX"],
			TauAlphaY: parsed["tauAlphaY"],
			TauBetaX:  parsed["tauBetaX"],
			TauBetaY:  parsed["tauBetaY"],
			U:         parsed["u"],
			V:         parsed["v"],
			W:         parsed["w"],
			Z:         parsed["z"],
			DSq:       parsed["dSq"],
		},
	}, nil
}

func (r *PoolRecord) lbpState(base *models.PoolState) (models.View, error) {
	startWeights, err := parseBigs("startWeights", r.StartWeights)
	if err != nil {
		return nil, err
	}
	endWeights, err := parseBigs("endWeights", r.EndWeights)
	if err != nil {
		return nil, err
	}
	if len(startWeights) != len(base.Tokens) || len(endWeights) != len(base.Tokens) {
		return nil, fmt.Errorf("%w: weight schedule lengths do not match %d tokens", models.ErrInvalidInput, len(base.Tokens))
	}
	if r.ProjectTokenIndex < 0 || r.ProjectTokenIndex >= len(base.Tokens) {
		return nil, fmt.Errorf("%w: projectTokenIndex out of range", models.ErrInvalidInput)
	}
	return &models.LiquidityBootstrappingState{
		PoolState: *base,
		Immutable: models.LBPImmutable{
			ProjectTokenIndex:           r.ProjectTokenIndex,
			IsProjectTokenSwapInBlocked: r.IsProjectTokenSwapInBlocked,
			StartWeights:                startWeights,
			EndWeights:                  endWeights,
			StartTime:                   r.StartTime,
			EndTime:                     r.EndTime,
		},
		Mutable: models.LBPMutable{
			IsSwapEnabled:    r.IsSwapEnabled,
			CurrentTimestamp: r.CurrentTimestamp,
		},
	}, nil
}

func (r *PoolRecord) reclammState(base *models.PoolState) (models.View, error) {
	if len(base.Tokens) != 2 {
		return nil, fmt.Errorf("%w: ReClamm pools hold exactly two tokens, got %d", models.ErrInvalidInput, len(base.Tokens))
	}
	lastVirtual, err := parseBigs("lastVirtualBalances", r.LastVirtualBalances)
	if err != nil {
		return nil, err
	}
	if len(lastVirtual) != 2 {
		return nil, fmt.Errorf("%w: lastVirtualBalances must hold two values, got %d", models.ErrInvalidInput, len(lastVirtual))
	}
	shiftBase, err := parseBig("dailyPriceShiftBase", r.DailyPriceShiftBase)
	if err != nil {
		return nil, err
	}
	margin, err := parseBig("centerednessMargin", r.CenterednessMargin)
	if err != nil {
		return nil, err
	}
	startRoot, err := parseBig("startFourthRootPriceRatio", r.StartFourthRootPriceRatio)
	if err != nil {
		return nil, err
	}
	endRoot, err := parseBig("endFourthRootPriceRatio", r.EndFourthRootPriceRatio)
	if err != nil {
		return nil, err
	}
	return &models.ReClammState{
		PoolState: *base,
		Immutable: models.ReClammImmutable{
			DailyPriceShiftBase: shiftBase,
			CenterednessMargin:  margin,
		},
		Mutable: models.ReClammMutable{
			LastTimestamp:       r.LastTimestamp,
			CurrentTimestamp:    r.CurrentTimestamp,
			LastVirtualBalances: lastVirtual,
			PriceRatioState: models.PriceRatioState{
				StartFourthRootPriceRatio: startRoot,
				EndFourthRootPriceRatio:   endRoot,
				PriceRatioUpdateStartTime: r.PriceRatioUpdateStartTime,
				PriceRatioUpdateEndTime:   r.PriceRatioUpdateEndTime,
			},
		},
	}, nil
}

func (r *PoolRecord) quantammState(base *models.PoolState) (models.View, error) {
	firstFour, err := parseBigs("firstFourWeightsAndMultipliers", r.FirstFourWeightsAndMultipliers)
	if err != nil {
		return nil, err
	}
	// Each pack holds one weight plus one multiplier per token it covers
	firstPackTokens := len(base.Tokens)
	if firstPackTokens > 4 {
		firstPackTokens = 4
	}
	if len(firstFour) != 2*firstPackTokens {
		return nil, fmt.Errorf("%w: firstFourWeightsAndMultipliers length %d does not match %d tokens", models.ErrInvalidInput, len(firstFour), len(base.Tokens))
	}
	var secondFour []*big.Int
	if len(r.SecondFourWeightsAndMultipliers) > 0 {
		secondFour, err = parseBigs("secondFourWeightsAndMultipliers", r.SecondFourWeightsAndMultipliers)
		if err != nil {
			return nil, err
		}
	}
	if len(base.Tokens) > 4 && len(secondFour) != 2*(len(base.Tokens)-4) {
		return nil, fmt.Errorf("%w: secondFourWeightsAndMultipliers length %d does not match %d tokens", models.ErrInvalidInput, len(secondFour), len(base.Tokens))
	}
	maxTradeSize, err := parseBig("maxTradeSizeRatio", r.MaxTradeSizeRatio)
	if err != nil {
		return nil, err
	}
	return &models.QuantAMMWeightedState{
		PoolState: *base,
		Immutable: models.QuantAMMImmutable{MaxTradeSizeRatio: maxTradeSize},
		Mutable: models.QuantAMMMutable{
			FirstFourWeightsAndMultipliers:  firstFour,
			SecondFourWeightsAndMultipliers: secondFour,
			LastUpdateTime:                  r.LastUpdateTime,
			LastInteropTime:                 r.LastInteropTime,
			CurrentTimestamp:                r.CurrentTimestamp,
		},
	}, nil
}

// HookStateRecord is the raw wire form of a hook's state.
type HookStateRecord struct {
	// ExitFee
	RemoveLiquidityHookFeePercentage string   `json:"removeLiquidityHookFeePercentage,omitempty"`
	Tokens                           []string `json:"tokens,omitempty"`

	// StableSurge
	Amp                      string `json:"amp,omitempty"`
	SurgeThresholdPercentage string `json:"surgeThresholdPercentage,omitempty"`
	MaxSurgeFeePercentage    string `json:"maxSurgeFeePercentage,omitempty"`
}

// DecodeHookState parses hook state for the given hook type; a pool
// without a hook has none.
func DecodeHookState(hookType string, data []byte) (models.HookState, error) {
	if hookType == "" {
		return nil, nil
	}
	var record HookStateRecord
	if len(data) > 0 {
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("%w: parsing hook state: %v", models.ErrInvalidInput, err)
		}
	}

	switch hookType {
	case models.HookTypeExitFee:
		fee, err := parseBig("removeLiquidityHookFeePercentage", record.RemoveLiquidityHookFeePercentage)
		if err != nil {
			return nil, err
		}
		tokens := make([]common.Address, len(record.Tokens))
		for i, t := range record.Tokens {
			tokens[i] = common.HexToAddress(t)
		}
		return &models.ExitFeeHookState{
			Tokens:                           tokens,
			RemoveLiquidityHookFeePercentage: fee,
		}, nil

	case models.HookTypeStableSurge:
		amp, err := parseBig("amp", record.Amp)
		if err != nil {
			return nil, err
		}
		threshold, err := parseBig("surgeThresholdPercentage", record.SurgeThresholdPercentage)
		if err != nil {
			return nil, err
		}
		maxFee, err := parseBig("maxSurgeFeePercentage", record.MaxSurgeFeePercentage)
		if err != nil {
			return nil, err
		}
		return &models.StableSurgeHookState{
			Amp:                      amp,
			SurgeThresholdPercentage: threshold,
			MaxSurgeFeePercentage:    maxFee,
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown hook type %q", models.ErrHookFailed, hookType)
	}
}

func parseBig(field, value string) (*big.Int, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: missing field %s", models.ErrInvalidInput, field)
	}
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("%w: field %s is not a decimal integer: %q", models.ErrInvalidInput, field, value)
	}
	return v, nil
}

func parseBigs(field string, values []string) ([]*big.Int, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: missing field %s", models.ErrInvalidInput, field)
	}
	out := make([]*big.Int, len(values))
	for i, value := range values {
		v, err := parseBig(fmt.Sprintf("%s[%d]", field, i), value)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
