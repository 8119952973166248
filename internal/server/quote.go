package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"quoter/internal/decoder"
	"quoter/internal/persistence"
	"quoter/pkg/models"
)

// QuoteRequest is the wire form of a quote. Exactly one of Swap,
// AddLiquidity or RemoveLiquidity must match Operation.
type QuoteRequest struct {
	Operation       string                  `json:"operation"`
	Pool            json.RawMessage         `json:"pool"`
	HookState       json.RawMessage         `json:"hookState,omitempty"`
	Swap            *SwapRequest            `json:"swap,omitempty"`
	AddLiquidity    *AddLiquidityRequest    `json:"addLiquidity,omitempty"`
	RemoveLiquidity *RemoveLiquidityRequest `json:"removeLiquidity,omitempty"`
}

// SwapRequest fixes one leg of a swap in raw token units.
type SwapRequest struct {
	Kind      string `json:"kind"`
	AmountRaw string `json:"amountRaw"`
	TokenIn   string `json:"tokenIn"`
	TokenOut  string `json:"tokenOut"`
}

// AddLiquidityRequest specifies a deposit in raw token units.
type AddLiquidityRequest struct {
	Kind               string   `json:"kind"`
	MaxAmountsInRaw    []string `json:"maxAmountsInRaw"`
	MinBptAmountOutRaw string   `json:"minBptAmountOutRaw,omitempty"`
}

// RemoveLiquidityRequest specifies a withdrawal in raw token units.
type RemoveLiquidityRequest struct {
	Kind              string   `json:"kind"`
	MinAmountsOutRaw  []string `json:"minAmountsOutRaw,omitempty"`
	MaxBptAmountInRaw string   `json:"maxBptAmountInRaw"`
}

// QuoteResponse carries the raw-unit result of a quote. Only the fields
// for the requested operation are set.
type QuoteResponse struct {
	Amount        string   `json:"amount,omitempty"`
	BptAmountOut  string   `json:"bptAmountOut,omitempty"`
	AmountsInRaw  []string `json:"amountsInRaw,omitempty"`
	BptAmountIn   string   `json:"bptAmountIn,omitempty"`
	AmountsOutRaw []string `json:"amountsOutRaw,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req QuoteRequest
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "parsing request: " + err.Error()})
		return
	}

	resp, err := s.evaluate(r.Context(), &req)
	if err != nil {
		s.metrics.RecordQuoteError(errorReason(err))
		writeJSON(w, errorStatus(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// evaluate decodes the pool snapshot, runs the requested operation
// through the vault, and records metrics and the audit row.
func (s *Server) evaluate(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error) {
	start := time.Now()

	state, err := decoder.DecodePool(req.Pool)
	if err != nil {
		return nil, err
	}
	base := state.Base()

	hookState, err := decoder.DecodeHookState(base.HookType, req.HookState)
	if err != nil {
		return nil, err
	}

	record := persistence.QuoteRecord{
		Operation:   req.Operation,
		PoolAddress: base.PoolAddress.Hex(),
		PoolType:    base.PoolType,
	}

	var resp *QuoteResponse
	switch req.Operation {
	case "swap":
		resp, err = s.quoteSwap(req.Swap, state, hookState, &record)
	case "addLiquidity":
		resp, err = s.quoteAddLiquidity(req.AddLiquidity, state, hookState, &record)
	case "removeLiquidity":
		resp, err = s.quoteRemoveLiquidity(req.RemoveLiquidity, state, hookState, &record)
	default:
		err = fmt.Errorf("%w: unknown operation %q", models.ErrInvalidInput, req.Operation)
	}

	elapsed := time.Since(start)
	if err != nil {
		record.Error = errorReason(err)
	} else {
		s.metrics.RecordQuote(req.Operation, base.PoolType, elapsed)
	}
	record.LatencyUS = elapsed.Microseconds()
	s.audit(ctx, record)

	return resp, err
}

func (s *Server) quoteSwap(req *SwapRequest, state models.View, hookState models.HookState, record *persistence.QuoteRecord) (*QuoteResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: missing swap parameters", models.ErrInvalidInput)
	}
	kind, err := parseSwapKind(req.Kind)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amountRaw", req.AmountRaw)
	if err != nil {
		return nil, err
	}

	record.Kind = req.Kind
	record.TokenIn = req.TokenIn
	record.TokenOut = req.TokenOut
	record.AmountGiven = req.AmountRaw

	result, err := s.vault.Swap(&models.SwapInput{
		Kind:      kind,
		AmountRaw: amount,
		TokenIn:   common.HexToAddress(req.TokenIn),
		TokenOut:  common.HexToAddress(req.TokenOut),
	}, state, hookState)
	if err != nil {
		return nil, err
	}

	record.Result = result.String()
	return &QuoteResponse{Amount: result.String()}, nil
}

func (s *Server) quoteAddLiquidity(req *AddLiquidityRequest, state models.View, hookState models.HookState, record *persistence.QuoteRecord) (*QuoteResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: missing addLiquidity parameters", models.ErrInvalidInput)
	}

	var kind models.AddLiquidityKind
	switch req.Kind {
	case "UNBALANCED":
		kind = models.AddUnbalanced
	case "SINGLE_TOKEN_EXACT_OUT":
		kind = models.AddSingleTokenExactOut
	default:
		return nil, fmt.Errorf("%w: unknown add liquidity kind %q", models.ErrInvalidInput, req.Kind)
	}

	maxAmountsIn, err := parseAmounts("maxAmountsInRaw", req.MaxAmountsInRaw)
	if err != nil {
		return nil, err
	}
	minBptOut := big.NewInt(0)
	if req.MinBptAmountOutRaw != "" {
		if minBptOut, err = parseAmount("minBptAmountOutRaw", req.MinBptAmountOutRaw); err != nil {
			return nil, err
		}
	}

	record.Kind = req.Kind

	result, err := s.vault.AddLiquidity(&models.AddLiquidityInput{
		Kind:               kind,
		MaxAmountsInRaw:    maxAmountsIn,
		MinBptAmountOutRaw: minBptOut,
	}, state, hookState)
	if err != nil {
		return nil, err
	}

	record.Result = result.BptAmountOut.String()
	return &QuoteResponse{
		BptAmountOut: result.BptAmountOut.String(),
		AmountsInRaw: formatAmounts(result.AmountsInRaw),
	}, nil
}

func (s *Server) quoteRemoveLiquidity(req *RemoveLiquidityRequest, state models.View, hookState models.HookState, record *persistence.QuoteRecord) (*QuoteResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: missing removeLiquidity parameters", models.ErrInvalidInput)
	}

	var kind models.RemoveLiquidityKind
	switch req.Kind {
	case "PROPORTIONAL":
		kind = models.RemoveProportional
	case "SINGLE_TOKEN_EXACT_IN":
		kind = models.RemoveSingleTokenExactIn
	case "SINGLE_TOKEN_EXACT_OUT":
		kind = models.RemoveSingleTokenExactOut
	default:
		return nil, fmt.Errorf("%w: unknown remove liquidity kind %q", models.ErrInvalidInput, req.Kind)
	}

	maxBptIn, err := parseAmount("maxBptAmountInRaw", req.MaxBptAmountInRaw)
	if err != nil {
		return nil, err
	}
	var minAmountsOut []*big.Int
	if len(req.MinAmountsOutRaw) > 0 {
		if minAmountsOut, err = parseAmounts("minAmountsOutRaw", req.MinAmountsOutRaw); err != nil {
			return nil, err
		}
	} else {
		minAmountsOut = make([]*big.Int, len(state.Base().Tokens))
		for i := range minAmountsOut {
			minAmountsOut[i] = big.NewInt(0)
		}
	}

	record.Kind = req.Kind
	record.AmountGiven = req.MaxBptAmountInRaw

	result, err := s.vault.RemoveLiquidity(&models.RemoveLiquidityInput{
		Kind:              kind,
		MinAmountsOutRaw:  minAmountsOut,
		MaxBptAmountInRaw: maxBptIn,
	}, state, hookState)
	if err != nil {
		return nil, err
	}

	record.Result = result.BptAmountIn.String()
	return &QuoteResponse{
		BptAmountIn:   result.BptAmountIn.String(),
		AmountsOutRaw: formatAmounts(result.AmountsOutRaw),
	}, nil
}

func (s *Server) audit(ctx context.Context, record persistence.QuoteRecord) {
	if s.store == nil {
		return
	}
	if err := s.store.InsertQuote(ctx, record); err != nil {
		s.metrics.RecordAuditWriteError()
		log.Warn().Err(err).Msg("Failed to write quote audit row")
		return
	}
	s.metrics.RecordAuditWrite()
}

func parseSwapKind(kind string) (models.SwapKind, error) {
	switch kind {
	case "GIVEN_IN":
		return models.GivenIn, nil
	case "GIVEN_OUT":
		return models.GivenOut, nil
	default:
		return 0, fmt.Errorf("%w: unknown swap kind %q", models.ErrInvalidInput, kind)
	}
}

func parseAmount(field, value string) (*big.Int, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: missing field %s", models.ErrInvalidInput, field)
	}
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("%w: field %s is not a decimal integer: %q", models.ErrInvalidInput, field, value)
	}
	return v, nil
}

func parseAmounts(field string, values []string) ([]*big.Int, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: missing field %s", models.ErrInvalidInput, field)
	}
	out := make([]*big.Int, len(values))
	for i, value := range values {
		v, err := parseAmount(fmt.Sprintf("%s[%d]", field, i), value)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func formatAmounts(amounts []*big.Int) []string {
	out := make([]string, len(amounts))
	for i, a := range amounts {
		out[i] = a.String()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}
