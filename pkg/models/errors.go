package models

import "errors"

// Error kinds surfaced by the engine. Every error is terminal for the
// call that produced it; the engine has no transient-failure classes and
// never retries internally.
var (
	// ErrUnsupportedPoolType reports a poolType discriminator with no
	// known variant.
	ErrUnsupportedPoolType = errors.New("unsupported pool type")

	// ErrInvalidOperationForPool reports an operation the pool's
	// configuration forbids: unbalanced liquidity without support for
	// it, swaps while disabled, or a blocked project-token swap.
	ErrInvalidOperationForPool = errors.New("operation not valid for pool")

	// ErrInvariantRatioOutOfBounds reports an operation that would move
	// the invariant ratio outside the variant's allowed window.
	ErrInvariantRatioOutOfBounds = errors.New("invariant ratio out of bounds")

	// ErrArithmetic reports a division by zero or an argument outside
	// the fixed-point kernel's representable range.
	ErrArithmetic = errors.New("arithmetic error")

	// ErrNonConvergence reports an iterative invariant solve that failed
	// to converge within its iteration budget.
	ErrNonConvergence = errors.New("iterative solve did not converge")

	// ErrHookFailed reports a hook callback that vetoed the operation.
	ErrHookFailed = errors.New("hook rejected operation")

	// ErrInvalidInput reports a structurally invalid request: unknown
	// token, mismatched array lengths, or a missing single-token index.
	ErrInvalidInput = errors.New("invalid input")
)
