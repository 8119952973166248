// Package server exposes the quoting engine over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"quoter/internal/config"
	"quoter/internal/metrics"
	"quoter/internal/persistence"
	"quoter/pkg/models"
	"quoter/pkg/vault"
)

// Server serves quote requests over HTTP POST and WebSocket sessions.
type Server struct {
	cfg     config.ServerConfig
	vault   *vault.Vault
	store   *persistence.Store
	metrics *metrics.Metrics
	http    *http.Server
}

// New creates a quote server. The store may be nil to disable the audit
// log.
func New(cfg config.ServerConfig, v *vault.Vault, store *persistence.Store, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:     cfg,
		vault:   v,
		store:   store,
		metrics: m,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/quote", s.handleQuote)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Run serves until the context is cancelled, then drains within the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("Quote server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down quote server: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

// errorReason maps an engine error to a stable label for metrics and
// audit rows.
func errorReason(err error) string {
	switch {
	case errors.Is(err, models.ErrUnsupportedPoolType):
		return "unsupported_pool_type"
	case errors.Is(err, models.ErrInvalidOperationForPool):
		return "invalid_operation_for_pool"
	case errors.Is(err, models.ErrInvariantRatioOutOfBounds):
		return "invariant_ratio_out_of_bounds"
	case errors.Is(err, models.ErrArithmetic):
		return "arithmetic"
	case errors.Is(err, models.ErrNonConvergence):
		return "non_convergence"
	case errors.Is(err, models.ErrHookFailed):
		return "hook_failed"
	case errors.Is(err, models.ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}

// errorStatus maps an engine error to an HTTP status. Malformed or
// unsupported requests are the client's fault; evaluation failures on a
// well-formed request are unprocessable.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrUnsupportedPoolType),
		errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidOperationForPool):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvariantRatioOutOfBounds),
		errors.Is(err, models.ErrArithmetic),
		errors.Is(err, models.ErrNonConvergence),
		errors.Is(err, models.ErrHookFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
