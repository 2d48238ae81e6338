package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrOperationFailed signals that the remote operation finished with a
	// terminal error. It is never retried.
	ErrOperationFailed = errors.New("provider: operation failed")

	// ErrOperationTimeout signals that the polling budget was exhausted
	// before the operation reported done.
	ErrOperationTimeout = errors.New("provider: operation timed out")
)

const (
	defaultPollInterval = 10 * time.Second
	defaultMaxAttempts  = 30
)

// OperationState is one observation of a long-running operation. Response
// holds the provider payload once Done is true and no error occurred.
type OperationState struct {
	Done     bool
	Error    string
	Response json.RawMessage
}

// PollFunc fetches the current state of the named operation. A returned
// error is treated as transient: it consumes an attempt but does not abort
// the loop.
type PollFunc func(ctx context.Context, name string) (OperationState, error)

// Poller drives a pending operation handle to completion under fixed time
// and attempt budgets. The interval is deliberately constant rather than
// exponential: the polled operations take minutes and the remote API gives
// no ETA.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
	Logger      zerolog.Logger
}

// NewPoller returns a poller with the production budgets (10s interval,
// 30 attempts, a 5 minute ceiling).
func NewPoller(logger zerolog.Logger) *Poller {
	return &Poller{Interval: defaultPollInterval, MaxAttempts: defaultMaxAttempts, Logger: logger}
}

// PollUntilDone polls the operation until it reports done, the attempt
// budget runs out, or the context is cancelled. A done state carrying an
// error is fatal and surfaces immediately as ErrOperationFailed.
func (p *Poller) PollUntilDone(ctx context.Context, name string, poll PollFunc) (OperationState, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	started := time.Now()
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		state, err := poll(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return OperationState{}, ctx.Err()
			}
			p.Logger.Warn().Err(err).
				Str("operation", name).
				Int("attempt", attempt).
				Msg("provider: poll attempt failed")
		} else if state.Done {
			if state.Error != "" {
				return state, fmt.Errorf("%w: %s", ErrOperationFailed, state.Error)
			}
			p.Logger.Info().
				Str("operation", name).
				Int("attempts", attempt).
				Dur("elapsed", time.Since(started)).
				Msg("provider: operation complete")
			return state, nil
		}

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return OperationState{}, ctx.Err()
		case <-time.After(interval):
		}
	}

	return OperationState{}, fmt.Errorf("%w: waited %s over %d attempts",
		ErrOperationTimeout, time.Duration(maxAttempts)*interval, maxAttempts)
}
