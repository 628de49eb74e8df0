// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package breaker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// State is the circuit state of a guarded dependency.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String returns the conventional uppercase label for the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Stats is a point-in-time snapshot of a breaker's rolling counters.
type Stats struct {
	Name            string    `json:"name"`
	State           string    `json:"state"`
	Requests        uint64    `json:"requests"`
	Successes       uint64    `json:"successes"`
	Failures        uint64    `json:"failures"`
	TimesTripped    uint64    `json:"times_tripped"`
	ConsecutiveFail int       `json:"consecutive_failures"`
	LastFailure     time.Time `json:"last_failure,omitzero"`
	NextRetry       time.Time `json:"next_retry,omitzero"`
}

// Config holds breaker tuning parameters.
type Config struct {
	// FailureThreshold is the consecutive-failure count that trips the
	// breaker from CLOSED to OPEN.
	FailureThreshold int

	// RecoveryTimeout is how long the breaker holds OPEN before allowing
	// a half-open trial call.
	RecoveryTimeout time.Duration
}

// ConfigOption configures a breaker Config.
type ConfigOption func(*Config)

// WithFailureThreshold sets the consecutive-failure trip threshold.
func WithFailureThreshold(threshold int) ConfigOption {
	return func(c *Config) {
		if threshold > 0 {
			c.FailureThreshold = threshold
		}
	}
}

// WithRecoveryTimeout sets the OPEN hold duration.
func WithRecoveryTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		if timeout > 0 {
			c.RecoveryTimeout = timeout
		}
	}
}

// DefaultConfig returns conservative defaults suitable for a slow
// upstream like a generation provider.
func DefaultConfig() *Config {
	return &Config{
		FailureThreshold: 3,
		RecoveryTimeout:  30 * time.Second,
	}
}

// Breaker guards calls to a single dependency. It trips OPEN after a run
// of consecutive failures, rejects calls while OPEN, and probes recovery
// with a single trial call once the recovery timeout elapses.
//
// All methods are safe for concurrent use.
type Breaker struct {
	name   string
	config *Config
	logger *slog.Logger
	clock  func() time.Time

	mu              sync.Mutex
	state           State
	consecutiveFail int
	lastFailure     time.Time
	nextRetry       time.Time
	trialInFlight   bool

	requests     uint64
	successes    uint64
	failures     uint64
	timesTripped uint64
}

// Option configures a Breaker.
type Option func(*Breaker) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Breaker) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// withClock overrides the time source, for tests.
func withClock(clock func() time.Time) Option {
	return func(b *Breaker) error {
		b.clock = clock
		return nil
	}
}

// New creates a breaker for the named dependency.
func New(name string, config *Config, opts ...Option) (*Breaker, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if config == nil {
		config = DefaultConfig()
	}

	b := &Breaker{
		name:   name,
		config: config,
		logger: slog.Default().With("component", "breaker", "dependency", name),
		clock:  func() time.Time { return time.Now().UTC() },
		state:  StateClosed,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Do runs fn through the breaker. While OPEN it returns ErrOpen without
// calling fn; while HALF_OPEN only one trial call is admitted and
// concurrent callers get ErrTrialInFlight.
//
// Context errors from fn count as failures: a dependency that times out
// is as unhealthy as one that errors.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	trial, err := b.admit()
	if err != nil {
		return err
	}

	callErr := fn(ctx)
	b.settle(trial, callErr)
	return callErr
}

// admit decides whether a call may proceed, transitioning OPEN to
// HALF_OPEN when the recovery timeout has elapsed. Returns whether the
// admitted call is the half-open trial.
func (b *Breaker) admit() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock()

	switch b.state {
	case StateClosed:
		b.requests++
		return false, nil

	case StateOpen:
		if now.Before(b.nextRetry) {
			// Shed calls still count as requests so rejected load
			// shows up in Stats.
			b.requests++
			return false, ErrOpen
		}
		b.state = StateHalfOpen
		b.trialInFlight = true
		b.requests++
		b.logger.Info("recovery timeout elapsed, admitting trial call")
		return true, nil

	case StateHalfOpen:
		if b.trialInFlight {
			b.requests++
			return false, ErrTrialInFlight
		}
		b.trialInFlight = true
		b.requests++
		return true, nil
	}

	return false, ErrOpen
}

// settle records the outcome of an admitted call.
func (b *Breaker) settle(trial bool, callErr error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if trial {
		b.trialInFlight = false
	}

	if callErr == nil {
		b.successes++
		b.consecutiveFail = 0
		if b.state != StateClosed {
			b.logger.Info("trial call succeeded, closing circuit")
			b.state = StateClosed
		}
		return
	}

	b.failures++
	b.consecutiveFail++
	b.lastFailure = b.clock()

	switch b.state {
	case StateHalfOpen:
		b.trip()
	case StateClosed:
		if b.consecutiveFail >= b.config.FailureThreshold {
			b.trip()
		}
	}
}

// trip moves the breaker to OPEN and restarts the recovery timer.
// Caller must hold the mutex.
func (b *Breaker) trip() {
	b.state = StateOpen
	b.nextRetry = b.clock().Add(b.config.RecoveryTimeout)
	b.timesTripped++
	b.logger.Warn("circuit tripped open",
		"consecutiveFailures", b.consecutiveFail,
		"nextRetry", b.nextRetry)
}

// State returns the current circuit state, accounting for an elapsed
// recovery timeout on an OPEN breaker.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && !b.clock().Before(b.nextRetry) {
		return StateHalfOpen
	}
	return b.state
}

// Name returns the guarded dependency's name.
func (b *Breaker) Name() string {
	return b.name
}

// Stats returns a snapshot of the breaker's counters.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Stats{
		Name:            b.name,
		State:           b.state.String(),
		Requests:        b.requests,
		Successes:       b.successes,
		Failures:        b.failures,
		TimesTripped:    b.timesTripped,
		ConsecutiveFail: b.consecutiveFail,
		LastFailure:     b.lastFailure,
		NextRetry:       b.nextRetry,
	}
}

// Reset forces the breaker back to CLOSED and clears the failure run.
// Rolling counters are preserved; this is an operator action, not a
// state the breaker reaches on its own.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.consecutiveFail = 0
	b.trialInFlight = false
	b.nextRetry = time.Time{}
	b.logger.Info("circuit manually reset")
}
