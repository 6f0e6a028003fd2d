// Package breaker implements a per-source circuit breaker using a simple
// consecutive-failure/success counter model, per spec 4.11. It trades the
// teacher's rolling-window failure-rate model for exact threshold counting,
// since each bibliographic source adapter here is low-volume enough that a
// sliding window adds complexity without changing the decision.
package breaker

import (
	"log/slog"
	"sync"
	"time"

	"scifind-backend/internal/errors"
)

// State is a circuit breaker's current position in the state machine.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

const (
	defaultFailureThreshold = 3
	defaultSuccessThreshold = 2
	defaultTimeout          = 60 * time.Second
)

// Breaker guards a single source's adapter calls.
type Breaker struct {
	name             string
	failureThreshold int
	successThreshold int
	timeout          time.Duration

	mutex               sync.Mutex
	state               State
	consecutiveFailures int
	consecutiveSucceses int
	lastFailureAt       time.Time
	stateChangedAt      time.Time

	logger *slog.Logger
}

// New creates a breaker for source name using the spec's fixed thresholds.
func New(name string, logger *slog.Logger) *Breaker {
	return &Breaker{
		name:             name,
		failureThreshold: defaultFailureThreshold,
		successThreshold: defaultSuccessThreshold,
		timeout:          defaultTimeout,
		state:            StateClosed,
		stateChangedAt:   time.Now(),
		logger:           logger,
	}
}

// IsAvailable reports whether a call should be attempted. A CLOSED breaker
// is always available. An OPEN breaker becomes available (and transitions to
// HALF_OPEN) once timeout has elapsed since the last failure. A HALF_OPEN
// breaker allows exactly the probing calls through; RecordSuccess/
// RecordFailure decide whether it closes or reopens.
func (b *Breaker) IsAvailable() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	switch b.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if time.Since(b.lastFailureAt) >= b.timeout {
			b.setState(StateHalfOpen)
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess records a successful call.
func (b *Breaker) RecordSuccess() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	switch b.state {
	case StateClosed:
		b.consecutiveFailures = 0
	case StateHalfOpen:
		b.consecutiveSucceses++
		if b.consecutiveSucceses >= b.successThreshold {
			b.setState(StateClosed)
		}
	}
}

// RecordFailure records a failed call.
func (b *Breaker) RecordFailure() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.lastFailureAt = time.Now()

	switch b.state {
	case StateClosed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.failureThreshold {
			b.setState(StateOpen)
		}
	case StateHalfOpen:
		b.setState(StateOpen)
	}
}

// setState transitions state, resetting the counters the new state tracks.
// Callers must hold b.mutex.
func (b *Breaker) setState(newState State) {
	old := b.state
	b.state = newState
	b.stateChangedAt = time.Now()
	b.consecutiveFailures = 0
	b.consecutiveSucceses = 0

	if b.logger != nil {
		b.logger.Info("circuit breaker state changed",
			slog.String("source", b.name),
			slog.String("from", old.String()),
			slog.String("to", newState.String()))
	}
}

// State returns the breaker's current state.
func (b *Breaker) State() State {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.state
}

// Execute runs fn if the breaker allows it, recording the outcome.
// Returns a circuit-breaker error without calling fn if the breaker is open.
func (b *Breaker) Execute(fn func() error) error {
	if !b.IsAvailable() {
		return errors.NewCircuitBreakerError(b.name)
	}

	err := fn()
	if err != nil {
		b.RecordFailure()
	} else {
		b.RecordSuccess()
	}
	return err
}

// Manager owns one Breaker per source, created lazily.
type Manager struct {
	mutex    sync.RWMutex
	breakers map[string]*Breaker
	logger   *slog.Logger
}

// NewManager creates an empty breaker manager.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		breakers: make(map[string]*Breaker),
		logger:   logger,
	}
}

// GetOrCreate returns the named breaker, creating it on first use.
func (m *Manager) GetOrCreate(name string) *Breaker {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if b, ok := m.breakers[name]; ok {
		return b
	}
	b := New(name, m.logger)
	m.breakers[name] = b
	return b
}

// States returns a snapshot of every known breaker's state, keyed by source
// name, for health/metrics endpoints.
func (m *Manager) States() map[string]State {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make(map[string]State, len(m.breakers))
	for name, b := range m.breakers {
		out[name] = b.State()
	}
	return out
}
