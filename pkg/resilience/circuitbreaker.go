package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"command-bot/backend/pkg/logger"
)

// ErrCircuitOpen is returned when the breaker short-circuits a call
var ErrCircuitOpen = errors.New("circuit open")

// State represents the current state of a circuit breaker
type State string

const (
	// StateClosed lets every call through
	StateClosed State = "closed"
	// StateOpen rejects calls until the cool-down elapses
	StateOpen State = "open"
	// StateHalfOpen lets probe calls through to decide whether to close again
	StateHalfOpen State = "half-open"
)

// Config holds configuration for a circuit breaker
type Config struct {
	Name             string
	FailureThreshold uint
	SuccessThreshold uint
	CoolDown         time.Duration
}

// DefaultConfig returns the breaker settings used for upstream providers
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 1,
		CoolDown:         30 * time.Second,
	}
}

// Snapshot is a point-in-time view of a breaker
type Snapshot struct {
	Name          string `json:"name"`
	State         State  `json:"state"`
	Failures      uint   `json:"failures"`
	TotalRequests uint64 `json:"total_requests"`
	TotalFailures uint64 `json:"total_failures"`
	TotalRejected uint64 `json:"total_rejected"`
	TimesOpened   uint64 `json:"times_opened"`
}

// CircuitBreaker stops calling a failing dependency for a cool-down period
type CircuitBreaker struct {
	cfg Config
	log *logger.Logger
	now func() time.Time

	mu          sync.Mutex
	state       State
	failures    uint
	successes   uint
	openedUntil time.Time

	totalRequests uint64
	totalFailures uint64
	totalRejected uint64
	timesOpened   uint64
}

// NewCircuitBreaker creates a closed circuit breaker
func NewCircuitBreaker(cfg Config, log *logger.Logger) *CircuitBreaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 1
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &CircuitBreaker{
		cfg:   cfg,
		log:   log.WithComponent("circuit-breaker"),
		now:   time.Now,
		state: StateClosed,
	}
}

// Execute runs fn unless the circuit is open. Context cancellation is not
// counted as a dependency failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !cb.allow() {
		cb.log.Warn("circuit breaker rejected call", "name", cb.cfg.Name)
		return ErrCircuitOpen
	}

	start := cb.now()
	err := fn(ctx)
	switch {
	case err == nil:
		cb.onSuccess()
	case errors.Is(err, context.Canceled):
		cb.release()
	default:
		cb.onFailure()
		cb.log.Warn("circuit breaker recorded failure",
			"name", cb.cfg.Name,
			"error", err.Error(),
			"duration", cb.now().Sub(start).String(),
		)
	}
	return err
}

// State returns the current state, moving an expired open circuit to half-open
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refresh()
	return cb.state
}

// Snapshot returns the breaker counters
func (cb *CircuitBreaker) Snapshot() Snapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refresh()
	return Snapshot{
		Name:          cb.cfg.Name,
		State:         cb.state,
		Failures:      cb.failures,
		TotalRequests: cb.totalRequests,
		TotalFailures: cb.totalFailures,
		TotalRejected: cb.totalRejected,
		TimesOpened:   cb.timesOpened,
	}
}

// Reset closes the circuit and clears the failure count
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.toClosed()
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.refresh()
	switch cb.state {
	case StateOpen:
		cb.totalRejected++
		return false
	case StateHalfOpen:
		// one probe at a time
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.totalRejected++
			return false
		}
		cb.successes++
	}
	cb.totalRequests++
	return true
}

// release gives back a half-open probe slot that did not produce a verdict
func (cb *CircuitBreaker) release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateHalfOpen && cb.successes > 0 {
		cb.successes--
	}
}

func (cb *CircuitBreaker) onSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.toClosed()
		cb.log.Info("circuit breaker closed", "name", cb.cfg.Name)
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalFailures++
	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.toOpen()
		}
	case StateHalfOpen:
		cb.toOpen()
	}
}

// refresh must be called with mu held
func (cb *CircuitBreaker) refresh() {
	if cb.state == StateOpen && !cb.now().Before(cb.openedUntil) {
		cb.state = StateHalfOpen
		cb.successes = 0
	}
}

func (cb *CircuitBreaker) toOpen() {
	cb.state = StateOpen
	cb.openedUntil = cb.now().Add(cb.cfg.CoolDown)
	cb.successes = 0
	cb.timesOpened++
	cb.log.Warn("circuit breaker opened",
		"name", cb.cfg.Name,
		"cool_down", cb.cfg.CoolDown.String(),
	)
}

func (cb *CircuitBreaker) toClosed() {
	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0
	cb.openedUntil = time.Time{}
}
