package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"command-bot/backend/pkg/logger"
)

// Status represents the health status of a component
type Status string

const (
	// StatusUp indicates a component is working correctly
	StatusUp Status = "up"
	// StatusDown indicates a component is not working
	StatusDown Status = "down"
	// StatusDegraded indicates a component is working but with reduced functionality
	StatusDegraded Status = "degraded"
)

// Component represents a system component that can be health-checked
type Component struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Critical    bool      `json:"critical"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Check represents a health check function
type Check func(ctx context.Context) (Status, string, error)

type registration struct {
	check    Check
	critical bool
}

// Checker manages health checks for the system
type Checker struct {
	checks      map[string]registration
	components  map[string]*Component
	checkPeriod time.Duration
	timeout     time.Duration
	listeners   []func(healthy bool)
	mutex       sync.RWMutex
	log         *logger.Logger
}

// NewChecker creates a new health checker
func NewChecker(log *logger.Logger, checkPeriod time.Duration) *Checker {
	if log == nil {
		log = logger.NewNop()
	}
	checker := &Checker{
		checks:      make(map[string]registration),
		components:  make(map[string]*Component),
		checkPeriod: checkPeriod,
		timeout:     5 * time.Second,
		log:         log.WithComponent("health"),
	}

	// Register built-in checks
	checker.RegisterCheck("self", false, func(context.Context) (Status, string, error) {
		return StatusUp, "Health checker is running", nil
	})

	return checker
}

// RegisterCheck registers a new health check. A critical component that is
// down makes the whole system unhealthy.
func (c *Checker) RegisterCheck(name string, critical bool, check Check) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.checks[name] = registration{check: check, critical: critical}
	c.components[name] = &Component{
		Name:        name,
		Status:      StatusDown,
		Critical:    critical,
		Description: "Not checked yet",
	}
}

// RegisterPingCheck registers a check that is up when ping succeeds
func (c *Checker) RegisterPingCheck(name string, critical bool, ping func(ctx context.Context) error) {
	c.RegisterCheck(name, critical, func(ctx context.Context) (Status, string, error) {
		if err := ping(ctx); err != nil {
			return StatusDown, name + " is unreachable", err
		}
		return StatusUp, name + " is reachable", nil
	})
}

// OnChange registers fn to be called with the overall health after each run
func (c *Checker) OnChange(fn func(healthy bool)) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.listeners = append(c.listeners, fn)
}

// RunChecks executes all registered health checks
func (c *Checker) RunChecks(ctx context.Context) {
	c.mutex.RLock()
	checks := make(map[string]registration, len(c.checks))
	for name, reg := range c.checks {
		checks[name] = reg
	}
	c.mutex.RUnlock()

	results := make(map[string]Component, len(checks))
	for name, reg := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		status, description, err := reg.check(checkCtx)
		cancel()

		comp := Component{
			Name:        name,
			Status:      status,
			Critical:    reg.critical,
			Description: description,
			LastChecked: time.Now(),
		}
		if err != nil {
			comp.Error = err.Error()
			c.log.Error("Health check failed",
				"component", name,
				"status", string(status),
				"error", err.Error(),
			)
		} else {
			c.log.Debug("Health check completed",
				"component", name,
				"status", string(status),
			)
		}
		results[name] = comp
	}

	c.mutex.Lock()
	for name, comp := range results {
		comp := comp
		c.components[name] = &comp
	}
	listeners := append([]func(bool){}, c.listeners...)
	c.mutex.Unlock()

	healthy := c.IsSystemHealthy()
	for _, fn := range listeners {
		fn(healthy)
	}
}

// Start runs the checks now and then periodically until ctx is done
func (c *Checker) Start(ctx context.Context) {
	go func() {
		c.RunChecks(ctx)

		ticker := time.NewTicker(c.checkPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.RunChecks(ctx)
			}
		}
	}()
}

// GetStatus returns the current health status
func (c *Checker) GetStatus() map[string]*Component {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	// Create a copy to avoid race conditions
	result := make(map[string]*Component, len(c.components))
	for k, v := range c.components {
		componentCopy := *v
		result[k] = &componentCopy
	}

	return result
}

// IsSystemHealthy returns true if all critical components are up
func (c *Checker) IsSystemHealthy() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	for _, component := range c.components {
		if component.Critical && component.Status == StatusDown {
			return false
		}
	}

	return true
}

// HTTPHandler returns an HTTP handler for health checks
func (c *Checker) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := c.GetStatus()
		healthy := c.IsSystemHealthy()

		w.Header().Set("Content-Type", "application/json")

		overall := "ok"
		if !healthy {
			overall = "unavailable"
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		response := map[string]interface{}{
			"status":     overall,
			"timestamp":  time.Now(),
			"components": status,
		}

		if err := json.NewEncoder(w).Encode(response); err != nil {
			c.log.Error("Failed to encode health check response", "error", err.Error())
		}
	}
}
