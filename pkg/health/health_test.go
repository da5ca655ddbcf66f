package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCriticalComponentDown(t *testing.T) {
	c := NewChecker(nil, time.Minute)
	c.RegisterPingCheck("database", true, func(context.Context) error {
		return errors.New("connection refused")
	})
	c.RegisterPingCheck("redis", false, func(context.Context) error { return nil })

	var observed []bool
	c.OnChange(func(healthy bool) { observed = append(observed, healthy) })

	c.RunChecks(context.Background())

	assert.False(t, c.IsSystemHealthy())
	assert.Equal(t, []bool{false}, observed)

	status := c.GetStatus()
	require.Contains(t, status, "database")
	assert.Equal(t, StatusDown, status["database"].Status)
	assert.Equal(t, "connection refused", status["database"].Error)
	assert.Equal(t, StatusUp, status["redis"].Status)
	assert.Equal(t, StatusUp, status["self"].Status)
}

func TestNonCriticalDownStaysHealthy(t *testing.T) {
	c := NewChecker(nil, time.Minute)
	c.RegisterPingCheck("redis", false, func(context.Context) error {
		return errors.New("down")
	})
	c.RunChecks(context.Background())

	assert.True(t, c.IsSystemHealthy())
}

func TestHTTPHandler(t *testing.T) {
	c := NewChecker(nil, time.Minute)
	c.RegisterCheck("store", true, func(context.Context) (Status, string, error) {
		return StatusUp, "3/100 entries", nil
	})
	c.RunChecks(context.Background())

	w := httptest.NewRecorder()
	c.HTTPHandler()(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status     string                `json:"status"`
		Components map[string]*Component `json:"components"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "3/100 entries", body.Components["store"].Description)
}

func TestHTTPHandlerUnavailable(t *testing.T) {
	c := NewChecker(nil, time.Minute)
	c.RegisterCheck("store", true, func(context.Context) (Status, string, error) {
		return StatusDown, "unchecked", nil
	})

	w := httptest.NewRecorder()
	c.HTTPHandler()(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
