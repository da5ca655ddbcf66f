package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogErrorAddsErrorField(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", JSON: true, Output: &buf})

	log.WithConversation("chat-1").LogError(errors.New("boom"), "dispatch failed", "command", "riddle")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "dispatch failed", line["msg"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "chat-1", line["chat_id"])
	assert.Equal(t, "riddle", line["command"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", JSON: false, Output: &buf})

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestMiddlewareSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log := New(Config{Level: "info", JSON: true, Output: &buf})

	r := gin.New()
	r.Use(Middleware(log))
	r.GET("/ping", func(c *gin.Context) {
		assert.NotNil(t, FromContext(c))
		c.String(http.StatusOK, "pong")
	})

	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
}
