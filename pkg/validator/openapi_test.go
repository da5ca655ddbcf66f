package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"command-bot/backend/pkg/errors"
)

const testDocument = `
openapi: 3.0.3
info:
  title: test
  version: 1.0.0
paths:
  /events:
    post:
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [type, chat_id]
              properties:
                type:
                  type: string
                  enum: [message, deletion]
                chat_id:
                  type: string
                  minLength: 1
      responses:
        "200":
          description: ok
`

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	v, err := NewOpenAPIValidator([]byte(testDocument))
	require.NoError(t, err)

	r := gin.New()
	r.Use(errors.ErrorHandler())
	r.Use(v.Middleware())
	r.POST("/events", func(c *gin.Context) {
		var body map[string]any
		require.NoError(t, c.ShouldBindJSON(&body))
		c.JSON(http.StatusOK, body)
	})
	r.GET("/undocumented", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func post(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestValidRequestPassesWithBodyIntact(t *testing.T) {
	w := post(newRouter(t), `{"type":"message","chat_id":"c1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"chat_id":"c1"`)
}

func TestInvalidRequestsRejected(t *testing.T) {
	r := newRouter(t)
	for _, body := range []string{
		`{"type":"typing","chat_id":"c1"}`,
		`{"type":"message"}`,
		`{"type":"message","chat_id":""}`,
	} {
		w := post(r, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), errors.CodeInvalidEvent)
	}
}

func TestUndocumentedRoutePassesThrough(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/undocumented", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRejectsBrokenDocument(t *testing.T) {
	_, err := NewOpenAPIValidator([]byte("openapi: [broken"))
	assert.Error(t, err)
}

func TestReload(t *testing.T) {
	v, err := NewOpenAPIValidator([]byte(testDocument))
	require.NoError(t, err)

	require.NoError(t, v.Reload([]byte(strings.Replace(testDocument, "title: test", "title: reloaded", 1))))
	assert.Equal(t, "reloaded", v.Document().Info.Title)
}
