package validator

import (
	"context"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"

	"command-bot/backend/pkg/errors"
)

// OpenAPIValidator validates requests against an OpenAPI document
type OpenAPIValidator struct {
	doc    *openapi3.T
	router routers.Router
	mutex  sync.RWMutex
}

// NewOpenAPIValidator parses and validates document
func NewOpenAPIValidator(document []byte) (*OpenAPIValidator, error) {
	doc, router, err := load(document)
	if err != nil {
		return nil, err
	}
	return &OpenAPIValidator{doc: doc, router: router}, nil
}

func load(document []byte) (*openapi3.T, routers.Router, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}

	if err := doc.Validate(context.Background()); err != nil {
		return nil, nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating OpenAPI router: %w", err)
	}
	return doc, router, nil
}

// Reload swaps in a new document
func (v *OpenAPIValidator) Reload(document []byte) error {
	doc, router, err := load(document)
	if err != nil {
		return err
	}

	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.doc = doc
	v.router = router
	return nil
}

// Document returns the loaded document
func (v *OpenAPIValidator) Document() *openapi3.T {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	return v.doc
}

// Middleware returns a Gin middleware that rejects requests not matching the
// document. Routes the document does not describe pass through.
func (v *OpenAPIValidator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		v.mutex.RLock()
		router := v.router
		v.mutex.RUnlock()

		route, pathParams, err := router.FindRoute(c.Request)
		if err != nil {
			c.Next()
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    c.Request,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				MultiError:         false,
			},
		}

		if err := openapi3filter.ValidateRequest(c.Request.Context(), input); err != nil {
			_ = c.Error(errors.NewBadRequestError(errors.CodeInvalidEvent, "Request does not match the API schema").
				WithDetails(err.Error()))
			c.Abort()
			return
		}

		c.Next()
	}
}
