package api

import _ "embed"

// OpenAPIDocument describes the REST surface and validates inbound requests
//
//go:embed openapi.yaml
var OpenAPIDocument []byte
