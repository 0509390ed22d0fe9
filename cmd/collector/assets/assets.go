// Package assets embeds static files served by the collector.
package assets

import _ "embed"

// OpenApiData is the OpenAPI document shown by the Swagger UI.
//
//go:embed openapi.yaml
var OpenApiData []byte
