//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

// apiDoc serves the OpenAPI document through swag's registry, which is
// where http-swagger reads doc.json from.
type apiDoc struct{}

func (apiDoc) ReadDoc() string { return swaggerDoc }

func init() {
	swag.Register(swag.Name, apiDoc{})
}

// MountSwagger exposes the Swagger UI under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

const swaggerDoc = `{
  "swagger": "2.0",
  "info": {
    "title": "llmserver API",
    "description": "HTTP API for local LLM inference.",
    "version": "1.0"
  },
  "basePath": "/",
  "schemes": ["http"],
  "paths": {
    "/api/chat": {
      "post": {
        "summary": "Generate text",
        "consumes": ["application/json"],
        "produces": ["application/json"],
        "parameters": [
          {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.ChatRequest"}}
        ],
        "responses": {
          "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ChatResponse"}},
          "400": {"description": "malformed request"},
          "500": {"description": "config or inference failure"}
        }
      }
    },
    "/api/health": {
      "get": {
        "summary": "Liveness",
        "produces": ["application/json"],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HealthResponse"}}}
      }
    },
    "/api/app/version": {
      "get": {
        "summary": "Build metadata",
        "produces": ["application/json"],
        "responses": {
          "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.VersionResponse"}},
          "404": {"description": "metadata file missing"},
          "500": {"description": "metadata unreadable"}
        }
      }
    }
  },
  "definitions": {
    "types.ChatRequest": {"type": "object", "required": ["prompt"], "properties": {"prompt": {"type": "string"}}},
    "types.ChatResponse": {"type": "object", "properties": {"response": {"type": "string"}}},
    "types.HealthResponse": {"type": "object", "properties": {"status": {"type": "string"}, "details": {"type": "string"}}},
    "types.VersionResponse": {"type": "object", "properties": {"version": {"type": "string"}}}
  }
}`
