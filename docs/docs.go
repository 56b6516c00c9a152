// Package docs holds the OpenAPI document for the admin HTTP API, served
// under /swagger when built with -tags=swagger. Regenerate with
// `swag init -g cmd/torchserved/docs.go -o docs`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "torchserved maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "ok", "schema": {"type": "string"}}}
            }
        },
        "/readyz": {
            "get": {
                "description": "Ready when no load is pending and the gRPC server is serving.",
                "produces": ["text/plain"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "ready", "schema": {"type": "string"}},
                    "503": {"description": "loading", "schema": {"type": "string"}}
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "Instance status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        },
        "/models": {
            "get": {
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "Loadable models",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}}
            }
        },
        "/models/{name}": {
            "delete": {
                "tags": ["models"],
                "summary": "Evict an Unloaded or Failed instance",
                "parameters": [{"type": "string", "description": "Model name", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/extract/text": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["collaborators"],
                "summary": "Extract text from a PDF",
                "parameters": [{"type": "file", "description": "PDF document", "name": "file", "in": "formData", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ExtractResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/generate-text": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["collaborators"],
                "summary": "Complete a prompt with the configured upstream model",
                "parameters": [{"description": "Prompt", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.GenerateRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 404},
                "error": {"type": "string", "example": "model not found"}
            }
        },
        "types.Model": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "resnet50"},
                "runtime": {"type": "string", "example": "llama"},
                "path": {"type": "string"},
                "endpoint": {"type": "string"},
                "size_bytes": {"type": "integer"}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"$ref": "#/definitions/types.Model"}}
            }
        },
        "types.InstanceStatus": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "resnet50"},
                "state": {"type": "string", "example": "Available"},
                "reason": {"type": "string"},
                "runtime": {"type": "string", "example": "llama"},
                "artifact": {"type": "string", "example": "/srv/models/resnet50.gguf"},
                "refcount": {"type": "integer", "example": 2},
                "predictions": {"type": "integer", "example": 1024},
                "created_unix": {"type": "integer", "example": 1700000000},
                "loaded_unix": {"type": "integer", "example": 1700000003},
                "last_used_unix": {"type": "integer", "example": 1700000100}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "instances": {"type": "array", "items": {"$ref": "#/definitions/types.InstanceStatus"}},
                "counts": {"type": "object", "additionalProperties": {"type": "integer"}},
                "pending_loads": {"type": "integer", "example": 1},
                "ready": {"type": "boolean", "example": true},
                "uptime_seconds": {"type": "integer", "example": 3600},
                "server_time_unix": {"type": "integer", "example": 1700000000}
            }
        },
        "types.GenerateRequest": {
            "type": "object",
            "properties": {
                "prompt": {"type": "string", "example": "Write a haiku about the ocean."},
                "max_tokens": {"type": "integer", "example": 150}
            }
        },
        "types.ExtractResponse": {
            "type": "object",
            "properties": {
                "extracted_text": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "torchserved admin API",
	Description:      "Admin HTTP surface of the torchserved model-serving control plane.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
