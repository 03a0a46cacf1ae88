// Package docs registers the sumcache OpenAPI document with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/core.HealthResponse"}}
                }
            }
        },
        "/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Readiness probe, pings storage",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/core.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/core.HealthResponse"}}
                }
            }
        },
        "/sum": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sum"],
                "summary": "Sum a list of integers, memoized by multiset",
                "parameters": [
                    {
                        "description": "Integers to sum",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/core.SumRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/core.SumResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/core.APIError"}},
                    "500": {"description": "Overflow", "schema": {"$ref": "#/definitions/core.APIError"}},
                    "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/core.APIError"}}
                }
            }
        },
        "/sum/{fingerprint}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sum"],
                "summary": "Look up a stored computation by fingerprint",
                "parameters": [
                    {
                        "type": "string",
                        "description": "SHA-256 hex fingerprint",
                        "name": "fingerprint",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/core.RecordResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/core.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/core.APIError"}},
                    "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/core.APIError"}}
                }
            }
        }
    },
    "definitions": {
        "core.APIError": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "status_code": {"type": "integer"},
                "type": {"type": "string"}
            }
        },
        "core.HealthResponse": {
            "type": "object",
            "properties": {
                "checks": {"type": "object", "additionalProperties": {"type": "string"}},
                "status": {"type": "string"}
            }
        },
        "core.RecordResponse": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "fingerprint": {"type": "string"},
                "raw_input": {"type": "array", "items": {"type": "integer", "format": "int64"}},
                "result": {"type": "integer", "format": "int64"}
            }
        },
        "core.SumRequest": {
            "type": "object",
            "properties": {
                "numbers": {"type": "array", "items": {"type": "integer", "format": "int64"}}
            }
        },
        "core.SumResponse": {
            "type": "object",
            "properties": {
                "cached": {"type": "boolean"},
                "sum": {"type": "integer", "format": "int64"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "sumcache API",
	Description:      "Memoized integer sums keyed by an order-independent input fingerprint.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
