// Package docs registers the OpenAPI description served at /docs.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/{service}/snapshot": {
            "get": {
                "description": "Returns the wide availability table from the last poll: one row per office, one count per day.",
                "produces": ["application/json"],
                "tags": ["availability"],
                "summary": "Latest snapshot",
                "parameters": [{"type": "string", "example": "premium", "description": "Service name", "name": "service", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.SnapshotResponse"}},
                    "304": {"description": "Not Modified"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/{service}/totals": {
            "get": {
                "description": "Returns each office's appointment count summed across the horizon.",
                "produces": ["application/json"],
                "tags": ["availability"],
                "summary": "Totals per office",
                "parameters": [{"type": "string", "example": "premium", "description": "Service name", "name": "service", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.TotalsResponse"}},
                    "304": {"description": "Not Modified"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/{service}/outage": {
            "get": {
                "description": "Returns whether \"no appointments\" was last announced, and on which day.",
                "produces": ["application/json"],
                "tags": ["availability"],
                "summary": "Outage marker",
                "parameters": [{"type": "string", "example": "premium", "description": "Service name", "name": "service", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.OutageResponse"}},
                    "304": {"description": "Not Modified"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "availability.LocationCount": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "location": {"type": "string"}
            }
        },
        "handler.LocationRow": {
            "type": "object",
            "properties": {
                "counts": {"type": "array", "items": {"type": "integer"}},
                "location": {"type": "string"},
                "total": {"type": "integer"}
            }
        },
        "handler.SnapshotResponse": {
            "type": "object",
            "properties": {
                "labels": {"type": "array", "items": {"type": "string"}},
                "rows": {"type": "array", "items": {"$ref": "#/definitions/handler.LocationRow"}},
                "service": {"type": "string"},
                "total": {"type": "integer"}
            }
        },
        "handler.TotalsResponse": {
            "type": "object",
            "properties": {
                "service": {"type": "string"},
                "total": {"type": "integer"},
                "totals": {"type": "array", "items": {"$ref": "#/definitions/availability.LocationCount"}}
            }
        },
        "handler.OutageResponse": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "no_appointments": {"type": "boolean"},
                "service": {"type": "string"}
            }
        },
        "respond.ErrorBody": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "detail": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "respond.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/respond.ErrorBody"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8000",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Apptwatch Status API",
	Description:      "Read-only view of the latest passport appointment availability snapshot, per-office totals and the daily no-appointments marker.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
