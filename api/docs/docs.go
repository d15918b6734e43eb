// Package docs holds the swagger document served at /api/v1/docs/doc.json.
// Regenerate with `swag init -g cmd/main.go -o api/docs` after changing handler annotations.
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
        "/analytics/report/{metric}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Single metric report",
                "parameters": [
                    {"type": "string", "description": "Metric name", "name": "metric", "in": "path", "required": true},
                    {"type": "string", "description": "Controller ID", "name": "controller_id", "in": "query", "required": true},
                    {"type": "string", "description": "Start time (RFC3339)", "name": "start_time", "in": "query"},
                    {"type": "string", "description": "End time (RFC3339)", "name": "end_time", "in": "query"},
                    {"type": "integer", "description": "Maximum number of measurements", "name": "limit", "in": "query"},
                    {"type": "boolean", "description": "Bypass the cache", "name": "real_time", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.AnalyticsReport"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/analytics/multi-report": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Multi-controller report",
                "parameters": [
                    {"description": "Controllers, metrics and filters", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.MultiReportRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.MultiReportResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/analytics/trends/{metric}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Trend analysis",
                "parameters": [
                    {"type": "string", "description": "Metric name", "name": "metric", "in": "path", "required": true},
                    {"type": "string", "description": "Controller ID", "name": "controller_id", "in": "query", "required": true},
                    {"type": "string", "description": "Start time (RFC3339)", "name": "start_time", "in": "query", "required": true},
                    {"type": "string", "description": "End time (RFC3339)", "name": "end_time", "in": "query", "required": true},
                    {"type": "string", "description": "Resampling interval (15min, 1h, 1d, 1w)", "name": "interval", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.TrendAnalysis"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/analytics/comprehensive": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Comprehensive report",
                "parameters": [
                    {"description": "Controllers, metrics and filters", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.ComprehensiveReportRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ComprehensiveReport"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/analytics/latest/{controller_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Latest measurement",
                "parameters": [
                    {"type": "string", "description": "Controller ID", "name": "controller_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Measurement"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/analytics/historical": {
            "get": {
                "produces": ["application/json"],
                "tags": ["historical"],
                "summary": "Historical data",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.HistoricalQueryResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/analytics/historical/averages": {
            "get": {
                "produces": ["application/json"],
                "tags": ["historical"],
                "summary": "Historical averages",
                "parameters": [
                    {"type": "integer", "description": "Interval in minutes (15, 30, 60, 120, 360, 720)", "name": "average_interval", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.HistoricalAveragesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/analytics/cache": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Flush all cached analytics results",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/analytics/cache/{controller_id}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Invalidate cached results of a controller",
                "parameters": [
                    {"type": "string", "description": "Controller ID", "name": "controller_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/analytics/metrics": {
            "get": {"produces": ["application/json"], "tags": ["analytics"], "summary": "Supported metrics", "responses": {"200": {"description": "OK"}}}
        },
        "/analytics/health": {
            "get": {"produces": ["application/json"], "tags": ["system"], "summary": "Health check", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        }
    },
    "definitions": {
        "errors.APIError": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "message": {"type": "string"},
                "code": {"type": "integer"},
                "request_id": {"type": "string"},
                "details": {}
            }
        },
        "models.AnalyticsReport": {"type": "object"},
        "models.MultiReportRequest": {"type": "object"},
        "models.MultiReportResponse": {"type": "object"},
        "models.TrendAnalysis": {"type": "object"},
        "models.ComprehensiveReportRequest": {"type": "object"},
        "models.ComprehensiveReport": {"type": "object"},
        "models.Measurement": {"type": "object"},
        "models.HistoricalQueryResponse": {"type": "object"},
        "models.HistoricalAveragesResponse": {"type": "object"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "W4B Analytics API",
	Description:      "Agronomic analytics over controller measurements.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
