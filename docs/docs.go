// Package docs registers the Swagger description of the /api/v1 routes with swag.
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
        "/countries": {
            "get": {
                "description": "PSD country catalog, the \"all\" wildcard first",
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List countries",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Country"}}
                    }
                }
            }
        },
        "/attributes": {
            "get": {
                "description": "Attribute ids reported for a country in a market year",
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List attributes",
                "parameters": [
                    {"type": "string", "default": "all", "description": "PSD country code or all", "name": "country", "in": "query"},
                    {"type": "integer", "description": "Market year, defaults to the reference year", "name": "year", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/pipeline.AttributeListing"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/httpadapter.errorResponse"}}
                }
            }
        },
        "/trend": {
            "get": {
                "description": "Yearly totals, fitted trend line and forecast for one attribute",
                "produces": ["application/json"],
                "tags": ["trend"],
                "summary": "Run a trend analysis",
                "parameters": [
                    {"type": "string", "default": "all", "description": "PSD country code or all", "name": "country", "in": "query"},
                    {"type": "integer", "description": "PSD attribute id", "name": "attribute", "in": "query", "required": true},
                    {"type": "integer", "default": 2014, "description": "First market year", "name": "from", "in": "query"},
                    {"type": "integer", "default": 2024, "description": "Last market year", "name": "to", "in": "query"},
                    {"type": "integer", "default": 3, "description": "Forecast horizon in years (1-5)", "name": "horizon", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/pipeline.Analysis"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/httpadapter.errorResponse"}}
                }
            }
        },
        "/trend/chart.png": {
            "get": {
                "description": "Bar chart of yearly totals with the fitted trend line",
                "produces": ["image/png"],
                "tags": ["trend"],
                "summary": "Trend chart",
                "parameters": [
                    {"type": "string", "default": "all", "name": "country", "in": "query"},
                    {"type": "integer", "name": "attribute", "in": "query", "required": true},
                    {"type": "integer", "default": 2014, "name": "from", "in": "query"},
                    {"type": "integer", "default": 2024, "name": "to", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "PNG image", "schema": {"type": "file"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/httpadapter.errorResponse"}},
                    "422": {"description": "Nothing to draw", "schema": {"$ref": "#/definitions/httpadapter.errorResponse"}}
                }
            }
        },
        "/trend/forecast.png": {
            "get": {
                "description": "Line chart of the forecast horizon",
                "produces": ["image/png"],
                "tags": ["trend"],
                "summary": "Forecast chart",
                "parameters": [
                    {"type": "string", "default": "all", "name": "country", "in": "query"},
                    {"type": "integer", "name": "attribute", "in": "query", "required": true},
                    {"type": "integer", "default": 2014, "name": "from", "in": "query"},
                    {"type": "integer", "default": 2024, "name": "to", "in": "query"},
                    {"type": "integer", "default": 3, "name": "horizon", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "PNG image", "schema": {"type": "file"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/httpadapter.errorResponse"}},
                    "422": {"description": "No trend fitted", "schema": {"$ref": "#/definitions/httpadapter.errorResponse"}}
                }
            }
        },
        "/trend/export.xlsx": {
            "get": {
                "description": "Workbook with Series, Model, Forecast, Records and Diagnostics sheets",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["trend"],
                "summary": "Export a trend analysis",
                "parameters": [
                    {"type": "string", "default": "all", "name": "country", "in": "query"},
                    {"type": "integer", "name": "attribute", "in": "query", "required": true},
                    {"type": "integer", "default": 2014, "name": "from", "in": "query"},
                    {"type": "integer", "default": 2024, "name": "to", "in": "query"},
                    {"type": "integer", "default": 3, "name": "horizon", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "XLSX workbook", "schema": {"type": "file"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/httpadapter.errorResponse"}}
                }
            }
        },
        "/snapshot": {
            "get": {
                "description": "Total and matching records for one market year",
                "produces": ["application/json"],
                "tags": ["trend"],
                "summary": "Single-year snapshot",
                "parameters": [
                    {"type": "integer", "default": 2024, "description": "Market year", "name": "year", "in": "query"},
                    {"type": "string", "default": "all", "description": "PSD country code or all", "name": "country", "in": "query"},
                    {"type": "integer", "description": "PSD attribute id", "name": "attribute", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/pipeline.Snapshot"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/httpadapter.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Country": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "domain.Prediction": {
            "type": "object",
            "properties": {
                "year": {"type": "integer"},
                "value": {"type": "number"}
            }
        },
        "domain.YearTotal": {
            "type": "object",
            "properties": {
                "year": {"type": "integer"},
                "total": {"type": "number"}
            }
        },
        "domain.TrendModel": {
            "type": "object",
            "properties": {
                "slope": {"type": "number"},
                "intercept": {"type": "number"},
                "r2": {"type": "number"}
            }
        },
        "domain.Record": {
            "type": "object",
            "properties": {
                "commodityCode": {"type": "string"},
                "countryCode": {"type": "string"},
                "marketYear": {"type": "integer"},
                "calendarYear": {"type": "integer"},
                "month": {"type": "integer"},
                "attributeId": {"type": "integer"},
                "unitId": {"type": "integer"},
                "value": {"type": "number"}
            }
        },
        "pipeline.Diagnostic": {
            "type": "object",
            "properties": {
                "year": {"type": "integer"},
                "country": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "pipeline.TrendQuery": {
            "type": "object",
            "properties": {
                "country": {"type": "string"},
                "attribute_id": {"type": "integer"},
                "from_year": {"type": "integer"},
                "to_year": {"type": "integer"},
                "horizon": {"type": "integer"}
            }
        },
        "pipeline.Analysis": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "generated_at": {"type": "string", "format": "date-time"},
                "query": {"$ref": "#/definitions/pipeline.TrendQuery"},
                "country_name": {"type": "string"},
                "attribute_label": {"type": "string"},
                "unit": {"type": "string"},
                "series": {"type": "array", "items": {"$ref": "#/definitions/domain.YearTotal"}},
                "model": {"$ref": "#/definitions/domain.TrendModel"},
                "equation": {"type": "string"},
                "fitted": {"type": "array", "items": {"$ref": "#/definitions/domain.Prediction"}},
                "forecast": {"type": "array", "items": {"$ref": "#/definitions/domain.Prediction"}},
                "records": {"type": "array", "items": {"$ref": "#/definitions/domain.Record"}},
                "diagnostics": {"type": "array", "items": {"$ref": "#/definitions/pipeline.Diagnostic"}},
                "warnings": {"type": "array", "items": {"type": "string", "enum": ["empty_result", "insufficient_data"]}}
            }
        },
        "pipeline.SnapshotQuery": {
            "type": "object",
            "properties": {
                "year": {"type": "integer"},
                "country": {"type": "string"},
                "attribute_id": {"type": "integer"}
            }
        },
        "pipeline.Snapshot": {
            "type": "object",
            "properties": {
                "query": {"$ref": "#/definitions/pipeline.SnapshotQuery"},
                "country_name": {"type": "string"},
                "attribute_label": {"type": "string"},
                "unit": {"type": "string"},
                "total": {"type": "number"},
                "record_count": {"type": "integer"},
                "records": {"type": "array", "items": {"$ref": "#/definitions/domain.Record"}},
                "diagnostics": {"type": "array", "items": {"$ref": "#/definitions/pipeline.Diagnostic"}},
                "warnings": {"type": "array", "items": {"type": "string"}}
            }
        },
        "pipeline.AttributeOption": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "label": {"type": "string"}
            }
        },
        "pipeline.AttributeListing": {
            "type": "object",
            "properties": {
                "country": {"type": "string"},
                "year": {"type": "integer"},
                "attributes": {"type": "array", "items": {"$ref": "#/definitions/pipeline.AttributeOption"}},
                "diagnostics": {"type": "array", "items": {"$ref": "#/definitions/pipeline.Diagnostic"}}
            }
        },
        "httpadapter.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Coffee PSD Trend API",
	Description:      "Yearly USDA PSD coffee totals, linear trends and forecasts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
