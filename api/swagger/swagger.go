package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Union Clock Geofence API",
        "description": "Geofence-based automatic clock-out engine",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Locations", "description": "GPS fix ingestion"},
        {"name": "Sweeps", "description": "Auto clock-out sweep trigger"},
        {"name": "Shifts", "description": "Shift session reads"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/locations": {
            "post": {
                "tags": ["Locations"],
                "summary": "Report a GPS fix for an open shift session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportLocationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/sweeps/auto-clockout": {
            "post": {
                "tags": ["Sweeps"],
                "summary": "Run one auto clock-out sweep cycle",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/shifts/{id}": {
            "get": {
                "tags": ["Shifts"],
                "summary": "Get a shift session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/shifts/{id}/events": {
            "get": {
                "tags": ["Shifts"],
                "summary": "List the geofence event log for a shift session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ReportLocationRequest": {
            "type": "object",
            "properties": {
                "worker_id": {"type": "string"},
                "shift_session_id": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "accuracy_m": {"type": "number"},
                "timestamp": {"type": "string"}
            },
            "required": ["worker_id", "shift_session_id", "latitude", "longitude"]
        },
        "ReportLocationResult": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["not_clocked_in", "outside_window", "inside_fence", "re_entered", "exit_pending", "manual_clockout", "auto_clocked_out"]},
                "distance_m": {"type": "number"},
                "threshold_m": {"type": "number"},
                "clock_out": {"type": "string"},
                "total_hours": {"type": "number"}
            }
        },
        "SweepResult": {
            "type": "object",
            "properties": {
                "overtime_capped": {"type": "integer"},
                "exits_finalized": {"type": "integer"},
                "re_entries_detected": {"type": "integer"},
                "manual_yields": {"type": "integer"},
                "races_lost": {"type": "integer"},
                "errors": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
