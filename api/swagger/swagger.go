package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Room Scheduler API",
        "description": "Room booking conflict detection, availability analysis and reallocation",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Schedules", "description": "Room bookings and reallocation"},
        {"name": "Availability", "description": "Overlap analysis, free slots and room suggestions"},
        {"name": "Conflicts", "description": "Detected conflicts and the background monitor"}
    ],
    "paths": {
        "/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List schedules",
                "parameters": [
                    {"name": "room", "in": "query", "type": "string", "required": false},
                    {"name": "day", "in": "query", "type": "string", "required": false},
                    {"name": "page", "in": "query", "type": "integer", "required": false},
                    {"name": "limit", "in": "query", "type": "integer", "required": false}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Schedules"],
                "summary": "Book a class into a room",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/InjectScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rooms/{roomId}/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List schedules of a room",
                "parameters": [
                    {"name": "roomId", "in": "path", "type": "string", "required": true},
                    {"name": "day", "in": "query", "type": "string", "required": false},
                    {"name": "page", "in": "query", "type": "integer", "required": false},
                    {"name": "limit", "in": "query", "type": "integer", "required": false}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/reallocate": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Move a booking to another room or time",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReallocateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/reallocate/validate": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Check a move without applying it",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReallocateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/overlap": {
            "post": {
                "tags": ["Availability"],
                "summary": "Analyse a room's conflicts for a day",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OverlapCheckRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/free-slots": {
            "get": {
                "tags": ["Availability"],
                "summary": "List free slots of a room",
                "parameters": [
                    {"name": "room_id", "in": "query", "type": "string", "required": true},
                    {"name": "day", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/suggestions": {
            "post": {
                "tags": ["Availability"],
                "summary": "Suggest rooms free for a window",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SuggestRoomsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conflicts": {
            "get": {
                "tags": ["Conflicts"],
                "summary": "List detected conflicts",
                "parameters": [
                    {"name": "room_id", "in": "query", "type": "string", "required": false},
                    {"name": "day", "in": "query", "type": "string", "required": false},
                    {"name": "severity", "in": "query", "type": "string", "required": false, "description": "Critical, High, Medium or Low"},
                    {"name": "notified", "in": "query", "type": "boolean", "required": false},
                    {"name": "page", "in": "query", "type": "integer", "required": false},
                    {"name": "per_page", "in": "query", "type": "integer", "required": false}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conflicts/export": {
            "get": {
                "tags": ["Conflicts"],
                "summary": "Export detected conflicts",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "required": false, "description": "csv or pdf"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conflicts/scan": {
            "post": {
                "tags": ["Conflicts"],
                "summary": "Run a conflict scan now",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/ScanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conflicts/monitor": {
            "get": {
                "tags": ["Conflicts"],
                "summary": "Conflict monitor status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "InjectScheduleRequest": {
            "type": "object",
            "required": ["room_id", "day", "start_time", "end_time", "course"],
            "properties": {
                "room_id": {"type": "string"},
                "day": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "course": {"type": "string"},
                "department": {"type": "string"},
                "lecturer": {"type": "string"},
                "year": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "ScheduleChanges": {
            "type": "object",
            "properties": {
                "room_id": {"type": "string"},
                "day": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "course": {"type": "string"},
                "department": {"type": "string"},
                "lecturer": {"type": "string"},
                "year": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "ReallocateRequest": {
            "type": "object",
            "required": ["room_id"],
            "properties": {
                "room_id": {"type": "string"},
                "original_day": {"type": "string"},
                "original_start_time": {"type": "string"},
                "original_end_time": {"type": "string"},
                "original_course": {"type": "string"},
                "new_schedule": {"$ref": "#/definitions/ScheduleChanges"},
                "page": {"type": "integer"},
                "per_page": {"type": "integer"}
            }
        },
        "OverlapCheckRequest": {
            "type": "object",
            "required": ["room_id", "day"],
            "properties": {
                "room_id": {"type": "string"},
                "day": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "page": {"type": "integer"},
                "per_page": {"type": "integer"}
            }
        },
        "SuggestRoomsRequest": {
            "type": "object",
            "required": ["day", "start_time", "end_time"],
            "properties": {
                "day": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "room_id": {"type": "string"}
            }
        },
        "ScanRequest": {
            "type": "object",
            "properties": {
                "admin_id": {"type": "string"},
                "notify_all": {"type": "boolean"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "per_page": {"type": "integer"},
                "total_items": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next": {"type": "boolean"},
                "has_prev": {"type": "boolean"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
