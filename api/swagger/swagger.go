package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Mentor Booking API",
        "description": "Mentor availability, slot generation, month occupancy and lesson booking",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Availability", "description": "Mentor weekly availability windows"},
        {"name": "Tutorials", "description": "Slots and month occupancy of a tutorial"},
        {"name": "Tickets", "description": "Mentee tickets and lesson requests"},
        {"name": "Lessons", "description": "Lesson lifecycle"},
        {"name": "Booking Sessions", "description": "Step-by-step date and time selection"}
    ],
    "paths": {
        "/mentors/{id}/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "Public availability of a mentor",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/mentors/me/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "List my availability windows",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Availability"],
                "summary": "Add an availability window",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddAvailabilityRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Overlapping window", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/mentors/me/availability/{availabilityId}": {
            "delete": {
                "tags": ["Availability"],
                "summary": "Delete an availability window",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "availabilityId", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/tutorials/{id}": {
            "get": {
                "tags": ["Tutorials"],
                "summary": "Tutorial detail",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/tutorials/{id}/available-slots": {
            "get": {
                "tags": ["Tutorials"],
                "summary": "Candidate slots for one date",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Slots unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tutorials/{id}/occupancy": {
            "get": {
                "tags": ["Tutorials"],
                "summary": "Per-day occupancy tiers for a month",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "month", "in": "query", "required": true, "type": "string", "description": "YYYY-MM"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Too many requests", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tutorials/{id}/occupancy/export": {
            "get": {
                "tags": ["Tutorials"],
                "summary": "Download month occupancy as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "month", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/tutorials/{id}/booking-eligibility": {
            "get": {
                "tags": ["Tutorials"],
                "summary": "Check whether the mentee may start a booking",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/tickets/my": {
            "get": {
                "tags": ["Tickets"],
                "summary": "List my tickets",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/tickets/{id}/lessons": {
            "post": {
                "tags": ["Tickets"],
                "summary": "Request a lesson on a ticket",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLessonRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot taken", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Ticket exhausted or a lesson on it still outstanding", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lessons/my": {
            "get": {
                "tags": ["Lessons"],
                "summary": "List my lessons",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "ticket_id", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/lessons/requests": {
            "get": {
                "tags": ["Lessons"],
                "summary": "List lesson requests addressed to me",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "status", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/lessons/{id}/confirm": {
            "put": {
                "tags": ["Lessons"],
                "summary": "Confirm a requested lesson",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/lessons/{id}/reject": {
            "put": {
                "tags": ["Lessons"],
                "summary": "Reject a requested lesson",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RejectLessonRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/lessons/{id}/start": {
            "put": {
                "tags": ["Lessons"],
                "summary": "Start a confirmed lesson",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/lessons/{id}/complete": {
            "put": {
                "tags": ["Lessons"],
                "summary": "Complete a lesson in progress",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/booking-sessions": {
            "post": {
                "tags": ["Booking Sessions"],
                "summary": "Open a booking session for a tutorial",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OpenBookingSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No usable ticket", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/booking-sessions/current": {
            "get": {
                "tags": ["Booking Sessions"],
                "summary": "Current booking draft",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Booking Sessions"],
                "summary": "Abandon the booking draft",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/booking-sessions/current/date": {
            "put": {
                "tags": ["Booking Sessions"],
                "summary": "Select a date",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelectDateRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/booking-sessions/current/time": {
            "put": {
                "tags": ["Booking Sessions"],
                "summary": "Select a start time",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelectTimeRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/booking-sessions/current/message": {
            "put": {
                "tags": ["Booking Sessions"],
                "summary": "Edit the request message",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateMessageRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/booking-sessions/current/calendar": {
            "get": {
                "tags": ["Booking Sessions"],
                "summary": "Month calendar of the draft tutorial",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "month", "in": "query", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/booking-sessions/current/submit": {
            "post": {
                "tags": ["Booking Sessions"],
                "summary": "Submit the draft as a lesson request",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot taken or invalid state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "AddAvailabilityRequest": {
            "type": "object",
            "required": ["day_of_week", "start_time", "end_time"],
            "properties": {
                "day_of_week": {"type": "string", "enum": ["MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"]},
                "start_time": {"type": "string", "example": "14:00"},
                "end_time": {"type": "string", "example": "18:00"}
            }
        },
        "CreateLessonRequest": {
            "type": "object",
            "required": ["lesson_date", "lesson_time"],
            "properties": {
                "lesson_date": {"type": "string", "format": "date"},
                "lesson_time": {"type": "string", "example": "14:00"},
                "request_message": {"type": "string", "maxLength": 500}
            }
        },
        "RejectLessonRequest": {
            "type": "object",
            "required": ["reason"],
            "properties": {
                "reason": {"type": "string", "maxLength": 500}
            }
        },
        "OpenBookingSessionRequest": {
            "type": "object",
            "required": ["tutorial_id"],
            "properties": {
                "tutorial_id": {"type": "string"},
                "date": {"type": "string", "format": "date"}
            }
        },
        "SelectDateRequest": {
            "type": "object",
            "required": ["date"],
            "properties": {"date": {"type": "string", "format": "date"}}
        },
        "SelectTimeRequest": {
            "type": "object",
            "required": ["time"],
            "properties": {"time": {"type": "string", "example": "14:00"}}
        },
        "UpdateMessageRequest": {
            "type": "object",
            "properties": {"message": {"type": "string", "maxLength": 500}}
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
