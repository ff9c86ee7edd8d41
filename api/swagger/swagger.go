package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CircleMatch API",
        "description": "Teacher transfer registry and multi-party transfer cycle matching.",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Google sign-in"},
        {"name": "Teachers", "description": "Transfer registrations owned by the caller"},
        {"name": "Matches", "description": "Transfer cycles computed from the registry"},
        {"name": "Reference", "description": "Counties, districts and subjects"},
        {"name": "Admin", "description": "Operator endpoints"}
    ],
    "paths": {
        "/google-login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a Google ID token for a session token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GoogleLoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/GoogleLoginResponse"}},
                    "401": {"description": "Invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Too many requests", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers": {
            "get": {
                "tags": ["Teachers"],
                "summary": "List my registrations",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "google_id", "in": "query", "type": "string", "description": "Owner, defaults to the caller"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Teacher"}}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Teachers"],
                "summary": "Register a teacher",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TeacherRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Teacher"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}": {
            "put": {
                "tags": ["Teachers"],
                "summary": "Update a registration",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TeacherRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Teacher"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Teachers"],
                "summary": "Delete a registration",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Deleted", "schema": {"$ref": "#/definitions/DeleteResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}/contact": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Reveal the email of a cycle partner",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TeacherContact"}},
                    "403": {"description": "Not a cycle partner", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/matches": {
            "get": {
                "tags": ["Matches"],
                "summary": "List transfer cycles",
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "teacher_id", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "headers": {
                            "X-Cache": {"type": "string", "description": "HIT-MEMORY, HIT-REDIS or MISS"},
                            "X-Registry-Version": {"type": "integer"},
                            "X-Match-Truncated": {"type": "boolean"},
                            "X-Match-Truncated-Reason": {"type": "string"}
                        },
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/MatchResult"}}
                    }
                }
            }
        },
        "/matches/export": {
            "get": {
                "tags": ["Matches"],
                "summary": "Export my transfer cycles",
                "produces": ["text/csv", "application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/districts": {
            "get": {
                "tags": ["Reference"],
                "summary": "Counties and their districts",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/County"}}}}
            }
        },
        "/subjects": {
            "get": {
                "tags": ["Reference"],
                "summary": "Subjects",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"type": "string"}}}}
            }
        },
        "/admin/matches/recompute": {
            "post": {
                "tags": ["Admin"],
                "summary": "Queue a recomputation",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "year", "in": "query", "type": "integer"}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Queue full", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/metrics": {
            "get": {
                "tags": ["Admin"],
                "summary": "Runtime and matching metrics",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "GoogleLoginRequest": {
            "type": "object",
            "required": ["token"],
            "properties": {"token": {"type": "string"}}
        },
        "GoogleLoginResponse": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "picture": {"type": "string"},
                "google_id": {"type": "string"},
                "teacher": {"$ref": "#/definitions/Teacher"},
                "teachers": {"type": "array", "items": {"$ref": "#/definitions/Teacher"}},
                "access_token": {"type": "string"},
                "expires_in": {"type": "integer"}
            }
        },
        "TeacherRequest": {
            "type": "object",
            "required": ["current_county", "current_district"],
            "properties": {
                "year": {"type": "integer"},
                "current_county": {"type": "string"},
                "current_district": {"type": "string"},
                "current_school": {"type": "string"},
                "subject": {"type": "string"},
                "target_counties": {"type": "array", "items": {"type": "string"}},
                "target_districts": {"type": "array", "items": {"type": "string"}}
            }
        },
        "Teacher": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "google_id": {"type": "string"},
                "email": {"type": "string"},
                "year": {"type": "integer"},
                "display_id": {"type": "string"},
                "current_county": {"type": "string"},
                "current_district": {"type": "string"},
                "current_school": {"type": "string"},
                "subject": {"type": "string"},
                "target_counties": {"type": "array", "items": {"type": "string"}},
                "target_districts": {"type": "array", "items": {"type": "string"}},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "PublicTeacher": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "display_id": {"type": "string"},
                "year": {"type": "integer"},
                "current_county": {"type": "string"},
                "current_district": {"type": "string"},
                "current_school": {"type": "string"},
                "subject": {"type": "string"},
                "target_counties": {"type": "array", "items": {"type": "string"}},
                "target_districts": {"type": "array", "items": {"type": "string"}}
            }
        },
        "TeacherContact": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "display_id": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "DeleteResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}}
        },
        "MatchResult": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "match_type": {"type": "string"},
                "cycle_length": {"type": "integer"},
                "rank_score": {"type": "integer"},
                "teachers": {"type": "array", "items": {"$ref": "#/definitions/PublicTeacher"}}
            }
        },
        "County": {
            "type": "object",
            "properties": {
                "county": {"type": "string"},
                "districts": {"type": "array", "items": {"type": "string"}}
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
