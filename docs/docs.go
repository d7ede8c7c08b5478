// Package docs registers the OpenAPI document served at /swagger/*.
// Regenerate with: swag init -g cmd/server/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {"get": {"tags": ["Health"], "summary": "Root endpoint", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/health": {"get": {"tags": ["Health"], "summary": "Health check", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}},
        "/auth/login": {"post": {"tags": ["Auth"], "summary": "Login user", "consumes": ["application/json"], "produces": ["application/json"], "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.TokenPair"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}}},
        "/auth/refresh": {"post": {"tags": ["Auth"], "summary": "Refresh access token", "consumes": ["application/json"], "produces": ["application/json"], "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RefreshTokenRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.TokenPair"}}, "401": {"description": "Unauthorized"}, "404": {"description": "Not Found"}}}},
        "/auth/logout": {"post": {"tags": ["Auth"], "summary": "Logout user", "consumes": ["application/json"], "produces": ["application/json"], "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RefreshTokenRequest"}}], "responses": {"200": {"description": "OK"}}}},
        "/auth/logout-all": {"post": {"security": [{"BearerAuth": []}], "tags": ["Auth"], "summary": "Logout from all devices", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/auth/sessions": {"get": {"security": [{"BearerAuth": []}], "tags": ["Auth"], "summary": "Get active sessions", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/auth/register": {"post": {"tags": ["Auth"], "summary": "Register new user", "consumes": ["application/json"], "produces": ["application/json"], "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RegisterRequest"}}], "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}},
        "/user/cards": {"get": {"security": [{"BearerAuth": []}], "tags": ["User Cards"], "summary": "Get my cards", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/user/cards/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["User Cards"], "summary": "Get my card", "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/user/cards/{id}/block-request": {"post": {"security": [{"BearerAuth": []}], "tags": ["User Cards"], "summary": "Request card block", "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}, {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.BlockRequestRequest"}}], "responses": {"201": {"description": "Created"}}}},
        "/user/cards/block-requests": {"get": {"security": [{"BearerAuth": []}], "tags": ["User Cards"], "summary": "Get my block requests", "responses": {"200": {"description": "OK"}}}},
        "/user/cards/transfer": {"post": {"security": [{"BearerAuth": []}], "tags": ["User Cards"], "summary": "Transfer between my cards", "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.TransferRequest"}}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}}},
        "/user/cards/balance": {"get": {"security": [{"BearerAuth": []}], "tags": ["User Cards"], "summary": "Get my total balance", "responses": {"200": {"description": "OK"}}}},
        "/admin/cards": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Admin Cards"], "summary": "Get all cards (Admin)", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["Admin Cards"], "summary": "Create card (Admin)", "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateCardRequest"}}], "responses": {"201": {"description": "Created"}}}
        },
        "/admin/cards/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Admin Cards"], "summary": "Get card (Admin)", "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["Admin Cards"], "summary": "Delete card (Admin)", "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/cards/{id}/activate": {"post": {"security": [{"BearerAuth": []}], "tags": ["Admin Cards"], "summary": "Activate card (Admin)", "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/admin/cards/{id}/block": {"post": {"security": [{"BearerAuth": []}], "tags": ["Admin Cards"], "summary": "Block card (Admin)", "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/admin/cards/{id}/balance": {"put": {"security": [{"BearerAuth": []}], "tags": ["Admin Cards"], "summary": "Update card balance (Admin)", "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}, {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdateBalanceRequest"}}], "responses": {"200": {"description": "OK"}}}},
        "/admin/cards/statistics": {"get": {"security": [{"BearerAuth": []}], "tags": ["Admin Cards"], "summary": "Card statistics (Admin)", "responses": {"200": {"description": "OK"}}}},
        "/admin/cards/user/{username}": {"get": {"security": [{"BearerAuth": []}], "tags": ["Admin Cards"], "summary": "Get user cards (Admin)", "parameters": [{"in": "path", "name": "username", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/admin/cards/block-requests": {"get": {"security": [{"BearerAuth": []}], "tags": ["Admin Cards"], "summary": "Get block requests (Admin)", "parameters": [{"in": "query", "name": "status", "type": "string"}], "responses": {"200": {"description": "OK"}}}},
        "/admin/cards/block-requests/{id}/process": {"post": {"security": [{"BearerAuth": []}], "tags": ["Admin Cards"], "summary": "Process block request (Admin)", "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}, {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ProcessBlockRequestRequest"}}], "responses": {"200": {"description": "OK"}}}},
        "/admin/cards/block-requests/statistics": {"get": {"security": [{"BearerAuth": []}], "tags": ["Admin Cards"], "summary": "Block request statistics (Admin)", "responses": {"200": {"description": "OK"}}}},
        "/admin/users": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Admin Users"], "summary": "List all users", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["Admin Users"], "summary": "Create user", "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateUserRequest"}}], "responses": {"201": {"description": "Created"}}}
        },
        "/admin/users/id/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["Admin Users"], "summary": "Get user by ID", "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/admin/users/{username}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Admin Users"], "summary": "Get user by username", "parameters": [{"in": "path", "name": "username", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["Admin Users"], "summary": "Delete user", "parameters": [{"in": "path", "name": "username", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/users/{username}/roles": {"put": {"security": [{"BearerAuth": []}], "tags": ["Admin Users"], "summary": "Update user roles", "parameters": [{"in": "path", "name": "username", "type": "string", "required": true}, {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdateRolesRequest"}}], "responses": {"200": {"description": "OK"}}}},
        "/admin/users/{username}/toggle-status": {"patch": {"security": [{"BearerAuth": []}], "tags": ["Admin Users"], "summary": "Toggle user status", "parameters": [{"in": "path", "name": "username", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}}}}
    },
    "definitions": {
        "handlers.LoginRequest": {"type": "object", "properties": {"username": {"type": "string"}, "password": {"type": "string"}}},
        "handlers.RegisterRequest": {"type": "object", "properties": {"username": {"type": "string"}, "password": {"type": "string"}}},
        "handlers.RefreshTokenRequest": {"type": "object", "properties": {"refreshToken": {"type": "string"}}},
        "handlers.BlockRequestRequest": {"type": "object", "properties": {"reason": {"type": "string"}}},
        "handlers.TransferRequest": {"type": "object", "properties": {"fromCardNumber": {"type": "string"}, "toCardNumber": {"type": "string"}, "amount": {"type": "number"}, "description": {"type": "string"}}},
        "handlers.CreateCardRequest": {"type": "object", "properties": {"username": {"type": "string"}, "cardNumber": {"type": "string"}, "cardHolderName": {"type": "string"}, "expirationMonth": {"type": "integer"}, "expirationYear": {"type": "integer"}, "initialBalance": {"type": "number"}}},
        "handlers.UpdateBalanceRequest": {"type": "object", "properties": {"newBalance": {"type": "number"}}},
        "handlers.ProcessBlockRequestRequest": {"type": "object", "properties": {"decision": {"type": "string"}, "adminComment": {"type": "string"}}},
        "handlers.CreateUserRequest": {"type": "object", "properties": {"username": {"type": "string"}, "password": {"type": "string"}, "enabled": {"type": "boolean"}, "roles": {"type": "array", "items": {"type": "string"}}}},
        "handlers.UpdateRolesRequest": {"type": "object", "properties": {"roles": {"type": "array", "items": {"type": "string"}}}},
        "services.TokenPair": {"type": "object", "properties": {"accessToken": {"type": "string"}, "refreshToken": {"type": "string"}}},
        "response.ErrorResponse": {"type": "object", "properties": {"timestamp": {"type": "string"}, "status": {"type": "integer"}, "error": {"type": "string"}, "message": {"type": "string"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Bank Cards API",
	Description:      "Bank card management: cards, intra-user transfers, block requests and sessions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
