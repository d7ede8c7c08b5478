package response

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func init() {
	// balances and amounts are rendered as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
}

// MessageResponse acknowledges an operation without a resource body
type MessageResponse struct {
	Message   string    `json:"message"`
	Username  string    `json:"username,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

// Success sends a 200 response with data as the body
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}

// Created sends a 201 created response
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

// Message sends a 200 acknowledgement
func Message(c *fiber.Ctx, message, username string) error {
	return c.JSON(MessageResponse{
		Message:   message,
		Username:  username,
		Timestamp: time.Now(),
		Status:    "success",
	})
}

// Error sends an error response
func Error(c *fiber.Ctx, statusCode int, title, message string) error {
	return c.Status(statusCode).JSON(ErrorResponse{
		Timestamp: time.Now(),
		Status:    statusCode,
		Error:     title,
		Message:   message,
	})
}

// BadRequest sends a 400 bad request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, "Bad Request", message)
}

// Unauthorized sends a 401 unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, "Authentication Failed", message)
}

// Forbidden sends a 403 forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, "Access Denied", message)
}

// Conflict sends a 409 conflict response
func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, "Conflict", message)
}

// NotFound sends a 404 not found response
func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, "Not Found", message)
}

// TooManyRequests sends a 429 response
func TooManyRequests(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusTooManyRequests, "Too Many Requests", message)
}

// InternalServerError sends a 500 internal server error response
func InternalServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, "Internal Server Error", message)
}
