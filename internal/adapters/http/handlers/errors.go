package handlers

import (
	"errors"
	"log"

	"bankcards/internal/core/domain"
	"bankcards/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type errorMapping struct {
	status int
	title  string
}

var errorMappings = map[error]errorMapping{
	domain.ErrInvalidCredentials:   {fiber.StatusUnauthorized, "Invalid Credentials"},
	domain.ErrAuthenticationFailed: {fiber.StatusUnauthorized, "Authentication Failed"},
	domain.ErrRefreshTokenExpired:  {fiber.StatusUnauthorized, "Refresh Token Expired"},
	domain.ErrRefreshTokenNotFound: {fiber.StatusNotFound, "Refresh Token Not Found"},
	domain.ErrAccessDenied:         {fiber.StatusForbidden, "Access Denied"},
	domain.ErrUserNotFound:         {fiber.StatusNotFound, "User Not Found"},
	domain.ErrCardNotFound:         {fiber.StatusNotFound, "Card Not Found"},
	domain.ErrRoleNotFound:         {fiber.StatusNotFound, "Role Not Found"},
	domain.ErrBlockRequestNotFound: {fiber.StatusNotFound, "Block Request Not Found"},
	domain.ErrUserAlreadyExists:    {fiber.StatusConflict, "User Already Exists"},
	domain.ErrCardOperation:        {fiber.StatusBadRequest, "Card Operation Failed"},
	domain.ErrTransferFailed:       {fiber.StatusBadRequest, "Transfer Failed"},
	domain.ErrBlockRequest:         {fiber.StatusBadRequest, "Block Request Error"},
	domain.ErrInvalidDecision:      {fiber.StatusBadRequest, "Invalid Decision"},
	domain.ErrInvalidParameter:     {fiber.StatusBadRequest, "Invalid Parameter"},
	domain.ErrValidation:           {fiber.StatusBadRequest, "Validation Failed"},
	domain.ErrDatabaseOperation:    {fiber.StatusInternalServerError, "Database Operation Failed"},
	domain.ErrCrypto:               {fiber.StatusInternalServerError, "Internal Server Error"},
}

// HandleError writes err as {timestamp, status, error, message}.
// Server-side failures are logged in full; the client gets a generic message.
func HandleError(c *fiber.Ctx, err error) error {
	kind := domain.KindOf(err)
	mapping, ok := errorMappings[kind]
	if !ok {
		log.Printf("❌ Unexpected error on %s %s: %v", c.Method(), c.Path(), err)
		return response.InternalServerError(c, "An unexpected error occurred")
	}

	if mapping.status >= fiber.StatusInternalServerError {
		log.Printf("❌ %s on %s %s: %v", mapping.title, c.Method(), c.Path(), err)
		return response.Error(c, mapping.status, mapping.title, "An internal error occurred. Please try again later")
	}

	message := err.Error()
	var de *domain.Error
	if errors.As(err, &de) {
		message = de.Message
	}
	if kind == domain.ErrAuthenticationFailed && !errors.As(err, &de) {
		message = "Invalid username or password"
	}

	log.Printf("⚠️ %s: %s", mapping.title, message)
	return response.Error(c, mapping.status, mapping.title, message)
}

// currentUser returns the authenticated user set by the auth middleware
func currentUser(c *fiber.Ctx) (uint, string) {
	userID, _ := c.Locals("userID").(uint)
	username, _ := c.Locals("username").(string)
	return userID, username
}

// parseID reads a positive numeric path parameter
func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, domain.InvalidParameter("invalid " + name + " parameter: must be a positive integer")
	}
	return uint(id), nil
}
