package handlers

import (
	"strings"

	"bankcards/internal/core/domain"
	"bankcards/internal/core/services"
	"bankcards/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, userService *services.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

// LoginRequest represents login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest represents registration request body
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshTokenRequest carries a refresh token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Login handles user login
// @Summary Login user
// @Description Authenticate user and return access and refresh tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} services.TokenPair
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	// Validate required fields
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return HandleError(c, domain.ValidationFailed("username and password are required"))
	}

	tokens, err := h.authService.Login(c.Context(), &services.LoginInput{
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
	})
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, tokens)
}

// Refresh issues a new access token for a valid refresh token
// @Summary Refresh access token
// @Description Exchange a refresh token for a new access token. The refresh token is returned unchanged.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RefreshTokenRequest true "Refresh token"
// @Success 200 {object} services.TokenPair
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		return HandleError(c, domain.ValidationFailed("refreshToken is required"))
	}

	tokens, err := h.authService.Refresh(c.Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, tokens)
}

// Logout revokes one refresh token
// @Summary Logout user
// @Description Revoke the provided refresh token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RefreshTokenRequest true "Refresh token"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		return HandleError(c, domain.ValidationFailed("refreshToken is required"))
	}

	if err := h.authService.Logout(c.Context(), strings.TrimSpace(req.RefreshToken)); err != nil {
		return HandleError(c, err)
	}

	return response.Message(c, "Logged out successfully", "")
}

// LogoutAll revokes every session of the caller
// @Summary Logout from all devices
// @Description Revoke all refresh tokens of the authenticated user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.MessageResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	userID, username := currentUser(c)

	if err := h.authService.LogoutAll(c.Context(), userID); err != nil {
		return HandleError(c, err)
	}

	return response.Message(c, "All sessions logged out successfully", username)
}

// Sessions reports the caller's active session count
// @Summary Get active sessions
// @Description Count the active sessions of the authenticated user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.SessionsResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/sessions [get]
func (h *AuthHandler) Sessions(c *fiber.Ctx) error {
	userID, username := currentUser(c)

	sessions, err := h.authService.Sessions(c.Context(), userID, username)
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, sessions)
}

// Register handles self-registration
// @Summary Register new user
// @Description Create an enabled account with the USER role
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Registration data"
// @Success 201 {object} models.UserResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validateCredentials(req.Username, req.Password); err != nil {
		return HandleError(c, err)
	}

	user, err := h.userService.Register(c.Context(), &services.RegisterInput{
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
	})
	if err != nil {
		return HandleError(c, err)
	}

	return response.Created(c, user)
}
