package handlers

import (
	"strings"

	"bankcards/internal/core/domain"
	"bankcards/internal/core/services"
	"bankcards/internal/pkg/pagination"
	"bankcards/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

var userListOptions = pagination.Options{
	DefaultSortBy:    "id",
	DefaultDirection: "asc",
	SortFields: map[string]string{
		"id":        "id",
		"username":  "username",
		"enabled":   "enabled",
		"createdAt": "created_at",
	},
}

// UserHandler handles user management endpoints (Admin only)
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CreateUserRequest represents admin user creation body
type CreateUserRequest struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Enabled  *bool    `json:"enabled"`
	Roles    []string `json:"roles"`
}

// UpdateRolesRequest represents a role replacement body
type UpdateRolesRequest struct {
	Roles []string `json:"roles"`
}

// ListUsers handles listing all users
// @Summary List all users
// @Description Get a paginated list of all users (Admin only)
// @Tags Admin Users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (0-based)"
// @Param size query int false "Page size (1-100)"
// @Param sortBy query string false "id, username, enabled, createdAt"
// @Param sortDirection query string false "asc or desc"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	params, err := pagination.GetParams(c, userListOptions)
	if err != nil {
		return HandleError(c, err)
	}

	page, err := h.userService.ListUsers(c.Context(), params)
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, page)
}

// GetUser handles getting a user by username
// @Summary Get user by username
// @Tags Admin Users
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} models.UserResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/{username} [get]
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.userService.GetByUsername(c.Context(), c.Params("username"))
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, user)
}

// GetUserByID handles getting a user by ID
// @Summary Get user by ID
// @Tags Admin Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.UserResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/id/{id} [get]
func (h *UserHandler) GetUserByID(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	user, err := h.userService.GetByID(c.Context(), id)
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, user)
}

// CreateUser handles admin user creation
// @Summary Create user
// @Tags Admin Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateUserRequest true "User"
// @Success 201 {object} models.UserResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /admin/users [post]
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validateCredentials(req.Username, req.Password); err != nil {
		return HandleError(c, err)
	}

	user, err := h.userService.CreateUser(c.Context(), &services.CreateUserInput{
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
		Enabled:  req.Enabled,
		Roles:    req.Roles,
	})
	if err != nil {
		return HandleError(c, err)
	}

	return response.Created(c, user)
}

// UpdateRoles replaces a user's roles
// @Summary Update user roles
// @Tags Admin Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Param body body UpdateRolesRequest true "Roles"
// @Success 200 {object} models.UserResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/{username}/roles [put]
func (h *UserHandler) UpdateRoles(c *fiber.Ctx) error {
	var req UpdateRolesRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if len(req.Roles) == 0 {
		return HandleError(c, domain.ValidationFailed("at least one role is required"))
	}

	user, err := h.userService.UpdateRoles(c.Context(), c.Params("username"), req.Roles)
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, user)
}

// ToggleStatus enables or disables a user
// @Summary Toggle user status
// @Description Disabling a user revokes all of their sessions
// @Tags Admin Users
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} models.UserResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/{username}/toggle-status [patch]
func (h *UserHandler) ToggleStatus(c *fiber.Ctx) error {
	user, err := h.userService.ToggleStatus(c.Context(), c.Params("username"))
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, user)
}

// DeleteUser deletes a user and everything they own
// @Summary Delete user
// @Tags Admin Users
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} response.MessageResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/{username} [delete]
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	username := c.Params("username")

	if err := h.userService.DeleteUser(c.Context(), username); err != nil {
		return HandleError(c, err)
	}

	return response.Message(c, "User deleted successfully", username)
}
