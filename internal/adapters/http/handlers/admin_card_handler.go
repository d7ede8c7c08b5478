package handlers

import (
	"strings"

	"bankcards/internal/core/domain"
	"bankcards/internal/core/services"
	"bankcards/internal/pkg/pagination"
	"bankcards/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// AdminCardHandler handles card administration and block request arbitration
type AdminCardHandler struct {
	cardService  *services.CardService
	blockService *services.BlockRequestService
}

// NewAdminCardHandler creates a new admin card handler
func NewAdminCardHandler(cardService *services.CardService, blockService *services.BlockRequestService) *AdminCardHandler {
	return &AdminCardHandler{
		cardService:  cardService,
		blockService: blockService,
	}
}

// CreateCardRequest represents admin card creation body
type CreateCardRequest struct {
	Username        string           `json:"username"`
	CardNumber      string           `json:"cardNumber"`
	CardHolderName  string           `json:"cardHolderName"`
	ExpirationMonth int              `json:"expirationMonth"`
	ExpirationYear  int              `json:"expirationYear"`
	InitialBalance  *decimal.Decimal `json:"initialBalance" swaggertype:"number"`
}

// UpdateBalanceRequest represents a balance overwrite
type UpdateBalanceRequest struct {
	NewBalance *decimal.Decimal `json:"newBalance" swaggertype:"number"`
}

// ProcessBlockRequestRequest represents an admin decision body
type ProcessBlockRequestRequest struct {
	Decision     string `json:"decision"`
	AdminComment string `json:"adminComment"`
}

// ListCards lists every card
// @Summary Get all cards (Admin)
// @Tags Admin Cards
// @Produce json
// @Security BearerAuth
// @Param cardNumber query string false "Full card number or fragment"
// @Param cardHolderName query string false "Card holder name fragment"
// @Param status query string false "ACTIVE or BLOCKED"
// @Param minBalance query number false "Minimum balance"
// @Param maxBalance query number false "Maximum balance"
// @Param page query int false "Page (0-based)"
// @Param size query int false "Page size (1-100)"
// @Param sortBy query string false "Sort field"
// @Param sortDirection query string false "asc or desc"
// @Success 200 {object} map[string]interface{}
// @Router /admin/cards [get]
func (h *AdminCardHandler) ListCards(c *fiber.Ctx) error {
	filter, params, err := parseCardFilter(c)
	if err != nil {
		return HandleError(c, err)
	}

	page, err := h.cardService.ListCards(c.Context(), filter, params)
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, page)
}

// CreateCard issues a card to a user
// @Summary Create card (Admin)
// @Tags Admin Cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateCardRequest true "Card"
// @Success 201 {object} services.CardResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/cards [post]
func (h *AdminCardHandler) CreateCard(c *fiber.Ctx) error {
	var req CreateCardRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validateCreateCard(&req); err != nil {
		return HandleError(c, err)
	}

	balance := decimal.Zero
	if req.InitialBalance != nil {
		balance = *req.InitialBalance
	}

	card, err := h.cardService.CreateCard(c.Context(), &services.CreateCardInput{
		Username:        strings.TrimSpace(req.Username),
		CardNumber:      req.CardNumber,
		CardHolderName:  req.CardHolderName,
		ExpirationMonth: req.ExpirationMonth,
		ExpirationYear:  req.ExpirationYear,
		InitialBalance:  balance,
	})
	if err != nil {
		return HandleError(c, err)
	}

	return response.Created(c, card)
}

// GetCard returns any card
// @Summary Get card (Admin)
// @Tags Admin Cards
// @Produce json
// @Security BearerAuth
// @Param id path int true "Card ID"
// @Success 200 {object} services.CardResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/cards/{id} [get]
func (h *AdminCardHandler) GetCard(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	card, err := h.cardService.GetCard(c.Context(), id)
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, card)
}

// ActivateCard sets a card ACTIVE
// @Summary Activate card (Admin)
// @Tags Admin Cards
// @Produce json
// @Security BearerAuth
// @Param id path int true "Card ID"
// @Success 200 {object} services.CardResponse
// @Router /admin/cards/{id}/activate [post]
func (h *AdminCardHandler) ActivateCard(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	card, err := h.cardService.ActivateCard(c.Context(), id)
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, card)
}

// BlockCard sets a card BLOCKED
// @Summary Block card (Admin)
// @Tags Admin Cards
// @Produce json
// @Security BearerAuth
// @Param id path int true "Card ID"
// @Success 200 {object} services.CardResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /admin/cards/{id}/block [post]
func (h *AdminCardHandler) BlockCard(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	card, err := h.cardService.BlockCard(c.Context(), id)
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, card)
}

// DeleteCard removes a card with zero balance
// @Summary Delete card (Admin)
// @Tags Admin Cards
// @Produce json
// @Security BearerAuth
// @Param id path int true "Card ID"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /admin/cards/{id} [delete]
func (h *AdminCardHandler) DeleteCard(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	if err := h.cardService.DeleteCard(c.Context(), id); err != nil {
		return HandleError(c, err)
	}

	return response.Message(c, "Card deleted successfully", "")
}

// UpdateBalance overwrites a card balance
// @Summary Update card balance (Admin)
// @Tags Admin Cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Card ID"
// @Param body body UpdateBalanceRequest true "New balance"
// @Success 200 {object} services.CardResponse
// @Router /admin/cards/{id}/balance [put]
func (h *AdminCardHandler) UpdateBalance(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	var req UpdateBalanceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.NewBalance == nil || req.NewBalance.IsNegative() {
		return HandleError(c, domain.ValidationFailed("newBalance is required and must not be negative"))
	}

	card, err := h.cardService.UpdateBalance(c.Context(), id, *req.NewBalance)
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, card)
}

// Statistics aggregates over all cards
// @Summary Card statistics (Admin)
// @Tags Admin Cards
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.CardStatisticsResponse
// @Router /admin/cards/statistics [get]
func (h *AdminCardHandler) Statistics(c *fiber.Ctx) error {
	stats, err := h.cardService.Statistics(c.Context())
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, stats)
}

// ListUserCards lists the cards of one user
// @Summary Get user cards (Admin)
// @Tags Admin Cards
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/cards/user/{username} [get]
func (h *AdminCardHandler) ListUserCards(c *fiber.Ctx) error {
	filter, params, err := parseCardFilter(c)
	if err != nil {
		return HandleError(c, err)
	}

	page, err := h.cardService.ListUserCards(c.Context(), c.Params("username"), filter, params)
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, page)
}

// ListBlockRequests lists block requests, optionally by status
// @Summary Get block requests (Admin)
// @Tags Admin Cards
// @Produce json
// @Security BearerAuth
// @Param status query string false "PENDING, APPROVED or REJECTED"
// @Param page query int false "Page (0-based)"
// @Param size query int false "Page size (1-100)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorResponse
// @Router /admin/cards/block-requests [get]
func (h *AdminCardHandler) ListBlockRequests(c *fiber.Ctx) error {
	params, err := pagination.GetParams(c, pagination.Options{})
	if err != nil {
		return HandleError(c, err)
	}

	page, err := h.blockService.List(c.Context(), c.Query("status"), params)
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, page)
}

// ProcessBlockRequest approves or rejects a pending block request
// @Summary Process block request (Admin)
// @Tags Admin Cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Block request ID"
// @Param body body ProcessBlockRequestRequest true "Decision"
// @Success 200 {object} services.BlockRequestResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/cards/block-requests/{id}/process [post]
func (h *AdminCardHandler) ProcessBlockRequest(c *fiber.Ctx) error {
	_, adminUsername := currentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	var req ProcessBlockRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validateProcess(&req); err != nil {
		return HandleError(c, err)
	}

	processed, err := h.blockService.Process(c.Context(), adminUsername, id, &services.ProcessBlockRequestInput{
		Decision:     req.Decision,
		AdminComment: strings.TrimSpace(req.AdminComment),
	})
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, processed)
}

// BlockRequestStatistics counts block requests by status
// @Summary Block request statistics (Admin)
// @Tags Admin Cards
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.BlockRequestStatisticsResponse
// @Router /admin/cards/block-requests/statistics [get]
func (h *AdminCardHandler) BlockRequestStatistics(c *fiber.Ctx) error {
	stats, err := h.blockService.Statistics(c.Context())
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, stats)
}
