package handlers

import (
	"strings"

	"bankcards/internal/core/services"
	"bankcards/internal/pkg/pagination"
	"bankcards/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// myBlockRequestsPageSize is the default page size of a user's own block requests
const myBlockRequestsPageSize = 10

// cardListOptions are the paging defaults and sortable fields of card listings
var cardListOptions = pagination.Options{
	DefaultSortBy:    "id",
	DefaultDirection: "desc",
	SortFields: map[string]string{
		"id":             "id",
		"cardNumber":     "encrypted_number",
		"cardHolderName": "card_holder_name",
		"balance":        "balance",
		"status":         "status",
		"createdAt":      "created_at",
	},
}

// UserCardHandler serves the caller's own cards
type UserCardHandler struct {
	cardService  *services.CardService
	blockService *services.BlockRequestService
}

// NewUserCardHandler creates a new user card handler
func NewUserCardHandler(cardService *services.CardService, blockService *services.BlockRequestService) *UserCardHandler {
	return &UserCardHandler{
		cardService:  cardService,
		blockService: blockService,
	}
}

// TransferRequest represents a transfer request body
type TransferRequest struct {
	FromCardNumber string           `json:"fromCardNumber"`
	ToCardNumber   string           `json:"toCardNumber"`
	Amount         *decimal.Decimal `json:"amount" swaggertype:"number"`
	Description    string           `json:"description"`
}

// BlockRequestRequest represents a block petition body
type BlockRequestRequest struct {
	Reason string `json:"reason"`
}

// parseCardFilter reads the card list filter and paging parameters
func parseCardFilter(c *fiber.Ctx) (*services.CardFilterInput, *pagination.Params, error) {
	params, err := pagination.GetParams(c, cardListOptions)
	if err != nil {
		return nil, nil, err
	}

	minBalance, err := queryDecimal(c, "minBalance")
	if err != nil {
		return nil, nil, err
	}
	maxBalance, err := queryDecimal(c, "maxBalance")
	if err != nil {
		return nil, nil, err
	}

	return &services.CardFilterInput{
		CardNumber:     c.Query("cardNumber"),
		CardHolderName: c.Query("cardHolderName"),
		Status:         c.Query("status"),
		MinBalance:     minBalance,
		MaxBalance:     maxBalance,
	}, params, nil
}

// ListCards lists the caller's cards
// @Summary Get my cards
// @Description Paged list of the authenticated user's cards with optional filters
// @Tags User Cards
// @Produce json
// @Security BearerAuth
// @Param cardNumber query string false "Full card number or fragment"
// @Param cardHolderName query string false "Card holder name fragment"
// @Param status query string false "ACTIVE or BLOCKED"
// @Param minBalance query number false "Minimum balance"
// @Param maxBalance query number false "Maximum balance"
// @Param page query int false "Page (0-based)"
// @Param size query int false "Page size (1-100)"
// @Param sortBy query string false "id, cardNumber, cardHolderName, balance, status, createdAt"
// @Param sortDirection query string false "asc or desc"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorResponse
// @Router /user/cards [get]
func (h *UserCardHandler) ListCards(c *fiber.Ctx) error {
	_, username := currentUser(c)

	filter, params, err := parseCardFilter(c)
	if err != nil {
		return HandleError(c, err)
	}

	page, err := h.cardService.ListUserCards(c.Context(), username, filter, params)
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, page)
}

// GetCard returns one of the caller's cards
// @Summary Get my card
// @Tags User Cards
// @Produce json
// @Security BearerAuth
// @Param id path int true "Card ID"
// @Success 200 {object} services.CardResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /user/cards/{id} [get]
func (h *UserCardHandler) GetCard(c *fiber.Ctx) error {
	_, username := currentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	card, err := h.cardService.GetUserCard(c.Context(), username, id)
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, card)
}

// CreateBlockRequest files a block petition for one of the caller's cards
// @Summary Request card block
// @Tags User Cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Card ID"
// @Param body body BlockRequestRequest true "Reason"
// @Success 201 {object} services.BlockRequestResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /user/cards/{id}/block-request [post]
func (h *UserCardHandler) CreateBlockRequest(c *fiber.Ctx) error {
	_, username := currentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	var req BlockRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validateReason(req.Reason); err != nil {
		return HandleError(c, err)
	}

	created, err := h.blockService.Create(c.Context(), username, id, &services.CreateBlockRequestInput{
		Reason: strings.TrimSpace(req.Reason),
	})
	if err != nil {
		return HandleError(c, err)
	}

	return response.Created(c, created)
}

// ListBlockRequests lists the caller's block petitions, newest first
// @Summary Get my block requests
// @Tags User Cards
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (0-based)"
// @Param size query int false "Page size (1-100)"
// @Success 200 {object} map[string]interface{}
// @Router /user/cards/block-requests [get]
func (h *UserCardHandler) ListBlockRequests(c *fiber.Ctx) error {
	_, username := currentUser(c)

	params, err := pagination.GetParams(c, pagination.Options{DefaultSize: myBlockRequestsPageSize})
	if err != nil {
		return HandleError(c, err)
	}

	page, err := h.blockService.ListForUser(c.Context(), username, params)
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, page)
}

// Transfer moves funds between two of the caller's cards
// @Summary Transfer between my cards
// @Tags User Cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body TransferRequest true "Transfer"
// @Success 200 {object} services.TransferResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /user/cards/transfer [post]
func (h *UserCardHandler) Transfer(c *fiber.Ctx) error {
	_, username := currentUser(c)

	var req TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validateTransfer(&req); err != nil {
		return HandleError(c, err)
	}

	result, err := h.cardService.Transfer(c.Context(), username, &services.TransferInput{
		FromCardNumber: req.FromCardNumber,
		ToCardNumber:   req.ToCardNumber,
		Amount:         *req.Amount,
		Description:    req.Description,
	})
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, result)
}

// Balance sums the caller's card balances
// @Summary Get my total balance
// @Tags User Cards
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.BalanceResponse
// @Router /user/cards/balance [get]
func (h *UserCardHandler) Balance(c *fiber.Ctx) error {
	_, username := currentUser(c)

	balance, err := h.cardService.BalanceSummary(c.Context(), username)
	if err != nil {
		return HandleError(c, err)
	}

	return response.Success(c, balance)
}
