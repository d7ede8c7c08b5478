package services

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"bankcards/internal/adapters/persistence/models"
	"bankcards/internal/adapters/persistence/repositories"
	"bankcards/internal/core/domain"
	"bankcards/internal/pkg/cardcrypto"
	"bankcards/internal/pkg/metrics"
	"bankcards/internal/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	panPattern = regexp.MustCompile(`^[0-9]{16}$`)

	minTransferAmount = decimal.New(1, -2)
)

// CardService handles card lifecycle, listing and transfers
type CardService struct {
	tx        repositories.Transactor
	cardRepo  repositories.CardRepository
	userRepo  repositories.UserRepository
	blockRepo repositories.BlockRequestRepository
	codec     *cardcrypto.Codec
	events    EventPublisher
}

// NewCardService creates a new card service
func NewCardService(
	tx repositories.Transactor,
	cardRepo repositories.CardRepository,
	userRepo repositories.UserRepository,
	blockRepo repositories.BlockRequestRepository,
	codec *cardcrypto.Codec,
	events EventPublisher,
) *CardService {
	return &CardService{
		tx:        tx,
		cardRepo:  cardRepo,
		userRepo:  userRepo,
		blockRepo: blockRepo,
		codec:     codec,
		events:    events,
	}
}

// CreateCardInput represents admin card creation input
type CreateCardInput struct {
	Username        string          `json:"username"`
	CardNumber      string          `json:"cardNumber"`
	CardHolderName  string          `json:"cardHolderName"`
	ExpirationMonth int             `json:"expirationMonth"`
	ExpirationYear  int             `json:"expirationYear"`
	InitialBalance  decimal.Decimal `json:"initialBalance"`
}

// CardFilterInput represents the optional card list filters
type CardFilterInput struct {
	CardNumber     string
	CardHolderName string
	Status         string
	MinBalance     *decimal.Decimal
	MaxBalance     *decimal.Decimal
}

// TransferInput represents a transfer between two of the caller's cards
type TransferInput struct {
	FromCardNumber string          `json:"fromCardNumber"`
	ToCardNumber   string          `json:"toCardNumber"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
}

// CardResponse is the masked card view
type CardResponse struct {
	ID               uint            `json:"id"`
	MaskedCardNumber string          `json:"maskedCardNumber"`
	CardHolderName   string          `json:"cardHolderName"`
	ExpirationMonth  int             `json:"expirationMonth"`
	ExpirationYear   int             `json:"expirationYear"`
	Balance          decimal.Decimal `json:"balance"`
	Status           string          `json:"status"`
}

// TransferResponse is the result of a completed transfer
type TransferResponse struct {
	TransactionID        string          `json:"transactionId"`
	FromMaskedCardNumber string          `json:"fromMaskedCardNumber"`
	ToMaskedCardNumber   string          `json:"toMaskedCardNumber"`
	Amount               decimal.Decimal `json:"amount"`
	FromCardBalance      decimal.Decimal `json:"fromCardBalance"`
	ToCardBalance        decimal.Decimal `json:"toCardBalance"`
	Description          string          `json:"description"`
	TransferredAt        time.Time       `json:"transferredAt"`
}

// CardStatisticsResponse aggregates over all cards
type CardStatisticsResponse struct {
	TotalCards     int64           `json:"totalCards"`
	ActiveCards    int64           `json:"activeCards"`
	BlockedCards   int64           `json:"blockedCards"`
	TotalBalance   decimal.Decimal `json:"totalBalance"`
	AverageBalance decimal.Decimal `json:"averageBalance"`
}

// BalanceResponse sums the balances of one user's cards
type BalanceResponse struct {
	TotalBalance decimal.Decimal `json:"totalBalance"`
	CardsCount   int64           `json:"cardsCount"`
	Username     string          `json:"username"`
}

// CreateCard issues a new ACTIVE card to a user
func (s *CardService) CreateCard(ctx context.Context, input *CreateCardInput) (*CardResponse, error) {
	number := strings.TrimSpace(input.CardNumber)
	if !panPattern.MatchString(number) {
		return nil, domain.ValidationFailed("card number must be exactly 16 digits")
	}
	if input.InitialBalance.IsNegative() {
		return nil, domain.ValidationFailed("initial balance must be non-negative")
	}

	var card *models.Card
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// 1. Resolve owner
		user, err := s.userRepo.GetByUsername(ctx, input.Username)
		if err != nil {
			return lookupError(err, domain.ErrUserNotFound, "load user")
		}

		// 2. Encrypt and check uniqueness
		encrypted, err := s.codec.Encrypt(number)
		if err != nil {
			return err
		}
		exists, err := s.cardRepo.ExistsByEncryptedNumber(ctx, encrypted)
		if err != nil {
			return dbError("check card number", err)
		}
		if exists {
			return domain.ErrCardNumberExists
		}

		// 3. Persist
		card = &models.Card{
			UserID:          user.ID,
			EncryptedNumber: encrypted,
			CardHolderName:  input.CardHolderName,
			ExpirationMonth: input.ExpirationMonth,
			ExpirationYear:  input.ExpirationYear,
			Status:          string(domain.CardStatusActive),
			Balance:         input.InitialBalance.Round(2),
		}
		if err := s.cardRepo.Create(ctx, card); err != nil {
			return dbError("create card", err)
		}
		return nil
	})
	if err != nil {
		return nil, dbError("create card", err)
	}

	log.Printf("✅ Card created for user %s: cardId=%d", input.Username, card.ID)
	return s.toResponse(card), nil
}

// GetCard gets any card by ID
func (s *CardService) GetCard(ctx context.Context, id uint) (*CardResponse, error) {
	var card *models.Card
	err := s.tx.WithinReadOnlyTransaction(ctx, func(ctx context.Context) error {
		var err error
		card, err = s.cardRepo.GetByID(ctx, id)
		if err != nil {
			return lookupError(err, domain.ErrCardNotFound, "load card")
		}
		return nil
	})
	if err != nil {
		return nil, dbError("get card", err)
	}
	return s.toResponse(card), nil
}

// GetUserCard gets a card only if the user owns it
func (s *CardService) GetUserCard(ctx context.Context, username string, id uint) (*CardResponse, error) {
	var card *models.Card
	err := s.tx.WithinReadOnlyTransaction(ctx, func(ctx context.Context) error {
		var err error
		card, err = s.cardRepo.GetByIDAndUsername(ctx, id, username)
		if err != nil {
			return lookupError(err, domain.ErrCardNotFound, "load card")
		}
		return nil
	})
	if err != nil {
		return nil, dbError("get card", err)
	}
	return s.toResponse(card), nil
}

// ListUserCards lists the cards of one user
func (s *CardService) ListUserCards(ctx context.Context, username string, filter *CardFilterInput, params *pagination.Params) (*pagination.Page[*CardResponse], error) {
	var page *pagination.Page[*CardResponse]
	err := s.tx.WithinReadOnlyTransaction(ctx, func(ctx context.Context) error {
		user, err := s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return lookupError(err, domain.ErrUserNotFound, "load user")
		}

		page, err = s.search(ctx, &user.ID, filter, params)
		return err
	})
	if err != nil {
		return nil, dbError("list cards", err)
	}
	return page, nil
}

// ListCards lists every card
func (s *CardService) ListCards(ctx context.Context, filter *CardFilterInput, params *pagination.Params) (*pagination.Page[*CardResponse], error) {
	var page *pagination.Page[*CardResponse]
	err := s.tx.WithinReadOnlyTransaction(ctx, func(ctx context.Context) error {
		var err error
		page, err = s.search(ctx, nil, filter, params)
		return err
	})
	if err != nil {
		return nil, dbError("list cards", err)
	}
	return page, nil
}

func (s *CardService) search(ctx context.Context, userID *uint, input *CardFilterInput, params *pagination.Params) (*pagination.Page[*CardResponse], error) {
	filter, err := s.buildFilter(input)
	if err != nil {
		return nil, err
	}
	filter.UserID = userID

	cards, total, err := s.cardRepo.Search(ctx, filter, params)
	if err != nil {
		return nil, dbError("search cards", err)
	}

	return pagination.Map(pagination.NewPage(cards, params, total), s.toResponse), nil
}

// buildFilter maps list filters onto repository predicates. A full PAN is
// encrypted and matched exactly; anything else is a ciphertext substring.
func (s *CardService) buildFilter(input *CardFilterInput) (repositories.CardFilter, error) {
	var filter repositories.CardFilter
	if input == nil {
		return filter, nil
	}

	if number := strings.TrimSpace(input.CardNumber); number != "" {
		if panPattern.MatchString(number) {
			encrypted, err := s.codec.Encrypt(number)
			if err != nil {
				return filter, err
			}
			filter.EncryptedNumber = encrypted
		} else {
			filter.NumberFragment = number
		}
	}

	if input.Status != "" {
		status, err := domain.ParseCardStatus(input.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = string(status)
	}

	filter.CardHolderName = strings.TrimSpace(input.CardHolderName)
	filter.MinBalance = input.MinBalance
	filter.MaxBalance = input.MaxBalance
	return filter, nil
}

// ActivateCard sets a card ACTIVE. Activating an active card is a no-op.
func (s *CardService) ActivateCard(ctx context.Context, id uint) (*CardResponse, error) {
	return s.changeStatus(ctx, id, domain.CardStatusActive)
}

// BlockCard sets an ACTIVE card BLOCKED
func (s *CardService) BlockCard(ctx context.Context, id uint) (*CardResponse, error) {
	return s.changeStatus(ctx, id, domain.CardStatusBlocked)
}

func (s *CardService) changeStatus(ctx context.Context, id uint, status domain.CardStatus) (*CardResponse, error) {
	var (
		card    *models.Card
		changed bool
	)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		card, err = s.lockCard(ctx, id)
		if err != nil {
			return err
		}

		if status == domain.CardStatusBlocked && card.Status == string(domain.CardStatusBlocked) {
			return domain.ErrCardAlreadyBlocked
		}
		if card.Status == string(status) {
			return nil
		}

		card.Status = string(status)
		if err := s.cardRepo.Update(ctx, card); err != nil {
			return dbError("update card", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, dbError("change card status", err)
	}

	if changed {
		log.Printf("✅ Card %d status set to %s", id, status)
		publish(ctx, s.events, EventCardStatusChanged, CardStatusChangedPayload{
			CardID: card.ID,
			UserID: card.UserID,
			Status: card.Status,
			Source: "admin",
		})
	}
	return s.toResponse(card), nil
}

// DeleteCard deletes a card whose balance is zero, together with its block requests
func (s *CardService) DeleteCard(ctx context.Context, id uint) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		card, err := s.lockCard(ctx, id)
		if err != nil {
			return err
		}

		if card.Balance.IsPositive() {
			return domain.ErrPositiveBalance
		}

		if err := s.blockRepo.DeleteByCard(ctx, card.ID); err != nil {
			return dbError("delete block requests", err)
		}
		if err := s.cardRepo.Delete(ctx, card.ID); err != nil {
			return dbError("delete card", err)
		}
		return nil
	})
	if err != nil {
		return dbError("delete card", err)
	}

	log.Printf("✅ Card deleted: cardId=%d", id)
	return nil
}

// UpdateBalance sets a card's balance
func (s *CardService) UpdateBalance(ctx context.Context, id uint, balance decimal.Decimal) (*CardResponse, error) {
	if balance.IsNegative() {
		return nil, domain.ValidationFailed("balance must be non-negative")
	}

	var card *models.Card
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		card, err = s.lockCard(ctx, id)
		if err != nil {
			return err
		}

		card.Balance = balance.Round(2)
		if err := s.cardRepo.Update(ctx, card); err != nil {
			return dbError("update card", err)
		}
		return nil
	})
	if err != nil {
		return nil, dbError("update balance", err)
	}

	log.Printf("✅ Card balance updated by admin: cardId=%d, newBalance=%s", id, card.Balance.StringFixed(2))
	return s.toResponse(card), nil
}

// Transfer moves funds between two ACTIVE cards of the same user.
// Both rows are locked in ascending id order before balances change.
func (s *CardService) Transfer(ctx context.Context, username string, input *TransferInput) (*TransferResponse, error) {
	amount := input.Amount
	if amount.LessThan(minTransferAmount) {
		metrics.Transfers.WithLabelValues("invalid").Inc()
		return nil, domain.ValidationFailed("amount must be at least 0.01")
	}
	if !amount.Equal(amount.Truncate(2)) {
		metrics.Transfers.WithLabelValues("invalid").Inc()
		return nil, domain.ValidationFailed("amount must have at most 2 decimal places")
	}

	var (
		result *TransferResponse
		userID uint
		fromID uint
		toID   uint
	)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// 1. Load user and cards
		user, err := s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return lookupError(err, domain.ErrUserNotFound, "load user")
		}
		userID = user.ID

		cards, err := s.cardRepo.ListByUser(ctx, user.ID)
		if err != nil {
			return dbError("load cards", err)
		}

		// 2. Match plaintext numbers
		from := s.findByNumber(cards, input.FromCardNumber)
		to := s.findByNumber(cards, input.ToCardNumber)
		if from == nil || to == nil {
			return domain.ErrCardAccessDenied
		}
		fromID, toID = from.ID, to.ID

		// 3. Lock rows and re-read
		locked, err := s.cardRepo.LockByIDs(ctx, from.ID, to.ID)
		if err != nil {
			return dbError("lock cards", err)
		}
		for _, c := range locked {
			if c.ID == from.ID {
				from = c
			}
			if c.ID == to.ID {
				to = c
			}
		}

		// 4. Validate
		switch {
		case from.Status != string(domain.CardStatusActive):
			return domain.ErrSourceCardNotActive
		case to.Status != string(domain.CardStatusActive):
			return domain.ErrTargetCardNotActive
		case from.Balance.LessThan(amount):
			return domain.ErrInsufficientFunds
		case from.ID == to.ID:
			return domain.ErrSameCard
		}

		// 5. Mutate and persist
		from.Balance = from.Balance.Sub(amount)
		to.Balance = to.Balance.Add(amount)
		if err := s.cardRepo.Update(ctx, from); err != nil {
			return dbError("update source card", err)
		}
		if err := s.cardRepo.Update(ctx, to); err != nil {
			return dbError("update destination card", err)
		}

		result = &TransferResponse{
			TransactionID:        uuid.NewString(),
			FromMaskedCardNumber: cardcrypto.MaskNumber(strings.TrimSpace(input.FromCardNumber)),
			ToMaskedCardNumber:   cardcrypto.MaskNumber(strings.TrimSpace(input.ToCardNumber)),
			Amount:               amount,
			FromCardBalance:      from.Balance.Round(2),
			ToCardBalance:        to.Balance.Round(2),
			Description:          input.Description,
			TransferredAt:        time.Now(),
		}
		return nil
	})
	if err != nil {
		metrics.Transfers.WithLabelValues(transferFailureLabel(err)).Inc()
		return nil, dbError("transfer", err)
	}

	metrics.Transfers.WithLabelValues("success").Inc()
	log.Printf("✅ Transfer completed: transactionId=%s, user=%s, fromCardId=%d, toCardId=%d, amount=%s",
		result.TransactionID, username, fromID, toID, amount.StringFixed(2))

	publish(ctx, s.events, EventTransferCompleted, TransferCompletedPayload{
		TransactionID: result.TransactionID,
		UserID:        userID,
		FromCardID:    fromID,
		ToCardID:      toID,
		Amount:        amount.StringFixed(2),
	})
	return result, nil
}

func transferFailureLabel(err error) string {
	switch domain.KindOf(err) {
	case domain.ErrTransferFailed:
		return "rejected"
	case domain.ErrAccessDenied, domain.ErrUserNotFound:
		return "denied"
	}
	return "error"
}

// findByNumber locates a card by plaintext number. Undecryptable rows never match.
func (s *CardService) findByNumber(cards []*models.Card, number string) *models.Card {
	number = strings.TrimSpace(number)
	for _, card := range cards {
		plain, err := s.codec.Decrypt(card.EncryptedNumber)
		if err != nil {
			log.Printf("❌ Error decrypting card number for card %d: %v", card.ID, err)
			continue
		}
		if plain == number {
			return card
		}
	}
	return nil
}

// Statistics aggregates counts and balances over all cards
func (s *CardService) Statistics(ctx context.Context) (*CardStatisticsResponse, error) {
	var stats *repositories.CardStatistics
	err := s.tx.WithinReadOnlyTransaction(ctx, func(ctx context.Context) error {
		var err error
		stats, err = s.cardRepo.Statistics(ctx)
		return err
	})
	if err != nil {
		return nil, dbError("card statistics", err)
	}

	average := decimal.Zero
	if stats.TotalCards > 0 {
		average = stats.TotalBalance.DivRound(decimal.NewFromInt(stats.TotalCards), 2)
	}

	return &CardStatisticsResponse{
		TotalCards:     stats.TotalCards,
		ActiveCards:    stats.ActiveCards,
		BlockedCards:   stats.BlockedCards,
		TotalBalance:   stats.TotalBalance,
		AverageBalance: average,
	}, nil
}

// BalanceSummary sums the balances of a user's cards
func (s *CardService) BalanceSummary(ctx context.Context, username string) (*BalanceResponse, error) {
	resp := &BalanceResponse{Username: username}
	err := s.tx.WithinReadOnlyTransaction(ctx, func(ctx context.Context) error {
		user, err := s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return lookupError(err, domain.ErrUserNotFound, "load user")
		}

		resp.TotalBalance, resp.CardsCount, err = s.cardRepo.BalanceByUser(ctx, user.ID)
		return err
	})
	if err != nil {
		return nil, dbError("balance summary", err)
	}
	return resp, nil
}

// lockCard reads one card under a row lock
func (s *CardService) lockCard(ctx context.Context, id uint) (*models.Card, error) {
	cards, err := s.cardRepo.LockByIDs(ctx, id)
	if err != nil {
		return nil, dbError("lock card", err)
	}
	if len(cards) == 0 {
		return nil, domain.ErrCardNotFound
	}
	return cards[0], nil
}

func (s *CardService) toResponse(card *models.Card) *CardResponse {
	return &CardResponse{
		ID:               card.ID,
		MaskedCardNumber: s.codec.Mask(card.EncryptedNumber),
		CardHolderName:   card.CardHolderName,
		ExpirationMonth:  card.ExpirationMonth,
		ExpirationYear:   card.ExpirationYear,
		Balance:          card.Balance.Round(2),
		Status:           card.Status,
	}
}
