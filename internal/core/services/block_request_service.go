package services

import (
	"context"
	"log"
	"strings"
	"time"

	"bankcards/internal/adapters/persistence/models"
	"bankcards/internal/adapters/persistence/repositories"
	"bankcards/internal/core/domain"
	"bankcards/internal/pkg/cardcrypto"
	"bankcards/internal/pkg/metrics"
	"bankcards/internal/pkg/pagination"
)

// BlockRequestService handles user petitions to block a card
type BlockRequestService struct {
	tx        repositories.Transactor
	blockRepo repositories.BlockRequestRepository
	cardRepo  repositories.CardRepository
	userRepo  repositories.UserRepository
	codec     *cardcrypto.Codec
	events    EventPublisher
}

// NewBlockRequestService creates a new block request service
func NewBlockRequestService(
	tx repositories.Transactor,
	blockRepo repositories.BlockRequestRepository,
	cardRepo repositories.CardRepository,
	userRepo repositories.UserRepository,
	codec *cardcrypto.Codec,
	events EventPublisher,
) *BlockRequestService {
	return &BlockRequestService{
		tx:        tx,
		blockRepo: blockRepo,
		cardRepo:  cardRepo,
		userRepo:  userRepo,
		codec:     codec,
		events:    events,
	}
}

// CreateBlockRequestInput represents a user's petition
type CreateBlockRequestInput struct {
	Reason string `json:"reason"`
}

// ProcessBlockRequestInput represents an admin decision
type ProcessBlockRequestInput struct {
	Decision     string `json:"decision"`
	AdminComment string `json:"adminComment"`
}

// BlockRequestResponse DTO
type BlockRequestResponse struct {
	ID               uint       `json:"id"`
	CardID           uint       `json:"cardId"`
	CardMaskedNumber string     `json:"cardMaskedNumber"`
	Reason           string     `json:"reason"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"createdAt"`
	ProcessedAt      *time.Time `json:"processedAt"`
	ProcessedByAdmin *string    `json:"processedByAdmin"`
	AdminComment     *string    `json:"adminComment"`
}

// BlockRequestStatisticsResponse counts requests by status
type BlockRequestStatisticsResponse struct {
	TotalRequests    int64 `json:"totalRequests"`
	PendingRequests  int64 `json:"pendingRequests"`
	ApprovedRequests int64 `json:"approvedRequests"`
	RejectedRequests int64 `json:"rejectedRequests"`
}

// Create files a PENDING block request for a card the user owns
func (s *BlockRequestService) Create(ctx context.Context, username string, cardID uint, input *CreateBlockRequestInput) (*BlockRequestResponse, error) {
	var req *models.BlockRequest

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// 1. Ownership
		card, err := s.cardRepo.GetByIDAndUsername(ctx, cardID, username)
		if err != nil {
			return lookupError(err, domain.ErrCardNotFound, "load card")
		}

		// 2. Lock the card so concurrent petitions serialise
		locked, err := s.cardRepo.LockByIDs(ctx, card.ID)
		if err != nil {
			return dbError("lock card", err)
		}
		if len(locked) == 0 {
			return domain.ErrCardNotFound
		}
		card = locked[0]

		// 3. Preconditions
		if card.Status == string(domain.CardStatusBlocked) {
			return domain.ErrRequestCardBlocked
		}
		pending, err := s.blockRepo.ExistsByCardAndStatus(ctx, card.ID, string(domain.BlockRequestPending))
		if err != nil {
			return dbError("check pending requests", err)
		}
		if pending {
			return domain.ErrPendingExists
		}

		// 4. Persist
		req = &models.BlockRequest{
			CardID: card.ID,
			UserID: card.UserID,
			Reason: strings.TrimSpace(input.Reason),
			Status: string(domain.BlockRequestPending),
		}
		if err := s.blockRepo.Create(ctx, req); err != nil {
			return dbError("create block request", err)
		}
		req.Card = *card
		return nil
	})
	if err != nil {
		return nil, dbError("create block request", err)
	}

	log.Printf("✅ Block request created: id=%d, cardId=%d, user=%s", req.ID, cardID, username)
	publish(ctx, s.events, EventBlockRequestCreated, BlockRequestPayload{
		RequestID: req.ID,
		CardID:    req.CardID,
		UserID:    req.UserID,
		Status:    req.Status,
	})
	return s.toResponse(req), nil
}

// ListForUser lists a user's block requests, newest first
func (s *BlockRequestService) ListForUser(ctx context.Context, username string, params *pagination.Params) (*pagination.Page[*BlockRequestResponse], error) {
	var page *pagination.Page[*BlockRequestResponse]
	err := s.tx.WithinReadOnlyTransaction(ctx, func(ctx context.Context) error {
		user, err := s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return lookupError(err, domain.ErrUserNotFound, "load user")
		}

		reqs, total, err := s.blockRepo.ListByUser(ctx, user.ID, params)
		if err != nil {
			return dbError("list block requests", err)
		}
		page = s.toPage(reqs, params, total)
		return nil
	})
	if err != nil {
		return nil, dbError("list block requests", err)
	}
	return page, nil
}

// List lists every block request, optionally in one status
func (s *BlockRequestService) List(ctx context.Context, status string, params *pagination.Params) (*pagination.Page[*BlockRequestResponse], error) {
	var filter domain.BlockRequestStatus
	if status != "" {
		var err error
		if filter, err = domain.ParseBlockRequestStatus(status); err != nil {
			return nil, err
		}
	}

	var page *pagination.Page[*BlockRequestResponse]
	err := s.tx.WithinReadOnlyTransaction(ctx, func(ctx context.Context) error {
		var (
			reqs  []*models.BlockRequest
			total int64
			err   error
		)
		if filter != "" {
			reqs, total, err = s.blockRepo.ListByStatus(ctx, string(filter), params)
		} else {
			reqs, total, err = s.blockRepo.List(ctx, params)
		}
		if err != nil {
			return dbError("list block requests", err)
		}
		page = s.toPage(reqs, params, total)
		return nil
	})
	if err != nil {
		return nil, dbError("list block requests", err)
	}
	return page, nil
}

// Process records an admin decision. Approval blocks the card in the same transaction.
func (s *BlockRequestService) Process(ctx context.Context, adminUsername string, requestID uint, input *ProcessBlockRequestInput) (*BlockRequestResponse, error) {
	var (
		req         *models.BlockRequest
		decision    domain.Decision
		cardBlocked bool
	)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// 1. Resolve admin and request
		admin, err := s.userRepo.GetByUsername(ctx, adminUsername)
		if err != nil {
			return lookupError(err, domain.ErrUserNotFound, "load admin")
		}
		req, err = s.blockRepo.LockByID(ctx, requestID)
		if err != nil {
			return lookupError(err, domain.ErrBlockRequestNotFound, "load block request")
		}

		// 2. Preconditions
		if req.Status != string(domain.BlockRequestPending) {
			return domain.ErrAlreadyProcessed
		}
		decision, err = domain.ParseDecision(input.Decision)
		if err != nil {
			return err
		}

		// 3. Lock the card
		cards, err := s.cardRepo.LockByIDs(ctx, req.CardID)
		if err != nil {
			return dbError("lock card", err)
		}
		if len(cards) == 0 {
			return domain.ErrCardNotFound
		}
		card := cards[0]

		// 4. Apply decision
		now := time.Now()
		req.ProcessedAt = &now
		req.ProcessedByAdminID = &admin.ID
		req.AdminComment = strings.TrimSpace(input.AdminComment)

		switch decision {
		case domain.DecisionApprove:
			req.Status = string(domain.BlockRequestApproved)
			if card.Status != string(domain.CardStatusBlocked) {
				card.Status = string(domain.CardStatusBlocked)
				if err := s.cardRepo.Update(ctx, card); err != nil {
					return dbError("block card", err)
				}
				cardBlocked = true
				log.Printf("✅ Card blocked by admin: cardId=%d, admin=%s", card.ID, adminUsername)
			}
		case domain.DecisionReject:
			req.Status = string(domain.BlockRequestRejected)
		}

		if err := s.blockRepo.Update(ctx, req); err != nil {
			return dbError("update block request", err)
		}

		// 5. Reload with card and admin
		req, err = s.blockRepo.GetByID(ctx, req.ID)
		if err != nil {
			return dbError("reload block request", err)
		}
		return nil
	})
	if err != nil {
		return nil, dbError("process block request", err)
	}

	metrics.BlockRequestsProcessed.WithLabelValues(string(decision)).Inc()
	log.Printf("✅ Block request processed: id=%d, status=%s, admin=%s", req.ID, req.Status, adminUsername)

	publish(ctx, s.events, EventBlockRequestProcessed, BlockRequestPayload{
		RequestID: req.ID,
		CardID:    req.CardID,
		UserID:    req.UserID,
		Status:    req.Status,
		AdminID:   req.ProcessedByAdminID,
	})
	if cardBlocked {
		publish(ctx, s.events, EventCardStatusChanged, CardStatusChangedPayload{
			CardID: req.Card.ID,
			UserID: req.Card.UserID,
			Status: req.Card.Status,
			Source: "block_request",
		})
	}

	return s.toResponse(req), nil
}

// Statistics counts block requests by status
func (s *BlockRequestService) Statistics(ctx context.Context) (*BlockRequestStatisticsResponse, error) {
	stats := &BlockRequestStatisticsResponse{}
	err := s.tx.WithinReadOnlyTransaction(ctx, func(ctx context.Context) error {
		counts := []struct {
			status domain.BlockRequestStatus
			dst    *int64
		}{
			{domain.BlockRequestPending, &stats.PendingRequests},
			{domain.BlockRequestApproved, &stats.ApprovedRequests},
			{domain.BlockRequestRejected, &stats.RejectedRequests},
		}
		for _, c := range counts {
			n, err := s.blockRepo.CountByStatus(ctx, string(c.status))
			if err != nil {
				return err
			}
			*c.dst = n
		}
		return nil
	})
	if err != nil {
		return nil, dbError("block request statistics", err)
	}

	stats.TotalRequests = stats.PendingRequests + stats.ApprovedRequests + stats.RejectedRequests
	return stats, nil
}

func (s *BlockRequestService) toPage(reqs []*models.BlockRequest, params *pagination.Params, total int64) *pagination.Page[*BlockRequestResponse] {
	return pagination.Map(pagination.NewPage(reqs, params, total), s.toResponse)
}

func (s *BlockRequestService) toResponse(req *models.BlockRequest) *BlockRequestResponse {
	resp := &BlockRequestResponse{
		ID:               req.ID,
		CardID:           req.CardID,
		CardMaskedNumber: s.codec.Mask(req.Card.EncryptedNumber),
		Reason:           req.Reason,
		Status:           req.Status,
		CreatedAt:        req.CreatedAt,
		ProcessedAt:      req.ProcessedAt,
	}
	if req.ProcessedByAdmin != nil {
		name := req.ProcessedByAdmin.Username
		resp.ProcessedByAdmin = &name
	}
	if req.ProcessedAt != nil {
		comment := req.AdminComment
		resp.AdminComment = &comment
	}
	return resp
}
