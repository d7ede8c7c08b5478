package services

import (
	"context"
	"time"
)

// Note: services talk to persistence through repositories.Transactor and the
// repository interfaces; the only outbound port declared here is events.

// Event routing keys
const (
	EventTransferCompleted     = "card.transfer.completed"
	EventCardStatusChanged     = "card.status.changed"
	EventBlockRequestCreated   = "blockrequest.created"
	EventBlockRequestProcessed = "blockrequest.processed"
)

// Event is a domain event published after a transaction commits
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

// EventPublisher delivers domain events. Failures never roll back the operation.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// TransferCompletedPayload is published for every successful transfer
type TransferCompletedPayload struct {
	TransactionID string `json:"transactionId"`
	UserID        uint   `json:"userId"`
	FromCardID    uint   `json:"fromCardId"`
	ToCardID      uint   `json:"toCardId"`
	Amount        string `json:"amount"`
}

// CardStatusChangedPayload is published when a card is activated or blocked
type CardStatusChangedPayload struct {
	CardID uint   `json:"cardId"`
	UserID uint   `json:"userId"`
	Status string `json:"status"`
	Source string `json:"source"`
}

// BlockRequestPayload is published when a block request is created or decided
type BlockRequestPayload struct {
	RequestID uint   `json:"requestId"`
	CardID    uint   `json:"cardId"`
	UserID    uint   `json:"userId"`
	Status    string `json:"status"`
	AdminID   *uint  `json:"adminId,omitempty"`
}
