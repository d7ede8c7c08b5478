package services

import (
	"context"
	"errors"
	"log"
	"time"

	"bankcards/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// lookupError turns a missing row into the given domain error and anything else into a database error
func lookupError(err error, notFound error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return dbError(op, err)
}

// dbError wraps a persistence failure unless it already carries a domain kind
func dbError(op string, err error) error {
	if err == nil || domain.KindOf(err) != nil {
		return err
	}
	return domain.DatabaseError(op, err)
}

// publish sends an event after commit. Delivery failures are logged only.
func publish(ctx context.Context, publisher EventPublisher, eventType string, payload interface{}) {
	if publisher == nil {
		return
	}

	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Printf("⚠️ Failed to publish %s event %s: %v", eventType, event.ID, err)
	}
}
