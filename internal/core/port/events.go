package port

import (
	"context"

	"github.com/gustavo-gsp/TaskFlow/internal/core/domain"
)

// EventPublisher publishes auth lifecycle events to the message bus.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error
}
