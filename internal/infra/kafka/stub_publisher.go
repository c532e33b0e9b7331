package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/gustavo-gsp/TaskFlow/internal/core/domain"
	"github.com/gustavo-gsp/TaskFlow/internal/core/port"
	"github.com/gustavo-gsp/TaskFlow/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Used when no
// brokers are configured, typically in development.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(log *zap.Logger) *StubPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &StubPublisher{logger: log}
}

// PublishUserRegistered logs user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	p.logger.Info("stub event published",
		zap.String("event_type", "user.registered"),
		zap.String("user_id", event.UserID),
		zap.String("email", logger.MaskEmail(event.Email)),
		zap.Time("registered_at", event.RegisteredAt),
	)
	return nil
}

// PublishSessionRevoked logs session.revoked events.
func (p *StubPublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	p.logger.Info("stub event published",
		zap.String("event_type", "session.revoked"),
		zap.String("session_id", event.SessionID),
		zap.String("user_id", event.UserID),
		zap.String("reason", event.Reason),
		zap.Time("revoked_at", event.RevokedAt),
	)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
