package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/gustavo-gsp/TaskFlow/internal/core/domain"
	"github.com/gustavo-gsp/TaskFlow/internal/core/port"
	"github.com/gustavo-gsp/TaskFlow/internal/infra/config"
)

// EventPublisher emits auth lifecycle events to Kafka topics named
// <prefix>.user.registered and <prefix>.session.revoked.
type EventPublisher struct {
	producer *Producer
	prefix   string
	logger   *zap.Logger
}

// NewEventPublisher wires a publisher on top of the async producer.
func NewEventPublisher(producer *Producer, cfg config.KafkaSettings, logger *zap.Logger) *EventPublisher {
	prefix := cfg.TopicPrefix
	if prefix == "" {
		prefix = "auth"
	}
	return &EventPublisher{producer: producer, prefix: prefix, logger: logger}
}

// PublishUserRegistered emits a user.registered event keyed by user id.
func (p *EventPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	return p.publish(p.prefix+".user.registered", event.UserID, event)
}

// PublishSessionRevoked emits a session.revoked event keyed by user id so
// all revocations of one user land in the same partition.
func (p *EventPublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	return p.publish(p.prefix+".session.revoked", event.UserID, event)
}

func (p *EventPublisher) publish(topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.producer.Send(topic, key, payload)
	return nil
}

var _ port.EventPublisher = (*EventPublisher)(nil)
