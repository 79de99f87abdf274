// Package events mirrors the relay's event stream onto the message
// broker for sibling instances and audit consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chronicler-app/chronicler/internal/domain"
	"github.com/chronicler-app/chronicler/internal/infrastructure/messaging"
)

// SessionEventPublisher publishes envelopes with routing key
// "session.<id>". A nil publisher is a no-op, which keeps the broker
// optional.
type SessionEventPublisher struct {
	rabbitmq *messaging.RabbitMQ
}

func NewSessionEventPublisher(rabbitmq *messaging.RabbitMQ) *SessionEventPublisher {
	return &SessionEventPublisher{
		rabbitmq: rabbitmq,
	}
}

func (p *SessionEventPublisher) PublishEvent(ctx context.Context, evt domain.SessionEvent) error {
	if p == nil || p.rabbitmq == nil {
		return nil
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	routingKey := fmt.Sprintf("session.%d", evt.SessionID)
	return p.rabbitmq.Publish(ctx, routingKey, body)
}
