package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ecofinds/marketplace/internal/core/domain"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

// HeaderEventKey carries the aggregate id so consumers can partition.
const HeaderEventKey = "Marketplace-Event-Key"

// envelope is the JSON body of every published message.
type envelope struct {
	Subject    string    `json:"subject"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Publisher implements ports.EventPublisher on a NATS connection.
type Publisher struct {
	conn *nats.Conn
}

func NewPublisher(conn *nats.Conn) (*Publisher, error) {
	if conn == nil {
		return nil, errors.New("nats connection cannot be nil")
	}
	return &Publisher{conn: conn}, nil
}

var _ ports.EventPublisher = (*Publisher)(nil)

func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := newMessage(event)
	if err != nil {
		return err
	}
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish to %s: %w", event.Subject, err)
	}
	return nil
}

func newMessage(event domain.Event) (*nats.Msg, error) {
	data, err := json.Marshal(envelope{
		Subject:    event.Subject,
		Key:        event.Key,
		OccurredAt: event.OccurredAt.UTC(),
		Payload:    event.Payload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal event for %s: %w", event.Subject, err)
	}
	msg := nats.NewMsg(event.Subject)
	msg.Header.Set(HeaderEventKey, event.Key)
	msg.Data = data
	return msg, nil
}
