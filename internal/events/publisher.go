// Package events publishes order domain events for downstream consumers
// (fulfillment simulation, analytics) via Cloud Pub/Sub.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

const (
	// TypeOrderCreated is emitted once per successful order creation.
	TypeOrderCreated = "order.created"
	// TypeOrderStatusChanged is emitted for manual and scheduled status changes.
	TypeOrderStatusChanged = "order.status.changed"
)

// OrderEvent captures the metadata published for order lifecycle events.
type OrderEvent struct {
	Type           string    `json:"type"`
	OrderID        string    `json:"orderId"`
	OrderNumber    string    `json:"orderNumber,omitempty"`
	UserID         string    `json:"userId,omitempty"`
	PreviousStatus string    `json:"previousStatus,omitempty"`
	CurrentStatus  string    `json:"currentStatus,omitempty"`
	ActorID        string    `json:"actorId,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// Publisher publishes order domain events.
type Publisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// PubSubPublisher publishes order events to a Pub/Sub topic.
type PubSubPublisher struct {
	client  *pubsub.Client
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubPublisher dials Pub/Sub and binds the topic.
func NewPubSubPublisher(ctx context.Context, projectID, topicID string, opts ...option.ClientOption) (*PubSubPublisher, error) {
	projectID = strings.TrimSpace(projectID)
	topicID = strings.TrimSpace(topicID)
	if projectID == "" || topicID == "" {
		return nil, errors.New("events: project id and topic id are required")
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("events: dial pubsub: %w", err)
	}

	return &PubSubPublisher{
		client:  client,
		topic:   client.Topic(topicID),
		marshal: json.Marshal,
	}, nil
}

// PublishOrderEvent enqueues the event on the configured topic and waits for the server ack.
func (p *PubSubPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	if p == nil || p.topic == nil {
		return errors.New("events: publisher not initialised")
	}

	data, err := p.marshal(event)
	if err != nil {
		return fmt.Errorf("events: marshal order event: %w", err)
	}

	attrs := make(map[string]string, 3)
	setAttr(attrs, "type", event.Type)
	setAttr(attrs, "orderId", event.OrderID)
	setAttr(attrs, "status", event.CurrentStatus)

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("events: publish %s: %w", event.Type, err)
	}
	return nil
}

// Close flushes outstanding messages and releases the client.
func (p *PubSubPublisher) Close() error {
	if p == nil {
		return nil
	}
	if p.topic != nil {
		p.topic.Stop()
	}
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}

// NopPublisher drops every event. Used when event publishing is disabled.
type NopPublisher struct{}

// PublishOrderEvent implements Publisher.
func (NopPublisher) PublishOrderEvent(context.Context, OrderEvent) error { return nil }
