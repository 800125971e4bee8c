// Package events publishes record-change notifications for downstream
// consumers. Publishing is fire-and-forget; a failed publish is logged and
// never fails the originating request.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"subgrid/pkg/model"
)

const subjectPrefix = "subgrid.subscriptions."

// updatedSubject builds the per-record subject so consumers can subscribe to
// a single subscription's changes or wildcard across all of them.
func updatedSubject(id string) string {
	return subjectPrefix + id + ".updated"
}

// UpdatedEvent is the payload published when a subscription field is
// patched by path.
type UpdatedEvent struct {
	SubscriptionID string `json:"subscription_id"`
	Path           string `json:"path"`
	UpdatedAt      int64  `json:"updated_at"`
}

// Publisher emits subscription-change events.
type Publisher interface {
	PublishUpdated(ctx context.Context, sub *model.Subscription, path string) error
	Close()
}

// natsConnectFunc allows test injection
var natsConnectFunc = nats.Connect

// NATSPublisher publishes events to a NATS server.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := natsConnectFunc(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) PublishUpdated(ctx context.Context, sub *model.Subscription, path string) error {
	payload, err := json.Marshal(UpdatedEvent{
		SubscriptionID: sub.SubscriptionID.String(),
		Path:           path,
		UpdatedAt:      time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	if err := p.conn.Publish(updatedSubject(sub.SubscriptionID.String()), payload); err != nil {
		slog.Warn("Failed to publish subscription event", "subscription_id", sub.SubscriptionID, "error", err)
		return err
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// NoopPublisher drops all events. Used when eventing is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishUpdated(ctx context.Context, sub *model.Subscription, path string) error {
	return nil
}

func (NoopPublisher) Close() {}
