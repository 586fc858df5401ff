package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ProductCurator/internal/domain"
	"ProductCurator/internal/ports"
)

// Event types published on the events channel.
const (
	EventJobFailed = "JOB_FAILED"
	EventLowStock  = "LOW_STOCK"
	EventDigest    = "WEEKLY_DIGEST"
)

// Event is the JSON message published for downstream consumers.
type Event struct {
	Type     string                `json:"type"`
	Job      string                `json:"job,omitempty"`
	Message  string                `json:"message,omitempty"`
	LowStock []domain.LowStockItem `json:"lowStock,omitempty"`
	At       time.Time             `json:"at"`
}

// Publisher forwards notifications to a Redis pub/sub channel.
type Publisher struct {
	rdb     *redis.Client
	channel string
	now     func() time.Time
}

var _ ports.Notifier = (*Publisher)(nil)

// NewPublisher publishes on channel.
func NewPublisher(rdb *redis.Client, channel string) *Publisher {
	if channel == "" {
		channel = "productcurator:events"
	}
	return &Publisher{rdb: rdb, channel: channel, now: time.Now}
}

// NotifyError publishes a JOB_FAILED event.
func (p *Publisher) NotifyError(ctx context.Context, job, message string) error {
	return p.publish(ctx, Event{Type: EventJobFailed, Job: job, Message: message})
}

// NotifyLowStock publishes a LOW_STOCK event.
func (p *Publisher) NotifyLowStock(ctx context.Context, items []domain.LowStockItem) error {
	if len(items) == 0 {
		return nil
	}
	return p.publish(ctx, Event{Type: EventLowStock, LowStock: items})
}

// PublishDigest publishes a WEEKLY_DIGEST event.
func (p *Publisher) PublishDigest(ctx context.Context, digest string) error {
	return p.publish(ctx, Event{Type: EventDigest, Message: digest})
}

func (p *Publisher) publish(ctx context.Context, ev Event) error {
	ev.At = p.now().UTC()
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}
