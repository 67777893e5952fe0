// Package events publishes order lifecycle notifications for downstream
// consumers (fulfilment, notifications). Publishing happens after commit and
// is best-effort.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Type names an order lifecycle event.
type Type string

const (
	OrderPlaced        Type = "order.placed"
	OrderStatusChanged Type = "order.status_changed"
)

// Event is the payload written to the order events topic.
type Event struct {
	Type       Type            `json:"type"`
	OrderID    string          `json:"order_id"`
	UserID     string          `json:"user_id,omitempty"`
	Status     string          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards events. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
