package port

import (
	"context"
	"time"

	"github.com/antonkh/crmcore/internal/core/domain"
)

//go:generate mockgen -source=events.go -destination=mock/events.go -package=mock

type StatusEvent struct {
	OrderID uint64             `json:"orderId"`
	From    domain.OrderStatus `json:"from"`
	To      domain.OrderStatus `json:"to"`
	ActorID *uint64            `json:"actorId,omitempty"`
	At      time.Time          `json:"at"`
}

// EventPublisher notifies the surrounding CRM about status changes.
// Publication is best-effort and happens after the transaction commits.
type EventPublisher interface {
	PublishStatusChange(ctx context.Context, event StatusEvent) error
}
