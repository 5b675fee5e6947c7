package domain

import (
	"time"

	"github.com/govalues/decimal"
)

type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// statusSuccessors is the closed transition table. Terminal statuses have no
// successor set.
var statusSuccessors = map[OrderStatus][]OrderStatus{
	OrderStatusNew:       {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted: {},
	OrderStatusCancelled: {},
}

// ParseOrderStatus validates a wire-level status string against the closed
// status set.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := statusSuccessors[status]; !ok {
		return "", ErrUnknownStatus
	}
	return status, nil
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransitionTo reports whether target is a legal successor of s.
// A same-status "transition" is never legal.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range statusSuccessors[s] {
		if next == target {
			return true
		}
	}
	return false
}

type OrderItem struct {
	ProductID uint64
	Quantity  int64
	Price     decimal.Decimal
}

type OrderStatusHistoryEntry struct {
	ID        uint64
	OrderID   uint64
	Status    OrderStatus
	ActorID   *uint64
	CreatedAt time.Time
}

type Order struct {
	ID          uint64
	ClientID    uint64
	ManagerID   *uint64
	Status      OrderStatus
	Items       []OrderItem
	Total       decimal.Decimal
	Comments    string
	Version     uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	History     []OrderStatusHistoryEntry
}

// NewOrder carries the caller-supplied fields of an order being created.
// Status is optional; empty means the default initial status.
type NewOrder struct {
	ClientID  uint64
	ManagerID *uint64
	Comments  string
	Items     []OrderItem
	Status    OrderStatus
}

// OrderUpdate carries a partial update. Nil fields are left unchanged.
type OrderUpdate struct {
	OrderID   uint64
	Items     []OrderItem
	ManagerID *uint64
	Comments  *string
}

// OrderFilter narrows ListOrders. Zero value matches everything.
type OrderFilter struct {
	Status    *OrderStatus
	ManagerID *uint64
	ClientID  *uint64
	From      *time.Time
	To        *time.Time
	// OpenOnly keeps only orders in a non-terminal status.
	OpenOnly bool
}

type Manager struct {
	ID    uint64
	Name  string
	Email string
}
