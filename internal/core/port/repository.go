package port

import (
	"context"

	"github.com/antonkh/crmcore/internal/core/domain"
)

//go:generate mockgen -source=repository.go -destination=mock/repository.go -package=mock

// Repository is the core's only view of persisted orders, clients and
// managers. Audit entries travel with the mutation they belong to and are
// committed in the same transaction: no order write is observable without its
// audit entry and vice versa.
type Repository interface {
	// Order
	CreateOrder(ctx context.Context, order *domain.Order, audit *domain.AuditLogEntry) (*domain.Order, error)
	ReadOrder(ctx context.Context, orderID uint64) (*domain.Order, error)
	// SaveOrder persists order against expectedVersion. A version mismatch
	// fails with domain.ErrConcurrentModification and writes nothing.
	// history may be nil for mutations that do not change status.
	SaveOrder(ctx context.Context, order *domain.Order, expectedVersion uint64,
		history *domain.OrderStatusHistoryEntry, audit *domain.AuditLogEntry) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error)

	// Reference data
	ResolveClientName(ctx context.Context, clientID uint64) (string, error)
	ResolveManager(ctx context.Context, managerID uint64) (*domain.Manager, error)

	// Audit
	ListAuditLog(ctx context.Context, limit, offset int) ([]*domain.AuditLogEntry, error)
}
