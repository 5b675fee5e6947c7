package port

import (
	"context"

	"github.com/antonkh/crmcore/internal/core/domain"
)

//go:generate mockgen -source=service.go -destination=mock/service.go -package=mock

type Service interface {
	CreateOrder(ctx context.Context, req *domain.NewOrder, actorID *uint64) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID uint64) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error)
	UpdateOrder(ctx context.Context, upd *domain.OrderUpdate, actorID *uint64) (*domain.Order, error)
	TransitionOrder(ctx context.Context, orderID uint64, target domain.OrderStatus, actorID *uint64) (*domain.Order, error)

	OrdersReport(ctx context.Context, groupBy domain.ReportGroupBy, filter domain.OrderFilter) (*domain.OrdersReport, error)
	OverdueReport(ctx context.Context, days int) (*domain.OverdueReport, error)

	AuditLog(ctx context.Context, limit, offset int) ([]*domain.AuditLogEntry, error)
}
