package service

import (
	"context"
	"errors"
	"time"

	"github.com/antonkh/crmcore/internal/core/domain"
	"github.com/antonkh/crmcore/internal/core/port"
	"go.uber.org/zap"
)

// Service implements the order lifecycle: creation, updates, the status state
// machine and the reports. Every state-changing operation carries its audit
// entry into the repository so both commit as one unit.
type Service struct {
	repo      port.Repository
	publisher port.EventPublisher
	reportLoc *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo port.Repository, publisher port.EventPublisher,
	reportLoc *time.Location, logger *zap.Logger) (*Service, error) {
	if reportLoc == nil {
		reportLoc = time.UTC
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		reportLoc: reportLoc,
		logger:    logger,
		now:       time.Now,
	}, nil
}

func (s *Service) CreateOrder(ctx context.Context, req *domain.NewOrder, actorID *uint64) (*domain.Order, error) {
	if req.ClientID == 0 {
		return nil, domain.ErrInvalidOrder
	}

	initial := req.Status
	if initial == "" {
		initial = domain.OrderStatusNew
	}
	// Only the first state of the machine is a valid starting point.
	if initial != domain.OrderStatusNew {
		return nil, domain.ErrInvalidTransition
	}

	total, err := OrderTotal(req.Items)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOrder) {
			return nil, err
		}
		s.logger.Error("compute order total", zap.Error(err))
		return nil, domain.ErrInternal
	}

	if req.ManagerID != nil {
		if err := s.checkManager(ctx, *req.ManagerID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	order := &domain.Order{
		ClientID:  req.ClientID,
		ManagerID: req.ManagerID,
		Status:    initial,
		Items:     req.Items,
		Total:     total,
		Comments:  req.Comments,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		History: []domain.OrderStatusHistoryEntry{
			{Status: initial, ActorID: actorID, CreatedAt: now},
		},
	}
	audit := &domain.AuditLogEntry{
		ActorID:    actorID,
		Action:     domain.AuditOrderCreated,
		EntityType: domain.EntityTypeOrder,
		Metadata:   map[string]any{"status": string(initial)},
		CreatedAt:  now,
	}

	created, err := s.repo.CreateOrder(ctx, order, audit)
	if err != nil {
		s.logger.Error("create order", zap.Error(err))
		return nil, err
	}

	return created, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID uint64) (*domain.Order, error) {
	return s.repo.ReadOrder(ctx, orderID)
}

func (s *Service) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error) {
	list, err := s.repo.ListOrders(ctx, filter)
	if err != nil {
		s.logger.Error("list orders", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *Service) UpdateOrder(ctx context.Context, upd *domain.OrderUpdate, actorID *uint64) (*domain.Order, error) {
	order, err := s.repo.ReadOrder(ctx, upd.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, domain.ErrOrderLocked
	}

	changed := make([]string, 0, 3)
	if upd.Items != nil {
		total, err := OrderTotal(upd.Items)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidOrder) {
				return nil, err
			}
			s.logger.Error("compute order total", zap.Error(err))
			return nil, domain.ErrInternal
		}
		order.Items = upd.Items
		order.Total = total
		changed = append(changed, "items")
	}
	if upd.ManagerID != nil {
		if err := s.checkManager(ctx, *upd.ManagerID); err != nil {
			return nil, err
		}
		order.ManagerID = upd.ManagerID
		changed = append(changed, "managerId")
	}
	if upd.Comments != nil {
		order.Comments = *upd.Comments
		changed = append(changed, "comments")
	}
	if len(changed) == 0 {
		return nil, domain.ErrNoUpdatedData
	}

	now := s.now()
	order.UpdatedAt = now

	entityID := order.ID
	audit := &domain.AuditLogEntry{
		ActorID:    actorID,
		Action:     domain.AuditOrderUpdated,
		EntityType: domain.EntityTypeOrder,
		EntityID:   &entityID,
		Metadata:   map[string]any{"fields": changed},
		CreatedAt:  now,
	}

	saved, err := s.repo.SaveOrder(ctx, order, order.Version, nil, audit)
	if err != nil {
		if errors.Is(err, domain.ErrConcurrentModification) {
			return nil, err
		}
		s.logger.Error("save order", zap.Uint64("order", order.ID), zap.Error(err))
		return nil, err
	}

	return saved, nil
}

// checkManager rejects assignment of a manager that does not exist.
func (s *Service) checkManager(ctx context.Context, managerID uint64) error {
	_, err := s.repo.ResolveManager(ctx, managerID)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return domain.ErrInvalidOrder
		}
		s.logger.Error("resolve manager", zap.Uint64("manager", managerID), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) TransitionOrder(ctx context.Context, orderID uint64,
	target domain.OrderStatus, actorID *uint64) (*domain.Order, error) {
	order, err := s.repo.ReadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if !from.CanTransitionTo(target) {
		return nil, domain.ErrInvalidTransition
	}

	now := s.now()
	order.Status = target
	order.UpdatedAt = now
	if target == domain.OrderStatusCompleted && order.CompletedAt == nil {
		completedAt := now
		order.CompletedAt = &completedAt
	}

	history := &domain.OrderStatusHistoryEntry{
		OrderID:   order.ID,
		Status:    target,
		ActorID:   actorID,
		CreatedAt: now,
	}
	entityID := order.ID
	audit := &domain.AuditLogEntry{
		ActorID:    actorID,
		Action:     domain.AuditOrderStatusChanged,
		EntityType: domain.EntityTypeOrder,
		EntityID:   &entityID,
		Metadata:   map[string]any{"from": string(from), "to": string(target)},
		CreatedAt:  now,
	}

	saved, err := s.repo.SaveOrder(ctx, order, order.Version, history, audit)
	if err != nil {
		if errors.Is(err, domain.ErrConcurrentModification) {
			return nil, err
		}
		s.logger.Error("transition order", zap.Uint64("order", orderID), zap.Error(err))
		return nil, err
	}

	if s.publisher != nil {
		event := port.StatusEvent{
			OrderID: saved.ID,
			From:    from,
			To:      target,
			ActorID: actorID,
			At:      now,
		}
		// Events are a side channel: a publish failure never fails the
		// transition that already committed.
		if err := s.publisher.PublishStatusChange(ctx, event); err != nil {
			s.logger.Warn("publish status event", zap.Uint64("order", saved.ID), zap.Error(err))
		}
	}

	return saved, nil
}

func (s *Service) AuditLog(ctx context.Context, limit, offset int) ([]*domain.AuditLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	list, err := s.repo.ListAuditLog(ctx, limit, offset)
	if err != nil {
		s.logger.Error("list audit log", zap.Error(err))
		return nil, err
	}
	return list, nil
}
