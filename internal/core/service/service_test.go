package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/antonkh/crmcore/internal/core/domain"
	"github.com/antonkh/crmcore/internal/core/port"
	"github.com/antonkh/crmcore/internal/core/port/mock"
	"github.com/antonkh/crmcore/internal/core/service"
	"github.com/golang/mock/gomock"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type prepareMocks func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher)

func testActor() *uint64 {
	id := uint64(9)
	return &id
}

func testOrder(status domain.OrderStatus) *domain.Order {
	created := time.Now().Add(-time.Hour)
	order := &domain.Order{
		ID:        7,
		ClientID:  1,
		Status:    status,
		Items:     []domain.OrderItem{item(1, 2, "10.50")},
		Total:     decimal.MustParse("21.00"),
		Version:   3,
		CreatedAt: created,
		UpdatedAt: created,
		History: []domain.OrderStatusHistoryEntry{
			{ID: 1, OrderID: 7, Status: domain.OrderStatusNew, CreatedAt: created},
		},
	}
	if status.Terminal() {
		completed := created.Add(time.Minute)
		if status == domain.OrderStatusCompleted {
			order.CompletedAt = &completed
		}
	}
	return order
}

func newTestService(t *testing.T, mockCtrl *gomock.Controller,
	prepare prepareMocks) (*service.Service, *mock.MockRepository, *mock.MockEventPublisher) {
	t.Helper()

	repo := mock.NewMockRepository(mockCtrl)
	publisher := mock.NewMockEventPublisher(mockCtrl)
	if prepare != nil {
		prepare(t, repo, publisher)
	}

	logger, _ := zap.NewProduction()
	s, err := service.NewService(repo, publisher, time.UTC, logger)
	assert.NoError(t, err)

	return s, repo, publisher
}

func TestService_CreateOrder(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	tests := []struct {
		name     string
		req      *domain.NewOrder
		mock     prepareMocks
		expError error
	}{
		{
			name: "create good order",
			req: &domain.NewOrder{
				ClientID: 1,
				Items:    []domain.OrderItem{item(1, 2, "10.50")},
			},
			mock: func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
				repo.EXPECT().CreateOrder(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, order *domain.Order, audit *domain.AuditLogEntry) (*domain.Order, error) {
						assert.Equal(t, domain.OrderStatusNew, order.Status)
						assert.Equal(t, "21.00", order.Total.String())
						assert.Equal(t, uint64(1), order.Version)
						if assert.Len(t, order.History, 1) {
							assert.Equal(t, domain.OrderStatusNew, order.History[0].Status)
							assert.Equal(t, testActor(), order.History[0].ActorID)
						}
						assert.Equal(t, domain.AuditOrderCreated, audit.Action)
						assert.Equal(t, domain.EntityTypeOrder, audit.EntityType)
						order.ID = 42
						return order, nil
					})
			},
		},
		{
			name: "explicit initial status new",
			req: &domain.NewOrder{
				ClientID: 1,
				Status:   domain.OrderStatusNew,
				Items:    []domain.OrderItem{item(1, 1, "5.00")},
			},
			mock: func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
				repo.EXPECT().CreateOrder(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, order *domain.Order, _ *domain.AuditLogEntry) (*domain.Order, error) {
						return order, nil
					})
			},
		},
		{
			name: "assigned manager must exist",
			req: &domain.NewOrder{
				ClientID:  1,
				ManagerID: testActor(),
				Items:     []domain.OrderItem{item(1, 1, "5.00")},
			},
			mock: func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
				repo.EXPECT().ResolveManager(gomock.Any(), uint64(9)).Return(nil, domain.ErrDataNotFound)
			},
			expError: domain.ErrInvalidOrder,
		},
		{
			name: "bad initial status",
			req: &domain.NewOrder{
				ClientID: 1,
				Status:   domain.OrderStatusShipped,
				Items:    []domain.OrderItem{item(1, 1, "5.00")},
			},
			expError: domain.ErrInvalidTransition,
		},
		{
			name:     "missing client",
			req:      &domain.NewOrder{Items: []domain.OrderItem{item(1, 1, "5.00")}},
			expError: domain.ErrInvalidOrder,
		},
		{
			name:     "empty items",
			req:      &domain.NewOrder{ClientID: 1},
			expError: domain.ErrInvalidOrder,
		},
		{
			name: "zero quantity",
			req: &domain.NewOrder{
				ClientID: 1,
				Items:    []domain.OrderItem{item(1, 0, "5.00")},
			},
			expError: domain.ErrInvalidOrder,
		},
		{
			name: "negative price",
			req: &domain.NewOrder{
				ClientID: 1,
				Items:    []domain.OrderItem{item(1, 1, "-5.00")},
			},
			expError: domain.ErrInvalidOrder,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, _, _ := newTestService(t, mockCtrl, test.mock)

			result, err := s.CreateOrder(context.Background(), test.req, testActor())

			if test.expError != nil {
				assert.ErrorIs(t, err, test.expError)
				assert.Nil(t, result)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, result)
		})
	}
}

func TestService_TransitionOrder(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	tests := []struct {
		name     string
		from     domain.OrderStatus
		target   domain.OrderStatus
		mock     prepareMocks
		expError error
	}{
		{
			name:   "confirm new order",
			from:   domain.OrderStatusNew,
			target: domain.OrderStatusConfirmed,
			mock: func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(testOrder(domain.OrderStatusNew), nil)
				repo.EXPECT().SaveOrder(gomock.Any(), gomock.Any(), uint64(3), gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, order *domain.Order, expectedVersion uint64,
						history *domain.OrderStatusHistoryEntry, audit *domain.AuditLogEntry) (*domain.Order, error) {
						assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
						assert.Nil(t, order.CompletedAt)
						if assert.NotNil(t, history) {
							assert.Equal(t, domain.OrderStatusConfirmed, history.Status)
							assert.Equal(t, testActor(), history.ActorID)
						}
						assert.Equal(t, domain.AuditOrderStatusChanged, audit.Action)
						assert.Equal(t, map[string]any{"from": "new", "to": "confirmed"}, audit.Metadata)
						order.Version = expectedVersion + 1
						return order, nil
					})
				publisher.EXPECT().PublishStatusChange(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, event port.StatusEvent) error {
						assert.Equal(t, uint64(7), event.OrderID)
						assert.Equal(t, domain.OrderStatusNew, event.From)
						assert.Equal(t, domain.OrderStatusConfirmed, event.To)
						return nil
					})
			},
		},
		{
			name:   "complete shipped order sets completedAt",
			from:   domain.OrderStatusShipped,
			target: domain.OrderStatusCompleted,
			mock: func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(testOrder(domain.OrderStatusShipped), nil)
				repo.EXPECT().SaveOrder(gomock.Any(), gomock.Any(), uint64(3), gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, order *domain.Order, _ uint64,
						_ *domain.OrderStatusHistoryEntry, _ *domain.AuditLogEntry) (*domain.Order, error) {
						if assert.NotNil(t, order.CompletedAt) {
							assert.Equal(t, order.UpdatedAt, *order.CompletedAt)
						}
						return order, nil
					})
				publisher.EXPECT().PublishStatusChange(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:   "cancel confirmed order",
			from:   domain.OrderStatusConfirmed,
			target: domain.OrderStatusCancelled,
			mock: func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(testOrder(domain.OrderStatusConfirmed), nil)
				repo.EXPECT().SaveOrder(gomock.Any(), gomock.Any(), uint64(3), gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, order *domain.Order, _ uint64,
						_ *domain.OrderStatusHistoryEntry, _ *domain.AuditLogEntry) (*domain.Order, error) {
						assert.Nil(t, order.CompletedAt)
						return order, nil
					})
				publisher.EXPECT().PublishStatusChange(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:   "skipping a state is illegal",
			from:   domain.OrderStatusNew,
			target: domain.OrderStatusShipped,
			mock: func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(testOrder(domain.OrderStatusNew), nil)
			},
			expError: domain.ErrInvalidTransition,
		},
		{
			name:   "terminal order cannot move",
			from:   domain.OrderStatusCompleted,
			target: domain.OrderStatusCancelled,
			mock: func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(testOrder(domain.OrderStatusCompleted), nil)
			},
			expError: domain.ErrInvalidTransition,
		},
		{
			name:   "same status is an error, not a no-op",
			from:   domain.OrderStatusNew,
			target: domain.OrderStatusNew,
			mock: func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(testOrder(domain.OrderStatusNew), nil)
			},
			expError: domain.ErrInvalidTransition,
		},
		{
			name:   "lost update",
			from:   domain.OrderStatusNew,
			target: domain.OrderStatusConfirmed,
			mock: func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(testOrder(domain.OrderStatusNew), nil)
				repo.EXPECT().SaveOrder(gomock.Any(), gomock.Any(), uint64(3), gomock.Any(), gomock.Any()).
					Return(nil, domain.ErrConcurrentModification)
			},
			expError: domain.ErrConcurrentModification,
		},
		{
			name:   "publish failure does not fail the transition",
			from:   domain.OrderStatusNew,
			target: domain.OrderStatusConfirmed,
			mock: func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(testOrder(domain.OrderStatusNew), nil)
				repo.EXPECT().SaveOrder(gomock.Any(), gomock.Any(), uint64(3), gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, order *domain.Order, _ uint64,
						_ *domain.OrderStatusHistoryEntry, _ *domain.AuditLogEntry) (*domain.Order, error) {
						return order, nil
					})
				publisher.EXPECT().PublishStatusChange(gomock.Any(), gomock.Any()).Return(domain.ErrInternal)
			},
		},
		{
			name:   "unknown order",
			from:   domain.OrderStatusNew,
			target: domain.OrderStatusConfirmed,
			mock: func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(nil, domain.ErrDataNotFound)
			},
			expError: domain.ErrDataNotFound,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, _, _ := newTestService(t, mockCtrl, test.mock)

			result, err := s.TransitionOrder(context.Background(), 7, test.target, testActor())

			if test.expError != nil {
				assert.ErrorIs(t, err, test.expError)
				assert.Nil(t, result)
				return
			}
			assert.NoError(t, err)
			if assert.NotNil(t, result) {
				assert.Equal(t, test.target, result.Status)
			}
		})
	}
}

func TestService_UpdateOrder(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	comments := "urgent"

	tests := []struct {
		name     string
		upd      *domain.OrderUpdate
		mock     prepareMocks
		expError error
	}{
		{
			name: "new items recompute the total",
			upd: &domain.OrderUpdate{
				OrderID: 7,
				Items:   []domain.OrderItem{item(5, 3, "2.00")},
			},
			mock: func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(testOrder(domain.OrderStatusConfirmed), nil)
				repo.EXPECT().SaveOrder(gomock.Any(), gomock.Any(), uint64(3), nil, gomock.Any()).DoAndReturn(
					func(_ context.Context, order *domain.Order, _ uint64,
						history *domain.OrderStatusHistoryEntry, audit *domain.AuditLogEntry) (*domain.Order, error) {
						assert.Equal(t, "6.00", order.Total.String())
						assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
						assert.Equal(t, domain.AuditOrderUpdated, audit.Action)
						assert.Equal(t, map[string]any{"fields": []string{"items"}}, audit.Metadata)
						return order, nil
					})
			},
		},
		{
			name: "manager and comments only",
			upd: &domain.OrderUpdate{
				OrderID:   7,
				ManagerID: testActor(),
				Comments:  &comments,
			},
			mock: func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(testOrder(domain.OrderStatusNew), nil)
				repo.EXPECT().ResolveManager(gomock.Any(), uint64(9)).
					Return(&domain.Manager{ID: 9, Name: "Kim"}, nil)
				repo.EXPECT().SaveOrder(gomock.Any(), gomock.Any(), uint64(3), nil, gomock.Any()).DoAndReturn(
					func(_ context.Context, order *domain.Order, _ uint64,
						_ *domain.OrderStatusHistoryEntry, _ *domain.AuditLogEntry) (*domain.Order, error) {
						assert.Equal(t, "21.00", order.Total.String())
						assert.Equal(t, comments, order.Comments)
						return order, nil
					})
			},
		},
		{
			name: "unknown manager",
			upd: &domain.OrderUpdate{
				OrderID:   7,
				ManagerID: testActor(),
			},
			mock: func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(testOrder(domain.OrderStatusNew), nil)
				repo.EXPECT().ResolveManager(gomock.Any(), uint64(9)).Return(nil, domain.ErrDataNotFound)
			},
			expError: domain.ErrInvalidOrder,
		},
		{
			name: "completed order is locked",
			upd: &domain.OrderUpdate{
				OrderID: 7,
				Items:   []domain.OrderItem{item(5, 3, "2.00")},
			},
			mock: func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(testOrder(domain.OrderStatusCompleted), nil)
			},
			expError: domain.ErrOrderLocked,
		},
		{
			name: "cancelled order is locked",
			upd: &domain.OrderUpdate{
				OrderID: 7,
				Items:   []domain.OrderItem{item(5, 3, "2.00")},
			},
			mock: func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(testOrder(domain.OrderStatusCancelled), nil)
			},
			expError: domain.ErrOrderLocked,
		},
		{
			name: "malformed items",
			upd: &domain.OrderUpdate{
				OrderID: 7,
				Items:   []domain.OrderItem{item(5, -3, "2.00")},
			},
			mock: func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(testOrder(domain.OrderStatusNew), nil)
			},
			expError: domain.ErrInvalidOrder,
		},
		{
			name: "nothing to update",
			upd:  &domain.OrderUpdate{OrderID: 7},
			mock: func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).Return(testOrder(domain.OrderStatusNew), nil)
			},
			expError: domain.ErrNoUpdatedData,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, _, _ := newTestService(t, mockCtrl, test.mock)

			result, err := s.UpdateOrder(context.Background(), test.upd, testActor())

			if test.expError != nil {
				assert.ErrorIs(t, err, test.expError)
				assert.Nil(t, result)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, result)
		})
	}
}

// Two concurrent transitions from the same prior status: the repository's
// version check lets exactly one through.
func TestService_ConcurrentTransitions(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	var mu sync.Mutex
	currentVersion := uint64(3)

	prepare := func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
		repo.EXPECT().ReadOrder(gomock.Any(), uint64(7)).DoAndReturn(
			func(_ context.Context, _ uint64) (*domain.Order, error) {
				return testOrder(domain.OrderStatusNew), nil
			}).Times(2)
		repo.EXPECT().SaveOrder(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, order *domain.Order, expectedVersion uint64,
				_ *domain.OrderStatusHistoryEntry, _ *domain.AuditLogEntry) (*domain.Order, error) {
				mu.Lock()
				defer mu.Unlock()
				if expectedVersion != currentVersion {
					return nil, domain.ErrConcurrentModification
				}
				currentVersion++
				order.Version = currentVersion
				return order, nil
			}).Times(2)
		publisher.EXPECT().PublishStatusChange(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	}

	s, _, _ := newTestService(t, mockCtrl, prepare)

	targets := []domain.OrderStatus{domain.OrderStatusConfirmed, domain.OrderStatusCancelled}
	errs := make([]error, len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target domain.OrderStatus) {
			defer wg.Done()
			_, errs[i] = s.TransitionOrder(context.Background(), 7, target, testActor())
		}(i, target)
	}
	wg.Wait()

	succeeded := 0
	conflicted := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			assert.ErrorIs(t, err, domain.ErrConcurrentModification)
			conflicted++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)
}

func TestService_AuditLog(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	entries := []*domain.AuditLogEntry{
		{ID: 2, Action: domain.AuditOrderStatusChanged},
		{ID: 1, Action: domain.AuditOrderCreated},
	}

	s, _, _ := newTestService(t, mockCtrl,
		func(t *testing.T, repo *mock.MockRepository, publisher *mock.MockEventPublisher) {
			// Defaults applied for out-of-range paging values.
			repo.EXPECT().ListAuditLog(gomock.Any(), 50, 0).Return(entries, nil)
		})

	result, err := s.AuditLog(context.Background(), 0, -5)
	assert.NoError(t, err)
	assert.Equal(t, entries, result)
}
