package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/antonkh/crmcore/internal/core/domain"
	"github.com/govalues/decimal"
	"go.uber.org/zap"
)

// OrdersReport aggregates orders into {key, count, total} groups.
// Group totals sum the persisted order totals, they are not recomputed from
// items. Day keys are rendered in the configured reporting location.
func (s *Service) OrdersReport(ctx context.Context, groupBy domain.ReportGroupBy,
	filter domain.OrderFilter) (*domain.OrdersReport, error) {
	switch groupBy {
	case domain.GroupByStatus, domain.GroupByManager, domain.GroupByDay:
	default:
		return nil, domain.ErrUnknownGroupBy
	}

	orders, err := s.repo.ListOrders(ctx, filter)
	if err != nil {
		s.logger.Error("list orders for report", zap.Error(err))
		return nil, err
	}

	groups := make(map[string]*domain.OrderReportGroup)
	for _, order := range orders {
		key := s.groupKey(groupBy, order)
		group, ok := groups[key]
		if !ok {
			group = &domain.OrderReportGroup{Key: key, Total: decimal.Zero}
			groups[key] = group
		}
		group.Count++
		sum, err := group.Total.Add(order.Total)
		if err != nil {
			return nil, fmt.Errorf("math error:%w", err)
		}
		group.Total = sum
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	// Day keys are YYYY-MM-DD, so lexicographic order is chronological too.
	sort.Strings(keys)

	report := &domain.OrdersReport{
		GroupBy: groupBy,
		Groups:  make([]domain.OrderReportGroup, 0, len(keys)),
	}
	for _, key := range keys {
		report.Groups = append(report.Groups, *groups[key])
	}

	return report, nil
}

func (s *Service) groupKey(groupBy domain.ReportGroupBy, order *domain.Order) string {
	switch groupBy {
	case domain.GroupByManager:
		if order.ManagerID == nil {
			return domain.ManagerUnassigned
		}
		return strconv.FormatUint(*order.ManagerID, 10)
	case domain.GroupByDay:
		return order.CreatedAt.In(s.reportLoc).Format("2006-01-02")
	default:
		return string(order.Status)
	}
}

// OverdueReport lists non-terminal orders strictly older than the threshold:
// an order created exactly days*24h ago is not yet overdue. Oldest first.
func (s *Service) OverdueReport(ctx context.Context, days int) (*domain.OverdueReport, error) {
	if days <= 0 {
		return nil, domain.ErrBadRequest
	}

	orders, err := s.repo.ListOrders(ctx, domain.OrderFilter{OpenOnly: true})
	if err != nil {
		s.logger.Error("list orders for overdue report", zap.Error(err))
		return nil, err
	}

	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)

	entries := make([]domain.OverdueOrder, 0)
	for _, order := range orders {
		if order.Status.Terminal() {
			continue
		}
		if !order.CreatedAt.Before(cutoff) {
			continue
		}

		clientName, err := s.repo.ResolveClientName(ctx, order.ClientID)
		if err != nil {
			if !errors.Is(err, domain.ErrDataNotFound) {
				s.logger.Error("resolve client name", zap.Uint64("client", order.ClientID), zap.Error(err))
				return nil, err
			}
			clientName = ""
		}

		entries = append(entries, domain.OverdueOrder{
			OrderID:    order.ID,
			ClientID:   order.ClientID,
			ClientName: clientName,
			Status:     order.Status,
			Total:      order.Total,
			ManagerID:  order.ManagerID,
			CreatedAt:  order.CreatedAt,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	return &domain.OverdueReport{
		Days:   days,
		Total:  len(entries),
		Orders: entries,
	}, nil
}
