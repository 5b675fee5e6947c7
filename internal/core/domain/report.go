package domain

import (
	"time"

	"github.com/govalues/decimal"
)

type ReportGroupBy string

const (
	GroupByStatus  ReportGroupBy = "status"
	GroupByManager ReportGroupBy = "manager"
	GroupByDay     ReportGroupBy = "day"
)

// ManagerUnassigned is the group key for orders without an assigned manager.
const ManagerUnassigned = "unassigned"

func ParseReportGroupBy(s string) (ReportGroupBy, error) {
	switch g := ReportGroupBy(s); g {
	case GroupByStatus, GroupByManager, GroupByDay:
		return g, nil
	}
	return "", ErrUnknownGroupBy
}

type OrderReportGroup struct {
	Key   string
	Count int
	Total decimal.Decimal
}

type OrdersReport struct {
	GroupBy ReportGroupBy
	Groups  []OrderReportGroup
}

type OverdueOrder struct {
	OrderID    uint64
	ClientID   uint64
	ClientName string
	Status     OrderStatus
	Total      decimal.Decimal
	ManagerID  *uint64
	CreatedAt  time.Time
}

type OverdueReport struct {
	Days   int
	Total  int
	Orders []OverdueOrder
}
