package http

import (
	"strconv"
	"time"

	"github.com/antonkh/crmcore/internal/core/domain"
	"github.com/antonkh/crmcore/internal/core/port"
	"github.com/gin-gonic/gin"
	"github.com/govalues/decimal"
	"go.uber.org/zap"
)

type ReportHandler struct {
	Handler
	service port.Service
}

func NewReportHandler(service port.Service, logger *zap.Logger) (*ReportHandler, error) {
	return &ReportHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type reportGroupResponse struct {
	Key   string          `json:"key"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type ordersReportResponse struct {
	GroupBy string                `json:"groupBy"`
	Groups  []reportGroupResponse `json:"groups"`
}

func (rh *ReportHandler) OrdersReport(ctx *gin.Context) {
	groupBy, err := domain.ParseReportGroupBy(ctx.DefaultQuery("groupBy", string(domain.GroupByStatus)))
	if err != nil {
		rh.handleError(ctx, err)
		return
	}

	filter := domain.OrderFilter{}
	if s := ctx.Query("from"); s != "" {
		from, err := time.Parse(time.RFC3339, s)
		if err != nil {
			rh.handleError(ctx, domain.ErrBadRequest)
			return
		}
		filter.From = &from
	}
	if s := ctx.Query("to"); s != "" {
		to, err := time.Parse(time.RFC3339, s)
		if err != nil {
			rh.handleError(ctx, domain.ErrBadRequest)
			return
		}
		filter.To = &to
	}

	report, err := rh.service.OrdersReport(ctx, groupBy, filter)
	if err != nil {
		rh.handleError(ctx, err)
		return
	}

	groups := make([]reportGroupResponse, 0, len(report.Groups))
	for _, group := range report.Groups {
		groups = append(groups, reportGroupResponse{
			Key:   group.Key,
			Count: group.Count,
			Total: group.Total,
		})
	}

	rh.handleSuccess(ctx, ordersReportResponse{
		GroupBy: string(report.GroupBy),
		Groups:  groups,
	})
}

type overdueOrderResponse struct {
	ID         uint64          `json:"id"`
	ClientID   uint64          `json:"clientId"`
	ClientName string          `json:"clientName"`
	Status     string          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	ManagerID  *uint64         `json:"managerId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type overdueReportResponse struct {
	Days   int                    `json:"days"`
	Total  int                    `json:"total"`
	Orders []overdueOrderResponse `json:"orders"`
}

func (rh *ReportHandler) OverdueReport(ctx *gin.Context) {
	days, err := strconv.Atoi(ctx.DefaultQuery("days", "7"))
	if err != nil {
		rh.handleError(ctx, domain.ErrBadRequest)
		return
	}

	report, err := rh.service.OverdueReport(ctx, days)
	if err != nil {
		rh.handleError(ctx, err)
		return
	}

	orders := make([]overdueOrderResponse, 0, len(report.Orders))
	for _, order := range report.Orders {
		orders = append(orders, overdueOrderResponse{
			ID:         order.OrderID,
			ClientID:   order.ClientID,
			ClientName: order.ClientName,
			Status:     string(order.Status),
			Total:      order.Total,
			ManagerID:  order.ManagerID,
			CreatedAt:  order.CreatedAt,
		})
	}

	rh.handleSuccess(ctx, overdueReportResponse{
		Days:   report.Days,
		Total:  report.Total,
		Orders: orders,
	})
}
