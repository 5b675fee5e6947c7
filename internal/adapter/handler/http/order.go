package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/antonkh/crmcore/internal/core/domain"
	"github.com/antonkh/crmcore/internal/core/port"
	"github.com/gin-gonic/gin"
	"github.com/govalues/decimal"
	"go.uber.org/zap"
)

type OrderHandler struct {
	Handler
	service port.Service
}

func NewOrderHandler(service port.Service, logger *zap.Logger) (*OrderHandler, error) {
	return &OrderHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type orderItemRequest struct {
	ProductID uint64  `json:"productId"`
	Quantity  int64   `json:"quantity"`
	Price     float64 `json:"price"`
}

type createOrderRequest struct {
	ClientID  uint64             `json:"clientId"`
	ManagerID *uint64            `json:"managerId"`
	Comments  string             `json:"comments"`
	Status    string             `json:"status"`
	Items     []orderItemRequest `json:"items"`
}

type updateOrderRequest struct {
	Items     []orderItemRequest `json:"items"`
	ManagerID *uint64            `json:"managerId"`
	Comments  *string            `json:"comments"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type orderItemResponse struct {
	ProductID uint64          `json:"productId"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type historyEntryResponse struct {
	ID        uint64    `json:"id"`
	Status    string    `json:"status"`
	ActorID   *uint64   `json:"actorId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type orderResponse struct {
	ID          uint64                 `json:"id"`
	ClientID    uint64                 `json:"clientId"`
	ManagerID   *uint64                `json:"managerId,omitempty"`
	Status      string                 `json:"status"`
	Items       []orderItemResponse    `json:"items"`
	Total       decimal.Decimal        `json:"total"`
	Comments    string                 `json:"comments,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
	CompletedAt *time.Time             `json:"completedAt,omitempty"`
	History     []historyEntryResponse `json:"history,omitempty"`
}

func toOrderResponse(order *domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	history := make([]historyEntryResponse, 0, len(order.History))
	for _, entry := range order.History {
		history = append(history, historyEntryResponse{
			ID:        entry.ID,
			Status:    string(entry.Status),
			ActorID:   entry.ActorID,
			CreatedAt: entry.CreatedAt,
		})
	}

	return orderResponse{
		ID:          order.ID,
		ClientID:    order.ClientID,
		ManagerID:   order.ManagerID,
		Status:      string(order.Status),
		Items:       items,
		Total:       order.Total,
		Comments:    order.Comments,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
		CompletedAt: order.CompletedAt,
		History:     history,
	}
}

func toDomainItems(items []orderItemRequest) ([]domain.OrderItem, error) {
	result := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		price, err := decimal.NewFromFloat64(item.Price)
		if err != nil {
			return nil, domain.ErrInvalidOrder
		}
		result = append(result, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     price,
		})
	}
	return result, nil
}

func orderIDParam(ctx *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, domain.ErrBadRequest
	}
	return id, nil
}

func (oh *OrderHandler) CreateOrder(ctx *gin.Context) {
	req := createOrderRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	items, err := toDomainItems(req.Items)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	newOrder := &domain.NewOrder{
		ClientID:  req.ClientID,
		ManagerID: req.ManagerID,
		Comments:  req.Comments,
		Items:     items,
	}
	if req.Status != "" {
		status, err := domain.ParseOrderStatus(req.Status)
		if err != nil {
			oh.handleError(ctx, err)
			return
		}
		newOrder.Status = status
	}

	order, err := oh.service.CreateOrder(ctx, newOrder, actorID(ctx))
	recordOrderOperation("create", err)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccessWithStatus(ctx, toOrderResponse(order), http.StatusCreated)
}

func (oh *OrderHandler) GetOrder(ctx *gin.Context) {
	id, err := orderIDParam(ctx)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	order, err := oh.service.GetOrder(ctx, id)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccess(ctx, toOrderResponse(order))
}

func (oh *OrderHandler) ListOrders(ctx *gin.Context) {
	filter, err := orderFilterQuery(ctx)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	list, err := oh.service.ListOrders(ctx, filter)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	result := make([]orderResponse, 0, len(list))
	for _, order := range list {
		result = append(result, toOrderResponse(order))
	}

	oh.handleSuccess(ctx, result)
}

func (oh *OrderHandler) UpdateOrder(ctx *gin.Context) {
	id, err := orderIDParam(ctx)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	req := updateOrderRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	upd := &domain.OrderUpdate{
		OrderID:   id,
		ManagerID: req.ManagerID,
		Comments:  req.Comments,
	}
	if req.Items != nil {
		items, err := toDomainItems(req.Items)
		if err != nil {
			oh.handleError(ctx, err)
			return
		}
		upd.Items = items
	}

	order, err := oh.service.UpdateOrder(ctx, upd, actorID(ctx))
	recordOrderOperation("update", err)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccess(ctx, toOrderResponse(order))
}

func (oh *OrderHandler) ChangeStatus(ctx *gin.Context) {
	id, err := orderIDParam(ctx)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	req := statusRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	target, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	order, err := oh.service.TransitionOrder(ctx, id, target, actorID(ctx))
	recordOrderOperation("transition", err)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	oh.handleSuccess(ctx, toOrderResponse(order))
}

func orderFilterQuery(ctx *gin.Context) (domain.OrderFilter, error) {
	filter := domain.OrderFilter{}

	if s := ctx.Query("status"); s != "" {
		status, err := domain.ParseOrderStatus(s)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	if s := ctx.Query("managerId"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return filter, domain.ErrBadRequest
		}
		filter.ManagerID = &id
	}
	if s := ctx.Query("clientId"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return filter, domain.ErrBadRequest
		}
		filter.ClientID = &id
	}
	if s := ctx.Query("from"); s != "" {
		from, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return filter, domain.ErrBadRequest
		}
		filter.From = &from
	}
	if s := ctx.Query("to"); s != "" {
		to, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return filter, domain.ErrBadRequest
		}
		filter.To = &to
	}

	return filter, nil
}
