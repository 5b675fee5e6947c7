package http

import (
	"strconv"
	"time"

	"github.com/antonkh/crmcore/internal/core/domain"
	"github.com/antonkh/crmcore/internal/core/port"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuditHandler struct {
	Handler
	service port.Service
}

func NewAuditHandler(service port.Service, logger *zap.Logger) (*AuditHandler, error) {
	return &AuditHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type auditEntryResponse struct {
	ID         uint64         `json:"id"`
	ActorID    *uint64        `json:"actorId,omitempty"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   *uint64        `json:"entityId,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// AuditLog returns a page of the audit stream, newest first.
func (ah *AuditHandler) AuditLog(ctx *gin.Context) {
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	if err != nil {
		ah.handleError(ctx, domain.ErrBadRequest)
		return
	}
	offset, err := strconv.Atoi(ctx.DefaultQuery("offset", "0"))
	if err != nil {
		ah.handleError(ctx, domain.ErrBadRequest)
		return
	}

	list, err := ah.service.AuditLog(ctx, limit, offset)
	if err != nil {
		ah.handleError(ctx, err)
		return
	}

	result := make([]auditEntryResponse, 0, len(list))
	for _, entry := range list {
		result = append(result, auditEntryResponse{
			ID:         entry.ID,
			ActorID:    entry.ActorID,
			Action:     entry.Action,
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			Metadata:   entry.Metadata,
			CreatedAt:  entry.CreatedAt,
		})
	}

	ah.handleSuccess(ctx, result)
}
