package http

import (
	"errors"
	"net/http"

	"github.com/antonkh/crmcore/internal/core/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errorStatusMap = map[error]int{
	domain.ErrInternal:     http.StatusInternalServerError,
	domain.ErrStoreFailure: http.StatusInternalServerError,

	domain.ErrDataNotFound:           http.StatusNotFound,
	domain.ErrConflictingData:        http.StatusConflict,
	domain.ErrConcurrentModification: http.StatusConflict,

	domain.ErrBadRequest:     http.StatusBadRequest,
	domain.ErrNoUpdatedData:  http.StatusBadRequest,
	domain.ErrUnknownStatus:  http.StatusBadRequest,
	domain.ErrUnknownGroupBy: http.StatusBadRequest,

	domain.ErrInvalidToken:               http.StatusUnauthorized,
	domain.ErrEmptyAuthorizationHeader:   http.StatusUnauthorized,
	domain.ErrInvalidAuthorizationHeader: http.StatusUnauthorized,
	domain.ErrInvalidAuthorizationType:   http.StatusUnauthorized,

	domain.ErrInvalidOrder:      http.StatusUnprocessableEntity,
	domain.ErrInvalidTransition: http.StatusConflict,
	domain.ErrOrderLocked:       http.StatusConflict,
}

var errorCodeMap = map[error]string{
	domain.ErrInternal:     "internal",
	domain.ErrStoreFailure: "store_failure",

	domain.ErrDataNotFound:           "not_found",
	domain.ErrConflictingData:        "conflict",
	domain.ErrConcurrentModification: "concurrent_modification",

	domain.ErrBadRequest:     "bad_request",
	domain.ErrNoUpdatedData:  "bad_request",
	domain.ErrUnknownStatus:  "bad_request",
	domain.ErrUnknownGroupBy: "bad_request",

	domain.ErrInvalidToken:               "unauthorized",
	domain.ErrEmptyAuthorizationHeader:   "unauthorized",
	domain.ErrInvalidAuthorizationHeader: "unauthorized",
	domain.ErrInvalidAuthorizationType:   "unauthorized",

	domain.ErrInvalidOrder:      "invalid_order",
	domain.ErrInvalidTransition: "invalid_transition",
	domain.ErrOrderLocked:       "order_locked",
}

// response is the success envelope: {"data": <payload>}.
type response struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func classifyError(err error) (int, string) {
	for sentinel, status := range errorStatusMap {
		if errors.Is(err, sentinel) {
			return status, errorCodeMap[sentinel]
		}
	}
	return http.StatusInternalServerError, "internal"
}

type Handler struct {
	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{logger: logger}
}

// handleValidationError sends an error response for a request parsing error
func (h *Handler) handleValidationError(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, errorResponse{Code: "bad_request", Message: err.Error()})
}

func (h *Handler) handleError(ctx *gin.Context, err error) {
	statusCode, code := classifyError(err)
	message := err.Error()
	if statusCode >= http.StatusInternalServerError {
		h.logger.Error("error processing request", zap.Error(err))
		message = "internal error"
	}
	ctx.JSON(statusCode, errorResponse{Code: code, Message: message})
}

// handleSuccess wraps data into the response envelope
func (h *Handler) handleSuccessWithStatus(ctx *gin.Context, data any, status int) {
	ctx.JSON(status, response{Data: data})
}

func (h *Handler) handleSuccess(ctx *gin.Context, data any) {
	h.handleSuccessWithStatus(ctx, data, http.StatusOK)
}
