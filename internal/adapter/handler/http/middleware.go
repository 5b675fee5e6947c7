package http

import (
	"strings"

	"github.com/antonkh/crmcore/internal/core/domain"
	"github.com/antonkh/crmcore/internal/core/port"
	"github.com/gin-gonic/gin"
)

const authHeaderKey = "Authorization"
const authType = "Bearer"
const actorPayloadKey = "actor_payload"

func authCheck(tokenService port.TokenService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.Request.Header.Get(authHeaderKey)
		if len(header) == 0 {
			abortUnauthorized(ctx, domain.ErrEmptyAuthorizationHeader)
			return
		}

		words := strings.Split(header, " ")
		if len(words) != 2 {
			abortUnauthorized(ctx, domain.ErrInvalidAuthorizationHeader)
			return
		}
		if words[0] != authType {
			abortUnauthorized(ctx, domain.ErrInvalidAuthorizationType)
			return
		}
		token := words[1]
		payload, err := tokenService.VerifyToken(token)
		if err != nil {
			abortUnauthorized(ctx, domain.ErrInvalidToken)
			return
		}

		ctx.Set(actorPayloadKey, payload)

		ctx.Next()
	}
}

func abortUnauthorized(ctx *gin.Context, err error) {
	statusCode, code := classifyError(err)
	ctx.AbortWithStatusJSON(statusCode, errorResponse{Code: code, Message: err.Error()})
}

// actorID returns the authenticated actor, as an optional reference the way
// history and audit entries store it.
func actorID(ctx *gin.Context) *uint64 {
	payload := ctx.MustGet(actorPayloadKey).(*port.TokenPayload)
	id := payload.ActorID
	return &id
}
