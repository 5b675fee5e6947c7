package http

import (
	"context"
	"net/http"

	"github.com/antonkh/crmcore/internal/adapter/config"
	"github.com/antonkh/crmcore/internal/core/port"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Pinger reports storage liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Router struct {
	*gin.Engine
}

func NewRouter(
	conf *config.HTTP,
	tokenService port.TokenService,
	pinger Pinger,
	orderHandler *OrderHandler,
	reportHandler *ReportHandler,
	auditHandler *AuditHandler) (*Router, error) {

	router := gin.New()
	router.Use(gin.Recovery(), prometheusMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ping", func(ctx *gin.Context) {
		if err := pinger.Ping(ctx); err != nil {
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		ctx.Status(http.StatusOK)
	})

	// Swagger
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	{
		api.Use(authCheck(tokenService))

		orders := api.Group("/orders")
		{
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("", orderHandler.ListOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.PUT("/:id", orderHandler.UpdateOrder)
			orders.POST("/:id/status", orderHandler.ChangeStatus)
		}

		reports := api.Group("/reports")
		{
			reports.GET("/orders", reportHandler.OrdersReport)
			reports.GET("/overdue", reportHandler.OverdueReport)
		}

		api.GET("/audit", auditHandler.AuditLog)
	}

	return &Router{router}, nil
}

// Serve starts the HTTP server
func (r *Router) Serve(listenAddr string) error {
	return r.Run(listenAddr)
}
