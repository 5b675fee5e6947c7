package main

import (
	"context"
	"fmt"
	"time"

	"github.com/antonkh/crmcore/internal/adapter/auth"
	"github.com/antonkh/crmcore/internal/adapter/config"
	"github.com/antonkh/crmcore/internal/adapter/events"
	"github.com/antonkh/crmcore/internal/adapter/handler/http"
	"github.com/antonkh/crmcore/internal/adapter/logger"
	"github.com/antonkh/crmcore/internal/adapter/storage"
	"github.com/antonkh/crmcore/internal/adapter/storage/repository"
	"github.com/antonkh/crmcore/internal/core/port"
	"github.com/antonkh/crmcore/internal/core/service"
	"go.uber.org/zap"
)

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		fmt.Printf("config error:%s", err)
		return
	}

	log := logger.NewLogger(conf.App)
	if log == nil {
		fmt.Printf("error creating log")
		return
	}
	defer func() {
		err := log.Sync()
		if err != nil {
			fmt.Printf("log error: %s", err)
		}
	}()

	ctx := context.Background()

	db, err := storage.NewDBStorage(ctx, conf.Database)
	if err != nil {
		log.Error("database error", zap.Error(err))
		return
	}
	err = db.RunMigrations()
	if err != nil {
		log.Error("database migration error", zap.Error(err))
		return
	}

	repo, err := repository.NewRepository(db)
	if err != nil {
		log.Error("repository creating error", zap.Error(err))
		return
	}

	tokenService, err := auth.New(conf.Auth)
	if err != nil {
		log.Error("token service creating error", zap.Error(err))
		return
	}

	var publisher port.EventPublisher
	if conf.Events.AMQPURL != "" {
		p, err := events.NewPublisher(conf.Events, log.Named("Events"))
		if err != nil {
			log.Error("event publisher creating error", zap.Error(err))
			return
		}
		defer func() {
			if err := p.Close(); err != nil {
				log.Error("event publisher close error", zap.Error(err))
			}
		}()
		publisher = p
	}

	reportLoc, err := time.LoadLocation(conf.App.ReportTimezone)
	if err != nil {
		log.Error("report timezone error", zap.Error(err))
		return
	}

	svc, err := service.NewService(repo, publisher, reportLoc, log.Named("Service"))
	if err != nil {
		log.Error("order service creating error", zap.Error(err))
		return
	}

	orderHandler, err := http.NewOrderHandler(svc, log.Named("Order handler"))
	if err != nil {
		log.Error("order handler creating error", zap.Error(err))
		return
	}
	reportHandler, err := http.NewReportHandler(svc, log.Named("Report handler"))
	if err != nil {
		log.Error("report handler creating error", zap.Error(err))
		return
	}
	auditHandler, err := http.NewAuditHandler(svc, log.Named("Audit handler"))
	if err != nil {
		log.Error("audit handler creating error", zap.Error(err))
		return
	}

	r, err := http.NewRouter(conf.HTTP, tokenService, db, orderHandler, reportHandler, auditHandler)
	if err != nil {
		log.Error("router creating error", zap.Error(err))
		return
	}

	err = r.Serve(conf.HTTP.HostString)
	if err != nil {
		log.Error("router serve error", zap.Error(err))
		return
	}
}
