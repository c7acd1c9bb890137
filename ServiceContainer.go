package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/henrika2/spreadsheet/contracts"
	"github.com/henrika2/spreadsheet/engine"
	"go.etcd.io/bbolt"
)

type ServiceContainer struct {
	Database          *bbolt.DB
	Logger            *slog.Logger
	ApiController     contracts.ApiController
	SheetRepository   contracts.SheetRepository
	WebhookDispatcher contracts.WebhookDispatcher
	Router            *gin.Engine
}

func BuildServiceContainer(config *Config) (container ServiceContainer, err error) {
	container.Logger = NewLogger(config, os.Stderr)

	container.Database, err = bbolt.Open(config.DatabasePath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return
	}

	container.WebhookDispatcher = NewWebhookDispatcher(config.WebhookWorkers, config.WebhookTimeout, container.Logger)
	container.SheetRepository = NewSheetRepository(engine.NewBoltSheetStorage(container.Database), container.WebhookDispatcher, container.Logger)
	container.ApiController = NewApiController(container.SheetRepository, container.WebhookDispatcher)

	container.Router = SetupRouter(container.ApiController, container.Logger)

	return
}
