package main

import (
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func TestBuildServiceContainer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	config := DefaultConfig()
	config.DatabasePath = filepath.Join(t.TempDir(), "sheets.db")

	serviceContainer, err := BuildServiceContainer(config)
	require.NoError(t, err)

	// check database
	assert.NotNil(t, serviceContainer.Database)
	assert.IsType(t, &bbolt.DB{}, serviceContainer.Database)
	defer serviceContainer.Database.Close()

	assert.NotNil(t, serviceContainer.Logger)

	// check webhook dispatcher
	assert.IsType(t, &WebhookDispatcher{}, serviceContainer.WebhookDispatcher)
	webhookDispatcher := serviceContainer.WebhookDispatcher.(*WebhookDispatcher)
	assert.Equal(t, config.WebhookWorkers, webhookDispatcher.workersCount)

	// check sheet repository
	assert.IsType(t, &SheetRepository{}, serviceContainer.SheetRepository)
	sheetRepository := serviceContainer.SheetRepository.(*SheetRepository)
	assert.NotNil(t, sheetRepository.storage)
	assert.Equal(t, serviceContainer.WebhookDispatcher, sheetRepository.webhookDispatcher)

	// check api controller
	assert.IsType(t, &ApiController{}, serviceContainer.ApiController)
	apiController := serviceContainer.ApiController.(*ApiController)
	assert.Equal(t, serviceContainer.SheetRepository, apiController.SheetRepository)
	assert.Equal(t, serviceContainer.WebhookDispatcher, apiController.WebhookDispatcher)

	// 4 api routes + health check
	assert.IsType(t, &gin.Engine{}, serviceContainer.Router)
	assert.Len(t, serviceContainer.Router.Routes(), 5)
}
