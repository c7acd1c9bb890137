package main

import (
	"bytes"
	"log/slog"
	"net/http"
	"sync"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/henrika2/spreadsheet/contracts"
)

type SheetWebhooks map[string]string

type WebhookSendCommand struct {
	Webhook string
	Cell    *contracts.CellView
}

// WebhookDispatcher posts changed cells to the URLs subscribed to them, using a fixed pool of workers
type WebhookDispatcher struct {
	mutex        sync.RWMutex
	webhooks     map[string]SheetWebhooks
	queue        chan WebhookSendCommand
	closed       bool
	pending      sync.WaitGroup
	workers      sync.WaitGroup
	workersCount int
	client       *http.Client
	logger       *slog.Logger
}

func NewWebhookDispatcher(workersCount int, timeout time.Duration, logger *slog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{
		webhooks:     map[string]SheetWebhooks{},
		queue:        make(chan WebhookSendCommand, 20),
		workersCount: workersCount,
		client:       &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

// SetWebhookUrl subscribes the URL to changes of the cell, an empty URL unsubscribes
func (manager *WebhookDispatcher) SetWebhookUrl(canonicalSheetId string, canonicalCellId string, webhookUrl string) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	if _, ok := manager.webhooks[canonicalSheetId]; !ok {
		manager.webhooks[canonicalSheetId] = SheetWebhooks{}
	}

	if webhookUrl == "" {
		delete(manager.webhooks[canonicalSheetId], canonicalCellId)
	} else {
		manager.webhooks[canonicalSheetId][canonicalCellId] = webhookUrl
	}
}

func (manager *WebhookDispatcher) GetWebhookUrl(canonicalSheetId string, canonicalCellId string) string {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	return manager.webhooks[canonicalSheetId][canonicalCellId]
}

// Notify queues the cells with a subscribed URL without waiting for delivery
func (manager *WebhookDispatcher) Notify(canonicalSheetId string, cells []*contracts.CellView) {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	// Close flips `closed` under the write lock, so no Add can follow its Wait
	if manager.closed {
		return
	}

	commands := manager.makeCommands(canonicalSheetId, cells)
	if len(commands) == 0 {
		return
	}

	manager.pending.Add(1)
	go func() {
		defer manager.pending.Done()
		for _, command := range commands {
			manager.queue <- command
		}
	}()
}

// makeCommands expects the read lock to be held
func (manager *WebhookDispatcher) makeCommands(canonicalSheetId string, cells []*contracts.CellView) []WebhookSendCommand {
	sheetWebhooks, ok := manager.webhooks[canonicalSheetId]
	if !ok {
		return nil
	}

	commands := make([]WebhookSendCommand, 0)
	for _, cell := range cells {
		if webhook, ok := sheetWebhooks[cell.Name]; ok {
			commands = append(commands, WebhookSendCommand{Webhook: webhook, Cell: cell})
		}
	}
	return commands
}

func (manager *WebhookDispatcher) Start() {
	for i := 0; i < manager.workersCount; i++ {
		manager.workers.Add(1)
		go manager.runWebhookSenderWorker()
	}
}

// Close stops accepting notifications and waits until every accepted one is sent.
// The workers must have been started.
func (manager *WebhookDispatcher) Close() {
	manager.mutex.Lock()
	if manager.closed {
		manager.mutex.Unlock()
		return
	}
	manager.closed = true
	manager.mutex.Unlock()

	manager.pending.Wait()
	close(manager.queue)
	manager.workers.Wait()
}

func (manager *WebhookDispatcher) runWebhookSenderWorker() {
	defer manager.workers.Done()

	for command := range manager.queue {
		manager.send(command)
	}
}

func (manager *WebhookDispatcher) send(command WebhookSendCommand) {
	payload, err := json.Marshal(command.Cell)
	if err != nil {
		manager.logger.Warn("webhook payload encode failed", "cell", command.Cell.Name, "error", err)
		return
	}

	response, err := manager.client.Post(command.Webhook, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		manager.logger.Warn("webhook send failed", "webhook", command.Webhook, "error", err)
		return
	}
	defer response.Body.Close()

	if response.StatusCode >= 300 {
		manager.logger.Warn("unexpected webhook response", "webhook", command.Webhook, "status", response.Status)
	}
}
