package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/henrika2/spreadsheet/contracts"
	"github.com/stretchr/testify/assert"
)

func TestWebhookDispatcher_SetWebhookUrl(t *testing.T) {
	webhookDispatcher := NewWebhookDispatcher(1, time.Second, _discardLogger())

	assert.Empty(t, webhookDispatcher.GetWebhookUrl("sheet1", "A1"))

	webhookDispatcher.SetWebhookUrl("sheet1", "A1", "http://localhost/a1")
	assert.Equal(t, "http://localhost/a1", webhookDispatcher.GetWebhookUrl("sheet1", "A1"))
	assert.Empty(t, webhookDispatcher.GetWebhookUrl("sheet2", "A1"))

	webhookDispatcher.SetWebhookUrl("sheet1", "A1", "")
	assert.Empty(t, webhookDispatcher.GetWebhookUrl("sheet1", "A1"))
}

func TestWebhookDispatcher_Notify(t *testing.T) {
	var mutex sync.Mutex
	received := map[string]contracts.CellView{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		cell := contracts.CellView{}
		if err := json.Unmarshal(body, &cell); err == nil {
			mutex.Lock()
			received[r.URL.Path] = cell
			mutex.Unlock()
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	webhookDispatcher := NewWebhookDispatcher(2, time.Second, _discardLogger())
	webhookDispatcher.SetWebhookUrl("sheet1", "A1", server.URL+"/a1")
	webhookDispatcher.SetWebhookUrl("sheet1", "B1", server.URL+"/b1")
	webhookDispatcher.SetWebhookUrl("sheet2", "C1", server.URL+"/c1")
	webhookDispatcher.Start()

	webhookDispatcher.Notify("sheet1", []*contracts.CellView{
		{Name: "A1", Value: "1", Result: "1"},
		{Name: "B1", Value: "=A1 + 1", Result: "2"},
		{Name: "C1", Value: "=B1", Result: "2"},
	})
	webhookDispatcher.Close()

	mutex.Lock()
	defer mutex.Unlock()

	assert.Len(t, received, 2)
	assert.Equal(t, contracts.CellView{Name: "A1", Value: "1", Result: "1"}, received["/a1"])
	assert.Equal(t, "2", received["/b1"].Result)
	assert.NotContains(t, received, "/c1")
}

func TestWebhookDispatcher_Close(t *testing.T) {
	webhookDispatcher := NewWebhookDispatcher(1, time.Second, _discardLogger())
	webhookDispatcher.SetWebhookUrl("sheet1", "A1", "http://127.0.0.1:1/unreachable")
	webhookDispatcher.Start()

	webhookDispatcher.Close()
	webhookDispatcher.Close()

	assert.NotPanics(t, func() {
		webhookDispatcher.Notify("sheet1", []*contracts.CellView{{Name: "A1"}})
	})
}

func TestWebhookDispatcher_NotifyDuringClose(t *testing.T) {
	var running sync.WaitGroup
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	for i := 0; i < 50; i++ {
		webhookDispatcher := NewWebhookDispatcher(2, time.Second, _discardLogger())
		webhookDispatcher.SetWebhookUrl("sheet1", "A1", server.URL)
		webhookDispatcher.Start()

		running.Add(2)
		go func() {
			defer running.Done()
			for j := 0; j < 10; j++ {
				webhookDispatcher.Notify("sheet1", []*contracts.CellView{{Name: "A1"}})
			}
		}()
		go func() {
			defer running.Done()
			webhookDispatcher.Close()
		}()
		running.Wait()

		assert.NotPanics(t, func() {
			webhookDispatcher.Notify("sheet1", []*contracts.CellView{{Name: "A1"}})
		})
	}
}
