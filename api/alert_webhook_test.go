package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestWebhook(url, auth string) *AlertWebhook {
	w := NewAlertWebhook(url, auth, slog.New(slog.NewTextHandler(io.Discard, nil)))
	w.retryDelay = time.Millisecond
	return w
}

func TestAlertWebhook_Delivers(t *testing.T) {
	var (
		mu       sync.Mutex
		received AlertEvent
		auth     string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wh := newTestWebhook(srv.URL, "Authorization: Bearer s3cret")
	wh.Notify(AlertEvent{Type: AlertLoginFailureSpike, Count: 50, Threshold: 50})
	wh.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, AlertLoginFailureSpike, received.Type)
	assert.Equal(t, 50, received.Count)
	assert.Equal(t, "Bearer s3cret", auth)
}

func TestAlertWebhook_RetriesOn5xx(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := newTestWebhook(srv.URL, "")
	wh.Notify(AlertEvent{Type: AlertAccessDeniedSpike})
	wh.Close()

	assert.Equal(t, int32(2), attempts.Load())
}

func TestAlertWebhook_NoRetryOn4xx(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	wh := newTestWebhook(srv.URL, "")
	wh.Notify(AlertEvent{Type: AlertAccessDeniedSpike})
	wh.Close()

	assert.Equal(t, int32(1), attempts.Load())
}

func TestAlertWebhook_DropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		<-block
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := newTestWebhook(srv.URL, "")
	for i := 0; i < webhookQueueSize+10; i++ {
		assert.NotPanics(t, func() { wh.Notify(AlertEvent{Type: AlertLoginFailureSpike, Count: i}) })
	}
	close(block)
	wh.Close()

	assert.LessOrEqual(t, int(attempts.Load()), webhookQueueSize+1)
}
