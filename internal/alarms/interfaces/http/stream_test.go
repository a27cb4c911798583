package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	alarmapp "solarpark-cloud/internal/alarms/application"
)

func TestStreamDeliversAlarmEvents(t *testing.T) {
	broker := NewSSEBroker()
	handler := NewStreamHandler(broker)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/alarms/stream", nil).WithContext(ctx)
	resp := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler.ServeHTTP(resp, req)
		close(done)
	}()

	// Wait until the client is registered before broadcasting.
	deadline := time.Now().Add(time.Second)
	for {
		broker.mu.Lock()
		n := len(broker.clients)
		broker.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("client never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	broker.Notify(context.Background(), alarmapp.AlarmEvent{
		DeviceID:  "dev-1",
		IMEI:      "860000000000001",
		Status:    "On-Error",
		AlarmName: "Grid Overvoltage",
	})

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	body := resp.Body.String()
	if !strings.Contains(body, "event: ready") {
		t.Fatalf("expected ready event, got %q", body)
	}
	if !strings.Contains(body, "event: alarm") {
		t.Fatalf("expected alarm event, got %q", body)
	}
	if !strings.Contains(body, "Grid Overvoltage") {
		t.Fatalf("expected alarm payload, got %q", body)
	}
	if got := resp.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("expected event-stream content type, got %q", got)
	}
}

func TestStreamRejectsPost(t *testing.T) {
	handler := NewStreamHandler(NewSSEBroker())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/alarms/stream", nil))
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}

func TestUnsubscribeTwiceIsSafe(t *testing.T) {
	broker := NewSSEBroker()
	ch := broker.Subscribe()
	broker.Unsubscribe(ch)
	broker.Unsubscribe(ch)
}

func TestConcurrentBroadcastAndUnsubscribe(t *testing.T) {
	broker := NewSSEBroker()
	event := alarmapp.AlarmEvent{DeviceID: "dev-1", State: "On-Error", AlarmName: "Grid Overvoltage"}

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					broker.Notify(context.Background(), event)
				}
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					ch := broker.Subscribe()
					broker.Unsubscribe(ch)
				}
			}
		}()
	}

	time.Sleep(100 * time.Millisecond)
	close(done)
	wg.Wait()

	broker.mu.Lock()
	remaining := len(broker.clients)
	broker.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("expected no clients left, got %d", remaining)
	}
}
