// Package eventing provides a lightweight in-process event bus. Events
// fan out synchronously to subscribers; durability is not a requirement
// here, so there is no outbox behind it.
package eventing

import (
	"context"
	"sync"

	reportevents "solarpark-cloud/internal/reports/application/events"
	telemetryevents "solarpark-cloud/internal/telemetry/application/events"
)

// InMemoryEventBus is a lightweight in-process event bus.
type InMemoryEventBus struct {
	mu sync.RWMutex

	readingHandlers []func(context.Context, telemetryevents.ReadingDecoded) error
	reportHandlers  []func(context.Context, reportevents.ReportFinished) error
}

// NewInMemoryEventBus constructs a new bus.
func NewInMemoryEventBus() *InMemoryEventBus {
	return &InMemoryEventBus{}
}

// SubscribeReadingDecoded registers a handler for ReadingDecoded.
func (b *InMemoryEventBus) SubscribeReadingDecoded(handler func(context.Context, telemetryevents.ReadingDecoded) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readingHandlers = append(b.readingHandlers, handler)
}

// PublishReadingDecoded publishes a ReadingDecoded event.
func (b *InMemoryEventBus) PublishReadingDecoded(ctx context.Context, event telemetryevents.ReadingDecoded) error {
	b.mu.RLock()
	handlers := append([]func(context.Context, telemetryevents.ReadingDecoded) error(nil), b.readingHandlers...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// SubscribeReportFinished registers a handler for ReportFinished.
func (b *InMemoryEventBus) SubscribeReportFinished(handler func(context.Context, reportevents.ReportFinished) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reportHandlers = append(b.reportHandlers, handler)
}

// PublishReportFinished publishes a ReportFinished event.
func (b *InMemoryEventBus) PublishReportFinished(ctx context.Context, event reportevents.ReportFinished) error {
	b.mu.RLock()
	handlers := append([]func(context.Context, reportevents.ReportFinished) error(nil), b.reportHandlers...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
