package eventbus

import (
	"context"
	"sync"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/internal/usecase"
	"fareguard-service/pkg/logger"
	"fareguard-service/pkg/metrics"
)

// Handler consumes one event
type Handler func(ctx context.Context, event entity.Event)

// Bus delivers events to subscribers on a single consumer goroutine.
// Publish never blocks; events are dropped when the buffer is full.
type Bus struct {
	events   chan entity.Event
	handlers []Handler
	metrics  *metrics.Metrics
	logger   logger.Logger

	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	started bool
}

var _ usecase.EventPublisher = (*Bus)(nil)

// NewBus creates a bus holding up to buffer undelivered events
func NewBus(buffer int, metrics *metrics.Metrics, logger logger.Logger) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	return &Bus{
		events:  make(chan entity.Event, buffer),
		metrics: metrics,
		logger:  logger,
	}
}

// Subscribe adds a handler; call before Start
func (b *Bus) Subscribe(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish enqueues the event without blocking
func (b *Bus) Publish(event entity.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	select {
	case b.events <- event:
	default:
		b.metrics.EventsDropped.Inc()
		b.logger.Warn("Event bus full, dropping event",
			"type", event.Type,
			"requestId", event.Request.ID)
	}
}

// Start runs the consumer until Close drains the buffer
func (b *Bus) Start(ctx context.Context) {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for event := range b.events {
			for _, handler := range handlers {
				b.dispatch(ctx, handler, event)
			}
		}
		b.logger.Info("Event bus stopped")
	}()
}

func (b *Bus) dispatch(ctx context.Context, handler Handler, event entity.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.metrics.ErrorsCount.WithLabelValues("event_handler").Inc()
			b.logger.Error("Event handler panicked", "type", event.Type, "panic", r)
		}
	}()
	handler(ctx, event)
}

// Close stops accepting events and waits for queued ones to be handled
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.events)
	b.mu.Unlock()

	b.wg.Wait()
}
