// Package sse streams job progress events to connected clients over
// Server-Sent Events.
package sse

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scoutdeck/enricher/internal/events"
	"github.com/scoutdeck/enricher/internal/logger"
)

const (
	// DefaultEventBufferSize is the publish channel capacity.
	DefaultEventBufferSize = 256
	// DefaultClientBufferSize is the per-client channel capacity. A client
	// that falls this far behind gets disconnected rather than block the
	// broadcast loop.
	DefaultClientBufferSize = 64
	// DefaultShutdownTimeout bounds how long Stop waits for the broadcast
	// loop to drain.
	DefaultShutdownTimeout = 5 * time.Second
)

var clientIDCounter atomic.Int64

type client struct {
	id     string
	jobID  string
	events chan events.Event
}

// Broker distributes job events to subscribers. Subscriptions are scoped to
// a job id; an empty job id receives everything.
type Broker struct {
	logger logger.Interface

	mu      sync.RWMutex
	clients map[string]*client

	publish chan events.Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBroker creates an SSE broker.
func NewBroker(log logger.Interface) *Broker {
	return &Broker{
		logger:  log,
		clients: make(map[string]*client),
		publish: make(chan events.Event, DefaultEventBufferSize),
	}
}

// Start begins the broadcast loop. Non-blocking.
func (b *Broker) Start(ctx context.Context) {
	b.ctx, b.cancel = context.WithCancel(ctx)

	b.wg.Add(1)
	go b.broadcastLoop()

	b.logger.Debug("sse broker started")
}

// Stop shuts the broker down and closes all client channels.
func (b *Broker) Stop() {
	if b.cancel != nil {
		b.cancel()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Debug("sse broker stopped")
	case <-time.After(DefaultShutdownTimeout):
		b.logger.Warn("sse broker shutdown timeout exceeded")
	}
}

// Emit implements events.Emitter. A full publish buffer drops the event
// rather than stall the batch loop.
func (b *Broker) Emit(_ context.Context, event events.Event) {
	select {
	case b.publish <- event:
	default:
		b.logger.Warn("sse publish buffer full, dropping event", "job_id", event.JobID)
	}
}

// Subscribe registers a client for events of the given job (empty for all
// jobs). The returned cleanup must be called when the client disconnects.
func (b *Broker) Subscribe(jobID string) (<-chan events.Event, func()) {
	c := &client{
		id:     fmt.Sprintf("sse-%d", clientIDCounter.Add(1)),
		jobID:  jobID,
		events: make(chan events.Event, DefaultClientBufferSize),
	}

	b.mu.Lock()
	b.clients[c.id] = c
	b.mu.Unlock()

	b.logger.Debug("sse client subscribed", "client_id", c.id, "job_id", jobID)

	cleanup := func() {
		b.removeClient(c.id)
	}

	return c.events, cleanup
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *Broker) broadcastLoop() {
	defer b.wg.Done()

	for {
		select {
		case <-b.ctx.Done():
			b.closeAll()
			return
		case event := <-b.publish:
			b.broadcast(event)
		}
	}
}

func (b *Broker) broadcast(event events.Event) {
	b.mu.RLock()
	var slow []string
	for _, c := range b.clients {
		if c.jobID != "" && c.jobID != event.JobID {
			continue
		}
		select {
		case c.events <- event:
		default:
			slow = append(slow, c.id)
		}
	}
	b.mu.RUnlock()

	for _, id := range slow {
		b.logger.Warn("disconnecting slow sse client", "client_id", id)
		b.removeClient(id)
	}
}

func (b *Broker) removeClient(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.clients[id]; ok {
		delete(b.clients, id)
		close(c.events)
	}
}

func (b *Broker) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, c := range b.clients {
		delete(b.clients, id)
		close(c.events)
	}
}
