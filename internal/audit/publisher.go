package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"termo/pkg/requestcontext"
)

// ErrBufferFull is returned when the publisher cannot accept more events.
var ErrBufferFull = errors.New("audit buffer full")

// ErrClosed is returned by Emit after Close.
var ErrClosed = errors.New("audit publisher closed")

// DefaultBuffer is the publisher's queue depth.
const DefaultBuffer = 256

// Publisher queues events for a Worker. Emit never blocks the request path:
// when the queue is full the event is dropped and ErrBufferFull returned.
type Publisher struct {
	mu     sync.RWMutex
	events chan Event
	closed bool
}

// NewPublisher returns a Publisher with a queue of size buffer.
func NewPublisher(buffer int) *Publisher {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Publisher{events: make(chan Event, buffer)}
}

// Emit fills ID, Timestamp and RequestID when unset and enqueues the event.
func (p *Publisher) Emit(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.RequestID == "" {
		e.RequestID = requestcontext.RequestID(ctx)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.events <- e:
		return nil
	default:
		return ErrBufferFull
	}
}

// Events is the queue a Worker drains.
func (p *Publisher) Events() <-chan Event {
	return p.events
}

// Close stops accepting events. Queued events stay readable.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.events)
	}
}
