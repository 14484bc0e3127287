package chat

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Sink receives a fully serialized event batch for delivery to every
// connected channel.
type Sink interface {
	BroadcastBatch(batch []byte)
}

// Coalescer buffers outbound realtime events and flushes them as one batch
// after a short delay. A burst of N publishes inside one window costs one
// serialization and one fan-out instead of N.
//
// Events are delivered in publish order; only Publish schedules a flush, and
// at most one flush is pending at a time.
type Coalescer struct {
	mu        sync.Mutex
	pending   []Event
	scheduled bool

	delay time.Duration
	sink  Sink

	// schedule is swappable so tests can drive the flush timer themselves.
	schedule func(d time.Duration, fn func())
}

func NewCoalescer(delay time.Duration, sink Sink) *Coalescer {
	return &Coalescer{
		delay: delay,
		sink:  sink,
		schedule: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
}

// Publish appends an event to the pending queue and schedules a flush if one
// is not already pending.
func (c *Coalescer) Publish(event string, payload any) {
	c.mu.Lock()
	c.pending = append(c.pending, Event{Event: event, Payload: payload})
	start := !c.scheduled
	c.scheduled = true
	c.mu.Unlock()

	if start {
		c.schedule(c.delay, c.Flush)
	}
}

// Flush drains the entire pending queue into a single outbound batch and
// hands it to the sink. A flush with nothing pending is a no-op.
func (c *Coalescer) Flush() {
	c.mu.Lock()
	events := c.pending
	c.pending = nil
	c.scheduled = false
	c.mu.Unlock()

	if len(events) == 0 {
		return
	}

	batch, err := json.Marshal(map[string]any{"events": events})
	if err != nil {
		log.Printf("coalescer: could not encode batch of %d events: %v", len(events), err)
		return
	}
	c.sink.BroadcastBatch(batch)
}
