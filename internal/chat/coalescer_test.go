package chat

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	batches [][]byte
}

func (s *captureSink) BroadcastBatch(batch []byte) {
	s.batches = append(s.batches, batch)
}

// manualCoalescer returns a coalescer whose flush timer never fires on its
// own; the test drives Flush directly and records scheduling calls.
func manualCoalescer(sink Sink) (*Coalescer, *int) {
	c := NewCoalescer(25*time.Millisecond, sink)
	scheduled := 0
	c.schedule = func(d time.Duration, fn func()) {
		scheduled++
	}
	return c, &scheduled
}

func decodeBatch(t *testing.T, raw []byte) []Event {
	t.Helper()
	var batch struct {
		Events []Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(raw, &batch))
	return batch.Events
}

func TestCoalescerBatchesInOrder(t *testing.T) {
	sink := &captureSink{}
	c, scheduled := manualCoalescer(sink)

	const n = 10
	for i := 0; i < n; i++ {
		c.Publish(EventMessageNew, map[string]any{"seq": i})
	}

	assert.Equal(t, 1, *scheduled, "a burst schedules exactly one flush")
	assert.Empty(t, sink.batches, "nothing delivered before the flush fires")

	c.Flush()
	require.Len(t, sink.batches, 1, "one burst produces one batch")

	events := decodeBatch(t, sink.batches[0])
	require.Len(t, events, n)
	for i, ev := range events {
		assert.Equal(t, EventMessageNew, ev.Event)
		payload := ev.Payload.(map[string]any)
		assert.Equal(t, float64(i), payload["seq"], "events keep publish order")
	}
}

func TestCoalescerEmptyFlushIsNoop(t *testing.T) {
	sink := &captureSink{}
	c, _ := manualCoalescer(sink)

	c.Flush()
	assert.Empty(t, sink.batches)
}

func TestCoalescerReschedulesAfterFlush(t *testing.T) {
	sink := &captureSink{}
	c, scheduled := manualCoalescer(sink)

	c.Publish(EventMessageNew, "a")
	c.Flush()
	c.Publish(EventMessageDelete, "b")
	c.Flush()

	assert.Equal(t, 2, *scheduled)
	require.Len(t, sink.batches, 2)
	assert.Equal(t, EventMessageNew, decodeBatch(t, sink.batches[0])[0].Event)
	assert.Equal(t, EventMessageDelete, decodeBatch(t, sink.batches[1])[0].Event)
}

func TestCoalescerTimerDelivers(t *testing.T) {
	sink := make(chanSink)
	c := NewCoalescer(5*time.Millisecond, sink)

	for i := 0; i < 3; i++ {
		c.Publish(EventMessageNew, fmt.Sprintf("payload-%d", i))
	}

	select {
	case batch := <-sink:
		events := decodeBatch(t, batch)
		assert.Len(t, events, 3)
	case <-time.After(time.Second):
		t.Fatal("flush timer never fired")
	}
}

type chanSink chan []byte

func (s chanSink) BroadcastBatch(batch []byte) { s <- batch }
