package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickQueueFIFO(t *testing.T) {
	q := newTickQueue()
	require.True(t, q.Enqueue(TickBatch{Tick: 1}))
	require.True(t, q.Enqueue(TickBatch{Tick: 2}))
	assert.Equal(t, 2, q.Len())

	b, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, int64(1), b.Tick)

	b, ok = q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, int64(2), b.Tick)

	_, ok = q.TryDequeue()
	assert.False(t, ok)
}

func TestTickQueueCloseRejectsEnqueue(t *testing.T) {
	q := newTickQueue()
	require.True(t, q.Enqueue(TickBatch{Tick: 1}))
	q.Close()
	assert.False(t, q.Enqueue(TickBatch{Tick: 2}))

	// Close drains nothing: the pending batch is still dequeueable.
	b, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, int64(1), b.Tick)
	assert.True(t, q.isClosed())
}

func TestTickQueueSignalCoalesces(t *testing.T) {
	q := newTickQueue()
	q.Enqueue(TickBatch{Tick: 1})
	q.Enqueue(TickBatch{Tick: 2})

	<-q.Wait()
	select {
	case <-q.Wait():
		t.Fatal("signal should be coalesced to one wakeup")
	default:
	}
}
