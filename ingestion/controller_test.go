package ingestion

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, requests, writes int) *Controller {
	t.Helper()
	c, err := NewController(requests, writes, nil)
	require.NoError(t, err)
	t.Cleanup(c.Release)
	return c
}

func TestNewControllerCapacity(t *testing.T) {
	c := newTestController(t, 6, 100)
	requests, writes := c.Capacity()
	assert.Equal(t, 6, requests)
	assert.Equal(t, 100, writes)

	c = newTestController(t, 0, -3)
	requests, writes = c.Capacity()
	assert.Equal(t, 1, requests, "sizes are raised to 1")
	assert.Equal(t, 1, writes)
}

func TestSubmitRequestBoundsConcurrency(t *testing.T) {
	c := newTestController(t, 3, 1)

	var running, peak atomic.Int64
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		err := c.SubmitRequest(context.Background(), func() {
			defer wg.Done()
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		})
		require.NoError(t, err)
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(3))
	assert.GreaterOrEqual(t, peak.Load(), int64(1))
}

func TestSubmitRequestCanceledContext(t *testing.T) {
	c := newTestController(t, 2, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := c.SubmitRequest(ctx, func() { called = true })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestPanicReleasesSlot(t *testing.T) {
	c := newTestController(t, 1, 1)

	require.NoError(t, c.SubmitRequest(context.Background(), func() {
		panic("boom")
	}))

	done := make(chan struct{})
	require.NoError(t, c.SubmitRequest(context.Background(), func() {
		close(done)
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("slot was not released after panic")
	}
}

func TestSubmitAfterRelease(t *testing.T) {
	c, err := NewController(1, 1, nil)
	require.NoError(t, err)
	c.Release()

	assert.Error(t, c.SubmitRequest(context.Background(), func() {}))
	assert.Error(t, c.SubmitWrite(func() {}))
}

func TestInFlight(t *testing.T) {
	c := newTestController(t, 2, 2)

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, c.SubmitWrite(func() {
		close(started)
		<-release
	}))
	<-started

	requests, writes := c.InFlight()
	assert.Equal(t, 0, requests)
	assert.Equal(t, 1, writes)
	close(release)
}
