package connectivity

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetOnline_FlipsOncePerTransition(t *testing.T) {
	m := NewMonitor(true, nil)

	var events []bool
	cancel := m.Observe(func(online bool) { events = append(events, online) })
	defer cancel()

	assert.False(t, m.SetOnline(true))
	assert.True(t, m.SetOnline(false))
	assert.False(t, m.SetOnline(false))
	assert.True(t, m.SetOnline(true))

	assert.Equal(t, []bool{false, true}, events)
	assert.True(t, m.CheckOnlineStatus())
}

func TestObserve_CancelStopsDelivery(t *testing.T) {
	m := NewMonitor(true, nil)

	var order []string
	cancelA := m.Observe(func(bool) { order = append(order, "a") })
	m.Observe(func(bool) { order = append(order, "b") })

	m.SetOnline(false)
	cancelA()
	cancelA()
	m.SetOnline(true)

	assert.Equal(t, []string{"a", "b", "b"}, order)
}

func TestConcurrentReadersSeeCompletedTransition(t *testing.T) {
	m := NewMonitor(false, nil)
	var transitions atomic.Int32
	m.Observe(func(bool) { transitions.Add(1) })

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.SetOnline(true)
			assert.True(t, m.CheckOnlineStatus())
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), transitions.Load())
}

func TestIndicator(t *testing.T) {
	var buf bytes.Buffer
	m := NewMonitor(true, nil)
	ind := NewIndicator(&buf, m.CheckOnlineStatus())
	m.Observe(ind.Update)

	assert.Equal(t, "online", ind.Label())
	m.SetOnline(false)
	assert.Equal(t, "offline", ind.Label())
	m.SetOnline(true)

	assert.Equal(t, OfflineMessage+"\n"+BackOnlineMessage+"\n", buf.String())
}

func TestFallback(t *testing.T) {
	assert.Contains(t, Fallback(FallbackStories), "Stories cannot be loaded")
	assert.Contains(t, Fallback(FallbackLogin), "Login and registration")
	assert.Equal(t, Fallback(FallbackGeneral), Fallback("map"))
}

func TestProber(t *testing.T) {
	m := NewMonitor(true, nil)
	var fail atomic.Bool
	p := NewProber(m, func(ctx context.Context) error {
		if fail.Load() {
			return errors.New("unreachable")
		}
		return nil
	}, 10*time.Millisecond, nil)

	fail.Store(true)
	assert.False(t, p.Probe(context.Background()))
	assert.False(t, m.CheckOnlineStatus())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	fail.Store(false)
	require.Eventually(t, m.CheckOnlineStatus, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.True(t, m.CheckOnlineStatus())
}

func TestProbe_CancelledContextLeavesState(t *testing.T) {
	m := NewMonitor(true, nil)
	p := NewProber(m, func(ctx context.Context) error { return ctx.Err() }, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, p.Probe(ctx))
	assert.True(t, m.CheckOnlineStatus())
}
