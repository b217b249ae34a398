package streaming

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{Capacity: 0, PollInterval: time.Millisecond}, zerolog.Nop())
	require.Error(t, err)

	_, err = New(Config{Capacity: 10, PollInterval: 0}, zerolog.Nop())
	require.Error(t, err)
}

func TestPushOverwritesOldestWhenFull(t *testing.T) {
	c, err := New(Config{Capacity: 3, PollInterval: time.Hour}, zerolog.Nop())
	require.NoError(t, err)
	c.Push(1)
	c.Push(2)
	c.Push(3)
	c.Push(4)
	assert.Equal(t, []float64{2, 3, 4}, c.snapshot())
}

func TestStartDispatchesMetricsPeriodically(t *testing.T) {
	c, err := New(Config{Capacity: 5, PollInterval: 10 * time.Millisecond}, zerolog.Nop())
	require.NoError(t, err)

	var mu sync.Mutex
	var received []Metrics
	c.OnMetrics(func(m Metrics) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, m)
	})

	c.Push(1)
	c.Push(2)
	c.Push(3)

	c.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	c.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, received)
	last := received[len(received)-1]
	assert.Equal(t, 3, last.Count)
	assert.Equal(t, 3.0, last.Last)
}

func TestStopClearsBuffer(t *testing.T) {
	c, err := New(Config{Capacity: 3, PollInterval: time.Millisecond}, zerolog.Nop())
	require.NoError(t, err)
	c.Push(1)
	c.Start(context.Background())
	time.Sleep(5 * time.Millisecond)
	c.Stop()
	assert.Empty(t, c.snapshot())
}

func TestPanickingCallbackDoesNotStopDispatch(t *testing.T) {
	c, err := New(Config{Capacity: 3, PollInterval: 10 * time.Millisecond}, zerolog.Nop())
	require.NoError(t, err)

	var mu sync.Mutex
	calls := 0
	c.OnMetrics(func(Metrics) { panic("boom") })
	c.OnMetrics(func(Metrics) {
		mu.Lock()
		defer mu.Unlock()
		calls++
	})

	c.Push(1)
	c.Start(context.Background())
	time.Sleep(35 * time.Millisecond)
	c.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, calls, 0)
}
