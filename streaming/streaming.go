// Package streaming implements a bounded ring buffer with a single
// background worker that periodically recomputes summary metrics over the
// buffer's tail and dispatches them to registered callbacks.
package streaming

import (
	"context"
	"sync"
	"time"

	"github.com/arfinch/quantcore/result"
	"github.com/arfinch/quantcore/stats"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Metrics is the periodic summary computed over the ring buffer's current
// contents.
type Metrics struct {
	Count    int
	Mean     float64
	StdDev   float64
	Last     float64
}

// Callback is invoked on the worker's own goroutine after each metric
// recompute. A callback that panics is recovered and dropped for that
// event only; it never kills the worker.
type Callback func(Metrics)

// Config parametrizes a Core.
type Config struct {
	Capacity     int           `validate:"required,gt=0"`
	PollInterval time.Duration `validate:"required,gt=0"`
}

// Core is a bounded ring buffer with a single background worker that
// periodically computes Metrics over the buffer's current contents and
// dispatches them to registered callbacks. Events are delivered in
// ingestion order; ordering across distinct Core instances is not
// guaranteed. The zero value is not usable; construct with New.
type Core struct {
	cfg       Config
	log       zerolog.Logger
	runID     string

	mu        sync.Mutex
	buf       []float64
	head      int
	size      int
	callbacks []Callback

	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs a streaming Core. Fails InvalidInput if capacity or the
// poll interval are non-positive.
func New(cfg Config, log zerolog.Logger) (*Core, error) {
	if err := result.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	return &Core{
		cfg:   cfg,
		log:   log.With().Str("component", "streaming_core").Str("run_id", runID).Logger(),
		runID: runID,
		buf:   make([]float64, cfg.Capacity),
	}, nil
}

// RunID returns the identifier assigned to this Core at construction.
func (c *Core) RunID() string { return c.runID }

// OnMetrics registers a callback invoked after every periodic recompute.
// Must be called before Start; callbacks registered after Start are not
// guaranteed to observe earlier events.
func (c *Core) OnMetrics(cb Callback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, cb)
}

// Push appends a value to the ring buffer, overwriting the oldest entry
// once capacity is reached.
func (c *Core) Push(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := (c.head + c.size) % len(c.buf)
	c.buf[idx] = v
	if c.size < len(c.buf) {
		c.size++
	} else {
		c.head = (c.head + 1) % len(c.buf)
	}
}

// snapshot copies the buffer's current contents in ingestion order.
func (c *Core) snapshot() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]float64, c.size)
	for i := 0; i < c.size; i++ {
		out[i] = c.buf[(c.head+i)%len(c.buf)]
	}
	return out
}

// Start launches the worker goroutine, which polls the buffer every
// PollInterval and dispatches Metrics to all registered callbacks. Calling
// Start twice without an intervening Stop is a no-op.
func (c *Core) Start(ctx context.Context) {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	c.log.Info().Dur("poll_interval", c.cfg.PollInterval).Msg("streaming core started")
	go c.run(runCtx)
}

func (c *Core) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.dispatch()
		}
	}
}

func (c *Core) dispatch() {
	values := c.snapshot()
	if len(values) == 0 {
		return
	}
	m := Metrics{
		Count:  len(values),
		Mean:   stats.Mean(values),
		StdDev: stats.StdDev(values),
		Last:   values[len(values)-1],
	}

	c.mu.Lock()
	callbacks := make([]Callback, len(c.callbacks))
	copy(callbacks, c.callbacks)
	c.mu.Unlock()

	for _, cb := range callbacks {
		c.invoke(cb, m)
	}
}

// invoke calls cb, recovering a panic so one misbehaving callback never
// takes down the worker or drops events for other callbacks.
func (c *Core) invoke(cb Callback, m Metrics) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn().Interface("panic", r).Msg("streaming callback panicked, dropping event")
		}
	}()
	cb(m)
}

// Stop signals the worker to exit and blocks until it has, then clears the
// ring buffer so a restarted Core does not resurface stale values.
func (c *Core) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done

	c.mu.Lock()
	c.head, c.size = 0, 0
	for i := range c.buf {
		c.buf[i] = 0
	}
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	c.log.Info().Msg("streaming core stopped")
}
