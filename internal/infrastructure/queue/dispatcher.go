package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecofinds/marketplace/internal/api/metrics"
	"github.com/ecofinds/marketplace/internal/core/domain"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

const (
	defaultWorkers  = 4
	channelBuffer   = 256
	deliveryTimeout = 5 * time.Second
)

var (
	ErrQueueFull = errors.New("event queue full")
	ErrStopped   = errors.New("event dispatcher stopped")
)

// Dispatcher delivers domain events to a sink from a fixed set of workers,
// using consistent hashing on the event key so events of one aggregate are
// delivered in order. It implements ports.EventPublisher and never blocks the
// caller.
type Dispatcher struct {
	workers []chan domain.Event
	sink    ports.EventPublisher
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

var _ ports.EventPublisher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink ports.EventPublisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Event, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Event, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers exit when ctx is cancelled or
// after Stop has drained their channel.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Publish queues the event on the worker responsible for its key.
func (d *Dispatcher) Publish(_ context.Context, event domain.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		metrics.EventsErrorsTotal.WithLabelValues("stopped").Inc()
		return ErrStopped
	}

	idx := d.shardIndex(event.Key)
	select {
	case d.workers[idx] <- event:
		metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	default:
		metrics.EventsErrorsTotal.WithLabelValues("queue_full").Inc()
		return ErrQueueFull
	}
}

// Stop refuses new events and waits until queued ones are delivered or ctx
// expires.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps an event key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Event) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			metrics.EventsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.deliver(ctx, id, event)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, id int, event domain.Event) {
	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	start := time.Now()
	err := d.sink.Publish(ctx, event)
	metrics.EventDeliveryDuration.WithLabelValues(event.Subject).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EventsErrorsTotal.WithLabelValues("publish_failed").Inc()
		d.log.Error().Err(err).
			Str("subject", event.Subject).
			Str("key", event.Key).
			Int("worker_id", id).
			Msg("event delivery failed")
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues(event.Subject).Inc()
}
