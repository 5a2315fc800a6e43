package webhook

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/ABCMilioli/api-control/internal/model"
)

// SubscriptionSource resolves the active subscriptions for an event name.
// Implemented by core.SubscriptionService.
type SubscriptionSource interface {
	ActiveForEvent(ctx context.Context, eventName string) ([]model.WebhookSubscription, error)
}

// Summary aggregates one event's delivery outcomes for logging and tests.
type Summary struct {
	Event      string
	Total      int
	Successful int
	Failed     int
}

// Dispatcher fans events out to matching subscriptions. Publishing is a
// non-blocking handoff to a bounded queue; a background loop drains the queue
// and runs one delivery per subscription, bounded by a weighted semaphore.
// The dispatcher holds no state beyond its queue and is constructed and owned
// by the composition root.
type Dispatcher struct {
	source    SubscriptionSource
	deliverer *Deliverer
	logger    zerolog.Logger
	queue     chan model.Event
	inflight  *semaphore.Weighted
	stop      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func NewDispatcher(source SubscriptionSource, deliverer *Deliverer, logger zerolog.Logger, queueSize, maxInflight int) *Dispatcher {
	return &Dispatcher{
		source:    source,
		deliverer: deliverer,
		logger:    logger,
		queue:     make(chan model.Event, queueSize),
		inflight:  semaphore.NewWeighted(int64(maxInflight)),
		stop:      make(chan struct{}),
	}
}

// Publish enqueues an event for asynchronous dispatch. It never blocks: when
// the queue is full or the dispatcher is stopped the event is dropped with a
// warning. Implements core.EventSink.
func (d *Dispatcher) Publish(event model.Event) {
	select {
	case <-d.stop:
		eventsDroppedTotal.Inc()
		d.logger.Warn().Str("event", event.Name).Msg("dispatcher stopped, event dropped")
		return
	default:
	}

	select {
	case d.queue <- event:
	default:
		eventsDroppedTotal.Inc()
		d.logger.Warn().Str("event", event.Name).Msg("dispatch queue full, event dropped")
	}
}

// Start launches the dispatch loop. Deliveries inherit ctx, so cancelling it
// aborts in-flight attempts.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-d.stop:
				return
			case <-ctx.Done():
				return
			case event := <-d.queue:
				d.wg.Add(1)
				go func(event model.Event) {
					defer d.wg.Done()
					d.Dispatch(ctx, event)
				}(event)
			}
		}
	}()
}

// Close stops the dispatch loop and waits for in-flight deliveries.
func (d *Dispatcher) Close() {
	d.stopOnce.Do(func() { close(d.stop) })
	d.wg.Wait()
}

// Dispatch resolves matching subscriptions and delivers the event to each
// concurrently, waiting for all of them. Individual failures never affect
// other subscriptions; the returned summary exists for logging and tests.
func (d *Dispatcher) Dispatch(ctx context.Context, event model.Event) Summary {
	summary := Summary{Event: event.Name}

	subs, err := d.source.ActiveForEvent(ctx, event.Name)
	if err != nil {
		d.logger.Error().Err(err).Str("event", event.Name).Msg("failed to resolve webhook subscriptions")
		return summary
	}
	if len(subs) == 0 {
		return summary
	}

	results := make([]Result, len(subs))
	var wg sync.WaitGroup
	for i := range subs {
		if err := d.inflight.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer d.inflight.Release(1)
			results[i] = d.deliverer.Deliver(ctx, &subs[i], event)
		}(i)
	}
	wg.Wait()

	summary.Total = len(subs)
	for _, r := range results {
		if r.Succeeded {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}

	d.logger.Info().
		Str("event", event.Name).
		Int("total", summary.Total).
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Msg("webhook dispatch complete")
	return summary
}
