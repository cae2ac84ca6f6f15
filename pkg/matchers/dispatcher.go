package matchers

import (
	"context"
	"sync"

	"github.com/gammazero/deque"
	"go.uber.org/zap"
)

const defaultDispatchWorkers = 5

// dispatcher fans incoming events out to a fixed pool of workers. Events
// queue in arrival order; a slow handler delays later events instead of
// dropping them.
type dispatcher struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   *deque.Deque[Event]
	handler EventHandler
	closed  bool
	wg      sync.WaitGroup
}

func newDispatcher(ctx context.Context, handler EventHandler, workers int) *dispatcher {
	if workers <= 0 {
		workers = defaultDispatchWorkers
	}
	d := &dispatcher{
		queue:   &deque.Deque[Event]{},
		handler: handler,
	}
	d.cond = sync.NewCond(&d.mu)

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work(ctx)
	}
	return d
}

func (d *dispatcher) enqueue(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.queue.PushBack(ev)
	d.cond.Signal()
}

// close stops intake and waits for queued events to drain.
func (d *dispatcher) close() {
	d.mu.Lock()
	d.closed = true
	d.cond.Broadcast()
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *dispatcher) work(ctx context.Context) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		for d.queue.Len() == 0 && !d.closed {
			d.cond.Wait()
		}
		if d.queue.Len() == 0 && d.closed {
			d.mu.Unlock()
			return
		}
		ev := d.queue.PopFront()
		d.mu.Unlock()

		d.dispatch(ctx, ev)
	}
}

func (d *dispatcher) dispatch(ctx context.Context, ev Event) {
	switch ev.Type {
	case EventTick:
		d.handler.OnTick(ctx, ev)
	case EventMarketCycle:
		d.handler.OnMarketCycle(ctx, ev)
	case EventOrdersResponse:
		snapshot, err := decodeOrders(ev.Raw)
		if err != nil {
			zap.S().Warnf("decode bids_offers fail: %+v", err)
			break
		}
		d.handler.OnOrdersResponse(ctx, snapshot, ev)
	case EventMatch:
		d.handler.OnMatchedRecommendationsResponse(ctx, ev)
	case EventFinish:
		d.handler.OnFinish(ctx, ev)
	default:
		zap.S().Debugf("unhandled event type: %s", ev.Type)
	}
	d.handler.OnEventOrResponse(ctx, ev)
}
