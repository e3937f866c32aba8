package repository

import (
	"context"
	"sync"

	"github.com/rivadavia/grainops/internal/model"
)

const subscriberBuffer = 32

// changeHub fans operation events out to subscribers. A subscriber that falls behind
// loses events instead of blocking writers.
type changeHub struct {
	mu   sync.Mutex
	subs map[chan model.OperationEvent]struct{}
}

func newChangeHub() *changeHub {
	return &changeHub{subs: make(map[chan model.OperationEvent]struct{})}
}

func (h *changeHub) subscribe(ctx context.Context) <-chan model.OperationEvent {
	ch := make(chan model.OperationEvent, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		close(ch)
		h.mu.Unlock()
	}()
	return ch
}

func (h *changeHub) publish(event model.OperationEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
