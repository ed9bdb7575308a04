package service

import (
	"context"
	"sync"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

const subscriberBuffer = 64

type subscriber struct {
	collection string
	ch         chan models.RecordEvent
}

// eventBroker fans record changes out to realtime subscribers. A subscriber
// that cannot keep up loses events rather than blocking writers.
type eventBroker struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int

	logger *logger.Logger
}

func newEventBroker(log *logger.Logger) *eventBroker {
	return &eventBroker{subs: make(map[int]*subscriber), logger: log}
}

// subscribe registers a listener for collection ("" means all). The
// subscription ends when ctx is done or cancel is called.
func (b *eventBroker) subscribe(ctx context.Context, collection string) (<-chan models.RecordEvent, func()) {
	sub := &subscriber{collection: collection, ch: make(chan models.RecordEvent, subscriberBuffer)}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
	stop := context.AfterFunc(ctx, cancel)

	return sub.ch, func() {
		stop()
		cancel()
	}
}

func (b *eventBroker) publish(ev models.RecordEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if sub.collection != "" && sub.collection != ev.Record.Collection {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			b.logger.Warn().
				Str("func", "eventBroker.publish").
				Str("collection", ev.Record.Collection).
				Str("id", ev.Record.ID).
				Msg("realtime subscriber is too slow, dropping event")
		}
	}
}

func (b *eventBroker) subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
