package store

import (
	"context"
	"sync"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

// changeHub fans out "collection changed" notifications to live queries.
type changeHub struct {
	mu       sync.Mutex
	next     int
	watchers map[int]*watcher
}

type watcher struct {
	collection string
	notify     chan struct{}
}

func newChangeHub() *changeHub {
	return &changeHub{watchers: make(map[int]*watcher)}
}

// subscribe registers interest in collection ("" means every collection).
// Notifications coalesce: a watcher that has not drained its signal yet
// does not queue another one.
func (h *changeHub) subscribe(collection string) (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	w := &watcher{collection: collection, notify: make(chan struct{}, 1)}
	h.watchers[id] = w

	return w.notify, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.watchers, id)
	}
}

func (h *changeHub) publish(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, w := range h.watchers {
		if w.collection != "" && w.collection != collection {
			continue
		}
		select {
		case w.notify <- struct{}{}:
		default:
		}
	}
}

// watchQuery runs query once, emits the result and re-runs it after every
// change published for filter.Collection until ctx is done.
func watchQuery(
	ctx context.Context,
	hub *changeHub,
	filter RecordFilter,
	query func(context.Context, RecordFilter) ([]models.Record, error),
) (<-chan []models.Record, error) {
	notify, cancel := hub.subscribe(filter.Collection)

	initial, err := query(ctx, filter)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan []models.Record, 1)
	out <- initial

	go func() {
		defer close(out)
		defer cancel()

		log := logger.FromContext(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-notify:
			}

			records, err := query(ctx, filter)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Err(err).
					Str("func", "store.watchQuery").
					Str("collection", filter.Collection).
					Msg("failed to refresh watched query")
				continue
			}

			select {
			case <-ctx.Done():
				return
			case out <- records:
			}
		}
	}()

	return out, nil
}
