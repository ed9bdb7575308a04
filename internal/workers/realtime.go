package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

const (
	minListenBackoff = time.Second
	maxListenBackoff = time.Minute
)

// Listener applies remote events of one collection until ctx is done or
// the stream ends.
type Listener interface {
	Listen(ctx context.Context, collection string) error
}

type realtimeListener struct {
	listener   Listener
	collection string
	online     func() bool
	minBackoff time.Duration
	logger     *logger.Logger
}

// NewRealtimeListener keeps a realtime subscription for collection open,
// reconnecting with exponential backoff. While online reports false no
// connection is attempted.
func NewRealtimeListener(listener Listener, collection string, online func() bool, logger *logger.Logger) Worker {
	return &realtimeListener{
		listener:   listener,
		collection: collection,
		online:     online,
		minBackoff: minListenBackoff,
		logger:     logger,
	}
}

func (l *realtimeListener) Run(ctx context.Context) {
	backoff := l.minBackoff

	for ctx.Err() == nil {
		if l.online == nil || l.online() {
			started := time.Now()
			err := l.listener.Listen(ctx, l.collection)
			if ctx.Err() != nil {
				return
			}
			if time.Since(started) > maxListenBackoff {
				backoff = l.minBackoff
			}
			l.logger.Warn().Err(err).
				Str("func", "realtimeListener.Run").
				Str("collection", l.collection).
				Dur("retry_in", backoff).
				Msg("realtime stream ended")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxListenBackoff)
	}
}
