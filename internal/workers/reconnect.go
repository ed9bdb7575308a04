package workers

import (
	"context"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

// ConnectivitySource publishes the current connectivity followed by every
// transition.
type ConnectivitySource interface {
	Subscribe() (<-chan bool, func())
}

// Replayer replays every pending change.
type Replayer interface {
	RetryAll(ctx context.Context) (models.RetryProgress, error)
}

type reconnectReplayer struct {
	source   ConnectivitySource
	replayer Replayer
	logger   *logger.Logger
}

// NewReconnectReplayer replays the pending queue on every offline to online
// transition. The first value it receives only primes the state.
func NewReconnectReplayer(source ConnectivitySource, replayer Replayer, logger *logger.Logger) Worker {
	return &reconnectReplayer{source: source, replayer: replayer, logger: logger}
}

func (r *reconnectReplayer) Run(ctx context.Context) {
	updates, cancel := r.source.Subscribe()
	defer cancel()

	primed, connected := false, false
	for {
		select {
		case <-ctx.Done():
			return
		case next, ok := <-updates:
			if !ok {
				return
			}
			reconnected := primed && !connected && next
			primed, connected = true, next
			if !reconnected {
				continue
			}

			progress, err := r.replayer.RetryAll(ctx)
			if err != nil {
				r.logger.Err(err).Str("func", "reconnectReplayer.Run").Msg("replay after reconnect failed")
				continue
			}
			r.logger.Info().
				Str("func", "reconnectReplayer.Run").
				Int("replayed", progress.Current).
				Int("total", progress.Total).
				Msg("pending changes replayed after reconnect")
		}
	}
}
