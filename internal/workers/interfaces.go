// Package workers runs the client's background loops: the platform
// connectivity poller, the replay triggered on reconnect, the periodic
// replay and the realtime listeners.
package workers

import "context"

// Worker is a background loop. Run blocks until ctx is done or the worker
// has nothing left to do.
type Worker interface {
	Run(ctx context.Context)
}

// WorkerFunc adapts a function to [Worker].
type WorkerFunc func(ctx context.Context)

func (f WorkerFunc) Run(ctx context.Context) { f(ctx) }
