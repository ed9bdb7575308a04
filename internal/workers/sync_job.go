package workers

import (
	"context"
	"time"
)

// SyncJob is a periodic replay job with its own goroutine.
type SyncJob interface {
	Start(ctx context.Context, interval time.Duration)
	Stop()
}

// NewPeriodicSync runs job for as long as the worker runs.
func NewPeriodicSync(job SyncJob, interval time.Duration) Worker {
	return WorkerFunc(func(ctx context.Context) {
		job.Start(ctx, interval)
		<-ctx.Done()
		job.Stop()
	})
}
