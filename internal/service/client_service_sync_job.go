package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

const defaultSyncInterval = 5 * time.Minute

type clientSyncJob struct {
	syncService ClientSyncService
	online      func() bool
	logger      *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClientSyncJob creates a job that calls syncService.RetryAll on a ticker
// while online reports true. A nil online means always. The job is idle
// until Start is called.
func NewClientSyncJob(syncService ClientSyncService, online func() bool, log *logger.Logger) ClientSyncJob {
	if log == nil {
		log = logger.Nop()
	}
	return &clientSyncJob{syncService: syncService, online: online, logger: log}
}

// Start implements ClientSyncJob. It stops any previously running job, then
// launches a goroutine that replays pending changes every interval. A zero
// or negative interval means 5 minutes. The goroutine exits when ctx is
// cancelled or Stop is called.
func (j *clientSyncJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultSyncInterval
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.tick(jobCtx)
			}
		}
	}()
}

func (j *clientSyncJob) tick(ctx context.Context) {
	if j.online != nil && !j.online() {
		return
	}

	progress, err := j.syncService.RetryAll(ctx)
	if err != nil {
		j.logger.Err(err).Str("func", "clientSyncJob.tick").Msg("periodic replay failed")
		return
	}
	if progress.Total > 0 {
		j.logger.Debug().
			Str("func", "clientSyncJob.tick").
			Int("current", progress.Current).
			Int("total", progress.Total).
			Msg("periodic replay finished")
	}
}

// Stop implements ClientSyncJob. It cancels the goroutine's context and
// blocks until the goroutine has exited. A no-op when the job is not running.
func (j *clientSyncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
