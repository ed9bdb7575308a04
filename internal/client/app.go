package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/tui"
	"github.com/MKhiriev/go-offline-sync/internal/workers"
)

type App struct {
	services *service.ClientServices
	ui       UI
	workers  *workers.Workers
	closer   io.Closer
	logger   *logger.Logger
}

// NewApp wires the background workers around services. closer, when not
// nil, is closed after the UI and every worker have stopped.
func NewApp(services *service.ClientServices, ui UI, cfg *config.ClientConfig, closer io.Closer, log *logger.Logger) (*App, error) {
	if services == nil || ui == nil || cfg == nil {
		return nil, ErrIncompleteApp
	}

	monitor := services.Monitor
	ws := workers.NewWorkers(
		workers.NewConnectivityPoller(monitor, cfg.Workers.ConnectivityInterval, log),
		workers.NewReconnectReplayer(monitor, services.SyncService, log),
		workers.NewPeriodicSync(services.SyncJob, cfg.Workers.SyncInterval),
		startupReplay(services, log),
	)
	for _, collection := range cfg.Sync.Collections {
		ws.Add(workers.NewRealtimeListener(services.RealtimeService, collection, monitor.ShouldAttemptNetwork, log))
	}

	return &App{
		services: services,
		ui:       ui,
		workers:  ws,
		closer:   closer,
		logger:   log,
	}, nil
}

// Run blocks until the UI exits or the process is interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.run(ctx)
}

func (a *App) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.workers.Run(ctx)
	}()
	a.logger.Info().Str("func", "App.run").Int("workers", a.workers.Len()).Msg("background workers started")

	err := a.ui.Run(ctx)
	cancel()
	<-done

	if a.closer != nil {
		if closeErr := a.closer.Close(); closeErr != nil {
			a.logger.Err(closeErr).Str("func", "App.run").Msg("failed to close local storage")
		}
	}

	switch {
	case err == nil, errors.Is(err, tui.ErrUserQuit):
		return nil
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		return nil
	default:
		return fmt.Errorf("run ui: %w", err)
	}
}

// startupReplay flushes changes left over from the previous session.
func startupReplay(services *service.ClientServices, log *logger.Logger) workers.Worker {
	return workers.WorkerFunc(func(ctx context.Context) {
		if !services.Monitor.ShouldAttemptNetwork() {
			return
		}
		progress, err := services.SyncService.RetryAll(ctx)
		if err != nil {
			log.Err(err).Str("func", "startupReplay").Msg("startup replay failed")
			return
		}
		log.Info().Str("func", "startupReplay").Int("replayed", progress.Current).Int("total", progress.Total).Msg("startup replay finished")
	})
}
