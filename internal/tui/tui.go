// Package tui is the terminal dashboard of the sync client: connectivity,
// the pending-change queue and the local records of each collection.
package tui

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
	tea "github.com/charmbracelet/bubbletea"
)

type connectivityMonitor interface {
	CheckConnectivity(ctx context.Context) bool
	State() models.ConnectivityState
	Subscribe() (<-chan bool, func())
}

type deps struct {
	monitor     connectivityMonitor
	records     service.ClientRecordService
	sync        service.ClientSyncService
	policy      models.RequestPolicy
	collections []string
}

type TUI struct {
	deps      deps
	buildInfo models.AppBuildInfo
	logger    *logger.Logger
}

// New builds the dashboard. collections are shown first, in order;
// collections found in the local store are appended.
func New(services *service.ClientServices, buildInfo models.AppBuildInfo, collections []string, policy models.RequestPolicy, log *logger.Logger) *TUI {
	return &TUI{
		deps: deps{
			monitor:     services.Monitor,
			records:     services.RecordService,
			sync:        services.SyncService,
			policy:      policy,
			collections: collections,
		},
		buildInfo: buildInfo,
		logger:    log,
	}
}

// Run blocks until the user quits or ctx is done. Quitting with Ctrl+C
// returns ErrUserQuit.
func (t *TUI) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	connUpdates, unsubscribe := t.deps.monitor.Subscribe()
	defer unsubscribe()

	recordUpdates, err := t.deps.records.Watch(ctx, store.RecordFilter{IncludeDeleted: true})
	if err != nil {
		t.logger.Err(err).Str("func", "TUI.Run").Msg("failed to watch local records")
		return fmt.Errorf("watch local records: %w", err)
	}

	root := NewRootModel(newAppModel(ctx, t.deps, connUpdates, recordUpdates), t.buildInfo)
	finalModel, err := tea.NewProgram(root, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(RootModel)
	if !ok {
		return tea.ErrProgramKilled
	}
	if result.quitByUser {
		return ErrUserQuit
	}
	return nil
}
