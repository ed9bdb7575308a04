package tui

import (
	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// RootModel wraps the dashboard:
// 1) handles global Ctrl+C quit
// 2) toggles the build info window
// 3) delegates all other messages to the dashboard
type RootModel struct {
	app       appModel
	buildInfo models.AppBuildInfo

	quitByUser    bool
	showBuildInfo bool
}

func NewRootModel(app appModel, buildInfo models.AppBuildInfo) RootModel {
	return RootModel{app: app, buildInfo: buildInfo}
}

func (r RootModel) Init() tea.Cmd {
	return r.app.Init()
}

func (r RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case keyMsg.String() == "ctrl+c":
			r.quitByUser = true
			return r, tea.Quit
		case key.Matches(keyMsg, keys.buildInfo) && r.onDashboard():
			r.showBuildInfo = !r.showBuildInfo
			return r, nil
		case key.Matches(keyMsg, keys.esc) && r.showBuildInfo:
			r.showBuildInfo = false
			return r, nil
		}

		if r.showBuildInfo {
			return r, nil
		}
	}

	updated, cmd := r.app.Update(msg)
	r.app = updated.(appModel)
	return r, cmd
}

func (r RootModel) View() string {
	if r.showBuildInfo {
		return appStyle.Render(renderBuildInfoWindow(r.buildInfo))
	}
	return r.app.View()
}

// onDashboard reports whether the dashboard list is showing with no
// overlay, where plain letter keys are not typed into a form.
func (r RootModel) onDashboard() bool {
	return r.app.currentScreen == screenList && !r.app.showError && !r.app.showConfirm
}
