package tui

import (
	"fmt"

	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
)

// syncModel shows one replay pass of the pending queue.
type syncModel struct {
	spinner    spinner.Model
	bar        progress.Model
	collection string
	progress   models.RetryProgress
	updates    <-chan models.RetryProgress
}

func newSyncModel() syncModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	return syncModel{
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (m syncModel) percent() float64 {
	if m.progress.Total == 0 {
		return 0
	}
	return float64(m.progress.Current) / float64(m.progress.Total)
}

func (m syncModel) View() string {
	data := fmt.Sprintf("%s Replaying %s...\n\n%s  %d/%d",
		m.spinner.View(), m.collection, m.bar.ViewAs(m.percent()), m.progress.Current, m.progress.Total)
	return renderPage("SYNC", data, "")
}
