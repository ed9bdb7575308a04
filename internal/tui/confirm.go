package tui

import "github.com/MKhiriev/go-offline-sync/models"

// confirmModel asks before a delete. Records that never reached the server
// are removed locally only, so the prompt says so.
type confirmModel struct {
	record models.Record
}

func (m confirmModel) View() string {
	content := "Delete " + m.record.Collection + "/" + m.record.ID + "?"
	if m.record.IsNew && !m.record.Synced {
		content += "\n" + helpStyle.Render("never synced: only the local copy is removed")
	}
	content += "\n\ny yes    n no"
	return overlayBoxStyle.Render(content)
}
