package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
)

type detailModel struct {
	item models.Record
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func (m detailModel) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, "ID:         %s\n", m.item.ID)
	fmt.Fprintf(&b, "Collection: %s\n", m.item.Collection)
	fmt.Fprintf(&b, "Status:     %s\n", recordStatus(m.item))
	fmt.Fprintf(&b, "Created:    %s\n", formatTime(m.item.Created))
	fmt.Fprintf(&b, "Updated:    %s\n\n", formatTime(m.item.Updated))

	fields := sortedFields(m.item.Data)
	if len(fields) == 0 {
		b.WriteString("(no fields)\n")
	}
	for _, field := range fields {
		fmt.Fprintf(&b, "%s: %s\n", field, valueOrDash(formatValue(m.item.Data[field])))
	}

	return renderPage(strings.ToUpper(m.item.Collection), b.String(), "e edit  d delete  esc back")
}
