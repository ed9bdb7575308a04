package tui

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/MKhiriev/go-offline-sync/models"
)

const uiDivider = "──────────────────────────────────────────────────────"

func renderPage(title, data, hotKeys string) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString("  ")
	b.WriteString(uiDivider)
	b.WriteString("\n\n")

	if strings.TrimSpace(data) != "" {
		lines := strings.Split(data, "\n")
		for _, line := range lines {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	} else {
		b.WriteString("  -\n")
	}

	b.WriteString("\n")
	b.WriteString("  ")
	b.WriteString(uiDivider)
	b.WriteString("\n")

	if strings.TrimSpace(hotKeys) != "" {
		b.WriteString("  ")
		b.WriteString(helpStyle.Render(hotKeys))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("  ctrl+c: quit"))

	return b.String()
}

func valueOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func fitText(v string, max int) string {
	if max <= 0 || len(v) <= max {
		return v
	}
	if max <= 3 {
		return v[:max]
	}
	return v[:max-3] + "..."
}

// formatValue renders a record field the way it travels on the wire.
func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}

// sortedFields returns the user fields of data without the id.
func sortedFields(data map[string]any) []string {
	fields := slices.Sorted(maps.Keys(data))
	return slices.DeleteFunc(fields, func(f string) bool { return f == "id" })
}

func summarize(rec models.Record, max int) string {
	var parts []string
	for _, field := range sortedFields(rec.Data) {
		parts = append(parts, field+"="+formatValue(rec.Data[field]))
	}
	return fitText(strings.Join(parts, "  "), max)
}

func recordStatus(rec models.Record) string {
	switch {
	case rec.NoSync:
		return "local"
	case rec.Deleted:
		return "deleting"
	case !rec.Synced && rec.IsNew:
		return "new"
	case !rec.Synced:
		return "pending"
	default:
		return "synced"
	}
}
