package tui

import (
	"fmt"
	"strings"

	"github.com/MKhiriev/go-offline-sync/models"
)

// listModel is the dashboard: connectivity, the pending queue and the
// records of the selected collection.
type listModel struct {
	idx        int
	refreshing bool
	status     string
}

type dashboard struct {
	state       models.ConnectivityState
	policy      models.RequestPolicy
	collections []string
	current     int
	pending     map[string]int
	records     []models.Record
}

func (d dashboard) collection() string {
	if d.current < 0 || d.current >= len(d.collections) {
		return ""
	}
	return d.collections[d.current]
}

func (d dashboard) totalPending() int {
	total := 0
	for _, n := range d.pending {
		total += n
	}
	return total
}

func (m listModel) View(d dashboard) string {
	var b strings.Builder

	conn := onlineStyle.Render("● online")
	if !d.state.IsConnected {
		conn = offlineStyle.Render("○ offline")
	}
	fmt.Fprintf(&b, "%s  platform: %t  failures: %d  policy: %s\n",
		conn, d.state.PlatformReportsConnected, d.state.ConsecutiveFailures, d.policy)
	b.WriteString(pendingStyle.Render(fmt.Sprintf("pending: %d", d.totalPending())))
	b.WriteString("\n\n")

	if len(d.collections) == 0 {
		b.WriteString("No collections yet\n")
	} else {
		var tabs []string
		for i, c := range d.collections {
			label := fmt.Sprintf("%s (%d)", c, d.pending[c])
			if i == d.current {
				label = selectedStyle.Render("[" + label + "]")
			}
			tabs = append(tabs, label)
		}
		b.WriteString(strings.Join(tabs, "  "))
		b.WriteString("\n\n")

		if len(d.records) == 0 {
			b.WriteString("No records\n")
		}
		for i, rec := range d.records {
			cursor := "  "
			if i == m.idx {
				cursor = "> "
			}
			fmt.Fprintf(&b, "%s%s %s  %s\n", cursor, renderStatus(recordStatus(rec)), fitText(rec.ID, 16), summarize(rec, 60))
		}
	}

	if m.refreshing {
		b.WriteString("\nRefreshing...\n")
	}
	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}

	return renderPage("OFFLINE SYNC", b.String(),
		"←/→ collection  enter open  n new  s sync  r refresh  c check  p policy  v about  q quit")
}
