package tui

import "github.com/charmbracelet/lipgloss"

// Colors are ANSI palette indices so the dashboard follows the terminal
// theme instead of forcing its own.
const (
	colorRed    = lipgloss.Color("1")
	colorGreen  = lipgloss.Color("2")
	colorYellow = lipgloss.Color("3")
	colorBlue   = lipgloss.Color("4")
	colorGray   = lipgloss.Color("8")
)

const statusColumnWidth = 8

var (
	appStyle        = lipgloss.NewStyle().Padding(1, 2)
	titleStyle      = lipgloss.NewStyle().Bold(true).Underline(true)
	helpStyle       = lipgloss.NewStyle().Foreground(colorGray)
	errorStyle      = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	overlayBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBlue).Padding(1, 2)

	onlineStyle   = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	offlineStyle  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	pendingStyle  = lipgloss.NewStyle().Foreground(colorYellow)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
)

// statusStyles colors the per-record sync state shown in the list.
var statusStyles = map[string]lipgloss.Style{
	"synced":   lipgloss.NewStyle().Foreground(colorGreen),
	"pending":  pendingStyle,
	"new":      pendingStyle.Bold(true),
	"deleting": lipgloss.NewStyle().Foreground(colorRed),
	"local":    lipgloss.NewStyle().Foreground(colorGray),
}

func renderStatus(status string) string {
	style, ok := statusStyles[status]
	if !ok {
		style = lipgloss.NewStyle()
	}
	return style.Width(statusColumnWidth).Render(status)
}
