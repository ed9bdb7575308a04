package tui

// errorOverlayModel shows a failed action until it is dismissed.
type errorOverlayModel struct {
	message string
}

func (m errorOverlayModel) View() string {
	return overlayBoxStyle.Render(
		errorStyle.Render("Something went wrong") + "\n\n" +
			m.message + "\n\n" +
			helpStyle.Render("enter / esc close"),
	)
}
