package status

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	header    lipgloss.Style
	kind      lipgloss.Style
	detail    lipgloss.Style
	label     lipgloss.Style
	loggedIn  lipgloss.Style
	loggedOut lipgloss.Style
	warning   lipgloss.Style
	section   lipgloss.Style
	empty     lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		header:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		kind:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		label:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		loggedIn:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114")),
		loggedOut: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		warning:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:   lipgloss.NewStyle().MarginTop(1),
		empty:     lipgloss.NewStyle().Faint(true),
	}
}
