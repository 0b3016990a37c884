package view

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// View is a screen the root model can switch to.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))

// Frame renders a screen with its title above and its key help below.
func Frame(v View) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingLeft(1).Render(titleStyle.Render(v.Title())),
		v.View(),
		lipgloss.NewStyle().PaddingLeft(1).Render(faintStyle.Render(v.ShortHelp())),
	)
}
