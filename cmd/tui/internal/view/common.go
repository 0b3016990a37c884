package view

import (
	tea "github.com/charmbracelet/bubbletea"
)

// CommonModel carries the terminal size a screen lays itself out in.
type CommonModel struct {
	Width  int
	Height int
}

func (c *CommonModel) SetSize(msg tea.WindowSizeMsg) {
	c.Width = msg.Width
	c.Height = msg.Height
}

// BackMsg returns to the menu.
type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}
