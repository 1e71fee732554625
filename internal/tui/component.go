// Package tui holds the shared component contract and styling helpers for the
// terminal interface.
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Component is the interface for all TUI components.
type Component interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Component, tea.Cmd)
	View() string
	Focused() bool
	Focus()
	Blur()
	SetSize(width, height int)
}

// FocusMsg is sent when a component should gain focus.
type FocusMsg struct{}

// BlurMsg is sent when a component should lose focus.
type BlurMsg struct{}

// RefreshMsg is sent to refresh component data from the workspace.
type RefreshMsg struct{}

// StatusMsg carries a transient message for the status bar.
type StatusMsg struct {
	Text  string
	IsErr bool
}

// RenderTitle renders a title bar.
func RenderTitle(title string, width int, focused bool) string {
	style := lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Bold(true)

	if focused {
		style = style.Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("62"))
	} else {
		style = style.Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("238"))
	}

	return style.Render(title)
}

// RenderBorder renders content with a border.
func RenderBorder(content string, width, height int, focused bool) string {
	style := lipgloss.NewStyle().
		Width(width).
		Height(height).
		BorderStyle(lipgloss.RoundedBorder())

	if focused {
		style = style.BorderForeground(lipgloss.Color("62"))
	} else {
		style = style.BorderForeground(lipgloss.Color("240"))
	}

	return style.Render(content)
}

// Truncate truncates a string to fit within a width.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}

// PadRight pads a string to a given width.
func PadRight(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}
