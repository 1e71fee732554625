// Package views assembles the top-level terminal layout.
package views

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/d-elbel/curlew/internal/core"
	"github.com/d-elbel/curlew/internal/tui"
	"github.com/d-elbel/curlew/internal/tui/components"
	"github.com/d-elbel/curlew/internal/workspace"
)

// MainView is the root bubbletea model: sidebar on the left, response panel
// on the right, status bar at the bottom.
type MainView struct {
	ws       *workspace.Store
	sidebar  tui.Component
	response tui.Component

	width    int
	height   int
	focusIdx int

	selected *core.Request
	statusOK string
	statusNG string
}

// NewMainView creates the root view over a loaded workspace.
func NewMainView(ws *workspace.Store) *MainView {
	sidebar := components.NewSidebar(ws)
	sidebar.Focus()
	return &MainView{
		ws:       ws,
		sidebar:  sidebar,
		response: components.NewResponsePanel(),
	}
}

// Init implements tea.Model.
func (v *MainView) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (v *MainView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.resize()
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if !v.sidebarFocused() || v.statusNG == "" {
				return v, tea.Quit
			}
		case "tab":
			v.cycleFocus()
			return v, nil
		case "x":
			return v, v.execute()
		case "e":
			return v, v.cycleEnvironment()
		}

	case components.SelectRequestMsg:
		v.selected = msg.Request
		v.ws.HydrateRequest(msg.Request.ID())
		v.statusOK = fmt.Sprintf("selected %q, x to execute", msg.Request.Name())
		v.statusNG = ""
		return v, nil

	case tui.StatusMsg:
		if msg.IsErr {
			v.statusNG = msg.Text
			v.statusOK = ""
		} else {
			v.statusOK = msg.Text
			v.statusNG = ""
		}
		return v, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	v.sidebar, cmd = v.sidebar.Update(msg)
	cmds = append(cmds, cmd)
	v.response, cmd = v.response.Update(msg)
	cmds = append(cmds, cmd)
	return v, tea.Batch(cmds...)
}

func (v *MainView) execute() tea.Cmd {
	if v.selected == nil {
		return statusCmd("no request selected", true)
	}
	id := v.selected.ID()
	return func() tea.Msg {
		result, err := v.ws.Execute(context.Background(), id)
		if err != nil {
			return tui.StatusMsg{Text: fmt.Sprintf("execute failed: %v", err), IsErr: true}
		}
		return components.ShowResponseMsg{Result: result}
	}
}

// cycleEnvironment steps through the loaded environments, wrapping back to
// "no environment" after the last one.
func (v *MainView) cycleEnvironment() tea.Cmd {
	envs := v.ws.Environments()
	if len(envs) == 0 {
		return statusCmd("no environments loaded", false)
	}

	active := v.ws.ActiveEnvironment()
	next := ""
	if active == "" {
		next = envs[0].Name()
	} else {
		for i, env := range envs {
			if env.Name() == active && i+1 < len(envs) {
				next = envs[i+1].Name()
				break
			}
		}
	}

	if err := v.ws.SetActiveEnvironment(next); err != nil {
		return statusCmd(err.Error(), true)
	}
	if next == "" {
		return statusCmd("environment deactivated", false)
	}
	return statusCmd(fmt.Sprintf("environment: %s", next), false)
}

func (v *MainView) cycleFocus() {
	panels := []tui.Component{v.sidebar, v.response}
	panels[v.focusIdx].Blur()
	v.focusIdx = (v.focusIdx + 1) % len(panels)
	panels[v.focusIdx].Focus()
}

func (v *MainView) sidebarFocused() bool {
	return v.focusIdx == 0
}

func (v *MainView) resize() {
	sidebarWidth := v.width / 3
	if sidebarWidth < 24 {
		sidebarWidth = 24
	}
	panelHeight := v.height - 1
	v.sidebar.SetSize(sidebarWidth, panelHeight)
	v.response.SetSize(v.width-sidebarWidth, panelHeight)
}

// View renders the layout.
func (v *MainView) View() string {
	panels := lipgloss.JoinHorizontal(lipgloss.Top, v.sidebar.View(), v.response.View())
	return lipgloss.JoinVertical(lipgloss.Left, panels, v.statusBar())
}

func (v *MainView) statusBar() string {
	text := v.statusOK
	style := statusBarStyle
	if v.statusNG != "" {
		text = v.statusNG
		style = statusErrStyle
	}
	if text == "" {
		env := v.ws.ActiveEnvironment()
		if env == "" {
			env = "none"
		}
		text = fmt.Sprintf("env: %s · tab focus · space move · x execute · q quit", env)
	}
	return style.Width(v.width).Render(tui.Truncate(text, v.width))
}

var (
	statusBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236"))
	statusErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("124"))
)

func statusCmd(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return tui.StatusMsg{Text: text, IsErr: isErr} }
}
