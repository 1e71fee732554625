package components

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/d-elbel/curlew/internal/classify"
	"github.com/d-elbel/curlew/internal/tui"
	"github.com/d-elbel/curlew/internal/workspace"
)

// ShowResponseMsg carries an execution result to the response panel.
type ShowResponseMsg struct {
	Result *workspace.ExecutionResult
}

// ResponsePanel renders the formatted response body with scrolling and
// clipboard copy.
type ResponsePanel struct {
	focused bool
	width   int
	height  int
	offset  int

	result      *workspace.ExecutionResult
	lines       []string
	highlighter *JSONHighlighter
}

// NewResponsePanel creates an empty response panel.
func NewResponsePanel() *ResponsePanel {
	return &ResponsePanel{
		highlighter: NewJSONHighlighter(),
	}
}

// Init implements tui.Component.
func (p *ResponsePanel) Init() tea.Cmd { return nil }

// Update handles messages.
func (p *ResponsePanel) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
	case tui.FocusMsg:
		p.focused = true
	case tui.BlurMsg:
		p.focused = false
	case ShowResponseMsg:
		p.setResult(msg.Result)
	case tea.KeyMsg:
		if p.focused {
			return p.handleKey(msg)
		}
	}
	return p, nil
}

func (p *ResponsePanel) handleKey(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if p.offset < p.maxOffset() {
			p.offset++
		}
	case "k", "up":
		if p.offset > 0 {
			p.offset--
		}
	case "g":
		p.offset = 0
	case "G":
		p.offset = p.maxOffset()
	case "ctrl+d":
		p.offset = min(p.offset+p.visibleRows()/2, p.maxOffset())
	case "ctrl+u":
		p.offset = max(p.offset-p.visibleRows()/2, 0)
	case "y":
		return p.copyBody()
	}
	return p, nil
}

func (p *ResponsePanel) copyBody() (tui.Component, tea.Cmd) {
	if p.result == nil {
		return p, nil
	}
	if err := clipboard.WriteAll(p.result.FormattedBody); err != nil {
		return p, status(fmt.Sprintf("copy failed: %v", err), true)
	}
	return p, status("response copied to clipboard", false)
}

func (p *ResponsePanel) setResult(result *workspace.ExecutionResult) {
	p.result = result
	p.offset = 0
	p.lines = nil
	if result == nil {
		return
	}

	body := result.FormattedBody
	if result.Kind == classify.KindJSON {
		p.lines = p.highlighter.HighlightLines(body)
	} else {
		p.lines = strings.Split(body, "\n")
	}
}

// View renders the panel.
func (p *ResponsePanel) View() string {
	title := tui.RenderTitle(p.titleText(), p.width-2, p.focused)

	var lines []string
	visible := p.visibleRows()
	for i := p.offset; i < len(p.lines) && len(lines) < visible; i++ {
		lines = append(lines, tui.Truncate(p.lines[i], p.width-4))
	}
	if p.result == nil {
		lines = []string{emptyStyle.Render("No response yet. Press enter on a request, then x to execute.")}
	}

	content := strings.Join(lines, "\n")
	return tui.RenderBorder(title+"\n"+content, p.width-2, p.height-2, p.focused)
}

func (p *ResponsePanel) titleText() string {
	if p.result == nil {
		return "Response"
	}
	resp := p.result.Response
	return fmt.Sprintf("Response · %d · %dms · %s", resp.StatusCode(), resp.RuntimeMS(), p.result.Kind.Upper())
}

func (p *ResponsePanel) visibleRows() int {
	return p.height - 3
}

func (p *ResponsePanel) maxOffset() int {
	m := len(p.lines) - p.visibleRows()
	if m < 0 {
		return 0
	}
	return m
}

// Focused reports focus state.
func (p *ResponsePanel) Focused() bool { return p.focused }

// Focus gives the panel focus.
func (p *ResponsePanel) Focus() { p.focused = true }

// Blur removes focus.
func (p *ResponsePanel) Blur() { p.focused = false }

// SetSize sets dimensions.
func (p *ResponsePanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

var emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
