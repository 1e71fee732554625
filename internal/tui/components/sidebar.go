package components

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/d-elbel/curlew/internal/core"
	"github.com/d-elbel/curlew/internal/dragdrop"
	"github.com/d-elbel/curlew/internal/exporter"
	"github.com/d-elbel/curlew/internal/tree"
	"github.com/d-elbel/curlew/internal/tui"
	"github.com/d-elbel/curlew/internal/workspace"
)

// SidebarItemType identifies the type of sidebar row.
type SidebarItemType int

const (
	ItemCollection SidebarItemType = iota
	ItemRequest
	ItemSection
)

// SidebarItem is one visible row in the sidebar.
type SidebarItem struct {
	ID         string
	Label      string
	Type       SidebarItemType
	Level      int
	Expanded   bool
	Collection *core.Collection
	Request    *core.Request
	// ScopeID is the collection the row belongs to (nil for root/uncategorized
	// rows). Used to target reorder drops.
	ScopeID *string
	// ScopeIndex is the row's position among its request siblings.
	ScopeIndex int
}

// SelectRequestMsg is sent when a request is selected.
type SelectRequestMsg struct {
	Request *core.Request
}

// Sidebar displays the collection forest with requests nested under their
// collections and uncategorized requests at the bottom. Space picks an item
// up; enter drops it on the row under the cursor.
type Sidebar struct {
	ws      *workspace.Store
	focused bool
	width   int
	height  int
	cursor  int
	offset  int

	expanded map[string]bool
	items    []SidebarItem
	moving   *SidebarItem
}

// NewSidebar creates the sidebar over the workspace.
func NewSidebar(ws *workspace.Store) *Sidebar {
	s := &Sidebar{
		ws:       ws,
		expanded: make(map[string]bool),
	}
	s.rebuild()
	return s
}

// Init implements tui.Component.
func (s *Sidebar) Init() tea.Cmd { return nil }

// Update handles messages.
func (s *Sidebar) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	case tui.FocusMsg:
		s.focused = true
	case tui.BlurMsg:
		s.focused = false
	case tui.RefreshMsg:
		s.rebuild()
	case tea.KeyMsg:
		if s.focused {
			return s.handleKey(msg)
		}
	}
	return s, nil
}

func (s *Sidebar) handleKey(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if s.cursor < len(s.items)-1 {
			s.cursor++
		}
	case "k", "up":
		if s.cursor > 0 {
			s.cursor--
		}
	case "g":
		s.cursor = 0
	case "G":
		if len(s.items) > 0 {
			s.cursor = len(s.items) - 1
		}
	case " ":
		return s.pickUp()
	case "u":
		return s.dropUncategorized()
	case "esc":
		if s.moving != nil {
			s.moving = nil
			s.ws.DragDrop().Cancel()
			return s, status("move cancelled", false)
		}
	case "enter":
		if s.moving != nil {
			return s.drop()
		}
		return s.selectCurrent()
	case "d":
		return s.deleteCurrent()
	case "c":
		return s.copyAsCurl()
	}
	s.clampScroll()
	return s, nil
}

// pickUp begins a move gesture for the row under the cursor.
func (s *Sidebar) pickUp() (tui.Component, tea.Cmd) {
	item := s.current()
	if item == nil || item.Type == ItemSection {
		return s, nil
	}

	subject := dragdrop.Subject{ID: item.ID}
	switch item.Type {
	case ItemRequest:
		subject.Type = dragdrop.SubjectRequest
		subject.CollectionID = item.Request.CollectionID()
		subject.Position = item.ScopeIndex
	case ItemCollection:
		subject.Type = dragdrop.SubjectCollection
	}

	if err := s.ws.DragDrop().Start(subject); err != nil {
		return s, status(err.Error(), true)
	}
	s.moving = item
	return s, status(fmt.Sprintf("moving %q, enter to drop, u for root, esc to cancel", item.Label), false)
}

// drop completes the move gesture onto the row under the cursor.
func (s *Sidebar) drop() (tui.Component, tea.Cmd) {
	item := s.current()
	if item == nil {
		return s, nil
	}

	var target *dragdrop.Target
	switch item.Type {
	case ItemCollection:
		target = &dragdrop.Target{Type: dragdrop.TargetCollection, ID: item.ID}
	case ItemRequest:
		// Dropping a request on a request means "take its slot".
		target = &dragdrop.Target{
			Type:    dragdrop.TargetReorderSlot,
			ScopeID: item.ScopeID,
			Index:   item.ScopeIndex,
		}
	case ItemSection:
		target = &dragdrop.Target{Type: dragdrop.TargetUncategorized}
	}

	return s.applyDrop(target)
}

func (s *Sidebar) dropUncategorized() (tui.Component, tea.Cmd) {
	if s.moving == nil {
		return s, nil
	}
	return s.applyDrop(&dragdrop.Target{Type: dragdrop.TargetUncategorized})
}

func (s *Sidebar) applyDrop(target *dragdrop.Target) (tui.Component, tea.Cmd) {
	moved := s.moving
	s.moving = nil

	intent, err := s.ws.DragDrop().Drop(context.Background(), target)
	if err != nil {
		return s, status(err.Error(), true)
	}
	s.rebuild()
	if intent == nil {
		return s, status("nothing to move", false)
	}
	return s, tea.Batch(
		status(fmt.Sprintf("moved %q", moved.Label), false),
		refresh(),
	)
}

// selectCurrent toggles a collection open or emits the selected request.
func (s *Sidebar) selectCurrent() (tui.Component, tea.Cmd) {
	item := s.current()
	if item == nil {
		return s, nil
	}

	switch item.Type {
	case ItemCollection:
		s.expanded[item.ID] = !s.expanded[item.ID]
		s.rebuild()
	case ItemRequest:
		request := item.Request
		return s, func() tea.Msg { return SelectRequestMsg{Request: request} }
	}
	return s, nil
}

func (s *Sidebar) deleteCurrent() (tui.Component, tea.Cmd) {
	item := s.current()
	if item == nil {
		return s, nil
	}

	ctx := context.Background()
	var err error
	switch item.Type {
	case ItemRequest:
		err = s.ws.DeleteRequest(ctx, item.ID)
	case ItemCollection:
		err = s.ws.DeleteCollection(ctx, item.ID)
	default:
		return s, nil
	}
	if err != nil {
		return s, status(err.Error(), true)
	}
	s.rebuild()
	return s, tea.Batch(status(fmt.Sprintf("deleted %q", item.Label), false), refresh())
}

// copyAsCurl puts the selected request on the clipboard as a runnable curl
// command, resolved against the active environment.
func (s *Sidebar) copyAsCurl() (tui.Component, tea.Cmd) {
	item := s.current()
	if item == nil || item.Type != ItemRequest {
		return s, nil
	}

	cmd, err := exporter.NewCurlExporter().ExportRequest(item.Request, s.ws.ActiveVariables())
	if err != nil {
		return s, status(err.Error(), true)
	}
	if err := clipboard.WriteAll(cmd); err != nil {
		return s, status("failed to copy to clipboard: "+err.Error(), true)
	}
	return s, status(fmt.Sprintf("copied %q as curl", item.Label), false)
}

// rebuild flattens the workspace forest into visible rows.
func (s *Sidebar) rebuild() {
	s.items = s.items[:0]

	for _, node := range s.ws.Tree() {
		s.appendNode(node, 0)
	}

	uncategorized := s.ws.Uncategorized()
	if len(uncategorized) > 0 {
		s.items = append(s.items, SidebarItem{
			Label: "Uncategorized",
			Type:  ItemSection,
		})
		for i, r := range uncategorized {
			s.items = append(s.items, requestItem(r, 1, nil, i))
		}
	}

	if s.cursor >= len(s.items) {
		s.cursor = len(s.items) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
	s.clampScroll()
}

func (s *Sidebar) appendNode(node *tree.Node, level int) {
	id := node.Collection.ID()
	expanded := s.expanded[id]
	s.items = append(s.items, SidebarItem{
		ID:         id,
		Label:      node.Collection.Name(),
		Type:       ItemCollection,
		Level:      level,
		Expanded:   expanded,
		Collection: node.Collection,
	})

	if !expanded {
		return
	}
	for i, r := range s.ws.RequestsIn(id) {
		scope := id
		s.items = append(s.items, requestItem(r, level+1, &scope, i))
	}
	for _, child := range node.Children {
		s.appendNode(child, level+1)
	}
}

func requestItem(r *core.Request, level int, scopeID *string, index int) SidebarItem {
	return SidebarItem{
		ID:         r.ID(),
		Label:      r.Name(),
		Type:       ItemRequest,
		Level:      level,
		Request:    r,
		ScopeID:    scopeID,
		ScopeIndex: index,
	}
}

func (s *Sidebar) current() *SidebarItem {
	if s.cursor < 0 || s.cursor >= len(s.items) {
		return nil
	}
	return &s.items[s.cursor]
}

func (s *Sidebar) clampScroll() {
	visible := s.visibleRows()
	if visible <= 0 {
		return
	}
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+visible {
		s.offset = s.cursor - visible + 1
	}
}

func (s *Sidebar) visibleRows() int {
	// Title plus border take three rows.
	return s.height - 3
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	var lines []string
	visible := s.visibleRows()

	for i := s.offset; i < len(s.items) && len(lines) < visible; i++ {
		lines = append(lines, s.renderItem(i))
	}

	content := strings.Join(lines, "\n")
	title := tui.RenderTitle("Collections", s.width-2, s.focused)
	return tui.RenderBorder(title+"\n"+content, s.width-2, s.height-2, s.focused)
}

func (s *Sidebar) renderItem(i int) string {
	item := s.items[i]
	indent := strings.Repeat("  ", item.Level)

	var label string
	switch item.Type {
	case ItemCollection:
		marker := "▸"
		if item.Expanded {
			marker = "▾"
		}
		label = fmt.Sprintf("%s%s %s", indent, marker, item.Label)
	case ItemRequest:
		method := methodStyle(item.Request.Method()).Render(string(item.Request.Method()))
		label = fmt.Sprintf("%s%s %s", indent, method, item.Label)
	case ItemSection:
		label = sectionStyle.Render(item.Label)
	}

	label = tui.Truncate(label, s.width-4)
	if i == s.cursor && s.focused {
		return cursorStyle.Render(tui.PadRight(label, s.width-4))
	}
	if s.moving != nil && item.ID == s.moving.ID && item.Type == s.moving.Type {
		return movingStyle.Render(label)
	}
	return label
}

var (
	cursorStyle  = lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("229"))
	movingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Italic(true)
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
)

func methodStyle(m core.Method) lipgloss.Style {
	switch m {
	case core.MethodGet:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	case core.MethodPost:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	case core.MethodPut:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	case core.MethodDelete:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	}
}

// Focused reports focus state.
func (s *Sidebar) Focused() bool { return s.focused }

// Focus gives the sidebar focus.
func (s *Sidebar) Focus() { s.focused = true }

// Blur removes focus.
func (s *Sidebar) Blur() { s.focused = false }

// SetSize sets dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.clampScroll()
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return tui.StatusMsg{Text: text, IsErr: isErr} }
}

func refresh() tea.Cmd {
	return func() tea.Msg { return tui.RefreshMsg{} }
}
