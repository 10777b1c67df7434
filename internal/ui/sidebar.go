package ui

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/comigor/atelier-go/internal/api"
)

const newSessionLabel = "+ New session"

// Sidebar is the left panel: a "new session" action followed by past
// sessions, newest first.
type Sidebar struct {
	items       []api.SessionSummary
	selectedIdx int
	width       int
	height      int
	focused     bool
	scrollTop   int
}

func NewSidebar() *Sidebar {
	return &Sidebar{}
}

func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

func (s *Sidebar) Width() int { return s.width }

func (s *Sidebar) SetFocused(focused bool) { s.focused = focused }

// SetItems replaces the session listing. The selection is clamped so a
// shrinking list never leaves the cursor dangling.
func (s *Sidebar) SetItems(items []api.SessionSummary) {
	s.items = items
	if s.selectedIdx > len(items) {
		s.selectedIdx = len(items)
	}
}

// rowCount includes the new-session action at index 0.
func (s *Sidebar) rowCount() int { return len(s.items) + 1 }

func (s *Sidebar) MoveUp() {
	if s.selectedIdx > 0 {
		s.selectedIdx--
	}
	s.scrollIntoView()
}

func (s *Sidebar) MoveDown() {
	if s.selectedIdx < s.rowCount()-1 {
		s.selectedIdx++
	}
	s.scrollIntoView()
}

// SelectedSession returns the session under the cursor, or ok=false when the
// new-session action is selected.
func (s *Sidebar) SelectedSession() (api.SessionSummary, bool) {
	if s.selectedIdx == 0 || s.selectedIdx > len(s.items) {
		return api.SessionSummary{}, false
	}
	return s.items[s.selectedIdx-1], true
}

// SelectTop puts the cursor back on the new-session action.
func (s *Sidebar) SelectTop() {
	s.selectedIdx = 0
	s.scrollTop = 0
}

func (s *Sidebar) visibleRows() int {
	rows := s.height - 2
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (s *Sidebar) scrollIntoView() {
	rows := s.visibleRows()
	if s.selectedIdx < s.scrollTop {
		s.scrollTop = s.selectedIdx
	}
	if s.selectedIdx >= s.scrollTop+rows {
		s.scrollTop = s.selectedIdx - rows + 1
	}
}

func (s *Sidebar) View(st Styles) string {
	innerWidth := s.width - 2
	if innerWidth < 1 {
		innerWidth = 1
	}

	var b strings.Builder
	rows := s.visibleRows()
	for row := s.scrollTop; row < s.rowCount() && row < s.scrollTop+rows; row++ {
		label := newSessionLabel
		if row > 0 {
			label = s.items[row-1].Title
			if label == "" {
				label = s.items[row-1].ID
			}
		}
		label = truncate(label, innerWidth-2)

		style := st.SidebarItem
		if row == s.selectedIdx && s.focused {
			style = st.SidebarSelected
		}
		b.WriteString(style.Width(innerWidth).Render(label))
		b.WriteString("\n")
	}

	panel := st.Panel
	if s.focused {
		panel = st.PanelFocused
	}
	return panel.
		Width(innerWidth).
		Height(s.height - 2).
		Render(strings.TrimRight(b.String(), "\n"))
}

func truncate(text string, width int) string {
	if width < 1 {
		return ""
	}
	if lipgloss.Width(text) <= width {
		return text
	}
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width-1]) + "…"
}
