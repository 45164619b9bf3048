package parkdetail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize/english"

	"github.com/nhle/community-roots/internal/keys"
	"github.com/nhle/community-roots/internal/model"
	"github.com/nhle/community-roots/internal/theme"
)

// BackMsg signals the parent to navigate back to the park list.
type BackMsg struct{}

// VolunteerMsg toggles the player's sign-up on a task.
type VolunteerMsg struct {
	ParkID string
	TaskID string
}

// CompleteMsg marks a task completed.
type CompleteMsg struct {
	ParkID string
	TaskID string
}

// DeleteMsg removes a task.
type DeleteMsg struct {
	ParkID string
	TaskID string
}

// ObserveMsg asks for the observation form for a park.
type ObserveMsg struct {
	ParkID string
}

// Model is the park detail view: park info plus its open and completed
// tasks with a task cursor.
type Model struct {
	park       model.Park
	hasPark    bool
	player     string
	generating bool
	cursor     int
	cursorID   string
	viewport   viewport.Model
	keys       *keys.KeyMap
	width      int
	height     int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle()
	vp.KeyMap.Up.SetEnabled(false)
	vp.KeyMap.Down.SetEnabled(false)

	return Model{
		viewport: vp,
		keys:     k,
		player:   model.DefaultPlayerName,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && m.hasPark {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Down):
			m.moveCursor(1)
			return m, nil

		case key.Matches(msg, m.keys.Up):
			m.moveCursor(-1)
			return m, nil

		case key.Matches(msg, m.keys.Observe):
			parkID := m.park.ID
			return m, func() tea.Msg { return ObserveMsg{ParkID: parkID} }

		case key.Matches(msg, m.keys.Volunteer):
			if t, ok := m.SelectedTask(); ok && !t.IsCompleted() {
				ids := VolunteerMsg{ParkID: m.park.ID, TaskID: t.ID}
				return m, func() tea.Msg { return ids }
			}
			return m, nil

		case key.Matches(msg, m.keys.Complete):
			if t, ok := m.SelectedTask(); ok && !t.IsCompleted() {
				ids := CompleteMsg{ParkID: m.park.ID, TaskID: t.ID}
				return m, func() tea.Msg { return ids }
			}
			return m, nil

		case key.Matches(msg, m.keys.Delete):
			if t, ok := m.SelectedTask(); ok {
				ids := DeleteMsg{ParkID: m.park.ID, TaskID: t.ID}
				return m, func() tea.Msg { return ids }
			}
			return m, nil
		}
	}

	// Delegate to viewport for paging (pgup/pgdn, mouse wheel)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// SetPark updates the park being displayed. The cursor follows the task it
// was on, even when that task moves to the completed section.
func (m *Model) SetPark(p model.Park, ok bool, player string, generating bool) {
	if !ok || p.ID != m.park.ID {
		m.cursor = 0
		m.cursorID = ""
	}
	m.park = p
	m.hasPark = ok
	m.player = player
	m.generating = generating

	rows := m.rows()
	if m.cursorID != "" {
		for i, t := range rows {
			if t.ID == m.cursorID {
				m.cursor = i
				break
			}
		}
	}
	if m.cursor >= len(rows) {
		m.cursor = len(rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.cursorID = ""
	if len(rows) > 0 {
		m.cursorID = rows[m.cursor].ID
	}
	m.refresh()
}

// SelectedTask returns the task under the cursor.
func (m Model) SelectedTask() (model.Task, bool) {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return model.Task{}, false
	}
	return rows[m.cursor], true
}

// rows lists tasks in display order: open first, then completed.
func (m Model) rows() []model.Task {
	return append(m.park.OpenTasks(), m.park.CompletedTasks()...)
}

func (m *Model) moveCursor(delta int) {
	rows := m.rows()
	if len(rows) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(rows)-1)
	m.cursorID = rows[m.cursor].ID
	m.refresh()
}

// refresh re-renders the content and scrolls the cursor into view.
func (m *Model) refresh() {
	content, cursorLine := m.renderContent()
	m.viewport.SetContent(content)
	if cursorLine < 0 {
		return
	}
	if cursorLine < m.viewport.YOffset {
		m.viewport.SetYOffset(cursorLine)
	} else if cursorLine >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(cursorLine - m.viewport.Height + 1)
	}
}

// View renders the detail view.
func (m Model) View() string {
	if !m.hasPark {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No park selected")
	}
	return m.viewport.View()
}

// renderContent builds the detail content and reports the line the cursor
// is on, or -1 when there are no tasks.
func (m Model) renderContent() (string, int) {
	if !m.hasPark {
		return "", -1
	}

	p := m.park
	textWidth := min(max(m.width-4, 20), 100)
	wrap := lipgloss.NewStyle().Width(textWidth)

	var lines []string
	add := func(s string) {
		lines = append(lines, strings.Split(s, "\n")...)
	}

	add(lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(p.Name))
	add(theme.MutedStyle.Render(p.Location))
	if c, ok := p.Coordinates(); ok {
		add(theme.MutedStyle.Render(fmt.Sprintf("%.4f, %.4f", c.Lat, c.Lng)))
	}
	if p.MapURL != "" {
		add(theme.MutedStyle.Render("Map: ") + p.MapURL)
	}
	add("")
	if p.Description != "" {
		add(wrap.Render(p.Description))
		add("")
	}

	if m.generating {
		add(theme.HelpStyle.Render("Rooty is suggesting tasks..."))
		add("")
	}

	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	open := p.OpenTasks()
	done := p.CompletedTasks()

	cursorLine := -1
	row := 0
	renderRows := func(tasks []model.Task) {
		for _, t := range tasks {
			if row == m.cursor {
				cursorLine = len(lines)
			}
			add(m.renderTask(t, row == m.cursor, textWidth))
			row++
		}
	}

	add(sectionStyle.Render(fmt.Sprintf("Open tasks (%d)", len(open))))
	if len(open) == 0 {
		add(theme.HelpStyle.Render("  Nothing to do. Press o to describe what you see and get suggestions."))
	}
	renderRows(open)

	if len(done) > 0 {
		add("")
		add(sectionStyle.Render(fmt.Sprintf("Completed (%d)", len(done))))
		renderRows(done)
	}

	return strings.Join(lines, "\n"), cursorLine
}

func (m Model) renderTask(t model.Task, selected bool, width int) string {
	prefix := "○"
	if t.IsCompleted() {
		prefix = "✓"
	}

	title := t.Title
	if t.IsCompleted() {
		title = theme.DimmedStyle.Render(title)
	}

	volunteers := english.Plural(len(t.Volunteers), "volunteer", "")
	if t.HasVolunteer(m.player) {
		volunteers += " (incl. you)"
	}

	head := fmt.Sprintf(
		"%s %s %s %s",
		prefix,
		theme.UrgencyStyle(t.Urgency).Render(string(t.Urgency)),
		theme.StatusStyle(t.Status).Render(string(t.Status)),
		title,
	)
	meta := theme.MutedStyle.Render(fmt.Sprintf("  %s · %s", volunteers, t.Date))

	block := []string{head}
	if t.Description != "" && !t.IsCompleted() {
		block = append(block, lipgloss.NewStyle().Width(width-4).PaddingLeft(2).Render(t.Description))
	}
	block = append(block, meta)
	out := strings.Join(block, "\n")

	if selected {
		return theme.SelectedItemStyle.Render(out)
	}
	return theme.ListItemStyle.Render(out)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.refresh()
}
