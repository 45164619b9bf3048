package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/community-roots/internal/keys"
	"github.com/nhle/community-roots/internal/ledger"
	"github.com/nhle/community-roots/internal/theme"
)

// CloseMsg signals the parent to leave the history screen.
type CloseMsg struct{}

const barWidth = 20

// Model shows the points total, root depth and the ledger entries, most
// recent first.
type Model struct {
	ledger   ledger.Ledger
	viewport viewport.Model
	keys     *keys.KeyMap
	now      func() time.Time
	width    int
	height   int
}

// New creates a history view. now anchors the relative entry dates.
func New(k *keys.KeyMap, now func() time.Time, width, height int) Model {
	if now == nil {
		now = time.Now
	}
	vp := viewport.New(width-4, max(height-headerLines, 1))
	vp.Style = lipgloss.NewStyle()
	return Model{
		viewport: vp,
		keys:     k,
		now:      now,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the history view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the history view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		return m, func() tea.Msg { return CloseMsg{} }
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// SetLedger replaces the displayed ledger.
func (m *Model) SetLedger(l ledger.Ledger) {
	m.ledger = l
	m.viewport.SetContent(m.renderEntries())
}

const headerLines = 7

func (m Model) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	labelStyle := theme.MutedStyle.Bold(true)

	total := m.ledger.Total()
	progress := m.ledger.Progress()
	filled := progress * barWidth / ledger.PointsPerLevel

	bar := lipgloss.NewStyle().Foreground(theme.ColorGreen).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(theme.ColorSubtle).Render(strings.Repeat("░", barWidth-filled))

	lines := []string{
		titleStyle.Render("Impact History"),
		theme.HelpStyle.Render("Keep growing your roots!"),
		"",
		fmt.Sprintf("%s %s    %s %s",
			labelStyle.Render("TOTAL POINTS"), theme.PointsStyle.Render(humanize.Comma(int64(total))),
			labelStyle.Render("ROOT DEPTH"), theme.PointsStyle.Render(fmt.Sprintf("%dm", m.ledger.Level())),
		),
		fmt.Sprintf("%s %d/%d to the next metre", bar, progress, ledger.PointsPerLevel),
		"",
		labelStyle.Render("RECENT ACTIVITY"),
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderEntries() string {
	entries := m.ledger.History()
	if len(entries) == 0 {
		return theme.HelpStyle.Render("No activity yet.")
	}

	now := m.now()
	var rows []string
	for _, e := range entries {
		when := humanize.RelTime(e.Date, now, "ago", "from now")
		rows = append(rows, fmt.Sprintf(
			"%s  %s %s",
			theme.PointsStyle.Render(fmt.Sprintf("%+5d", e.Points)),
			e.Action,
			theme.MutedStyle.Render("· "+when),
		))
	}
	return strings.Join(rows, "\n")
}

// View renders the history view.
func (m Model) View() string {
	return lipgloss.NewStyle().Padding(0, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.viewport.View()),
	)
}

// SetSize updates the history view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width - 4
	m.viewport.Height = max(height-headerLines, 1)
}
