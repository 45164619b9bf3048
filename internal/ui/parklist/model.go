package parklist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/community-roots/internal/keys"
	"github.com/nhle/community-roots/internal/model"
	"github.com/nhle/community-roots/internal/theme"
)

// SelectedParkMsg is sent when a user opens a park.
type SelectedParkMsg struct {
	ParkID string
}

// SearchMsg asks for parks near a typed place.
type SearchMsg struct {
	Query string
}

// SearchNearMsg asks for parks near the user's position.
type SearchNearMsg struct{}

// Model is the home screen: discovered parks plus the discovery search bar.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	searchMode  bool
	searchInput textinput.Model
	query       string
	searching   bool
	searchErr   string
	width       int
	height      int
}

// New creates a new park list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ParkDelegate{}, width, listHeight(height))
	l.Title = "Parks"
	l.SetShowStatusBar(true)
	l.SetStatusBarItemName("park", "parks")
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "neighborhood, city or address..."
	si.Prompt = "Find parks near: "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns no initial command; parks are pushed in by SetParks.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the park list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	if m.searchMode {
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while the search bar is focused.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		query := m.searchInput.Value()
		return m, func() tea.Msg {
			return SearchMsg{Query: query}
		}

	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.SetValue(m.query)
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(ParkItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedParkMsg{ParkID: item.Park.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.query)
		m.searchInput.CursorEnd()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.NearMe):
		return m, func() tea.Msg {
			return SearchNearMsg{}
		}
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// SetParks replaces the listed parks, keeping the cursor where possible.
func (m *Model) SetParks(parks []model.Park) {
	items := make([]list.Item, len(parks))
	for i, p := range parks {
		items[i] = ParkItem{Park: p}
	}
	m.list.SetItems(items)
}

// SetSearch mirrors the discovery state. The typed query is left alone
// while the search bar is being edited.
func (m *Model) SetSearch(query string, searching bool, errText string) {
	m.query = query
	m.searching = searching
	m.searchErr = errText
	if !m.searchMode {
		m.searchInput.SetValue(query)
	}
}

// Capturing reports whether the search bar owns the keyboard.
func (m Model) Capturing() bool {
	return m.searchMode
}

// SelectedPark returns the park under the cursor.
func (m Model) SelectedPark() (model.Park, bool) {
	item, ok := m.list.SelectedItem().(ParkItem)
	if !ok {
		return model.Park{}, false
	}
	return item.Park, true
}

// View renders the park list view.
func (m Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, m.renderSearchBar(), m.renderBody())
}

func (m Model) renderSearchBar() string {
	bar := lipgloss.NewStyle().Padding(0, 1)

	if m.searchMode {
		return bar.Foreground(theme.ColorWhite).Render(m.searchInput.View())
	}

	var line string
	switch {
	case m.searching:
		line = theme.HelpStyle.Render("Searching for parks...")
	case m.searchErr != "":
		line = theme.ErrorStyle.Render(m.searchErr)
	case m.query != "":
		line = theme.MutedStyle.Render("Near " + m.query + "  (/ to search, L for your location)")
	default:
		line = theme.MutedStyle.Render("Press / to find parks, L to use your location")
	}
	return bar.Render(line)
}

func (m Model) renderBody() string {
	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(listHeight(m.height)).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No parks yet.\n\nSearch for a neighborhood to get started.")
	}
	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, listHeight(height))
	m.searchInput.Width = width - 4
}

func listHeight(height int) int {
	if height < 3 {
		return 1
	}
	return height - 2
}
