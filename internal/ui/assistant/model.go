package assistant

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/community-roots/internal/model"
	"github.com/nhle/community-roots/internal/theme"
)

// CloseMsg signals the parent to leave the assistant screen.
type CloseMsg struct{}

// AskMsg carries a question for the assistant.
type AskMsg struct {
	Question string
}

// Model is the assistant chat panel.
type Model struct {
	input     textarea.Model
	viewport  viewport.Model
	renderer  *glamour.TermRenderer
	messages  []model.ChatMessage
	advising  bool
	available bool
	width     int
	height    int
}

// New creates a new assistant panel. When available is false (no API
// key) the panel shows configuration guidance instead of a chat.
func New(available bool, width, height int) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask Rooty about plants, pruning, soil..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetWidth(width - 4)
	ta.SetHeight(3)
	ta.CharLimit = 2000

	vp := viewport.New(width-4, viewportHeight(height))
	vp.Style = lipgloss.NewStyle()

	return Model{
		input:     ta,
		viewport:  vp,
		renderer:  newRenderer(width),
		available: available,
		width:     width,
		height:    height,
	}
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width-8, 20)),
	)
	if err != nil {
		return nil
	}
	return r
}

// Init returns the initial command for the assistant panel.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages for the assistant panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKeyMsg(msg)
	}

	var cmds []tea.Cmd

	var taCmd tea.Cmd
	m.input, taCmd = m.input.Update(msg)
	if taCmd != nil {
		cmds = append(cmds, taCmd)
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	if vpCmd != nil {
		cmds = append(cmds, vpCmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKeyMsg processes keyboard input for the assistant panel.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		return m, func() tea.Msg { return CloseMsg{} }

	case "enter":
		if !m.available || m.advising {
			return m, nil
		}

		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}

		m.input.Reset()
		return m, func() tea.Msg { return AskMsg{Question: text} }

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// SetTranscript replaces the displayed conversation.
func (m *Model) SetTranscript(messages []model.ChatMessage, advising bool) {
	m.messages = messages
	m.advising = advising
	m.refreshViewport()
}

// refreshViewport re-renders the conversation content and scrolls to bottom.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

// renderConversation builds the conversation display string.
func (m Model) renderConversation() string {
	var sections []string

	roleStyle := lipgloss.NewStyle().Bold(true)
	userStyle := roleStyle.Foreground(theme.ColorBlue)
	rootyStyle := roleStyle.Foreground(theme.ColorGreen)
	contentStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	for _, msg := range m.messages {
		switch msg.Role {
		case model.RoleUser:
			sections = append(sections, userStyle.Render("You:"), contentStyle.Render(msg.Text))
		default:
			sections = append(sections, rootyStyle.Render("Rooty:"), m.renderMarkdown(msg.Text))
		}
		sections = append(sections, "")
	}

	if m.advising {
		sections = append(sections, theme.HelpStyle.Render("Rooty is thinking..."))
	}

	return strings.Join(sections, "\n")
}

func (m Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// View renders the assistant panel.
func (m Model) View() string {
	if !m.available {
		return m.renderNoAPIKey()
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Rooty, your gardening assistant")

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(
		strings.Repeat("─", max(min(m.width-6, 80), 0)),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		m.viewport.View(),
		separator,
		m.input.View(),
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// renderNoAPIKey shows a message when the API key is not configured.
func (m Model) renderNoAPIKey() string {
	style := lipgloss.NewStyle().
		Width(m.width - 8).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	msg := "Rooty needs a Gemini API key.\n\n" +
		"Set the GEMINI_API_KEY environment variable, or store it in the\n" +
		"system keyring with:\n" +
		"  roots key set\n\n" +
		"Press Esc to go back."

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(max(m.height-4, 0)).
		Render(style.Render(msg))
}

// SetSize updates the assistant panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width - 4)
	m.viewport.Width = width - 4
	m.viewport.Height = viewportHeight(height)
	m.renderer = newRenderer(width)
	m.refreshViewport()
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

func viewportHeight(height int) int {
	return max(height-10, 4)
}
