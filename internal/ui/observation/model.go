package observation

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/community-roots/internal/model"
	"github.com/nhle/community-roots/internal/theme"
)

// SubmittedMsg is dispatched when the user submits an observation.
type SubmittedMsg struct {
	ParkID string
	Text   string
}

// CancelMsg is dispatched when the user abandons the form. Text carries
// the draft so it can be kept for later.
type CancelMsg struct {
	ParkID string
	Text   string
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	observation string
}

// Model is the form used to describe what the user saw at a park.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	parkID   string
	parkName string
	width    int
	height   int
}

// New creates a new observation form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form for a park, prefilled with any draft.
func (m *Model) Start(park model.Park, draft string) tea.Cmd {
	m.parkID = park.ID
	m.parkName = park.Name
	m.fb.observation = draft
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the observation form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		return m, m.handleSubmit()
	case huh.StateAborted:
		m.form = nil
		parkID, text := m.parkID, m.fb.observation
		return m, func() tea.Msg { return CancelMsg{ParkID: parkID, Text: text} }
	}

	return m, cmd
}

// View renders the observation form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite)
	hint := theme.HelpStyle.Render(
		"Describe what needs attention and Rooty will suggest tasks.",
	)

	content := titleStyle.Render("What did you notice at "+m.parkName+"?") +
		"\n" + hint + "\n\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))

	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Observation").
				Placeholder("e.g. Fallen branches near the playground, weeds in the rose beds").
				CharLimit(1000).
				Value(&m.fb.observation).
				Validate(validateRequired("Observation")),
		),
	).
		WithKeyMap(km).
		WithShowHelp(true).
		WithWidth(m.formWidth()).
		WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	msg := SubmittedMsg{ParkID: m.parkID, Text: strings.TrimSpace(m.fb.observation)}
	return func() tea.Msg { return msg }
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-6, 8)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
