package assistant

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/community-roots/internal/model"
)

func typeText(m Model, s string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func TestAskEmitsQuestion(t *testing.T) {
	m := New(true, 80, 30)
	m.Focus()

	m = typeText(m, "  When do I prune roses?  ")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, AskMsg{Question: "When do I prune roses?"}, cmd())
	assert.Empty(t, m.input.Value())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd, "blank input is not sent")
}

func TestAskRefusedWhileAdvising(t *testing.T) {
	m := New(true, 80, 30)
	m.Focus()
	m.SetTranscript(nil, true)

	m = typeText(m, "another one")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestEscCloses(t *testing.T) {
	m := New(false, 80, 30)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, CloseMsg{}, cmd())
}

func TestConversationRendering(t *testing.T) {
	m := New(true, 100, 40)
	m.SetTranscript([]model.ChatMessage{
		{ID: "1", Role: model.RoleModel, Text: "Hi! I'm Rooty."},
		{ID: "2", Role: model.RoleUser, Text: "How deep should mulch be?"},
	}, true)

	out := m.renderConversation()
	assert.Contains(t, out, "Rooty:")
	assert.Contains(t, out, "You:")
	assert.Contains(t, out, "How deep should mulch be?")
	assert.Contains(t, out, "Rooty is thinking...")
}

func TestNoAPIKeyGuidance(t *testing.T) {
	m := New(false, 100, 30)
	assert.Contains(t, m.View(), "GEMINI_API_KEY")

	m = typeText(m, "hello")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}
