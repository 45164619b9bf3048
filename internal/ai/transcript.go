package ai

import (
	"github.com/google/uuid"

	"github.com/nhle/community-roots/internal/model"
)

// Transcript is the ordered, append-only chat history with the assistant.
// It is a value: Append returns a new Transcript and never writes into a
// backing array another Transcript can see.
type Transcript struct {
	messages []model.ChatMessage
}

// NewTranscript returns a transcript that opens with the assistant's
// welcome message.
func NewTranscript(welcome string) Transcript {
	if welcome == "" {
		return Transcript{}
	}
	return Transcript{}.Append(model.RoleModel, welcome)
}

// Append adds a message with a fresh ID.
func (t Transcript) Append(role model.Role, text string) Transcript {
	msgs := make([]model.ChatMessage, len(t.messages), len(t.messages)+1)
	copy(msgs, t.messages)
	msgs = append(msgs, model.ChatMessage{
		ID:   uuid.NewString(),
		Role: role,
		Text: text,
	})
	return Transcript{messages: msgs}
}

// Messages returns a copy of the messages in order.
func (t Transcript) Messages() []model.ChatMessage {
	out := make([]model.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t Transcript) Len() int { return len(t.messages) }

// Last returns the most recent message.
func (t Transcript) Last() (model.ChatMessage, bool) {
	if len(t.messages) == 0 {
		return model.ChatMessage{}, false
	}
	return t.messages[len(t.messages)-1], true
}
