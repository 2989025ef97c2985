package model

import "time"

// MessageRole identifies who authored a chat message
type MessageRole string

const (
	MessageRoleCustomer  MessageRole = "customer"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is one chat message in a customer thread. History is persisted so
// an escalated case can snapshot the conversation that led to it.
type Message struct {
	ID        string
	ThreadID  string
	UserID    string
	Role      MessageRole
	Text      string
	CreatedAt time.Time
}

// HistoryEntry renders the message for a case context snapshot
func (m *Message) HistoryEntry() map[string]any {
	return map[string]any{
		"role": string(m.Role),
		"text": m.Text,
		"at":   m.CreatedAt.Format(time.RFC3339),
	}
}
