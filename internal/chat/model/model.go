// Package model holds the conversation state shared by the driver, the
// assistant and the HTTP surface. Conversations live in memory for the
// process lifetime only.
package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Conversation struct {
	ID        string     `json:"id"`
	Title     string     `json:"title,omitempty"`
	Messages  []*Message `json:"messages"`
	CreatedAt time.Time  `json:"created_at"`
}

func NewConversation() *Conversation {
	return &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
}

// Append adds a message and returns it.
func (c *Conversation) Append(role Role, content string) *Message {
	m := &Message{Role: role, Content: content}
	c.Messages = append(c.Messages, m)
	return m
}
