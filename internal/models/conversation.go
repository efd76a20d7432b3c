package models

import "time"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is one entry of a conversation. Order is significant: it is both
// the display order and the context sent upstream.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatMessage is the wire form of a message in an inference request.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
