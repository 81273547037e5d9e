package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatRole is the speaker of a chat message
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ConversationTitleLimit caps the derived conversation title length
const ConversationTitleLimit = 60

// ChatConversation is one AI assistant chat session. The title is derived
// from the first user message, truncated with an ellipsis.
type ChatConversation struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	Title string `gorm:"not null" json:"title"`

	Messages []ChatMessage `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessage is one persisted turn of a conversation. User messages are
// written before the upstream request is issued; the assistant message is
// written once, fully assembled, never partially.
type ChatMessage struct {
	ID             string           `gorm:"primaryKey;type:uuid" json:"id"`
	ConversationID string           `gorm:"not null;index" json:"conversation_id"`
	Conversation   ChatConversation `gorm:"foreignKey:ConversationID" json:"-"`

	Role    ChatRole `gorm:"not null" json:"role"`
	Content string   `gorm:"type:text;not null" json:"content"`

	CreatedAt time.Time `json:"created_at"`
}

// DeriveConversationTitle builds a conversation title from the first user
// message: truncated to ConversationTitleLimit runes plus an ellipsis.
func DeriveConversationTitle(firstMessage string) string {
	runes := []rune(firstMessage)
	if len(runes) <= ConversationTitleLimit {
		return firstMessage
	}
	return string(runes[:ConversationTitleLimit]) + "…"
}

func (c *ChatConversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}
