package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/unsaid-app/backend/internal/models"
	"gorm.io/gorm"
)

// ErrConversationNotFound is returned when a conversation does not exist
// or belongs to another user.
var ErrConversationNotFound = errors.New("conversation not found")

// Completer streams an assistant reply for a conversation history.
// *Client is the production implementation.
type Completer interface {
	StreamCompletion(ctx context.Context, messages []Message, onFragment func(fragment string)) (string, error)
}

// Service owns chat conversations and their transcripts. Every user
// message is persisted before the upstream request is issued; the
// assistant message is persisted exactly once, only after the stream has
// fully assembled a non-empty reply.
type Service struct {
	db        *gorm.DB
	completer Completer
}

// NewService creates a chat service.
func NewService(db *gorm.DB, completer Completer) *Service {
	return &Service{db: db, completer: completer}
}

// Exchange is the outcome of one send/reply round trip.
type Exchange struct {
	Conversation     *models.ChatConversation `json:"conversation"`
	UserMessage      *models.ChatMessage      `json:"user_message"`
	AssistantMessage *models.ChatMessage      `json:"assistant_message,omitempty"`
}

// ListConversations returns the user's conversations, most recently
// updated first.
func (s *Service) ListConversations(userID string) ([]models.ChatConversation, error) {
	var conversations []models.ChatConversation
	err := s.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return conversations, nil
}

// GetConversation returns one conversation with its transcript in
// conversational order.
func (s *Service) GetConversation(userID, conversationID string) (*models.ChatConversation, error) {
	var conversation models.ChatConversation
	err := s.db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).Where("id = ? AND user_id = ?", conversationID, userID).
		First(&conversation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return &conversation, nil
}

// DeleteConversation removes a conversation and its messages.
func (s *Service) DeleteConversation(userID, conversationID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var conversation models.ChatConversation
		err := tx.Where("id = ? AND user_id = ?", conversationID, userID).First(&conversation).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load conversation: %w", err)
		}
		if err := tx.Where("conversation_id = ?", conversationID).Delete(&models.ChatMessage{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		if err := tx.Delete(&conversation).Error; err != nil {
			return fmt.Errorf("failed to delete conversation: %w", err)
		}
		return nil
	})
}

// SendMessage appends a user message to a conversation (creating the
// conversation when conversationID is empty, titled from the first
// message), streams the assistant reply, and persists it once assembled.
// Fragments are forwarded to onFragment as they arrive.
//
// On upstream failure no assistant row is written; the persisted user
// message and the error are returned so the caller can surface it.
func (s *Service) SendMessage(ctx context.Context, userID, conversationID, content string, onFragment func(fragment string)) (*Exchange, error) {
	var conversation models.ChatConversation

	if conversationID == "" {
		conversation = models.ChatConversation{
			UserID: userID,
			Title:  models.DeriveConversationTitle(content),
		}
		if err := s.db.Create(&conversation).Error; err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
	} else {
		err := s.db.Where("id = ? AND user_id = ?", conversationID, userID).First(&conversation).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load conversation: %w", err)
		}
	}

	// The user message is persisted before the upstream request goes out,
	// so a failed stream never loses what the user typed.
	userMessage := models.ChatMessage{
		ConversationID: conversation.ID,
		Role:           models.ChatRoleUser,
		Content:        content,
	}
	if err := s.db.Create(&userMessage).Error; err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}

	exchange := &Exchange{Conversation: &conversation, UserMessage: &userMessage}

	history, err := s.loadHistory(conversation.ID)
	if err != nil {
		return exchange, err
	}

	assembled, streamErr := s.completer.StreamCompletion(ctx, history, onFragment)
	if streamErr != nil {
		// Partial content from a broken stream is dropped, never persisted.
		return exchange, streamErr
	}
	if assembled == "" {
		return exchange, nil
	}

	assistantMessage := models.ChatMessage{
		ConversationID: conversation.ID,
		Role:           models.ChatRoleAssistant,
		Content:        assembled,
	}
	if err := s.db.Create(&assistantMessage).Error; err != nil {
		return exchange, fmt.Errorf("failed to persist assistant message: %w", err)
	}
	exchange.AssistantMessage = &assistantMessage

	// Bump updated_at so the conversation sorts to the top.
	s.db.Model(&conversation).Update("updated_at", assistantMessage.CreatedAt)

	return exchange, nil
}

// loadHistory returns the conversation's transcript as upstream messages.
func (s *Service) loadHistory(conversationID string) ([]Message, error) {
	var rows []models.ChatMessage
	err := s.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	messages := make([]Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, Message{Role: string(row.Role), Content: row.Content})
	}
	return messages, nil
}
