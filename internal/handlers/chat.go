package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/unsaid-app/backend/internal/chat"
	"github.com/unsaid-app/backend/internal/middleware"
	"github.com/unsaid-app/backend/internal/util"
)

// GetConversations lists the caller's chat conversations
// GET /api/v1/chat/conversations
func (h *Handlers) GetConversations(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	conversations, err := h.chat.ListConversations(userID)
	if err != nil {
		util.RespondInternalError(c, "Failed to load conversations")
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// GetConversation returns one conversation with its transcript
// GET /api/v1/chat/conversations/:id
func (h *Handlers) GetConversation(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	conversation, err := h.chat.GetConversation(userID, c.Param("id"))
	if err == chat.ErrConversationNotFound {
		util.RespondNotFound(c, "conversation")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to load conversation")
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation": conversation})
}

// DeleteConversation removes a conversation and its messages
// DELETE /api/v1/chat/conversations/:id
func (h *Handlers) DeleteConversation(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	err := h.chat.DeleteConversation(userID, c.Param("id"))
	if err == chat.ErrConversationNotFound {
		util.RespondNotFound(c, "conversation")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to delete conversation")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// SendChatMessage appends a user message and streams the assistant reply
// back to the client as SSE data frames, ending with [DONE].
// POST /api/v1/chat/conversations (new) or with conversation_id (existing)
func (h *Handlers) SendChatMessage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		ConversationID string `json:"conversation_id"`
		Content        string `json:"content" binding:"required,min=1,max=8000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	flusher, _ := c.Writer.(http.Flusher)
	writeFrame := func(payload interface{}) {
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		_, _ = c.Writer.Write([]byte("data: " + string(data) + "\n\n"))
		if flusher != nil {
			flusher.Flush()
		}
	}

	started := time.Now()
	exchange, err := h.chat.SendMessage(c.Request.Context(), userID, req.ConversationID, req.Content, func(fragment string) {
		middleware.RecordChatFrame("content")
		writeFrame(gin.H{"content": fragment})
	})

	if err != nil {
		middleware.RecordChatStream("error", time.Since(started))
		if upstreamErr, ok := err.(*chat.UpstreamError); ok {
			middleware.RecordChatUpstreamError(upstreamErr.StatusCode)
		}
		writeFrame(gin.H{"error": err.Error()})
		_, _ = c.Writer.Write([]byte("data: [DONE]\n\n"))
		if flusher != nil {
			flusher.Flush()
		}
		return
	}

	middleware.RecordChatStream("ok", time.Since(started))

	// Final frame carries the persisted ids so the client can reconcile
	meta := gin.H{"conversation_id": exchange.Conversation.ID}
	if exchange.AssistantMessage != nil {
		meta["message_id"] = exchange.AssistantMessage.ID
	}
	writeFrame(meta)
	_, _ = c.Writer.Write([]byte("data: [DONE]\n\n"))
	if flusher != nil {
		flusher.Flush()
	}
}
