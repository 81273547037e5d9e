package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/unsaid-app/backend/internal/auth"
	"github.com/unsaid-app/backend/internal/chat"
	"github.com/unsaid-app/backend/internal/voting"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	auth  auth.AuthServiceInterface
	votes *voting.Service
	chat  *chat.Service
}

// NewHandlers creates a new handlers instance
func NewHandlers(authService auth.AuthServiceInterface, voteService *voting.Service, chatService *chat.Service) *Handlers {
	return &Handlers{
		auth:  authService,
		votes: voteService,
		chat:  chatService,
	}
}

// AuthMiddleware validates the bearer token and loads the acting user
// into the request context.
func (h *Handlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
			c.Abort()
			return
		}

		user, err := h.auth.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

// OptionalAuthMiddleware loads the user when a valid token is present but
// lets anonymous requests through. Feed endpoints use it so signed-out
// readers still see public posts.
func (h *Handlers) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token != "" {
			if user, err := h.auth.ValidateToken(token); err == nil {
				c.Set("user_id", user.ID)
				c.Set("user", user)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
