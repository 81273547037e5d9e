package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unsaid-app/backend/internal/database"
	"github.com/unsaid-app/backend/internal/models"
	"github.com/unsaid-app/backend/internal/util"
)

// GetProfile returns a user's public profile
// GET /api/v1/users/:username
func (h *Handlers) GetProfile(c *gin.Context) {
	var user models.User
	err := database.DB.Where("LOWER(username) = LOWER(?)", c.Param("username")).First(&user).Error
	if err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	// Only posts the author chose to sign are attributable
	var postCount int64
	database.DB.Model(&models.Post{}).
		Where("user_id = ? AND identity_type = ?", user.ID, models.IdentityNamed).
		Count(&postCount)

	c.JSON(http.StatusOK, gin.H{
		"profile": gin.H{
			"username":     user.Username,
			"display_name": user.DisplayName,
			"bio":          user.Bio,
			"avatar_url":   user.AvatarURL,
			"post_count":   postCount,
			"joined_at":    user.CreatedAt,
		},
	})
}

// UpdateProfile edits the caller's own profile
// PUT /api/v1/users/me
func (h *Handlers) UpdateProfile(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		DisplayName        *string `json:"display_name,omitempty"`
		Bio                *string `json:"bio,omitempty"`
		AvatarURL          *string `json:"avatar_url,omitempty"`
		IsAnonymousDefault *bool   `json:"is_anonymous_default,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if req.IsAnonymousDefault != nil {
		updates["is_anonymous_default"] = *req.IsAnonymousDefault
	}
	if len(updates) == 0 {
		util.RespondBadRequest(c, "nothing to update")
		return
	}

	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
