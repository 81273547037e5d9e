package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unsaid-app/backend/internal/database"
	"github.com/unsaid-app/backend/internal/logger"
	"github.com/unsaid-app/backend/internal/models"
	"github.com/unsaid-app/backend/internal/util"
)

// GetNotifications lists the caller's notifications, newest first
// GET /api/v1/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var notifications []models.Notification
	err := database.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&notifications).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load notifications")
		return
	}

	var unread int64
	database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread)

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"unread":        unread,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(notifications),
		},
	})
}

// GetNotificationCount returns just the unread count for badge display
// GET /api/v1/notifications/count
func (h *Handlers) GetNotificationCount(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var unread int64
	database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread)

	c.JSON(http.StatusOK, gin.H{"unread": unread})
}

// MarkNotificationRead marks one notification as read
// POST /api/v1/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result := database.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		Update("is_read", true)
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to mark notification read")
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "read"})
}

// MarkAllNotificationsRead marks every unread notification as read
// POST /api/v1/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to mark notifications read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "all_read"})
}

// notifyForComment creates comment and reply notifications. Best effort,
// failures are logged and never fail the request.
func (h *Handlers) notifyForComment(comment *models.Comment, post *models.Post) {
	// Post author hears about new top-level comments
	if post.UserID != comment.UserID {
		notification := models.Notification{
			UserID:           post.UserID,
			Type:             models.NotificationComment,
			Title:            "New comment on your post",
			Message:          post.Title,
			RelatedPostID:    &post.ID,
			RelatedCommentID: &comment.ID,
		}
		if err := database.DB.Create(&notification).Error; err != nil {
			logger.WarnWithFields("Failed to create comment notification", err)
		}
	}

	// Parent comment author hears about replies
	if comment.ParentID == nil {
		return
	}
	var parent models.Comment
	if err := database.DB.First(&parent, "id = ?", *comment.ParentID).Error; err != nil {
		return
	}
	if parent.UserID == comment.UserID || parent.UserID == post.UserID {
		return
	}
	notification := models.Notification{
		UserID:           parent.UserID,
		Type:             models.NotificationReply,
		Title:            "New reply to your comment",
		Message:          post.Title,
		RelatedPostID:    &post.ID,
		RelatedCommentID: &comment.ID,
	}
	if err := database.DB.Create(&notification).Error; err != nil {
		logger.WarnWithFields("Failed to create reply notification", err)
	}
}
