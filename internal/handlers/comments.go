package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unsaid-app/backend/internal/database"
	"github.com/unsaid-app/backend/internal/logger"
	"github.com/unsaid-app/backend/internal/models"
	"github.com/unsaid-app/backend/internal/util"
	"gorm.io/gorm"
)

// commentView mirrors postView for comments: author id only for named rows.
type commentView struct {
	*models.Comment
	AuthorID    *string        `json:"author_id,omitempty"`
	DisplayName string         `json:"display_name"`
	Score       int            `json:"score"`
	Replies     []*commentView `json:"replies,omitempty"`
}

func newCommentView(comment *models.Comment) *commentView {
	view := &commentView{
		Comment:     comment,
		DisplayName: comment.DisplayName(),
		Score:       comment.Score(),
	}
	if comment.IdentityType == models.IdentityNamed {
		view.AuthorID = &comment.UserID
	}
	return view
}

// CreateComment creates a comment on a post
// POST /api/v1/posts/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	postID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Content      string              `json:"content" binding:"required,min=1,max=2000"`
		ParentID     *string             `json:"parent_id,omitempty"`
		IdentityType models.IdentityType `json:"identity_type"`
		Pseudonym    *string             `json:"pseudonym,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if req.IdentityType == "" {
		req.IdentityType = models.IdentityAnonymous
	}
	if !models.ValidIdentityType(req.IdentityType) {
		util.RespondValidationError(c, "identity_type", "Unknown identity type")
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	// Replies nest one level deep: replying to a reply attaches to its parent
	if req.ParentID != nil && *req.ParentID != "" {
		var parentComment models.Comment
		if err := database.DB.First(&parentComment, "id = ? AND post_id = ?", *req.ParentID, postID).Error; err != nil {
			util.RespondValidationError(c, "parent_id", "Parent comment not found")
			return
		}
		if parentComment.ParentID != nil {
			req.ParentID = parentComment.ParentID
		}
	} else {
		req.ParentID = nil
	}

	comment := models.Comment{
		PostID:       postID,
		UserID:       userID,
		Content:      req.Content,
		ParentID:     req.ParentID,
		IdentityType: req.IdentityType,
		Pseudonym:    req.Pseudonym,
	}
	if err := database.DB.Create(&comment).Error; err != nil {
		util.RespondInternalError(c, "Failed to create comment")
		return
	}

	if err := database.DB.Model(&post).UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment comment count for post "+postID, err)
	}

	h.notifyForComment(&comment, &post)

	if comment.IdentityType == models.IdentityNamed {
		if err := database.DB.Preload("User").First(&comment, "id = ?", comment.ID).Error; err != nil {
			logger.WarnWithFields("Failed to load comment author", err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{"comment": newCommentView(&comment)})
}

// GetComments returns a post's comments as a one-level tree, oldest first
// GET /api/v1/posts/:id/comments
func (h *Handlers) GetComments(c *gin.Context) {
	postID := c.Param("id")

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	var comments []models.Comment
	err := database.DB.Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load comments")
		return
	}

	// Build the tree: top-level comments with their replies attached
	views := make(map[string]*commentView, len(comments))
	var roots []*commentView
	for i := range comments {
		views[comments[i].ID] = newCommentView(&comments[i])
	}
	for i := range comments {
		view := views[comments[i].ID]
		if comments[i].ParentID == nil {
			roots = append(roots, view)
			continue
		}
		if parent, ok := views[*comments[i].ParentID]; ok {
			parent.Replies = append(parent.Replies, view)
		} else {
			roots = append(roots, view)
		}
	}
	if roots == nil {
		roots = []*commentView{}
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": roots,
		"count":    len(comments),
	})
}

// DeleteComment removes a comment. Allowed for the author and moderators.
// DELETE /api/v1/comments/:id
func (h *Handlers) DeleteComment(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "comment")
		return
	}
	if comment.UserID != user.ID && !h.hasModeratorRole(user.ID) {
		util.RespondForbidden(c, "Only the author can delete this comment")
		return
	}

	if err := database.DB.Delete(&comment).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete comment")
		return
	}

	err := database.DB.Model(&models.Post{}).
		Where("id = ? AND comment_count > 0", comment.PostID).
		UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error
	if err != nil {
		logger.WarnWithFields("Failed to decrement comment count for post "+comment.PostID, err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// MarkBestAnswer flags one comment as the accepted answer on a question
// post. Only the post author may choose, and only one comment holds the
// flag at a time.
// POST /api/v1/comments/:id/best-answer
func (h *Handlers) MarkBestAnswer(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "comment")
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", comment.PostID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}
	if post.UserID != userID {
		util.RespondForbidden(c, "Only the post author can mark a best answer")
		return
	}
	if post.PostType != models.PostTypeQuestion {
		util.RespondBadRequest(c, "best answers apply to question posts only")
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Comment{}).
			Where("post_id = ? AND is_best_answer = ?", post.ID, true).
			UpdateColumn("is_best_answer", false).Error; err != nil {
			return err
		}
		return tx.Model(&comment).UpdateColumn("is_best_answer", true).Error
	})
	if err != nil {
		util.RespondInternalError(c, "Failed to mark best answer")
		return
	}

	if comment.UserID != userID {
		notification := models.Notification{
			UserID:           comment.UserID,
			Type:             models.NotificationBestAnswer,
			Title:            "Your answer was accepted",
			Message:          post.Title,
			RelatedPostID:    &post.ID,
			RelatedCommentID: &comment.ID,
		}
		if err := database.DB.Create(&notification).Error; err != nil {
			logger.WarnWithFields("Failed to create best answer notification", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "marked"})
}
