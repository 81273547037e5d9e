package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unsaid-app/backend/internal/cache"
	"github.com/unsaid-app/backend/internal/database"
	"github.com/unsaid-app/backend/internal/logger"
	"github.com/unsaid-app/backend/internal/models"
	"github.com/unsaid-app/backend/internal/util"
)

// postView is the public projection of a post. The raw author id is only
// included for named posts, matching the posts_public view.
type postView struct {
	*models.Post
	AuthorID    *string `json:"author_id,omitempty"`
	DisplayName string  `json:"display_name"`
	Score       int     `json:"score"`
	UserVote    int     `json:"user_vote,omitempty"`
}

func newPostView(post *models.Post) *postView {
	view := &postView{
		Post:        post,
		DisplayName: post.DisplayName(),
		Score:       post.Score(),
	}
	if post.AuthorVisible() {
		view.AuthorID = &post.UserID
	}
	return view
}

// CreatePost creates a new post
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Title        string              `json:"title" binding:"required,min=1,max=200"`
		Content      string              `json:"content" binding:"required,min=1,max=10000"`
		PostType     models.PostType     `json:"post_type" binding:"required"`
		IdentityType models.IdentityType `json:"identity_type"`
		Pseudonym    *string             `json:"pseudonym,omitempty"`
		CommunityID  *string             `json:"community_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if !models.ValidPostType(req.PostType) {
		util.RespondValidationError(c, "post_type", "Unknown post type")
		return
	}
	if req.IdentityType == "" {
		req.IdentityType = models.IdentityAnonymous
	}
	if !models.ValidIdentityType(req.IdentityType) {
		util.RespondValidationError(c, "identity_type", "Unknown identity type")
		return
	}
	if req.IdentityType == models.IdentityPseudonymous && (req.Pseudonym == nil || *req.Pseudonym == "") {
		util.RespondValidationError(c, "pseudonym", "Pseudonym required for pseudonymous posts")
		return
	}

	if req.CommunityID != nil && *req.CommunityID != "" {
		var community models.Community
		if err := database.DB.First(&community, "id = ?", *req.CommunityID).Error; err != nil {
			util.RespondValidationError(c, "community_id", "Community not found")
			return
		}
	} else {
		req.CommunityID = nil
	}

	post := models.Post{
		UserID:       userID,
		Title:        req.Title,
		Content:      req.Content,
		PostType:     req.PostType,
		IdentityType: req.IdentityType,
		Pseudonym:    req.Pseudonym,
		CommunityID:  req.CommunityID,
	}
	if err := database.DB.Create(&post).Error; err != nil {
		util.RespondInternalError(c, "Failed to create post")
		return
	}

	if post.IdentityType == models.IdentityNamed {
		if err := database.DB.Preload("User").First(&post, "id = ?", post.ID).Error; err != nil {
			logger.WarnWithFields("Failed to load post author", err)
		}
	}

	cache.InvalidateFeeds(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{"post": newPostView(&post)})
}

// GetFeed lists posts, newest first with pinned posts on top
// GET /api/v1/posts?post_type=&community_id=&sort=&limit=&offset=
func (h *Handlers) GetFeed(c *gin.Context) {
	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	postType := c.Query("post_type")
	if postType != "" && !models.ValidPostType(models.PostType(postType)) {
		util.RespondValidationError(c, "post_type", "Unknown post type")
		return
	}
	communityID := c.Query("community_id")
	sort := c.DefaultQuery("sort", "new")

	// Anonymous reads are identical for everyone, so they are served from
	// the hot feed cache. Authenticated reads carry per-user vote state
	// and always hit the database.
	userID, _ := c.Get("user_id")
	uid, authed := userID.(string)
	authed = authed && uid != ""

	cacheKey := cache.FeedKey(sort, postType, communityID, limit, offset)
	if !authed {
		if page := cache.GetFeedPage(c.Request.Context(), cacheKey); page != "" {
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(page))
			return
		}
	}

	query := database.DB.Model(&models.Post{}).Preload("User").Preload("Community")

	if postType != "" {
		query = query.Where("post_type = ?", postType)
	}
	if communityID != "" {
		query = query.Where("community_id = ?", communityID)
	}

	switch sort {
	case "top":
		query = query.Order("is_pinned DESC").Order("(upvotes - downvotes) DESC").Order("created_at DESC")
	case "discussed":
		query = query.Order("is_pinned DESC").Order("comment_count DESC").Order("created_at DESC")
	default:
		query = query.Order("is_pinned DESC").Order("created_at DESC")
	}

	var posts []models.Post
	if err := query.Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		util.RespondInternalError(c, "Failed to load feed")
		return
	}

	views := make([]*postView, 0, len(posts))
	for i := range posts {
		view := newPostView(&posts[i])
		if authed {
			if vote, err := h.votes.GetVote(uid, "post", posts[i].ID); err == nil {
				view.UserVote = int(vote)
			}
		}
		views = append(views, view)
	}

	resp := gin.H{
		"posts": views,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(views),
		},
	}

	if !authed {
		if raw, err := json.Marshal(resp); err == nil {
			cache.StoreFeedPage(c.Request.Context(), cacheKey, string(raw))
		}
	}

	c.JSON(http.StatusOK, resp)
}

// GetPost returns one post with its public author projection
// GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	var post models.Post
	err := database.DB.Preload("User").Preload("Community").First(&post, "id = ?", c.Param("id")).Error
	if err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	view := newPostView(&post)
	if uid, ok := c.Get("user_id"); ok {
		if vote, err := h.votes.GetVote(uid.(string), "post", post.ID); err == nil {
			view.UserVote = int(vote)
		}
	}

	c.JSON(http.StatusOK, gin.H{"post": view})
}

// UpdatePost edits a post's title or content. Only the author may edit.
// PUT /api/v1/posts/:id
func (h *Handlers) UpdatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}
	if post.UserID != userID {
		util.RespondForbidden(c, "Only the author can edit this post")
		return
	}

	var req struct {
		Title   *string `json:"title,omitempty"`
		Content *string `json:"content,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil && *req.Title != "" {
		updates["title"] = *req.Title
	}
	if req.Content != nil && *req.Content != "" {
		updates["content"] = *req.Content
	}
	if len(updates) == 0 {
		util.RespondBadRequest(c, "nothing to update")
		return
	}

	if err := database.DB.Model(&post).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "Failed to update post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": newPostView(&post)})
}

// DeletePost soft-deletes a post. Allowed for the author and moderators.
// DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	if post.UserID != user.ID && !h.hasModeratorRole(user.ID) {
		util.RespondForbidden(c, "Only the author can delete this post")
		return
	}

	if err := database.DB.Delete(&post).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete post")
		return
	}

	cache.InvalidateFeeds(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// PinPost toggles a post's pinned flag. Moderators only.
// POST /api/v1/posts/:id/pin
func (h *Handlers) PinPost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	if !h.hasModeratorRole(user.ID) {
		util.RespondForbidden(c, "Moderator role required")
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	if err := database.DB.Model(&post).UpdateColumn("is_pinned", !post.IsPinned).Error; err != nil {
		util.RespondInternalError(c, "Failed to update pin")
		return
	}

	cache.InvalidateFeeds(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"is_pinned": !post.IsPinned})
}

// GetMyPosts lists the caller's own posts across every identity type. The
// owner always sees their author id and pseudonym.
// GET /api/v1/users/me/posts
func (h *Handlers) GetMyPosts(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := database.DB.Model(&models.Post{}).
		Preload("User").Preload("Community").
		Where("user_id = ?", user.ID)

	if postType := c.Query("post_type"); postType != "" {
		if !models.ValidPostType(models.PostType(postType)) {
			util.RespondValidationError(c, "post_type", "Unknown post type")
			return
		}
		query = query.Where("post_type = ?", postType)
	}

	var posts []models.Post
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		util.RespondInternalError(c, "Failed to load posts")
		return
	}

	views := make([]*postView, 0, len(posts))
	for i := range posts {
		view := newPostView(&posts[i])
		view.AuthorID = &posts[i].UserID
		views = append(views, view)
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": views,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(views),
		},
	})
}

// hasModeratorRole checks for an admin or moderator role row.
func (h *Handlers) hasModeratorRole(userID string) bool {
	var count int64
	database.DB.Model(&models.UserRole{}).
		Where("user_id = ? AND role IN ?", userID, []models.AppRole{models.RoleAdmin, models.RoleModerator}).
		Count(&count)
	return count > 0
}
