package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unsaid-app/backend/internal/database"
	"github.com/unsaid-app/backend/internal/models"
	"github.com/unsaid-app/backend/internal/util"
	"gorm.io/gorm"
)

// GetCommunities lists all communities
// GET /api/v1/communities
func (h *Handlers) GetCommunities(c *gin.Context) {
	var communities []models.Community
	if err := database.DB.Order("member_count DESC").Find(&communities).Error; err != nil {
		util.RespondInternalError(c, "Failed to load communities")
		return
	}
	c.JSON(http.StatusOK, gin.H{"communities": communities})
}

// GetCommunity returns one community
// GET /api/v1/communities/:id
func (h *Handlers) GetCommunity(c *gin.Context) {
	var community models.Community
	if err := database.DB.First(&community, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "community")
		return
	}

	resp := gin.H{"community": community}
	if uid, ok := c.Get("user_id"); ok {
		var count int64
		database.DB.Model(&models.CommunityMembership{}).
			Where("community_id = ? AND user_id = ?", community.ID, uid).
			Count(&count)
		resp["is_member"] = count > 0
	}

	c.JSON(http.StatusOK, resp)
}

// CreateCommunity creates a community. Moderators only.
// POST /api/v1/communities
func (h *Handlers) CreateCommunity(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	if !h.hasModeratorRole(user.ID) {
		util.RespondForbidden(c, "Moderator role required")
		return
	}

	var req struct {
		Name        string   `json:"name" binding:"required,min=2,max=50"`
		Description string   `json:"description" binding:"max=500"`
		Icon        string   `json:"icon"`
		Rules       []string `json:"rules"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	community := models.Community{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Rules:       models.StringArray(req.Rules),
		CreatedBy:   &user.ID,
	}
	if err := database.DB.Create(&community).Error; err != nil {
		util.RespondConflict(c, "community")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"community": community})
}

// JoinCommunity adds the caller as a member and bumps the member count
// POST /api/v1/communities/:id/join
func (h *Handlers) JoinCommunity(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var community models.Community
	if err := database.DB.First(&community, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "community")
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		tx.Model(&models.CommunityMembership{}).
			Where("community_id = ? AND user_id = ?", community.ID, userID).
			Count(&count)
		if count > 0 {
			return gorm.ErrDuplicatedKey
		}

		membership := models.CommunityMembership{CommunityID: community.ID, UserID: userID}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}
		return tx.Model(&community).
			UpdateColumn("member_count", gorm.Expr("member_count + 1")).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		util.RespondConflict(c, "membership")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to join community")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "joined"})
}

// LeaveCommunity removes the caller's membership
// POST /api/v1/communities/:id/leave
func (h *Handlers) LeaveCommunity(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var community models.Community
	if err := database.DB.First(&community, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "community")
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("community_id = ? AND user_id = ?", community.ID, userID).
			Delete(&models.CommunityMembership{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&community).
			Where("member_count > 0").
			UpdateColumn("member_count", gorm.Expr("member_count - 1")).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "membership")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to leave community")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "left"})
}
