package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unsaid-app/backend/internal/cache"
	"github.com/unsaid-app/backend/internal/middleware"
	"github.com/unsaid-app/backend/internal/models"
	"github.com/unsaid-app/backend/internal/util"
	"github.com/unsaid-app/backend/internal/voting"
)

type voteRequest struct {
	Direction int `json:"direction" binding:"required"`
}

// VoteOnPost casts, switches, or retracts the caller's vote on a post
// POST /api/v1/posts/:id/vote
func (h *Handlers) VoteOnPost(c *gin.Context) {
	h.castVote(c, voting.TargetPost, c.Param("id"))
}

// VoteOnComment casts, switches, or retracts the caller's vote on a comment
// POST /api/v1/comments/:id/vote
func (h *Handlers) VoteOnComment(c *gin.Context) {
	h.castVote(c, voting.TargetComment, c.Param("id"))
}

func (h *Handlers) castVote(c *gin.Context, kind voting.TargetKind, targetID string) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.votes.CastVote(userID, kind, targetID, models.VoteType(req.Direction))
	switch err {
	case nil:
		direction := "retract"
		if result.CurrentVote == models.VoteUp {
			direction = "up"
		} else if result.CurrentVote == models.VoteDown {
			direction = "down"
		}
		middleware.RecordVoteCast(string(kind), direction)
		if kind == voting.TargetPost {
			cache.InvalidateFeeds(c.Request.Context())
		}
		c.JSON(http.StatusOK, result)
	case voting.ErrTargetNotFound:
		middleware.RecordVoteFailure(string(kind), "not_found")
		util.RespondNotFound(c, string(kind))
	case voting.ErrInvalidDirection:
		middleware.RecordVoteFailure(string(kind), "invalid_direction")
		util.RespondValidationError(c, "direction", "Direction must be 1 or -1")
	default:
		middleware.RecordVoteFailure(string(kind), "internal")
		util.RespondInternalError(c, "Failed to cast vote")
	}
}

// GetPostVote returns the caller's active vote on a post
// GET /api/v1/posts/:id/vote
func (h *Handlers) GetPostVote(c *gin.Context) {
	h.getVote(c, voting.TargetPost, c.Param("id"))
}

// GetCommentVote returns the caller's active vote on a comment
// GET /api/v1/comments/:id/vote
func (h *Handlers) GetCommentVote(c *gin.Context) {
	h.getVote(c, voting.TargetComment, c.Param("id"))
}

func (h *Handlers) getVote(c *gin.Context, kind voting.TargetKind, targetID string) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	vote, err := h.votes.GetVote(userID, kind, targetID)
	if err != nil {
		util.RespondInternalError(c, "Failed to load vote")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"target_kind":  kind,
		"target_id":    targetID,
		"current_vote": vote,
	})
}
