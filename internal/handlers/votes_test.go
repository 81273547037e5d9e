package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/unsaid-app/backend/internal/models"
	"gorm.io/gorm"
)

type VoteHandlersTestSuite struct {
	suite.Suite
	db      *gorm.DB
	router  *gin.Engine
	author  *models.User
	voter   *models.User
	post    models.Post
	comment models.Comment
}

func (s *VoteHandlersTestSuite) SetupTest() {
	db, err := newTestDB()
	s.Require().NoError(err)
	s.db = db
	s.router = newTestRouter(db, newTestHandlers(db, nil))

	s.author, err = createTestUser(db, "author")
	s.Require().NoError(err)
	s.voter, err = createTestUser(db, "voter")
	s.Require().NoError(err)

	s.post = models.Post{
		UserID:       s.author.ID,
		Title:        "vote on me",
		Content:      "c",
		PostType:     models.PostTypeConfession,
		IdentityType: models.IdentityAnonymous,
		Upvotes:      3,
		Downvotes:    1,
	}
	s.Require().NoError(db.Create(&s.post).Error)

	s.comment = models.Comment{
		PostID:       s.post.ID,
		UserID:       s.author.ID,
		Content:      "vote on me too",
		IdentityType: models.IdentityAnonymous,
	}
	s.Require().NoError(db.Create(&s.comment).Error)
}

type voteResult struct {
	TargetKind  string `json:"target_kind"`
	TargetID    string `json:"target_id"`
	CurrentVote int    `json:"current_vote"`
	Upvotes     int    `json:"upvotes"`
	Downvotes   int    `json:"downvotes"`
}

func (s *VoteHandlersTestSuite) castPostVote(direction int) voteResult {
	w := doJSON(s.router, http.MethodPost, fmt.Sprintf("/api/v1/posts/%s/vote", s.post.ID), s.voter.ID, gin.H{"direction": direction})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var result voteResult
	decodeBody(&s.Suite, w.Body.Bytes(), &result)
	return result
}

func (s *VoteHandlersTestSuite) TestUpvotePost() {
	result := s.castPostVote(1)

	s.Equal("post", result.TargetKind)
	s.Equal(s.post.ID, result.TargetID)
	s.Equal(1, result.CurrentVote)
	s.Equal(4, result.Upvotes)
	s.Equal(1, result.Downvotes)
}

func (s *VoteHandlersTestSuite) TestToggleRetractsVote() {
	s.castPostVote(1)
	result := s.castPostVote(1)

	s.Equal(0, result.CurrentVote)
	s.Equal(3, result.Upvotes)
	s.Equal(1, result.Downvotes)
}

func (s *VoteHandlersTestSuite) TestSwitchDirection() {
	s.castPostVote(1)
	result := s.castPostVote(-1)

	s.Equal(-1, result.CurrentVote)
	s.Equal(3, result.Upvotes)
	s.Equal(2, result.Downvotes)
}

func (s *VoteHandlersTestSuite) TestVoteOnComment() {
	w := doJSON(s.router, http.MethodPost, fmt.Sprintf("/api/v1/comments/%s/vote", s.comment.ID), s.voter.ID, gin.H{"direction": -1})
	s.Require().Equal(http.StatusOK, w.Code)

	var result voteResult
	decodeBody(&s.Suite, w.Body.Bytes(), &result)
	s.Equal("comment", result.TargetKind)
	s.Equal(-1, result.CurrentVote)
	s.Equal(1, result.Downvotes)
}

func (s *VoteHandlersTestSuite) TestVoteTargetNotFound() {
	w := doJSON(s.router, http.MethodPost, "/api/v1/posts/missing/vote", s.voter.ID, gin.H{"direction": 1})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *VoteHandlersTestSuite) TestVoteInvalidDirection() {
	w := doJSON(s.router, http.MethodPost, fmt.Sprintf("/api/v1/posts/%s/vote", s.post.ID), s.voter.ID, gin.H{"direction": 5})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *VoteHandlersTestSuite) TestVoteRequiresAuth() {
	w := doJSON(s.router, http.MethodPost, fmt.Sprintf("/api/v1/posts/%s/vote", s.post.ID), "", gin.H{"direction": 1})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *VoteHandlersTestSuite) TestGetVote() {
	s.castPostVote(-1)

	w := doJSON(s.router, http.MethodGet, fmt.Sprintf("/api/v1/posts/%s/vote", s.post.ID), s.voter.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		CurrentVote int `json:"current_vote"`
	}
	decodeBody(&s.Suite, w.Body.Bytes(), &resp)
	s.Equal(-1, resp.CurrentVote)
}

func TestVoteHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(VoteHandlersTestSuite))
}
