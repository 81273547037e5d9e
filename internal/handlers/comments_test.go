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

type CommentHandlersTestSuite struct {
	suite.Suite
	db        *gorm.DB
	router    *gin.Engine
	author    *models.User
	commenter *models.User
	post      models.Post
}

func (s *CommentHandlersTestSuite) SetupTest() {
	db, err := newTestDB()
	s.Require().NoError(err)
	s.db = db
	s.router = newTestRouter(db, newTestHandlers(db, nil))

	s.author, err = createTestUser(db, "author")
	s.Require().NoError(err)
	s.commenter, err = createTestUser(db, "commenter")
	s.Require().NoError(err)

	s.post = models.Post{
		UserID:       s.author.ID,
		Title:        "How do I pass linear algebra",
		Content:      "Genuinely asking.",
		PostType:     models.PostTypeQuestion,
		IdentityType: models.IdentityAnonymous,
	}
	s.Require().NoError(db.Create(&s.post).Error)
}

func (s *CommentHandlersTestSuite) createComment(userID string, body gin.H) map[string]interface{} {
	w := doJSON(s.router, http.MethodPost, fmt.Sprintf("/api/v1/posts/%s/comments", s.post.ID), userID, body)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Comment map[string]interface{} `json:"comment"`
	}
	decodeBody(&s.Suite, w.Body.Bytes(), &resp)
	return resp.Comment
}

func (s *CommentHandlersTestSuite) TestCreateCommentIncrementsCount() {
	s.createComment(s.commenter.ID, gin.H{"content": "Do the problem sets twice."})

	var post models.Post
	s.Require().NoError(s.db.First(&post, "id = ?", s.post.ID).Error)
	s.Equal(1, post.CommentCount)
}

func (s *CommentHandlersTestSuite) TestCreateCommentNotifiesPostAuthor() {
	s.createComment(s.commenter.ID, gin.H{"content": "Office hours help a lot."})

	var notifications []models.Notification
	s.Require().NoError(s.db.Where("user_id = ?", s.author.ID).Find(&notifications).Error)
	s.Require().Len(notifications, 1)
	s.Equal(models.NotificationComment, notifications[0].Type)
	s.Equal(s.post.ID, *notifications[0].RelatedPostID)
}

func (s *CommentHandlersTestSuite) TestSelfCommentDoesNotNotify() {
	s.createComment(s.author.ID, gin.H{"content": "Answering my own question."})

	var count int64
	s.db.Model(&models.Notification{}).Where("user_id = ?", s.author.ID).Count(&count)
	s.Equal(int64(0), count)
}

func (s *CommentHandlersTestSuite) TestRepliesNestOneLevel() {
	root := s.createComment(s.commenter.ID, gin.H{"content": "root"})
	rootID := root["id"].(string)

	reply := s.createComment(s.author.ID, gin.H{"content": "reply", "parent_id": rootID})
	replyID := reply["id"].(string)

	// Replying to a reply reattaches to the top-level comment
	nested := s.createComment(s.commenter.ID, gin.H{"content": "deep", "parent_id": replyID})
	s.Equal(rootID, nested["parent_id"])

	w := doJSON(s.router, http.MethodGet, fmt.Sprintf("/api/v1/posts/%s/comments", s.post.ID), "", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Comments []struct {
			ID      string `json:"id"`
			Replies []struct {
				ID string `json:"id"`
			} `json:"replies"`
		} `json:"comments"`
		Count int `json:"count"`
	}
	decodeBody(&s.Suite, w.Body.Bytes(), &resp)

	s.Equal(3, resp.Count)
	s.Require().Len(resp.Comments, 1)
	s.Equal(rootID, resp.Comments[0].ID)
	s.Len(resp.Comments[0].Replies, 2)
}

func (s *CommentHandlersTestSuite) TestReplyToMissingParent() {
	w := doJSON(s.router, http.MethodPost, fmt.Sprintf("/api/v1/posts/%s/comments", s.post.ID), s.commenter.ID, gin.H{
		"content":   "orphan",
		"parent_id": "00000000-0000-0000-0000-000000000000",
	})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *CommentHandlersTestSuite) TestGetCommentsEmptyIsArray() {
	w := doJSON(s.router, http.MethodGet, fmt.Sprintf("/api/v1/posts/%s/comments", s.post.ID), "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"comments":[]`)
}

func (s *CommentHandlersTestSuite) TestNamedCommentExposesAuthor() {
	comment := s.createComment(s.commenter.ID, gin.H{"content": "signed", "identity_type": "named"})
	s.Equal(s.commenter.ID, comment["author_id"])

	anon := s.createComment(s.commenter.ID, gin.H{"content": "unsigned"})
	s.NotContains(anon, "author_id")
	s.Equal("Anonymous", anon["display_name"])
}

func (s *CommentHandlersTestSuite) TestDeleteCommentDecrementsCount() {
	comment := s.createComment(s.commenter.ID, gin.H{"content": "soon gone"})
	commentID := comment["id"].(string)

	w := doJSON(s.router, http.MethodDelete, fmt.Sprintf("/api/v1/comments/%s", commentID), s.author.ID, nil)
	s.Equal(http.StatusForbidden, w.Code, "post author is not comment author")

	w = doJSON(s.router, http.MethodDelete, fmt.Sprintf("/api/v1/comments/%s", commentID), s.commenter.ID, nil)
	s.Equal(http.StatusOK, w.Code)

	var post models.Post
	s.Require().NoError(s.db.First(&post, "id = ?", s.post.ID).Error)
	s.Equal(0, post.CommentCount)
}

func (s *CommentHandlersTestSuite) TestMarkBestAnswer() {
	first := s.createComment(s.commenter.ID, gin.H{"content": "first answer"})
	second := s.createComment(s.commenter.ID, gin.H{"content": "better answer"})
	firstID := first["id"].(string)
	secondID := second["id"].(string)

	w := doJSON(s.router, http.MethodPost, fmt.Sprintf("/api/v1/comments/%s/best-answer", firstID), s.commenter.ID, nil)
	s.Equal(http.StatusForbidden, w.Code, "only the post author chooses")

	w = doJSON(s.router, http.MethodPost, fmt.Sprintf("/api/v1/comments/%s/best-answer", firstID), s.author.ID, nil)
	s.Equal(http.StatusOK, w.Code)

	// Choosing another answer clears the previous flag
	w = doJSON(s.router, http.MethodPost, fmt.Sprintf("/api/v1/comments/%s/best-answer", secondID), s.author.ID, nil)
	s.Equal(http.StatusOK, w.Code)

	var flagged []models.Comment
	s.Require().NoError(s.db.Where("post_id = ? AND is_best_answer = ?", s.post.ID, true).Find(&flagged).Error)
	s.Require().Len(flagged, 1)
	s.Equal(secondID, flagged[0].ID)

	var notification models.Notification
	err := s.db.Where("user_id = ? AND type = ?", s.commenter.ID, models.NotificationBestAnswer).First(&notification).Error
	s.Require().NoError(err)
}

func (s *CommentHandlersTestSuite) TestBestAnswerQuestionPostsOnly() {
	rant := models.Post{
		UserID:       s.author.ID,
		Title:        "rant",
		Content:      "c",
		PostType:     models.PostTypeRant,
		IdentityType: models.IdentityAnonymous,
	}
	s.Require().NoError(s.db.Create(&rant).Error)

	comment := models.Comment{
		PostID:       rant.ID,
		UserID:       s.commenter.ID,
		Content:      "agreed",
		IdentityType: models.IdentityAnonymous,
	}
	s.Require().NoError(s.db.Create(&comment).Error)

	w := doJSON(s.router, http.MethodPost, fmt.Sprintf("/api/v1/comments/%s/best-answer", comment.ID), s.author.ID, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func TestCommentHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(CommentHandlersTestSuite))
}
