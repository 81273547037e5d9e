package voting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/unsaid-app/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// VoteServiceTestSuite tests server-side vote casting
type VoteServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *Service
	user    *models.User
	voter   *models.User
	post    *models.Post
	comment *models.Comment
}

func (suite *VoteServiceTestSuite) SetupSuite() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(suite.T(), err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Vote{},
		&models.Notification{},
	)
	require.NoError(suite.T(), err)

	suite.db = db
	suite.service = NewService(db)
}

func (suite *VoteServiceTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM notifications")
	suite.db.Exec("DELETE FROM votes")
	suite.db.Exec("DELETE FROM comments")
	suite.db.Exec("DELETE FROM posts")
	suite.db.Exec("DELETE FROM users")

	suite.user = &models.User{Email: "author@student.edu", Username: "author", DisplayName: "Author"}
	require.NoError(suite.T(), suite.db.Create(suite.user).Error)

	suite.voter = &models.User{Email: "voter@student.edu", Username: "voter", DisplayName: "Voter"}
	require.NoError(suite.T(), suite.db.Create(suite.voter).Error)

	suite.post = &models.Post{
		UserID:       suite.user.ID,
		Title:        "Is anyone else stressed about finals?",
		Content:      "Asking for a friend.",
		PostType:     models.PostTypeQuestion,
		IdentityType: models.IdentityAnonymous,
		Upvotes:      5,
		Downvotes:    2,
	}
	require.NoError(suite.T(), suite.db.Create(suite.post).Error)

	suite.comment = &models.Comment{
		PostID:       suite.post.ID,
		UserID:       suite.user.ID,
		Content:      "Same here honestly",
		IdentityType: models.IdentityAnonymous,
	}
	require.NoError(suite.T(), suite.db.Create(suite.comment).Error)
}

func (suite *VoteServiceTestSuite) TestCastNewVote() {
	t := suite.T()

	result, err := suite.service.CastVote(suite.voter.ID, TargetPost, suite.post.ID, models.VoteUp)
	require.NoError(t, err)

	assert.Equal(t, models.VoteUp, result.CurrentVote)
	assert.Equal(t, 6, result.Upvotes)
	assert.Equal(t, 2, result.Downvotes)

	var vote models.Vote
	require.NoError(t, suite.db.Where("user_id = ? AND post_id = ?", suite.voter.ID, suite.post.ID).First(&vote).Error)
	assert.Equal(t, models.VoteUp, vote.VoteType)
}

func (suite *VoteServiceTestSuite) TestToggleRetractsVote() {
	t := suite.T()

	_, err := suite.service.CastVote(suite.voter.ID, TargetPost, suite.post.ID, models.VoteUp)
	require.NoError(t, err)

	result, err := suite.service.CastVote(suite.voter.ID, TargetPost, suite.post.ID, models.VoteUp)
	require.NoError(t, err)

	assert.Equal(t, models.VoteType(0), result.CurrentVote)
	assert.Equal(t, 5, result.Upvotes)
	assert.Equal(t, 2, result.Downvotes)

	var count int64
	suite.db.Model(&models.Vote{}).Where("user_id = ? AND post_id = ?", suite.voter.ID, suite.post.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func (suite *VoteServiceTestSuite) TestSwitchDirection() {
	t := suite.T()

	_, err := suite.service.CastVote(suite.voter.ID, TargetPost, suite.post.ID, models.VoteUp)
	require.NoError(t, err)

	result, err := suite.service.CastVote(suite.voter.ID, TargetPost, suite.post.ID, models.VoteDown)
	require.NoError(t, err)

	assert.Equal(t, models.VoteDown, result.CurrentVote)
	assert.Equal(t, 5, result.Upvotes)
	assert.Equal(t, 3, result.Downvotes)

	// Exactly one vote record per (user, target)
	var count int64
	suite.db.Model(&models.Vote{}).Where("user_id = ? AND post_id = ?", suite.voter.ID, suite.post.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func (suite *VoteServiceTestSuite) TestCommentVote() {
	t := suite.T()

	result, err := suite.service.CastVote(suite.voter.ID, TargetComment, suite.comment.ID, models.VoteDown)
	require.NoError(t, err)

	assert.Equal(t, models.VoteDown, result.CurrentVote)
	assert.Equal(t, 0, result.Upvotes)
	assert.Equal(t, 1, result.Downvotes)

	var vote models.Vote
	require.NoError(t, suite.db.Where("user_id = ? AND comment_id = ?", suite.voter.ID, suite.comment.ID).First(&vote).Error)
	assert.Nil(t, vote.PostID)
	require.NotNil(t, vote.CommentID)
	assert.Equal(t, suite.comment.ID, *vote.CommentID)
}

func (suite *VoteServiceTestSuite) TestTargetNotFound() {
	t := suite.T()

	_, err := suite.service.CastVote(suite.voter.ID, TargetPost, "missing-id", models.VoteUp)
	assert.ErrorIs(t, err, ErrTargetNotFound)
}

func (suite *VoteServiceTestSuite) TestInvalidInput() {
	t := suite.T()

	_, err := suite.service.CastVote(suite.voter.ID, TargetPost, suite.post.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidDirection)

	_, err = suite.service.CastVote(suite.voter.ID, "story", suite.post.ID, models.VoteUp)
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func (suite *VoteServiceTestSuite) TestGetVote() {
	t := suite.T()

	current, err := suite.service.GetVote(suite.voter.ID, TargetPost, suite.post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VoteType(0), current)

	_, err = suite.service.CastVote(suite.voter.ID, TargetPost, suite.post.ID, models.VoteDown)
	require.NoError(t, err)

	current, err = suite.service.GetVote(suite.voter.ID, TargetPost, suite.post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VoteDown, current)
}

func (suite *VoteServiceTestSuite) TestUpvoteMilestoneNotification() {
	t := suite.T()

	// One upvote away from the first milestone
	require.NoError(t, suite.db.Model(suite.post).UpdateColumn("upvotes", 9).Error)

	_, err := suite.service.CastVote(suite.voter.ID, TargetPost, suite.post.ID, models.VoteUp)
	require.NoError(t, err)

	var notification models.Notification
	require.NoError(t, suite.db.Where("user_id = ?", suite.user.ID).First(&notification).Error)
	assert.Equal(t, models.NotificationMilestone, notification.Type)
	require.NotNil(t, notification.RelatedPostID)
	assert.Equal(t, suite.post.ID, *notification.RelatedPostID)
}

func (suite *VoteServiceTestSuite) TestNoMilestoneNotificationForSelfVote() {
	t := suite.T()

	require.NoError(t, suite.db.Model(suite.post).UpdateColumn("upvotes", 9).Error)

	_, err := suite.service.CastVote(suite.user.ID, TargetPost, suite.post.ID, models.VoteUp)
	require.NoError(t, err)

	var count int64
	suite.db.Model(&models.Notification{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func (suite *VoteServiceTestSuite) TestEngineAgainstService() {
	t := suite.T()

	// Drive the optimistic engine end to end against the real service.
	store := NewServiceStore(suite.service, suite.voter.ID)
	engine := NewEngine(store, &Session{UserID: suite.voter.ID}, VoteState{
		TargetKind: TargetPost,
		TargetID:   suite.post.ID,
		Upvotes:    suite.post.Upvotes,
		Downvotes:  suite.post.Downvotes,
	})

	require.NoError(t, engine.CastVote(context.Background(), models.VoteUp))
	engine.Wait()

	// Optimistic state and authoritative counters agree.
	state := engine.State()
	var post models.Post
	require.NoError(t, suite.db.First(&post, "id = ?", suite.post.ID).Error)
	assert.Equal(t, post.Upvotes, state.Upvotes)
	assert.Equal(t, post.Downvotes, state.Downvotes)

	require.NoError(t, engine.CastVote(context.Background(), models.VoteUp))
	engine.Wait()

	require.NoError(t, suite.db.First(&post, "id = ?", suite.post.ID).Error)
	assert.Equal(t, 5, post.Upvotes)
	assert.Equal(t, models.VoteType(0), engine.State().CurrentVote)
}

func TestVoteServiceTestSuite(t *testing.T) {
	suite.Run(t, new(VoteServiceTestSuite))
}
