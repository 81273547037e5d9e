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

type CommunityHandlersTestSuite struct {
	suite.Suite
	db        *gorm.DB
	router    *gin.Engine
	moderator *models.User
	member    *models.User
	community models.Community
}

func (s *CommunityHandlersTestSuite) SetupTest() {
	db, err := newTestDB()
	s.Require().NoError(err)
	s.db = db
	s.router = newTestRouter(db, newTestHandlers(db, nil))

	s.moderator, err = createTestUser(db, "moderator")
	s.Require().NoError(err)
	s.Require().NoError(db.Create(&models.UserRole{UserID: s.moderator.ID, Role: models.RoleModerator}).Error)

	s.member, err = createTestUser(db, "member")
	s.Require().NoError(err)

	s.community = models.Community{
		Name:        "Engineering",
		Description: "All things engineering",
		MemberCount: 2,
	}
	s.Require().NoError(db.Create(&s.community).Error)
}

func (s *CommunityHandlersTestSuite) TestCreateCommunityModeratorOnly() {
	body := gin.H{
		"name":        "Dorm Life",
		"description": "Roommates, RAs, laundry",
		"rules":       []string{"Be kind", "No doxxing"},
	}

	w := doJSON(s.router, http.MethodPost, "/api/v1/communities", s.member.ID, body)
	s.Equal(http.StatusForbidden, w.Code)

	w = doJSON(s.router, http.MethodPost, "/api/v1/communities", s.moderator.ID, body)
	s.Equal(http.StatusCreated, w.Code)

	var community models.Community
	s.Require().NoError(s.db.First(&community, "name = ?", "Dorm Life").Error)
	s.Equal(models.StringArray{"Be kind", "No doxxing"}, community.Rules)
	s.Equal(s.moderator.ID, *community.CreatedBy)
}

func (s *CommunityHandlersTestSuite) TestCreateDuplicateName() {
	w := doJSON(s.router, http.MethodPost, "/api/v1/communities", s.moderator.ID, gin.H{"name": "Engineering"})
	s.Equal(http.StatusConflict, w.Code)
}

func (s *CommunityHandlersTestSuite) TestListOrderedByMembers() {
	small := models.Community{Name: "Tiny", MemberCount: 0}
	s.Require().NoError(s.db.Create(&small).Error)

	w := doJSON(s.router, http.MethodGet, "/api/v1/communities", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Communities []struct {
			Name string `json:"name"`
		} `json:"communities"`
	}
	decodeBody(&s.Suite, w.Body.Bytes(), &resp)

	s.Require().Len(resp.Communities, 2)
	s.Equal("Engineering", resp.Communities[0].Name)
}

func (s *CommunityHandlersTestSuite) TestJoinBumpsMemberCount() {
	w := doJSON(s.router, http.MethodPost, fmt.Sprintf("/api/v1/communities/%s/join", s.community.ID), s.member.ID, nil)
	s.Equal(http.StatusOK, w.Code)

	var community models.Community
	s.Require().NoError(s.db.First(&community, "id = ?", s.community.ID).Error)
	s.Equal(3, community.MemberCount)

	// Joining twice is a conflict and must not bump again
	w = doJSON(s.router, http.MethodPost, fmt.Sprintf("/api/v1/communities/%s/join", s.community.ID), s.member.ID, nil)
	s.Equal(http.StatusConflict, w.Code)

	s.Require().NoError(s.db.First(&community, "id = ?", s.community.ID).Error)
	s.Equal(3, community.MemberCount)
}

func (s *CommunityHandlersTestSuite) TestLeaveCommunity() {
	w := doJSON(s.router, http.MethodPost, fmt.Sprintf("/api/v1/communities/%s/leave", s.community.ID), s.member.ID, nil)
	s.Equal(http.StatusNotFound, w.Code, "not a member yet")

	doJSON(s.router, http.MethodPost, fmt.Sprintf("/api/v1/communities/%s/join", s.community.ID), s.member.ID, nil)
	w = doJSON(s.router, http.MethodPost, fmt.Sprintf("/api/v1/communities/%s/leave", s.community.ID), s.member.ID, nil)
	s.Equal(http.StatusOK, w.Code)

	var community models.Community
	s.Require().NoError(s.db.First(&community, "id = ?", s.community.ID).Error)
	s.Equal(2, community.MemberCount)
}

func (s *CommunityHandlersTestSuite) TestGetCommunityMembershipFlag() {
	doJSON(s.router, http.MethodPost, fmt.Sprintf("/api/v1/communities/%s/join", s.community.ID), s.member.ID, nil)

	w := doJSON(s.router, http.MethodGet, fmt.Sprintf("/api/v1/communities/%s", s.community.ID), s.member.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		IsMember bool `json:"is_member"`
	}
	decodeBody(&s.Suite, w.Body.Bytes(), &resp)
	s.True(resp.IsMember)

	// Anonymous readers get no membership flag
	w = doJSON(s.router, http.MethodGet, fmt.Sprintf("/api/v1/communities/%s", s.community.ID), "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.NotContains(w.Body.String(), "is_member")
}

func (s *CommunityHandlersTestSuite) TestGetCommunityNotFound() {
	w := doJSON(s.router, http.MethodGet, "/api/v1/communities/missing", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func TestCommunityHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(CommunityHandlersTestSuite))
}
