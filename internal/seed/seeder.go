package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/unsaid-app/backend/internal/logger"
	"github.com/unsaid-app/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

var communityTemplates = []struct {
	name        string
	description string
	icon        string
	rules       []string
}{
	{"Engineering", "CS, EE, and everything that compiles or catches fire", "🔧", []string{"No homework dumping", "Mark exam threads with the course code"}},
	{"Dorm Life", "Roommates, RAs, laundry, and the mysteries of the shared fridge", "🏠", []string{"No room numbers or names", "Be kind"}},
	{"Mental Health", "A softer corner. Vent, ask, support.", "💙", []string{"No medical advice", "Report anything concerning"}},
	{"Campus Food", "Dining hall reviews and late night delivery strategy", "🍜", []string{"Rate honestly", "No brigading the taco stand"}},
	{"Career & Internships", "Offers, rejections, referrals, and resume roasts", "💼", []string{"Redact company recruiters' names", "No offer-shaming"}},
}

var postPrompts = []struct {
	postType models.PostType
	titles   []string
}{
	{models.PostTypeConfession, []string{
		"I have been pretending to understand recursion for two years",
		"I actually like 8am lectures",
		"I cried in the library bathroom before my midterm",
	}},
	{models.PostTypeQuestion, []string{
		"How do you actually make friends in third year?",
		"Is it worth retaking a course for a B+?",
		"Does anyone else's advisor just never reply?",
	}},
	{models.PostTypeRant, []string{
		"Group projects are a scam and I can prove it",
		"Whoever keeps microwaving fish in the lounge, we need to talk",
		"The registrar's office exists in a different timezone apparently",
	}},
	{models.PostTypeAdvice, []string{
		"Take the easy elective, your GPA will thank you",
		"Office hours are free tutoring, go to them",
		"Get a cheap slow cooker, thank me in December",
	}},
	{models.PostTypeDiscussion, []string{
		"What class completely changed how you think?",
		"Best study spots that aren't the library?",
		"Unpopular opinion: semester breaks are too long",
	}},
}

var pseudonyms = []string{
	"NightOwl", "CoffeeDependent", "ThirdYearGhost", "LibraryGremlin",
	"QuietKid", "DeadlineSurfer", "AnonymousAlpaca", "CampusCryptid",
}

// SeedDev seeds the development database with realistic demo data
func (s *Seeder) SeedDev() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating users...")
	users, err := s.seedUsers(30)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	log("Creating communities...")
	communities, err := s.seedCommunities(users)
	if err != nil {
		return fmt.Errorf("failed to seed communities: %w", err)
	}

	log("Creating posts...")
	posts, err := s.seedPosts(users, communities, 80)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	log("Creating comments...")
	if err := s.seedComments(users, posts, 200); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	log("Creating votes...")
	if err := s.seedVotes(users, posts); err != nil {
		return fmt.Errorf("failed to seed votes: %w", err)
	}

	log("Creating memberships...")
	if err := s.seedMemberships(users, communities); err != nil {
		return fmt.Errorf("failed to seed memberships: %w", err)
	}

	return nil
}

// SeedTest seeds the test database with a minimal, predictable fixture set
func (s *Seeder) SeedTest() error {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	hashStr := string(hash)

	fixtures := []models.User{
		{Email: "alice@test.edu", Username: "alice", DisplayName: "Alice", PasswordHash: &hashStr},
		{Email: "bob@test.edu", Username: "bob", DisplayName: "Bob", PasswordHash: &hashStr},
		{Email: "mod@test.edu", Username: "mod", DisplayName: "Mod", PasswordHash: &hashStr},
	}
	for i := range fixtures {
		if err := s.db.Where("email = ?", fixtures[i].Email).FirstOrCreate(&fixtures[i]).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", fixtures[i].Username, err)
		}
	}

	role := models.UserRole{UserID: fixtures[2].ID, Role: models.RoleModerator}
	if err := s.db.Where("user_id = ?", fixtures[2].ID).FirstOrCreate(&role).Error; err != nil {
		return fmt.Errorf("failed to grant moderator role: %w", err)
	}

	return nil
}

// Clean removes all seeded data, in reverse order of dependencies
func (s *Seeder) Clean() error {
	tables := []string{
		"notifications",
		"votes",
		"comments",
		"chat_messages",
		"chat_conversations",
		"community_memberships",
		"posts",
		"communities",
		"reports",
		"password_resets",
		"user_roles",
		"users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	// Reuse existing demo users when present so reseeding stays idempotent
	var existing []models.User
	s.db.Where("email LIKE '%@demo.edu'").Find(&existing)
	if len(existing) >= count {
		logger.Log.Info("Found existing demo users, skipping creation",
			zap.Int("users", len(existing)))
		return existing, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashStr := string(hash)

	users := existing
	for i := len(existing); i < count; i++ {
		username := gofakeit.Username()
		var clash models.User
		for {
			err := s.db.Where("username = ?", username).First(&clash).Error
			if err == gorm.ErrRecordNotFound {
				break
			}
			username = gofakeit.Username()
		}

		user := models.User{
			Email:              fmt.Sprintf("%s@demo.edu", username),
			Username:           username,
			DisplayName:        gofakeit.Name(),
			Bio:                gofakeit.HipsterSentence(),
			AvatarURL:          fmt.Sprintf("https://api.dicebear.com/7.x/shapes/png?seed=%s", username),
			PasswordHash:       &hashStr,
			IsAnonymousDefault: rand.Float32() < 0.5,
		}
		lastActive := gofakeit.DateRange(time.Now().AddDate(0, 0, -14), time.Now())
		user.LastActiveAt = &lastActive

		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}

	logger.Log.Info("Created seed users", zap.Int("total_users", len(users)))
	return users, nil
}

func (s *Seeder) seedCommunities(users []models.User) ([]models.Community, error) {
	communities := make([]models.Community, 0, len(communityTemplates))
	for _, tpl := range communityTemplates {
		community := models.Community{
			Name:        tpl.name,
			Description: tpl.description,
			Icon:        tpl.icon,
			Rules:       models.StringArray(tpl.rules),
		}
		if len(users) > 0 {
			creator := users[rand.Intn(len(users))].ID
			community.CreatedBy = &creator
		}
		err := s.db.Where("name = ?", tpl.name).FirstOrCreate(&community).Error
		if err != nil {
			return nil, fmt.Errorf("failed to create community %s: %w", tpl.name, err)
		}
		communities = append(communities, community)
	}
	return communities, nil
}

func (s *Seeder) seedPosts(users []models.User, communities []models.Community, count int) ([]models.Post, error) {
	var posts []models.Post
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		prompt := postPrompts[rand.Intn(len(postPrompts))]

		post := models.Post{
			UserID:   author.ID,
			Title:    prompt.titles[rand.Intn(len(prompt.titles))],
			Content:  gofakeit.Paragraph(1, 3, 12, " "),
			PostType: prompt.postType,
			IsDemo:   true,
		}

		// Roughly: half anonymous, a third pseudonymous, the rest named
		switch roll := rand.Float32(); {
		case roll < 0.5:
			post.IdentityType = models.IdentityAnonymous
		case roll < 0.85:
			post.IdentityType = models.IdentityPseudonymous
			pseudonym := pseudonyms[rand.Intn(len(pseudonyms))]
			post.Pseudonym = &pseudonym
		default:
			post.IdentityType = models.IdentityNamed
		}

		if rand.Float32() < 0.6 {
			post.CommunityID = &communities[rand.Intn(len(communities))].ID
		}

		if err := s.db.Create(&post).Error; err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}

		// Backdate so the feed has some spread
		createdAt := gofakeit.DateRange(time.Now().AddDate(0, 0, -21), time.Now())
		if err := s.db.Model(&post).UpdateColumn("created_at", createdAt).Error; err != nil {
			return nil, fmt.Errorf("failed to backdate post: %w", err)
		}

		posts = append(posts, post)
	}

	logger.Log.Info("Created seed posts", zap.Int("posts", len(posts)))
	return posts, nil
}

func (s *Seeder) seedComments(users []models.User, posts []models.Post, count int) error {
	for i := 0; i < count; i++ {
		commenter := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		comment := models.Comment{
			PostID:  post.ID,
			UserID:  commenter.ID,
			Content: gofakeit.Sentence(rand.Intn(15) + 4),
		}
		if rand.Float32() < 0.6 {
			comment.IdentityType = models.IdentityAnonymous
		} else {
			comment.IdentityType = models.IdentityNamed
		}

		if err := s.db.Create(&comment).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}

		err := s.db.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
		if err != nil {
			return fmt.Errorf("failed to bump comment count: %w", err)
		}
	}
	return nil
}

func (s *Seeder) seedVotes(users []models.User, posts []models.Post) error {
	for i := range posts {
		voterCount := rand.Intn(len(users))
		perm := rand.Perm(len(users))
		for _, idx := range perm[:voterCount] {
			voter := users[idx]
			if voter.ID == posts[i].UserID {
				continue
			}

			voteType := models.VoteUp
			column := "upvotes"
			if rand.Float32() < 0.2 {
				voteType = models.VoteDown
				column = "downvotes"
			}

			vote := models.Vote{
				UserID:   voter.ID,
				PostID:   &posts[i].ID,
				VoteType: voteType,
			}
			if err := s.db.Create(&vote).Error; err != nil {
				return fmt.Errorf("failed to create vote: %w", err)
			}

			err := s.db.Model(&models.Post{}).Where("id = ?", posts[i].ID).
				UpdateColumn(column, gorm.Expr(column+" + 1")).Error
			if err != nil {
				return fmt.Errorf("failed to bump vote counter: %w", err)
			}
		}
	}
	return nil
}

func (s *Seeder) seedMemberships(users []models.User, communities []models.Community) error {
	for i := range communities {
		memberCount := rand.Intn(len(users)) + 1
		perm := rand.Perm(len(users))
		for _, idx := range perm[:memberCount] {
			membership := models.CommunityMembership{
				CommunityID: communities[i].ID,
				UserID:      users[idx].ID,
			}
			if err := s.db.Create(&membership).Error; err != nil {
				return fmt.Errorf("failed to create membership: %w", err)
			}
		}
		err := s.db.Model(&models.Community{}).Where("id = ?", communities[i].ID).
			UpdateColumn("member_count", memberCount).Error
		if err != nil {
			return fmt.Errorf("failed to set member count: %w", err)
		}
	}
	return nil
}
