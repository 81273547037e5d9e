package voting

import (
	"errors"
	"fmt"

	"github.com/unsaid-app/backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrTargetNotFound   = errors.New("vote target not found")
	ErrInvalidTarget    = errors.New("invalid vote target kind")
	ErrInvalidDirection = errors.New("invalid vote direction")
)

// TargetKind identifies what a vote applies to.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// Result is the authoritative vote state after a cast operation.
type Result struct {
	TargetKind  TargetKind      `json:"target_kind"`
	TargetID    string          `json:"target_id"`
	CurrentVote models.VoteType `json:"current_vote"` // 0 when no active vote
	Upvotes     int             `json:"upvotes"`
	Downvotes   int             `json:"downvotes"`
}

// Milestones at which a post author gets notified about upvotes.
var upvoteMilestones = []int{10, 50, 100, 500}

// Service applies votes server-side. All counter updates run inside a
// single transaction so concurrent casts against the same target never
// lose increments.
type Service struct {
	db *gorm.DB
}

// NewService creates a vote service bound to a database handle.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CastVote applies a vote by userID on the given target with toggle
// semantics: casting the same direction twice retracts the vote, casting
// the opposite direction switches it. Returns the authoritative state.
func (s *Service) CastVote(userID string, kind TargetKind, targetID string, direction models.VoteType) (*Result, error) {
	if direction != models.VoteUp && direction != models.VoteDown {
		return nil, ErrInvalidDirection
	}
	if kind != TargetPost && kind != TargetComment {
		return nil, ErrInvalidTarget
	}

	result := &Result{TargetKind: kind, TargetID: targetID}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.targetExists(tx, kind, targetID); err != nil {
			return err
		}

		existing, err := s.findVote(tx, userID, kind, targetID)
		if err != nil {
			return err
		}

		var upDelta, downDelta int

		switch {
		case existing == nil:
			// New vote
			vote := models.Vote{UserID: userID, VoteType: direction}
			if kind == TargetPost {
				vote.PostID = &targetID
			} else {
				vote.CommentID = &targetID
			}
			if err := tx.Create(&vote).Error; err != nil {
				return fmt.Errorf("failed to create vote: %w", err)
			}
			upDelta, downDelta = voteEffect(direction)
			result.CurrentVote = direction

		case existing.VoteType == direction:
			// Same direction toggles the vote off
			if err := tx.Delete(existing).Error; err != nil {
				return fmt.Errorf("failed to delete vote: %w", err)
			}
			u, d := voteEffect(direction)
			upDelta, downDelta = -u, -d
			result.CurrentVote = 0

		default:
			// Switch direction
			if err := tx.Model(existing).Update("vote_type", direction).Error; err != nil {
				return fmt.Errorf("failed to update vote: %w", err)
			}
			oldUp, oldDown := voteEffect(existing.VoteType)
			newUp, newDown := voteEffect(direction)
			upDelta, downDelta = newUp-oldUp, newDown-oldDown
			result.CurrentVote = direction
		}

		if err := s.applyCounterDeltas(tx, kind, targetID, upDelta, downDelta); err != nil {
			return err
		}

		up, down, err := s.loadCounters(tx, kind, targetID)
		if err != nil {
			return err
		}
		result.Upvotes = up
		result.Downvotes = down

		if kind == TargetPost && upDelta > 0 {
			s.maybeNotifyMilestone(tx, userID, targetID, up)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetVote returns the user's active vote on a target, or 0 if none.
func (s *Service) GetVote(userID string, kind TargetKind, targetID string) (models.VoteType, error) {
	vote, err := s.findVote(s.db, userID, kind, targetID)
	if err != nil {
		return 0, err
	}
	if vote == nil {
		return 0, nil
	}
	return vote.VoteType, nil
}

func (s *Service) targetExists(tx *gorm.DB, kind TargetKind, targetID string) error {
	var count int64
	var err error
	if kind == TargetPost {
		err = tx.Model(&models.Post{}).Where("id = ?", targetID).Count(&count).Error
	} else {
		err = tx.Model(&models.Comment{}).Where("id = ?", targetID).Count(&count).Error
	}
	if err != nil {
		return fmt.Errorf("failed to look up target: %w", err)
	}
	if count == 0 {
		return ErrTargetNotFound
	}
	return nil
}

func (s *Service) findVote(tx *gorm.DB, userID string, kind TargetKind, targetID string) (*models.Vote, error) {
	var vote models.Vote
	q := tx.Where("user_id = ?", userID)
	if kind == TargetPost {
		q = q.Where("post_id = ?", targetID)
	} else {
		q = q.Where("comment_id = ?", targetID)
	}
	err := q.First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up vote: %w", err)
	}
	return &vote, nil
}

func (s *Service) applyCounterDeltas(tx *gorm.DB, kind TargetKind, targetID string, upDelta, downDelta int) error {
	var model interface{}
	if kind == TargetPost {
		model = &models.Post{}
	} else {
		model = &models.Comment{}
	}

	updates := map[string]interface{}{}
	if upDelta != 0 {
		updates["upvotes"] = gorm.Expr("upvotes + ?", upDelta)
	}
	if downDelta != 0 {
		updates["downvotes"] = gorm.Expr("downvotes + ?", downDelta)
	}
	if len(updates) == 0 {
		return nil
	}

	if err := tx.Model(model).Where("id = ?", targetID).UpdateColumns(updates).Error; err != nil {
		return fmt.Errorf("failed to update vote counters: %w", err)
	}
	return nil
}

func (s *Service) loadCounters(tx *gorm.DB, kind TargetKind, targetID string) (int, int, error) {
	var row struct {
		Upvotes   int
		Downvotes int
	}
	var err error
	if kind == TargetPost {
		err = tx.Model(&models.Post{}).Select("upvotes", "downvotes").Where("id = ?", targetID).Scan(&row).Error
	} else {
		err = tx.Model(&models.Comment{}).Select("upvotes", "downvotes").Where("id = ?", targetID).Scan(&row).Error
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load counters: %w", err)
	}
	return row.Upvotes, row.Downvotes, nil
}

// maybeNotifyMilestone notifies a post author the first time upvotes reach
// a milestone. Failures are ignored, notifications are best effort.
func (s *Service) maybeNotifyMilestone(tx *gorm.DB, voterID, postID string, upvotes int) {
	milestone := 0
	for _, m := range upvoteMilestones {
		if upvotes == m {
			milestone = m
			break
		}
	}
	if milestone == 0 {
		return
	}

	var post models.Post
	if err := tx.Select("id", "user_id", "title").Where("id = ?", postID).First(&post).Error; err != nil {
		return
	}
	if post.UserID == voterID {
		return
	}

	notification := models.Notification{
		UserID:        post.UserID,
		Type:          models.NotificationMilestone,
		Title:         fmt.Sprintf("Your post reached %d upvotes", milestone),
		Message:       post.Title,
		RelatedPostID: &postID,
	}
	tx.Create(&notification)
}

// voteEffect returns the (upvotes, downvotes) contribution of a vote.
func voteEffect(direction models.VoteType) (int, int) {
	if direction == models.VoteUp {
		return 1, 0
	}
	return 0, 1
}
