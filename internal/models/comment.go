package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on a Post
type Comment struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"not null;index" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID" json:"-"`
	UserID string `gorm:"not null;index" json:"-"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	Content string `gorm:"type:text;not null" json:"content"`

	// Threading - parent_id is null for top-level comments
	ParentID *string    `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Parent   *Comment   `gorm:"foreignKey:ParentID" json:"-"`
	Replies  []*Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`

	IdentityType IdentityType `gorm:"not null;default:anonymous" json:"identity_type"`
	Pseudonym    *string      `json:"pseudonym,omitempty"`

	// Aggregate counters, same atomic-update discipline as Post
	Upvotes   int `gorm:"default:0" json:"upvotes"`
	Downvotes int `gorm:"default:0" json:"downvotes"`

	IsBestAnswer bool `gorm:"default:false" json:"is_best_answer"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Score is the derived vote total and may be negative
func (c *Comment) Score() int {
	return c.Upvotes - c.Downvotes
}

// DisplayName returns the author name to show for this comment
func (c *Comment) DisplayName() string {
	switch c.IdentityType {
	case IdentityPseudonymous:
		if c.Pseudonym != nil && *c.Pseudonym != "" {
			return *c.Pseudonym
		}
		return "Anonymous"
	case IdentityNamed:
		if c.User.DisplayName != "" {
			return c.User.DisplayName
		}
		return c.User.Username
	default:
		return "Anonymous"
	}
}

// VoteType is the signed direction of a vote: +1 or -1
type VoteType int

const (
	VoteUp   VoteType = 1
	VoteDown VoteType = -1
)

// Vote is one user's vote on a post or a comment. Exactly one of PostID and
// CommentID is set. A partial unique index enforces at most one row per
// (user, target) pair.
type Vote struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	PostID    *string `gorm:"type:uuid;index" json:"post_id,omitempty"`
	CommentID *string `gorm:"type:uuid;index" json:"comment_id,omitempty"`

	VoteType VoteType `gorm:"not null" json:"vote_type"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = generateUUID()
	}
	return nil
}
