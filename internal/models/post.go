package models

import (
	"time"

	"gorm.io/gorm"
)

// PostType categorizes a post
type PostType string

const (
	PostTypeConfession PostType = "confession"
	PostTypeQuestion   PostType = "question"
	PostTypeRant       PostType = "rant"
	PostTypeAdvice     PostType = "advice"
	PostTypeDiscussion PostType = "discussion"
)

// ValidPostType reports whether t is a known post type
func ValidPostType(t PostType) bool {
	switch t {
	case PostTypeConfession, PostTypeQuestion, PostTypeRant, PostTypeAdvice, PostTypeDiscussion:
		return true
	}
	return false
}

// IdentityType controls how the author is displayed
type IdentityType string

const (
	IdentityAnonymous    IdentityType = "anonymous"
	IdentityPseudonymous IdentityType = "pseudonymous"
	IdentityNamed        IdentityType = "named"
)

// ValidIdentityType reports whether t is a known identity type
func ValidIdentityType(t IdentityType) bool {
	switch t {
	case IdentityAnonymous, IdentityPseudonymous, IdentityNamed:
		return true
	}
	return false
}

// Post represents a student post (confession, question, rant, advice, discussion)
type Post struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"-"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	Title   string `gorm:"not null" json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`

	PostType     PostType     `gorm:"not null;index" json:"post_type"`
	IdentityType IdentityType `gorm:"not null;default:anonymous" json:"identity_type"`
	Pseudonym    *string      `json:"pseudonym,omitempty"`

	// Aggregate counters. Mutated only through atomic column expressions so
	// concurrent voters never clobber each other's update.
	Upvotes      int `gorm:"default:0" json:"upvotes"`
	Downvotes    int `gorm:"default:0" json:"downvotes"`
	CommentCount int `gorm:"default:0" json:"comment_count"`

	CommunityID *string    `gorm:"type:uuid;index" json:"community_id,omitempty"`
	Community   *Community `gorm:"foreignKey:CommunityID" json:"community,omitempty"`

	IsPinned bool `gorm:"default:false" json:"is_pinned"`
	IsDemo   bool `gorm:"default:false" json:"is_demo"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Score is the derived vote total and may be negative
func (p *Post) Score() int {
	return p.Upvotes - p.Downvotes
}

// DisplayName returns the author name to show for this post
func (p *Post) DisplayName() string {
	switch p.IdentityType {
	case IdentityPseudonymous:
		if p.Pseudonym != nil && *p.Pseudonym != "" {
			return *p.Pseudonym
		}
		return "Anonymous"
	case IdentityNamed:
		if p.User.DisplayName != "" {
			return p.User.DisplayName
		}
		return p.User.Username
	default:
		return "Anonymous"
	}
}

// AuthorVisible reports whether the raw author id may be exposed to readers.
// Mirrors the posts_public projection: anonymous and pseudonymous rows never
// reveal user_id.
func (p *Post) AuthorVisible() bool {
	return p.IdentityType == IdentityNamed
}

// Community is a topical group that posts can be filed under
type Community struct {
	ID          string      `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string      `gorm:"uniqueIndex;not null" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Icon        string      `json:"icon"`
	Rules       StringArray `gorm:"type:text[]" json:"rules"`

	MemberCount int `gorm:"default:0" json:"member_count"`

	CreatedBy *string `gorm:"type:uuid" json:"created_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommunityMembership records that a user joined a community
type CommunityMembership struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	CommunityID string    `gorm:"not null;index" json:"community_id"`
	Community   Community `gorm:"foreignKey:CommunityID" json:"-"`
	UserID      string    `gorm:"not null;index" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName ensures unique constraint: one membership per user per community
func (CommunityMembership) TableName() string {
	return "community_memberships"
}

// ReportStatus represents the status of a moderation report
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusReviewing ReportStatus = "reviewing"
	ReportStatusResolved  ReportStatus = "resolved"
	ReportStatusDismissed ReportStatus = "dismissed"
)

// Report represents a user report for moderation
type Report struct {
	ID         string  `gorm:"primaryKey;type:uuid" json:"id"`
	ReporterID *string `gorm:"type:uuid;index" json:"reporter_id,omitempty"`

	PostID    *string `gorm:"type:uuid;index" json:"post_id,omitempty"`
	CommentID *string `gorm:"type:uuid;index" json:"comment_id,omitempty"`

	Reason     string       `gorm:"type:text;not null" json:"reason"`
	Status     ReportStatus `gorm:"default:pending" json:"status"`
	ReviewedBy *string      `gorm:"type:uuid" json:"reviewed_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

func (c *Community) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (m *CommunityMembership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}
