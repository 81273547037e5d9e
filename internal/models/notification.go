package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType categorizes a notification
type NotificationType string

const (
	NotificationComment    NotificationType = "comment"
	NotificationReply      NotificationType = "reply"
	NotificationBestAnswer NotificationType = "best_answer"
	NotificationMilestone  NotificationType = "vote_milestone"
)

// Notification is a stored notification row for a user. Delivery is the
// client's concern; the server only records and marks them read.
type Notification struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	Type    NotificationType `gorm:"not null" json:"type"`
	Title   string           `gorm:"not null" json:"title"`
	Message string           `gorm:"type:text" json:"message"`

	RelatedPostID    *string `gorm:"type:uuid" json:"related_post_id,omitempty"`
	RelatedCommentID *string `gorm:"type:uuid" json:"related_comment_id,omitempty"`

	IsRead bool `gorm:"default:false;index" json:"is_read"`

	CreatedAt time.Time `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	return nil
}
