package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StringArray is a custom type for PostgreSQL text[] that implements Scanner and Valuer
type StringArray []string

// Scan implements the sql.Scanner interface for reading from database
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	// PostgreSQL returns text[] as a string like "{value1,value2,value3}"
	str, ok := value.(string)
	if !ok {
		if bytes, ok := value.([]byte); ok {
			str = string(bytes)
		} else {
			*a = nil
			return nil
		}
	}

	str = strings.TrimPrefix(str, "{")
	str = strings.TrimSuffix(str, "}")

	if str == "" {
		*a = []string{}
		return nil
	}

	*a = strings.Split(str, ",")
	return nil
}

// Value implements the driver.Valuer interface for writing to database
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	if len(a) == 0 {
		return "{}", nil
	}
	return "{" + strings.Join(a, ",") + "}", nil
}

// AppRole is a moderation role assigned to a user
type AppRole string

const (
	RoleAdmin     AppRole = "admin"
	RoleModerator AppRole = "moderator"
	RoleUser      AppRole = "user"
)

// User represents a student account. Profile fields live on the user row;
// the identity shown on posts and comments is controlled per-post by
// IdentityType, never by the account itself.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`

	PasswordHash *string `gorm:"type:text" json:"-"`

	// Profile data
	DisplayName        string `json:"display_name"`
	Bio                string `gorm:"type:text" json:"bio"`
	AvatarURL          string `json:"avatar_url"`
	IsAnonymousDefault bool   `gorm:"default:false" json:"is_anonymous_default"`

	// Activity tracking
	LastActiveAt *time.Time `json:"last_active_at"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// UserRole grants a moderation role to a user
type UserRole struct {
	ID     string  `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string  `gorm:"not null;index" json:"user_id"`
	User   User    `gorm:"foreignKey:UserID" json:"-"`
	Role   AppRole `gorm:"not null;default:user" json:"role"`

	CreatedAt time.Time `json:"created_at"`
}

// PasswordReset represents password reset tokens
type PasswordReset struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Token     string    `gorm:"uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Used      bool      `gorm:"default:false" json:"used"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hooks for GORM
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

func (r *UserRole) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}

func (p *PasswordReset) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

// Helper function for UUID generation
func generateUUID() string {
	return uuid.New().String()
}
