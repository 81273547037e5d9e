package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/unsaid-app/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection
func Initialize() error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		// Fallback to individual components
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "postgres")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "unsaid")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	// Configure GORM logger
	gormLogger := logger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := InstrumentMetrics(db); err != nil {
		return fmt.Errorf("failed to register metrics callbacks: %w", err)
	}

	DB = db
	log.Println("✅ Database connected successfully")

	return nil
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	// Enable UUID extension for PostgreSQL
	err := DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
	if err != nil {
		log.Printf("Warning: Could not create uuid-ossp extension: %v", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.UserRole{},
		&models.PasswordReset{},
		&models.Community{},
		&models.CommunityMembership{},
		&models.Post{},
		&models.Comment{},
		&models.Vote{},
		&models.Notification{},
		&models.Report{},
		&models.ChatConversation{},
		&models.ChatMessage{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("✅ Database migrations completed")
	return nil
}

// createIndexes creates performance and integrity indexes
func createIndexes() error {
	// User indexes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))")

	// Post indexes for feed queries: pinned first, newest first
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_pinned_created ON posts (is_pinned DESC, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_type_created ON posts (post_type, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_community_created ON posts (community_id, created_at DESC) WHERE community_id IS NOT NULL")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_user_created ON posts (user_id, created_at DESC)")

	// Comment indexes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments (post_id, created_at ASC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_comments_parent ON comments (parent_id) WHERE parent_id IS NOT NULL")

	// Vote integrity: at most one vote per (user, target) pair
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_user_post ON votes (user_id, post_id) WHERE post_id IS NOT NULL")
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_user_comment ON votes (user_id, comment_id) WHERE comment_id IS NOT NULL")

	// Notification indexes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications (user_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications (user_id) WHERE is_read = false")

	// Community membership: one membership per (user, community)
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_memberships_unique ON community_memberships (community_id, user_id)")

	// Chat indexes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_chat_conversations_user_updated ON chat_conversations (user_id, updated_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_chat_messages_conversation_created ON chat_messages (conversation_id, created_at ASC)")

	// Identity-protecting projection: list/detail reads can go through
	// posts_public so anonymous and pseudonymous rows never expose user_id.
	DB.Exec(`CREATE OR REPLACE VIEW posts_public AS
		SELECT id, title, content, post_type, identity_type, pseudonym,
		       upvotes, downvotes, comment_count, community_id,
		       CASE WHEN identity_type = 'named' THEN user_id ELSE NULL END AS user_id,
		       is_pinned, is_demo, created_at, updated_at
		FROM posts WHERE deleted_at IS NULL`)

	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
