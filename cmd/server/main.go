package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unsaid-app/backend/internal/auth"
	"github.com/unsaid-app/backend/internal/cache"
	"github.com/unsaid-app/backend/internal/chat"
	"github.com/unsaid-app/backend/internal/config"
	"github.com/unsaid-app/backend/internal/database"
	"github.com/unsaid-app/backend/internal/handlers"
	"github.com/unsaid-app/backend/internal/logger"
	"github.com/unsaid-app/backend/internal/metrics"
	"github.com/unsaid-app/backend/internal/middleware"
	"github.com/unsaid-app/backend/internal/voting"
	"go.uber.org/zap"
)

func main() {
	// .env is optional, system environment still applies
	_ = godotenv.Load()

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Close()

	logger.Log.Info("Unsaid backend starting")

	if err := database.Initialize(); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	// Redis is optional: without it, rate limiting falls back to pass-through
	redisHost := os.Getenv("REDIS_HOST")
	if redisHost != "" {
		redisClient, err := cache.NewRedisClient(redisHost, os.Getenv("REDIS_PORT"), os.Getenv("REDIS_PASSWORD"))
		if err != nil {
			logger.WarnWithFields("Redis unavailable, rate limiting disabled", err)
		} else {
			defer redisClient.Close()
		}
	}

	metrics.Initialize()

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}
	authService := auth.NewService(jwtSecret)

	voteService := voting.NewService(database.DB)

	chatConfig, err := config.LoadChatConfig()
	if err != nil {
		logger.FatalWithFields("Failed to load chat config", err)
	}
	chatService := chat.NewService(database.DB, chat.NewClient(chatConfig))

	h := handlers.NewHandlers(authService, voteService, chatService)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Tighten for production deployments
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "unsaid-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.Use(middleware.RedisRateLimitMiddleware(10, time.Minute))
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/password-reset/request", h.RequestPasswordReset)
			authGroup.POST("/password-reset/confirm", h.ResetPassword)
			authGroup.GET("/me", h.AuthMiddleware(), h.Me)
		}

		// Reading is open to everyone; the optional middleware only enriches
		// responses with the caller's vote and membership state
		public := api.Group("")
		public.Use(h.OptionalAuthMiddleware())
		{
			public.GET("/posts", h.GetFeed)
			public.GET("/posts/:id", h.GetPost)
			public.GET("/posts/:id/comments", h.GetComments)
			public.GET("/communities", h.GetCommunities)
			public.GET("/communities/:id", h.GetCommunity)
			public.GET("/users/:username", h.GetProfile)
		}

		private := api.Group("")
		private.Use(h.AuthMiddleware())
		private.Use(middleware.RedisRateLimitMiddleware(120, time.Minute))
		{
			private.POST("/posts", h.CreatePost)
			private.PUT("/posts/:id", h.UpdatePost)
			private.DELETE("/posts/:id", h.DeletePost)
			private.POST("/posts/:id/pin", h.PinPost)
			private.POST("/posts/:id/comments", h.CreateComment)
			private.POST("/posts/:id/vote", h.VoteOnPost)
			private.GET("/posts/:id/vote", h.GetPostVote)

			private.DELETE("/comments/:id", h.DeleteComment)
			private.POST("/comments/:id/best-answer", h.MarkBestAnswer)
			private.POST("/comments/:id/vote", h.VoteOnComment)
			private.GET("/comments/:id/vote", h.GetCommentVote)

			private.POST("/communities", h.CreateCommunity)
			private.POST("/communities/:id/join", h.JoinCommunity)
			private.POST("/communities/:id/leave", h.LeaveCommunity)

			private.GET("/notifications", h.GetNotifications)
			private.GET("/notifications/count", h.GetNotificationCount)
			private.POST("/notifications/:id/read", h.MarkNotificationRead)
			private.POST("/notifications/read-all", h.MarkAllNotificationsRead)

			private.PUT("/users/me", h.UpdateProfile)
			private.GET("/users/me/posts", h.GetMyPosts)

			private.GET("/chat/conversations", h.GetConversations)
			private.GET("/chat/conversations/:id", h.GetConversation)
			private.DELETE("/chat/conversations/:id", h.DeleteConversation)
			private.POST("/chat/messages", h.SendChatMessage)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8787"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("Listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.FatalWithFields("Server forced to shutdown", err)
	}

	logger.Log.Info("Server exited")
}
