package server

import (
	"log"
	"strings"
	"time"

	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/config"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/middleware"
	"github.com/Emiliano-Blackbird/my-wood-desktop/pkg/storage"

	chatHttp "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/chat/delivery/http"
	chatRepo "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/chat/repository"
	chatService "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/chat/service"

	notiHttp "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/notification/delivery/http"
	notifRepo "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/notification/repository"
	notifService "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/notification/service"

	postHttp "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/post/delivery/http"
	postRepo "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/post/repository"
	postService "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/post/service"

	searchHttp "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/search/delivery/http"
	searchService "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/search/service"

	socialHttp "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/social/delivery/http"
	socialRepo "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/social/repository"
	socialService "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/social/service"

	studyHttp "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/study/delivery/http"
	studyRepo "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/study/repository"
	studyService "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/study/service"

	userHttp "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/user/delivery/http"
	userRepo "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/user/repository"
	userService "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	users := userRepo.NewUserRepository(db)

	var imageStorage storage.ImageStorage
	if cfg.CloudinaryCloudName != "" {
		var err error
		imageStorage, err = storage.NewCloudinaryStorage()
		if err != nil {
			log.Fatalf("failed to initialize cloudinary storage: %v", err)
		}
	} else {
		log.Println("cloudinary not configured, image uploads disabled")
	}

	meiliHost := cfg.MeiliSearchHost
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	searchSvc := searchService.NewSearchService(meiliClient)
	searchHandler := searchHttp.NewSearchHandler(searchSvc)

	authSvc := userService.NewAuthService(users)
	authHandler := userHttp.NewAuthHandler(authSvc)

	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient)

	socialRepository := socialRepo.NewSocialRepository(db)
	socialSvc := socialService.NewSocialService(db, socialRepository, users, notificationSvc, imageStorage)
	socialHandler := socialHttp.NewSocialHandler(socialSvc)

	chatRepository := chatRepo.NewChatRepository(db)
	chatSvc := chatService.NewChatService(db, chatRepository, users, redisClient, cfg.RateLimitMessage)
	chatHandler := chatHttp.NewChatHandler(chatSvc)

	postRepository := postRepo.NewPostRepository(db)
	postSvc := postService.NewPostService(postRepository, users, imageStorage, searchSvc, redisClient, cfg.RateLimitPost)
	postHandler := postHttp.NewPostHandler(postSvc)

	studyRepository := studyRepo.NewStudyRepository(db)
	studySvc := studyService.NewStudyService(studyRepository)
	studyHandler := studyHttp.NewStudyHandler(studySvc)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	setupCORS(router, cfg.AllowedOrigins)

	authMiddleware := middleware.NewAuthMiddleware()

	api := router.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	public := api.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		public.GET("/feed", postHandler.Feed)
		public.GET("/posts/:id", postHandler.GetPost)
		public.GET("/users/:username/posts", postHandler.ListByUser)
		public.GET("/profiles/:username", socialHandler.GetProfile)
		public.GET("/search/posts", searchHandler.SearchPosts)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// User routes
		protected.GET("/me", authHandler.Me)
		protected.GET("/users/search", authHandler.SearchUsers)

		// Profile routes
		protected.PUT("/profile", socialHandler.UpdateProfile)
		protected.POST("/profile/picture", socialHandler.UploadProfilePicture)

		// Friend routes
		protected.POST("/friends/requests", socialHandler.SendFriendRequest)
		protected.GET("/friends/requests", socialHandler.ListPendingRequests)
		protected.PUT("/friends/requests/:id/accept", socialHandler.AcceptFriendRequest)
		protected.PUT("/friends/requests/:id/reject", socialHandler.RejectFriendRequest)
		protected.GET("/friends", socialHandler.ListFriends)
		protected.DELETE("/friends/:username", socialHandler.RemoveFriend)

		// Follow routes
		protected.POST("/follows", socialHandler.Follow)
		protected.DELETE("/follows", socialHandler.Unfollow)

		// Chat routes
		protected.POST("/conversations", chatHandler.StartConversation)
		protected.GET("/conversations", chatHandler.ListConversations)
		protected.DELETE("/conversations/:id", chatHandler.DeleteConversation)
		protected.POST("/conversations/:id/messages", chatHandler.SendMessage)
		protected.GET("/conversations/:id/messages", chatHandler.ListMessages)
		protected.PUT("/conversations/:id/read", chatHandler.MarkRead)
		protected.GET("/conversations/:id/unread-count", chatHandler.UnreadCount)

		// Post routes
		protected.POST("/posts", postHandler.CreatePost)
		protected.PUT("/posts/:id", postHandler.UpdatePost)
		protected.DELETE("/posts/:id", postHandler.DeletePost)
		protected.POST("/posts/:id/like", postHandler.ToggleLike)
		protected.POST("/posts/:id/save", postHandler.ToggleSave)
		protected.GET("/posts/saved", postHandler.ListSaved)

		// Study routes
		protected.POST("/study/sessions", studyHandler.StartSession)
		protected.PUT("/study/sessions/:id/end", studyHandler.EndSession)
		protected.GET("/study/sessions", studyHandler.ListSessions)
		protected.GET("/study/sessions/active", studyHandler.ActiveSessions)
		protected.GET("/study/stats", studyHandler.Stats)
		protected.GET("/study/pomodoro", studyHandler.GetPomodoro)
		protected.PUT("/study/pomodoro", studyHandler.UpdatePomodoro)
		protected.POST("/study/alarms", studyHandler.CreateAlarm)
		protected.GET("/study/alarms", studyHandler.ListAlarms)
		protected.PUT("/study/alarms/:id", studyHandler.UpdateAlarm)
		protected.DELETE("/study/alarms/:id", studyHandler.DeleteAlarm)
		protected.POST("/study/postits", studyHandler.CreatePostIt)
		protected.GET("/study/postits", studyHandler.ListPostIts)
		protected.PUT("/study/postits/:id", studyHandler.UpdatePostIt)
		protected.DELETE("/study/postits/:id", studyHandler.DeletePostIt)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.PUT("/notifications/:id/dismiss", notificationHandler.Dismiss)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
