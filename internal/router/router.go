package router

import (
	"nice/config"
	"nice/internal/handler"
	"nice/internal/middleware"
	"nice/internal/repository"
	"nice/internal/service"
	"nice/internal/ws"
	"nice/pkg/cloudinary"
	"nice/pkg/logger"
	"nice/pkg/monitoring"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(monitoring.MetricsMiddleware())

	// One shared window: public routes are keyed by IP, routes behind
	// AuthRequired by user id.
	rateMw := middleware.RateLimit(middleware.NewInMemoryRateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	forumRepo := repository.NewForumRepository(db)
	discoveryRepo := repository.NewDiscoveryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	presenceRepo := repository.NewPresenceRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	otpRepo := repository.NewOTPRepository(db)

	// Hubs
	mapHub := ws.NewMapHub()
	feedHub := ws.NewFeedHub()

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	fcmSvc := service.NewFCMService(cfg.Firebase.ServiceAccountPath)
	if fcmSvc != nil {
		logger.Log.Info("push notifications enabled")
	} else {
		logger.Log.Info("push notifications disabled; set firebase.service_account_path to enable")
	}
	notifSvc := service.NewNotificationService(notificationRepo, userRepo, fcmSvc)
	friendshipSvc := service.NewFriendshipService(friendRepo, blockRepo)
	messagingSvc := service.NewMessagingService(messageRepo, blockRepo)
	sosSvc := service.NewSOSService(cfg.SOS.GatewayURL, userRepo, auditRepo, notifSvc)
	otpSvc := service.NewOTPService(cfg.OTP.GatewayURL, cfg.OTP.Expiry, otpRepo, userRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, presenceRepo, auditRepo, userRepo)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc, presenceRepo, auditRepo)
	profileHandler := handler.NewProfileHandler(cfg, userRepo, presenceRepo, friendshipSvc, cloud, mapHub)
	friendHandler := handler.NewFriendHandler(friendshipSvc, friendRepo, blockRepo, userRepo, notifSvc)
	discoveryHandler := handler.NewDiscoveryHandler(cfg, discoveryRepo, userRepo)
	messageHandler := handler.NewMessageHandler(messagingSvc, messageRepo, userRepo, feedHub, notifSvc)
	forumHandler := handler.NewForumHandler(forumRepo, userRepo, cloud, feedHub, notifSvc)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	sosHandler := handler.NewSOSHandler(sosSvc)
	otpHandler := handler.NewOTPHandler(otpSvc)
	uploadHandler := handler.NewUploadHandler(cloud)

	authMw := middleware.AuthRequired(&cfg.JWT)

	r.GET("/metrics", monitoring.PrometheusHandler())

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authGroup.Use(rateMw)
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authMw, authHandler.Logout)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.Token)
			authGroup.POST("/otp/send", otpHandler.Send)
			authGroup.POST("/otp/verify", authMw, otpHandler.Verify)
		}

		me := api.Group("/me")
		me.Use(authMw, rateMw)
		{
			me.GET("/profile", profileHandler.Me)
			me.PUT("/profile", profileHandler.UpdateMe)
			me.POST("/profile/complete", profileHandler.CompleteProfile)
			me.POST("/avatar", profileHandler.UpdateAvatar)
			me.PATCH("/location", profileHandler.UpdateLocation)
			me.POST("/fcm-token", authHandler.UpdateFCMToken)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
			me.GET("/notifications/unread", notificationHandler.UnreadCount)
			me.GET("/friends", friendHandler.ListFriends)
			me.GET("/blocked", friendHandler.ListBlocked)
			me.GET("/forums", forumHandler.ListJoined)
			me.POST("/upload/chat", uploadHandler.UploadChatMedia)
		}

		api.GET("/discover", authMw, rateMw, discoveryHandler.Discover)
		api.GET("/map/nearby", authMw, rateMw, discoveryHandler.Nearby)
		api.GET("/users/:id", authMw, rateMw, profileHandler.GetUser)
		api.GET("/users/:id/relationship", authMw, rateMw, friendHandler.Relationship)

		friends := api.Group("/friends")
		friends.Use(authMw, rateMw)
		{
			friends.POST("/requests", friendHandler.SendRequest)
			friends.GET("/requests/incoming", friendHandler.ListIncoming)
			friends.GET("/requests/outgoing", friendHandler.ListOutgoing)
			friends.POST("/requests/:id/accept", friendHandler.Accept)
			friends.POST("/requests/:id/reject", friendHandler.Reject)
			friends.DELETE("/:id", friendHandler.Unfriend)
		}
		api.POST("/block/:id", authMw, rateMw, friendHandler.Block)
		api.DELETE("/block/:id", authMw, rateMw, friendHandler.Unblock)

		messages := api.Group("/messages")
		messages.Use(authMw, rateMw)
		{
			messages.GET("/conversations", messageHandler.ListConversations)
			messages.GET("/threads/:id", messageHandler.GetThread)
			messages.POST("", messageHandler.Send)
			messages.POST("/threads/:id/accept", messageHandler.Accept)
			messages.POST("/threads/:id/reject", messageHandler.Reject)
		}

		forums := api.Group("/forums")
		forums.Use(authMw, rateMw)
		{
			forums.POST("", forumHandler.CreateForum)
			forums.GET("", forumHandler.ListForums)
			forums.GET("/:id", forumHandler.GetForum)
			forums.POST("/:id/join", forumHandler.Join)
			forums.POST("/:id/leave", forumHandler.Leave)
			forums.GET("/:id/posts", forumHandler.ListPosts)
			forums.POST("/:id/posts", forumHandler.CreatePost)
			forums.GET("/:id/posts/:post_id", forumHandler.GetPost)
			forums.DELETE("/:id/posts/:post_id", forumHandler.DeletePost)
			forums.POST("/:id/posts/:post_id/like", forumHandler.Like)
			forums.DELETE("/:id/posts/:post_id/like", forumHandler.Unlike)
			forums.GET("/:id/posts/:post_id/comments", forumHandler.ListComments)
			forums.POST("/:id/posts/:post_id/comments", forumHandler.CreateComment)
			forums.POST("/attachments", forumHandler.UploadAttachment)
		}

		api.POST("/sos", authMw, rateMw, sosHandler.Trigger)
	}

	r.GET("/ws/map", rateMw, ws.UpgradeMapWS(&cfg.JWT, mapHub))
	r.GET("/ws/thread", rateMw, handler.UpgradeThreadWS(&cfg.JWT, feedHub, messageRepo, blockRepo))
	r.GET("/ws/forum", rateMw, handler.UpgradeForumWS(&cfg.JWT, feedHub, forumRepo))

	return r
}
