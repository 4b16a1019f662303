// Package app: 설정 로드, 서비스 조립, 서버 기동을 담당하는 조립 계층
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/magicminds/magicminds-api-go/internal/config"
	"github.com/magicminds/magicminds-api-go/internal/constants"
	"github.com/magicminds/magicminds-api-go/internal/server"
	"github.com/magicminds/magicminds-api-go/internal/service/database"
)

// NewRouter: 전체 HTTP 라우팅을 구성한 Gin 엔진을 생성합니다.
// /, /healthz, /readyz는 인증 없이 열려 있고 나머지는 /api/v1 아래 bearer 인증이다.
func NewRouter(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	handler *server.APIHandler,
	verifier server.TokenVerifier,
	db *database.PostgresService,
) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	if err := router.SetTrustedProxies(constants.ServerConfig.TrustedProxies); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	router.Use(gin.Recovery())
	router.Use(server.LoggerMiddleware(ctx, logger,
		"/healthz", // liveness probe 폴링
		"/readyz",
	))
	router.Use(cors.New(newCORSConfig(cfg)))
	router.Use(server.SecurityHeadersMiddleware())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.GET("/", handler.HandleRoot)
	router.GET("/healthz", handler.HandleHealthz)
	router.GET("/readyz", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), constants.DatabaseConfig.PingTimeout)
		defer cancel()
		if err := db.Ping(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	registerAPIRoutes(router, handler, verifier)

	return router, nil
}

func newCORSConfig(cfg *config.Config) cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowMethods = constants.CORSConfig.AllowMethods
	corsConfig.AllowHeaders = constants.CORSConfig.AllowHeaders

	wildcard := false
	for _, origin := range cfg.CORS.AllowedOrigins {
		if origin == "*" {
			wildcard = true
			break
		}
	}
	if wildcard || len(cfg.CORS.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	return corsConfig
}

func registerAPIRoutes(router *gin.Engine, handler *server.APIHandler, verifier server.TokenVerifier) {
	api := router.Group("/api/v1")
	api.Use(server.BearerAuthMiddleware(verifier))

	profiles := api.Group("/profiles")
	{
		profiles.POST("/parent", handler.EnsureParent)
		profiles.GET("/parent", handler.GetParent)
		profiles.POST("/children", handler.CreateChild)
		profiles.GET("/children", handler.ListChildren)
		profiles.GET("/children/:child_id", handler.GetChild)
		profiles.PATCH("/children/:child_id", handler.UpdateChild)
		profiles.DELETE("/children/:child_id", handler.DeleteChild)
		profiles.POST("/children/:child_id/status", handler.UpdateChildStatus)
	}

	friends := api.Group("/friends")
	{
		friends.GET("", handler.ListFriends)
		friends.POST("/requests", handler.SendFriendRequest)
		friends.GET("/requests", handler.ListFriendRequests)
		friends.POST("/requests/:id/accept", handler.AcceptFriendRequest)
		friends.POST("/requests/:id/decline", handler.DeclineFriendRequest)
		friends.GET("/search", handler.SearchChildren)
		friends.DELETE("/:child_id", handler.Unfriend)
	}

	rooms := api.Group("/rooms")
	{
		rooms.POST("", handler.CreateRoom)
		rooms.POST("/join", handler.JoinRoom)
		rooms.POST("/leave", handler.LeaveRoom)
		rooms.POST("/close", handler.CloseRoom)
		rooms.GET("/current", handler.GetCurrentRoom)
		rooms.GET("/:room_id/participants", handler.GetRoomParticipants)
		rooms.POST("/invite", handler.InviteToRoom)
		rooms.POST("/request-to-join", handler.RequestToJoinRoom)
		rooms.POST("/handle-join-request", handler.HandleJoinRequest)
		rooms.GET("/pending-invitations", handler.GetPendingInvitations)
		rooms.POST("/accept-invitation", handler.AcceptInvitation)
		rooms.POST("/decline-invitation", handler.DeclineInvitation)
	}

	sessions := api.Group("/sessions")
	{
		sessions.POST("", handler.CreateSession)
		sessions.GET("/:id", handler.GetSession)
		sessions.POST("/scores", handler.RecordScore)
		sessions.GET("/room/:room_id/scores", handler.GetRoomScores)
	}

	stories := api.Group("/stories")
	{
		stories.POST("", handler.CreateStory)
		stories.GET("", handler.ListStories)
		stories.GET("/:id", handler.GetStory)
		stories.DELETE("/:id", handler.DeleteStory)
	}

	voice := api.Group("/voice")
	{
		voice.POST("/create-voice-clone", handler.CreateVoiceClone)
		voice.POST("/generate-story-audio", handler.GenerateStoryAudio)
	}

	billing := api.Group("/billing")
	{
		billing.POST("/create-checkout", handler.CreateCheckout)
		billing.POST("/voice-subscription", handler.UpsertVoiceSubscription)
		billing.GET("/voice-subscription", handler.GetVoiceSubscription)
		billing.DELETE("/voice-subscription", handler.CancelVoiceSubscription)
	}

	api.GET("/health/system", handler.HandleSystemStats)
}
