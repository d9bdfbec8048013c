package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/simplebim/license-server/internal/api/http/handler"
	"github.com/simplebim/license-server/internal/api/http/middleware"
	"github.com/simplebim/license-server/internal/auth"
	"github.com/simplebim/license-server/internal/chat"
	"github.com/simplebim/license-server/internal/keys"
	"github.com/simplebim/license-server/internal/updates"
)

type Services struct {
	KeyService    *keys.Service
	UpdateService *updates.Service
	AuthService   *auth.Service
	ChatService   *chat.Service
	QueryCache    *chat.QueryCache
}

func SetupRoute(engine *gin.Engine, cfg Config, srvs *Services) {
	engine.Use(middleware.RequestLogger())
	engine.Use(middleware.Metrics())

	healthHandler := handler.NewHealthHandler()
	engine.GET("/health", healthHandler.Check)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	keysHandler := handler.NewKeysHandler(srvs.KeyService)
	updatesHandler := handler.NewUpdatesHandler(srvs.UpdateService, cfg.RepoRoot)
	authHandler := handler.NewAuthHandler(srvs.AuthService)
	chatHandler := handler.NewChatHandler(srvs.ChatService, srvs.QueryCache)

	// Endpoints the add-in and the download page call without credentials.
	engine.POST("/keys/validate", keysHandler.Validate)
	engine.POST("/updates/check", updatesHandler.Check)
	engine.GET("/updates/health", updatesHandler.Health)
	engine.GET("/updates/latest", updatesHandler.Latest)
	engine.GET("/updates/versions/public/active", updatesHandler.ListPublicActive)
	engine.GET("/updates/versions/:id/download", updatesHandler.Download)
	engine.POST("/updates/versions/:id/download-tracked", updatesHandler.TrackDownload)
	engine.POST("/updates/download-stats", updatesHandler.DownloadStats)
	engine.POST("/updates/install-stats", updatesHandler.InstallStats)

	engine.POST("/auth/login", authHandler.Login)
	engine.POST("/auth/request-reset", authHandler.RequestReset)
	engine.POST("/auth/verify-reset", authHandler.VerifyReset)

	admin := engine.Group("/", middleware.JWTAuth(cfg.JWTSecret), middleware.RequireAdmin())
	{
		admin.POST("/keys/create", keysHandler.Create)
		admin.GET("/keys/list", keysHandler.List)
		admin.GET("/keys/:key_value", keysHandler.Get)
		admin.PUT("/keys/:key_value", keysHandler.Update)
		admin.DELETE("/keys/:key_value", keysHandler.Delete)

		admin.POST("/updates/versions", updatesHandler.CreateVersion)
		admin.GET("/updates/versions", updatesHandler.ListVersions)
		admin.PUT("/updates/versions/:id", updatesHandler.PatchVersion)
		admin.POST("/updates/versions/:id/deactivate", updatesHandler.DeactivateVersion)
		admin.DELETE("/updates/versions/:id", updatesHandler.DeleteVersion)
		admin.GET("/updates/statistics", updatesHandler.Statistics)
		admin.POST("/updates/calculate-checksum", updatesHandler.CalculateChecksum)
	}

	authed := engine.Group("/chat", middleware.JWTAuth(cfg.JWTSecret))
	{
		authed.POST("/sessions", chatHandler.CreateSession)
		authed.GET("/sessions", chatHandler.ListSessions)
		authed.PUT("/sessions/:id", chatHandler.RenameSession)
		authed.DELETE("/sessions/:id", chatHandler.DeleteSession)
		authed.GET("/sessions/:id/messages", chatHandler.ListMessages)
		authed.POST("/sessions/:id/messages", chatHandler.AppendMessage)
		authed.GET("/cache", chatHandler.ListCache)
		authed.POST("/cache/lookup", chatHandler.CacheLookup)
		authed.POST("/cache/store", chatHandler.CacheStore)
		authed.DELETE("/cache/:id", chatHandler.DeleteCache)
		authed.GET("/statistics", chatHandler.Statistics)
	}
}
