package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	internalhttp "github.com/simplebim/license-server/internal/api/http"
	"github.com/simplebim/license-server/internal/auth"
	"github.com/simplebim/license-server/internal/chat"
	"github.com/simplebim/license-server/internal/db"
	"github.com/simplebim/license-server/internal/email"
	"github.com/simplebim/license-server/internal/keys"
	"github.com/simplebim/license-server/internal/updates"
)

var AppVersion string

func main() {
	InitConfig()

	slog.Info("SimpleBIM License Server", "version", AppVersion)

	ctx := context.Background()
	pool, err := db.InitDB(ctx, config.Db.Url)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.RunMigrations(config.Db.Url); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	mailer := email.NewSender(config.Email)

	services := &internalhttp.Services{
		KeyService:    keys.NewService(pool),
		UpdateService: updates.NewService(pool),
		AuthService:   auth.NewService(pool, mailer, config.Auth),
		ChatService:   chat.NewService(pool),
		QueryCache:    chat.NewQueryCache(chat.NewPGCacheStore(pool), config.Chat),
	}

	httpConfig := config.Http
	if httpConfig.JWTSecret == "" {
		httpConfig.JWTSecret = config.Auth.JWT.Secret
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"PUT", "PATCH", "GET", "POST", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(gin.Recovery())
	internalhttp.SetupRoute(engine, httpConfig, services)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", httpConfig.Port),
		Handler: engine,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		slog.Error("Server error", "error", err)
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig)
	}

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("Shutdown complete")
}
