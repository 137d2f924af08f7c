package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"opschecklist/internal/config"
	"opschecklist/internal/db"
	"opschecklist/internal/domain"
	"opschecklist/internal/feed"
	httpServer "opschecklist/internal/http"
	"opschecklist/internal/http/handlers"
	"opschecklist/internal/http/middleware"
	"opschecklist/internal/logger"
	"opschecklist/internal/notify"
	"opschecklist/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT()

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	// change feed: Postgres notifications fanned out to subscribers
	hub := feed.NewHub()
	listenerCtx, stopListener := context.WithCancel(context.Background())
	defer stopListener()
	go feed.NewListener(cfg.DatabaseURL, hub).Run(listenerCtx)

	// the notifiers reach the dispatch function over HTTP with a service token
	dispatcher := notify.NewClient(cfg.DispatchURL, func() (string, error) {
		return service.GenerateJWT(0, domain.RoleAdmin)
	})
	email := notify.NewHTTPEmailProvider(cfg.EmailProviderURL, cfg.EmailAPIKey, cfg.EmailFrom)
	text := notify.NewHTTPTextProvider(cfg.TextProviderURL, cfg.TextAPIKey)

	h := handlers.NewHandler(dbPool, dispatcher, email, text)

	r := gin.Default()

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer.RegisterRoutes(r, h, hub, version)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	stopListener()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
