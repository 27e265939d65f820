// Realtime AI agent backend.
//
// A user holds a WebSocket connection per chatmate and exchanges one
// base64-wrapped audio prompt for one synthesized audio reply per turn, in
// the WAV or MP3 format chosen when the connection is opened. The
// REST surface only handles chatmate handshake/listing and health; the
// turn itself never touches HTTP.
//
// STARTUP SEQUENCE:
// 1. Load configuration from environment
// 2. Structured logging
// 3. Worker pools (credit debit, general background work)
// 4. Redis cache with in-memory fallback
// 5. Postgres connection
// 6. Billing client, AI gateway, user management
// 7. Agent pipeline
// 8. Fiber app, middleware, routes
// 9. Graceful shutdown
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"epis-realtime/server/internal/agent"
	"epis-realtime/server/internal/aigateway"
	"epis-realtime/server/internal/auth"
	"epis-realtime/server/internal/billing"
	"epis-realtime/server/internal/cache"
	"epis-realtime/server/internal/config"
	"epis-realtime/server/internal/handlers"
	"epis-realtime/server/internal/middleware"
	"epis-realtime/server/internal/repository"
	"epis-realtime/server/internal/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration:", err)
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Server.Environment == "development" {
		opts.Level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, opts)))

	pool := workers.NewPool(workers.Config{
		CreditWorkers:  cfg.WorkerPools.CreditWorkers,
		GeneralWorkers: cfg.WorkerPools.GeneralWorkers,
	})

	redisAddr := strings.TrimPrefix(cfg.Redis.URL, "redis://")
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	var cacheSvc cache.Service
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis connection failed, falling back to memory cache", "error", err)
		redisClient.Close()
		cacheSvc = cache.NewMemoryCache()
	} else {
		slog.Info("redis connection established", "addr", redisAddr)
		cacheSvc = cache.NewRedisCache(redisClient)
	}
	pingCancel()

	slog.Info("connecting to postgres")
	repo, err := repository.Connect(cfg)
	if err != nil {
		log.Fatal("database connection required:", err)
	}
	defer repo.Close()
	if err := repo.Migrate(); err != nil {
		slog.Error("migration step failed", "error", err)
	}

	billingClient := billing.New(cfg.Billing)
	gateway := aigateway.New(cfg.AIProvider, cfg.AIModels)
	userMgmt := auth.NewManager(cfg.JWT, billingClient, cacheSvc, pool)
	ag := agent.New(gateway, userMgmt, repo, pool, cfg.Agent.PromptTemplate)

	chatmateHandler := handlers.NewChatmateHandler(repo)
	healthHandler := handlers.NewHealthHandler(cfg, billingClient, pool)
	voiceChatHandler := handlers.NewVoiceChatHandler(repo, userMgmt, ag)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AppURL,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/api/health", healthHandler.HandleHealth)

	api := app.Group("/api")
	chatmateGroup := api.Group("/chatmate", auth.RequireAuth(userMgmt))
	chatmateGroup.Post("/handshake", chatmateHandler.HandleHandshake)
	chatmateGroup.Get("/", chatmateHandler.HandleList)

	app.Get("/ws/voicechat", voiceChatHandler.Upgrade, voiceChatHandler.Serve())

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		slog.Info("shutting down")
		pool.Shutdown()
		if err := cacheSvc.Close(); err != nil {
			slog.Error("cache close error", "error", err)
		}
		if err := repo.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
		if err := app.Shutdown(); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		slog.Info("shutdown complete")
		os.Exit(0)
	}()

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	slog.Info("starting server", "address", addr, "environment", cfg.Server.Environment)
	if err := app.Listen(addr); err != nil {
		slog.Error("server failed to start", "error", err)
		pool.Shutdown()
		log.Fatal(err)
	}
}
