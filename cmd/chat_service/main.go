package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "owner_chat_service/docs"
	"owner_chat_service/internal/chat/app"
	"owner_chat_service/internal/chat/repository"
	"owner_chat_service/internal/chat/router"
	"owner_chat_service/pkg/config"
	"owner_chat_service/pkg/database"
	"owner_chat_service/pkg/logger"
	"owner_chat_service/pkg/metrics"
	testtool "owner_chat_service/pkg/test_tool"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	defer logger.Log.Sync()

	cfg, err := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)
	if err != nil {
		logger.Log.Fatal("load config", zap.Error(err))
	}
	cfg = cfg.WithDefaults()
	if config.EnvConfig.ChatServicePort != "" {
		cfg.Port = config.EnvConfig.ChatServicePort
	}

	metrics.Init()
	testtool.StartPprof(cfg.Pprof)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. message store
	store, closeStore := newMessageStore(ctx, cfg)
	defer closeStore()

	// 2. presence + router, optionally relayed across instances through redis
	instanceID := uuid.NewString()
	presence := app.NewPresenceRegistry()
	var relay *repository.RedisRelay
	if cfg.Redis.Enabled {
		masterName, sentinels := config.GetRedisSetting()
		redisClient, err := database.NewRedisClient(masterName, sentinels, cfg.Redis.Addr, cfg.Redis.RedisDB)
		if err != nil {
			logger.Log.Fatal("connect redis", zap.Error(err))
		}
		defer redisClient.Close()
		relay = repository.NewRedisRelay(redisClient, instanceID)
	}

	var sessionRouter *app.SessionRouter
	if relay != nil {
		sessionRouter = app.NewSessionRouter(presence, relay)
		go relay.Run(ctx, sessionRouter.DeliverRelayed)
		go sessionRouter.RunRelay(ctx)
	} else {
		sessionRouter = app.NewSessionRouter(presence, nil)
	}
	go presence.Run(ctx, sessionRouter.BroadcastPresence)

	// 3. notifications
	var dispatcher *app.NotificationDispatcher
	if notifier := newNotifier(cfg); notifier != nil {
		defer notifier.Close()
		dispatcher = app.NewNotificationDispatcher(notifier, cfg.Notifier.QueueSize, cfg.Notifier.Timeout)
		go dispatcher.Run(ctx)
	}

	// 4. use cases
	messageUC := app.NewMessageUseCase(store, sessionRouter, dispatcher, cfg.StoreTimeout)
	historyUC := app.NewHistoryUseCase(store, sessionRouter, cfg.History, cfg.StoreTimeout)

	// 5. grpc health
	var health *database.HealthServer
	if cfg.GRPCPort != "" {
		health, err = database.NewHealthServer(":" + cfg.GRPCPort)
		if err != nil {
			logger.Log.Fatal("grpc health", zap.Error(err))
		}
		go health.Serve()
	}

	// 6. Fiber
	r := fiber.New(fiber.Config{DisableStartupMessage: true})
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		logger.Log.Fatal("open access log", zap.Error(err))
	}
	defer file.Close()
	r.Use(recover.New())
	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(ctx, r,
		app.NewChatHTTPHandler(historyUC, presence),
		app.NewChatWebsocketHandler(sessionRouter, messageUC, cfg.WS),
	)

	go func() {
		<-ctx.Done()
		logger.Log.Info("shutting down")
		if health != nil {
			health.Stop()
		}
		if err := r.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Log.Error("fiber shutdown", zap.Error(err))
		}
	}()

	if health != nil {
		health.SetServing(config.EnvConfig.ChatService, true)
	}
	port := ":" + cfg.Port
	logger.Log.Info("Chat Service listening", zap.String("port", port), zap.String("instanceID", instanceID), zap.String("store", cfg.StoreDriver))
	if err := r.Listen(port); err != nil {
		logger.Log.Fatal("Failed to start Fiber", zap.Error(err))
	}
}
