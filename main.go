package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/karthikeya-tummala/echo-chat/internal/chat/registry"
	"github.com/karthikeya-tummala/echo-chat/internal/config"
	"github.com/karthikeya-tummala/echo-chat/internal/database/db_client"
	"github.com/karthikeya-tummala/echo-chat/internal/http/http_server"
	"github.com/karthikeya-tummala/echo-chat/internal/redis/redis_client"
	"github.com/karthikeya-tummala/echo-chat/internal/services/chat"
	"github.com/karthikeya-tummala/echo-chat/internal/store/historycache"
	"github.com/karthikeya-tummala/echo-chat/internal/store/messagestore"
	"github.com/karthikeya-tummala/echo-chat/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis for the recent-history cache
	redisClient, err := redis_client.NewRedisClient(cfg.RedisHistoryHost, int(cfg.RedisHistoryPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()

	// 4. Postgres message store
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort,
		cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()

	store := historycache.New(messagestore.New(pgDb), redisClient, cfg.HistoryLimit)

	// 5. Room registry + chat service
	reg := registry.New()
	chatService := chat.NewChatService(reg, store, cfg.HistoryLimit)

	// 6. WebSockets hub + server
	hub := ws.NewHub()
	wsSrv := ws.NewWsServer(hub, reg, chatService)

	// 7. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, reg, store, cfg.HistoryLimit)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
