package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"collabdocs/internal/config"
	"collabdocs/internal/database/db_client"
	"collabdocs/internal/http/http_server"
	"collabdocs/internal/redis/redis_client"
	"collabdocs/internal/services/comment"
	"collabdocs/internal/services/document"
	sessionsvc "collabdocs/internal/services/session"
	"collabdocs/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis (refresh-session storage)
	redisClient, err = redis_client.NewRedisClient(cfg.RedisSessionsHost, int(cfg.RedisSessionsPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()
	Log.Debug("Redis client created successfully")

	// 4. Postgres db client
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort,
		cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()

	// 5. Services
	sessionService := sessionsvc.NewSessionService(redisClient)
	documentService := document.NewDocumentService(pgDb)
	commentService := comment.NewCommentService(pgDb)

	// 6. Collaboration hub + WS server
	hub := ws.NewHub()
	wsSrv := ws.NewWsServer(hub, sessionService, documentService, commentService,
		time.Duration(cfg.SaveDelayMs)*time.Millisecond)

	// 7. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv,
		documentService, commentService, sessionService)

	go func() {
		<-ctx.Done()
		_ = httpServer.Dispose()
	}()

	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
