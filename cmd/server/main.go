package main

import (
	"context"
	"log"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/saransh1220/qrdrop/internal/gateway"
	"github.com/saransh1220/qrdrop/internal/modules/filestorage"
	"github.com/saransh1220/qrdrop/internal/modules/realtime"
	"github.com/saransh1220/qrdrop/internal/modules/session"
	"github.com/saransh1220/qrdrop/internal/modules/session/infrastructure/memory"
	"github.com/saransh1220/qrdrop/internal/shared/infrastructure/config"
	"github.com/saransh1220/qrdrop/internal/shared/infrastructure/database"
	"github.com/saransh1220/qrdrop/internal/shared/utils"
)

type app struct {
	handler  http.Handler
	realtime *realtime.Module
	redis    *redis.Client
}

func (a *app) close() {
	a.realtime.Stop()
	if a.redis != nil {
		a.redis.Close()
	}
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	storage, err := filestorage.NewModule(ctx, cfg.FileStorage)
	if err != nil {
		return nil, err
	}
	if cfg.FileStorage.UseS3 {
		log.Printf("Using S3 storage, bucket %s", cfg.FileStorage.S3BucketName)
	} else {
		log.Printf("Using local storage at %s", cfg.FileStorage.LocalPath)
	}

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		log.Println("Connecting to Redis...")
		redisClient, err = database.NewRedis(cfg.Redis)
		if err != nil {
			// The cache is optional, serve without it
			log.Printf("Redis unavailable, file list cache disabled: %v", err)
			redisClient = nil
		} else {
			log.Printf("Redis Connected Successfully!")
		}
	}

	registry := memory.NewRegistry()
	// Joins only arrive once the server is listening, after sessionModule is set
	var sessionModule *session.Module
	realtimeModule := realtime.NewModule(func(id string) bool {
		return sessionModule.Service().SessionExists(id)
	})
	sessionModule = session.NewModule(registry, storage.Service(), realtimeModule.Hub(), realtimeModule.Hub(), redisClient, cfg)

	handler := gateway.NewHandler(gateway.RouterConfig{
		SessionHandler:  sessionModule.HTTPHandler(),
		RealtimeHandler: realtimeModule.HTTPHandler(),
		AllowedOrigins:  cfg.Server.AllowedOrigins,
	})

	return &app{handler: handler, realtime: realtimeModule, redis: redisClient}, nil
}

func main() {
	cfg := config.Load()

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	server := gateway.NewServer(gateway.ServerConfig{
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, a.handler)
	server.OnShutdown(a.close)

	if ip := utils.LocalIPv4(); ip != "" {
		log.Printf("Open http://%s:%s on the desktop to start a session", ip, cfg.Server.Port)
	}

	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
