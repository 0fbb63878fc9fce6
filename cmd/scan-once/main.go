// Command scan-once runs a single due/overdue pass and exits; non-zero on failure.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"lendinghub/database"
	"lendinghub/internal/config"
	"lendinghub/internal/logger"
	"lendinghub/internal/mailer"
	"lendinghub/internal/microservices/http-api/repository"
	"lendinghub/internal/microservices/loanwatch"
	"lendinghub/internal/microservices/websocket"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("could not load config: %v", err)
		return 2
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Printf("could not build logger: %v", err)
		return 2
	}
	defer zl.Sync()

	db, err := database.ConnectDB(cfg, zl)
	if err != nil {
		zl.Error("database connection failed", zap.Error(err))
		return 1
	}
	defer database.Close(db)

	ctx := context.Background()
	sender, err := mailer.New(ctx, cfg)
	if err != nil {
		zl.Warn("email channel disabled", zap.Error(err))
		sender = mailer.Disabled{}
	}

	var history loanwatch.History = loanwatch.NewMemoryHistory(1)
	if cfg.RedisURL != "" {
		if opts, err := redis.ParseURL(cfg.RedisURL); err == nil {
			client := redis.NewClient(opts)
			defer client.Close()
			history = loanwatch.NewRedisHistory(client, cfg.ScanHistorySize)
		}
	}

	store := repository.NewRepository(db)
	// no live sockets in this process: real-time pushes are dropped, rows stay
	registry := websocket.NewRegistry(zl)
	defer registry.Close()

	dispatcher := loanwatch.NewDispatcher(store.Users(), registry, sender, cfg.EmailTimeout, zl)
	scanner := loanwatch.NewScanner(store, dispatcher, loanwatch.ScannerConfig{
		ReminderWindow:      cfg.ReminderWindow,
		DispatchConcurrency: cfg.DispatchConcurrency,
	}, zl)
	scheduler := loanwatch.NewScheduler(scanner, loanwatch.NewPassObserver(history, zl), time.Hour, false, zl)

	if result := scheduler.RunNow(ctx); result.Err != nil {
		return 1
	}
	return 0
}
