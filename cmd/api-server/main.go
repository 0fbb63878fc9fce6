package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lendinghub/database"
	"lendinghub/internal/config"
	"lendinghub/internal/logger"
	"lendinghub/internal/mailer"
	"lendinghub/internal/microservices/http-api/handler"
	"lendinghub/internal/microservices/http-api/repository"
	"lendinghub/internal/microservices/http-api/router"
	"lendinghub/internal/microservices/http-api/service"
	"lendinghub/internal/microservices/loanwatch"
	"lendinghub/internal/microservices/websocket"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 1. Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer zl.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. Connect to the database
	db, err := database.ConnectDB(cfg, zl)
	if err != nil {
		zl.Fatal("database connection failed", zap.Error(err))
	}
	defer database.Close(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Notification subsystem
	store := repository.NewRepository(db)
	registry := websocket.NewRegistry(zl)

	sender, err := mailer.New(ctx, cfg)
	if err != nil {
		zl.Warn("email channel disabled", zap.Error(err))
		sender = mailer.Disabled{}
	}
	if _, disabled := sender.(mailer.Disabled); disabled {
		zl.Info("email channel not configured", zap.String("provider", cfg.EmailProvider))
	}

	history, closeHistory := newHistory(ctx, cfg, zl)
	defer closeHistory()

	dispatcher := loanwatch.NewDispatcher(store.Users(), registry, sender, cfg.EmailTimeout, zl)
	scanner := loanwatch.NewScanner(store, dispatcher, loanwatch.ScannerConfig{
		ReminderWindow:      cfg.ReminderWindow,
		DispatchConcurrency: cfg.DispatchConcurrency,
	}, zl)
	scheduler := loanwatch.NewScheduler(scanner, loanwatch.NewPassObserver(history, zl), cfg.ScanInterval, cfg.ScanOnStart, zl)
	if cfg.ScanEnabled {
		scheduler.Start()
	}

	// 4. HTTP
	tokens := service.NewTokenService(cfg.JWTSecret)
	notificationSvc := service.NewNotificationService(store.Notifications(), store.Loans())
	r := router.New(router.Dependencies{
		Tokens:        tokens,
		Notifications: handler.NewNotificationHandler(notificationSvc, scheduler, history, zl),
		Registry:      registry,
		Logger:        zl,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("Server running", zap.String("addr", srv.Addr), zap.String("env", cfg.GoEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cfg.ScanEnabled {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			zl.Warn("scan scheduler did not stop cleanly", zap.Error(err))
		}
	}
	registry.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("http server shutdown failed", zap.Error(err))
	}
}

// newHistory uses Redis when REDIS_URL is set and reachable, memory otherwise.
func newHistory(ctx context.Context, cfg *config.Config, zl *zap.Logger) (loanwatch.History, func()) {
	noop := func() {}
	if cfg.RedisURL == "" {
		return loanwatch.NewMemoryHistory(cfg.ScanHistorySize), noop
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zl.Warn("invalid REDIS_URL, keeping scan history in memory", zap.Error(err))
		return loanwatch.NewMemoryHistory(cfg.ScanHistorySize), noop
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		zl.Warn("redis unreachable, keeping scan history in memory", zap.Error(err))
		client.Close()
		return loanwatch.NewMemoryHistory(cfg.ScanHistorySize), noop
	}

	return loanwatch.NewRedisHistory(client, cfg.ScanHistorySize), func() { client.Close() }
}
