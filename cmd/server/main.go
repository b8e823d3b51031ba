package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/advansoftware/finwise-installments/internal/config"
	"github.com/advansoftware/finwise-installments/internal/handler"
	"github.com/advansoftware/finwise-installments/internal/lock"
	"github.com/advansoftware/finwise-installments/internal/repository"
	"github.com/advansoftware/finwise-installments/internal/service"
	"github.com/advansoftware/finwise-installments/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	// Initialize database
	ctx := context.Background()
	db, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		log.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db); err != nil {
		log.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	store := repository.NewStore(db)
	opts := []service.Option{service.WithLogger(log)}

	// Redis is optional; without it settlement relies on the conditional update alone
	var redisClient redis.UniversalClient
	if cfg.Redis.Enabled {
		client := initRedis(cfg)
		defer client.Close()

		redisClient = client
		opts = append(opts, service.WithLocker(lock.NewRedisLocker(client)))
	}

	installmentService := service.NewInstallmentService(store.Repositories, store, cfg, opts...)
	installmentHandler := handler.NewInstallmentHandler(installmentService, log)
	healthHandler := handler.NewHealthHandler(store, redisClient, cfg.Health.Timeout)

	router := handler.NewRouter(installmentHandler, healthHandler, log)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server starting", "addr", server.Addr, "driver", cfg.Database.Driver, "redis", cfg.Redis.Enabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		return
	}

	log.Info("server exited")
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
