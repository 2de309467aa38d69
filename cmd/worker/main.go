package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"attendanceweb/internal/backend"
	"attendanceweb/internal/config"
	"attendanceweb/internal/queue"
	"attendanceweb/internal/store"
)

// Worker forwards face-recognition hits from the queue to the attendance backend.
func main() {
	cfg := config.Load()

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		logger.Warn("memory queue selected: only in-process publishers are seen")
		q = queue.NewInMemory(64)
	} else {
		rdb := store.NewRedis(cfg.RedisAddr)
		defer func() { _ = rdb.Close() }()
		if !rdb.Healthy(ctx) {
			logger.Warn("redis not reachable yet, will keep polling", zap.String("addr", cfg.RedisAddr))
		}
		q = queue.NewRedisQueue(rdb.Client, cfg.QueueKey, logger.Named("queue"))
	}

	client := backend.New(cfg.BackendURL, cfg.BackendTimeout, logger.Named("backend"))

	logger.Info("worker started, waiting for recognitions",
		zap.String("queue", cfg.QueueBackend), zap.String("key", cfg.QueueKey))
	n, err := queue.Forward(ctx, q, client, logger)
	if err != nil {
		logger.Fatal("queue consume init failed", zap.Error(err))
	}
	logger.Info("worker stopped", zap.Int("marked", n))
}
