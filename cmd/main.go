package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fashionbreeze/lifecycle/internal/audit"
	"github.com/fashionbreeze/lifecycle/internal/cache"
	"github.com/fashionbreeze/lifecycle/internal/db"
	"github.com/fashionbreeze/lifecycle/internal/kafka"
	"github.com/fashionbreeze/lifecycle/internal/lifecycle"
	"github.com/fashionbreeze/lifecycle/internal/logger"
	"github.com/fashionbreeze/lifecycle/internal/notifications"
	"github.com/fashionbreeze/lifecycle/internal/realtime"
	"github.com/fashionbreeze/lifecycle/internal/repository/postgresql"
	"github.com/fashionbreeze/lifecycle/internal/server"
	"github.com/fashionbreeze/lifecycle/internal/storage"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	log := logger.New()
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	database, err := db.NewDb(ctx)
	if err != nil {
		log.Fatal("database init failed", zap.Error(err))
	}

	orderRepo := postgresql.NewOrderRepo(database)
	tailoringRepo := postgresql.NewTailoringRepo(database)
	returnRepo := postgresql.NewReturnRepo(database)
	tailorRepo := postgresql.NewTailorRepo(database)
	notificationRepo := postgresql.NewNotificationRepo(database)
	outboxRepo := postgresql.NewOutboxTaskRepo(database)

	bus := lifecycle.NewBus(log)

	store := notifications.NewStore(notificationRepo, log)
	bus.Subscribe("notification-store", store.HandleEvent)

	hub := realtime.NewHub(log)
	bus.Subscribe("realtime-hub", hub.HandleEvent)

	orderCache := cache.NewOrderCache(orderRepo, log)

	orders := storage.NewOrderManager(orderRepo, orderCache, bus, log)
	tailoring := storage.NewTailoringManager(tailoringRepo, bus, log)
	returns := storage.NewReturnManager(returnRepo, bus, log)
	tailors := storage.NewTailorManager(tailorRepo, bus, log)

	if err := orders.WarmCache(ctx); err != nil {
		log.Warn("order cache warmup failed", zap.Error(err))
	}

	auditTopic := envOr("KAFKA_AUDIT_TOPIC", "lifecycle_audit")
	recorder := audit.NewRecorder(outboxRepo, auditTopic, 2, 5, 500*time.Millisecond, log)
	recorder.Start(ctx)

	brokers := strings.Split(envOr("KAFKA_BROKERS", "localhost:9092"), ",")
	producer := kafka.NewWriterProducer(brokers, log)
	publisher := kafka.NewPublisher(outboxRepo, producer, kafka.PublisherConfig{
		PollInterval: 2 * time.Second,
		BatchSize:    20,
		MaxAttempts:  5,
	}, log)

	srv := server.New(orders, tailoring, returns, tailors, store, hub, recorder, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, envOr("HTTP_PORT", "9000"))
	})
	g.Go(func() error {
		publisher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http server shutdown failed", zap.Error(err))
		}
		hub.Close()
		recorder.Shutdown(shutdownCtx)
		publisher.Shutdown()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal("service terminated", zap.Error(err))
	}
	log.Info("service stopped")
}
