package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/krishna9325/Car-Rental/config"
	"github.com/krishna9325/Car-Rental/internal/cache"
	"github.com/krishna9325/Car-Rental/internal/email"
	"github.com/krishna9325/Car-Rental/internal/kafka"
	"github.com/krishna9325/Car-Rental/internal/logger"
	"github.com/krishna9325/Car-Rental/internal/repository"
	"github.com/krishna9325/Car-Rental/internal/service/booking"
	"github.com/krishna9325/Car-Rental/internal/service/payment"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	workerLogger := logger.New(cfg.Log).With("component", "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.CatalogCacheTTL())
	defer redisCache.Close()

	var publisher booking.EventPublisher
	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.BookingEventsTopic)
		defer producer.Close()
		publisher = producer
	}

	gateway, err := payment.NewGateway(cfg.Payment)
	if err != nil {
		log.Fatalf("payment gateway: %v", err)
	}

	bookingService := booking.NewBookingService(
		repository.NewBookingRepository(pool),
		repository.NewCarRepository(pool),
		redisCache,
		publisher,
		gateway,
		cfg.Booking.PaymentWindow(),
		cfg.Booking.CarLockTTL(),
		booking.WithLogger(workerLogger),
	)

	if producer != nil {
		go consumeNotifications(ctx, cfg, producer, workerLogger)
	}

	expireTicker := time.NewTicker(time.Duration(cfg.Worker.ExpirationSweepSeconds) * time.Second)
	defer expireTicker.Stop()
	completeTicker := time.NewTicker(time.Duration(cfg.Worker.CompletionSweepMinutes) * time.Minute)
	defer completeTicker.Stop()

	workerLogger.Info("worker started",
		"expiration_sweep_seconds", cfg.Worker.ExpirationSweepSeconds,
		"completion_sweep_minutes", cfg.Worker.CompletionSweepMinutes,
	)

	for {
		select {
		case <-expireTicker.C:
			expired, err := bookingService.ExpirePendingBookings(ctx)
			if err != nil {
				workerLogger.Error("expire bookings", "error", err)
				continue
			}
			if len(expired) > 0 {
				workerLogger.Info("expired bookings", "count", len(expired))
			}
		case <-completeTicker.C:
			completed, err := bookingService.CompleteFinishedBookings(ctx)
			if err != nil {
				workerLogger.Error("complete bookings", "error", err)
				continue
			}
			if len(completed) > 0 {
				workerLogger.Info("completed bookings", "count", len(completed))
			}
		case <-ctx.Done():
			workerLogger.Info("shutting down")
			return
		}
	}
}

func consumeNotifications(ctx context.Context, cfg *config.Config, outbox *kafka.Producer, logger *slog.Logger) {
	consumer := kafka.NewConsumer(cfg.Kafka, logger)
	defer consumer.Close()

	sender := email.NewSender(logger).WithOutbox(outbox, cfg.Kafka.NotificationsTopic)

	err := consumer.ConsumeBookingEvents(ctx, sender.Send)
	if err != nil && ctx.Err() == nil {
		logger.Error("consumer stopped", "error", err)
	}
}
