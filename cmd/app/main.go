package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/krishna9325/Car-Rental/api"
	"github.com/krishna9325/Car-Rental/config"
	"github.com/krishna9325/Car-Rental/internal/auth"
	"github.com/krishna9325/Car-Rental/internal/bootstrap"
	"github.com/krishna9325/Car-Rental/internal/cache"
	"github.com/krishna9325/Car-Rental/internal/clock"
	"github.com/krishna9325/Car-Rental/internal/kafka"
	"github.com/krishna9325/Car-Rental/internal/logger"
	"github.com/krishna9325/Car-Rental/internal/repository"
	authsvc "github.com/krishna9325/Car-Rental/internal/service/auth"
	"github.com/krishna9325/Car-Rental/internal/service/booking"
	"github.com/krishna9325/Car-Rental/internal/service/catalog"
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
	appLogger := logger.New(cfg.Log)
	if cfg.HTTP.Mode != "" {
		gin.SetMode(cfg.HTTP.Mode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := repository.Migrate(cfg.Database.URL()); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.CatalogCacheTTL())
	defer redisCache.Close()

	var publisher booking.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.BookingEventsTopic)
		defer producer.Close()
		publisher = producer
	} else {
		appLogger.Warn("kafka brokers not configured, booking events are not published")
	}

	gateway, err := payment.NewGateway(cfg.Payment)
	if err != nil {
		log.Fatalf("payment gateway: %v", err)
	}

	realClock := clock.NewRealClock()
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL(), realClock)

	cityRepo := repository.NewCityRepository(pool)
	carRepo := repository.NewCarRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	authService := authsvc.NewAuthService(userRepo, tokens, cfg.Auth.AdminSignupKey, appLogger)
	catalogService := catalog.NewCatalogService(cityRepo, carRepo, redisCache, appLogger)
	bookingService := booking.NewBookingService(
		bookingRepo,
		carRepo,
		redisCache,
		publisher,
		gateway,
		cfg.Booking.PaymentWindow(),
		cfg.Booking.CarLockTTL(),
		booking.WithClock(realClock),
		booking.WithLogger(appLogger),
	)

	router := api.NewRouter(cfg, appLogger, api.NewAuthMiddleware(tokens), api.Handlers{
		Auth:     api.NewAuthHandler(authService),
		Catalog:  api.NewCatalogHandler(catalogService),
		Bookings: api.NewBookingHandler(bookingService, realClock),
	})

	probes := []bootstrap.Probe{
		{Name: "postgres", Check: pool.Ping},
		{Name: "redis", Check: redisCache.Ping},
	}
	if err := bootstrap.Run(ctx, cfg, router, appLogger, probes...); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
