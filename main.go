package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ms-booking/internal/config"
	"ms-booking/internal/database"
	"ms-booking/internal/database/migrations"
	"ms-booking/internal/kafka"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	payment "ms-booking/internal/payment/service"
	"ms-booking/internal/payment/services"
	"ms-booking/internal/server"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
)

// unconfiguredProcessor rejects payments when no Stripe key is set.
type unconfiguredProcessor struct{}

func (unconfiguredProcessor) CreatePaymentIntent(context.Context, int64, string, string) (*models.PaymentConfirmation, error) {
	return nil, services.ErrStripeClientInitFailed
}

func prepareSchema(ctx context.Context, cfg *config.Config, bunDB *bun.DB, log *logger.Logger) {
	if database.IsSQLite(cfg.Database.DSN) {
		if err := database.CreateSchema(ctx, bunDB); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to create schema: %v", err))
		}
		log.Info("DATABASE", "SQLite schema ready")
		return
	}
	if !cfg.Database.AutoMigrate {
		log.Info("MIGRATION", "AUTO_MIGRATE disabled, skipping migrations")
		return
	}

	runner := migrations.NewRunner(bunDB, migrations.Options{Dir: cfg.Database.MigrationsDir, AutoMigrate: true}, log)
	if err := runner.Initialize(); err != nil {
		log.Fatal("MIGRATION", fmt.Sprintf("Failed to initialize migrations: %v", err))
	}
	if err := runner.Up(); err != nil {
		log.Fatal("MIGRATION", fmt.Sprintf("Failed to run migrations: %v", err))
	}
}

func connectRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) *redis.Client {
	rdb, err := database.ConnectRedis(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn("REDIS", fmt.Sprintf("Redis unavailable, payments will not be locked: %v", err))
		return nil
	}
	return rdb
}

func newProcessor(cfg *config.Config, log *logger.Logger) payment.Processor {
	stripeService, err := services.NewStripeService(cfg.Stripe, log)
	if err != nil {
		log.Warn("STRIPE", "Payments disabled: STRIPE_SECRET_KEY not set")
		return unconfiguredProcessor{}
	}
	return stripeService
}

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log := logger.NewLogger(cfg.Log.Dir, cfg.Log.Service)
	defer log.Close()

	log.Info("APP", "Starting Booking Service initialization")
	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()
	prepareSchema(ctx, cfg, bunDB, log)

	rdb := connectRedis(ctx, cfg, log)
	if rdb != nil {
		defer rdb.Close()
	}

	var publisher kafka.Publisher = kafka.NopPublisher{}
	countInline := true
	topics := kafka.NewTopics(cfg.Kafka.TopicPrefix)
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(ctx, cfg.Kafka.Brokers, topics.All(), log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		publisher = producer
		countInline = false
		log.Info("KAFKA", "Kafka producer initialized successfully")
	} else {
		log.Warn("KAFKA", "Kafka disabled, events are not published and sales are counted inline")
	}

	app, err := server.NewApp(server.Components{
		Config:      cfg,
		DB:          bunDB,
		Redis:       rdb,
		Publisher:   publisher,
		Processor:   newProcessor(cfg, log),
		Logger:      log,
		CountInline: countInline,
	})
	if err != nil {
		log.Fatal("CONFIG", err.Error())
	}

	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topics.TicketPurchased, cfg.Kafka.GroupID, log)
		defer consumer.Close()
		go func() {
			if err := consumer.Start(ctx, app.Tickets.RecordSale); err != nil {
				log.Error("KAFKA", fmt.Sprintf("Sales consumer stopped: %v", err))
			}
		}()
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Booking Service running on %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Booking Service shutdown complete")
	}
}
