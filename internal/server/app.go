package server

import (
	"context"
	"fmt"
	"net/http"

	"ms-booking/internal/analytics"
	analytics_api "ms-booking/internal/analytics/api"
	"ms-booking/internal/auth"
	"ms-booking/internal/config"
	eventdb "ms-booking/internal/events/db"
	"ms-booking/internal/events/event_api"
	events "ms-booking/internal/events/service"
	"ms-booking/internal/kafka"
	"ms-booking/internal/logger"
	"ms-booking/internal/payment/payment_api"
	paymentredis "ms-booking/internal/payment/redis"
	payment "ms-booking/internal/payment/service"
	"ms-booking/internal/sse"
	ticketdb "ms-booking/internal/tickets/db"
	"ms-booking/internal/tickets/qr"
	tickets "ms-booking/internal/tickets/service"
	"ms-booking/internal/tickets/ticket_api"
	userdb "ms-booking/internal/users/db"
	"ms-booking/internal/users/user_api"
	users "ms-booking/internal/users/service"

	"github.com/go-redis/redis/v8"
	"github.com/uptrace/bun"
)

// Components are the connections the application is assembled from.
type Components struct {
	Config    *config.Config
	DB        *bun.DB
	Redis     *redis.Client // optional; without it payments are not locked
	Publisher kafka.Publisher
	Processor payment.Processor
	Logger    *logger.Logger
	// CountInline is set when no Kafka consumer maintains the sales counters.
	CountInline bool
}

type App struct {
	Router  http.Handler
	Users   *users.UserService
	Events  *events.EventService
	Tickets *tickets.TicketService
	Payment *payment.PaymentService
	Emitter *sse.InventoryEmitter
	Tokens  *auth.TokenIssuer
}

// NewApp wires services and handlers on top of c.
func NewApp(c Components) (*App, error) {
	cfg := c.Config
	log := c.Logger
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}
	qrSecret := cfg.QR.SecretKey
	if qrSecret == "" {
		log.Warn("CONFIG", "QR_SECRET_KEY not set, deriving QR key from JWT_SECRET")
		qrSecret = cfg.Auth.JWTSecret
	}
	publisher := c.Publisher
	if publisher == nil {
		publisher = kafka.NopPublisher{}
	}
	topics := kafka.NewTopics(cfg.Kafka.TopicPrefix)

	emitter := sse.NewInventoryEmitter()
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	eventsDB := &eventdb.DB{Bun: c.DB}
	ticketsDB := &ticketdb.DB{Bun: c.DB}

	userService := users.NewUserService(&userdb.DB{Bun: c.DB}, tokens, log)
	eventService := events.NewEventService(eventsDB, publisher, topics, emitter, log)
	ticketService := tickets.NewTicketService(ticketsDB, eventsDB, qr.NewQRGenerator(qrSecret), publisher, topics, emitter, log)
	ticketService.CountInline = c.CountInline

	var lock payment.Locker
	health := map[string]Pinger{"database": c.DB}
	if c.Redis != nil {
		lock = paymentredis.NewPaymentLock(c.Redis, cfg.Redis.PaymentLockTTL, log)
		rdb := c.Redis
		health["redis"] = PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	paymentService := payment.NewPaymentService(c.Processor, lock, ticketsDB, publisher, topics, log)

	router := NewRouter(Deps{
		Users:          user_api.NewHandler(userService, log),
		Events:         event_api.NewHandler(eventService, emitter, log),
		Tickets:        ticket_api.NewHandler(ticketService, log),
		Payment:        payment_api.NewHandler(paymentService, log),
		Analytics:      analytics_api.NewHandler(analytics.NewService(analytics.NewDB(c.DB), eventsDB), log),
		Verifier:       tokens,
		Health:         health,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         log,
	})

	return &App{
		Router:  router,
		Users:   userService,
		Events:  eventService,
		Tickets: ticketService,
		Payment: paymentService,
		Emitter: emitter,
		Tokens:  tokens,
	}, nil
}
