package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	analytics_api "ms-booking/internal/analytics/api"
	"ms-booking/internal/auth"
	"ms-booking/internal/events/event_api"
	"ms-booking/internal/logger"
	"ms-booking/internal/payment/payment_api"
	"ms-booking/internal/tickets/ticket_api"
	"ms-booking/internal/users/user_api"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Pinger is anything /healthz can probe.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type Deps struct {
	Users     *user_api.Handler
	Events    *event_api.Handler
	Tickets   *ticket_api.Handler
	Payment   *payment_api.Handler
	Analytics *analytics_api.Handler
	Verifier  auth.Verifier

	// Probed by /healthz, keyed by component name. Nil entries are skipped.
	Health map[string]Pinger

	AllowedOrigins []string
	Logger         *logger.Logger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(requestLogger(d.Logger))

	requireAuth := auth.Middleware(d.Verifier, d.Logger)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Server is running"))
	})
	r.Get("/healthz", healthHandler(d.Health))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", d.Users.Login)
		r.With(requireAuth).Post("/register", d.Users.Register)
	})
	d.Logger.Info("ROUTER", "Auth routes registered under /auth")

	r.Route("/events", func(r chi.Router) {
		r.Get("/", d.Events.ListEvents)
		r.Get("/{id}", d.Events.GetEvent)
		r.Get("/{id}/stream", d.Events.StreamAvailability)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", d.Events.CreateEvent)
			r.Patch("/{id}", d.Events.UpdateEvent)
			r.Delete("/{id}", d.Events.DeleteEvent)
		})
	})
	d.Logger.Info("ROUTER", "Event routes registered under /events")

	r.Route("/tickets", func(r chi.Router) {
		r.Get("/", d.Tickets.ListTickets)
		r.Get("/count", d.Tickets.GetTotalTicketsCount)
		r.Get("/{id}", d.Tickets.GetTicket)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", d.Tickets.PurchaseTicket)
			r.Delete("/{id}", d.Tickets.DeleteTicket)
		})
	})
	d.Logger.Info("ROUTER", "Ticket routes registered under /tickets")

	r.With(requireAuth).Post("/payment", d.Payment.Pay)

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(auth.RequireAdmin)

		r.Get("/events", d.Events.ListEvents)
		r.Post("/events", d.Events.CreateEvent)
		r.Patch("/events/{id}", d.Events.UpdateEvent)
		r.Delete("/events/{id}", d.Events.DeleteEvent)
		r.Get("/events/{id}/sales", d.Tickets.GetEventSales)

		r.Get("/tickets", d.Tickets.ListTickets)
		r.Delete("/tickets/{id}", d.Tickets.DeleteTicket)
		r.Post("/tickets/checkin", d.Tickets.CheckinTicket)

		d.Analytics.RegisterRoutes(r)
	})
	d.Logger.Info("ROUTER", "Admin routes registered under /admin")

	return r
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.LogAPI(r.Method, r.URL.Path, fmt.Sprintf("%d", status), time.Since(start).String())
		})
	}
}

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

func healthHandler(checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Components: make(map[string]string)}
		code := http.StatusOK
		for name, p := range checks {
			if p == nil {
				continue
			}
			if err := p.PingContext(ctx); err != nil {
				resp.Components[name] = "down"
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Components[name] = "up"
		}
		utils.WriteJSON(w, code, resp)
	}
}
