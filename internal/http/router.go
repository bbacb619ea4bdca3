// Package http exposes the storefront REST API.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ecosopis/storefront/internal/config"
	"github.com/ecosopis/storefront/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Products ProductService
	Orders   OrderService
	Chat     ChatService
	Auth     AuthService
}

func NewRouter(cfg *config.Config, svc Services, m *metrics.Metrics, health Pinger, logger *slog.Logger) http.Handler {
	products := NewProductHandler(svc.Products, cfg.RequestTimeout)
	orders := NewOrderHandler(svc.Orders, cfg.RequestTimeout)
	chat := NewChatHandler(svc.Chat, cfg.Chat.Timeout+cfg.RequestTimeout)
	authn := NewAuthHandler(svc.Auth, cfg.Session, cfg.RequestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(middleware.Compress(5))
	r.Use(BodyLimitMiddleware(cfg.MaxRequestBodySize))
	r.Use(SessionMiddleware(svc.Auth, cfg.Session.CookieName))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health.Ping(r.Context()); err != nil {
				slog.ErrorContext(r.Context(), "health check failed", "error", err)
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout + cfg.Chat.Timeout))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.List)
			r.Post("/", products.Create)
			r.Get("/{id}", products.Get)
			r.Put("/{id}", products.Update)
			r.Delete("/{id}", products.Delete)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orders.List)
			r.Post("/", orders.Create)
			r.Get("/{id}", orders.Get)
		})
		r.Post("/chat", chat.Send)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authn.Register)
			r.Post("/login", authn.Login)
			r.Post("/logout", authn.Logout)
			r.Get("/me", authn.Me)
			r.Patch("/me", authn.UpdateProfile)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
