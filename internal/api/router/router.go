package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/turnosbot/turnos/internal/http/handlers"
	httpmiddleware "github.com/turnosbot/turnos/internal/http/middleware"
	"github.com/turnosbot/turnos/pkg/logging"
)

// Config holds router configuration. Nil chat handlers leave their routes
// unregistered.
type Config struct {
	Logger             *logging.Logger
	Bookings           *handlers.BookingsHandler
	Services           *handlers.ServicesHandler
	ChatWebhook        http.Handler
	ChatWebsocket      http.Handler
	MetricsHandler     http.Handler
	AdminAPIKey        string
	AdminJWTSecret     string
	CORSAllowedOrigins []string
	RateLimiter        *httpmiddleware.RateLimiter
}

// New creates the chi router with every route configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Ruta no encontrada"})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/chat", func(chat chi.Router) {
		if cfg.RateLimiter != nil {
			chat.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		if cfg.ChatWebhook != nil {
			chat.With(middleware.Timeout(30 * time.Second)).Post("/webhook", cfg.ChatWebhook.ServeHTTP)
		}
		if cfg.ChatWebsocket != nil {
			chat.Get("/ws", cfg.ChatWebsocket.ServeHTTP)
		}
	})

	r.Route("/api", func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		api.Use(httpmiddleware.AdminAuth(cfg.AdminAPIKey, cfg.AdminJWTSecret))
		api.Use(middleware.Timeout(15 * time.Second))
		api.Use(middleware.Compress(5))

		if cfg.Bookings != nil {
			api.Route("/bookings", func(b chi.Router) {
				b.Get("/", cfg.Bookings.List)
				b.Post("/", cfg.Bookings.Create)
				b.Get("/availability", cfg.Bookings.Availability)
				b.Get("/suggestions", cfg.Bookings.Suggestions)
				b.Get("/{id}", cfg.Bookings.Get)
				b.Put("/{id}", cfg.Bookings.Update)
				b.Delete("/{id}", cfg.Bookings.Delete)
			})
		}
		if cfg.Services != nil {
			api.Route("/services", func(s chi.Router) {
				s.Get("/", cfg.Services.List)
				s.Post("/", cfg.Services.Create)
			})
		}
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
